package ws

import (
	"pegfall/internal/domain"
	"pegfall/internal/scheduler"
)

// Command is everything a room loop processes, one at a time.
type Command interface{ isCommand() }

// Connect attaches a connection to the room.
type Connect struct {
	ConnID string
	Conn   Conn
}

type Disconnect struct{ ConnID string }

// FromClient carries a decoded inbound event of a connection.
type FromClient struct {
	ConnID string
	Event  Event
}

type timerFired struct{ Fire scheduler.Fire }

// Inspect asks for a consistent view of the room.
type Inspect struct {
	Reply chan View
}

type Shutdown struct{}

func (Connect) isCommand()    {}
func (Disconnect) isCommand() {}
func (FromClient) isCommand() {}
func (timerFired) isCommand() {}
func (Inspect) isCommand()    {}
func (Shutdown) isCommand()   {}

// View is a read-only copy of room state.
type View struct {
	Code          string        `json:"code"`
	Roster        domain.Roster `json:"roster"`
	Phase         string        `json:"phase"`
	Round         int           `json:"round"`
	Host          string        `json:"host,omitempty"`
	Connections   int           `json:"connections"`
	PendingTimers int           `json:"pendingTimers"`
}

// Event is one inbound client event.
type Event interface{ eventType() string }

type JoinEvent struct {
	Name  string
	Color string
	Role  domain.Role
}

type AddBotEvent struct{}

type StartRoundEvent struct{}

type ResetToLobbyEvent struct{}

type RematchEvent struct{}

type DropBallEvent struct{ X float64 }

// ScoreReportEvent reports points for ParticipantID; empty means the
// sender.
type ScoreReportEvent struct {
	ParticipantID string
	Points        int
}

type FireLaserEvent struct {
	X1, Y1, X2, Y2 float64
	Color          string
}

type DestroyBallEvent struct {
	BallID  string
	OwnerID string
}

func (JoinEvent) eventType() string         { return MsgJoin }
func (AddBotEvent) eventType() string       { return MsgAddBot }
func (StartRoundEvent) eventType() string   { return MsgStartRound }
func (ResetToLobbyEvent) eventType() string { return MsgResetToLobby }
func (RematchEvent) eventType() string      { return MsgRematch }
func (DropBallEvent) eventType() string     { return MsgDropBall }
func (ScoreReportEvent) eventType() string  { return MsgScoreReport }
func (FireLaserEvent) eventType() string    { return MsgFireLaser }
func (DestroyBallEvent) eventType() string  { return MsgDestroyBall }
