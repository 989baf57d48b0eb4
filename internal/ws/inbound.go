package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"pegfall/internal/domain"
)

var ErrBadMessage = errors.New("bad message")

// clientMessage is the shared shape of JSON text and msgpack binary
// inbound frames.
type clientMessage struct {
	Type          string   `json:"type" msgpack:"type"`
	Name          string   `json:"name" msgpack:"name"`
	Color         string   `json:"color" msgpack:"color"`
	Role          string   `json:"role" msgpack:"role"`
	X             *float64 `json:"x" msgpack:"x"`
	X1            float64  `json:"x1" msgpack:"x1"`
	Y1            float64  `json:"y1" msgpack:"y1"`
	X2            float64  `json:"x2" msgpack:"x2"`
	Y2            float64  `json:"y2" msgpack:"y2"`
	ParticipantID string   `json:"participantId" msgpack:"participantId"`
	Points        *int     `json:"points" msgpack:"points"`
	BallID        string   `json:"ballId" msgpack:"ballId"`
	OwnerID       string   `json:"ownerId" msgpack:"ownerId"`
}

// DecodeEvent parses an inbound frame. Text frames are JSON, binary frames
// are msgpack.
func DecodeEvent(f Frame) (Event, error) {
	var (
		m   clientMessage
		err error
	)
	if f.Binary {
		err = msgpack.Unmarshal(f.Data, &m)
	} else {
		err = json.Unmarshal(f.Data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return m.event()
}

func (m clientMessage) event() (Event, error) {
	switch m.Type {
	case MsgJoin:
		return JoinEvent{Name: m.Name, Color: m.Color, Role: domain.ParseRole(m.Role)}, nil
	case MsgAddBot:
		return AddBotEvent{}, nil
	case MsgStartRound:
		return StartRoundEvent{}, nil
	case MsgResetToLobby:
		return ResetToLobbyEvent{}, nil
	case MsgRematch:
		return RematchEvent{}, nil
	case MsgDropBall:
		if m.X == nil || !finite(*m.X) {
			return nil, fmt.Errorf("%w: dropBall needs a finite x", ErrBadMessage)
		}
		return DropBallEvent{X: *m.X}, nil
	case MsgScoreReport:
		if m.Points == nil {
			return nil, fmt.Errorf("%w: scoreReport needs points", ErrBadMessage)
		}
		if *m.Points > domain.MaxPoints {
			return nil, fmt.Errorf("%w: points above %d", ErrBadMessage, domain.MaxPoints)
		}
		return ScoreReportEvent{ParticipantID: m.ParticipantID, Points: *m.Points}, nil
	case MsgFireLaser:
		for _, v := range []float64{m.X1, m.Y1, m.X2, m.Y2} {
			if !finite(v) {
				return nil, fmt.Errorf("%w: fireLaser coordinates must be finite", ErrBadMessage)
			}
		}
		return FireLaserEvent{X1: m.X1, Y1: m.Y1, X2: m.X2, Y2: m.Y2, Color: m.Color}, nil
	case MsgDestroyBall:
		if m.BallID == "" {
			return nil, fmt.Errorf("%w: destroyBall needs ballId", ErrBadMessage)
		}
		return DestroyBallEvent{BallID: m.BallID, OwnerID: m.OwnerID}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrBadMessage)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrBadMessage, m.Type)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
