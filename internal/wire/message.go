// Package wire encodes roster deltas and discrete game events into compact
// binary frames. A frame is one kind byte followed by a protobuf-wire body.
package wire

import (
	"fmt"

	"pegfall/internal/delta"
)

// Kind - first byte of every binary frame
type Kind uint8

const (
	KindRosterState Kind = iota + 1
	KindBallSpawn
	KindLaserEvent
	KindBallRemoved
)

func (k Kind) String() string {
	switch k {
	case KindRosterState:
		return "RosterState"
	case KindBallSpawn:
		return "BallSpawn"
	case KindLaserEvent:
		return "LaserEvent"
	case KindBallRemoved:
		return "BallRemoved"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// NullScore is the on-wire sentinel for a null score. Real scores are never
// negative.
const NullScore int32 = -1

// Message is implemented by the four frame shapes.
type Message interface {
	Kind() Kind
}

// RosterState carries a full or partial roster delta.
type RosterState struct {
	Delta delta.Delta
}

type BallSpawn struct {
	ParticipantID string
	X             float64
}

// LaserEvent is a pass-through visual event. Color uses the session's
// string form.
type LaserEvent struct {
	X1, Y1, X2, Y2 float64
	Color          string
}

type BallRemoved struct {
	BallID string
}

func (RosterState) Kind() Kind { return KindRosterState }
func (BallSpawn) Kind() Kind   { return KindBallSpawn }
func (LaserEvent) Kind() Kind  { return KindLaserEvent }
func (BallRemoved) Kind() Kind { return KindBallRemoved }
