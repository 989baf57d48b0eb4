package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"pegfall/internal/delta"
	"pegfall/internal/domain"
)

// RosterState fields
const (
	fieldRosterParticipants protowire.Number = 1
	fieldRosterPhase        protowire.Number = 2
	fieldRosterFull         protowire.Number = 3
	fieldRosterRemoved      protowire.Number = 4
)

// Participant fields
const (
	fieldParticipantID        protowire.Number = 1
	fieldParticipantName      protowire.Number = 2
	fieldParticipantColor     protowire.Number = 3
	fieldParticipantScore     protowire.Number = 4
	fieldParticipantCheater   protowire.Number = 5
	fieldParticipantBot       protowire.Number = 6
	fieldParticipantSpectator protowire.Number = 7
	fieldParticipantFinished  protowire.Number = 8
)

const (
	fieldSpawnParticipant protowire.Number = 1
	fieldSpawnX           protowire.Number = 2

	fieldLaserX1    protowire.Number = 1
	fieldLaserY1    protowire.Number = 2
	fieldLaserX2    protowire.Number = 3
	fieldLaserY2    protowire.Number = 4
	fieldLaserColor protowire.Number = 5

	fieldRemovedBall protowire.Number = 1
)

// Encode validates m and serializes it into a single binary frame.
func Encode(m Message) ([]byte, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}

	b := []byte{byte(m.Kind())}
	switch v := m.(type) {
	case RosterState:
		return appendRoster(b, v.Delta), nil
	case BallSpawn:
		return appendSpawn(b, v), nil
	case LaserEvent:
		return appendLaser(b, v), nil
	case BallRemoved:
		return appendBallRemoved(b, v), nil
	default:
		return nil, fmt.Errorf("wire: unsupported message %T", m)
	}
}

// Validate checks field presence and ranges without serializing.
func Validate(m Message) error {
	switch v := m.(type) {
	case RosterState:
		return validateRoster(v.Delta)
	case BallSpawn:
		return validateSpawn(v)
	case LaserEvent:
		return validateLaser(v)
	case BallRemoved:
		return validateBallRemoved(v)
	case nil:
		return fmt.Errorf("wire: nil message")
	default:
		return fmt.Errorf("wire: unsupported message %T", m)
	}
}

func validateRoster(d delta.Delta) error {
	if ph, ok := d.Phase.Get(); ok && !ph.Valid() {
		return invalid(KindRosterState, "phase", fmt.Sprintf("unknown phase %d", uint8(ph)))
	}
	if d.Full && !d.Phase.IsSet() {
		return invalid(KindRosterState, "phase", "required on full replacement")
	}
	for i, p := range d.Participants {
		field := func(name string) string { return fmt.Sprintf("participants[%d].%s", i, name) }
		if p.ID == "" {
			return invalid(KindRosterState, field("id"), "empty")
		}
		if c, ok := p.Color.Get(); ok {
			if _, err := domain.ParseColor(c); err != nil {
				return invalid(KindRosterState, field("colorRGB"), err.Error())
			}
		}
		if s, ok := p.Score.Get(); ok {
			if n, set := s.Int(); set && (n < 0 || n > math.MaxInt32) {
				return invalid(KindRosterState, field("score"), fmt.Sprintf("%d out of range", n))
			}
		}
	}
	for i, id := range d.Removed {
		if id == "" {
			return invalid(KindRosterState, fmt.Sprintf("removed[%d]", i), "empty")
		}
	}
	return nil
}

func validateSpawn(m BallSpawn) error {
	if m.ParticipantID == "" {
		return invalid(KindBallSpawn, "participantId", "empty")
	}
	if !finite(m.X) {
		return invalid(KindBallSpawn, "x", "not finite")
	}
	return nil
}

func validateLaser(m LaserEvent) error {
	for _, c := range []struct {
		name string
		v    float64
	}{{"x1", m.X1}, {"y1", m.Y1}, {"x2", m.X2}, {"y2", m.Y2}} {
		if !finite(c.v) {
			return invalid(KindLaserEvent, c.name, "not finite")
		}
	}
	if _, err := domain.ParseColor(m.Color); err != nil {
		return invalid(KindLaserEvent, "colorRGB", err.Error())
	}
	return nil
}

func validateBallRemoved(m BallRemoved) error {
	if m.BallID == "" {
		return invalid(KindBallRemoved, "ballId", "empty")
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func appendRoster(b []byte, d delta.Delta) []byte {
	var scratch []byte
	for _, p := range d.Participants {
		scratch = appendPatch(scratch[:0], p)
		b = protowire.AppendTag(b, fieldRosterParticipants, protowire.BytesType)
		b = protowire.AppendBytes(b, scratch)
	}
	if ph, ok := d.Phase.Get(); ok {
		b = protowire.AppendTag(b, fieldRosterPhase, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(ph))
	}
	if d.Full {
		b = protowire.AppendTag(b, fieldRosterFull, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	for _, id := range d.Removed {
		b = protowire.AppendTag(b, fieldRosterRemoved, protowire.BytesType)
		b = protowire.AppendString(b, id)
	}
	return b
}

func appendPatch(b []byte, p delta.Patch) []byte {
	b = protowire.AppendTag(b, fieldParticipantID, protowire.BytesType)
	b = protowire.AppendString(b, p.ID)
	if v, ok := p.Name.Get(); ok {
		b = protowire.AppendTag(b, fieldParticipantName, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}
	if v, ok := p.Color.Get(); ok {
		rgb, _ := domain.ParseColor(v)
		b = protowire.AppendTag(b, fieldParticipantColor, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(rgb))
	}
	if v, ok := p.Score.Get(); ok {
		b = protowire.AppendTag(b, fieldParticipantScore, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(scoreToWire(v))))
	}
	b = appendBool(b, fieldParticipantCheater, p.Cheater)
	b = appendBool(b, fieldParticipantBot, p.Bot)
	b = appendBool(b, fieldParticipantSpectator, p.Spectator)
	b = appendBool(b, fieldParticipantFinished, p.Finished)
	return b
}

func appendBool(b []byte, num protowire.Number, o delta.Optional[bool]) []byte {
	v, ok := o.Get()
	if !ok {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendSpawn(b []byte, m BallSpawn) []byte {
	b = protowire.AppendTag(b, fieldSpawnParticipant, protowire.BytesType)
	b = protowire.AppendString(b, m.ParticipantID)
	return appendDouble(b, fieldSpawnX, m.X)
}

func appendLaser(b []byte, m LaserEvent) []byte {
	b = appendDouble(b, fieldLaserX1, m.X1)
	b = appendDouble(b, fieldLaserY1, m.Y1)
	b = appendDouble(b, fieldLaserX2, m.X2)
	b = appendDouble(b, fieldLaserY2, m.Y2)
	rgb, _ := domain.ParseColor(m.Color)
	b = protowire.AppendTag(b, fieldLaserColor, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(rgb))
}

func appendBallRemoved(b []byte, m BallRemoved) []byte {
	b = protowire.AppendTag(b, fieldRemovedBall, protowire.BytesType)
	return protowire.AppendString(b, m.BallID)
}

func scoreToWire(s domain.Score) int32 {
	n, ok := s.Int()
	if !ok {
		return NullScore
	}
	return int32(n)
}

func scoreFromWire(v int32) domain.Score {
	if v == NullScore {
		return domain.NullScore()
	}
	return domain.Points(int(v))
}
