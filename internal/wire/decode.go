package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"pegfall/internal/delta"
	"pegfall/internal/domain"
)

// Decode parses one binary frame. Any failure is a *DecodeError and no
// partial message is returned.
func Decode(frame []byte) (Message, error) {
	if len(frame) == 0 {
		return nil, &DecodeError{Offset: 0, Err: ErrEmptyFrame}
	}
	k := Kind(frame[0])
	r := &reader{kind: k, buf: frame, off: 1}

	switch k {
	case KindRosterState:
		d, err := r.roster(len(frame))
		if err != nil {
			return nil, err
		}
		return RosterState{Delta: d}, nil
	case KindBallSpawn:
		return r.spawn()
	case KindLaserEvent:
		return r.laser()
	case KindBallRemoved:
		return r.ballRemoved()
	default:
		return nil, &DecodeError{Kind: k, Offset: 0, Err: ErrUnknownKind}
	}
}

// reader walks protobuf fields over buf[off:end] keeping absolute offsets
// for error reports.
type reader struct {
	kind Kind
	buf  []byte
	off  int
}

func (r *reader) fail(off int, err error) *DecodeError {
	return &DecodeError{Kind: r.kind, Offset: off, Err: err}
}

// fields calls fn for each field in buf[r.off:end]. fn consumes the value
// starting at r.off and returns false to have it skipped as unknown.
func (r *reader) fields(end int, fn func(num protowire.Number, typ protowire.Type) (bool, error)) error {
	for r.off < end {
		num, typ, n := protowire.ConsumeTag(r.buf[r.off:end])
		if n < 0 {
			return r.fail(r.off, protowire.ParseError(n))
		}
		r.off += n

		handled, err := fn(num, typ)
		if err != nil {
			return err
		}
		if handled {
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, r.buf[r.off:end])
		if n < 0 {
			return r.fail(r.off, protowire.ParseError(n))
		}
		r.off += n
	}
	return nil
}

func (r *reader) expect(typ, want protowire.Type) error {
	if typ != want {
		return r.fail(r.off, fmt.Errorf("%w: got %d want %d", ErrWireType, typ, want))
	}
	return nil
}

func (r *reader) bytes(typ protowire.Type, end int) ([]byte, error) {
	if err := r.expect(typ, protowire.BytesType); err != nil {
		return nil, err
	}
	v, n := protowire.ConsumeBytes(r.buf[r.off:end])
	if n < 0 {
		return nil, r.fail(r.off, protowire.ParseError(n))
	}
	r.off += n
	return v, nil
}

func (r *reader) str(typ protowire.Type, end int) (string, error) {
	v, err := r.bytes(typ, end)
	return string(v), err
}

func (r *reader) varint(typ protowire.Type, end int) (uint64, error) {
	if err := r.expect(typ, protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(r.buf[r.off:end])
	if n < 0 {
		return 0, r.fail(r.off, protowire.ParseError(n))
	}
	r.off += n
	return v, nil
}

func (r *reader) flag(typ protowire.Type, end int) (bool, error) {
	v, err := r.varint(typ, end)
	return protowire.DecodeBool(v), err
}

func (r *reader) double(typ protowire.Type, end int) (float64, error) {
	if err := r.expect(typ, protowire.Fixed64Type); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeFixed64(r.buf[r.off:end])
	if n < 0 {
		return 0, r.fail(r.off, protowire.ParseError(n))
	}
	r.off += n
	return math.Float64frombits(v), nil
}

func (r *reader) color(typ protowire.Type, end int) (string, error) {
	start := r.off
	v, err := r.varint(typ, end)
	if err != nil {
		return "", err
	}
	if v > domain.MaxRGB {
		return "", r.fail(start, fmt.Errorf("%w: color %#x", ErrOutOfRange, v))
	}
	return domain.FormatColor(int32(v)), nil
}

func (r *reader) roster(end int) (delta.Delta, error) {
	var d delta.Delta
	err := r.fields(end, func(num protowire.Number, typ protowire.Type) (bool, error) {
		switch num {
		case fieldRosterParticipants:
			if err := r.expect(typ, protowire.BytesType); err != nil {
				return true, err
			}
			size, n := protowire.ConsumeVarint(r.buf[r.off:end])
			if n < 0 {
				return true, r.fail(r.off, protowire.ParseError(n))
			}
			r.off += n
			if size > uint64(end-r.off) {
				return true, r.fail(r.off, protowire.ParseError(-1))
			}
			p, err := r.patch(r.off + int(size))
			if err != nil {
				return true, err
			}
			d.Participants = append(d.Participants, p)
		case fieldRosterPhase:
			start := r.off
			v, err := r.varint(typ, end)
			if err != nil {
				return true, err
			}
			ph := domain.Phase(v)
			if v > math.MaxUint8 || !ph.Valid() {
				return true, r.fail(start, fmt.Errorf("%w: phase %d", ErrOutOfRange, v))
			}
			d.Phase = delta.Some(ph)
		case fieldRosterFull:
			v, err := r.flag(typ, end)
			if err != nil {
				return true, err
			}
			d.Full = v
		case fieldRosterRemoved:
			id, err := r.str(typ, end)
			if err != nil {
				return true, err
			}
			d.Removed = append(d.Removed, id)
		default:
			return false, nil
		}
		return true, nil
	})
	return d, err
}

func (r *reader) patch(end int) (delta.Patch, error) {
	start := r.off
	var (
		p     delta.Patch
		hasID bool
	)
	err := r.fields(end, func(num protowire.Number, typ protowire.Type) (bool, error) {
		var err error
		switch num {
		case fieldParticipantID:
			p.ID, err = r.str(typ, end)
			hasID = err == nil
		case fieldParticipantName:
			var v string
			if v, err = r.str(typ, end); err == nil {
				p.Name = delta.Some(v)
			}
		case fieldParticipantColor:
			var v string
			if v, err = r.color(typ, end); err == nil {
				p.Color = delta.Some(v)
			}
		case fieldParticipantScore:
			at := r.off
			var raw uint64
			if raw, err = r.varint(typ, end); err == nil {
				v := protowire.DecodeZigZag(raw)
				if v < int64(NullScore) || v > math.MaxInt32 {
					return true, r.fail(at, fmt.Errorf("%w: score %d", ErrOutOfRange, v))
				}
				p.Score = delta.Some(scoreFromWire(int32(v)))
			}
		case fieldParticipantCheater:
			p.Cheater, err = r.optBool(typ, end)
		case fieldParticipantBot:
			p.Bot, err = r.optBool(typ, end)
		case fieldParticipantSpectator:
			p.Spectator, err = r.optBool(typ, end)
		case fieldParticipantFinished:
			p.Finished, err = r.optBool(typ, end)
		default:
			return false, nil
		}
		return true, err
	})
	if err != nil {
		return delta.Patch{}, err
	}
	if !hasID || p.ID == "" {
		return delta.Patch{}, r.fail(start, fmt.Errorf("%w: participant id", ErrMissingField))
	}
	return p, nil
}

func (r *reader) optBool(typ protowire.Type, end int) (delta.Optional[bool], error) {
	v, err := r.flag(typ, end)
	if err != nil {
		return delta.Optional[bool]{}, err
	}
	return delta.Some(v), nil
}

func (r *reader) spawn() (Message, error) {
	end := len(r.buf)
	var (
		m           BallSpawn
		hasID, hasX bool
	)
	err := r.fields(end, func(num protowire.Number, typ protowire.Type) (bool, error) {
		var err error
		switch num {
		case fieldSpawnParticipant:
			m.ParticipantID, err = r.str(typ, end)
			hasID = err == nil && m.ParticipantID != ""
		case fieldSpawnX:
			m.X, err = r.double(typ, end)
			hasX = err == nil
		default:
			return false, nil
		}
		return true, err
	})
	if err != nil {
		return nil, err
	}
	if !hasID {
		return nil, r.fail(r.off, fmt.Errorf("%w: participantId", ErrMissingField))
	}
	if !hasX {
		return nil, r.fail(r.off, fmt.Errorf("%w: x", ErrMissingField))
	}
	return m, nil
}

func (r *reader) laser() (Message, error) {
	end := len(r.buf)
	var (
		m    LaserEvent
		seen [6]bool
	)
	err := r.fields(end, func(num protowire.Number, typ protowire.Type) (bool, error) {
		var err error
		switch num {
		case fieldLaserX1:
			m.X1, err = r.double(typ, end)
		case fieldLaserY1:
			m.Y1, err = r.double(typ, end)
		case fieldLaserX2:
			m.X2, err = r.double(typ, end)
		case fieldLaserY2:
			m.Y2, err = r.double(typ, end)
		case fieldLaserColor:
			m.Color, err = r.color(typ, end)
		default:
			return false, nil
		}
		if err == nil {
			seen[num] = true
		}
		return true, err
	})
	if err != nil {
		return nil, err
	}
	names := [...]string{"", "x1", "y1", "x2", "y2", "colorRGB"}
	for num := fieldLaserX1; num <= fieldLaserColor; num++ {
		if !seen[num] {
			return nil, r.fail(r.off, fmt.Errorf("%w: %s", ErrMissingField, names[num]))
		}
	}
	return m, nil
}

func (r *reader) ballRemoved() (Message, error) {
	end := len(r.buf)
	var m BallRemoved
	err := r.fields(end, func(num protowire.Number, typ protowire.Type) (bool, error) {
		if num != fieldRemovedBall {
			return false, nil
		}
		var err error
		m.BallID, err = r.str(typ, end)
		return true, err
	})
	if err != nil {
		return nil, err
	}
	if m.BallID == "" {
		return nil, r.fail(r.off, fmt.Errorf("%w: ballId", ErrMissingField))
	}
	return m, nil
}
