package domain

import "fmt"

// Phase - session-wide stage
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhasePlaying
	PhaseRoundOver
)

func (p Phase) Valid() bool {
	return p <= PhaseRoundOver
}

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhasePlaying:
		return "playing"
	case PhaseRoundOver:
		return "round_over"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for _, q := range []Phase{PhaseLobby, PhasePlaying, PhaseRoundOver} {
		if string(b) == q.String() {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Role - how a participant takes part in a round
type Role string

const (
	RoleCompetitor Role = "competitor"
	RoleSpectator  Role = "spectator"
)

// ParseRole maps a client supplied role; anything unknown is a competitor.
func ParseRole(s string) Role {
	if s == string(RoleSpectator) {
		return RoleSpectator
	}
	return RoleCompetitor
}
