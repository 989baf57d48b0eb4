// Package session holds the authoritative roster and phase of one game
// room. A Session is a plain value owned by a single goroutine; it never
// blocks and never talks to the network.
//
// Operations that are not legal in the current phase are no-ops and report
// false; only Join and AddBot return errors.
package session

import (
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"pegfall/internal/domain"
)

var (
	ErrDuplicateName    = errors.New("name already taken")
	ErrCapacityExceeded = errors.New("room is full")
)

type Limits struct {
	MaxParticipants int
	BotNameAttempts int
}

func DefaultLimits() Limits {
	return Limits{MaxParticipants: 8, BotNameAttempts: 10}
}

type Session struct {
	limits Limits
	roster domain.Roster
	acted  map[string]bool
	round  int
	rng    *rand.Rand
	newID  func() string
}

type Option func(*Session)

// WithRand seeds bot name selection.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithIDs replaces the uuid participant id source.
func WithIDs(f func() string) Option {
	return func(s *Session) { s.newID = f }
}

func New(limits Limits, opts ...Option) *Session {
	if limits.MaxParticipants <= 0 {
		limits.MaxParticipants = DefaultLimits().MaxParticipants
	}
	if limits.BotNameAttempts < 0 {
		limits.BotNameAttempts = 0
	}
	s := &Session{
		limits: limits,
		roster: domain.Roster{Phase: domain.PhaseLobby},
		acted:  make(map[string]bool),
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

type JoinResult struct {
	Participant domain.Participant
	// Evicted is the id of the bot removed to make room, if any.
	Evicted string
}

// Join adds a human. A full roster gives up its most recently added bot
// before the join is rejected.
func (s *Session) Join(name, color string, role domain.Role) (JoinResult, error) {
	name = strings.TrimSpace(name)
	if name != "" && s.nameTaken(name) {
		return JoinResult{}, ErrDuplicateName
	}

	var res JoinResult
	if len(s.roster.Participants) >= s.limits.MaxParticipants {
		bot := s.lastBot()
		if bot < 0 {
			return JoinResult{}, ErrCapacityExceeded
		}
		res.Evicted = s.roster.Participants[bot].ID
		s.drop(bot)
	}

	if name == "" {
		name = s.numbered("Player")
	}
	p := domain.NewParticipant(s.newID(), role == domain.RoleSpectator)
	p.Name = name
	p.Color = domain.NormalizeColor(color, s.pickColor())
	s.roster.Participants = append(s.roster.Participants, p)
	s.evaluateGameOver()

	res.Participant = p
	return res, nil
}

// AddBot adds a computer player. It never evicts.
func (s *Session) AddBot() (domain.Participant, error) {
	if len(s.roster.Participants) >= s.limits.MaxParticipants {
		return domain.Participant{}, ErrCapacityExceeded
	}
	p := domain.NewParticipant("bot-"+s.newID(), false)
	p.Bot = true
	p.Name = s.botName()
	p.Color = s.pickColor()
	s.roster.Participants = append(s.roster.Participants, p)
	return p, nil
}

// StartRound moves Lobby to Playing.
func (s *Session) StartRound() bool {
	if s.roster.Phase != domain.PhaseLobby {
		return false
	}
	s.beginRound()
	return true
}

// ResetToLobby clears the roster from any phase.
func (s *Session) ResetToLobby() {
	s.roster = domain.Roster{Phase: domain.PhaseLobby}
	clear(s.acted)
}

// Rematch restarts the round from any phase keeping the roster.
func (s *Session) Rematch() {
	s.beginRound()
}

func (s *Session) beginRound() {
	for i := range s.roster.Participants {
		s.roster.Participants[i].ResetRound()
	}
	clear(s.acted)
	s.roster.Phase = domain.PhasePlaying
	s.round++
}

// MarkActed records that id released its ball this round.
func (s *Session) MarkActed(id string) bool {
	if s.roster.Phase != domain.PhasePlaying || s.acted[id] {
		return false
	}
	i := s.roster.Index(id)
	if i < 0 || s.roster.Participants[i].Finished {
		return false
	}
	s.acted[id] = true
	return true
}

func (s *Session) HasActed(id string) bool {
	return s.acted[id]
}

// RecordScore fixes the round outcome for id. A score for a participant
// that never acted is kept but flags them as a cheater.
func (s *Session) RecordScore(id string, points int) bool {
	if s.roster.Phase != domain.PhasePlaying {
		return false
	}
	i := s.roster.Index(id)
	if i < 0 || s.roster.Participants[i].Finished {
		return false
	}
	p := &s.roster.Participants[i]
	p.Score = domain.Points(min(max(points, 0), domain.MaxPoints))
	p.Finished = true
	p.Cheater = !s.acted[id]
	s.evaluateGameOver()
	return true
}

// Remove drops id. An empty roster falls back to Lobby.
func (s *Session) Remove(id string) bool {
	i := s.roster.Index(id)
	if i < 0 {
		return false
	}
	s.drop(i)
	if len(s.roster.Participants) == 0 {
		s.roster.Phase = domain.PhaseLobby
		return true
	}
	s.evaluateGameOver()
	return true
}

func (s *Session) drop(i int) {
	delete(s.acted, s.roster.Participants[i].ID)
	s.roster.Participants = append(s.roster.Participants[:i], s.roster.Participants[i+1:]...)
}

// evaluateGameOver ends the round once every competitor is finished.
func (s *Session) evaluateGameOver() bool {
	if s.roster.Phase != domain.PhasePlaying {
		return false
	}
	competitors := 0
	for _, p := range s.roster.Participants {
		if !p.Competing() {
			continue
		}
		if !p.Finished {
			return false
		}
		competitors++
	}
	if competitors == 0 {
		return false
	}
	s.roster.Phase = domain.PhaseRoundOver
	return true
}

func (s *Session) lastBot() int {
	for i := len(s.roster.Participants) - 1; i >= 0; i-- {
		if s.roster.Participants[i].Bot {
			return i
		}
	}
	return -1
}

// Snapshot returns a copy safe to keep.
func (s *Session) Snapshot() domain.Roster {
	return s.roster.Clone()
}

func (s *Session) Phase() domain.Phase {
	return s.roster.Phase
}

func (s *Session) Participant(id string) (domain.Participant, bool) {
	return s.roster.Find(id)
}

// Host is the earliest joined human still present, or "".
func (s *Session) Host() string {
	for _, p := range s.roster.Participants {
		if !p.Bot {
			return p.ID
		}
	}
	return ""
}

// PendingBots lists bots that still have to drop this round.
func (s *Session) PendingBots() []string {
	if s.roster.Phase != domain.PhasePlaying {
		return nil
	}
	var ids []string
	for _, p := range s.roster.Participants {
		if p.Bot && p.Competing() && !p.Finished && !s.acted[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Round counts started rounds.
func (s *Session) Round() int {
	return s.round
}

func (s *Session) Len() int {
	return len(s.roster.Participants)
}
