// Package scheduler owns the per-participant round timers: randomized bot
// drops and scoring timeouts. Timer callbacks never touch session state;
// they hand a Fire to the post function, and the owner of the session
// claims it from its own loop.
package scheduler

import (
	"fmt"
	"math/rand/v2"
	"time"

	"pegfall/internal/clock"
)

type Purpose uint8

const (
	PurposeBotDrop Purpose = iota + 1
	PurposeScoreTimeout
)

func (p Purpose) String() string {
	switch p {
	case PurposeBotDrop:
		return "bot_drop"
	case PurposeScoreTimeout:
		return "score_timeout"
	default:
		return fmt.Sprintf("purpose(%d)", uint8(p))
	}
}

type Config struct {
	BotDelayMin  time.Duration
	BotDelayMax  time.Duration
	ScoreTimeout time.Duration
	MinX         float64
	MaxX         float64
}

func DefaultConfig() Config {
	return Config{
		BotDelayMin:  1 * time.Second,
		BotDelayMax:  5 * time.Second,
		ScoreTimeout: 15 * time.Second,
		MinX:         40,
		MaxX:         760,
	}
}

// Fire is what a timer posts when it expires. X is the drop position for
// bot drops.
type Fire struct {
	Purpose       Purpose
	ParticipantID string
	X             float64

	seq uint64
}

type key struct {
	id      string
	purpose Purpose
}

type entry struct {
	seq   uint64
	timer clock.Timer
}

// Scheduler keeps at most one outstanding timer per participant per
// purpose. It is not safe for concurrent use: every method must be called
// from the goroutine that owns the session.
type Scheduler struct {
	cfg     Config
	clock   clock.Clock
	rng     *rand.Rand
	post    func(Fire)
	seq     uint64
	pending map[key]entry
}

type Option func(*Scheduler)

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithRand(r *rand.Rand) Option {
	return func(s *Scheduler) { s.rng = r }
}

// New builds a scheduler. post is invoked from timer goroutines and must not
// block.
func New(cfg Config, post func(Fire), opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:     cfg,
		clock:   clock.Real{},
		post:    post,
		pending: make(map[key]entry),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// ScheduleBotDrop arms a drop for a bot unless one is already outstanding.
func (s *Scheduler) ScheduleBotDrop(id string) bool {
	k := key{id: id, purpose: PurposeBotDrop}
	if _, ok := s.pending[k]; ok {
		return false
	}
	s.arm(k, s.botDelay(), s.dropX())
	return true
}

// ScheduleBotDrops arms drops for every id without one and returns how many
// were armed.
func (s *Scheduler) ScheduleBotDrops(ids []string) int {
	n := 0
	for _, id := range ids {
		if s.ScheduleBotDrop(id) {
			n++
		}
	}
	return n
}

// StartScoreTimeout arms the scoring timeout for id, replacing any
// outstanding one.
func (s *Scheduler) StartScoreTimeout(id string) {
	k := key{id: id, purpose: PurposeScoreTimeout}
	s.stop(k)
	s.arm(k, s.cfg.ScoreTimeout, 0)
}

// Cancel removes the timer for id and purpose if present.
func (s *Scheduler) Cancel(id string, p Purpose) {
	s.stop(key{id: id, purpose: p})
}

// CancelParticipant removes every timer of id.
func (s *Scheduler) CancelParticipant(id string) {
	s.stop(key{id: id, purpose: PurposeBotDrop})
	s.stop(key{id: id, purpose: PurposeScoreTimeout})
}

func (s *Scheduler) CancelAll() {
	for k, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, k)
	}
}

// Claim consumes the entry behind f. It returns false for a fire whose
// timer was cancelled or superseded after it had already expired.
func (s *Scheduler) Claim(f Fire) bool {
	k := key{id: f.ParticipantID, purpose: f.Purpose}
	e, ok := s.pending[k]
	if !ok || e.seq != f.seq {
		return false
	}
	delete(s.pending, k)
	return true
}

func (s *Scheduler) Pending(id string, p Purpose) bool {
	_, ok := s.pending[key{id: id, purpose: p}]
	return ok
}

// Len returns the number of outstanding timers.
func (s *Scheduler) Len() int {
	return len(s.pending)
}

func (s *Scheduler) Config() Config {
	return s.cfg
}

// ClampX keeps a drop position inside the board.
func (s *Scheduler) ClampX(x float64) float64 {
	return min(max(x, s.cfg.MinX), s.cfg.MaxX)
}

func (s *Scheduler) arm(k key, d time.Duration, x float64) {
	s.seq++
	f := Fire{Purpose: k.purpose, ParticipantID: k.id, X: x, seq: s.seq}
	t := s.clock.AfterFunc(d, func() { s.post(f) })
	s.pending[k] = entry{seq: f.seq, timer: t}
}

func (s *Scheduler) stop(k key) {
	if e, ok := s.pending[k]; ok {
		e.timer.Stop()
		delete(s.pending, k)
	}
}

func (s *Scheduler) botDelay() time.Duration {
	lo, hi := s.cfg.BotDelayMin, s.cfg.BotDelayMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.rng.Int64N(int64(hi-lo)+1))
}

func (s *Scheduler) dropX() float64 {
	lo, hi := s.cfg.MinX, s.cfg.MaxX
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Float64()*(hi-lo)
}
