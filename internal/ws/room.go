package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pegfall/internal/clock"
	"pegfall/internal/delta"
	"pegfall/internal/domain"
	"pegfall/internal/logger"
	"pegfall/internal/metrics"
	"pegfall/internal/scheduler"
	"pegfall/internal/session"
	"pegfall/internal/wire"
)

// Recorder archives finished rounds.
type Recorder interface {
	RecordRound(ctx context.Context, res *domain.RoundResult) error
}

const archiveTimeout = 5 * time.Second

type RoomConfig struct {
	Limits    session.Limits
	Scheduler scheduler.Config
}

func DefaultRoomConfig() RoomConfig {
	return RoomConfig{Limits: session.DefaultLimits(), Scheduler: scheduler.DefaultConfig()}
}

type RoomOption func(*Room)

func WithClock(c clock.Clock) RoomOption {
	return func(r *Room) { r.clock = c }
}

func WithRecorder(rec Recorder) RoomOption {
	return func(r *Room) { r.recorder = rec }
}

// WithSessionOptions forwards options to the room's session.
func WithSessionOptions(opts ...session.Option) RoomOption {
	return func(r *Room) { r.sessionOpts = append(r.sessionOpts, opts...) }
}

func WithSchedulerOptions(opts ...scheduler.Option) RoomOption {
	return func(r *Room) { r.schedOpts = append(r.schedOpts, opts...) }
}

// OnEmpty is called from the room goroutine after the last connection
// detached. Returning false keeps the room running.
func OnEmpty(f func(*Room) bool) RoomOption {
	return func(r *Room) { r.onEmpty = f }
}

type peer struct {
	id          string
	conn        Conn
	participant string
}

// Room is the single owner of one session. All state below inbox is only
// touched by the Run goroutine.
type Room struct {
	Code string

	inbox    chan Command
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	conns     atomic.Int32
	idleSince atomic.Int64

	clock       clock.Clock
	recorder    Recorder
	onEmpty     func(*Room) bool
	sessionOpts []session.Option
	schedOpts   []scheduler.Option
	log         *slog.Logger

	session *session.Session
	sched   *scheduler.Scheduler
	peers   map[string]*peer
	last    domain.Roster
	slow    []string
	closing bool
}

func NewRoom(code string, cfg RoomConfig, opts ...RoomOption) *Room {
	r := &Room{
		Code:  code,
		inbox: make(chan Command, 64),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		clock: clock.Real{},
		peers: make(map[string]*peer),
		last:  domain.Roster{Phase: domain.PhaseLobby},
	}
	for _, o := range opts {
		o(r)
	}
	r.log = logger.With("component", "room", "room", code)
	r.session = session.New(cfg.Limits, r.sessionOpts...)
	schedOpts := append([]scheduler.Option{scheduler.WithClock(r.clock)}, r.schedOpts...)
	r.sched = scheduler.New(cfg.Scheduler, func(f scheduler.Fire) { r.Submit(timerFired{Fire: f}) }, schedOpts...)
	r.idleSince.Store(time.Now().UnixNano())
	return r
}

// Submit queues cmd. It returns false once the room stopped.
func (r *Room) Submit(cmd Command) bool {
	select {
	case <-r.quit:
		return false
	default:
	}
	select {
	case r.inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

// TrySubmit queues cmd without waiting for inbox space.
func (r *Room) TrySubmit(cmd Command) bool {
	if r.stopped() {
		return false
	}
	select {
	case r.inbox <- cmd:
		return true
	default:
		return false
	}
}

func (r *Room) stopped() bool {
	select {
	case <-r.quit:
		return true
	default:
		return false
	}
}

// pending is the number of queued commands.
func (r *Room) pending() int { return len(r.inbox) }

// Stop ends the loop. Safe to call more than once.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed after Run returned.
func (r *Room) Done() <-chan struct{} { return r.done }

// Connections is the number of attached connections.
func (r *Room) Connections() int { return int(r.conns.Load()) }

// IdleFor reports how long the room has had no connections, or zero.
func (r *Room) IdleFor(now time.Time) time.Duration {
	if r.conns.Load() > 0 {
		return 0
	}
	return now.Sub(time.Unix(0, r.idleSince.Load()))
}

// View returns a consistent view of the room, or false when it stopped.
func (r *Room) View(ctx context.Context) (View, bool) {
	reply := make(chan View, 1)
	if !r.Submit(Inspect{Reply: reply}) {
		return View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-ctx.Done():
		return View{}, false
	case <-r.done:
		return View{}, false
	}
}

func (r *Room) Run(ctx context.Context) {
	metrics.ActiveRooms.Inc()
	defer func() {
		r.shutdown()
		metrics.ActiveRooms.Dec()
		close(r.done)
	}()

	r.log.Debug("room started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.quit:
			return
		case cmd := <-r.inbox:
			if _, ok := cmd.(Shutdown); ok {
				return
			}
			r.process(cmd)
			if r.closing && len(r.peers) == 0 && r.release() {
				r.log.Debug("last connection left, closing room")
				return
			}
		}
	}
}

// release asks the owner to let the room go. A refusal means new commands
// are queued, so the loop keeps serving them.
func (r *Room) release() bool {
	if r.onEmpty == nil {
		return true
	}
	return r.onEmpty(r)
}

func (r *Room) shutdown() {
	r.Stop()
	r.sched.CancelAll()
	for id, p := range r.peers {
		_ = p.conn.Close()
		delete(r.peers, id)
		metrics.ActiveConnections.Dec()
	}
	r.conns.Store(0)
}

func (r *Room) process(cmd Command) {
	force := r.handle(cmd)
	r.flush(force)
	for len(r.slow) > 0 {
		ids := r.slow
		r.slow = nil
		for _, id := range ids {
			metrics.SlowConsumers.Inc()
			r.detach(id)
		}
		r.flush(false)
	}
}

// handle applies one command. It reports whether the next broadcast must be
// a full replacement.
func (r *Room) handle(cmd Command) bool {
	switch c := cmd.(type) {
	case Connect:
		metrics.Commands.WithLabelValues("connect").Inc()
		r.attach(c)
	case Disconnect:
		metrics.Commands.WithLabelValues("disconnect").Inc()
		r.detach(c.ConnID)
	case FromClient:
		if c.Event == nil {
			return false
		}
		metrics.Commands.WithLabelValues(c.Event.eventType()).Inc()
		return r.handleEvent(c)
	case timerFired:
		metrics.Commands.WithLabelValues("timer").Inc()
		r.handleFire(c.Fire)
	case Inspect:
		c.Reply <- r.view()
	}
	return false
}

func (r *Room) attach(c Connect) {
	if _, ok := r.peers[c.ConnID]; ok {
		return
	}
	p := &peer{id: c.ConnID, conn: c.Conn}
	r.peers[c.ConnID] = p
	r.conns.Add(1)
	metrics.ActiveConnections.Inc()

	r.sendText(p, MsgWelcome, WelcomePayload{
		RoomCode:     r.Code,
		ConnectionID: p.id,
		Phase:        r.last.Phase.String(),
		Round:        r.session.Round(),
	})
	if b, ok := r.encode(wire.RosterState{Delta: delta.Full(r.last)}); ok {
		r.sendFrame(p, Frame{Binary: true, Data: b}, wire.KindRosterState)
	}
}

func (r *Room) detach(connID string) {
	p, ok := r.peers[connID]
	if !ok {
		return
	}
	delete(r.peers, connID)
	_ = p.conn.Close()
	metrics.ActiveConnections.Dec()
	if r.conns.Add(-1) == 0 {
		r.idleSince.Store(time.Now().UnixNano())
	}

	if p.participant != "" {
		r.sched.CancelParticipant(p.participant)
		r.session.Remove(p.participant)
		r.log.Debug("participant left", "participant", p.participant)
	}
	if len(r.peers) == 0 {
		r.closing = true
	}
}

func (r *Room) handleEvent(c FromClient) bool {
	p, ok := r.peers[c.ConnID]
	if !ok {
		return false
	}

	if ev, ok := c.Event.(JoinEvent); ok {
		return r.join(p, ev)
	}
	if p.participant == "" {
		r.sendError(p, CodeNotJoined, "join first")
		return false
	}

	switch ev := c.Event.(type) {
	case AddBotEvent:
		bot, err := r.session.AddBot()
		if err != nil {
			r.sendError(p, CodeCapacityExceeded, err.Error())
			return false
		}
		r.log.Debug("bot added", "participant", bot.ID, "name", bot.Name)
	case StartRoundEvent:
		if r.session.StartRound() {
			r.sched.CancelAll()
		}
	case ResetToLobbyEvent:
		r.sched.CancelAll()
		r.session.ResetToLobby()
		for _, other := range r.peers {
			other.participant = ""
		}
	case RematchEvent:
		r.sched.CancelAll()
		r.session.Rematch()
	case DropBallEvent:
		r.drop(p.participant, r.sched.ClampX(ev.X))
	case ScoreReportEvent:
		target := ev.ParticipantID
		if target == "" {
			target = p.participant
		}
		if !r.mayReport(p, target) {
			r.sendError(p, CodeNotOwner, "not your ball")
			return false
		}
		r.recordScore(target, ev.Points)
	case FireLaserEvent:
		color := ev.Color
		if color == "" {
			if me, ok := r.session.Participant(p.participant); ok {
				color = me.Color
			}
		}
		r.broadcast(wire.LaserEvent{X1: ev.X1, Y1: ev.Y1, X2: ev.X2, Y2: ev.Y2, Color: color})
	case DestroyBallEvent:
		owner := ev.OwnerID
		if owner == "" {
			owner = p.participant
		}
		if !r.mayReport(p, owner) {
			r.sendError(p, CodeNotOwner, "not your ball")
			return false
		}
		r.broadcast(wire.BallRemoved{BallID: ev.BallID})
		r.recordScore(owner, 0)
	}
	return false
}

func (r *Room) join(p *peer, ev JoinEvent) bool {
	if p.participant != "" {
		r.sendError(p, CodeAlreadyJoined, "already joined")
		return false
	}
	res, err := r.session.Join(ev.Name, ev.Color, ev.Role)
	switch {
	case errors.Is(err, session.ErrDuplicateName):
		r.sendError(p, CodeDuplicateName, err.Error())
		return false
	case errors.Is(err, session.ErrCapacityExceeded):
		r.sendError(p, CodeCapacityExceeded, err.Error())
		return false
	case err != nil:
		r.sendError(p, CodeBadMessage, err.Error())
		return false
	}

	if res.Evicted != "" {
		r.sched.CancelParticipant(res.Evicted)
		r.log.Debug("bot evicted", "participant", res.Evicted)
	}
	p.participant = res.Participant.ID
	r.sendText(p, MsgJoined, JoinedPayload{ParticipantID: p.participant})
	r.log.Debug("participant joined", "participant", p.participant, "name", res.Participant.Name)
	return true
}

// mayReport allows a connection to settle its own ball; the host also
// settles bot balls.
func (r *Room) mayReport(p *peer, target string) bool {
	if target == p.participant {
		return true
	}
	t, ok := r.session.Participant(target)
	return ok && t.Bot && r.session.Host() == p.participant
}

func (r *Room) drop(id string, x float64) bool {
	if !r.session.MarkActed(id) {
		return false
	}
	r.sched.StartScoreTimeout(id)
	r.broadcast(wire.BallSpawn{ParticipantID: id, X: x})
	return true
}

func (r *Room) recordScore(id string, points int) bool {
	if !r.session.RecordScore(id, points) {
		return false
	}
	r.sched.CancelParticipant(id)
	return true
}

func (r *Room) handleFire(f scheduler.Fire) {
	purpose := f.Purpose.String()
	if !r.sched.Claim(f) {
		metrics.TimerFires.WithLabelValues(purpose, metrics.OutcomeStale).Inc()
		r.log.Debug("stale timer", "purpose", purpose, "participant", f.ParticipantID)
		return
	}

	applied := false
	switch f.Purpose {
	case scheduler.PurposeBotDrop:
		applied = r.drop(f.ParticipantID, f.X)
	case scheduler.PurposeScoreTimeout:
		applied = r.recordScore(f.ParticipantID, 0)
	}
	outcome := metrics.OutcomeApplied
	if !applied {
		outcome = metrics.OutcomeAbandoned
		r.log.Debug("timer abandoned", "purpose", purpose, "participant", f.ParticipantID)
	}
	metrics.TimerFires.WithLabelValues(purpose, outcome).Inc()
}

// flush arms bot drops, then broadcasts the roster change since the last
// broadcast.
func (r *Room) flush(force bool) {
	if r.session.Phase() == domain.PhasePlaying {
		r.sched.ScheduleBotDrops(r.session.PendingBots())
	}

	cur := r.session.Snapshot()
	var d delta.Delta
	if force {
		d = delta.Full(cur)
	} else {
		d = delta.Compute(r.last, cur)
	}
	if d.IsEmpty() {
		return
	}

	// last only moves when the change went out, so a failed encode is
	// retried by the next flush
	if !r.broadcast(wire.RosterState{Delta: d}) {
		return
	}
	shape := "sparse"
	if d.Full {
		shape = "full"
	}
	metrics.Deltas.WithLabelValues(shape).Inc()

	prev := r.last.Phase
	r.last = cur

	if prev == domain.PhasePlaying && cur.Phase == domain.PhaseRoundOver {
		metrics.RoundsCompleted.Inc()
		r.archive(cur)
	}
}

func (r *Room) archive(roster domain.Roster) {
	if r.recorder == nil {
		return
	}
	res := domain.NewRoundResult(r.Code, r.session.Round(), roster, time.Now().UTC())
	rec := r.recorder
	log := r.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := rec.RecordRound(ctx, res); err != nil {
			log.Warn("archive round failed", "round", res.Round, "error", err)
		}
	}()
}

func (r *Room) encode(m wire.Message) ([]byte, bool) {
	b, err := wire.Encode(m)
	if err != nil {
		metrics.EncodeErrors.WithLabelValues(m.Kind().String()).Inc()
		r.log.Warn("dropping outbound message", "kind", m.Kind().String(), "error", err)
		return nil, false
	}
	return b, true
}

// broadcast encodes m once and hands it to every connection.
func (r *Room) broadcast(m wire.Message) bool {
	b, ok := r.encode(m)
	if !ok {
		return false
	}
	f := Frame{Binary: true, Data: b}
	for _, p := range r.peers {
		r.sendFrame(p, f, m.Kind())
	}
	return true
}

func (r *Room) sendFrame(p *peer, f Frame, kind wire.Kind) {
	if err := p.conn.Send(f); err != nil {
		r.log.Warn("dropping connection", "conn", p.id, "error", err)
		r.slow = append(r.slow, p.id)
		return
	}
	metrics.FramesSent.WithLabelValues(kind.String()).Inc()
	metrics.BytesSent.Add(float64(len(f.Data)))
}

func (r *Room) sendText(p *peer, typ string, payload any) {
	f, err := textFrame(typ, payload)
	if err != nil {
		r.log.Error("marshal text frame", "type", typ, "error", err)
		return
	}
	if err := p.conn.Send(f); err != nil {
		r.log.Warn("dropping connection", "conn", p.id, "error", err)
		r.slow = append(r.slow, p.id)
		return
	}
	metrics.FramesSent.WithLabelValues(typ).Inc()
	metrics.BytesSent.Add(float64(len(f.Data)))
}

func (r *Room) sendError(p *peer, code, msg string) {
	r.sendText(p, MsgError, ErrorPayload{Code: code, Message: msg})
}

func (r *Room) view() View {
	snap := r.session.Snapshot()
	return View{
		Code:          r.Code,
		Roster:        snap,
		Phase:         snap.Phase.String(),
		Round:         r.session.Round(),
		Host:          r.session.Host(),
		Connections:   len(r.peers),
		PendingTimers: r.sched.Len(),
	}
}
