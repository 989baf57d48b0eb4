package session

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"pegfall/internal/domain"
)

func newTestSession(t *testing.T, capacity int) *Session {
	t.Helper()
	n := 0
	return New(Limits{MaxParticipants: capacity, BotNameAttempts: 10},
		WithRand(rand.New(rand.NewPCG(7, 7))),
		WithIDs(func() string { n++; return fmt.Sprintf("id%d", n) }),
	)
}

func mustJoin(t *testing.T, s *Session, name string, role domain.Role) domain.Participant {
	t.Helper()
	res, err := s.Join(name, "#123456", role)
	if err != nil {
		t.Fatalf("join %q: %v", name, err)
	}
	return res.Participant
}

func TestJoinDefaults(t *testing.T) {
	s := newTestSession(t, 8)
	a := mustJoin(t, s, "  Alice ", domain.RoleCompetitor)
	b := mustJoin(t, s, "Bob", domain.RoleSpectator)

	if a.Name != "Alice" || !a.Score.IsNull() || a.Finished || a.Spectator {
		t.Fatalf("competitor = %+v", a)
	}
	if b.Score != domain.Points(0) || !b.Finished || !b.Spectator {
		t.Fatalf("spectator = %+v", b)
	}
	if a.ID == b.ID {
		t.Fatalf("ids reused")
	}
	if s.Host() != a.ID {
		t.Fatalf("host = %q, want %q", s.Host(), a.ID)
	}
}

func TestJoinDuplicateNameCaseInsensitive(t *testing.T) {
	s := newTestSession(t, 8)
	mustJoin(t, s, "Alice", domain.RoleCompetitor)
	before := s.Snapshot()

	if _, err := s.Join("aLiCe", "#fff", domain.RoleSpectator); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
	if !s.Snapshot().Equal(before) {
		t.Fatalf("roster changed on rejected join")
	}
}

func TestJoinEmptyNameAndBadColor(t *testing.T) {
	s := newTestSession(t, 8)
	res, err := s.Join("", "not-a-color", domain.RoleCompetitor)
	if err != nil {
		t.Fatal(err)
	}
	if res.Participant.Name != "Player 1" {
		t.Fatalf("name = %q", res.Participant.Name)
	}
	if res.Participant.Color != domain.Palette[0] {
		t.Fatalf("color = %q, want palette color", res.Participant.Color)
	}
	res, _ = s.Join("", "#ABC", domain.RoleCompetitor)
	if res.Participant.Name != "Player 2" || res.Participant.Color != "#aabbcc" {
		t.Fatalf("second = %+v", res.Participant)
	}
}

func TestCapacityEvictsNewestBot(t *testing.T) {
	s := newTestSession(t, 3)
	mustJoin(t, s, "Alice", domain.RoleCompetitor)
	older, _ := s.AddBot()
	newer, _ := s.AddBot()

	if _, err := s.AddBot(); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("AddBot on full roster: %v", err)
	}

	res, err := s.Join("Bob", "", domain.RoleCompetitor)
	if err != nil {
		t.Fatalf("join with evictable bot: %v", err)
	}
	if res.Evicted != newer.ID {
		t.Fatalf("evicted %q, want newest bot %q", res.Evicted, newer.ID)
	}
	if _, ok := s.Participant(older.ID); !ok {
		t.Fatalf("older bot evicted")
	}

	res, err = s.Join("Carol", "", domain.RoleCompetitor)
	if err != nil || res.Evicted != older.ID {
		t.Fatalf("second eviction: %+v %v", res, err)
	}
	if _, err := s.Join("Dave", "", domain.RoleCompetitor); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestBotNamesUniqueWithFallback(t *testing.T) {
	s := New(Limits{MaxParticipants: 50, BotNameAttempts: 0})
	for i := 1; i <= 3; i++ {
		b, err := s.AddBot()
		if err != nil {
			t.Fatal(err)
		}
		if want := fmt.Sprintf("Bot %d", i); b.Name != want {
			t.Fatalf("name = %q, want %q", b.Name, want)
		}
		if !b.Bot || b.Spectator || !b.Score.IsNull() {
			t.Fatalf("bot = %+v", b)
		}
	}

	s = newTestSession(t, 40)
	seen := map[string]bool{}
	for range 40 {
		b, err := s.AddBot()
		if err != nil {
			t.Fatal(err)
		}
		if seen[b.Name] {
			t.Fatalf("duplicate bot name %q", b.Name)
		}
		seen[b.Name] = true
	}
}

func TestRoundScenario(t *testing.T) {
	s := newTestSession(t, 8)
	a := mustJoin(t, s, "A", domain.RoleCompetitor)
	b := mustJoin(t, s, "B", domain.RoleSpectator)

	if !s.StartRound() {
		t.Fatalf("start refused in lobby")
	}
	if s.StartRound() {
		t.Fatalf("start accepted while playing")
	}
	if s.Phase() != domain.PhasePlaying || s.Round() != 1 {
		t.Fatalf("phase %v round %d", s.Phase(), s.Round())
	}
	pa, _ := s.Participant(a.ID)
	pb, _ := s.Participant(b.ID)
	if pa.Finished || !pb.Finished {
		t.Fatalf("finished flags: A %v B %v", pa.Finished, pb.Finished)
	}

	if !s.MarkActed(a.ID) || s.MarkActed(a.ID) {
		t.Fatalf("MarkActed not exactly once")
	}
	if !s.RecordScore(a.ID, 50) {
		t.Fatalf("score refused")
	}
	pa, _ = s.Participant(a.ID)
	if pa.Score != domain.Points(50) || !pa.Finished || pa.Cheater {
		t.Fatalf("A = %+v", pa)
	}
	if s.Phase() != domain.PhaseRoundOver {
		t.Fatalf("phase = %v, want round over", s.Phase())
	}
	if s.RecordScore(a.ID, 10) {
		t.Fatalf("second score accepted")
	}
}

func TestRecordScoreRules(t *testing.T) {
	s := newTestSession(t, 8)
	a := mustJoin(t, s, "A", domain.RoleCompetitor)
	c := mustJoin(t, s, "C", domain.RoleCompetitor)

	if s.RecordScore(a.ID, 5) {
		t.Fatalf("score accepted in lobby")
	}
	s.StartRound()
	if s.RecordScore("ghost", 5) {
		t.Fatalf("score accepted for unknown id")
	}

	s.RecordScore(a.ID, -20)
	pa, _ := s.Participant(a.ID)
	if pa.Score != domain.Points(0) {
		t.Fatalf("negative score not clamped: %v", pa.Score)
	}
	if !pa.Cheater {
		t.Fatalf("score without drop not flagged")
	}
	if s.Phase() != domain.PhasePlaying {
		t.Fatalf("round ended with C unfinished")
	}

	s.Rematch()
	pa, _ = s.Participant(a.ID)
	pc, _ := s.Participant(c.ID)
	if pa.Cheater || !pa.Score.IsNull() || pa.Finished || pc.Finished {
		t.Fatalf("rematch did not reset: %+v %+v", pa, pc)
	}
	if s.HasActed(a.ID) || s.Round() != 2 {
		t.Fatalf("acted %v round %d", s.HasActed(a.ID), s.Round())
	}
}

func TestGameOverRequiresCompetitor(t *testing.T) {
	s := newTestSession(t, 8)
	mustJoin(t, s, "Watcher", domain.RoleSpectator)
	s.StartRound()
	if s.Phase() != domain.PhasePlaying {
		t.Fatalf("spectator only room left playing: %v", s.Phase())
	}
}

func TestRemoveCompletesRoundAndEmptiesToLobby(t *testing.T) {
	s := newTestSession(t, 8)
	a := mustJoin(t, s, "A", domain.RoleCompetitor)
	b := mustJoin(t, s, "B", domain.RoleCompetitor)
	s.StartRound()
	s.MarkActed(a.ID)
	s.RecordScore(a.ID, 7)

	if !s.Remove(b.ID) {
		t.Fatalf("remove failed")
	}
	if s.Phase() != domain.PhaseRoundOver {
		t.Fatalf("departure did not complete round: %v", s.Phase())
	}
	if s.Remove(b.ID) {
		t.Fatalf("removed twice")
	}
	s.Remove(a.ID)
	if s.Phase() != domain.PhaseLobby || s.Len() != 0 {
		t.Fatalf("empty roster phase = %v", s.Phase())
	}
}

func TestResetToLobbyClears(t *testing.T) {
	s := newTestSession(t, 8)
	a := mustJoin(t, s, "A", domain.RoleCompetitor)
	s.StartRound()
	s.MarkActed(a.ID)

	s.ResetToLobby()
	if s.Phase() != domain.PhaseLobby || s.Len() != 0 || s.HasActed(a.ID) {
		t.Fatalf("reset left state: %+v", s.Snapshot())
	}
	if s.Host() != "" {
		t.Fatalf("host survived reset")
	}
}

func TestPendingBots(t *testing.T) {
	s := newTestSession(t, 8)
	mustJoin(t, s, "A", domain.RoleCompetitor)
	b1, _ := s.AddBot()
	b2, _ := s.AddBot()

	if got := s.PendingBots(); got != nil {
		t.Fatalf("pending in lobby: %v", got)
	}
	s.StartRound()
	if got := s.PendingBots(); len(got) != 2 {
		t.Fatalf("pending = %v", got)
	}
	s.MarkActed(b1.ID)
	got := s.PendingBots()
	if len(got) != 1 || got[0] != b2.ID {
		t.Fatalf("pending after act = %v", got)
	}
	if s.Host() == b1.ID || s.Host() == b2.ID {
		t.Fatalf("bot became host")
	}
}

func TestFinishedCannotAct(t *testing.T) {
	s := newTestSession(t, 8)
	a := mustJoin(t, s, "A", domain.RoleCompetitor)
	s.StartRound()
	s.MarkActed(a.ID)
	s.RecordScore(a.ID, 1)
	if s.MarkActed(a.ID) {
		t.Fatalf("finished participant marked acted")
	}
}

func TestRecordScoreClampsToWireRange(t *testing.T) {
	s := newTestSession(t, 8)
	a := mustJoin(t, s, "A", domain.RoleCompetitor)
	s.StartRound()
	s.MarkActed(a.ID)

	if !s.RecordScore(a.ID, 1<<40) {
		t.Fatalf("score refused")
	}
	pa, _ := s.Participant(a.ID)
	if pa.Score != domain.Points(domain.MaxPoints) {
		t.Fatalf("score = %v, want %d", pa.Score, domain.MaxPoints)
	}
}

func TestJoinDuringRoundOverWaitsForRematch(t *testing.T) {
	s := newTestSession(t, 8)
	a := mustJoin(t, s, "A", domain.RoleCompetitor)
	s.StartRound()
	s.MarkActed(a.ID)
	s.RecordScore(a.ID, 9)
	if s.Phase() != domain.PhaseRoundOver {
		t.Fatalf("phase = %v", s.Phase())
	}

	late := mustJoin(t, s, "Late", domain.RoleCompetitor)
	bot, err := s.AddBot()
	if err != nil {
		t.Fatal(err)
	}
	if !late.Score.IsNull() || late.Finished || bot.Finished {
		t.Fatalf("late joiners = %+v %+v", late, bot)
	}
	if s.Phase() != domain.PhaseRoundOver || s.Round() != 1 {
		t.Fatalf("join reopened the round: %v round %d", s.Phase(), s.Round())
	}
	if s.RecordScore(late.ID, 3) {
		t.Fatalf("late joiner scored a finished round")
	}
	pa, _ := s.Participant(a.ID)
	if pa.Score != domain.Points(9) {
		t.Fatalf("finished score changed: %v", pa.Score)
	}

	s.Rematch()
	if got := s.PendingBots(); len(got) != 1 || got[0] != bot.ID {
		t.Fatalf("bot not in rematch: %v", got)
	}
}
