package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"pegfall/internal/db"
	"pegfall/internal/domain"
)

func TestRoundResultRepositoryIntegration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	ctx := context.Background()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()
	if _, err := db.Migrate(ctx, pool); err != nil {
		t.Fatal(err)
	}

	code := "T" + time.Now().Format("150405.000")
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM round_results WHERE room_code = $1`, code)
	})

	repo := NewRoundResultRepository(pool)
	roster := domain.Roster{
		Phase: domain.PhaseRoundOver,
		Participants: []domain.Participant{
			{ID: "p1", Name: "Ann", Score: domain.Points(40), Finished: true},
			{ID: "p2", Name: "Watcher", Spectator: true, Score: domain.Points(0), Finished: true},
		},
	}
	base := time.Now().UTC().Truncate(time.Millisecond)
	for round := 1; round <= 3; round++ {
		res := domain.NewRoundResult(code, round, roster, base.Add(time.Duration(round)*time.Second))
		if err := repo.RecordRound(ctx, res); err != nil {
			t.Fatal(err)
		}
		if res.ID == 0 {
			t.Fatalf("id not set")
		}
	}

	got, err := repo.ListByRoom(ctx, code, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Round != 3 || got[1].Round != 2 {
		t.Fatalf("rounds = %+v", got)
	}
	if len(got[0].Entries) != 2 || got[0].Entries[0].Score != domain.Points(40) || !got[0].Entries[1].Spectator {
		t.Fatalf("entries = %+v", got[0].Entries)
	}
}

func TestCreateRejectsEmptyRound(t *testing.T) {
	repo := NewRoundResultRepository(nil)
	err := repo.Create(context.Background(), &domain.RoundResult{RoomCode: "X"})
	if err == nil {
		t.Fatalf("expected error for empty round")
	}
}
