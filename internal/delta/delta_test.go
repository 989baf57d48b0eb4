package delta

import (
	"testing"

	"pegfall/internal/domain"
)

func competitor(id, name string) domain.Participant {
	p := domain.NewParticipant(id, false)
	p.Name = name
	p.Color = "#112233"
	return p
}

func spectator(id, name string) domain.Participant {
	p := domain.NewParticipant(id, true)
	p.Name = name
	p.Color = "#445566"
	return p
}

func TestApplyComputeReconstructs(t *testing.T) {
	a := competitor("a", "Alice")
	b := spectator("b", "Bob")
	c := competitor("c", "Carol")
	c.Bot = true

	scored := a
	scored.Score = domain.Points(50)
	scored.Finished = true

	cases := []struct {
		name     string
		from, to domain.Roster
		wantFull bool
	}{
		{
			name: "addition",
			from: domain.Roster{Participants: []domain.Participant{a}},
			to:   domain.Roster{Participants: []domain.Participant{a, b}},
		},
		{
			name: "score change",
			from: domain.Roster{Phase: domain.PhasePlaying, Participants: []domain.Participant{a, c}},
			to:   domain.Roster{Phase: domain.PhasePlaying, Participants: []domain.Participant{scored, c}},
		},
		{
			name:     "phase change",
			from:     domain.Roster{Phase: domain.PhasePlaying, Participants: []domain.Participant{a, b}},
			to:       domain.Roster{Phase: domain.PhaseRoundOver, Participants: []domain.Participant{scored, b}},
			wantFull: true,
		},
		{
			name: "removal without phase change",
			from: domain.Roster{Phase: domain.PhasePlaying, Participants: []domain.Participant{a, b, c}},
			to:   domain.Roster{Phase: domain.PhasePlaying, Participants: []domain.Participant{a, c}},
		},
		{
			name:     "reset to empty lobby",
			from:     domain.Roster{Phase: domain.PhaseRoundOver, Participants: []domain.Participant{scored, b}},
			to:       domain.Roster{Phase: domain.PhaseLobby},
			wantFull: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Compute(tc.from, tc.to)
			if d.Full != tc.wantFull {
				t.Fatalf("Full = %v, want %v", d.Full, tc.wantFull)
			}
			got := Apply(tc.from, d)
			if !got.Equal(tc.to) {
				t.Fatalf("reconstruction mismatch:\n got  %+v\n want %+v", got, tc.to)
			}
		})
	}
}

func TestComputeSameSnapshotIsEmpty(t *testing.T) {
	r := domain.Roster{Phase: domain.PhasePlaying, Participants: []domain.Participant{competitor("a", "A"), spectator("b", "B")}}
	d := Compute(r, r.Clone())
	if !d.IsEmpty() {
		t.Fatalf("expected empty delta, got %+v", d)
	}
	if got := Apply(r, d); !got.Equal(r) {
		t.Fatalf("applying empty delta changed state: %+v", got)
	}
}

func TestSparseOnlyCarriesChangedFields(t *testing.T) {
	a := competitor("a", "A")
	next := a
	next.Score = domain.Points(3)

	d := Compute(domain.Roster{Participants: []domain.Participant{a}}, domain.Roster{Participants: []domain.Participant{next}})
	if len(d.Participants) != 1 {
		t.Fatalf("want 1 patch, got %d", len(d.Participants))
	}
	p := d.Participants[0]
	if !p.Score.IsSet() {
		t.Fatalf("expected score in patch")
	}
	if p.Name.IsSet() || p.Color.IsSet() || p.Finished.IsSet() || p.Bot.IsSet() {
		t.Fatalf("unchanged fields leaked into patch: %+v", p)
	}
	if d.Phase.IsSet() {
		t.Fatalf("phase should be absent when unchanged")
	}
}

func TestApplySparseTwiceIsIdempotent(t *testing.T) {
	a, b := competitor("a", "A"), spectator("b", "B")
	from := domain.Roster{Phase: domain.PhasePlaying, Participants: []domain.Participant{a, b}}
	scored := a
	scored.Score = domain.Points(10)
	scored.Finished = true
	c := competitor("c", "C")
	to := domain.Roster{Phase: domain.PhasePlaying, Participants: []domain.Participant{scored, c}}

	d := Compute(from, to)
	once := Apply(from, d)
	twice := Apply(once, d)
	if !once.Equal(twice) {
		t.Fatalf("second application changed state:\n once  %+v\n twice %+v", once, twice)
	}
}

func TestApplyDefaultsMissingFields(t *testing.T) {
	d := Delta{Participants: []Patch{
		{ID: "x", Name: Some("X")},
		{ID: "y", Name: Some("Y"), Spectator: Some(true)},
	}}
	got := Apply(domain.Roster{}, d)

	x, _ := got.Find("x")
	if !x.Score.IsNull() || x.Finished {
		t.Fatalf("competitor defaults wrong: %+v", x)
	}
	y, _ := got.Find("y")
	if y.Score != domain.Points(0) || !y.Finished {
		t.Fatalf("spectator defaults wrong: %+v", y)
	}
}

func TestApplyDoesNotMutatePrevious(t *testing.T) {
	a := competitor("a", "A")
	prev := domain.Roster{Participants: []domain.Participant{a, competitor("b", "B")}}
	d := Delta{Removed: []string{"a"}, Participants: []Patch{{ID: "b", Name: Some("Bee")}}}
	_ = Apply(prev, d)
	if prev.Participants[0] != a || prev.Participants[1].Name != "B" {
		t.Fatalf("previous snapshot was mutated: %+v", prev)
	}
}

func TestFullKeepsPhaseEvenWhenRosterEmpty(t *testing.T) {
	d := Full(domain.Roster{Phase: domain.PhaseLobby})
	if d.IsEmpty() {
		t.Fatalf("full delta of empty roster must still be sent")
	}
	if ph, ok := d.Phase.Get(); !ok || ph != domain.PhaseLobby {
		t.Fatalf("expected lobby phase in full delta")
	}
}
