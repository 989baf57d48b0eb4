// Package delta computes the minimal change between two roster snapshots
// and folds a received change back into a local snapshot.
package delta

import (
	"slices"

	"pegfall/internal/domain"
)

// Patch is a per-participant update. Only present fields changed.
type Patch struct {
	ID        string
	Name      Optional[string]
	Color     Optional[string]
	Score     Optional[domain.Score]
	Cheater   Optional[bool]
	Bot       Optional[bool]
	Spectator Optional[bool]
	Finished  Optional[bool]
}

// Empty reports whether the patch carries no field.
func (p Patch) Empty() bool {
	return !p.Name.IsSet() && !p.Color.IsSet() && !p.Score.IsSet() &&
		!p.Cheater.IsSet() && !p.Bot.IsSet() && !p.Spectator.IsSet() &&
		!p.Finished.IsSet()
}

// FullPatch carries every field of p.
func FullPatch(p domain.Participant) Patch {
	return Patch{
		ID:        p.ID,
		Name:      Some(p.Name),
		Color:     Some(p.Color),
		Score:     Some(p.Score),
		Cheater:   Some(p.Cheater),
		Bot:       Some(p.Bot),
		Spectator: Some(p.Spectator),
		Finished:  Some(p.Finished),
	}
}

// Delta is either a full replacement (Full set, every participant and the
// phase carried) or a sparse set of patches, removals and an optional
// phase.
type Delta struct {
	Full         bool
	Participants []Patch
	Phase        Optional[domain.Phase]
	Removed      []string
}

// IsEmpty means "nothing to transmit".
func (d Delta) IsEmpty() bool {
	return !d.Full && len(d.Participants) == 0 && !d.Phase.IsSet() && len(d.Removed) == 0
}

// Full builds a full-replacement delta of r.
func Full(r domain.Roster) Delta {
	d := Delta{
		Full:         true,
		Participants: make([]Patch, 0, len(r.Participants)),
		Phase:        Some(r.Phase),
	}
	for _, p := range r.Participants {
		d.Participants = append(d.Participants, FullPatch(p))
	}
	return d
}

// Compute returns the change from prev to cur. A phase change always
// yields a full replacement so followers never reconcile roster and phase
// separately.
func Compute(prev, cur domain.Roster) Delta {
	if prev.Phase != cur.Phase {
		return Full(cur)
	}

	var d Delta
	for _, p := range cur.Participants {
		old, ok := prev.Find(p.ID)
		if !ok {
			d.Participants = append(d.Participants, FullPatch(p))
			continue
		}
		patch := Patch{
			ID:        p.ID,
			Name:      diff(old.Name, p.Name),
			Color:     diff(old.Color, p.Color),
			Score:     diff(old.Score, p.Score),
			Cheater:   diff(old.Cheater, p.Cheater),
			Bot:       diff(old.Bot, p.Bot),
			Spectator: diff(old.Spectator, p.Spectator),
			Finished:  diff(old.Finished, p.Finished),
		}
		if !patch.Empty() {
			d.Participants = append(d.Participants, patch)
		}
	}
	for _, p := range prev.Participants {
		if cur.Index(p.ID) < 0 {
			d.Removed = append(d.Removed, p.ID)
		}
	}
	return d
}

// Apply folds d into prev and returns the next snapshot. prev is not
// modified. Applying an empty delta, or a sparse delta twice, is a no-op.
func Apply(prev domain.Roster, d Delta) domain.Roster {
	if d.Full {
		next := domain.Roster{
			Phase:        d.Phase.Or(prev.Phase),
			Participants: make([]domain.Participant, 0, len(d.Participants)),
		}
		for _, patch := range d.Participants {
			next.Participants = append(next.Participants, build(patch))
		}
		return next
	}

	next := prev.Clone()
	if len(d.Removed) > 0 {
		kept := next.Participants[:0]
		for _, p := range next.Participants {
			if !slices.Contains(d.Removed, p.ID) {
				kept = append(kept, p)
			}
		}
		next.Participants = kept
	}
	for _, patch := range d.Participants {
		if i := next.Index(patch.ID); i >= 0 {
			overwrite(&next.Participants[i], patch)
			continue
		}
		next.Participants = append(next.Participants, build(patch))
	}
	next.Phase = d.Phase.Or(prev.Phase)
	return next
}

// build constructs a participant from a patch, defaulting absent fields
// from the role invariants.
func build(patch Patch) domain.Participant {
	p := domain.NewParticipant(patch.ID, patch.Spectator.Or(false))
	overwrite(&p, patch)
	return p
}

func overwrite(p *domain.Participant, patch Patch) {
	if v, ok := patch.Name.Get(); ok {
		p.Name = v
	}
	if v, ok := patch.Color.Get(); ok {
		p.Color = v
	}
	if v, ok := patch.Score.Get(); ok {
		p.Score = v
	}
	if v, ok := patch.Cheater.Get(); ok {
		p.Cheater = v
	}
	if v, ok := patch.Bot.Get(); ok {
		p.Bot = v
	}
	if v, ok := patch.Spectator.Get(); ok {
		p.Spectator = v
	}
	if v, ok := patch.Finished.Get(); ok {
		p.Finished = v
	}
}
