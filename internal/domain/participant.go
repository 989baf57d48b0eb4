package domain

// Participant - one row of the roster
type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Spectator bool   `json:"is_spectator"`
	Bot       bool   `json:"is_bot"`
	Cheater   bool   `json:"is_cheater"`
	Score     Score  `json:"score"`
	Finished  bool   `json:"finished"`
}

// NewParticipant builds a participant with the defaults implied by its
// role: spectators are finished with a score of 0, competitors start
// unfinished with a null score.
func NewParticipant(id string, spectator bool) Participant {
	p := Participant{ID: id, Spectator: spectator}
	p.ResetRound()
	return p
}

// ResetRound clears the round outcome.
func (p *Participant) ResetRound() {
	p.Finished = p.Spectator
	p.Cheater = false
	if p.Spectator {
		p.Score = Points(0)
	} else {
		p.Score = NullScore()
	}
}

// Competing reports whether the participant must be scored for the round
// to end.
func (p Participant) Competing() bool {
	return !p.Spectator
}

// Roster is a snapshot of session state: participants plus phase.
// Participant order carries no meaning; lookup is by id.
type Roster struct {
	Participants []Participant `json:"participants"`
	Phase        Phase         `json:"phase"`
}

func (r Roster) Clone() Roster {
	out := Roster{Phase: r.Phase}
	if r.Participants != nil {
		out.Participants = make([]Participant, len(r.Participants))
		copy(out.Participants, r.Participants)
	}
	return out
}

func (r Roster) Index(id string) int {
	for i := range r.Participants {
		if r.Participants[i].ID == id {
			return i
		}
	}
	return -1
}

func (r Roster) Find(id string) (Participant, bool) {
	if i := r.Index(id); i >= 0 {
		return r.Participants[i], true
	}
	return Participant{}, false
}

// Equal compares two snapshots ignoring participant order.
func (r Roster) Equal(o Roster) bool {
	if r.Phase != o.Phase || len(r.Participants) != len(o.Participants) {
		return false
	}
	for _, p := range r.Participants {
		q, ok := o.Find(p.ID)
		if !ok || q != p {
			return false
		}
	}
	return true
}
