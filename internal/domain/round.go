package domain

import "time"

// RoundResult - archived outcome of one finished round
type RoundResult struct {
	ID         int64        `db:"id" json:"id"`
	RoomCode   string       `db:"room_code" json:"room_code"`
	Round      int          `db:"round" json:"round"`
	Entries    []RoundEntry `json:"entries"`
	FinishedAt time.Time    `db:"finished_at" json:"finished_at"`
}

// RoundEntry - one participant's line in a RoundResult
type RoundEntry struct {
	ParticipantID string `db:"participant_id" json:"participant_id"`
	Name          string `db:"name" json:"name"`
	Bot           bool   `db:"is_bot" json:"is_bot"`
	Spectator     bool   `db:"is_spectator" json:"is_spectator"`
	Cheater       bool   `db:"is_cheater" json:"is_cheater"`
	Score         Score  `db:"score" json:"score"`
}

// NewRoundResult captures a finished roster.
func NewRoundResult(code string, round int, r Roster, at time.Time) *RoundResult {
	res := &RoundResult{
		RoomCode:   code,
		Round:      round,
		Entries:    make([]RoundEntry, 0, len(r.Participants)),
		FinishedAt: at,
	}
	for _, p := range r.Participants {
		res.Entries = append(res.Entries, RoundEntry{
			ParticipantID: p.ID,
			Name:          p.Name,
			Bot:           p.Bot,
			Spectator:     p.Spectator,
			Cheater:       p.Cheater,
			Score:         p.Score,
		})
	}
	return res
}
