package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pegfall/internal/domain"
)

const defaultHistoryLimit = 20

type RoundResultRepository struct {
	db *pgxpool.Pool
}

func NewRoundResultRepository(db *pgxpool.Pool) *RoundResultRepository {
	return &RoundResultRepository{db: db}
}

// RecordRound stores a finished round; rooms call it through ws.Recorder.
func (r *RoundResultRepository) RecordRound(ctx context.Context, res *domain.RoundResult) error {
	return r.Create(ctx, res)
}

// Create inserts one row per participant in a single transaction and sets
// res.ID to the first row's id.
func (r *RoundResultRepository) Create(ctx context.Context, res *domain.RoundResult) error {
	if len(res.Entries) == 0 {
		return errors.New("round result has no entries")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, e := range res.Entries {
		var score *int
		if n, ok := e.Score.Int(); ok {
			score = &n
		}

		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO round_results
				(room_code, round, finished_at, participant_id, name, is_bot, is_spectator, is_cheater, score)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id`,
			res.RoomCode, res.Round, res.FinishedAt,
			e.ParticipantID, e.Name, e.Bot, e.Spectator, e.Cheater, score,
		).Scan(&id)
		if err != nil {
			return err
		}
		if i == 0 {
			res.ID = id
		}
	}

	return tx.Commit(ctx)
}

// ListByRoom returns the most recent rounds of a room, newest first.
func (r *RoundResultRepository) ListByRoom(ctx context.Context, code string, limit int) ([]*domain.RoundResult, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, room_code, round, finished_at, participant_id, name,
				is_bot, is_spectator, is_cheater, score
		 FROM round_results
		 WHERE room_code = $1 AND (round, finished_at) IN (
			SELECT round, finished_at FROM round_results
			WHERE room_code = $1
			GROUP BY round, finished_at
			ORDER BY finished_at DESC
			LIMIT $2)
		 ORDER BY finished_at DESC, id`,
		code, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRounds(rows)
}

type roundKey struct {
	round int
	at    time.Time
}

func scanRounds(rows pgx.Rows) ([]*domain.RoundResult, error) {
	var (
		out   []*domain.RoundResult
		index = make(map[roundKey]*domain.RoundResult)
	)
	for rows.Next() {
		var (
			id    int64
			res   domain.RoundResult
			e     domain.RoundEntry
			score *int
		)
		if err := rows.Scan(
			&id, &res.RoomCode, &res.Round, &res.FinishedAt, &e.ParticipantID, &e.Name,
			&e.Bot, &e.Spectator, &e.Cheater, &score,
		); err != nil {
			return nil, err
		}
		if score != nil {
			e.Score = domain.Points(*score)
		}

		k := roundKey{round: res.Round, at: res.FinishedAt}
		cur, ok := index[k]
		if !ok {
			res.ID = id
			cur = &res
			index[k] = cur
			out = append(out, cur)
		}
		cur.Entries = append(cur.Entries, e)
	}
	return out, rows.Err()
}
