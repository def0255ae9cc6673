package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrDuplicateRecord = errors.New("session already recorded")

// Record is the outcome of one finished game.
type Record struct {
	RecordID   int64     `db:"record_id" json:"record_id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	TableID    string    `db:"table_id" json:"table_id"`
	Width      int       `db:"width" json:"width"`
	Height     int       `db:"height" json:"height"`
	MineCount  int       `db:"mine_count" json:"mine_count"`
	Seed       string    `db:"seed" json:"seed"`
	Won        bool      `db:"won" json:"won"`
	ElapsedMs  int64     `db:"elapsed_ms" json:"elapsed_ms"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

type CreateRecordParams struct {
	SessionID  string
	TableID    string
	Width      int
	Height     int
	MineCount  int
	Seed       string
	Won        bool
	ElapsedMs  int64
	FinishedAt time.Time
}

func (p CreateRecordParams) args() pgx.NamedArgs {
	return pgx.NamedArgs{
		"session_id":  p.SessionID,
		"table_id":    p.TableID,
		"width":       p.Width,
		"height":      p.Height,
		"mine_count":  p.MineCount,
		"seed":        p.Seed,
		"won":         p.Won,
		"elapsed_ms":  p.ElapsedMs,
		"finished_at": p.FinishedAt,
	}
}

// CreateRecord stores a finished game. A session is recorded at most once;
// a second attempt returns [ErrDuplicateRecord].
func (q *Queries) CreateRecord(ctx context.Context, p CreateRecordParams) (*Record, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO record (
			session_id, table_id, width, height, mine_count, seed, won, elapsed_ms, finished_at
		)
		VALUES (
			@session_id, @table_id, @width, @height, @mine_count, @seed, @won, @elapsed_ms, @finished_at
		)
		RETURNING *;`,
		p.args(),
	)
	record, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Record])
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRecord, p.SessionID)
	}
	return record, err
}

func (q *Queries) FetchRecord(ctx context.Context, sessionID string) (*Record, error) {
	rows, _ := q.db.Query(
		ctx, "SELECT * FROM record WHERE session_id = $1", sessionID,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Record])
}
