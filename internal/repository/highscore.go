package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

const DefaultHighscoreLimit = 50

type Highscore struct {
	SessionID string `db:"session_id" json:"session_id"`
	Width     int    `db:"width" json:"width"`
	Height    int    `db:"height" json:"height"`
	MineCount int    `db:"mine_count" json:"mine_count"`
	Seed      string `db:"seed" json:"seed"`
	ElapsedMs int64  `db:"elapsed_ms" json:"elapsed_ms"`
}

// HighscoreFilter narrows highscores to one board configuration. Nil
// fields match anything.
type HighscoreFilter struct {
	Width     *int
	Height    *int
	MineCount *int
	Limit     int
}

func (f HighscoreFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.Width != nil {
		clauses = append(clauses, "width = @width")
		args["width"] = *f.Width
	}
	if f.Height != nil {
		clauses = append(clauses, "height = @height")
		args["height"] = *f.Height
	}
	if f.MineCount != nil {
		clauses = append(clauses, "mine_count = @mine_count")
		args["mine_count"] = *f.MineCount
	}
	return strings.Join(clauses, " AND "), args
}

func (f HighscoreFilter) query() (string, pgx.NamedArgs) {
	query := `
	SELECT
		session_id,
		width,
		height,
		mine_count,
		seed,
		elapsed_ms
	FROM record
	WHERE won = true`

	whereClause, args := f.WhereClause()
	if whereClause != "" {
		query += " AND " + whereClause
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultHighscoreLimit
	}
	args["limit"] = limit
	query += " ORDER BY elapsed_ms, finished_at LIMIT @limit;"
	return query, args
}

// GetHighscores lists won games, fastest first.
func (q *Queries) GetHighscores(
	ctx context.Context, filter HighscoreFilter,
) ([]Highscore, error) {
	query, args := filter.query()
	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Highscore])
}
