// Package store persists answered queries and per-session chat
// history. Postgres is the durable archive; Redis (or an in-memory
// fallback) holds recent conversation turns.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/mosaibah/askdocs/config"
)

// QueryRecord is one archived request/answer pair.
type QueryRecord struct {
	ID        string
	Query     string
	Answer    string
	Source    string
	PlanText  string
	Steps     int
	Success   bool
	CreatedAt time.Time
}

// Archive writes answered queries to Postgres.
type Archive struct {
	db     *sql.DB
	logger *log.Logger
}

func NewArchive(cfg config.PostgresConfig) (*Archive, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Archive{db: db, logger: log.New(log.Writer(), "[STORE] ", log.LstdFlags)}, nil
}

func (a *Archive) SaveQuery(ctx context.Context, rec QueryRecord) error {
	_, err := a.db.ExecContext(ctx, `
INSERT INTO queries (id, query, answer, source, plan_text, steps, success, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,COALESCE($8,NOW()))
ON CONFLICT (id) DO UPDATE SET
  answer=EXCLUDED.answer, source=EXCLUDED.source, plan_text=EXCLUDED.plan_text,
  steps=EXCLUDED.steps, success=EXCLUDED.success`,
		rec.ID, rec.Query, rec.Answer, rec.Source, rec.PlanText, rec.Steps, rec.Success, nullableTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("save query %s: %w", rec.ID, err)
	}
	return nil
}

func (a *Archive) RecentQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx, `
SELECT id, query, answer, source, plan_text, steps, success, created_at
FROM queries ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent queries: %w", err)
	}
	defer rows.Close()

	var out []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Answer, &rec.Source, &rec.PlanText, &rec.Steps, &rec.Success, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (a *Archive) Close() error { return a.db.Close() }

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
