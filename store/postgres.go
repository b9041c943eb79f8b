package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"steam-market-crawler/models"
)

// PostgresSink mirrors the collection into a single table. Inserts conflict
// on the market URL and do nothing, so merging a page is idempotent.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to Postgres and ensures the records table exists.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	_, err = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS market_records (
  market_url TEXT PRIMARY KEY,
  name       TEXT NOT NULL,
  type       TEXT NOT NULL,
  subtype    TEXT NOT NULL,
  game_name  TEXT NOT NULL,
  game_type  TEXT NOT NULL,
  fetch_time TEXT NOT NULL
);
`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

// Merge inserts the batch, skipping records already present.
func (s *PostgresSink) Merge(ctx context.Context, records []*models.Record) (int, int, error) {
	b := &pgx.Batch{}
	for _, r := range records {
		if r == nil {
			continue
		}
		b.Queue(`
INSERT INTO market_records (market_url,name,type,subtype,game_name,game_type,fetch_time)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (market_url) DO NOTHING`,
			r.MarketURL, r.Name, r.Type, r.Subtype, r.GameName, r.GameType, r.FetchTime)
	}

	added := 0
	if b.Len() > 0 {
		br := s.pool.SendBatch(ctx, b)
		for i := 0; i < b.Len(); i++ {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return added, 0, fmt.Errorf("postgres merge: %w", err)
			}
			added += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return added, 0, fmt.Errorf("postgres merge: %w", err)
		}
	}

	total := 0
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM market_records`).Scan(&total); err != nil {
		return added, 0, fmt.Errorf("postgres count: %w", err)
	}
	return added, total, nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}
