package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

// QuoteStore implements domain.QuoteStore using PostgreSQL.
type QuoteStore struct {
	pool *pgxpool.Pool
}

// NewQuoteStore creates a new QuoteStore backed by the given connection pool.
func NewQuoteStore(pool *pgxpool.Pool) *QuoteStore {
	return &QuoteStore{pool: pool}
}

// Insert appends one served quote. Fills are stored as JSONB.
func (s *QuoteStore) Insert(ctx context.Context, rec domain.QuoteRecord) error {
	fillsJSON, err := json.Marshal(rec.Plan.Fills)
	if err != nil {
		return fmt.Errorf("postgres: marshal quote fills: %w", err)
	}

	const query = `
		INSERT INTO quotes (id, side, requested_amount, total_filled, average_price, fills, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = s.pool.Exec(ctx, query,
		rec.ID,
		rec.Side.String(),
		rec.RequestedAmount,
		rec.Plan.TotalFilled,
		rec.Plan.AveragePrice,
		fillsJSON,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert quote %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the most recently served quotes, newest first.
func (s *QuoteStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.QuoteRecord, error) {
	query := `
		SELECT id, side, requested_amount, total_filled, average_price, fills, created_at
		FROM quotes
		ORDER BY created_at DESC`
	args := []any{}
	argIdx := 1

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list quotes: %w", err)
	}
	defer rows.Close()

	var records []domain.QuoteRecord
	for rows.Next() {
		var (
			rec       domain.QuoteRecord
			sideStr   string
			fillsJSON []byte
		)
		if err := rows.Scan(
			&rec.ID, &sideStr, &rec.RequestedAmount,
			&rec.Plan.TotalFilled, &rec.Plan.AveragePrice,
			&fillsJSON, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan quote: %w", err)
		}

		side, err := domain.ParseSide(sideStr)
		if err != nil {
			return nil, fmt.Errorf("postgres: quote %s: %w", rec.ID, err)
		}
		rec.Side = side

		if err := json.Unmarshal(fillsJSON, &rec.Plan.Fills); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal quote fills: %w", err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list quotes rows: %w", err)
	}
	return records, nil
}

// Compile-time interface check.
var _ domain.QuoteStore = (*QuoteStore)(nil)
