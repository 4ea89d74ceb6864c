package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"botonic-backend/internal/models"
)

type UsageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *UsageRepo {
	return &UsageRepo{pool: pool}
}

func (r *UsageRepo) Insert(ctx context.Context, e *models.UsageEvent) error {
	query := `INSERT INTO usage_events (identity, day, outcome, model, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5) RETURNING id`

	return r.pool.QueryRow(ctx, query,
		e.Identity, e.Day, string(e.Outcome), e.Model, e.CreatedAt,
	).Scan(&e.ID)
}
