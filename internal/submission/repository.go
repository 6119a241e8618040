package submission

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound    = errors.New("submission not found")
	ErrQueryFailed = errors.New("failed to load submission")
)

const getByIDQuery = `SELECT id, groups, score, status FROM submission WHERE id = $1`

// Repository reads the current state of submissions, so a new subscriber can get a
// snapshot before live updates arrive.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository over pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID loads one submission. The groups column is JSON.
func (r *Repository) GetByID(ctx context.Context, id ID) (Update, error) {
	rows, err := r.pool.Query(ctx, getByIDQuery, id)
	if err != nil {
		return Update{}, errors.Join(ErrQueryFailed, err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Update])
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Update{}, ErrNotFound
	case err != nil:
		return Update{}, errors.Join(ErrQueryFailed, err)
	}
	return u, nil
}
