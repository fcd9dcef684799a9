package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/plct-archrv/pkgstatus/common/db"
)

// Store handles database operations for all tracked entities. Every
// operation is a single logical transaction: a scoped read or a
// delete-and-return.
type Store struct {
	db *db.DB
}

// NewStore creates a new store over the shared connection pool
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// packageID resolves a package name to its row id. Returns ErrNotFound
// when the package is not tracked.
func (s *Store) packageID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `SELECT id FROM pkg WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, storageErr("find package", err)
	}
	return id, nil
}
