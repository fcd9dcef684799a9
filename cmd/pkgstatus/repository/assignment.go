package repository

import (
	"context"
	"errors"
)

// DropAssignment removes the assignment of pkgName from the packager.
// Fails with ErrNoAssignments if the packager holds none at all, and
// ErrNotAssigned if none of them is for the given package.
func (s *Store) DropAssignment(ctx context.Context, pkgName string, packagerID int64) error {
	rows, err := s.db.Query(ctx,
		`SELECT id, pkg FROM assignment WHERE assignee = $1`, packagerID,
	)
	if err != nil {
		return storageErr("list packager assignments", err)
	}
	defer rows.Close()

	type assignRow struct {
		id    int64
		pkgID int64
	}
	var held []assignRow
	for rows.Next() {
		var a assignRow
		if err := rows.Scan(&a.id, &a.pkgID); err != nil {
			return storageErr("scan assignment", err)
		}
		held = append(held, a)
	}
	if err := rows.Err(); err != nil {
		return storageErr("iterate assignments", err)
	}

	if len(held) == 0 {
		return ErrNoAssignments
	}

	pkgID, err := s.packageID(ctx, pkgName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotAssigned
		}
		return err
	}

	var pendingDrop *assignRow
	for i := range held {
		if held[i].pkgID == pkgID {
			pendingDrop = &held[i]
			break
		}
	}
	if pendingDrop == nil {
		return ErrNotAssigned
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM assignment WHERE id = $1`, pendingDrop.id)
	if err != nil {
		return storageErr("delete assignment", err)
	}
	if tag.RowsAffected() == 0 {
		// Row vanished between lookup and delete
		return ErrNotAssigned
	}

	return nil
}
