package repository

import (
	"context"

	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/models"
)

// ListPackageMarks returns every package that carries at least one
// mark, with each mark's author resolved to a packager alias when
// present. Marks pointing at vanished packages are skipped by the join.
func (s *Store) ListPackageMarks(ctx context.Context) ([]models.MarkListUnit, error) {
	query := `
		SELECT p.name, m.name, COALESCE(m.comment, ''), m.msg_id, m.marked_at, pr.alias
		FROM mark m
		JOIN pkg p ON p.id = m.for_pkg
		LEFT JOIN packager pr ON pr.tg_uid = m.marked_by
		ORDER BY p.name, m.id
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, storageErr("list marks", err)
	}
	defer rows.Close()

	var list []models.MarkListUnit
	for rows.Next() {
		var pkgName string
		var mark models.MarkView
		if err := rows.Scan(&pkgName, &mark.Name, &mark.Comment, &mark.MsgID, &mark.MarkedAt, &mark.By); err != nil {
			return nil, storageErr("scan mark", err)
		}

		if len(list) == 0 || list[len(list)-1].Name != pkgName {
			list = append(list, models.MarkListUnit{Name: pkgName})
		}
		last := &list[len(list)-1]
		last.Marks = append(last.Marks, mark)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate marks", err)
	}

	return list, nil
}

// RemoveMarks deletes marks for the package: all of them when filter is
// empty, otherwise only marks whose name is in the filter. Returns the
// deleted mark names. Fails with ErrNotFound when the package does not
// exist and ErrNothingRemoved when the filter excluded every existing
// mark (including a package with no marks at all).
func (s *Store) RemoveMarks(ctx context.Context, pkgName string, filter []string) ([]string, error) {
	pkgID, err := s.packageID(ctx, pkgName)
	if err != nil {
		return nil, err
	}

	var query string
	var args []any
	if len(filter) == 0 {
		query = `DELETE FROM mark WHERE for_pkg = $1 RETURNING name`
		args = []any{pkgID}
	} else {
		query = `DELETE FROM mark WHERE for_pkg = $1 AND name = ANY($2) RETURNING name`
		args = []any{pkgID, filter}
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("delete marks", err)
	}
	defer rows.Close()

	var removed []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("scan deleted mark", err)
		}
		removed = append(removed, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate deleted marks", err)
	}

	if len(removed) == 0 {
		return nil, ErrNothingRemoved
	}

	return removed, nil
}

// CreateMark inserts a new mark row. Only the boundary's CI report path
// uses this; the resolution engine never creates marks.
func (s *Store) CreateMark(ctx context.Context, mark *models.Mark) error {
	query := `
		INSERT INTO mark (name, comment, msg_id, marked_by, marked_at, for_pkg)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.db.QueryRow(ctx, query,
		mark.Name,
		mark.Comment,
		mark.MsgID,
		mark.MarkedBy,
		mark.MarkedAt,
		mark.PackageID,
	).Scan(&mark.ID)

	if err != nil {
		return storageErr("create mark", err)
	}

	return nil
}

// FindPackage resolves a package name to its row
func (s *Store) FindPackage(ctx context.Context, name string) (*models.Package, error) {
	id, err := s.packageID(ctx, name)
	if err != nil {
		return nil, err
	}
	return &models.Package{ID: id, Name: name}, nil
}
