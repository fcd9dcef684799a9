package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/models"
)

// FindPackagerByID retrieves a packager by Telegram uid
func (s *Store) FindPackagerByID(ctx context.Context, tgUID int64) (*models.Packager, error) {
	packager := &models.Packager{}
	err := s.db.QueryRow(ctx,
		`SELECT tg_uid, alias FROM packager WHERE tg_uid = $1`, tgUID,
	).Scan(&packager.TgUID, &packager.Alias)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("find packager by id", err)
	}

	return packager, nil
}

// FindPackagerByPackage retrieves the packager currently assigned to
// the named package. Fails with ErrNotFound when no assignment exists.
func (s *Store) FindPackagerByPackage(ctx context.Context, pkgName string) (*models.Packager, error) {
	query := `
		SELECT tg_uid, alias FROM packager
		WHERE tg_uid = (
			SELECT assignee FROM assignment
			WHERE pkg = (SELECT id FROM pkg WHERE name = $1)
			LIMIT 1
		)
	`

	packager := &models.Packager{}
	err := s.db.QueryRow(ctx, query, pkgName).Scan(&packager.TgUID, &packager.Alias)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("find packager by package", err)
	}

	return packager, nil
}

// ListWorkAssignments returns every packager with their assigned
// package names. The package list may be empty.
func (s *Store) ListWorkAssignments(ctx context.Context) ([]models.WorkListUnit, error) {
	rows, err := s.db.Query(ctx, `SELECT tg_uid, alias FROM packager ORDER BY alias`)
	if err != nil {
		return nil, storageErr("list packagers", err)
	}
	defer rows.Close()

	var order []int64
	units := make(map[int64]*models.WorkListUnit)
	for rows.Next() {
		var uid int64
		var alias string
		if err := rows.Scan(&uid, &alias); err != nil {
			return nil, storageErr("scan packager", err)
		}
		order = append(order, uid)
		units[uid] = &models.WorkListUnit{Alias: alias, Packages: []string{}}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate packagers", err)
	}

	assignQuery := `
		SELECT a.assignee, p.name
		FROM assignment a
		JOIN pkg p ON p.id = a.pkg
		ORDER BY a.id
	`
	assignRows, err := s.db.Query(ctx, assignQuery)
	if err != nil {
		return nil, storageErr("list assignments", err)
	}
	defer assignRows.Close()

	for assignRows.Next() {
		var assignee int64
		var pkgName string
		if err := assignRows.Scan(&assignee, &pkgName); err != nil {
			return nil, storageErr("scan assignment", err)
		}
		if unit, ok := units[assignee]; ok {
			unit.Packages = append(unit.Packages, pkgName)
		}
	}
	if err := assignRows.Err(); err != nil {
		return nil, storageErr("iterate assignments", err)
	}

	list := make([]models.WorkListUnit, 0, len(order))
	for _, uid := range order {
		list = append(list, *units[uid])
	}

	return list, nil
}
