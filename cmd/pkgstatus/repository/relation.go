package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/models"
)

// RelationFilter selects pkg_relation rows by endpoint names.
// RequestIn and RequiredIn cover the one-sided lookups; Edge combines
// both sides so the cascade can delete one satisfied edge precisely.
type RelationFilter struct {
	// Request matches rows whose blocked side is one of these names
	Request []string
	// Required matches rows whose blocker side is one of these names
	Required []string
}

// RequestIn selects relations whose blocked package is one of names
func RequestIn(names ...string) RelationFilter {
	return RelationFilter{Request: names}
}

// RequiredIn selects relations whose blocking package is one of names
func RequiredIn(names ...string) RelationFilter {
	return RelationFilter{Required: names}
}

// Edge selects exactly the request -> required edge
func Edge(request, required string) RelationFilter {
	return RelationFilter{Request: []string{request}, Required: []string{required}}
}

// clauses renders the filter as SQL conditions, appending bind args.
// An empty filter matches nothing rather than everything.
func (f RelationFilter) clauses(args *[]any) (string, error) {
	var conds []string
	if len(f.Request) > 0 {
		*args = append(*args, f.Request)
		conds = append(conds, fmt.Sprintf("request = ANY($%d)", len(*args)))
	}
	if len(f.Required) > 0 {
		*args = append(*args, f.Required)
		conds = append(conds, fmt.Sprintf("required = ANY($%d)", len(*args)))
	}
	if len(conds) == 0 {
		return "", fmt.Errorf("empty relation filter")
	}
	return strings.Join(conds, " AND "), nil
}

// relationRow is the raw table shape; endpoints are names, not ids
type relationRow struct {
	relation  string
	request   string
	required  string
	createdBy *int64
}

// SearchRelations finds relation edges matching the filter and resolves
// their endpoints to package rows and the creator to a packager. Rows
// whose endpoints fail to resolve are silently dropped. Fails with
// ErrNotFound when the resolved result is empty.
func (s *Store) SearchRelations(ctx context.Context, by RelationFilter) ([]models.PackageRelation, error) {
	var args []any
	conds, err := by.clauses(&args)
	if err != nil {
		return nil, storageErr("search relations", err)
	}

	query := fmt.Sprintf(
		`SELECT relation, request, required, created_by FROM pkg_relation WHERE %s ORDER BY id`,
		conds,
	)

	raw, err := s.queryRelationRows(ctx, query, args)
	if err != nil {
		return nil, err
	}

	return s.resolveRelations(ctx, raw)
}

// RemoveRelations deletes matching edges of the given relation type and
// returns what was deleted, with the same resolution and skip rules as
// SearchRelations.
func (s *Store) RemoveRelations(ctx context.Context, relation string, by RelationFilter) ([]models.PackageRelation, error) {
	args := []any{relation}
	conds, err := by.clauses(&args)
	if err != nil {
		return nil, storageErr("remove relations", err)
	}

	query := fmt.Sprintf(
		`DELETE FROM pkg_relation WHERE relation = $1 AND %s RETURNING relation, request, required, created_by`,
		conds,
	)

	raw, err := s.queryRelationRows(ctx, query, args)
	if err != nil {
		return nil, err
	}

	return s.resolveRelations(ctx, raw)
}

func (s *Store) queryRelationRows(ctx context.Context, query string, args []any) ([]relationRow, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query relations", err)
	}
	defer rows.Close()

	var raw []relationRow
	for rows.Next() {
		var r relationRow
		if err := rows.Scan(&r.relation, &r.request, &r.required, &r.createdBy); err != nil {
			return nil, storageErr("scan relation", err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate relations", err)
	}

	return raw, nil
}

// resolveRelations turns raw rows into fully resolved edges, skipping
// rows whose package endpoints have vanished. A vanished creator only
// clears CreatedBy, it does not drop the edge.
func (s *Store) resolveRelations(ctx context.Context, raw []relationRow) ([]models.PackageRelation, error) {
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	nameSet := make(map[string]struct{})
	uidSet := make(map[int64]struct{})
	for _, r := range raw {
		nameSet[r.request] = struct{}{}
		nameSet[r.required] = struct{}{}
		if r.createdBy != nil {
			uidSet[*r.createdBy] = struct{}{}
		}
	}

	names := make([]string, 0, len(nameSet))
	for n := range nameSet {
		names = append(names, n)
	}

	pkgRows, err := s.db.Query(ctx, `SELECT id, name FROM pkg WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, storageErr("resolve relation packages", err)
	}
	defer pkgRows.Close()

	pkgs := make(map[string]models.Package)
	for pkgRows.Next() {
		var p models.Package
		if err := pkgRows.Scan(&p.ID, &p.Name); err != nil {
			return nil, storageErr("scan relation package", err)
		}
		pkgs[p.Name] = p
	}
	if err := pkgRows.Err(); err != nil {
		return nil, storageErr("iterate relation packages", err)
	}

	packagers := make(map[int64]models.Packager)
	if len(uidSet) > 0 {
		uids := make([]int64, 0, len(uidSet))
		for uid := range uidSet {
			uids = append(uids, uid)
		}

		pgrRows, err := s.db.Query(ctx, `SELECT tg_uid, alias FROM packager WHERE tg_uid = ANY($1)`, uids)
		if err != nil {
			return nil, storageErr("resolve relation creators", err)
		}
		defer pgrRows.Close()

		for pgrRows.Next() {
			var p models.Packager
			if err := pgrRows.Scan(&p.TgUID, &p.Alias); err != nil {
				return nil, storageErr("scan relation creator", err)
			}
			packagers[p.TgUID] = p
		}
		if err := pgrRows.Err(); err != nil {
			return nil, storageErr("iterate relation creators", err)
		}
	}

	var resolved []models.PackageRelation
	for _, r := range raw {
		request, okReq := pkgs[r.request]
		required, okRel := pkgs[r.required]
		if !okReq || !okRel {
			continue
		}

		edge := models.PackageRelation{
			Relation: r.relation,
			Request:  request,
			Required: required,
		}
		if r.createdBy != nil {
			if creator, ok := packagers[*r.createdBy]; ok {
				edge.CreatedBy = &creator
			}
		}
		resolved = append(resolved, edge)
	}

	if len(resolved) == 0 {
		return nil, ErrNotFound
	}

	return resolved, nil
}
