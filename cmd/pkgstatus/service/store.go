package service

import (
	"context"

	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/models"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/repository"
)

// Store is the persistence surface the services depend on. The
// production implementation is repository.Store; tests substitute an
// in-memory fake.
type Store interface {
	FindPackagerByID(ctx context.Context, tgUID int64) (*models.Packager, error)
	FindPackagerByPackage(ctx context.Context, pkgName string) (*models.Packager, error)
	FindPackage(ctx context.Context, name string) (*models.Package, error)
	ListWorkAssignments(ctx context.Context) ([]models.WorkListUnit, error)
	ListPackageMarks(ctx context.Context) ([]models.MarkListUnit, error)
	RemoveMarks(ctx context.Context, pkgName string, filter []string) ([]string, error)
	CreateMark(ctx context.Context, mark *models.Mark) error
	DropAssignment(ctx context.Context, pkgName string, packagerID int64) error
	SearchRelations(ctx context.Context, by repository.RelationFilter) ([]models.PackageRelation, error)
	RemoveRelations(ctx context.Context, relation string, by repository.RelationFilter) ([]models.PackageRelation, error)
}

// Notifier is the producer side of the notice pipeline
type Notifier interface {
	Notify(text string)
}
