package container

import (
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/repository"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/service"
	"github.com/plct-archrv/pkgstatus/common/bootstrap"
)

// Container holds all initialized services and repositories (singleton
// pattern, created once at startup)
type Container struct {
	Components *bootstrap.Components

	Store *repository.Store

	ResolveService *service.ResolveService
	StatusService  *service.StatusService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	store := repository.NewStore(components.DB)

	resolveService := service.NewResolveService(
		store,
		components.Notifier,
		components.Logger,
	)

	statusService := service.NewStatusService(
		store,
		components.Cache,
		components.Config.Cache.StatusTTL,
		components.Logger,
	)

	return &Container{
		Components:     components,
		Store:          store,
		ResolveService: resolveService,
		StatusService:  statusService,
	}, nil
}
