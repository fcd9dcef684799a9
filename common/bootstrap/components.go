package bootstrap

import (
	"context"

	"github.com/plct-archrv/pkgstatus/common/cache"
	"github.com/plct-archrv/pkgstatus/common/config"
	"github.com/plct-archrv/pkgstatus/common/db"
	"github.com/plct-archrv/pkgstatus/common/logger"
	"github.com/plct-archrv/pkgstatus/common/notify"
	"github.com/plct-archrv/pkgstatus/common/telegram"
)

// Components holds all initialized service dependencies. There are no
// ambient singletons: everything is constructed once here and passed
// down explicitly.
type Components struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.DB
	Cache    cache.Cache
	Bot      *telegram.Bot
	Notifier *notify.Notifier

	cleanupFuncs []func() error
}

// addCleanup registers a cleanup function (run in reverse order)
func (c *Components) addCleanup(fn func() error) {
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}

// Shutdown gracefully shuts down all components. The notifier is
// registered last so it drains its final batch before the transports
// below it go away.
func (c *Components) Shutdown(ctx context.Context) {
	if c.Logger != nil {
		c.Logger.Info("shutting down components")
	}

	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil && c.Logger != nil {
			c.Logger.Error("cleanup failed", "error", err)
		}
	}
}
