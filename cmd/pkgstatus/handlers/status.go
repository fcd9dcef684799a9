package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/service"
	"github.com/plct-archrv/pkgstatus/common/logger"
)

// StatusHandler serves the read-only dashboard
type StatusHandler struct {
	status *service.StatusService
	log    *logger.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(status *service.StatusService, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		status: status,
		log:    log,
	}
}

// GetStatus returns the work list and mark list snapshot.
// GET /pkg
func (h *StatusHandler) GetStatus(c echo.Context) error {
	report, err := h.status.Snapshot(c.Request().Context())
	if err != nil {
		h.log.Error("status snapshot failed", "error", err)
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}

	return c.JSON(http.StatusOK, report)
}
