package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/models"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/service"
	"github.com/plct-archrv/pkgstatus/common/logger"
)

// pkgNameRe follows the archlinux package naming rules
var pkgNameRe = regexp.MustCompile(`^[a-z0-9@._+][a-z0-9@._+-]*$`)

// TriggerHandler handles the CI trigger routes
type TriggerHandler struct {
	resolver *service.ResolveService
	validate *validator.Validate
	log      *logger.Logger
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(resolver *service.ResolveService, log *logger.Logger) *TriggerHandler {
	v := validator.New()
	_ = v.RegisterValidation("pkgname", func(fl validator.FieldLevel) bool {
		return pkgNameRe.MatchString(fl.Field().String())
	})

	return &TriggerHandler{
		resolver: resolver,
		validate: v,
		log:      log,
	}
}

// DeletePackage handles "package X is done" from the CI.
// GET /delete/:pkg/:status?token=...
func (h *TriggerHandler) DeletePackage(c echo.Context) error {
	pkgName := c.Param("pkg")
	status := models.TriggerStatus(c.Param("status"))

	if err := h.validate.Var(pkgName, "required,max=190,pkgname"); err != nil {
		return c.String(http.StatusBadRequest, "Bad Request")
	}
	if !status.ValidForCompletion() {
		return c.String(http.StatusBadRequest, "Bad Request")
	}

	outcome, err := h.resolver.CompletePackage(c.Request().Context(), pkgName)
	if err != nil {
		if errors.Is(err, service.ErrNoAssignee) {
			return c.String(http.StatusBadRequest, err.Error())
		}
		h.log.Error("complete package failed", "pkg", pkgName, "error", err)
		return c.String(http.StatusInternalServerError,
			fmt.Sprintf("completion workflow failed: %v", err))
	}

	if outcome.Detail != "" {
		return c.String(http.StatusOK, "success; "+outcome.Detail)
	}
	return c.String(http.StatusOK, "success")
}

// AddPackage handles "package X is failing" from the CI.
// GET /add/:pkg/:status?token=...
func (h *TriggerHandler) AddPackage(c echo.Context) error {
	pkgName := c.Param("pkg")
	status := models.TriggerStatus(c.Param("status"))

	if err := h.validate.Var(pkgName, "required,max=190,pkgname"); err != nil {
		return c.String(http.StatusBadRequest, "Bad Request")
	}
	if !status.ValidForFailureReport() {
		return c.String(http.StatusBadRequest, "Bad Request")
	}

	outcome, err := h.resolver.ReportFailing(c.Request().Context(), pkgName)
	if err != nil {
		h.log.Error("failure report failed", "pkg", pkgName, "error", err)
		return c.String(http.StatusInternalServerError,
			fmt.Sprintf("failure report failed: %v", err))
	}

	if !outcome.Success {
		return c.String(http.StatusOK, outcome.Message)
	}
	if outcome.Detail != "" {
		return c.String(http.StatusOK, "success; "+outcome.Detail)
	}
	return c.String(http.StatusOK, "success")
}
