package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/models"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/repository"
	"github.com/plct-archrv/pkgstatus/common/telegram"
)

// ReportFailing records a CI build failure: ping the assignee if any,
// attach a failing mark and clear a stale ready mark. A package with no
// assignee is still marked; only an untracked package stops the report.
func (s *ResolveService) ReportFailing(ctx context.Context, pkgName string) (*models.WorkflowOutcome, error) {
	unlock := s.locks.Lock(pkgName)
	defer unlock()

	var details []string

	assignee, err := s.store.FindPackagerByPackage(ctx, pkgName)
	switch {
	case err == nil:
		s.notifier.Notify(fmt.Sprintf("Ping %s: [ci] %s is failing",
			telegram.MentionLink(assignee.Alias, assignee.TgUID), pkgName))
	case errors.Is(err, repository.ErrNotFound):
		details = append(details, "no assignee")
	default:
		return nil, err
	}

	pkg, err := s.store.FindPackage(ctx, pkgName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.WorkflowOutcome{
				Success: false,
				Message: fmt.Sprintf("%s is not tracked", pkgName),
				Detail:  strings.Join(details, "; "),
			}, nil
		}
		return nil, err
	}

	now := time.Now()
	mark := &models.Mark{
		Name:      "failing",
		Comment:   now.Format(time.RFC3339),
		MsgID:     0,
		MarkedAt:  now.Unix(),
		PackageID: pkg.ID,
	}
	if err := s.store.CreateMark(ctx, mark); err != nil {
		s.log.Error("failed to mark package failing", "pkg", pkgName, "error", err)
		s.notifier.Notify(fmt.Sprintf("[ci] failed to mark %s as failing: %v", pkgName, err))
		details = append(details, fmt.Sprintf("mark: %v", err))
	} else {
		s.notifier.Notify(fmt.Sprintf("[ci] %s has been marked failing", pkgName))
	}

	// A failing report invalidates any earlier ready mark
	removed, err := s.store.RemoveMarks(ctx, pkgName, []string{"ready"})
	if err == nil {
		for _, name := range removed {
			s.notifier.Notify(fmt.Sprintf("[ci] %s is no longer marked %s", pkgName, name))
		}
	} else if !errors.Is(err, repository.ErrNothingRemoved) && !errors.Is(err, repository.ErrNotFound) {
		s.log.Error("failed to clear ready mark", "pkg", pkgName, "error", err)
		details = append(details, fmt.Sprintf("unmark ready: %v", err))
	}

	return &models.WorkflowOutcome{
		Success: true,
		Message: fmt.Sprintf("recorded failing build of %s", pkgName),
		Detail:  strings.Join(details, "; "),
	}, nil
}
