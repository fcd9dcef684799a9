package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/models"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/repository"
	"github.com/plct-archrv/pkgstatus/common/logger"
	"github.com/plct-archrv/pkgstatus/common/metrics"
	"github.com/plct-archrv/pkgstatus/common/telegram"
)

// ErrNoAssignee means the package has no resolvable current assignee.
// It is the only error that aborts the completion workflow before any
// mutation.
var ErrNoAssignee = errors.New("no assignee for package")

// ResolveService implements the package completion workflow: drop the
// assignment, clear the blocking marks and cascade-resolve dependents.
type ResolveService struct {
	store    Store
	notifier Notifier
	locks    *KeyedMutex
	log      *logger.Logger
}

// NewResolveService creates a new resolve service
func NewResolveService(store Store, notifier Notifier, log *logger.Logger) *ResolveService {
	return &ResolveService{
		store:    store,
		notifier: notifier,
		locks:    NewKeyedMutex(),
		log:      log,
	}
}

// CompletePackage runs the "package is done" workflow. The assignee
// lookup is the precondition; after it passes, the remaining steps are
// best-effort and independently reported, a failure in one never aborts
// the others. Mark cleanup and the relation cascade touch largely
// disjoint row sets, so they run as two concurrent sub-tasks; whole
// invocations are serialized per package name instead.
func (s *ResolveService) CompletePackage(ctx context.Context, pkgName string) (*models.WorkflowOutcome, error) {
	unlock := s.locks.Lock(pkgName)
	defer unlock()

	log := s.log.WithWorkflowID(uuid.NewString()).WithPackage(pkgName)

	assignee, err := s.store.FindPackagerByPackage(ctx, pkgName)
	if err != nil {
		metrics.CompletionsTotal.WithLabelValues("precondition_failed").Inc()
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoAssignee, pkgName)
		}
		return nil, err
	}

	log.Info("completing package", "assignee", assignee.Alias)

	// Step 1: announce. Always first so the user-facing confirmation
	// reaches the group even if cleanup fails later.
	s.notifier.Notify(fmt.Sprintf("Ping %s: [auto-merge] %s is done",
		telegram.MentionLink(assignee.Alias, assignee.TgUID), pkgName))

	// Step 2: drop the assignment
	if err := s.store.DropAssignment(ctx, pkgName, assignee.TgUID); err != nil {
		log.Error("drop assignment failed", "error", err)
		s.notifier.Notify(fmt.Sprintf("[auto-merge] failed to release %s from %s: %v",
			pkgName, assignee.Alias, err))
	}

	// Steps 3 and 4
	type stepResult struct {
		step string
		err  error
	}
	results := make(chan stepResult, 2)
	go func() {
		results <- stepResult{"clear-marks", s.clearBlockingMarks(ctx, pkgName)}
	}()
	go func() {
		results <- stepResult{"cascade", s.cascadeResolve(ctx, pkgName)}
	}()

	var details []string
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			log.Error("workflow step failed", "step", r.step, "error", r.err)
			details = append(details, fmt.Sprintf("%s: %v", r.step, r.err))
		}
	}

	result := "ok"
	if len(details) > 0 {
		result = "partial"
	}
	metrics.CompletionsTotal.WithLabelValues(result).Inc()

	return &models.WorkflowOutcome{
		Success: true,
		Message: fmt.Sprintf("completed %s", pkgName),
		Detail:  strings.Join(details, "; "),
	}, nil
}

// clearBlockingMarks removes the fixed blocking mark set from the
// completed package. Failures (including nothing to remove) produce a
// failure notice but are not escalated further.
func (s *ResolveService) clearBlockingMarks(ctx context.Context, pkgName string) error {
	removed, err := s.store.RemoveMarks(ctx, pkgName, models.BlockingMarks)
	if err != nil {
		s.notifier.Notify(fmt.Sprintf("[auto-unmark] no marks cleared for %s: %v", pkgName, err))
		return nil
	}

	for _, mark := range removed {
		s.notifier.Notify(fmt.Sprintf("[auto-unmark] %s is done, no longer marked %s", pkgName, mark))
	}

	return nil
}

// cascadeResolve re-evaluates every package that was blocked waiting on
// pkgName. An error on one dependent does not stop processing of the
// others; the first error is surfaced after all were attempted. The
// benign "nothing depended on this package" case is silent.
func (s *ResolveService) cascadeResolve(ctx context.Context, pkgName string) error {
	blocked, err := s.store.SearchRelations(ctx, repository.RequiredIn(pkgName))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		s.notifier.Notify(fmt.Sprintf("[auto-unmark] dependent lookup for %s failed: %v", pkgName, err))
		return err
	}

	var firstErr error
	for _, edge := range blocked {
		if !models.IsBlockingRelation(edge.Relation) {
			continue
		}
		if err := s.resolveDependent(ctx, pkgName, edge); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		s.notifier.Notify(fmt.Sprintf("[auto-unmark] cascade for %s hit an error: %v", pkgName, firstErr))
	}

	return firstErr
}

// resolveDependent handles one blocked package. It re-queries the
// package's full outstanding blocker set before deciding: if pkgName
// was its last blocker the matching mark goes away, otherwise only the
// satisfied edge is dropped and the mark stays.
func (s *ResolveService) resolveDependent(ctx context.Context, pkgName string, edge models.PackageRelation) error {
	dependent := edge.Request.Name

	outstanding, err := s.store.SearchRelations(ctx, repository.RequestIn(dependent))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Already fully resolved, nothing left to evaluate
			return nil
		}
		return err
	}

	blocking := make([]models.PackageRelation, 0, len(outstanding))
	for _, rel := range outstanding {
		if models.IsBlockingRelation(rel.Relation) {
			blocking = append(blocking, rel)
		}
	}
	if len(blocking) == 0 {
		return nil
	}

	var position *models.PackageRelation
	for i := range blocking {
		if blocking[i].Required.Name == pkgName && blocking[i].Relation == edge.Relation {
			position = &blocking[i]
			break
		}
	}
	if position == nil {
		// The edge was satisfied by an earlier iteration (duplicate rows)
		return nil
	}

	// cc whoever recorded the blocking edge before acting on it
	if position.CreatedBy != nil {
		s.notifier.Notify(fmt.Sprintf("Ping %s:",
			telegram.MentionLink(position.CreatedBy.Alias, position.CreatedBy.TgUID)))
	}

	var markErr error
	if len(blocking) == 1 {
		// pkgName was the last blocker: the dependent is unblocked and
		// its mark named after the relation type goes away
		if _, err := s.store.RemoveMarks(ctx, dependent, []string{position.Relation}); err != nil &&
			!errors.Is(err, repository.ErrNothingRemoved) {
			markErr = err
		}
		s.notifier.Notify(fmt.Sprintf("[auto-unmark] %s is no longer marked %s because %s is done",
			dependent, position.Relation, pkgName))
		metrics.PackagesUnblocked.Inc()
	} else {
		s.notifier.Notify(fmt.Sprintf("[auto-unmark] %s removed from %s's %s blockers",
			pkgName, dependent, position.Relation))
	}

	// Drop the satisfied edge either way so it is not reconsidered
	if _, err := s.store.RemoveRelations(ctx, position.Relation, repository.Edge(dependent, pkgName)); err != nil &&
		!errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return markErr
}
