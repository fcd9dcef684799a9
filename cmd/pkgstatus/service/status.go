package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/models"
	"github.com/plct-archrv/pkgstatus/common/cache"
	"github.com/plct-archrv/pkgstatus/common/logger"
)

const statusCacheKey = "status:snapshot"

// StatusService serves the read-only dashboard snapshot. The snapshot
// is memoized with a short TTL because CI pollers hammer the route.
type StatusService struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewStatusService creates a status service; cache may be nil to
// disable memoization.
func NewStatusService(store Store, c cache.Cache, ttl time.Duration, log *logger.Logger) *StatusService {
	return &StatusService{
		store: store,
		cache: c,
		ttl:   ttl,
		log:   log,
	}
}

// Snapshot returns the work list and mark list for the dashboard
func (s *StatusService) Snapshot(ctx context.Context) (*models.StatusReport, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, statusCacheKey); err == nil && ok {
			report := &models.StatusReport{}
			if err := json.Unmarshal(data, report); err == nil {
				return report, nil
			}
			// Corrupt cache entry: fall through to a fresh read
			_ = s.cache.Delete(ctx, statusCacheKey)
		} else if err != nil {
			s.log.Warn("status cache read failed", "error", err)
		}
	}

	workList, err := s.store.ListWorkAssignments(ctx)
	if err != nil {
		return nil, err
	}

	markList, err := s.store.ListPackageMarks(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.StatusReport{
		WorkList: workList,
		MarkList: markList,
	}

	if s.cache != nil {
		if data, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, statusCacheKey, data, s.ttl); err != nil {
				s.log.Warn("status cache write failed", "error", err)
			}
		}
	}

	return report, nil
}
