package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/models"
	"github.com/plct-archrv/pkgstatus/cmd/pkgstatus/repository"
	"github.com/plct-archrv/pkgstatus/common/logger"
	"github.com/plct-archrv/pkgstatus/common/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store with the same error semantics as the
// Postgres implementation.
type fakeStore struct {
	mu          sync.Mutex
	packagers   map[int64]string // tg_uid -> alias
	packages    map[string]int64 // name -> id
	assignments map[string]int64 // pkg name -> assignee tg_uid
	marks       []fakeMark
	relations   []fakeRelation
}

type fakeMark struct {
	pkg  string
	name string
}

type fakeRelation struct {
	relation  string
	request   string
	required  string
	createdBy int64 // 0 means no creator recorded
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		packagers:   make(map[int64]string),
		packages:    make(map[string]int64),
		assignments: make(map[string]int64),
	}
}

func (f *fakeStore) addPackage(name string) {
	f.packages[name] = int64(len(f.packages) + 1)
}

func (f *fakeStore) FindPackagerByID(ctx context.Context, tgUID int64) (*models.Packager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	alias, ok := f.packagers[tgUID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.Packager{TgUID: tgUID, Alias: alias}, nil
}

func (f *fakeStore) FindPackagerByPackage(ctx context.Context, pkgName string) (*models.Packager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	uid, ok := f.assignments[pkgName]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.Packager{TgUID: uid, Alias: f.packagers[uid]}, nil
}

func (f *fakeStore) FindPackage(ctx context.Context, name string) (*models.Package, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.packages[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.Package{ID: id, Name: name}, nil
}

func (f *fakeStore) ListWorkAssignments(ctx context.Context) ([]models.WorkListUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byAlias := make(map[string][]string)
	for pkg, uid := range f.assignments {
		alias := f.packagers[uid]
		byAlias[alias] = append(byAlias[alias], pkg)
	}

	aliases := make([]string, 0, len(byAlias))
	for alias := range byAlias {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	var units []models.WorkListUnit
	for _, alias := range aliases {
		sort.Strings(byAlias[alias])
		units = append(units, models.WorkListUnit{Alias: alias, Packages: byAlias[alias]})
	}
	return units, nil
}

func (f *fakeStore) ListPackageMarks(ctx context.Context) ([]models.MarkListUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byPkg := make(map[string][]models.MarkView)
	for _, m := range f.marks {
		byPkg[m.pkg] = append(byPkg[m.pkg], models.MarkView{Name: m.name})
	}

	names := make([]string, 0, len(byPkg))
	for name := range byPkg {
		names = append(names, name)
	}
	sort.Strings(names)

	var units []models.MarkListUnit
	for _, name := range names {
		units = append(units, models.MarkListUnit{Name: name, Marks: byPkg[name]})
	}
	return units, nil
}

func (f *fakeStore) RemoveMarks(ctx context.Context, pkgName string, filter []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.packages[pkgName]; !ok {
		return nil, repository.ErrNotFound
	}

	wanted := make(map[string]bool, len(filter))
	for _, name := range filter {
		wanted[name] = true
	}

	var removed []string
	var kept []fakeMark
	for _, m := range f.marks {
		if m.pkg == pkgName && (len(filter) == 0 || wanted[m.name]) {
			removed = append(removed, m.name)
			continue
		}
		kept = append(kept, m)
	}
	f.marks = kept

	if len(removed) == 0 {
		return nil, repository.ErrNothingRemoved
	}
	return removed, nil
}

func (f *fakeStore) CreateMark(ctx context.Context, mark *models.Mark) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, id := range f.packages {
		if id == mark.PackageID {
			f.marks = append(f.marks, fakeMark{pkg: name, name: mark.Name})
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) DropAssignment(ctx context.Context, pkgName string, packagerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	owned := false
	for _, uid := range f.assignments {
		if uid == packagerID {
			owned = true
			break
		}
	}
	if !owned {
		return repository.ErrNoAssignments
	}
	if f.assignments[pkgName] != packagerID {
		return repository.ErrNotAssigned
	}
	delete(f.assignments, pkgName)
	return nil
}

func matchRelation(by repository.RelationFilter, r fakeRelation) bool {
	contains := func(names []string, name string) bool {
		for _, n := range names {
			if n == name {
				return true
			}
		}
		return false
	}
	if len(by.Request) > 0 && !contains(by.Request, r.request) {
		return false
	}
	if len(by.Required) > 0 && !contains(by.Required, r.required) {
		return false
	}
	return true
}

// resolveLocked mirrors the production dangling-endpoint skip rule
func (f *fakeStore) resolveLocked(raw []fakeRelation) ([]models.PackageRelation, error) {
	var resolved []models.PackageRelation
	for _, r := range raw {
		reqID, okReq := f.packages[r.request]
		relID, okRel := f.packages[r.required]
		if !okReq || !okRel {
			continue
		}
		edge := models.PackageRelation{
			Relation: r.relation,
			Request:  models.Package{ID: reqID, Name: r.request},
			Required: models.Package{ID: relID, Name: r.required},
		}
		if r.createdBy != 0 {
			edge.CreatedBy = &models.Packager{TgUID: r.createdBy, Alias: f.packagers[r.createdBy]}
		}
		resolved = append(resolved, edge)
	}
	if len(resolved) == 0 {
		return nil, repository.ErrNotFound
	}
	return resolved, nil
}

func (f *fakeStore) SearchRelations(ctx context.Context, by repository.RelationFilter) ([]models.PackageRelation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var raw []fakeRelation
	for _, r := range f.relations {
		if matchRelation(by, r) {
			raw = append(raw, r)
		}
	}
	return f.resolveLocked(raw)
}

func (f *fakeStore) RemoveRelations(ctx context.Context, relation string, by repository.RelationFilter) ([]models.PackageRelation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var removed []fakeRelation
	var kept []fakeRelation
	for _, r := range f.relations {
		if r.relation == relation && matchRelation(by, r) {
			removed = append(removed, r)
			continue
		}
		kept = append(kept, r)
	}
	f.relations = kept
	return f.resolveLocked(removed)
}

// fakeNotifier records notices in arrival order
type fakeNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (f *fakeNotifier) Notify(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, text)
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.notices...)
}

func (f *fakeNotifier) contains(substr string) bool {
	for _, n := range f.all() {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

func testLogger() *logger.Logger {
	return logger.New("error", "json")
}

func TestCompletePackage_NoAssigneeAbortsBeforeMutation(t *testing.T) {
	store := newFakeStore()
	store.addPackage("nodejs")
	store.marks = []fakeMark{{pkg: "nodejs", name: "outdated"}}

	notifier := &fakeNotifier{}
	svc := NewResolveService(store, notifier, testLogger())

	outcome, err := svc.CompletePackage(context.Background(), "nodejs")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAssignee)
	assert.Nil(t, outcome)

	assert.Empty(t, notifier.all(), "a failed precondition must not announce anything")
	assert.Len(t, store.marks, 1, "a failed precondition must not touch marks")
}

func TestCompletePackage_AnnouncesAndClearsBlockingMarks(t *testing.T) {
	store := newFakeStore()
	store.packagers[100] = "alice"
	store.addPackage("nodejs")
	store.assignments["nodejs"] = 100
	store.marks = []fakeMark{
		{pkg: "nodejs", name: "outdated"},
		{pkg: "nodejs", name: "failing"},
		{pkg: "nodejs", name: "upstream"}, // not in the blocking set
	}

	notifier := &fakeNotifier{}
	svc := NewResolveService(store, notifier, testLogger())

	outcome, err := svc.CompletePackage(context.Background(), "nodejs")

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.Detail)

	_, assigned := store.assignments["nodejs"]
	assert.False(t, assigned, "the assignment must be released")

	require.Len(t, store.marks, 1, "only the non-blocking mark survives")
	assert.Equal(t, "upstream", store.marks[0].name)

	notices := notifier.all()
	require.NotEmpty(t, notices)
	assert.Contains(t, notices[0], "[auto-merge] nodejs is done",
		"the announcement goes out before any cleanup notice")
	assert.True(t, notifier.contains("no longer marked outdated"))
	assert.True(t, notifier.contains("no longer marked failing"))
	assert.False(t, notifier.contains("no longer marked upstream"))
}

func TestCompletePackage_LastBlockerUnblocksDependent(t *testing.T) {
	store := newFakeStore()
	store.packagers[100] = "alice"
	store.packagers[200] = "bob"
	store.addPackage("nodejs")
	store.addPackage("electron")
	store.assignments["nodejs"] = 100
	store.marks = []fakeMark{{pkg: "electron", name: "missing_dep"}}
	store.relations = []fakeRelation{
		{relation: "missing_dep", request: "electron", required: "nodejs", createdBy: 200},
	}

	notifier := &fakeNotifier{}
	svc := NewResolveService(store, notifier, testLogger())

	outcome, err := svc.CompletePackage(context.Background(), "nodejs")

	require.NoError(t, err)
	assert.True(t, outcome.Success)

	assert.Empty(t, store.relations, "the satisfied edge must be deleted")
	assert.Empty(t, store.marks, "the last blocker clears the dependent's mark")

	assert.True(t, notifier.contains("electron is no longer marked missing_dep because nodejs is done"))
	assert.True(t, notifier.contains(`tg://user?id=200`), "the edge creator gets pinged")
}

func TestCompletePackage_RemainingBlockerKeepsMark(t *testing.T) {
	store := newFakeStore()
	store.packagers[100] = "alice"
	store.addPackage("nodejs")
	store.addPackage("glibc")
	store.addPackage("electron")
	store.assignments["nodejs"] = 100
	store.marks = []fakeMark{{pkg: "electron", name: "outdated_dep"}}
	store.relations = []fakeRelation{
		{relation: "outdated_dep", request: "electron", required: "nodejs"},
		{relation: "outdated_dep", request: "electron", required: "glibc"},
	}

	notifier := &fakeNotifier{}
	svc := NewResolveService(store, notifier, testLogger())

	outcome, err := svc.CompletePackage(context.Background(), "nodejs")

	require.NoError(t, err)
	assert.True(t, outcome.Success)

	require.Len(t, store.relations, 1, "only the satisfied edge goes away")
	assert.Equal(t, "glibc", store.relations[0].required)

	require.Len(t, store.marks, 1, "the mark stays while another blocker remains")
	assert.Equal(t, "outdated_dep", store.marks[0].name)

	assert.True(t, notifier.contains("nodejs removed from electron's outdated_dep blockers"))
	assert.False(t, notifier.contains("electron is no longer marked"))
}

func TestCompletePackage_NonBlockingRelationIgnored(t *testing.T) {
	store := newFakeStore()
	store.packagers[100] = "alice"
	store.addPackage("nodejs")
	store.addPackage("electron")
	store.assignments["nodejs"] = 100
	store.relations = []fakeRelation{
		{relation: "related_to", request: "electron", required: "nodejs"},
	}

	notifier := &fakeNotifier{}
	svc := NewResolveService(store, notifier, testLogger())

	_, err := svc.CompletePackage(context.Background(), "nodejs")

	require.NoError(t, err)
	assert.Len(t, store.relations, 1, "relations outside the blocking vocabulary are untouched")
}

func TestCompletePackage_SecondRunFailsPrecondition(t *testing.T) {
	store := newFakeStore()
	store.packagers[100] = "alice"
	store.addPackage("nodejs")
	store.assignments["nodejs"] = 100

	notifier := &fakeNotifier{}
	svc := NewResolveService(store, notifier, testLogger())

	_, err := svc.CompletePackage(context.Background(), "nodejs")
	require.NoError(t, err)

	_, err = svc.CompletePackage(context.Background(), "nodejs")
	assert.ErrorIs(t, err, ErrNoAssignee, "the released assignment makes a repeat trigger fail")
}

// failingStore wraps fakeStore to inject storage failures on selected
// operations
type failingStore struct {
	*fakeStore
	failRemoveMarksFor string
	failDropAssignment bool
}

func (f *failingStore) RemoveMarks(ctx context.Context, pkgName string, filter []string) ([]string, error) {
	if pkgName == f.failRemoveMarksFor {
		return nil, &repository.StorageError{Op: "delete marks", Err: errors.New("connection reset")}
	}
	return f.fakeStore.RemoveMarks(ctx, pkgName, filter)
}

func (f *failingStore) DropAssignment(ctx context.Context, pkgName string, packagerID int64) error {
	if f.failDropAssignment {
		return &repository.StorageError{Op: "delete assignment", Err: errors.New("connection reset")}
	}
	return f.fakeStore.DropAssignment(ctx, pkgName, packagerID)
}

func TestCompletePackage_CascadeErrorDoesNotStopOtherDependents(t *testing.T) {
	inner := newFakeStore()
	inner.packagers[100] = "alice"
	inner.addPackage("nodejs")
	inner.addPackage("electron")
	inner.addPackage("firefox")
	inner.assignments["nodejs"] = 100
	inner.marks = []fakeMark{
		{pkg: "electron", name: "missing_dep"},
		{pkg: "firefox", name: "missing_dep"},
	}
	inner.relations = []fakeRelation{
		{relation: "missing_dep", request: "electron", required: "nodejs"},
		{relation: "missing_dep", request: "firefox", required: "nodejs"},
	}
	store := &failingStore{fakeStore: inner, failRemoveMarksFor: "electron"}

	partialBefore := testutil.ToFloat64(metrics.CompletionsTotal.WithLabelValues("partial"))

	notifier := &fakeNotifier{}
	svc := NewResolveService(store, notifier, testLogger())

	outcome, err := svc.CompletePackage(context.Background(), "nodejs")

	require.NoError(t, err, "a cascade error is reported in the outcome, not escalated")
	assert.True(t, outcome.Success)
	assert.Contains(t, outcome.Detail, "cascade")
	assert.Contains(t, outcome.Detail, "connection reset")

	require.Len(t, inner.marks, 1, "the other dependent is still unblocked")
	assert.Equal(t, "electron", inner.marks[0].pkg)
	assert.Empty(t, inner.relations, "both satisfied edges go away regardless of the error")

	assert.True(t, notifier.contains("firefox is no longer marked missing_dep because nodejs is done"))
	assert.True(t, notifier.contains("cascade for nodejs hit an error"))

	partialAfter := testutil.ToFloat64(metrics.CompletionsTotal.WithLabelValues("partial"))
	assert.Equal(t, partialBefore+1, partialAfter, "a completion with collected errors counts as partial")
}

func TestCompletePackage_DropAssignmentFailureDoesNotAbort(t *testing.T) {
	inner := newFakeStore()
	inner.packagers[100] = "alice"
	inner.addPackage("nodejs")
	inner.assignments["nodejs"] = 100
	inner.marks = []fakeMark{{pkg: "nodejs", name: "outdated"}}
	store := &failingStore{fakeStore: inner, failDropAssignment: true}

	notifier := &fakeNotifier{}
	svc := NewResolveService(store, notifier, testLogger())

	outcome, err := svc.CompletePackage(context.Background(), "nodejs")

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.Detail, "a release failure notices the group, it is not an outcome detail")

	assert.Empty(t, inner.marks, "mark cleanup still runs after the release failure")
	assert.True(t, notifier.contains("failed to release nodejs from alice"))
	assert.True(t, notifier.contains("no longer marked outdated"))
}
