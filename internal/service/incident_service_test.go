package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asiste-ing/incident-service/internal/domain"
	"github.com/asiste-ing/incident-service/internal/repository"
	apperrors "github.com/asiste-ing/incident-service/pkg/util"
)

// fakeStore is an in-memory IncidentRepository that mirrors the real one's
// compare-and-swap persistence: a transition commits only when the stored
// status still matches what the caller loaded.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int
	incidents map[string]domain.Incident
	history   map[string][]domain.HistoryEntry

	lastFilter repository.IncidentFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		incidents: make(map[string]domain.Incident),
		history:   make(map[string][]domain.HistoryEntry),
	}
}

func (f *fakeStore) Create(ctx context.Context, incident *domain.Incident, entry *domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	incident.ID = fmt.Sprintf("inc-%d", f.nextID)
	incident.CreatedAt = time.Now()
	incident.UpdatedAt = incident.CreatedAt
	f.incidents[incident.ID] = *incident
	f.appendEntry(incident.ID, entry)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	incident, ok := f.incidents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &incident, nil
}

func (f *fakeStore) ListWithFilter(ctx context.Context, filter repository.IncidentFilter) ([]domain.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	result := make([]domain.Incident, 0, len(f.incidents))
	for _, incident := range f.incidents {
		result = append(result, incident)
	}
	return result, nil
}

func (f *fakeStore) ListSnapshot(ctx context.Context) ([]domain.Incident, error) {
	return f.ListWithFilter(ctx, repository.IncidentFilter{})
}

func (f *fakeStore) ApplyTransition(ctx context.Context, incident *domain.Incident, expected domain.IncidentStatus, entry *domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.incidents[incident.ID]
	if !ok || stored.Status != expected {
		return repository.ErrStatusConflict
	}
	incident.UpdatedAt = time.Now()
	f.incidents[incident.ID] = *incident
	f.appendEntry(incident.ID, entry)
	return nil
}

func (f *fakeStore) RankTechnicians(ctx context.Context) ([]repository.TechnicianRanking, error) {
	return nil, nil
}

func (f *fakeStore) appendEntry(incidentID string, entry *domain.HistoryEntry) {
	f.nextID++
	entry.ID = fmt.Sprintf("hist-%d", f.nextID)
	entry.IncidentID = incidentID
	entry.CreatedAt = time.Now()
	f.history[incidentID] = append(f.history[incidentID], *entry)
}

func (f *fakeStore) ListByIncident(ctx context.Context, incidentID string) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.history[incidentID]
	out := make([]domain.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// seed inserts an incident directly, bypassing the service.
func (f *fakeStore) seed(incident domain.Incident) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	incident.ID = fmt.Sprintf("inc-%d", f.nextID)
	incident.CreatedAt = time.Now()
	incident.UpdatedAt = incident.CreatedAt
	f.incidents[incident.ID] = incident
	return incident.ID
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error { return nil }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return nil
}

var (
	svcAdmin       = &domain.User{ID: "u-admin", Role: domain.RoleAdmin, Sede: "bogota"}
	svcCoordinador = &domain.User{ID: "u-coord", Role: domain.RoleCoordinador, Sede: "bogota"}
	svcTechnician  = &domain.User{ID: "u-tech", Role: domain.RoleTechnician, Sede: "bogota"}
)

func newTestService(store *fakeStore) *IncidentService {
	return NewIncidentService(IncidentDependencies{
		IncidentRepo: store,
		HistoryRepo:  store,
		UserRepo: &fakeUserRepo{users: map[string]domain.User{
			svcAdmin.ID:       *svcAdmin,
			svcCoordinador.ID: *svcCoordinador,
			svcTechnician.ID:  *svcTechnician,
		}},
	})
}

func TestCreateAssignResolveApproveFlow(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store)

	incident, err := svc.CreateIncident(ctx, svcCoordinador, IncidentCreateInput{
		StationCode: "EST-042",
		Sede:        "bogota",
		FailureType: domain.FailureTypePantalla,
		Description: "pantalla sin imagen",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendiente, incident.Status)
	assert.Equal(t, svcCoordinador.ID, incident.ReportedBy)

	incident, err = svc.AssignTechnician(ctx, svcAdmin, incident.ID, svcTechnician.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnProceso, incident.Status)
	require.NotNil(t, incident.AssignedTo)
	assert.Equal(t, svcTechnician.ID, *incident.AssignedTo)

	incident, err = svc.Resolve(ctx, svcTechnician, incident.ID, "se cambio la pantalla")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnSupervision, incident.Status)
	assert.NotNil(t, incident.ResolvedAt)

	incident, err = svc.Approve(ctx, svcCoordinador, incident.ID, "todo en orden", 5, "rapido")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAprobado, incident.Status)
	require.NotNil(t, incident.TechnicianRating)
	assert.Equal(t, 5, *incident.TechnicianRating)

	history, err := svc.ListHistory(ctx, incident.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, domain.ActionReportado, history[0].Action)
	assert.Equal(t, domain.ActionAsignacion, history[1].Action)
	assert.Equal(t, domain.ActionResuelto, history[2].Action)
	assert.Equal(t, domain.ActionAprobado, history[3].Action)
	require.NotNil(t, history[3].Rating)
	assert.Equal(t, 5, *history[3].Rating)
}

func TestCreateValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore())

	_, err := svc.CreateIncident(ctx, svcCoordinador, IncidentCreateInput{
		StationCode: "EST-001",
		Sede:        "bogota",
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestCreateDeniedForTechnician(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore())

	_, err := svc.CreateIncident(ctx, svcTechnician, IncidentCreateInput{
		StationCode: "EST-001",
		Sede:        "bogota",
		FailureType: domain.FailureTypeInternet,
		Description: "sin red",
	})
	assert.True(t, apperrors.IsCode(err, "PERMISSION_DENIED"))
}

func TestAssignUnknownTechnician(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store)
	id := store.seed(domain.Incident{
		StationCode: "EST-001",
		Sede:        "bogota",
		Status:      domain.StatusPendiente,
		ReportedBy:  svcCoordinador.ID,
	})

	_, err := svc.AssignTechnician(ctx, svcAdmin, id, "no-such-user")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestGetIncidentNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore())

	_, _, err := svc.GetIncident(ctx, "missing")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

// Two supervisors race on the same en_supervision incident: exactly one
// decision commits, the loser observes a stale-status conflict.
func TestConcurrentApproveAndReject(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store)

	techID := svcTechnician.ID
	resolvedAt := time.Now()
	id := store.seed(domain.Incident{
		StationCode: "EST-009",
		Sede:        "bogota",
		FailureType: domain.FailureTypeInternet,
		Description: "sin conectividad",
		Status:      domain.StatusEnSupervision,
		ReportedBy:  svcCoordinador.ID,
		AssignedTo:  &techID,
		ResolvedAt:  &resolvedAt,
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.Approve(ctx, svcAdmin, id, "aprobado", 0, "")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.Reject(ctx, svcAdmin, id, "falta evidencia")
	}()
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case apperrors.IsCode(err, "INVALID_TRANSITION"):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	final, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, []domain.IncidentStatus{domain.StatusAprobado, domain.StatusEnProceso}, final.Status)
}

func TestApplySupervisionBucketHoy(t *testing.T) {
	now := time.Date(2026, time.March, 12, 15, 30, 0, 0, time.UTC)
	var filter repository.IncidentFilter

	require.NoError(t, applySupervisionBucket(&filter, SupervisionHoy, now))
	require.NotNil(t, filter.ResolvedSince)
	assert.Equal(t, time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC), *filter.ResolvedSince)
	assert.Nil(t, filter.SupervisionBefore)
}

func TestApplySupervisionBucketCutoffs(t *testing.T) {
	now := time.Date(2026, time.March, 12, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		bucket string
		cutoff time.Time
	}{
		{SupervisionTresH, now.Add(-3 * time.Hour)},
		{SupervisionSemana, now.Add(-7 * 24 * time.Hour)},
		{SupervisionMes, now.Add(-30 * 24 * time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.bucket, func(t *testing.T) {
			var filter repository.IncidentFilter
			require.NoError(t, applySupervisionBucket(&filter, tc.bucket, now))
			require.NotNil(t, filter.SupervisionBefore)
			assert.Equal(t, tc.cutoff, *filter.SupervisionBefore)
			assert.Nil(t, filter.ResolvedSince)
		})
	}
}

func TestApplySupervisionBucketEmpty(t *testing.T) {
	var filter repository.IncidentFilter
	require.NoError(t, applySupervisionBucket(&filter, "", time.Now()))
	assert.Nil(t, filter.ResolvedSince)
	assert.Nil(t, filter.SupervisionBefore)
}

func TestListIncidentsRejectsUnknownBucket(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore())

	_, err := svc.ListIncidents(ctx, IncidentListFilter{SupervisionTime: "ayer"})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestListIncidentsPassesFilterThrough(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store)

	sede := "bogota"
	role := domain.RoleCoordinador
	_, err := svc.ListIncidents(ctx, IncidentListFilter{
		Statuses:    []domain.IncidentStatus{domain.StatusEnSupervision},
		Sede:        &sede,
		CreatorRole: &role,
		Limit:       20,
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.IncidentStatus{domain.StatusEnSupervision}, store.lastFilter.Statuses)
	assert.Equal(t, &sede, store.lastFilter.Sede)
	assert.Equal(t, &role, store.lastFilter.CreatorRole)
	assert.Equal(t, 20, store.lastFilter.Limit)
}
