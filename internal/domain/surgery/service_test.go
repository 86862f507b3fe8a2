package surgery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/lifecycle"
)

// -- Mocks --

type mockRepo struct {
	cases     map[uuid.UUID]*Case
	plans     map[uuid.UUID]*Plan
	schedules map[uuid.UUID]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		cases:     make(map[uuid.UUID]*Case),
		plans:     make(map[uuid.UUID]*Plan),
		schedules: make(map[uuid.UUID]string),
	}
}

func (m *mockRepo) CreateCase(_ context.Context, sc *Case) error {
	sc.ID = uuid.New()
	sc.State = string(StatePlanned)
	sc.Version = 1
	m.cases[sc.ID] = sc
	return nil
}

func (m *mockRepo) GetCase(_ context.Context, id uuid.UUID) (*Case, error) {
	sc, ok := m.cases[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return sc, nil
}

func (m *mockRepo) ListCases(_ context.Context, limit, offset int) ([]*Case, int, error) {
	var result []*Case
	for _, sc := range m.cases {
		result = append(result, sc)
	}
	return result, len(result), nil
}

func (m *mockRepo) ListCasesByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Case, int, error) {
	var result []*Case
	for _, sc := range m.cases {
		if sc.PatientID == patientID {
			result = append(result, sc)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) SetSchedule(_ context.Context, id uuid.UUID, theater string, scheduledAt time.Time) error {
	m.schedules[id] = theater
	if sc, ok := m.cases[id]; ok {
		sc.Theater = &theater
		sc.ScheduledAt = &scheduledAt
	}
	return nil
}

func (m *mockRepo) CreatePlan(_ context.Context, p *Plan) error {
	p.ID = uuid.New()
	m.plans[p.ID] = p
	return nil
}

func (m *mockRepo) GetPlan(_ context.Context, id uuid.UUID) (*Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockRepo) ListPlansByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	var result []*Plan
	for _, p := range m.plans {
		if p.PatientID == patientID {
			result = append(result, p)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) PlanForCase(_ context.Context, caseID uuid.UUID) (bool, error) {
	for _, p := range m.plans {
		if p.CaseID != nil && *p.CaseID == caseID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) PlanForPatient(_ context.Context, patientID uuid.UUID) (bool, error) {
	for _, p := range m.plans {
		if p.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

type mockStateStore struct {
	repo  *mockRepo
	snaps map[string]*lifecycle.Snapshot
}

func newMockStateStore(repo *mockRepo) *mockStateStore {
	return &mockStateStore{repo: repo, snaps: make(map[string]*lifecycle.Snapshot)}
}

func (m *mockStateStore) track(sc *Case) {
	m.snaps[sc.ID.String()] = &lifecycle.Snapshot{
		EntityID: sc.ID.String(),
		State:    lifecycle.State(sc.State),
		Version:  sc.Version,
	}
}

func (m *mockStateStore) Load(_ context.Context, id string) (*lifecycle.Snapshot, error) {
	snap, ok := m.snaps[id]
	if !ok {
		return nil, &lifecycle.NotFoundError{EntityID: id}
	}
	cp := *snap
	return &cp, nil
}

func (m *mockStateStore) Commit(_ context.Context, c *lifecycle.Commit) error {
	snap := m.snaps[c.EntityID]
	if snap.Version != c.BaseVersion {
		return &lifecycle.ConflictError{EntityID: c.EntityID, Version: snap.Version}
	}
	snap.State = c.ToState
	snap.Version++
	if id, err := uuid.Parse(c.EntityID); err == nil {
		if sc, ok := m.repo.cases[id]; ok {
			sc.State = string(c.ToState)
			sc.Version = snap.Version
		}
	}
	return nil
}

func (m *mockStateStore) History(_ context.Context, id string, limit, offset int) ([]lifecycle.TransitionRecord, int, error) {
	return nil, 0, nil
}

type staticRoles map[string][]lifecycle.Role

func (s staticRoles) ActiveRoles(_ context.Context, actorID string) ([]lifecycle.Role, error) {
	return s[actorID], nil
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockStateStore) {
	t.Helper()
	repo := newMockRepo()
	store := newMockStateStore(repo)

	preconds := lifecycle.NewPreconditionChecker()
	preconds.Register(KeyProcedurePlan, func(ctx context.Context, entityID string, _ lifecycle.TransitionContext) (bool, error) {
		id, err := uuid.Parse(entityID)
		if err != nil {
			return false, err
		}
		return repo.PlanForCase(ctx, id)
	})

	exec := lifecycle.NewExecutor(lifecycle.Config{
		Aggregate: AggregateType,
		Graph:     Graph(),
		Roles: lifecycle.NewRoleValidator(staticRoles{
			"doc-1":   {"doctor"},
			"nurse-1": {"nurse"},
			"rec-1":   {"receptionist"},
		}),
		Preconditions: preconds,
		Store:         store,
		Logger:        zerolog.Nop(),
	})
	return NewService(repo, exec), repo, store
}

var (
	doctor       = lifecycle.Actor{ID: "doc-1", Role: "doctor"}
	nurse        = lifecycle.Actor{ID: "nurse-1", Role: "nurse"}
	receptionist = lifecycle.Actor{ID: "rec-1", Role: "receptionist"}
)

func newCase(t *testing.T, svc *Service, store *mockStateStore) *Case {
	t.Helper()
	sc := &Case{PatientID: uuid.New(), ProcedureName: "ACL reconstruction"}
	if err := svc.CreateCase(context.Background(), sc, "doc-1"); err != nil {
		t.Fatal(err)
	}
	store.track(sc)
	return sc
}

func addPlan(t *testing.T, svc *Service, sc *Case) {
	t.Helper()
	p := &Plan{
		PatientID:     sc.PatientID,
		CaseID:        &sc.ID,
		ProcedureName: sc.ProcedureName,
		Summary:       "arthroscopic, hamstring graft",
		PlannedBy:     "doc-1",
	}
	if err := svc.CreatePlan(context.Background(), p); err != nil {
		t.Fatal(err)
	}
}

// -- Tests --

func TestScheduling_BlockedWithoutPlan(t *testing.T) {
	svc, _, store := newTestService(t)
	sc := newCase(t, svc, store)

	err := svc.Transition(context.Background(), sc.ID, StateScheduled, receptionist, lifecycle.TransitionContext{})
	missing, ok := err.(*lifecycle.MissingDataError)
	if !ok {
		t.Fatalf("expected MissingDataError, got %v", err)
	}
	if len(missing.Keys) != 1 || missing.Keys[0] != KeyProcedurePlan {
		t.Errorf("unexpected missing keys: %v", missing.Keys)
	}
}

func TestScheduling_StoresTheaterAndSlot(t *testing.T) {
	svc, repo, store := newTestService(t)
	sc := newCase(t, svc, store)
	addPlan(t, svc, sc)

	slot := time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339)
	tc := lifecycle.TransitionContext{Refs: map[string]string{"theater": "OR-2", "scheduledAt": slot}}
	if err := svc.Transition(context.Background(), sc.ID, StateScheduled, receptionist, tc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.schedules[sc.ID] != "OR-2" {
		t.Errorf("theater not stored: %q", repo.schedules[sc.ID])
	}
	if sc.ScheduledAt == nil {
		t.Error("scheduled slot not stored")
	}
}

func TestScheduling_BadSlotFormat(t *testing.T) {
	svc, _, store := newTestService(t)
	sc := newCase(t, svc, store)
	addPlan(t, svc, sc)

	tc := lifecycle.TransitionContext{Refs: map[string]string{"scheduledAt": "next tuesday"}}
	err := svc.Transition(context.Background(), sc.ID, StateScheduled, receptionist, tc)
	if _, ok := err.(*lifecycle.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCase_FullPath(t *testing.T) {
	svc, _, store := newTestService(t)
	sc := newCase(t, svc, store)
	addPlan(t, svc, sc)
	ctx := context.Background()

	steps := []struct {
		target lifecycle.State
		actor  lifecycle.Actor
	}{
		{StateScheduled, doctor},
		{StatePreOp, nurse},
		{StateInProgress, doctor},
		{StateCompleted, doctor},
	}
	for _, step := range steps {
		if err := svc.Transition(ctx, sc.ID, step.target, step.actor, lifecycle.TransitionContext{}); err != nil {
			t.Fatalf("transition to %s: %v", step.target, err)
		}
	}
	if sc.State != string(StateCompleted) {
		t.Errorf("expected COMPLETED, got %s", sc.State)
	}
}

func TestCancellation_RequiresReason(t *testing.T) {
	svc, _, store := newTestService(t)
	sc := newCase(t, svc, store)
	ctx := context.Background()

	err := svc.Transition(ctx, sc.ID, StateCancelled, doctor, lifecycle.TransitionContext{})
	if _, ok := err.(*lifecycle.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if err := svc.Transition(ctx, sc.ID, StateCancelled, doctor, lifecycle.TransitionContext{Reason: "patient declined"}); err != nil {
		t.Fatalf("unexpected error with reason: %v", err)
	}
}

func TestNoCancellationAfterPreOp(t *testing.T) {
	svc, _, store := newTestService(t)
	sc := newCase(t, svc, store)
	addPlan(t, svc, sc)
	ctx := context.Background()

	if err := svc.Transition(ctx, sc.ID, StateScheduled, doctor, lifecycle.TransitionContext{}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Transition(ctx, sc.ID, StatePreOp, nurse, lifecycle.TransitionContext{}); err != nil {
		t.Fatal(err)
	}

	err := svc.Transition(ctx, sc.ID, StateCancelled, doctor, lifecycle.TransitionContext{Reason: "x"})
	if _, ok := err.(*lifecycle.InvalidTransitionError); !ok {
		t.Errorf("expected InvalidTransitionError, got %v", err)
	}
}
