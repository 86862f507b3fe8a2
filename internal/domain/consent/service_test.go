package consent

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
	consents   map[uuid.UUID]*Consent
	documents  map[uuid.UUID]*Document
	signatures map[uuid.UUID]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		consents:   make(map[uuid.UUID]*Consent),
		documents:  make(map[uuid.UUID]*Document),
		signatures: make(map[uuid.UUID]string),
	}
}

func (m *mockRepo) Create(_ context.Context, c *Consent) error {
	c.ID = uuid.New()
	c.State = string(StateDraft)
	c.Version = 1
	m.consents[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Consent, error) {
	c, ok := m.consents[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return c, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Consent, int, error) {
	var result []*Consent
	for _, c := range m.consents {
		if c.PatientID == patientID {
			result = append(result, c)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) RecordSignature(_ context.Context, id uuid.UUID, signedBy string) error {
	m.signatures[id] = signedBy
	return nil
}

func (m *mockRepo) CreateDocument(_ context.Context, d *Document) error {
	d.ID = uuid.New()
	m.documents[d.ID] = d
	return nil
}

func (m *mockRepo) GetDocument(_ context.Context, id uuid.UUID) (*Document, error) {
	d, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}

func (m *mockRepo) ListDocumentsByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Document, int, error) {
	var result []*Document
	for _, d := range m.documents {
		if d.PatientID == patientID {
			result = append(result, d)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) SignedForPatient(_ context.Context, patientID uuid.UUID) (bool, error) {
	for _, c := range m.consents {
		if c.PatientID == patientID && c.State == string(StateSigned) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) DocumentForPatient(_ context.Context, patientID uuid.UUID) (bool, error) {
	for _, d := range m.documents {
		if d.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

// mockStateStore keeps the engine's snapshots in memory and mirrors state
// changes back onto the mock repo, the way the shared pg store and the
// consent table share rows in production.
type mockStateStore struct {
	repo  *mockRepo
	snaps map[string]*lifecycle.Snapshot
}

func newMockStateStore(repo *mockRepo) *mockStateStore {
	return &mockStateStore{repo: repo, snaps: make(map[string]*lifecycle.Snapshot)}
}

func (m *mockStateStore) track(c *Consent) {
	m.snaps[c.ID.String()] = &lifecycle.Snapshot{
		EntityID: c.ID.String(),
		State:    lifecycle.State(c.State),
		Version:  c.Version,
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
		if consent, ok := m.repo.consents[id]; ok {
			consent.State = string(c.ToState)
			consent.Version = snap.Version
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
	exec := lifecycle.NewExecutor(lifecycle.Config{
		Aggregate: AggregateType,
		Graph:     Graph(),
		Roles: lifecycle.NewRoleValidator(staticRoles{
			"doc-1": {"doctor"},
			"pat-1": {"patient"},
		}),
		Store:  store,
		Logger: zerolog.Nop(),
	})
	return NewService(repo, exec), repo, store
}

// -- Tests --

func TestCreateConsent_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.CreateConsent(ctx, &Consent{Title: "x", ProcedureName: "y"}, "doc-1"); err == nil {
		t.Error("expected error for missing patient_id")
	}
	if err := svc.CreateConsent(ctx, &Consent{PatientID: uuid.New(), Title: "x"}, "doc-1"); err == nil {
		t.Error("expected error for missing procedure_name")
	}

	c := &Consent{PatientID: uuid.New(), ProcedureName: "ACL reconstruction", Title: "Surgical consent"}
	if err := svc.CreateConsent(ctx, c, "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.State != string(StateDraft) {
		t.Errorf("expected new consent in DRAFT, got %s", c.State)
	}
}

func TestTransition_SignedStampsSigner(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	c := &Consent{PatientID: uuid.New(), ProcedureName: "ACL reconstruction", Title: "Surgical consent"}
	if err := svc.CreateConsent(ctx, c, "doc-1"); err != nil {
		t.Fatal(err)
	}
	store.track(c)

	doctor := lifecycle.Actor{ID: "doc-1", Role: "doctor"}
	patient := lifecycle.Actor{ID: "pat-1", Role: "patient"}

	if err := svc.Transition(ctx, c.ID, StateSent, doctor, lifecycle.TransitionContext{}); err != nil {
		t.Fatalf("DRAFT -> SENT: %v", err)
	}
	if repo.signatures[c.ID] != "" {
		t.Error("non-signing edge must not stamp a signer")
	}

	if err := svc.Transition(ctx, c.ID, StateSigned, patient, lifecycle.TransitionContext{}); err != nil {
		t.Fatalf("SENT -> SIGNED: %v", err)
	}
	if repo.signatures[c.ID] != "pat-1" {
		t.Errorf("expected signer pat-1, got %q", repo.signatures[c.ID])
	}
	if c.State != string(StateSigned) {
		t.Errorf("expected consent row in SIGNED, got %s", c.State)
	}
}

func TestTransition_RejectedEdgeDoesNotStamp(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	c := &Consent{PatientID: uuid.New(), ProcedureName: "ACL reconstruction", Title: "Surgical consent"}
	if err := svc.CreateConsent(ctx, c, "doc-1"); err != nil {
		t.Fatal(err)
	}
	store.track(c)

	// Signing directly from DRAFT is not an edge.
	patient := lifecycle.Actor{ID: "pat-1", Role: "patient"}
	err := svc.Transition(ctx, c.ID, StateSigned, patient, lifecycle.TransitionContext{})
	if err == nil {
		t.Fatal("expected invalid transition")
	}
	if repo.signatures[c.ID] != "" {
		t.Error("failed transition must not stamp a signer")
	}
}

func TestSignedEvidence_ORSemantics(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	pid := uuid.New()

	structured, document := svc.SignedEvidence()
	combined := lifecycle.AnyOf(structured, document)

	found, err := combined(ctx, pid.String(), lifecycle.TransitionContext{})
	if err != nil || found {
		t.Fatalf("expected no evidence yet: found=%v err=%v", found, err)
	}

	// An uploaded document alone satisfies the combined query.
	doc := &Document{PatientID: pid, FileName: "consent.pdf", StorageKey: "blob/1", UploadedBy: "rec-1"}
	if err := svc.UploadDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	found, err = combined(ctx, pid.String(), lifecycle.TransitionContext{})
	if err != nil || !found {
		t.Errorf("expected document to satisfy evidence: found=%v err=%v", found, err)
	}

	// A signed structured consent alone also satisfies it.
	delete(repo.documents, doc.ID)
	repo.consents[uuid.New()] = &Consent{PatientID: pid, State: string(StateSigned), SignedAt: ptrTime(time.Now())}
	found, err = combined(ctx, pid.String(), lifecycle.TransitionContext{})
	if err != nil || !found {
		t.Errorf("expected signed consent to satisfy evidence: found=%v err=%v", found, err)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
