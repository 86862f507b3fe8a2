package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/consent"
	"github.com/clinicore/clinicore/internal/domain/identity"
	"github.com/clinicore/clinicore/internal/domain/intake"
	"github.com/clinicore/clinicore/internal/domain/notes"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/domain/scheduling"
	"github.com/clinicore/clinicore/internal/domain/surgery"
	"github.com/clinicore/clinicore/internal/lifecycle"
)

// env bundles the fully wired services and executors the way the server
// composes them.
type env struct {
	identitySvc   *identity.Service
	intakeSvc     *intake.Service
	schedulingSvc *scheduling.Service
	notesSvc      *notes.Service
	consentSvc    *consent.Service
	consentExec   *lifecycle.Executor
	surgerySvc    *surgery.Service
	patientSvc    *patient.Service
	patientExec   *lifecycle.Executor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zerolog.Nop()
	pool := globalPool

	identityRepo := identity.NewRepo(pool)
	identitySvc := identity.NewService(identityRepo)
	roles := lifecycle.NewRoleValidator(identity.NewRoleStore(identityRepo))

	intakeSvc := intake.NewService(intake.NewRepo(pool))
	schedulingSvc := scheduling.NewService(scheduling.NewRepo(pool))
	notesSvc := notes.NewService(notes.NewRepo(pool))

	consentExec := consent.NewExecutor(pool, roles, nil, log)
	consentSvc := consent.NewService(consent.NewRepo(pool), consentExec)

	surgeryRepo := surgery.NewRepo(pool)
	surgeryExec := surgery.NewExecutor(pool, surgeryRepo, roles, nil, log)
	surgerySvc := surgery.NewService(surgeryRepo, surgeryExec)

	consentStructured, consentDocument := consentSvc.SignedEvidence()
	patientExec := patient.NewExecutor(pool, patient.Evidence{
		IntakeCompleted:       intakeSvc.CompletedForPatient,
		ConsultationScheduled: schedulingSvc.ConsultationScheduled,
		ConsultationCompleted: schedulingSvc.ConsultationCompleted,
		ProcedurePlanned:      surgerySvc.PlanForPatient,
		ConsentSigned:         []lifecycle.EvidenceFunc{consentStructured, consentDocument},
		SurgeryScheduled:      schedulingSvc.SurgeryScheduled,
		FollowUpNote:          notesSvc.FollowUpNoteExists,
	}, roles, nil, log)
	patientSvc := patient.NewService(patient.NewRepo(pool), patientExec)

	return &env{
		identitySvc:   identitySvc,
		intakeSvc:     intakeSvc,
		schedulingSvc: schedulingSvc,
		notesSvc:      notesSvc,
		consentSvc:    consentSvc,
		consentExec:   consentExec,
		surgerySvc:    surgerySvc,
		patientSvc:    patientSvc,
		patientExec:   patientExec,
	}
}

func actor(id uuid.UUID, role lifecycle.Role) lifecycle.Actor {
	return lifecycle.Actor{ID: id.String(), Role: role}
}

func TestPatientJourney(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	patID := seedUser(t, ctx, e.identitySvc, "journey-pat@example.com", "patient")
	docID := seedUser(t, ctx, e.identitySvc, "journey-doc@example.com", "doctor")
	nurseID := seedUser(t, ctx, e.identitySvc, "journey-nurse@example.com", "nurse")
	recID := seedUser(t, ctx, e.identitySvc, "journey-rec@example.com", "receptionist")

	asPatient := actor(patID, "patient")
	asDoctor := actor(docID, "doctor")
	asNurse := actor(nurseID, "nurse")
	asReceptionist := actor(recID, "receptionist")

	p := &patient.Patient{
		FirstName:   "Imani",
		LastName:    "Mensah",
		DateOfBirth: time.Date(1979, 6, 14, 0, 0, 0, 0, time.UTC),
	}
	if err := e.patientSvc.Create(ctx, p, recID.String()); err != nil {
		t.Fatal(err)
	}

	move := func(target lifecycle.State, a lifecycle.Actor, tc lifecycle.TransitionContext) error {
		return e.patientSvc.Transition(ctx, p.ID, target, a, tc)
	}
	noCtx := lifecycle.TransitionContext{}

	// Intake must be completed before the machine accepts the step.
	err := move(patient.StateIntakeCompleted, asNurse, noCtx)
	if _, ok := err.(*lifecycle.MissingDataError); !ok {
		t.Fatalf("expected MissingDataError before intake exists, got %v", err)
	}

	rec := &intake.Record{PatientID: p.ID}
	if err := e.intakeSvc.CreateRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := e.intakeSvc.CompleteRecord(ctx, rec.ID, nurseID.String()); err != nil {
		t.Fatal(err)
	}
	if err := move(patient.StateIntakeCompleted, asNurse, noCtx); err != nil {
		t.Fatalf("intake step: %v", err)
	}

	if err := move(patient.StateConsultationRequested, asPatient, noCtx); err != nil {
		t.Fatalf("consultation request: %v", err)
	}

	appt := &scheduling.Appointment{
		PatientID:      p.ID,
		Kind:           scheduling.KindConsultation,
		ScheduledStart: time.Now().UTC().Add(48 * time.Hour),
	}
	if err := e.schedulingSvc.BookAppointment(ctx, appt); err != nil {
		t.Fatal(err)
	}
	if err := move(patient.StateConsultationScheduled, asReceptionist, noCtx); err != nil {
		t.Fatalf("consultation scheduled: %v", err)
	}

	if err := e.schedulingSvc.UpdateAppointmentStatus(ctx, appt.ID, scheduling.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	if err := move(patient.StateConsultationCompleted, asDoctor, noCtx); err != nil {
		t.Fatalf("consultation completed: %v", err)
	}

	plan := &surgery.Plan{
		PatientID:     p.ID,
		ProcedureName: "total hip replacement",
		Summary:       "posterior approach, cemented implant",
		PlannedBy:     docID.String(),
	}
	if err := e.surgerySvc.CreatePlan(ctx, plan); err != nil {
		t.Fatal(err)
	}
	if err := move(patient.StateProcedurePlanned, asDoctor, noCtx); err != nil {
		t.Fatalf("procedure planned: %v", err)
	}

	// A consent must reach SIGNED through its own machine first.
	err = move(patient.StateConsentSigned, asPatient, noCtx)
	if _, ok := err.(*lifecycle.MissingDataError); !ok {
		t.Fatalf("expected MissingDataError before consent signed, got %v", err)
	}

	con := &consent.Consent{PatientID: p.ID, ProcedureName: "total hip replacement", Title: "Surgical consent"}
	if err := e.consentSvc.CreateConsent(ctx, con, docID.String()); err != nil {
		t.Fatal(err)
	}
	if err := e.consentSvc.Transition(ctx, con.ID, consent.StateSent, asDoctor, noCtx); err != nil {
		t.Fatalf("consent send: %v", err)
	}
	if err := e.consentSvc.Transition(ctx, con.ID, consent.StateSigned, asPatient, noCtx); err != nil {
		t.Fatalf("consent sign: %v", err)
	}
	if err := move(patient.StateConsentSigned, asPatient, noCtx); err != nil {
		t.Fatalf("consent signed step: %v", err)
	}

	surgeryAppt := &scheduling.Appointment{
		PatientID:      p.ID,
		Kind:           scheduling.KindSurgery,
		ScheduledStart: time.Now().UTC().Add(14 * 24 * time.Hour),
	}
	if err := e.schedulingSvc.BookAppointment(ctx, surgeryAppt); err != nil {
		t.Fatal(err)
	}
	if err := move(patient.StateSurgeryScheduled, asReceptionist, noCtx); err != nil {
		t.Fatalf("surgery scheduled: %v", err)
	}

	for _, step := range []struct {
		target lifecycle.State
		a      lifecycle.Actor
	}{
		{patient.StateAdmitted, asNurse},
		{patient.StateInSurgery, asDoctor},
		{patient.StateRecovery, asNurse},
		{patient.StateFollowUp, asDoctor},
	} {
		if err := move(step.target, step.a, noCtx); err != nil {
			t.Fatalf("transition to %s: %v", step.target, err)
		}
	}

	// Discharge needs both a follow-up note and a reason.
	reason := lifecycle.TransitionContext{Reason: "recovery complete"}
	err = move(patient.StateDischarged, asDoctor, reason)
	if _, ok := err.(*lifecycle.MissingDataError); !ok {
		t.Fatalf("expected MissingDataError before follow-up note, got %v", err)
	}

	note := &notes.Note{PatientID: p.ID, AuthorID: docID.String(), Kind: notes.KindFollowUp, Body: "wound healed, full range of motion"}
	if err := e.notesSvc.CreateNote(ctx, note); err != nil {
		t.Fatal(err)
	}

	err = move(patient.StateDischarged, asDoctor, noCtx)
	if _, ok := err.(*lifecycle.ValidationError); !ok {
		t.Fatalf("expected ValidationError without reason, got %v", err)
	}
	if err := move(patient.StateDischarged, asDoctor, reason); err != nil {
		t.Fatalf("discharge: %v", err)
	}

	state, err := e.patientExec.CurrentState(ctx, p.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if state != patient.StateDischarged {
		t.Errorf("final state = %s", state)
	}

	stored, err := e.patientSvc.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Version != 13 {
		t.Errorf("version = %d, want 13", stored.Version)
	}

	records, total, err := e.patientExec.History(ctx, p.ID.String(), 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 12 {
		t.Errorf("history total = %d, want 12", total)
	}
	if len(records) == 0 || records[0].ToState != patient.StateDischarged {
		t.Errorf("history is not newest-first: %+v", records)
	}
}

func TestRoleSpoofingRejected(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	nurseID := seedUser(t, ctx, e.identitySvc, "spoof-nurse@example.com", "nurse")
	recID := seedUser(t, ctx, e.identitySvc, "spoof-rec@example.com", "receptionist")

	p := &patient.Patient{
		FirstName:   "Kofi",
		LastName:    "Adjei",
		DateOfBirth: time.Date(1991, 1, 20, 0, 0, 0, 0, time.UTC),
	}
	if err := e.patientSvc.Create(ctx, p, recID.String()); err != nil {
		t.Fatal(err)
	}

	// The nurse claims a role it does not hold; validation re-derives roles
	// from the store and rejects the claim.
	spoofed := actor(nurseID, "receptionist")
	err := e.patientSvc.Transition(ctx, p.ID, patient.StateConsultationRequested, spoofed, lifecycle.TransitionContext{})
	if _, ok := err.(*lifecycle.UnauthorizedError); !ok {
		t.Fatalf("expected UnauthorizedError, got %v", err)
	}
}

func TestConcurrentTransitionsOneWins(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	recID := seedUser(t, ctx, e.identitySvc, "conc-rec@example.com", "receptionist")
	adminID := seedUser(t, ctx, e.identitySvc, "conc-admin@example.com", "admin")
	asReceptionist := actor(recID, "receptionist")
	asAdmin := actor(adminID, "admin")

	p := &patient.Patient{
		FirstName:   "Esi",
		LastName:    "Owusu",
		DateOfBirth: time.Date(1988, 9, 3, 0, 0, 0, 0, time.UTC),
	}
	if err := e.patientSvc.Create(ctx, p, recID.String()); err != nil {
		t.Fatal(err)
	}

	type result struct{ err error }
	results := make(chan result, 2)
	go func() {
		results <- result{e.patientSvc.Transition(ctx, p.ID, patient.StateConsultationRequested, asReceptionist, lifecycle.TransitionContext{})}
	}()
	go func() {
		results <- result{e.patientSvc.Transition(ctx, p.ID, patient.StateInactive, asAdmin, lifecycle.TransitionContext{Reason: "duplicate registration"})}
	}()

	var succeeded int
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err == nil {
			succeeded++
			continue
		}
		// A loser may observe the version conflict, or reload after the
		// winner committed and find its edge no longer valid.
		switch r.err.(type) {
		case *lifecycle.ConflictError, *lifecycle.InvalidTransitionError:
		default:
			t.Fatalf("unexpected failure kind: %v", r.err)
		}
	}
	if succeeded == 0 {
		t.Fatal("neither transition committed")
	}

	// No lost updates: every committed transition left a record and bumped
	// the version exactly once.
	_, total, err := e.patientExec.History(ctx, p.ID.String(), 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != succeeded {
		t.Errorf("history total = %d, want %d", total, succeeded)
	}
	stored, err := e.patientSvc.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Version != 1+succeeded {
		t.Errorf("version = %d, want %d", stored.Version, 1+succeeded)
	}
}
