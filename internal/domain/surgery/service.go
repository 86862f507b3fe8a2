package surgery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/lifecycle"
)

type Service struct {
	repo Repository
	exec *lifecycle.Executor
}

func NewService(repo Repository, exec *lifecycle.Executor) *Service {
	return &Service{repo: repo, exec: exec}
}

func (s *Service) CreateCase(ctx context.Context, sc *Case, createdBy string) error {
	if sc.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if sc.ProcedureName == "" {
		return fmt.Errorf("procedure_name is required")
	}
	sc.StateChangedBy = createdBy
	return s.repo.CreateCase(ctx, sc)
}

func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*Case, error) {
	return s.repo.GetCase(ctx, id)
}

func (s *Service) ListCases(ctx context.Context, limit, offset int) ([]*Case, int, error) {
	return s.repo.ListCases(ctx, limit, offset)
}

func (s *Service) ListCasesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Case, int, error) {
	return s.repo.ListCasesByPatient(ctx, patientID, limit, offset)
}

// Transition drives the case machine. The SCHEDULED edge additionally stores
// the theater and slot carried in the transition context.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target lifecycle.State, actor lifecycle.Actor, tc lifecycle.TransitionContext) error {
	var at time.Time
	var haveSlot bool
	if target == StateScheduled {
		slot, ok := tc.Ref("scheduledAt")
		if ok && strings.TrimSpace(slot) != "" {
			var err error
			at, err = time.Parse(time.RFC3339, slot)
			if err != nil {
				return &lifecycle.ValidationError{Msg: fmt.Sprintf("scheduledAt must be RFC 3339: %v", err)}
			}
			haveSlot = true
		}
	}

	if err := s.exec.Transition(ctx, id.String(), target, actor, tc); err != nil {
		return err
	}

	if haveSlot {
		theater, _ := tc.Ref("theater")
		if err := s.repo.SetSchedule(ctx, id, theater, at); err != nil {
			return fmt.Errorf("set schedule: %w", err)
		}
	}
	return nil
}

func (s *Service) CreatePlan(ctx context.Context, p *Plan) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.ProcedureName == "" {
		return fmt.Errorf("procedure_name is required")
	}
	if strings.TrimSpace(p.Summary) == "" {
		return fmt.Errorf("summary is required")
	}
	if p.PlannedBy == "" {
		return fmt.Errorf("planned_by is required")
	}
	return s.repo.CreatePlan(ctx, p)
}

func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.repo.GetPlan(ctx, id)
}

func (s *Service) ListPlansByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	return s.repo.ListPlansByPatient(ctx, patientID, limit, offset)
}

// PlanForPatient is the evidence query the patient workflow registers under
// its procedure-planned precondition key.
func (s *Service) PlanForPatient(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return s.repo.PlanForPatient(ctx, patientID)
}
