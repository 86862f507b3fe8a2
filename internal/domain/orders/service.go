package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/lifecycle"
)

var validKinds = map[string]bool{
	KindLab:          true,
	KindPrescription: true,
}

var validPriorities = map[string]bool{
	"routine": true,
	"urgent":  true,
	"stat":    true,
}

type Service struct {
	repo Repository
	exec *lifecycle.Executor
}

func NewService(repo Repository, exec *lifecycle.Executor) *Service {
	return &Service{repo: repo, exec: exec}
}

func (s *Service) CreateOrder(ctx context.Context, o *Order, orderedBy string) error {
	if o.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if !validKinds[o.Kind] {
		return fmt.Errorf("invalid kind: %s", o.Kind)
	}
	if o.Code == "" {
		return fmt.Errorf("code is required")
	}
	if o.Priority == "" {
		o.Priority = "routine"
	}
	if !validPriorities[o.Priority] {
		return fmt.Errorf("invalid priority: %s", o.Priority)
	}
	o.OrderedBy = orderedBy
	o.StateChangedBy = orderedBy
	return s.repo.Create(ctx, o)
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, limit, offset int) ([]*Order, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Transition drives the status machine. The RESULTED edge additionally
// records the result summary carried in the transition context; the branch
// check keeps prescription orders off the lab branch and vice versa.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target lifecycle.State, actor lifecycle.Actor, tc lifecycle.TransitionContext) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return &lifecycle.NotFoundError{EntityID: id.String()}
	}
	if err := checkBranch(o.Kind, target); err != nil {
		return err
	}

	if err := s.exec.Transition(ctx, id.String(), target, actor, tc); err != nil {
		return err
	}

	if target == StateResulted {
		if summary, ok := tc.Ref("resultSummary"); ok && strings.TrimSpace(summary) != "" {
			if err := s.repo.RecordResult(ctx, id, summary); err != nil {
				return fmt.Errorf("record result: %w", err)
			}
		}
	}
	return nil
}

var labOnly = map[lifecycle.State]bool{
	StateSpecimenCollected: true,
	StateInLab:             true,
	StateResulted:          true,
	StateReviewed:          true,
}

var prescriptionOnly = map[lifecycle.State]bool{
	StateDispensed: true,
	StateCompleted: true,
}

func checkBranch(kind string, target lifecycle.State) error {
	if kind == KindPrescription && labOnly[target] {
		return &lifecycle.ValidationError{Msg: fmt.Sprintf("%s is not a prescription state", target)}
	}
	if kind == KindLab && prescriptionOnly[target] {
		return &lifecycle.ValidationError{Msg: fmt.Sprintf("%s is not a lab state", target)}
	}
	return nil
}
