package patient

import (
	"context"
	"fmt"
	"strings"

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

func (s *Service) Create(ctx context.Context, p *Patient, createdBy string) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if p.DateOfBirth.IsZero() {
		return fmt.Errorf("date_of_birth is required")
	}
	if p.MRN == "" {
		p.MRN = "P-" + strings.ToUpper(uuid.NewString()[:8])
	}
	p.StateChangedBy = createdBy
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.repo.GetByMRN(ctx, mrn)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) List(ctx context.Context, state string, limit, offset int) ([]*Patient, int, error) {
	if state != "" {
		return s.repo.ListByState(ctx, state, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

// Transition drives the care-journey machine. All patient edges are pure
// state changes; artifact creation happens in the collaborating domains.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target lifecycle.State, actor lifecycle.Actor, tc lifecycle.TransitionContext) error {
	return s.exec.Transition(ctx, id.String(), target, actor, tc)
}
