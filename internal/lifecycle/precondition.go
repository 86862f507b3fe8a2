package lifecycle

import (
	"context"
	"fmt"
)

// EvidenceFunc answers one narrow existence question: does the artifact this
// key stands for exist for the given entity? Implementations query a single
// collaborating subsystem (consent store, intake records, surgical cases...).
type EvidenceFunc func(ctx context.Context, entityID string, tc TransitionContext) (bool, error)

// PreconditionChecker resolves precondition keys against their collaborating
// subsystems. All failing keys are collected and reported together so the
// caller receives the full remediation list in one call.
type PreconditionChecker struct {
	checks    map[DataKey]EvidenceFunc
	overrides map[DataKey]string
}

func NewPreconditionChecker() *PreconditionChecker {
	return &PreconditionChecker{
		checks:    make(map[DataKey]EvidenceFunc),
		overrides: make(map[DataKey]string),
	}
}

// Register binds a precondition key to its evidence query.
func (p *PreconditionChecker) Register(key DataKey, fn EvidenceFunc) {
	p.checks[key] = fn
}

// AllowOverride accepts a caller-supplied artifact id under refKey as proof
// for the given precondition, without re-querying the store. The id is taken
// at face value; see the design notes on this integrity trade-off.
func (p *PreconditionChecker) AllowOverride(key DataKey, refKey string) {
	p.overrides[key] = refKey
}

// Check verifies every required key. Keys with no registered evidence query
// count as missing (fail closed). Returns MissingDataError listing all unmet
// keys, or the first query error encountered.
func (p *PreconditionChecker) Check(ctx context.Context, entityID string, keys []DataKey, tc TransitionContext) error {
	var missing []DataKey

	for _, key := range keys {
		if refKey, ok := p.overrides[key]; ok {
			if _, supplied := tc.Ref(refKey); supplied {
				continue
			}
		}

		fn, ok := p.checks[key]
		if !ok {
			missing = append(missing, key)
			continue
		}

		found, err := fn(ctx, entityID, tc)
		if err != nil {
			return fmt.Errorf("check precondition %s: %w", key, err)
		}
		if !found {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return &MissingDataError{Keys: missing}
	}
	return nil
}

// AnyOf combines evidence queries with OR semantics: the key is satisfied if
// any query finds the artifact. Used where an artifact has multiple
// representations, e.g. structured consents and uploaded consent documents.
func AnyOf(fns ...EvidenceFunc) EvidenceFunc {
	return func(ctx context.Context, entityID string, tc TransitionContext) (bool, error) {
		for _, fn := range fns {
			found, err := fn(ctx, entityID, tc)
			if err != nil {
				return false, err
			}
			if found {
				return true, nil
			}
		}
		return false, nil
	}
}
