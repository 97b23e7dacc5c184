package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/citydirectory/directory-core/internal/api/metrics"
	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/ports"
)

// SlugResolver resolves addresses against the binding store. It holds no
// state of its own; caching is layered on top by the caller.
type SlugResolver struct {
	bindings ports.BindingRepository
}

// NewSlugResolver returns a resolver reading from bindings.
func NewSlugResolver(bindings ports.BindingRepository) *SlugResolver {
	return &SlugResolver{bindings: bindings}
}

// Resolve looks up t and reports its entity and canonical address.
//
//  1. No binding for t → ErrNotFound.
//  2. t is canonical → no redirect.
//  3. Otherwise the canonical binding of the same {lang, entity} is the target.
//
// A target equal to t (canonical state changed between the two lookups) is
// reported without a redirect.
func (s *SlugResolver) Resolve(ctx context.Context, t domain.Triple) (domain.ResolutionResult, error) {
	res, err := s.resolve(ctx, t.Normalize())
	metrics.ResolutionsTotal.WithLabelValues(outcome(res, err)).Inc()
	return res, err
}

func (s *SlugResolver) resolve(ctx context.Context, t domain.Triple) (domain.ResolutionResult, error) {
	if !t.Complete() {
		return domain.ResolutionResult{}, fmt.Errorf("resolve %v: %w", t, domain.ErrNotFound)
	}

	binding, err := s.bindings.FindBinding(ctx, t)
	if err != nil {
		return domain.ResolutionResult{}, lookupError("find binding", t, err)
	}

	if binding.IsCanonical {
		return domain.ResolutionResult{
			EntityType: binding.Entity.Type,
			Entity:     binding.Entity,
			Canonical:  t,
		}, nil
	}

	canonical, err := s.bindings.FindCanonical(ctx, t.Lang, binding.Entity)
	if err != nil {
		// A historical binding whose entity lost its canonical binding is an
		// inconsistent store, not a missing page.
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ResolutionResult{}, fmt.Errorf("resolve %v: no canonical binding for %s/%s: %w",
				t, binding.Entity.Type, binding.Entity.ID, domain.ErrUnavailable)
		}
		return domain.ResolutionResult{}, lookupError("find canonical", t, err)
	}

	target := canonical.Triple.Normalize()
	return domain.ResolutionResult{
		EntityType:    binding.Entity.Type,
		Entity:        binding.Entity,
		Canonical:     target,
		NeedsRedirect: target != t,
	}, nil
}

func outcome(res domain.ResolutionResult, err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case err != nil:
		return "unavailable"
	case res.NeedsRedirect:
		return "redirect"
	}
	return "canonical"
}

// lookupError keeps ErrNotFound as is and folds every other repository
// failure into ErrUnavailable so callers never redirect on a failed check.
func lookupError(op string, t domain.Triple, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("resolve %v: %w", t, domain.ErrNotFound)
	}
	if errors.Is(err, domain.ErrUnavailable) {
		return fmt.Errorf("resolve %v: %s: %w", t, op, err)
	}
	return fmt.Errorf("resolve %v: %s: %w: %w", t, op, domain.ErrUnavailable, err)
}
