package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/ports"
)

// Invalidator drops cached resolutions of an entity. The resolution cache
// implements it.
type Invalidator interface {
	Invalidate(ctx context.Context, entity domain.EntityRef, triples ...domain.Triple) error
}

type bindingService struct {
	repo  ports.BindingRepository
	cache Invalidator
	log   zerolog.Logger
}

// NewBindingService returns a BindingService. cache may be nil.
func NewBindingService(repo ports.BindingRepository, cache Invalidator, log zerolog.Logger) ports.BindingService {
	return &bindingService{repo: repo, cache: cache, log: log}
}

func (s *bindingService) Publish(ctx context.Context, b domain.SlugBinding) error {
	b.Triple = b.Triple.Normalize()
	if err := validateBinding(b.Triple, b.Entity); err != nil {
		return err
	}
	b.IsCanonical = true

	// A concurrent publish of the same entity still trips the canonical index.
	existing, err := s.repo.FindCanonical(ctx, b.Triple.Lang, b.Entity)
	switch {
	case err == nil:
		return fmt.Errorf("publish %v: %s/%s is at %q: %w",
			b.Triple, b.Entity.Type, b.Entity.ID, existing.Triple.Slug, domain.ErrAlreadyPublished)
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("publish %v: %w", b.Triple, err)
	}

	if err := s.repo.Publish(ctx, b); err != nil {
		return fmt.Errorf("publish %v: %w", b.Triple, err)
	}
	s.log.Info().Str("entity_id", b.Entity.ID).Str("slug", b.Triple.Slug).Msg("binding published")
	return nil
}

// Rename makes to the canonical address of entity. The previous canonical
// binding stays behind as a redirect.
func (s *bindingService) Rename(ctx context.Context, entity domain.EntityRef, to domain.Triple) error {
	to = to.Normalize()
	if err := validateBinding(to, entity); err != nil {
		return err
	}

	prev, err := s.repo.FindCanonical(ctx, to.Lang, entity)
	if err != nil {
		return fmt.Errorf("rename %s/%s: %w", entity.Type, entity.ID, err)
	}
	if prev.Triple.Normalize() == to {
		return nil
	}
	if err := s.repo.Rename(ctx, entity, to); err != nil {
		return fmt.Errorf("rename %s/%s: %w", entity.Type, entity.ID, err)
	}

	// Cached entries age out within the TTL anyway; dropping them makes the
	// rename visible at once.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, entity, prev.Triple, to); err != nil {
			s.log.Warn().Err(err).Str("entity_id", entity.ID).Msg("failed to invalidate cached resolutions")
		}
	}

	s.log.Info().
		Str("entity_id", entity.ID).
		Str("from", prev.Triple.Slug).
		Str("to", to.Slug).
		Msg("binding renamed")
	return nil
}

func validateBinding(t domain.Triple, e domain.EntityRef) error {
	if !t.Complete() {
		return fmt.Errorf("binding %v: incomplete address: %w", t, domain.ErrInvalidRequest)
	}
	if !e.Type.Valid() || e.ID == "" {
		return fmt.Errorf("binding %v: invalid entity %q/%q: %w", t, e.Type, e.ID, domain.ErrInvalidRequest)
	}
	return nil
}
