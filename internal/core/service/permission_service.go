package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/citydirectory/directory-core/internal/api/metrics"
	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/ports"
)

type permissionService struct {
	memberships ports.MembershipRepository
	resolver    *PermissionResolver
	log         zerolog.Logger
}

// NewPermissionService returns a PermissionService that loads grants on every
// call. Decisions are never cached.
func NewPermissionService(memberships ports.MembershipRepository, log zerolog.Logger) ports.PermissionService {
	return &permissionService{
		memberships: memberships,
		resolver:    NewPermissionResolver(),
		log:         log,
	}
}

// CheckPermission loads the user's grants and evaluates the request. The
// decision is logged for the audit trail.
func (s *permissionService) CheckPermission(ctx context.Context, in ports.PermissionCheckInput) (domain.EffectivePermission, error) {
	need := in.RequiredRole
	if need == 0 {
		role, ok := in.Action.RequiredRole()
		if !ok {
			return domain.EffectivePermission{}, fmt.Errorf("check permission: unknown action %q: %w", in.Action, domain.ErrInvalidRequest)
		}
		need = role
	}

	grants, err := s.memberships.LoadMemberships(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidRequest) {
			return domain.EffectivePermission{}, fmt.Errorf("check permission: %w", err)
		}
		return domain.EffectivePermission{}, fmt.Errorf("check permission: load memberships: %w: %w", domain.ErrUnavailable, err)
	}

	perm, err := s.resolver.Check(grants, domain.PermissionRequest{
		Action:       in.Action,
		RequiredRole: need,
		SiteID:       in.SiteID,
		PlaceID:      in.PlaceID,
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", in.UserID).Str("action", string(in.Action)).Msg("malformed permission check")
		return domain.EffectivePermission{}, err
	}

	metrics.PermissionChecksTotal.WithLabelValues(string(perm.WinningScope), fmt.Sprint(perm.Allowed)).Inc()
	s.log.Info().
		Str("user_id", in.UserID).
		Str("action", string(in.Action)).
		Str("required_role", need.String()).
		Str("site_id", in.SiteID).
		Str("place_id", in.PlaceID).
		Bool("allowed", perm.Allowed).
		Str("scope", string(perm.WinningScope)).
		Msg("permission decision")

	return perm, nil
}
