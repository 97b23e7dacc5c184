package ports

import (
	"context"

	"github.com/citydirectory/directory-core/internal/core/domain"
)

// SlugResolver maps an address to its entity and canonical address.
type SlugResolver interface {
	// Resolve returns domain.ErrNotFound when the triple names nothing and
	// domain.ErrUnavailable when the lookup itself failed.
	Resolve(ctx context.Context, t domain.Triple) (domain.ResolutionResult, error)
}

// NavigationRequest is the URL a visitor asked for, split into its parts.
type NavigationRequest struct {
	Triple   domain.Triple
	Query    string // raw query without the leading '?'
	Fragment string // without the leading '#'
}

// RouteAction is what the HTTP layer should do with a request.
type RouteAction string

const (
	RouteServe    RouteAction = "serve"
	RouteRedirect RouteAction = "redirect"
)

// RouteDecision is the gateway's answer. Location is set only for redirects.
type RouteDecision struct {
	Action   RouteAction
	Location string
	Result   domain.ResolutionResult
}

// RoutingGateway turns resolutions into serve or redirect decisions.
type RoutingGateway interface {
	Route(current NavigationRequest, result domain.ResolutionResult) RouteDecision
	Navigate(ctx context.Context, req NavigationRequest) (RouteDecision, error)
}
