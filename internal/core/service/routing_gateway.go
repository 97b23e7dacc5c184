package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/citydirectory/directory-core/internal/api/metrics"
	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/ports"
)

// RoutingGateway decides between serving a request in place and redirecting
// it to the canonical address. It keeps no per-session state; the
// identical-path check in Route is the only loop guard.
type RoutingGateway struct {
	resolver ports.SlugResolver
	log      zerolog.Logger
}

// NewRoutingGateway returns a gateway resolving through resolver.
func NewRoutingGateway(resolver ports.SlugResolver, log zerolog.Logger) *RoutingGateway {
	return &RoutingGateway{resolver: resolver, log: log}
}

// Navigate resolves req once and routes the result. Resolution errors are
// returned unchanged; there are no retries.
func (g *RoutingGateway) Navigate(ctx context.Context, req ports.NavigationRequest) (ports.RouteDecision, error) {
	result, err := g.resolver.Resolve(ctx, req.Triple)
	if err != nil {
		return ports.RouteDecision{}, err
	}
	return g.Route(req, result), nil
}

// Route turns result into a decision for the current request. The query and
// fragment of current are carried over to the redirect target, and a target
// byte-identical to the current path is served instead of redirected.
func (g *RoutingGateway) Route(current ports.NavigationRequest, result domain.ResolutionResult) ports.RouteDecision {
	serve := ports.RouteDecision{Action: ports.RouteServe, Result: result}
	if !result.NeedsRedirect {
		return serve
	}

	currentPath := ComposePath(current.Triple, current.Query, current.Fragment)
	target := ComposePath(result.Canonical, current.Query, current.Fragment)
	if target == currentPath {
		metrics.LoopGuardServesTotal.Inc()
		g.log.Debug().Str("path", currentPath).Msg("redirect target equals current path, serving")
		return serve
	}

	return ports.RouteDecision{Action: ports.RouteRedirect, Location: target, Result: result}
}

// ComposePath renders /{lang}/{site}/{slug}[?query][#fragment] with each
// path segment escaped.
func ComposePath(t domain.Triple, query, fragment string) string {
	var b strings.Builder
	for _, seg := range []string{t.Lang, t.SiteKey, t.Slug} {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	if query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}
	if fragment != "" {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String()
}
