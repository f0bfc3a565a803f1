package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/rainwise/internal/client/session"
	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

const routeAdminRoot = "/admin/"

// SessionView is what the guards and the status line read from the
// session manager.
type SessionView interface {
	IsAuthenticated(ctx context.Context) bool
	IsAuthenticatedSilent(ctx context.Context) bool
	CheckTokenValidity(ctx context.Context) bool
	CurrentUser() *models.Identity
	HasRole(role string) bool
	State() session.State
}

// authGuard admits the caller only with a live session and, when roles are
// given, at least one of them. It redirects and returns false otherwise.
// IsAuthenticated may start a background refresh of a stale token.
func authGuard(ctx context.Context, s SessionView, nav session.Navigator, url string, roles ...string) bool {
	if !s.IsAuthenticated(ctx) {
		nav.Navigate(ctx, session.Redirect{Route: session.RouteSignIn, ReturnURL: url})
		return false
	}

	if !s.CheckTokenValidity(ctx) {
		nav.Navigate(ctx, session.Redirect{Route: session.RouteSignIn, ReturnURL: url, Reason: session.ReasonExpired})
		return false
	}

	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if s.HasRole(r) {
			return true
		}
	}

	route := session.RouteSignUp
	if u := s.CurrentUser(); u != nil {
		switch strings.ToLower(u.Role) {
		case common.RoleAdmin:
			route = session.RouteAdminUsers
		case common.RoleCitizen:
			route = session.RouteHome
		}
	}
	nav.Navigate(ctx, session.Redirect{Route: route})
	return false
}

// unauthGuard keeps signed-in users out of the sign-in and sign-up flows.
// It never refreshes or logs out, so an expired session may pass.
func unauthGuard(ctx context.Context, s SessionView, nav session.Navigator) bool {
	if !s.IsAuthenticatedSilent(ctx) {
		return true
	}

	route := session.RouteHome
	if u := s.CurrentUser(); u != nil && strings.EqualFold(u.Role, common.RoleAdmin) {
		route = routeAdminRoot
	}
	nav.Navigate(ctx, session.Redirect{Route: route})
	return false
}
