package session

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/rainwise/internal/common"
)

// Well-known client routes.
const (
	RouteSignIn                  = "/auth/sign-in"
	RouteSignUp                  = "/auth/sign-up"
	RouteConfirmEmailInstruction = "/auth/confirm-email-instruction"
	RouteHome                    = "/"
	RouteAdminUsers              = "/admin/users"
	ReasonExpired                = "expired"
)

// Redirect asks the presentation layer to move to Route.
type Redirect struct {
	Route     string
	Reason    string
	ReturnURL string
	Email     string
}

// Navigator performs redirects requested by the session layer.
type Navigator interface {
	Navigate(ctx context.Context, r Redirect)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, r Redirect)

func (f NavigatorFunc) Navigate(ctx context.Context, r Redirect) { f(ctx, r) }

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, Redirect) {}

// RouteForRole returns the landing route for a role.
func RouteForRole(role string) string {
	switch strings.ToLower(role) {
	case common.RoleAdmin:
		return RouteAdminUsers
	case common.RoleCitizen:
		return RouteHome
	default:
		return RouteHome
	}
}
