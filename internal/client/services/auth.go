// Package services contains the application services used by the CLI:
// authentication, the catalog of learning content and the water
// harvesting calculator.
package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/rainwise/internal/client/session"
	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

// Session is the part of session.Manager the auth service drives.
type Session interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Logout(ctx context.Context)
	CurrentUser() *models.Identity
}

// AccountAPI covers the unauthenticated account endpoints.
type AccountAPI interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
	ConfirmEmail(ctx context.Context, token string) error
	Ping(ctx context.Context) error
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate and establish the session.
//   - Logout: end the session locally.
//   - Register: create an account; the user must confirm the email before
//     signing in.
//   - ConfirmEmail: redeem the confirmation token, then go to sign-in.
//   - WhoAmI: the current identity, or nil.
//   - Ping: check API liveness.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.Identity, error)
	Logout(ctx context.Context)
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
	ConfirmEmail(ctx context.Context, token string) error
	WhoAmI() *models.Identity
	Ping(ctx context.Context) error
}

type authService struct {
	s   Session
	api AccountAPI
	nav session.Navigator
}

// NewAuthService binds the service to the session manager, the account API
// and the navigator used after registration.
func NewAuthService(s Session, api AccountAPI, nav session.Navigator) AuthService {
	if nav == nil {
		nav = session.NavigatorFunc(func(context.Context, session.Redirect) {})
	}
	return &authService{s: s, api: api, nav: nav}
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}
	res, err := a.s.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	id := res.User
	return &id, nil
}

func (a *authService) Logout(ctx context.Context) {
	a.s.Logout(ctx)
}

func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: name and password are required", common.ErrorValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", common.ErrorValidation, req.Email)
	}
	switch models.Language(req.Language) {
	case models.LanguageEN, models.LanguageES:
	case "":
		req.Language = string(models.LanguageES)
	default:
		return nil, fmt.Errorf("%w: unsupported language %q", common.ErrorValidation, req.Language)
	}

	res, err := a.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	a.nav.Navigate(ctx, session.Redirect{Route: session.RouteConfirmEmailInstruction, Email: res.Email})
	return res, nil
}

func (a *authService) ConfirmEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", common.ErrorValidation)
	}
	if err := a.api.ConfirmEmail(ctx, token); err != nil {
		return err
	}
	a.nav.Navigate(ctx, session.Redirect{Route: session.RouteSignIn})
	return nil
}

func (a *authService) WhoAmI() *models.Identity {
	return a.s.CurrentUser()
}

func (a *authService) Ping(ctx context.Context) error {
	return a.api.Ping(ctx)
}
