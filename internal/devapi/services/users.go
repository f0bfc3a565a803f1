// Package services contains the business logic of the development API.
// This file implements UserService: registration, email confirmation,
// login, token refresh and the admin view of accounts.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/cryptox"
	"github.com/dmitrijs2005/rainwise/internal/devapi/auth"
	"github.com/dmitrijs2005/rainwise/internal/devapi/config"
	"github.com/dmitrijs2005/rainwise/internal/devapi/models"
	"github.com/dmitrijs2005/rainwise/internal/devapi/repositories/refreshtokens"
	"github.com/dmitrijs2005/rainwise/internal/devapi/repositories/users"
	shared "github.com/dmitrijs2005/rainwise/internal/models"
)

// Account statuses.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

const minPasswordLength = 6

// CityChecker is satisfied by the cities table.
type CityChecker interface {
	Exists(ctx context.Context, id int64) bool
}

// Session is what login and refresh hand back to the client.
type Session struct {
	Account      *models.Account
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type UserService struct {
	users         users.Repository
	refreshTokens refreshtokens.Repository
	cities        CityChecker
	jwtSecret     []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	// dummyHash is verified against when the email is unknown so a failed
	// login costs the same either way.
	dummyHash string
}

func NewUserService(u users.Repository, rt refreshtokens.Repository, cities CityChecker, cfg *config.Config) *UserService {
	return &UserService{
		users:         u,
		refreshTokens: rt,
		cities:        cities,
		jwtSecret:     []byte(cfg.SecretKey),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		dummyHash:     cryptox.HashPassword([]byte("not-a-real-password")),
	}
}

// Register creates a citizen account waiting for email confirmation.
// Validation failures wrap common.ErrorValidation; a taken email is
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, req shared.RegisterRequest) (*models.Account, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		return nil, fmt.Errorf("%w: name must have at least 2 characters", common.ErrorValidation)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", common.ErrorValidation, minPasswordLength)
	}
	if req.CityID < 1 || !s.cities.Exists(ctx, req.CityID) {
		return nil, fmt.Errorf("%w: unknown city %d", common.ErrorValidation, req.CityID)
	}
	lang, err := parseLanguage(req.Language)
	if err != nil {
		return nil, err
	}

	token, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, common.ErrorInternal
	}
	cityID := req.CityID
	account := &models.Account{
		User: shared.User{
			Email:    email,
			Name:     name,
			Role:     common.RoleCitizen,
			Status:   StatusPending,
			Language: lang,
			CityID:   &cityID,
		},
		PasswordHash:      cryptox.HashPassword([]byte(req.Password)),
		ConfirmationToken: token,
	}

	created, err := s.users.Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return created, nil
}

// ConfirmEmail activates the account holding token. Tokens are single use.
func (s *UserService) ConfirmEmail(ctx context.Context, token string) error {
	account, err := s.users.GetByConfirmationToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return common.ErrorInternal
	}

	account.EmailConfirmed = true
	account.ConfirmationToken = ""
	account.Status = StatusActive
	if err := s.users.Update(ctx, account); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// Login verifies the password and returns a new session. Unknown emails
// and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.VerifyPassword(s.dummyHash, []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword(account.PasswordHash, []byte(password))
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	if !account.EmailConfirmed {
		return nil, common.ErrEmailNotConfirmed
	}

	return s.newSession(ctx, account)
}

// RefreshToken mints a new access token for a stored refresh token. The
// refresh token itself is returned unchanged.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	token, err := s.refreshTokens.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		_ = s.refreshTokens.Delete(ctx, refreshToken)
		return nil, common.ErrRefreshTokenExpired
	}

	account, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	access, err := s.generateAccessToken(account)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{Account: account, AccessToken: access, RefreshToken: refreshToken, ExpiresIn: s.accessTTL}, nil
}

// Logout revokes refreshToken. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.refreshTokens.Delete(ctx, refreshToken)
}

// EnsureAdmin creates a confirmed admin account unless email is taken.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.Account, error) {
	if existing, err := s.users.GetByEmail(ctx, email); err == nil {
		return existing, nil
	}
	return s.users.Create(ctx, &models.Account{
		User: shared.User{
			Email:          email,
			Name:           name,
			Role:           common.RoleAdmin,
			Status:         StatusActive,
			Language:       shared.LanguageEN,
			EmailConfirmed: true,
		},
		PasswordHash: cryptox.HashPassword([]byte(password)),
	})
}

func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) ([]shared.User, int, error) {
	accounts, total, err := s.users.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, common.ErrorInternal
	}
	out := make([]shared.User, len(accounts))
	for i := range accounts {
		out[i] = accounts[i].User
	}
	return out, total, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*shared.User, error) {
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &account.User, nil
}

// UserUpdate carries the fields an admin may change. Nil means unchanged.
type UserUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Role   *string `json:"role,omitempty"`
	Status *string `json:"status,omitempty"`
	CityID *int64  `json:"cityId,omitempty"`
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*shared.User, error) {
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
		}
		account.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		account.Email = email
	}
	if upd.Role != nil {
		role := strings.ToLower(*upd.Role)
		if role != common.RoleAdmin && role != common.RoleCitizen {
			return nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, *upd.Role)
		}
		account.Role = role
	}
	if upd.Status != nil {
		account.Status = *upd.Status
	}
	if upd.CityID != nil {
		if !s.cities.Exists(ctx, *upd.CityID) {
			return nil, fmt.Errorf("%w: unknown city %d", common.ErrorValidation, *upd.CityID)
		}
		cityID := *upd.CityID
		account.CityID = &cityID
	}

	if err := s.users.Update(ctx, account); err != nil {
		return nil, err
	}
	return &account.User, nil
}

// DeleteUser removes the account and revokes its refresh tokens.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	return s.refreshTokens.DeleteByUser(ctx, id)
}

// --- helpers below ---

func (s *UserService) generateAccessToken(a *models.Account) (string, error) {
	return auth.GenerateToken(a.ID, a.Role, s.jwtSecret, s.accessTTL)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) newSession(ctx context.Context, a *models.Account) (*Session, error) {
	access, err := s.generateAccessToken(a)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.refreshTokens.Create(ctx, a.ID, refresh, s.refreshTTL); err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{Account: a, AccessToken: access, RefreshToken: refresh, ExpiresIn: s.accessTTL}, nil
}

func normalizeEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil || addr.Name != "" {
		return "", fmt.Errorf("%w: invalid email %q", common.ErrorValidation, s)
	}
	return strings.ToLower(addr.Address), nil
}

func parseLanguage(s string) (shared.Language, error) {
	switch shared.Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", shared.LanguageEN:
		return shared.LanguageEN, nil
	case shared.LanguageES:
		return shared.LanguageES, nil
	default:
		return "", fmt.Errorf("%w: unsupported language %q", common.ErrorValidation, s)
	}
}
