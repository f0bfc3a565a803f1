// Package models defines the data types shared by the rainwise client,
// its local credential store and the development API server.
package models

import (
	"strings"
	"time"
)

// Identity is the authenticated user as reported by the API.
type Identity struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	CityID *int64 `json:"cityId,omitempty"`
}

// HasRole reports whether the identity carries role, ignoring case.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return strings.EqualFold(i.Role, role)
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.CityID != nil {
		id := *i.CityID
		c.CityID = &id
	}
	return &c
}

// Credential is the access token with its absolute expiry. An empty
// RefreshToken means the credential cannot be refreshed.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ValidAt reports whether the credential is still usable at t with the
// given safety buffer before expiry.
func (c *Credential) ValidAt(t time.Time, buffer time.Duration) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	return c.ExpiresAt.After(t.Add(buffer))
}

// StoredSession is everything the credential store persists.
type StoredSession struct {
	Identity   *Identity
	Credential Credential
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /auth/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is the payload returned by login and refresh.
// ExpiresIn is in seconds; zero means the server did not say.
type AuthResult struct {
	User         Identity `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	ExpiresIn    int64    `json:"expiresIn,omitempty"`
}

// AuthResponse wraps AuthResult the way the API returns it.
type AuthResponse struct {
	Data AuthResult `json:"data"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	CityID   int64  `json:"cityId"`
	Language string `json:"language"`
}

// RegisterResponse is the subset of the registration reply the client uses.
type RegisterResponse struct {
	Message                string `json:"message"`
	ID                     int64  `json:"id"`
	Email                  string `json:"email"`
	Name                   string `json:"name"`
	Role                   string `json:"role"`
	Status                 string `json:"status"`
	EmailConfirmed         bool   `json:"emailConfirmed"`
	EmailConfirmationToken string `json:"emailConfirmationToken,omitempty"`
}

// ConfirmEmailRequest is the body of POST /auth/confirm-email.
type ConfirmEmailRequest struct {
	Token string `json:"token"`
}
