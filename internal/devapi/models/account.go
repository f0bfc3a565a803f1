// Package models holds the records the development API keeps in memory.
// Wire types shared with the client live in internal/models.
package models

import (
	"time"

	"github.com/dmitrijs2005/rainwise/internal/models"
)

// Account is a user together with its secrets. The embedded User is what
// leaves the server.
type Account struct {
	models.User
	PasswordHash      string
	ConfirmationToken string
}

type RefreshToken struct {
	UserID    int64
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
