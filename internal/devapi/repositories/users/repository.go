// Package users stores accounts of the development API.
package users

import (
	"context"

	"github.com/dmitrijs2005/rainwise/internal/devapi/models"
)

// Repository returns copies; callers change an account through Update.
// Lookups of missing accounts return common.ErrorNotFound.
type Repository interface {
	// Create assigns ID and timestamps. Emails are unique ignoring case.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByConfirmationToken(ctx context.Context, token string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id int64) error
	// List returns one page ordered by ID and the total number of accounts.
	List(ctx context.Context, page, pageSize int) ([]models.Account, int, error)
}
