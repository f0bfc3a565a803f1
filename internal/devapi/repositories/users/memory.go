package users

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/devapi/models"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Account
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int64]models.Account), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.findByEmail(account.Email); ok {
		return nil, common.ErrorAlreadyExists
	}

	r.nextID++
	a := cloneAccount(*account)
	a.ID = r.nextID
	a.CreatedAt = r.now().UTC()
	a.UpdatedAt = a.CreatedAt
	r.byID[a.ID] = a

	out := cloneAccount(a)
	return &out, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := cloneAccount(a)
	return &out, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.findByEmail(email)
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := cloneAccount(a)
	return &out, nil
}

func (r *MemoryRepository) GetByConfirmationToken(_ context.Context, token string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return nil, common.ErrorNotFound
	}
	for _, a := range r.byID {
		if a.ConfirmationToken == token {
			out := cloneAccount(a)
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) Update(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[account.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if other, ok := r.findByEmail(account.Email); ok && other.ID != account.ID {
		return common.ErrorAlreadyExists
	}

	a := cloneAccount(*account)
	a.CreatedAt = old.CreatedAt
	a.UpdatedAt = r.now().UTC()
	r.byID[a.ID] = a
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, page, pageSize int) ([]models.Account, int, error) {
	r.mu.RLock()
	all := make([]models.Account, 0, len(r.byID))
	for _, a := range r.byID {
		all = append(all, cloneAccount(a))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return all, total, nil
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []models.Account{}, total, nil
	}
	end := min(start+pageSize, total)
	return all[start:end], total, nil
}

// findByEmail expects r.mu to be held.
func (r *MemoryRepository) findByEmail(email string) (models.Account, bool) {
	for _, a := range r.byID {
		if strings.EqualFold(a.Email, email) {
			return a, true
		}
	}
	return models.Account{}, false
}

func cloneAccount(a models.Account) models.Account {
	if a.CityID != nil {
		id := *a.CityID
		a.CityID = &id
	}
	return a
}
