package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/rainwise/internal/client/client"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

// Resource is CRUD over one API collection.
type Resource[T any] struct {
	api  *client.HTTPClient
	path string
}

func NewResource[T any](api *client.HTTPClient, path string) Resource[T] {
	return Resource[T]{api: api, path: path}
}

func (r Resource[T]) List(ctx context.Context, p client.ListParams) (*models.ListResponse[T], error) {
	return client.List[T](ctx, r.api, r.path, p.Values())
}

func (r Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	return client.Get[T](ctx, r.api, client.ItemPath(r.path, id))
}

func (r Resource[T]) Create(ctx context.Context, in any) (*T, error) {
	return client.Create[T](ctx, r.api, r.path, in)
}

func (r Resource[T]) Update(ctx context.Context, id int64, in any) (*T, error) {
	return client.Update[T](ctx, r.api, client.ItemPath(r.path, id), in)
}

func (r Resource[T]) Delete(ctx context.Context, id int64) (string, error) {
	return client.Delete(ctx, r.api, client.ItemPath(r.path, id))
}

// CityInput is the create/update body of a city.
type CityInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Rainfall    float64         `json:"rainfall,omitempty"`
	Language    models.Language `json:"language,omitempty"`
}

// GuideInput is the create/update body of a guide.
type GuideInput struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Difficulty        models.Difficulty `json:"difficulty"`
	EstimatedDuration int               `json:"estimatedDuration"`
	Status            models.Status     `json:"status,omitempty"`
	Language          models.Language   `json:"language"`
	TotalPoints       int               `json:"totalPoints"`
}

// ModuleInput is the create/update body of a module.
type ModuleInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Order       int           `json:"order"`
	Points      int           `json:"points"`
	Status      models.Status `json:"status,omitempty"`
	GuideID     int64         `json:"guideId"`
}

// QuestionInput is the create/update body of a question.
type QuestionInput struct {
	BlockType    string `json:"blockType"`
	Statement    string `json:"statement"`
	Description  string `json:"description,omitempty"`
	ResourceURL  string `json:"resourceUrl,omitempty"`
	DynamicType  string `json:"dynamicType"`
	QuestionType string `json:"questionType"`
	Feedback     string `json:"feedback"`
	ModuleID     int64  `json:"moduleId"`
}

// CatalogService groups the content collections. Cities are public; the
// rest require a session and some require the admin role.
type CatalogService struct {
	Cities    Resource[models.City]
	Guides    Resource[models.Guide]
	Modules   Resource[models.Module]
	Questions Resource[models.Question]
	Users     Resource[models.User]
}

func NewCatalogService(api *client.HTTPClient) *CatalogService {
	return &CatalogService{
		Cities:    NewResource[models.City](api, "/cities"),
		Guides:    NewResource[models.Guide](api, "/guides"),
		Modules:   NewResource[models.Module](api, "/modules"),
		Questions: NewResource[models.Question](api, "/questions"),
		Users:     NewResource[models.User](api, "/users"),
	}
}

// ListUsers pages users; this endpoint takes pageSize instead of limit.
func (s *CatalogService) ListUsers(ctx context.Context, page, pageSize int) (*models.ListResponse[models.User], error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	return client.List[models.User](ctx, s.Users.api, s.Users.path, q)
}
