package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/devapi/repositories/catalog"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

// ErrInUse is returned when deleting a record other records point to.
var ErrInUse = errors.New("still referenced")

// Input validates a request body and copies it onto a record.
type Input[T any] interface {
	Validate(ctx context.Context, store *catalog.Store) error
	Apply(rec *T)
}

// Collection is validated CRUD over one catalog table.
type Collection[T any, I Input[T]] struct {
	table *catalog.Table[T]
	store *catalog.Store
	inUse func(ctx context.Context, id int64) bool
}

func (c Collection[T, I]) List(ctx context.Context, q catalog.Query) ([]T, int, error) {
	return c.table.List(ctx, q)
}

func (c Collection[T, I]) Get(ctx context.Context, id int64) (T, error) {
	return c.table.Get(ctx, id)
}

func (c Collection[T, I]) Create(ctx context.Context, in I) (T, error) {
	var rec T
	if err := in.Validate(ctx, c.store); err != nil {
		return rec, err
	}
	in.Apply(&rec)
	return c.table.Create(ctx, rec)
}

func (c Collection[T, I]) Update(ctx context.Context, id int64, in I) (T, error) {
	rec, err := c.table.Get(ctx, id)
	if err != nil {
		return rec, err
	}
	if err := in.Validate(ctx, c.store); err != nil {
		return rec, err
	}
	in.Apply(&rec)
	return c.table.Update(ctx, id, rec)
}

func (c Collection[T, I]) Delete(ctx context.Context, id int64) error {
	if c.inUse != nil && c.inUse(ctx, id) {
		return ErrInUse
	}
	return c.table.Delete(ctx, id)
}

// CatalogService exposes the content collections.
type CatalogService struct {
	Cities    Collection[models.City, CityInput]
	Guides    Collection[models.Guide, GuideInput]
	Modules   Collection[models.Module, ModuleInput]
	Questions Collection[models.Question, QuestionInput]
}

func NewCatalogService(store *catalog.Store) *CatalogService {
	return &CatalogService{
		Cities: Collection[models.City, CityInput]{table: store.Cities, store: store},
		Guides: Collection[models.Guide, GuideInput]{
			table: store.Guides,
			store: store,
			inUse: func(ctx context.Context, id int64) bool {
				return hasAny(ctx, store.Modules, "guideId", id)
			},
		},
		Modules: Collection[models.Module, ModuleInput]{
			table: store.Modules,
			store: store,
			inUse: func(ctx context.Context, id int64) bool {
				return hasAny(ctx, store.Questions, "moduleId", id)
			},
		},
		Questions: Collection[models.Question, QuestionInput]{table: store.Questions, store: store},
	}
}

func hasAny[T any](ctx context.Context, t *catalog.Table[T], field string, id int64) bool {
	_, n, err := t.List(ctx, catalog.Query{Limit: 1, Filters: map[string]string{field: fmt.Sprint(id)}})
	return err == nil && n > 0
}

type CityInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Rainfall    float64         `json:"rainfall,omitempty"`
	Language    models.Language `json:"language,omitempty"`
}

func (in CityInput) Validate(context.Context, *catalog.Store) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if in.Rainfall < 0 {
		return invalid("rainfall must not be negative")
	}
	if in.Language != "" {
		return checkLanguage(in.Language)
	}
	return nil
}

func (in CityInput) Apply(c *models.City) {
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	c.Rainfall = in.Rainfall
	c.Language = in.Language
}

type GuideInput struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Difficulty        models.Difficulty `json:"difficulty"`
	EstimatedDuration int               `json:"estimatedDuration"`
	Status            models.Status     `json:"status,omitempty"`
	Language          models.Language   `json:"language"`
	TotalPoints       int               `json:"totalPoints"`
}

func (in GuideInput) Validate(context.Context, *catalog.Store) error {
	switch {
	case len(strings.TrimSpace(in.Name)) < 3:
		return invalid("name must have at least 3 characters")
	case len(strings.TrimSpace(in.Description)) < 10:
		return invalid("description must have at least 10 characters")
	case in.EstimatedDuration < 1:
		return invalid("estimated duration must be at least 1")
	case in.TotalPoints < 0:
		return invalid("points must not be negative")
	}
	switch in.Difficulty {
	case models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced:
	default:
		return invalid(fmt.Sprintf("unknown difficulty %q", in.Difficulty))
	}
	if err := checkStatus(in.Status); err != nil {
		return err
	}
	return checkLanguage(in.Language)
}

func (in GuideInput) Apply(g *models.Guide) {
	g.Name = strings.TrimSpace(in.Name)
	g.Description = in.Description
	g.Difficulty = in.Difficulty
	g.EstimatedDuration = in.EstimatedDuration
	g.Status = defaultStatus(in.Status)
	g.Language = in.Language
	g.Points = in.TotalPoints
}

type ModuleInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Order       int           `json:"order"`
	Points      int           `json:"points"`
	Status      models.Status `json:"status,omitempty"`
	GuideID     int64         `json:"guideId"`
}

func (in ModuleInput) Validate(ctx context.Context, store *catalog.Store) error {
	switch {
	case len(strings.TrimSpace(in.Name)) < 3:
		return invalid("name must have at least 3 characters")
	case len(strings.TrimSpace(in.Description)) < 10:
		return invalid("description must have at least 10 characters")
	case in.Order < 1:
		return invalid("order must be at least 1")
	case in.Points < 0:
		return invalid("points must not be negative")
	case !store.Guides.Exists(ctx, in.GuideID):
		return invalid(fmt.Sprintf("unknown guide %d", in.GuideID))
	}
	return checkStatus(in.Status)
}

func (in ModuleInput) Apply(m *models.Module) {
	m.Name = strings.TrimSpace(in.Name)
	m.Description = in.Description
	m.Order = in.Order
	m.Points = in.Points
	m.Status = defaultStatus(in.Status)
	m.GuideID = in.GuideID
}

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

var (
	blockTypes    = []string{"text", "video", "image", "question"}
	dynamicTypes  = []string{"multiple_choice", "single_answer", "drag_and_drop", "text_input", "video_resource"}
	questionTypes = []string{"knowledge_check", "practice", "assessment", "reflection"}
)

func (in QuestionInput) Validate(ctx context.Context, store *catalog.Store) error {
	switch {
	case !slices.Contains(blockTypes, in.BlockType):
		return invalid(fmt.Sprintf("unknown block type %q", in.BlockType))
	case len(strings.TrimSpace(in.Statement)) < 5:
		return invalid("statement must have at least 5 characters")
	case !slices.Contains(dynamicTypes, in.DynamicType):
		return invalid(fmt.Sprintf("unknown dynamic type %q", in.DynamicType))
	case !slices.Contains(questionTypes, in.QuestionType):
		return invalid(fmt.Sprintf("unknown question type %q", in.QuestionType))
	case len(strings.TrimSpace(in.Feedback)) < 10:
		return invalid("feedback must have at least 10 characters")
	case !store.Modules.Exists(ctx, in.ModuleID):
		return invalid(fmt.Sprintf("unknown module %d", in.ModuleID))
	}
	return nil
}

func (in QuestionInput) Apply(q *models.Question) {
	q.BlockType = in.BlockType
	q.Statement = strings.TrimSpace(in.Statement)
	q.Description = in.Description
	q.ResourceURL = in.ResourceURL
	q.DynamicType = in.DynamicType
	q.QuestionType = in.QuestionType
	q.Feedback = in.Feedback
	q.ModuleID = in.ModuleID
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
}

func checkLanguage(l models.Language) error {
	if l != models.LanguageEN && l != models.LanguageES {
		return invalid(fmt.Sprintf("unsupported language %q", l))
	}
	return nil
}

func checkStatus(s models.Status) error {
	switch s {
	case "", models.StatusDraft, models.StatusPublished, models.StatusArchived:
		return nil
	}
	return invalid(fmt.Sprintf("unknown status %q", s))
}

func defaultStatus(s models.Status) models.Status {
	if s == "" {
		return models.StatusDraft
	}
	return s
}
