package catalog

import (
	"time"

	"github.com/dmitrijs2005/rainwise/internal/models"
)

// Store groups the content tables.
type Store struct {
	Cities    *Table[models.City]
	Guides    *Table[models.Guide]
	Modules   *Table[models.Module]
	Questions *Table[models.Question]
}

func NewStore() *Store {
	return &Store{
		Cities:    NewTable(citySchema),
		Guides:    NewTable(guideSchema),
		Modules:   NewTable(moduleSchema),
		Questions: NewTable(questionSchema),
	}
}

var citySchema = Schema[models.City]{
	ID:      func(c *models.City) *int64 { return &c.ID },
	Created: func(c *models.City) time.Time { return c.CreatedAt },
	Stamp: func(c *models.City, created, updated time.Time) {
		c.CreatedAt, c.UpdatedAt = created, updated
	},
	Field: func(c *models.City, name string) (any, bool) {
		switch name {
		case "id":
			return c.ID, true
		case "name":
			return c.Name, true
		case "description":
			return c.Description, true
		case "rainfall":
			return c.Rainfall, true
		case "language":
			return string(c.Language), true
		case "createdAt":
			return c.CreatedAt, true
		case "updatedAt":
			return c.UpdatedAt, true
		}
		return nil, false
	},
	Search: []string{"name", "description"},
}

var guideSchema = Schema[models.Guide]{
	ID:      func(g *models.Guide) *int64 { return &g.ID },
	Created: func(g *models.Guide) time.Time { return g.CreatedAt },
	Stamp: func(g *models.Guide, created, updated time.Time) {
		g.CreatedAt, g.UpdatedAt = created, updated
	},
	Field: func(g *models.Guide, name string) (any, bool) {
		switch name {
		case "id":
			return g.ID, true
		case "name":
			return g.Name, true
		case "description":
			return g.Description, true
		case "difficulty":
			return string(g.Difficulty), true
		case "estimatedDuration":
			return g.EstimatedDuration, true
		case "status":
			return string(g.Status), true
		case "language":
			return string(g.Language), true
		case "points", "totalPoints":
			return g.Points, true
		case "createdAt":
			return g.CreatedAt, true
		case "updatedAt":
			return g.UpdatedAt, true
		}
		return nil, false
	},
	Search: []string{"name", "description"},
}

var moduleSchema = Schema[models.Module]{
	ID:      func(m *models.Module) *int64 { return &m.ID },
	Created: func(m *models.Module) time.Time { return m.CreatedAt },
	Stamp: func(m *models.Module, created, updated time.Time) {
		m.CreatedAt, m.UpdatedAt = created, updated
	},
	Field: func(m *models.Module, name string) (any, bool) {
		switch name {
		case "id":
			return m.ID, true
		case "name":
			return m.Name, true
		case "description":
			return m.Description, true
		case "order":
			return m.Order, true
		case "points":
			return m.Points, true
		case "status":
			return string(m.Status), true
		case "guideId":
			return m.GuideID, true
		case "createdAt":
			return m.CreatedAt, true
		case "updatedAt":
			return m.UpdatedAt, true
		}
		return nil, false
	},
	Search: []string{"name", "description"},
}

var questionSchema = Schema[models.Question]{
	ID:      func(q *models.Question) *int64 { return &q.ID },
	Created: func(q *models.Question) time.Time { return q.CreatedAt },
	Stamp: func(q *models.Question, created, updated time.Time) {
		q.CreatedAt, q.UpdatedAt = created, updated
	},
	Field: func(q *models.Question, name string) (any, bool) {
		switch name {
		case "id":
			return q.ID, true
		case "blockType":
			return q.BlockType, true
		case "statement":
			return q.Statement, true
		case "description":
			return q.Description, true
		case "feedback":
			return q.Feedback, true
		case "dynamicType":
			return q.DynamicType, true
		case "questionType":
			return q.QuestionType, true
		case "moduleId":
			return q.ModuleID, true
		case "createdAt":
			return q.CreatedAt, true
		case "updatedAt":
			return q.UpdatedAt, true
		}
		return nil, false
	},
	Search: []string{"statement", "description", "feedback"},
}
