package models

import "time"

// Language of catalog content.
type Language string

const (
	LanguageEN Language = "en"
	LanguageES Language = "es"
)

// Status is the publication state shared by guides and modules.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type City struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Rainfall    float64   `json:"rainfall,omitempty"`
	Language    Language  `json:"language,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Guide struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Difficulty        Difficulty `json:"difficulty"`
	EstimatedDuration int        `json:"estimatedDuration"`
	Status            Status     `json:"status"`
	Language          Language   `json:"language"`
	Points            int        `json:"points"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type Module struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Order       int       `json:"order"`
	Points      int       `json:"points"`
	Status      Status    `json:"status"`
	GuideID     int64     `json:"guideId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Question struct {
	ID           int64     `json:"id"`
	BlockType    string    `json:"blockType"`
	Statement    string    `json:"statement"`
	Description  string    `json:"description,omitempty"`
	ResourceURL  string    `json:"resourceUrl,omitempty"`
	DynamicType  string    `json:"dynamicType"`
	QuestionType string    `json:"questionType"`
	Feedback     string    `json:"feedback"`
	ModuleID     int64     `json:"moduleId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// User is the admin view of an account.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	Language       Language  `json:"language,omitempty"`
	CityID         *int64    `json:"cityId,omitempty"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Identity returns the session view of the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CityID: u.CityID}
}
