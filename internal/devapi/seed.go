package devapi

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/rainwise/internal/devapi/config"
	"github.com/dmitrijs2005/rainwise/internal/devapi/services"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

// seedCities are loaded on start so registration has something to pick.
// Rainfall is annual, in millimetres.
var seedCities = []services.CityInput{
	{Name: "Bogotá", Rainfall: 1013, Language: models.LanguageES, Description: "Andean capital with two rainy seasons"},
	{Name: "Ciudad de México", Rainfall: 820, Language: models.LanguageES, Description: "Summer monsoon, dry winters"},
	{Name: "Lima", Rainfall: 16, Language: models.LanguageES, Description: "Coastal desert, fog rather than rain"},
	{Name: "Madrid", Rainfall: 421, Language: models.LanguageES},
	{Name: "Seattle", Rainfall: 955, Language: models.LanguageEN},
}

// seed creates the admin account, the cities and one sample guide.
func seed(ctx context.Context, cfg *config.Config, users *services.UserService, catalog *services.CatalogService) error {
	if _, err := users.EnsureAdmin(ctx, "Administrator", cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	for _, c := range seedCities {
		if _, err := catalog.Cities.Create(ctx, c); err != nil {
			return fmt.Errorf("seed city %s: %w", c.Name, err)
		}
	}

	g, err := catalog.Guides.Create(ctx, services.GuideInput{
		Name:              "Rain barrel basics",
		Description:       "Set up a first barrel under a downspout",
		Difficulty:        models.DifficultyBeginner,
		EstimatedDuration: 30,
		Status:            models.StatusPublished,
		Language:          models.LanguageEN,
		TotalPoints:       100,
	})
	if err != nil {
		return fmt.Errorf("seed guide: %w", err)
	}
	m, err := catalog.Modules.Create(ctx, services.ModuleInput{
		Name:        "Choosing a spot",
		Description: "Find a downspout that drains a large roof area",
		Order:       1,
		Points:      40,
		Status:      models.StatusPublished,
		GuideID:     g.ID,
	})
	if err != nil {
		return fmt.Errorf("seed module: %w", err)
	}
	_, err = catalog.Questions.Create(ctx, services.QuestionInput{
		BlockType:    "question",
		Statement:    "Which roof area collects more water?",
		DynamicType:  "single_answer",
		QuestionType: "knowledge_check",
		Feedback:     "Larger catchment areas collect proportionally more rain",
		ModuleID:     m.ID,
	})
	if err != nil {
		return fmt.Errorf("seed question: %w", err)
	}
	return nil
}
