package app

import (
	"gorm.io/gorm"

	"github.com/vizlake/vizlake-backend/internal/platform/logger"
	"github.com/vizlake/vizlake-backend/internal/services"
)

type Services struct {
	Slug       services.SlugAllocator
	Chart      services.ChartService
	Validation services.ValidationService
}

func wireServices(db *gorm.DB, log *logger.Logger, repos Repos) Services {
	log.Info("Wiring services...")
	slugs := services.NewSlugAllocator(log, repos.Chart)
	return Services{
		Slug:       slugs,
		Chart:      services.NewChartService(db, log, repos.Chart, repos.ChartVersion, repos.ReadModel, repos.Space, slugs),
		Validation: services.NewValidationService(log, repos.ReadModel, repos.ChartVersion),
	}
}
