package app

import (
	"gorm.io/gorm"

	"github.com/vizlake/vizlake-backend/internal/data/repos/charts"
	"github.com/vizlake/vizlake-backend/internal/data/repos/spaces"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

type Repos struct {
	Chart        charts.ChartRepo
	ChartVersion charts.ChartVersionRepo
	ReadModel    charts.ChartReadModelRepo
	Space        spaces.SpaceRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Chart:        charts.NewChartRepo(db, log),
		ChartVersion: charts.NewChartVersionRepo(db, log),
		ReadModel:    charts.NewChartReadModelRepo(db, log),
		Space:        spaces.NewSpaceRepo(db, log),
	}
}
