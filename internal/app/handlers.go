package app

import (
	"github.com/vizlake/vizlake-backend/internal/handlers"
	"github.com/vizlake/vizlake-backend/internal/platform/logger"
)

type Handlers struct {
	Chart      *handlers.ChartHandler
	Validation *handlers.ValidationHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Chart:      handlers.NewChartHandler(services.Chart),
		Validation: handlers.NewValidationHandler(services.Validation),
	}
}
