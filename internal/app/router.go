package app

import (
	"github.com/gin-gonic/gin"

	"github.com/vizlake/vizlake-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowOrigins:      cfg.AllowOrigins,
		ChartHandler:      handlers.Chart,
		ValidationHandler: handlers.Validation,
	})
}
