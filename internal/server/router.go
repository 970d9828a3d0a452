package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vizlake/vizlake-backend/internal/handlers"
)

type RouterConfig struct {
	AllowOrigins      []string
	ChartHandler      *handlers.ChartHandler
	ValidationHandler *handlers.ValidationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/projects/:projectId/charts", cfg.ChartHandler.Create)
		api.GET("/projects/:projectId/charts", cfg.ChartHandler.Find)

		api.GET("/charts/:id", cfg.ChartHandler.Get)
		api.GET("/charts/:id/summary", cfg.ChartHandler.GetSummary)
		api.PATCH("/charts/:id", cfg.ChartHandler.Update)
		api.PATCH("/charts", cfg.ChartHandler.UpdateMultiple)
		api.DELETE("/charts/:id", cfg.ChartHandler.Delete)
		api.POST("/charts/:id/move", cfg.ChartHandler.MoveToSpace)
		api.POST("/charts/:id/versions", cfg.ChartHandler.CreateVersion)
		api.GET("/charts/:id/versions/:versionId", cfg.ChartHandler.GetVersionSummary)
		api.GET("/charts/:id/history", cfg.ChartHandler.GetVersionHistory)

		api.GET("/projects/:projectId/validation/charts", cfg.ValidationHandler.FindChartsForValidation)
		api.GET("/projects/:projectId/validation/custom-fields", cfg.ValidationHandler.FindChartsWithCustomFields)
		api.GET("/projects/:projectId/field-usage", cfg.ValidationHandler.GetChartCountPerField)
		api.POST("/validation/references", cfg.ValidationHandler.ExtractReferences)
	}

	return router
}
