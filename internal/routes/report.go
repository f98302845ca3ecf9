package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/handlers"
)

type ReportRoutes struct {
	handler *handlers.ReportHandler
	guards  Guards
}

func NewReportRoutes(handler *handlers.ReportHandler, guards Guards) *ReportRoutes {
	return &ReportRoutes{handler: handler, guards: guards}
}

func (r *ReportRoutes) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	reports.Use(r.guards.Authenticate)
	{
		reports.GET("", r.handler.ExportAll)
		reports.GET("/summary", r.handler.Summary)
		reports.GET("/tables/:table", r.handler.ExportTable)
	}
}
