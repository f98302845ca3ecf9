package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/handlers"
)

type TableRoutes struct {
	tableHandler *handlers.TableHandler
	guards       Guards
}

func NewTableRoutes(tableHandler *handlers.TableHandler, guards Guards) *TableRoutes {
	return &TableRoutes{
		tableHandler: tableHandler,
		guards:       guards,
	}
}

func (r *TableRoutes) RegisterRoutes(router *gin.RouterGroup) {
	tables := router.Group("/tables")
	tables.Use(r.guards.Authenticate)
	{
		tables.POST("", r.guards.RequireAdmin, r.tableHandler.CreateTable)
		tables.GET("", r.guards.RequireAdmin, r.tableHandler.ListTables)

		tables.GET("/:table/columns", r.tableHandler.GetColumns)
		tables.POST("/:table/rows", r.tableHandler.InsertRow)
		tables.GET("/:table/submissions", r.tableHandler.ListSubmissions)
	}

	router.GET("/submissions", r.guards.Authenticate, r.tableHandler.ListAllSubmissions)
}
