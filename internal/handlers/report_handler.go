package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/middlewares"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/reports"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/responses"
	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ExportAll handles GET /api/v1/reports?format=json|csv|text
func (h *ReportHandler) ExportAll(c *gin.Context) {
	username, format, ok := h.prepare(c)
	if !ok {
		return
	}

	blocks, err := h.reportService.ExportAll(c.Request.Context(), username)
	if err != nil {
		responses.Error(c, err)
		return
	}

	if format == reports.FormatJSON {
		responses.Success(c, http.StatusOK, gin.H{"tables": blocks}, "Report generated successfully")
		return
	}
	h.attach(c, format, "report_"+username, blocks)
}

// ExportTable handles GET /api/v1/reports/tables/:table
func (h *ReportHandler) ExportTable(c *gin.Context) {
	username, format, ok := h.prepare(c)
	if !ok {
		return
	}

	table := c.Param("table")
	block, err := h.reportService.ExportTable(c.Request.Context(), username, table)
	if err != nil {
		responses.Error(c, err)
		return
	}

	if format == reports.FormatJSON {
		responses.Success(c, http.StatusOK, gin.H{"table": block}, "Report generated successfully")
		return
	}
	h.attach(c, format, table+"_"+username, []models.TableBlock{*block})
}

// Summary handles GET /api/v1/reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	username, format, ok := h.prepare(c)
	if !ok {
		return
	}

	rows, err := h.reportService.Summary(c.Request.Context(), username)
	if err != nil {
		responses.Error(c, err)
		return
	}

	if format == reports.FormatJSON {
		responses.Success(c, http.StatusOK, gin.H{"summary": rows}, "Summary generated successfully")
		return
	}
	h.attach(c, format, "summary_"+username, []models.TableBlock{reports.SummaryBlock(rows)})
}

func (h *ReportHandler) prepare(c *gin.Context) (string, reports.Format, bool) {
	username, ok := middlewares.CurrentIdentity(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Not logged in")
		return "", "", false
	}

	format, err := reports.ParseFormat(c.Query("format"))
	if err != nil {
		responses.Error(c, err)
		return "", "", false
	}
	return username, format, true
}

// attach renders into a buffer first so a rendering failure can still be
// reported as an envelope.
func (h *ReportHandler) attach(c *gin.Context, format reports.Format, name string, blocks []models.TableBlock) {
	var buf bytes.Buffer
	if err := reports.Write(&buf, format, blocks); err != nil {
		responses.Error(c, err)
		return
	}

	ext := "txt"
	if format == reports.FormatCSV {
		ext = "csv"
	}
	filename := fmt.Sprintf("%s_%s.%s", name, time.Now().Format("20060102_150405"), ext)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
