package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tiliavir/shiftpay/internal/export"
	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/report"
)

func (h *Handler) report(c *gin.Context) (report.Result, bool) {
	rng, err := h.parseRange(c)
	if err != nil {
		badRequest(c, err)
		return report.Result{}, false
	}
	status, err := parseStatus(c)
	if err != nil {
		badRequest(c, err)
		return report.Result{}, false
	}
	res, err := h.svc.Report(c.Request.Context(), rng, c.Query("employeeId"), status)
	if err != nil {
		h.fail(c, err)
		return report.Result{}, false
	}
	return res, true
}

// Report returns the per-employee reports of a range.
func (h *Handler) Report(c *gin.Context) {
	res, ok := h.report(c)
	if !ok {
		return
	}
	if res.Warnings == nil {
		res.Warnings = []report.Warning{}
	}
	c.JSON(http.StatusOK, res)
}

// Export returns the report of a range as a downloadable document.
func (h *Handler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatXLSX)))
	if err != nil {
		badRequest(c, err)
		return
	}
	res, ok := h.report(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Render(&buf, format, res, h.now().In(h.svc.Location())); err != nil {
		h.logger.Error("export failed", zap.String("format", string(format)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.FileName(res.Range, format)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Employees lists the known employees.
func (h *Handler) Employees(c *gin.Context) {
	employees, err := h.svc.Employees(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	c.JSON(http.StatusOK, gin.H{"data": employees})
}
