package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/report"
)

// entryRequest is the body of preview, create and update requests. Entry
// and exit times are "HH:MM" on Date or full timestamps.
type entryRequest struct {
	EmployeeID   string              `json:"employeeId" binding:"required"`
	EmployeeName string              `json:"employeeName"`
	Date         string              `json:"date"`
	EntryTime    string              `json:"entryTime" binding:"required"`
	ExitTime     string              `json:"exitTime"`
	DailyRate    *float64            `json:"dailyRate"`
	ExtraHours   model.ExtraDuration `json:"extraHours"`
	ExtraRate    float64             `json:"extraHoursRate"`
	Notes        string              `json:"notes"`
	Status       string              `json:"status"`
}

func (h *Handler) bindEntry(c *gin.Context) (model.RawTimeEntry, bool) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return model.RawTimeEntry{}, false
	}

	var date model.CalendarDate
	if strings.TrimSpace(req.Date) != "" {
		dv, err := model.ParseDateValue(req.Date)
		if err != nil {
			badRequest(c, err)
			return model.RawTimeEntry{}, false
		}
		date = dv.Date(h.svc.Location())
	}
	in, out, err := h.svc.ShiftTimes(date, req.EntryTime, req.ExitTime)
	if err != nil {
		badRequest(c, err)
		return model.RawTimeEntry{}, false
	}
	status, err := model.ParseApprovalState(req.Status)
	if err != nil {
		badRequest(c, err)
		return model.RawTimeEntry{}, false
	}

	return model.RawTimeEntry{
		ID:           c.Param("id"),
		Employee:     model.Employee{ID: req.EmployeeID, Name: req.EmployeeName},
		Date:         date,
		EntryInstant: in,
		ExitInstant:  out,
		DailyRate:    req.DailyRate,
		Extra:        req.ExtraHours,
		ExtraRate:    req.ExtraRate,
		Notes:        req.Notes,
		Approval:     status,
	}, true
}

// List returns the normalized entries of a range.
func (h *Handler) List(c *gin.Context) {
	rng, err := h.parseRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	status, err := parseStatus(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	q := rng.Query(c.Query("employeeId"))
	q.Status = status

	entries, warnings, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	if warnings == nil {
		warnings = []report.Warning{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "warnings": warnings})
}

// Get returns one normalized entry.
func (h *Handler) Get(c *gin.Context) {
	raw, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	n, err := h.svc.Preview(raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// Preview computes the totals of an entry without storing it.
func (h *Handler) Preview(c *gin.Context) {
	raw, ok := h.bindEntry(c)
	if !ok {
		return
	}
	n, err := h.svc.Preview(raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// Create stores a new entry.
func (h *Handler) Create(c *gin.Context) {
	raw, ok := h.bindEntry(c)
	if !ok {
		return
	}
	n, err := h.svc.Submit(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// Update replaces the entry named by the id path parameter.
func (h *Handler) Update(c *gin.Context) {
	raw, ok := h.bindEntry(c)
	if !ok {
		return
	}
	n, err := h.svc.Submit(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// Delete removes an entry.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Approve marks an entry APPROVED.
func (h *Handler) Approve(c *gin.Context) {
	e, err := h.svc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Reject marks an entry REJECTED with the reason of the body.
func (h *Handler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	e, err := h.svc.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
