// Package handlers exposes the timesheet service over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/normalizer"
	"github.com/Tiliavir/shiftpay/internal/report"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

// Handler serves reports, exports and entry workflows.
type Handler struct {
	svc    *timesheet.Service
	logger *zap.Logger
	now    func() time.Time
}

// New constructs the HTTP handler adapter.
func New(svc *timesheet.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

// parseRange reads start/end query parameters, defaulting to the current
// week.
func (h *Handler) parseRange(c *gin.Context) (report.Range, error) {
	monday, sunday := timecalc.WeekRange(h.svc.Today().In(time.UTC))
	rng := report.Range{Start: model.DateOf(monday), End: model.DateOf(sunday)}

	if s := c.Query("start"); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return report.Range{}, err
		}
		rng.Start = d
	}
	if s := c.Query("end"); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return report.Range{}, err
		}
		rng.End = d
	}
	return rng, rng.Validate()
}

func parseStatus(c *gin.Context) (model.ApprovalState, error) {
	return model.ParseApprovalState(c.Query("status"))
}

// fail maps service errors onto HTTP responses.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *normalizer.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, report.ErrInvalidRange), errors.Is(err, timesheet.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, timesheet.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "time entry store unavailable"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
