package insight

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parkcare/care-api/internal/handler"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/service/insight"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/httputil"
	"github.com/parkcare/care-api/pkg/metrics"
)

type Handler struct {
	service insight.Service
	metrics *metrics.Metrics
}

func NewHandler(service insight.Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/patients/:id/insights", h.Generate)
	r.GET("/patients/:id/insights", h.History)
	r.GET("/patients/:id/insights/latest", h.Latest)
}

func (h *Handler) Generate(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	userID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.GenerateInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	start := time.Now()
	record, err := h.service.Generate(c.Request.Context(), principal, userID, &req)
	h.observe(err, time.Since(start))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, record)
}

func (h *Handler) Latest(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	userID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.service.Latest(c.Request.Context(), principal, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) History(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	userID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	window, err := windowFromQuery(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	list, err := h.service.History(c.Request.Context(), principal, userID, window)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

// windowFromQuery reads optional from/to dates. Both must be present to
// narrow the history; either alone is rejected.
func windowFromQuery(c *gin.Context) (*model.DateRange, error) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, errors.Validation("from and to must be provided together", nil)
	}

	start, err := time.Parse(model.CheckInDateLayout, from)
	if err != nil {
		return nil, errors.Validation("from must be formatted as YYYY-MM-DD", err)
	}
	end, err := time.Parse(model.CheckInDateLayout, to)
	if err != nil {
		return nil, errors.Validation("to must be formatted as YYYY-MM-DD", err)
	}
	if end.Before(start) {
		return nil, errors.Validation("to must not be before from", nil)
	}
	return &model.DateRange{Start: start, End: end}, nil
}

func (h *Handler) observe(err error, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	h.metrics.InsightGenerations.WithLabelValues(status).Inc()
	h.metrics.InsightLatency.Observe(elapsed.Seconds())
}
