package checkin

import (
	"github.com/gin-gonic/gin"

	"github.com/parkcare/care-api/internal/handler"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/service/checkin"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/httputil"
	"github.com/parkcare/care-api/pkg/metrics"
)

type Handler struct {
	service checkin.Service
	metrics *metrics.Metrics
}

func NewHandler(service checkin.Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.PUT("/patients/:id/checkins", h.Upsert)
	r.GET("/patients/:id/checkins", h.List)
	r.GET("/patients/:id/checkins/:date", h.GetByDate)
	r.PUT("/checkins/:id", h.Update)
	r.DELETE("/checkins/:id", h.Delete)
}

// Upsert writes the day's check-in for a patient. PUT because repeat
// submissions for the same date replace the record.
func (h *Handler) Upsert(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	userID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpsertCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	saved, err := h.service.Upsert(c.Request.Context(), principal, userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.CheckInsRecorded.Inc()
	}
	httputil.RespondWithSuccess(c, saved)
}

// List returns the window given by the range query parameter, or the
// full history when range is absent.
func (h *Handler) List(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	userID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	var (
		list []*model.CheckIn
		err  error
	)
	if rangeLabel := c.Query("range"); rangeLabel != "" {
		list, err = h.service.ListRange(c.Request.Context(), principal, userID, rangeLabel)
	} else {
		list, err = h.service.ListAll(c.Request.Context(), principal, userID)
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) GetByDate(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	userID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.service.GetByDate(c.Request.Context(), principal, userID, c.Param("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

// Update edits one record in place, admin only.
func (h *Handler) Update(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpsertCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), principal, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) Delete(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), principal, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}
