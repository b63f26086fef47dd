package report

import (
	"github.com/gin-gonic/gin"

	"github.com/parkcare/care-api/internal/handler"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/service/report"
	"github.com/parkcare/care-api/pkg/httputil"
)

type Handler struct {
	service report.Service
}

func NewHandler(service report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/patients/:id/stats", h.PatientWindow)
	r.GET("/patients/:id/detail", h.PatientDetail)
	r.GET("/caretakers/:id/overview", h.CaretakerOverview)
	r.GET("/dashboard/stats", h.Dashboard)
}

func (h *Handler) PatientWindow(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	userID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	rangeLabel := c.DefaultQuery("range", model.RangeLabel7Days)
	stats, err := h.service.PatientWindow(c.Request.Context(), principal, userID, rangeLabel)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) PatientDetail(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	patientID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.PatientDetail(c.Request.Context(), principal, patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) CaretakerOverview(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	caretakerID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	overview, err := h.service.CaretakerOverview(c.Request.Context(), principal, caretakerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, overview)
}

func (h *Handler) Dashboard(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	stats, err := h.service.Dashboard(c.Request.Context(), principal)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}
