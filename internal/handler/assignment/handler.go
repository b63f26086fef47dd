package assignment

import (
	"github.com/gin-gonic/gin"

	"github.com/parkcare/care-api/internal/handler"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/service/assignment"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/httputil"
)

type Handler struct {
	service assignment.Service
}

func NewHandler(service assignment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	assignments := r.Group("/assignments")
	{
		assignments.POST("", h.Create)
		assignments.GET("", h.ListAll)
		assignments.GET("/:id", h.Get)
		assignments.PATCH("/:id/status", h.UpdateStatus)
		assignments.PATCH("/:id/capability", h.UpdateCapability)
		assignments.DELETE("/:id", h.Delete)
	}

	r.GET("/patients/:id/assignments", h.ListForPatient)
	r.GET("/caretakers/:id/assignments", h.ListForCaretaker)
}

func (h *Handler) Create(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	var req model.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	created, err := h.service.Create(c.Request.Context(), principal, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListAll(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	list, err := h.service.ListAll(c.Request.Context(), principal)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) Get(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	a, err := h.service.Get(c.Request.Context(), principal, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, a)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), principal, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) UpdateCapability(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateCapabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	updated, err := h.service.UpdateCapability(c.Request.Context(), principal, id, &req)
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

func (h *Handler) ListForPatient(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	patientID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.service.ListForPatient(c.Request.Context(), principal, patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) ListForCaretaker(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	caretakerID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.service.ListForCaretaker(c.Request.Context(), principal, caretakerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}
