package audit

import (
	"github.com/gin-gonic/gin"

	"github.com/parkcare/care-api/internal/handler"
	"github.com/parkcare/care-api/internal/service/audit"
	"github.com/parkcare/care-api/pkg/httputil"
)

type Handler struct {
	service audit.Service
}

func NewHandler(service audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit/:entityType/:id", h.ListForEntity)
}

func (h *Handler) ListForEntity(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	entityID, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.service.ListForEntity(c.Request.Context(), principal, c.Param("entityType"), entityID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}
