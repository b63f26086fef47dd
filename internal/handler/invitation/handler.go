package invitation

import (
	"github.com/gin-gonic/gin"

	"github.com/parkcare/care-api/internal/handler"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/service/invitation"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/httputil"
)

type Handler struct {
	service invitation.Service
}

func NewHandler(service invitation.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the authenticated invitation endpoint.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/invitations", h.Create)
}

// RegisterPublicRoutes mounts the unauthenticated signup-side endpoints.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	invitations := r.Group("/invitations")
	{
		invitations.GET("/:token", h.GetByToken)
		invitations.POST("/accept", h.Accept)
	}
}

func (h *Handler) Create(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	var req model.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	result, err := h.service.Create(c.Request.Context(), principal, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, result)
}

func (h *Handler) GetByToken(c *gin.Context) {
	inv, err := h.service.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) Accept(c *gin.Context) {
	var req model.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	user, err := h.service.Accept(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}
