package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/service/auth"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/httputil"
)

type Handler struct {
	service auth.Service
}

func NewHandler(service auth.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public auth endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/auth")
	{
		group.POST("/register", h.Register)
		group.POST("/login", h.Login)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	resp, err := h.service.RegisterPatient(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}
