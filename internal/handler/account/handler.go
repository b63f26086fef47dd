package account

import (
	"github.com/gin-gonic/gin"

	"github.com/parkcare/care-api/internal/handler"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/internal/service/account"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/httputil"
)

type Handler struct {
	service account.Service
}

func NewHandler(service account.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.Me)

	accounts := r.Group("/accounts")
	{
		accounts.POST("", h.Create)
		accounts.GET("", h.List)
		accounts.GET("/:id", h.Get)
		accounts.PUT("/:id", h.Update)
		accounts.DELETE("/:id", h.Delete)
	}
}

// Me returns the caller's own account.
func (h *Handler) Me(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	user, err := h.service.Get(c.Request.Context(), principal, principal.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}

func (h *Handler) Create(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	user, err := h.service.Create(c.Request.Context(), principal, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}

// List returns accounts filtered by the required role query parameter.
func (h *Handler) List(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	role := model.Role(c.Query("role"))
	users, err := h.service.ListByRole(c.Request.Context(), principal, role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
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

	user, err := h.service.Get(c.Request.Context(), principal, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}

func (h *Handler) Update(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid request body", err))
		return
	}

	user, err := h.service.Update(c.Request.Context(), principal, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
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
