package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parkcare/care-api/internal/middleware"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/pkg/errors"
	"github.com/parkcare/care-api/pkg/httputil"
)

// Principal returns the authenticated caller, responding 401 itself when
// the request slipped past authentication.
func Principal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		httputil.RespondWithError(c, errors.NotAuthenticated(nil))
	}
	return principal, ok
}

// UUIDParam parses a path parameter as a UUID, responding 400 on garbage.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}
