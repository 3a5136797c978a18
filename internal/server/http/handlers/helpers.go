package handlers

import (
	"github.com/gin-gonic/gin"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/server/http/middleware"
)

// currentUser loads the account behind an authenticated request using
// the identifier the auth middleware stored on the context.
func currentUser(c *gin.Context, auth AuthFacade) (*model.User, error) {
	v, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return nil, domainErrors.ErrInvalidCredentials
	}
	id, ok := v.(int64)
	if !ok {
		return nil, domainErrors.ErrInvalidCredentials
	}
	return auth.UserByID(c.Request.Context(), id)
}
