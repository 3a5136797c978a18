package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/server/http/dto"
	"github.com/shipfire/payflow/internal/server/http/middleware"
)

// AuthHandler processes registration and login. Both endpoints issue
// the token twice: as a cookie for the browser checkout flow and in
// the body for API clients.
type AuthHandler struct {
	facade AuthFacade
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade) *AuthHandler {
	return &AuthHandler{facade: facade}
}

// Register handles POST /api/user/register.
func (h *AuthHandler) Register(c *gin.Context) {
	req, ok := bindAuthRequest(c)
	if !ok {
		return
	}

	token, err := h.facade.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		h.issueToken(c, token)
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.Status(http.StatusBadRequest)
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		c.Status(http.StatusConflict)
	default:
		c.Status(http.StatusInternalServerError)
	}
}

// Login handles POST /api/user/login.
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := bindAuthRequest(c)
	if !ok {
		return
	}

	token, err := h.facade.Authenticate(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		h.issueToken(c, token)
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.Status(http.StatusUnauthorized)
	default:
		c.Status(http.StatusInternalServerError)
	}
}

func bindAuthRequest(c *gin.Context) (dto.AuthRequest, bool) {
	var req dto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *AuthHandler) issueToken(c *gin.Context, token string) {
	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}
