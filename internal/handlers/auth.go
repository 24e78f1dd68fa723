package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/PepaPanda/uu-backend-project/internal/auth"
	"github.com/PepaPanda/uu-backend-project/internal/config"
	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/service"
)

type AuthHandler struct {
	users     *service.UserService
	lifetime  time.Duration
	validator *validator.Validate
	config    *config.Config
}

func NewAuthHandler(users *service.UserService, lifetime time.Duration, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		users:     users,
		lifetime:  lifetime,
		validator: validator.New(),
		config:    cfg,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.CreateUserRequest
	if !bind(c, h.validator, &req) {
		return
	}

	id, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bind(c, h.validator, &req) {
		return
	}

	token, user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setCookie(c, token, int(h.lifetime.Seconds()))
	c.JSON(http.StatusOK, models.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", h.config.Cookie.Domain, h.config.Cookie.Secure, true)
}
