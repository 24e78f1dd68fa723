package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/service"
)

type UserHandler struct {
	users     *service.UserService
	validator *validator.Validate
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users, validator: validator.New()}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	user, err := h.users.Details(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !bind(c, h.validator, &req) {
		return
	}

	user, err := h.users.EditDetails(c.Request.Context(), actor, c.Param("userId"), req.FirstName, req.LastName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetUserLists(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	lists, err := h.users.Lists(c.Request.Context(), actor, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

func (h *UserHandler) GetInvitations(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	invitations, err := h.users.Invitations(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

func (h *UserHandler) AcceptInvitation(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	if err := h.users.AcceptInvitation(c.Request.Context(), actor, c.Param("listId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted"})
}

func (h *UserHandler) DeclineInvitation(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	if err := h.users.DeclineInvitation(c.Request.Context(), actor, c.Param("listId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined"})
}
