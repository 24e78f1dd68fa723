package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/service"
)

// SharingHandler manages who can see a list: members and pending invitations.
type SharingHandler struct {
	lists     *service.ListService
	validator *validator.Validate
}

func NewSharingHandler(lists *service.ListService) *SharingHandler {
	return &SharingHandler{
		lists:     lists,
		validator: validator.New(),
	}
}

func (h *SharingHandler) GetMembers(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	members, err := h.lists.Members(c.Request.Context(), actor, c.Param("listId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *SharingHandler) InviteUser(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	var req models.InviteRequest
	if !bind(c, h.validator, &req) {
		return
	}

	inv, err := h.lists.Invite(c.Request.Context(), actor, c.Param("listId"), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation sent", "invitation": inv})
}

func (h *SharingHandler) RemoveMember(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	if err := h.lists.RemoveMember(c.Request.Context(), actor, c.Param("listId"), c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

func (h *SharingHandler) CancelInvitation(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	if err := h.lists.CancelInvitation(c.Request.Context(), actor, c.Param("listId"), c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation cancelled"})
}
