package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/service"
)

type ItemHandler struct {
	lists     *service.ListService
	validator *validator.Validate
}

func NewItemHandler(lists *service.ListService) *ItemHandler {
	return &ItemHandler{lists: lists, validator: validator.New()}
}

func (h *ItemHandler) GetItems(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	items, err := h.lists.Items(c.Request.Context(), actor, c.Param("listId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	var req models.CreateItemRequest
	if !bind(c, h.validator, &req) {
		return
	}

	item, err := h.lists.AddItem(c.Request.Context(), actor, c.Param("listId"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	var req models.UpdateItemRequest
	if !bind(c, h.validator, &req) {
		return
	}

	item, err := h.lists.UpdateItem(c.Request.Context(), actor, c.Param("listId"), c.Param("itemId"), models.ItemUpdate{
		Name:     req.Name,
		Resolved: req.Resolved,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	if err := h.lists.DeleteItem(c.Request.Context(), actor, c.Param("listId"), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}
