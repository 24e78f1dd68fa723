package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/service"
)

type ListHandler struct {
	lists     *service.ListService
	validator *validator.Validate
}

func NewListHandler(lists *service.ListService) *ListHandler {
	return &ListHandler{
		lists:     lists,
		validator: validator.New(),
	}
}

func (h *ListHandler) CreateList(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	var req models.CreateListRequest
	if !bind(c, h.validator, &req) {
		return
	}

	list, err := h.lists.Create(c.Request.Context(), actor, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, list)
}

func (h *ListHandler) GetList(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	list, err := h.lists.Get(c.Request.Context(), actor, c.Param("listId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *ListHandler) UpdateList(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	var req models.UpdateListRequest
	if !bind(c, h.validator, &req) {
		return
	}

	list, err := h.lists.Update(c.Request.Context(), actor, c.Param("listId"), models.ListFieldsUpdate{
		Name:   req.Name,
		Status: req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *ListHandler) DeleteList(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	if err := h.lists.Delete(c.Request.Context(), actor, c.Param("listId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "List deleted successfully"})
}
