package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/service"
)

type CategoryHandler struct {
	categoryService service.CategoryService
	timeout         time.Duration
}

func NewCategoryHandler(categoryService service.CategoryService, timeout time.Duration) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, timeout: timeout}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

// List GET /categories?search=&limit=&offset=
func (h *CategoryHandler) List(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	items, total, err := h.categoryService.List(ctx, q)
	if err != nil {
		respondError(c, err)
		return
	}
	writePage(c, items, total, q)
}

// Create POST /categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.SlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	resp, err := h.categoryService.Create(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete DELETE /categories/:slug
func (h *CategoryHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.categoryService.Delete(ctx, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
