package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/service"
)

type GenreHandler struct {
	genreService service.GenreService
	timeout         time.Duration
}

func NewGenreHandler(genreService service.GenreService, timeout time.Duration) *GenreHandler {
	return &GenreHandler{genreService: genreService, timeout: timeout}
}

func (h *GenreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

// List GET /genres?search=&limit=&offset=
func (h *GenreHandler) List(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	items, total, err := h.genreService.List(ctx, q)
	if err != nil {
		respondError(c, err)
		return
	}
	writePage(c, items, total, q)
}

// Create POST /genres
func (h *GenreHandler) Create(c *gin.Context) {
	var req dto.SlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	resp, err := h.genreService.Create(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete DELETE /genres/:slug
func (h *GenreHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.genreService.Delete(ctx, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
