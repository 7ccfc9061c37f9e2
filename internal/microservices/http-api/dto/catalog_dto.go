package dto

import (
	"yamdb/internal/microservices/http-api/models"
)

// SlugRequest is the write body for both categories and genres
type SlugRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

// SlugResponse is the read body for both categories and genres
type SlugResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromCategory(c *models.Category) SlugResponse {
	return SlugResponse{Name: c.Name, Slug: c.Slug}
}

func FromGenre(g *models.Genre) SlugResponse {
	return SlugResponse{Name: g.Name, Slug: g.Slug}
}

// CreateTitleRequest used for POST /titles; genre and category are slugs
type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required,past_year"`
	Description *string  `json:"description,omitempty"`
	Genre       []string `json:"genre" binding:"omitempty,dive,max=50,slug"`
	Category    *string  `json:"category,omitempty" binding:"omitempty,max=50,slug"`
}

// UpdateTitleRequest used for PATCH /titles/:title_id (partial updates allowed)
type UpdateTitleRequest struct {
	Name        *string   `json:"name,omitempty" binding:"omitempty,max=256"`
	Year        *int      `json:"year,omitempty" binding:"omitempty,past_year"`
	Description *string   `json:"description,omitempty"`
	Genre       *[]string `json:"genre,omitempty" binding:"omitempty,dive,max=50,slug"`
	Category    *string   `json:"category,omitempty" binding:"omitempty,max=50,slug"`
}

// TitleResponse nests category and genres and carries the live rating
type TitleResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Year        int            `json:"year"`
	Rating      *int           `json:"rating"`
	Description *string        `json:"description"`
	Genre       []SlugResponse `json:"genre"`
	Category    *SlugResponse  `json:"category"`
}

func (d CreateTitleRequest) ToModel() models.Title {
	return models.Title{
		Name:        d.Name,
		Year:        d.Year,
		Description: d.Description,
	}
}

// ApplyTo copies the scalar fields; genre and category slugs are resolved by the service.
func (d UpdateTitleRequest) ApplyTo(t *models.Title) {
	if d.Name != nil {
		t.Name = *d.Name
	}
	if d.Year != nil {
		t.Year = *d.Year
	}
	if d.Description != nil {
		t.Description = d.Description
	}
}

func FromModelToTitleResponse(t *models.Title) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating(),
		Description: t.Description,
		Genre:       make([]SlugResponse, 0, len(t.Genres)),
	}
	for i := range t.Genres {
		resp.Genre = append(resp.Genre, FromGenre(&t.Genres[i]))
	}
	if t.Category != nil {
		c := FromCategory(t.Category)
		resp.Category = &c
	}
	return resp
}

// TitleQuery is bound from the query string on GET /titles
type TitleQuery struct {
	PageQuery
	Category string `form:"category" binding:"omitempty,max=50"`
	Genre    string `form:"genre" binding:"omitempty,max=50"`
	Name     string `form:"name" binding:"omitempty,max=256"`
	Year     *int   `form:"year"`
}
