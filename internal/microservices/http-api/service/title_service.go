package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type TitleService interface {
	List(ctx context.Context, q dto.TitleQuery) ([]dto.TitleResponse, int64, error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, req dto.CreateTitleRequest) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateTitleRequest) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titles     repository.TitleRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	now        func() time.Time
}

func NewTitleService(
	titles repository.TitleRepository,
	categories repository.CategoryRepository,
	genres repository.GenreRepository,
) TitleService {
	return &titleService{
		titles:     titles,
		categories: categories,
		genres:     genres,
		now:        time.Now,
	}
}

func (s *titleService) List(ctx context.Context, q dto.TitleQuery) ([]dto.TitleResponse, int64, error) {
	page := q.PageQuery.Normalize()
	list, total, err := s.titles.List(ctx, repository.TitleFilter{
		ListOptions: repository.ListOptions{Limit: page.Limit, Offset: page.Offset},
		Category:    q.Category,
		Genre:       q.Genre,
		Name:        q.Name,
		Year:        q.Year,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.TitleResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.FromModelToTitleResponse(&list[i]))
	}
	return out, total, nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "title")
	}
	resp := dto.FromModelToTitleResponse(t)
	return &resp, nil
}

func (s *titleService) Create(ctx context.Context, req dto.CreateTitleRequest) (*dto.TitleResponse, error) {
	t := req.ToModel()
	if err := s.validateYear(t.Year); err != nil {
		return nil, err
	}
	if req.Category != nil && *req.Category != "" {
		c, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		t.CategoryID = &c.ID
	}
	genres, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}
	t.Genres = genres

	if err := s.titles.Create(ctx, &t); err != nil {
		return nil, err
	}
	return s.Get(ctx, t.ID)
}

func (s *titleService) Update(ctx context.Context, id int64, req dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "title")
	}
	req.ApplyTo(t)
	if err := s.validateYear(t.Year); err != nil {
		return nil, err
	}

	if req.Category != nil {
		// an empty slug detaches the category
		t.CategoryID = nil
		if *req.Category != "" {
			c, err := s.resolveCategory(ctx, *req.Category)
			if err != nil {
				return nil, err
			}
			t.CategoryID = &c.ID
		}
	}

	replaceGenres := req.Genre != nil
	if replaceGenres {
		genres, err := s.resolveGenres(ctx, *req.Genre)
		if err != nil {
			return nil, err
		}
		t.Genres = genres
	}

	if err := s.titles.Update(ctx, t, replaceGenres); err != nil {
		return nil, notFound(err, "title")
	}
	return s.Get(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.titles.Delete(ctx, id); err != nil {
		return notFound(err, "title")
	}
	return nil
}

func (s *titleService) validateYear(year int) error {
	if year > s.now().Year() {
		return NewValidationError("year", "year cannot be in the future")
	}
	return nil
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.categories.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewValidationError("category", fmt.Sprintf("unknown category %q", slug))
	}
	return c, err
}

// resolveGenres maps slugs to genres, rejecting the whole set if any is unknown.
func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	unique := make([]string, 0, len(slugs))
	seen := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		unique = append(unique, slug)
	}
	if len(unique) == 0 {
		return []models.Genre{}, nil
	}

	genres, err := s.genres.GetBySlugs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(genres) == len(unique) {
		return genres, nil
	}

	found := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		found[g.Slug] = struct{}{}
	}
	var missing []string
	for _, slug := range unique {
		if _, ok := found[slug]; !ok {
			missing = append(missing, slug)
		}
	}
	return nil, NewValidationError("genre", "unknown genre: "+strings.Join(missing, ", "))
}
