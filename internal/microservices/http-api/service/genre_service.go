package service

import (
	"context"
	"errors"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type GenreService interface {
	List(ctx context.Context, q dto.PageQuery) ([]dto.SlugResponse, int64, error)
	Create(ctx context.Context, req dto.SlugRequest) (*dto.SlugResponse, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo repository.GenreRepository
}

func NewGenreService(repo repository.GenreRepository) GenreService {
	return &genreService{repo: repo}
}

func (s *genreService) List(ctx context.Context, q dto.PageQuery) ([]dto.SlugResponse, int64, error) {
	q = q.Normalize()
	list, total, err := s.repo.List(ctx, repository.ListOptions{Limit: q.Limit, Offset: q.Offset, Search: q.Search})
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.SlugResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.FromGenre(&list[i]))
	}
	return out, total, nil
}

func (s *genreService) Create(ctx context.Context, req dto.SlugRequest) (*dto.SlugResponse, error) {
	g := &models.Genre{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, g); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("slug", "a genre with this slug already exists")
		}
		return nil, err
	}
	resp := dto.FromGenre(g)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	err := s.repo.DeleteBySlug(ctx, slug)
	if errors.Is(err, repository.ErrReferenced) {
		return newPublicError(ErrConflict, "genre is still used by titles")
	}
	if err != nil {
		return notFound(err, "genre")
	}
	return nil
}
