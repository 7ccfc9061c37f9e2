package service

import (
	"context"
	"errors"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type CategoryService interface {
	List(ctx context.Context, q dto.PageQuery) ([]dto.SlugResponse, int64, error)
	Create(ctx context.Context, req dto.SlugRequest) (*dto.SlugResponse, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) List(ctx context.Context, q dto.PageQuery) ([]dto.SlugResponse, int64, error) {
	q = q.Normalize()
	list, total, err := s.repo.List(ctx, repository.ListOptions{Limit: q.Limit, Offset: q.Offset, Search: q.Search})
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.SlugResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.FromCategory(&list[i]))
	}
	return out, total, nil
}

func (s *categoryService) Create(ctx context.Context, req dto.SlugRequest) (*dto.SlugResponse, error) {
	c := &models.Category{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("slug", "a category with this slug already exists")
		}
		return nil, err
	}
	resp := dto.FromCategory(c)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	err := s.repo.DeleteBySlug(ctx, slug)
	if errors.Is(err, repository.ErrReferenced) {
		return newPublicError(ErrConflict, "category is still used by titles")
	}
	if err != nil {
		return notFound(err, "category")
	}
	return nil
}
