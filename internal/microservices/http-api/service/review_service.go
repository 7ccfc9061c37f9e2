package service

import (
	"context"
	"errors"
	"net/http"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

// Authorizer is the object-level permission check used for reviews and comments.
type Authorizer interface {
	CanAccess(actor *authz.Actor, method string, res authz.Resource) bool
}

type ReviewService interface {
	List(ctx context.Context, titleID int64, q dto.PageQuery) ([]dto.ReviewResponse, int64, error)
	Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	Create(ctx context.Context, actor *authz.Actor, titleID int64, req dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	Update(ctx context.Context, actor *authz.Actor, titleID, reviewID int64, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, actor *authz.Actor, titleID, reviewID int64) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	titles  repository.TitleRepository
	authz   Authorizer
}

func NewReviewService(reviews repository.ReviewRepository, titles repository.TitleRepository, az Authorizer) ReviewService {
	return &reviewService{reviews: reviews, titles: titles, authz: az}
}

func (s *reviewService) List(ctx context.Context, titleID int64, q dto.PageQuery) ([]dto.ReviewResponse, int64, error) {
	if _, err := s.titles.GetByID(ctx, titleID); err != nil {
		return nil, 0, notFound(err, "title")
	}
	q = q.Normalize()
	list, total, err := s.reviews.ListByTitle(ctx, titleID, repository.ListOptions{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ReviewResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.FromModelToReviewResponse(&list[i]))
	}
	return out, total, nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.reviews.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFound(err, "review")
	}
	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

// Create adds the actor's review. The title's rating is read live from the
// review set, so nothing else is written here.
func (s *reviewService) Create(ctx context.Context, actor *authz.Actor, titleID int64, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if actor == nil {
		return nil, newPublicError(ErrUnauthenticated, "authentication required")
	}
	if _, err := s.titles.GetByID(ctx, titleID); err != nil {
		return nil, notFound(err, "title")
	}

	exists, err := s.reviews.ExistsByTitleAndAuthor(ctx, titleID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errAlreadyReviewed
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     req.Text,
		Score:    req.Score,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		// lost a race with a concurrent POST by the same author
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errAlreadyReviewed
		}
		if errors.Is(err, repository.ErrReferenced) {
			err = repository.ErrNotFound
		}
		return nil, notFound(err, "title")
	}
	review.Author = models.User{ID: actor.ID, Username: actor.Username}
	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

var errAlreadyReviewed = newPublicError(ErrConflict, "you have already reviewed this title")

func (s *reviewService) Update(ctx context.Context, actor *authz.Actor, titleID, reviewID int64, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	review, err := s.reviews.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFound(err, "review")
	}
	if !s.authz.CanAccess(actor, http.MethodPatch, authz.Resource{Kind: authz.Content, AuthorID: review.AuthorID}) {
		return nil, newPublicError(ErrPermissionDenied, "you can only edit your own reviews")
	}

	req.ApplyTo(review)
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, notFound(err, "review")
	}
	resp := dto.FromModelToReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *authz.Actor, titleID, reviewID int64) error {
	review, err := s.reviews.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return notFound(err, "review")
	}
	if !s.authz.CanAccess(actor, http.MethodDelete, authz.Resource{Kind: authz.Content, AuthorID: review.AuthorID}) {
		return newPublicError(ErrPermissionDenied, "you can only delete your own reviews")
	}
	if err := s.reviews.Delete(ctx, titleID, reviewID); err != nil {
		return notFound(err, "review")
	}
	return nil
}
