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

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, q dto.PageQuery) ([]dto.CommentResponse, int64, error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	Create(ctx context.Context, actor *authz.Actor, titleID, reviewID int64, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	Update(ctx context.Context, actor *authz.Actor, titleID, reviewID, commentID int64, req dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	Delete(ctx context.Context, actor *authz.Actor, titleID, reviewID, commentID int64) error
}

type commentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
	authz    Authorizer
}

func NewCommentService(comments repository.CommentRepository, reviews repository.ReviewRepository, az Authorizer) CommentService {
	return &commentService{comments: comments, reviews: reviews, authz: az}
}

// review checks that reviewID belongs to titleID
func (s *commentService) review(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.reviews.GetByID(ctx, titleID, reviewID); err != nil {
		return notFound(err, "review")
	}
	return nil
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, q dto.PageQuery) ([]dto.CommentResponse, int64, error) {
	if err := s.review(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	q = q.Normalize()
	list, total, err := s.comments.ListByReview(ctx, reviewID, repository.ListOptions{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.CommentResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.FromModelToCommentResponse(&list[i]))
	}
	return out, total, nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	if err := s.review(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, notFound(err, "comment")
	}
	resp := dto.FromModelToCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, actor *authz.Actor, titleID, reviewID int64, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if actor == nil {
		return nil, newPublicError(ErrUnauthenticated, "authentication required")
	}
	if err := s.review(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     req.Text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		// the review was deleted between the check and the insert
		if errors.Is(err, repository.ErrReferenced) {
			err = repository.ErrNotFound
		}
		return nil, notFound(err, "review")
	}
	comment.Author = models.User{ID: actor.ID, Username: actor.Username}
	resp := dto.FromModelToCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) Update(ctx context.Context, actor *authz.Actor, titleID, reviewID, commentID int64, req dto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	if err := s.review(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, notFound(err, "comment")
	}
	if !s.authz.CanAccess(actor, http.MethodPatch, authz.Resource{Kind: authz.Content, AuthorID: comment.AuthorID}) {
		return nil, newPublicError(ErrPermissionDenied, "you can only edit your own comments")
	}

	comment.Text = req.Text
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, notFound(err, "comment")
	}
	resp := dto.FromModelToCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, actor *authz.Actor, titleID, reviewID, commentID int64) error {
	if err := s.review(ctx, titleID, reviewID); err != nil {
		return err
	}
	comment, err := s.comments.GetByID(ctx, reviewID, commentID)
	if err != nil {
		return notFound(err, "comment")
	}
	if !s.authz.CanAccess(actor, http.MethodDelete, authz.Resource{Kind: authz.Content, AuthorID: comment.AuthorID}) {
		return newPublicError(ErrPermissionDenied, "you can only delete your own comments")
	}
	if err := s.comments.Delete(ctx, reviewID, commentID); err != nil {
		return notFound(err, "comment")
	}
	return nil
}
