package dto

import (
	"time"

	"yamdb/internal/microservices/http-api/models"
)

// CreateReviewRequest for POST /titles/:title_id/reviews
type CreateReviewRequest struct {
	Text  string `json:"text" binding:"required,max=10000"`
	Score int    `json:"score" binding:"required,min=1,max=10"`
}

// UpdateReviewRequest for PATCH; absent fields are kept
type UpdateReviewRequest struct {
	Text  *string `json:"text,omitempty" binding:"omitempty,min=1,max=10000"`
	Score *int    `json:"score,omitempty" binding:"omitempty,min=1,max=10"`
}

type ReviewResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// CreateCommentRequest for POST .../comments
type CreateCommentRequest struct {
	Text string `json:"text" binding:"required,max=5000"`
}

// UpdateCommentRequest for PATCH .../comments/:comment_id
type UpdateCommentRequest struct {
	Text string `json:"text" binding:"required,max=5000"`
}

type CommentResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func (d UpdateReviewRequest) ApplyTo(r *models.Review) {
	if d.Text != nil {
		r.Text = *d.Text
	}
	if d.Score != nil {
		r.Score = *d.Score
	}
}

func FromModelToReviewResponse(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

func FromModelToCommentResponse(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  c.Author.Username,
		PubDate: c.PubDate,
	}
}
