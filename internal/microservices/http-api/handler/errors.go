package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"yamdb/internal/microservices/http-api/service"
)

// kindStatus maps service error kinds to HTTP statuses.
var kindStatus = []struct {
	kind   error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrInvalidCode, http.StatusBadRequest},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrPermissionDenied, http.StatusForbidden},
	{service.ErrUnauthenticated, http.StatusUnauthorized},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrUpstream, http.StatusServiceUnavailable},
}

// respondError writes the JSON error body for err. Unclassified errors are
// attached to the context for the request logger and reported as 500.
func respondError(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": ve.Fields})
		return
	}

	for _, ks := range kindStatus {
		if !errors.Is(err, ks.kind) {
			continue
		}
		msg := ks.kind.Error()
		var pe *service.PublicError
		if errors.As(err, &pe) {
			msg = pe.Message
		}
		c.JSON(ks.status, gin.H{"error": msg})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// respondBindError turns a ShouldBind failure into a 400 body.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": map[string][]string{typeErr.Field: {"expected " + typeErr.Type.String()}},
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("ensure this value is at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this value is at least %s", fe.Param())
	case "email":
		return "enter a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "username":
		return "enter a valid username: letters, digits and @/./+/-/_ only"
	case "not_me":
		return `"me" cannot be used as a username`
	case "slug":
		return "enter a valid slug: letters, digits, underscores or hyphens"
	case "past_year":
		return "year cannot be in the future"
	}
	return "invalid value"
}
