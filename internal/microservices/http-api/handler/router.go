package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
)

// Pinger reports whether the backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies is everything NewRouter wires together.
type Dependencies struct {
	Auth       service.AuthService
	Users      service.UserService
	Categories service.CategoryService
	Genres     service.GenreService
	Titles     service.TitleService
	Reviews    service.ReviewService
	Comments   service.CommentService

	Authorizer service.Authorizer
	// AuthLimiter throttles the signup and token endpoints; nil disables it.
	AuthLimiter middleware.Limiter
	DB          Pinger

	// TrustedProxies lists the addresses allowed to set X-Forwarded-For.
	// Empty means the client IP is always the peer address.
	TrustedProxies []string

	Logger         zerolog.Logger
	RequestTimeout time.Duration
	MetricsEnabled bool
}

// NewRouter builds the gin engine serving /api/v1.
func NewRouter(d Dependencies) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	if d.MetricsEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/healthz", healthz(d.DB))

	v1 := r.Group("/api/v1", middleware.Authenticate(d.Auth))

	auth := v1.Group("/auth")
	if d.AuthLimiter != nil {
		auth.Use(middleware.RateLimit(d.AuthLimiter, d.Logger))
	}
	NewAuthHandler(d.Auth, d.RequestTimeout).RegisterRoutes(auth)

	catalog := func(path string) *gin.RouterGroup {
		return v1.Group(path, middleware.RequireAccess(d.Authorizer, authz.Catalog))
	}
	NewCategoryHandler(d.Categories, d.RequestTimeout).RegisterRoutes(catalog("/categories"))
	NewGenreHandler(d.Genres, d.RequestTimeout).RegisterRoutes(catalog("/genres"))
	NewTitleHandler(d.Titles, d.RequestTimeout).RegisterRoutes(catalog("/titles"))

	content := func(path string) *gin.RouterGroup {
		return v1.Group(path, middleware.RequireAccess(d.Authorizer, authz.Content))
	}
	NewReviewHandler(d.Reviews, d.RequestTimeout).
		RegisterRoutes(content("/titles/:title_id/reviews"))
	NewCommentHandler(d.Comments, d.RequestTimeout).
		RegisterRoutes(content("/titles/:title_id/reviews/:review_id/comments"))

	users := NewUserHandler(d.Users, d.RequestTimeout)
	// /users/me is registered first so it never resolves as a username
	users.RegisterMeRoutes(v1.Group("/users/me", middleware.RequireAccess(d.Authorizer, authz.Me)))
	users.RegisterRoutes(v1.Group("/users", middleware.RequireAccess(d.Authorizer, authz.Users)))

	return r, nil
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
