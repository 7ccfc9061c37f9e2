package repository

import (
	"context"
	"fmt"
	"time"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByUsernameOrEmail returns every user matching either value (at most two).
	FindByUsernameOrEmail(ctx context.Context, username, email string) ([]models.User, error)
	List(ctx context.Context, opts ListOptions) ([]models.User, int64, error)
	// Activate consumes the pending confirmation code identified by codeHash.
	// It returns ErrNotFound when the code was already used or replaced.
	Activate(ctx context.Context, id, codeHash string, at time.Time) error
}

// userRepository is the GORM implementation of UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository in a GORM implementation
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete user: %w", translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	// return nil on error, a zero-value user would look like a hit to callers
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		Limit(2).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", translate(err))
	}
	return users, nil
}

func (r *userRepository) List(ctx context.Context, opts ListOptions) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	search := func(db *gorm.DB) *gorm.DB {
		if opts.Search != "" {
			return db.Where("username ILIKE ?", likePattern(opts.Search))
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.User{}).Scopes(search).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Scopes(search).
		Order("username asc").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) Activate(ctx context.Context, id, codeHash string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND confirmation_code = ?", id, codeHash).
		Updates(map[string]any{
			"confirmation_code":    nil,
			"confirmation_sent_at": nil,
			"confirmed":            true,
			"last_login":           at,
		})
	if result.Error != nil {
		return fmt.Errorf("activate user: %w", translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
