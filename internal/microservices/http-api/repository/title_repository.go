package repository

import (
	"context"
	"fmt"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// ratingSelect attaches the live review average to every title row.
const ratingSelect = "titles.*, (SELECT AVG(reviews.score)::float8 FROM reviews WHERE reviews.title_id = titles.id) AS average_score"

type TitleRepository interface {
	List(ctx context.Context, filter TitleFilter) ([]models.Title, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, t *models.Title) error
	// Update saves the scalar fields; when replaceGenres is set the genre
	// links are swapped for t.Genres in the same transaction.
	Update(ctx context.Context, t *models.Title, replaceGenres bool) error
	Delete(ctx context.Context, id int64) error
}

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

func (r *TitleRepo) List(ctx context.Context, filter TitleFilter) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Title{}).
		Scopes(titleFilter(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Select(ratingSelect).
		Scopes(titleFilter(filter)).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name asc") }).
		Order("titles.id asc").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	return list, total, nil
}

func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := r.db.WithContext(ctx).
		Select(ratingSelect).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name asc") }).
		Where("titles.id = ?", id).
		First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TitleRepo) Create(ctx context.Context, t *models.Title) error {
	// genres already exist; only the join rows are written
	if err := r.db.WithContext(ctx).Omit("Category", "Genres.*").Create(t).Error; err != nil {
		return fmt.Errorf("create title: %w", translate(err))
	}
	return nil
}

func (r *TitleRepo) Update(ctx context.Context, t *models.Title, replaceGenres bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Title{}).
			Where("id = ?", t.ID).
			Select("name", "year", "description", "category_id").
			Updates(map[string]any{
				"name":        t.Name,
				"year":        t.Year,
				"description": t.Description,
				"category_id": t.CategoryID,
			})
		if result.Error != nil {
			return fmt.Errorf("update title: %w", translate(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if !replaceGenres {
			return nil
		}
		if err := tx.Model(&models.Title{ID: t.ID}).Omit("Genres.*").Association("Genres").Replace(t.Genres); err != nil {
			return fmt.Errorf("replace title genres: %w", translate(err))
		}
		return nil
	})
}

// Delete removes the title, its genre links and (by cascade) its reviews.
func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("title_id = ?", id).Delete(&models.TitleGenre{}).Error; err != nil {
			return fmt.Errorf("delete title genres: %w", translate(err))
		}
		result := tx.Delete(&models.Title{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete title: %w", translate(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func titleFilter(f TitleFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Category != "" {
			db = db.Where("titles.category_id IN (SELECT id FROM categories WHERE slug = ?)", f.Category)
		}
		if f.Genre != "" {
			db = db.Where(`titles.id IN (SELECT tg.title_id FROM title_genres tg
				JOIN genres g ON g.id = tg.genre_id WHERE g.slug = ?)`, f.Genre)
		}
		if f.Name != "" {
			db = db.Where("titles.name ILIKE ?", likePattern(f.Name))
		}
		if f.Year != nil {
			db = db.Where("titles.year = ?", *f.Year)
		}
		return db
	}
}
