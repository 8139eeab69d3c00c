package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"memehub/internal/cache"
	"memehub/internal/models"

	"gorm.io/gorm"
)

// Feed sort orders accepted by List.
const (
	SortNew = "new"
	SortTop = "top"
)

// MemeRepository defines persistence operations for memes and like records.
type MemeRepository interface {
	Create(ctx context.Context, meme *models.Meme) error
	GetByID(ctx context.Context, id string) (*models.Meme, error)
	List(ctx context.Context, sortBy string, limit, offset int) ([]*models.Meme, error)
	// UpdateURL persists a refreshed presigned URL and its expiry.
	UpdateURL(ctx context.Context, id, imgURL string, expire time.Time) error
	LikeExists(ctx context.Context, username, memeID string) (bool, error)
	// InsertLike creates the vote record if absent. Returns false when the
	// record already existed (conflict swallowed at the storage boundary).
	InsertLike(ctx context.Context, username, memeID string) (bool, error)
	// DeleteLike removes the vote record. Returns false when no record existed.
	DeleteLike(ctx context.Context, username, memeID string) (bool, error)
	// AdjustLikes applies a relative change to the denormalized counter and
	// fails when the meme row is gone.
	AdjustLikes(ctx context.Context, memeID string, delta int) error
	CountLikes(ctx context.Context, memeID string) (int64, error)
}

type memeRepository struct {
	db *gorm.DB
}

// NewMemeRepository returns a new MemeRepository implementation.
func NewMemeRepository(db *gorm.DB) MemeRepository {
	return &memeRepository{db: db}
}

func (r *memeRepository) Create(ctx context.Context, meme *models.Meme) error {
	if err := r.db.WithContext(ctx).Create(meme).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *memeRepository) GetByID(ctx context.Context, id string) (*models.Meme, error) {
	var meme models.Meme
	err := cache.Aside(ctx, cache.MemeKey(id), &meme, cache.MemeTTL, func() error {
		if err := r.db.WithContext(ctx).First(&meme, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Meme", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &meme, nil
}

func (r *memeRepository) List(ctx context.Context, sortBy string, limit, offset int) ([]*models.Meme, error) {
	order := "created_at DESC"
	if sortBy == SortTop {
		order = "likes DESC"
	}

	var memes []*models.Meme
	if err := r.db.WithContext(ctx).
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(&memes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return memes, nil
}

func (r *memeRepository) UpdateURL(ctx context.Context, id, imgURL string, expire time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Meme{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"img_url": imgURL, "url_expire": expire})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Meme", id)
	}
	cache.InvalidateMeme(ctx, id)
	return nil
}

func (r *memeRepository) LikeExists(ctx context.Context, username, memeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("username = ? AND meme_id = ?", username, memeID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *memeRepository) InsertLike(ctx context.Context, username, memeID string) (bool, error) {
	// INSERT ... ON CONFLICT DO NOTHING is atomic against the unique index on
	// (username, meme_id); a concurrent duplicate insert affects zero rows
	// instead of erroring.
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO likes (username, meme_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (username, meme_id) DO NOTHING`,
		username, memeID, time.Now(),
	)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *memeRepository) DeleteLike(ctx context.Context, username, memeID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("username = ? AND meme_id = ?", username, memeID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *memeRepository) AdjustLikes(ctx context.Context, memeID string, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Meme{}).
		Where("id = ?", memeID).
		Update("likes", gorm.Expr("likes + ?", delta))
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewInternalError(fmt.Errorf("like counter update affected no rows for meme %s", memeID))
	}
	cache.InvalidateMeme(ctx, memeID)
	return nil
}

func (r *memeRepository) CountLikes(ctx context.Context, memeID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("meme_id = ?", memeID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
