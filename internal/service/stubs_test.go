package service

import (
	"context"
	"io"
	"time"

	"memehub/internal/models"
)

// Stub repositories with overridable behavior per test.

type stubUserRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	createFn        func(ctx context.Context, user *models.User) error
	updateFn        func(ctx context.Context, user *models.User) error
	disableFn       func(ctx context.Context, username string) (bool, error)
	deleteFn        func(ctx context.Context, username string) (bool, error)
	listFn          func(ctx context.Context, limit, offset int) ([]models.User, error)
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.getByUsernameFn != nil {
		return s.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	return nil
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, user)
	}
	return nil
}

func (s *stubUserRepo) Disable(ctx context.Context, username string) (bool, error) {
	if s.disableFn != nil {
		return s.disableFn(ctx, username)
	}
	return true, nil
}

func (s *stubUserRepo) Delete(ctx context.Context, username string) (bool, error) {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, username)
	}
	return true, nil
}

func (s *stubUserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if s.listFn != nil {
		return s.listFn(ctx, limit, offset)
	}
	return nil, nil
}

type stubMemeRepo struct {
	createFn     func(ctx context.Context, meme *models.Meme) error
	getByIDFn    func(ctx context.Context, id string) (*models.Meme, error)
	listFn       func(ctx context.Context, sortBy string, limit, offset int) ([]*models.Meme, error)
	updateURLFn  func(ctx context.Context, id, imgURL string, expire time.Time) error
	likeExistsFn func(ctx context.Context, username, memeID string) (bool, error)
	insertLikeFn func(ctx context.Context, username, memeID string) (bool, error)
	deleteLikeFn func(ctx context.Context, username, memeID string) (bool, error)
	adjustFn     func(ctx context.Context, memeID string, delta int) error
	countFn      func(ctx context.Context, memeID string) (int64, error)
}

func (s *stubMemeRepo) Create(ctx context.Context, meme *models.Meme) error {
	if s.createFn != nil {
		return s.createFn(ctx, meme)
	}
	return nil
}

func (s *stubMemeRepo) GetByID(ctx context.Context, id string) (*models.Meme, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, models.NewNotFoundError("meme", id)
}

func (s *stubMemeRepo) List(ctx context.Context, sortBy string, limit, offset int) ([]*models.Meme, error) {
	if s.listFn != nil {
		return s.listFn(ctx, sortBy, limit, offset)
	}
	return nil, nil
}

func (s *stubMemeRepo) UpdateURL(ctx context.Context, id, imgURL string, expire time.Time) error {
	if s.updateURLFn != nil {
		return s.updateURLFn(ctx, id, imgURL, expire)
	}
	return nil
}

func (s *stubMemeRepo) LikeExists(ctx context.Context, username, memeID string) (bool, error) {
	if s.likeExistsFn != nil {
		return s.likeExistsFn(ctx, username, memeID)
	}
	return false, nil
}

func (s *stubMemeRepo) InsertLike(ctx context.Context, username, memeID string) (bool, error) {
	if s.insertLikeFn != nil {
		return s.insertLikeFn(ctx, username, memeID)
	}
	return true, nil
}

func (s *stubMemeRepo) DeleteLike(ctx context.Context, username, memeID string) (bool, error) {
	if s.deleteLikeFn != nil {
		return s.deleteLikeFn(ctx, username, memeID)
	}
	return true, nil
}

func (s *stubMemeRepo) AdjustLikes(ctx context.Context, memeID string, delta int) error {
	if s.adjustFn != nil {
		return s.adjustFn(ctx, memeID, delta)
	}
	return nil
}

func (s *stubMemeRepo) CountLikes(ctx context.Context, memeID string) (int64, error) {
	if s.countFn != nil {
		return s.countFn(ctx, memeID)
	}
	return 0, nil
}

type stubObjectStore struct {
	putFn     func(ctx context.Context, key string, size int64, contentType string) error
	presignFn func(ctx context.Context, key string, ttl time.Duration) (string, error)
	puts      []string
}

func (s *stubObjectStore) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	s.puts = append(s.puts, key)
	if s.putFn != nil {
		return s.putFn(ctx, key, size, contentType)
	}
	return nil
}

func (s *stubObjectStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.presignFn != nil {
		return s.presignFn(ctx, key, ttl)
	}
	return "https://store.local/" + key, nil
}
