package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"memehub/internal/config"
	"memehub/internal/middleware"
	"memehub/internal/models"
	"memehub/internal/observability"
	"memehub/internal/repository"
	"memehub/internal/storage"

	"github.com/google/uuid"
)

// refreshMargin renews URLs slightly before they actually expire so a URL
// returned to a client is never on the verge of dying.
const refreshMargin = time.Minute

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Upload describes an incoming image file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// CreateMemeInput carries the caption fields alongside the file.
type CreateMemeInput struct {
	Title       string
	Description string
	File        Upload
}

// ToggleResult reports the state after a like toggle.
type ToggleResult struct {
	Meme  *models.Meme `json:"meme"`
	Liked bool         `json:"liked"`
}

// MemeService implements the feed, uploads and the like toggle.
type MemeService struct {
	memes     repository.MemeRepository
	store     storage.ObjectStore
	maxUpload int64
}

func NewMemeService(memes repository.MemeRepository, store storage.ObjectStore, cfg *config.Config) *MemeService {
	return &MemeService{
		memes:     memes,
		store:     store,
		maxUpload: int64(cfg.MaxUploadSizeMB) << 20,
	}
}

// CreateMeme validates and stores the uploaded image, then persists the
// meme record with a fresh presigned URL and a zeroed like counter.
func (s *MemeService) CreateMeme(ctx context.Context, principal models.Principal, input CreateMemeInput) (*models.Meme, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, models.NewValidationError("title is required")
	}
	if input.File.Content == nil {
		return nil, models.NewValidationError("image file is required")
	}
	if input.File.Size > s.maxUpload {
		return nil, models.NewValidationError(fmt.Sprintf("file exceeds the %d MB upload limit", s.maxUpload>>20))
	}
	ext := strings.ToLower(filepath.Ext(input.File.Filename))
	if !allowedExtensions[ext] {
		return nil, models.NewValidationError("only .jpg, .jpeg and .png files are accepted")
	}
	if !strings.HasPrefix(input.File.ContentType, "image/") {
		return nil, models.NewValidationError("file does not look like an image")
	}

	objectName := uuid.NewString() + ext
	if err := s.store.Put(ctx, objectName, input.File.Content, input.File.Size, input.File.ContentType); err != nil {
		return nil, models.NewInternalError(err)
	}

	imgURL, err := s.store.PresignedURL(ctx, objectName, storage.URLValidityWindow)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	meme := &models.Meme{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		ObjectName:  objectName,
		Filename:    input.File.Filename,
		ImgURL:      imgURL,
		URLExpire:   time.Now().Add(storage.URLValidityWindow),
		Owner:       principal.Subject,
	}
	if err := s.memes.Create(ctx, meme); err != nil {
		return nil, models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(ctx, "meme created", "meme_id", meme.ID, "owner", meme.Owner)
	return meme, nil
}

// GetMeme fetches a single meme, renewing its download URL if stale.
func (s *MemeService) GetMeme(ctx context.Context, id string) (*models.Meme, error) {
	meme, err := s.memes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.refreshURL(ctx, meme)
	return meme, nil
}

// ListMemes pages through the feed. Stale download URLs are renewed lazily
// as they surface; a failed renewal degrades that one item instead of
// failing the whole page.
func (s *MemeService) ListMemes(ctx context.Context, sortBy string, page, limit int) ([]*models.Meme, error) {
	switch sortBy {
	case "", repository.SortNew:
		sortBy = repository.SortNew
	case repository.SortTop:
	default:
		return nil, models.NewValidationError("sort must be one of: new, top")
	}
	if page < 1 {
		return nil, models.NewValidationError("page must be at least 1")
	}
	if limit < 1 || limit > 100 {
		return nil, models.NewValidationError("limit must be between 1 and 100")
	}

	memes, err := s.memes.List(ctx, sortBy, limit, (page-1)*limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, meme := range memes {
		s.refreshURL(ctx, meme)
	}
	return memes, nil
}

// refreshURL renews the presigned URL when it has expired or is about to.
// Failures leave the stored URL in place; the next read retries.
func (s *MemeService) refreshURL(ctx context.Context, meme *models.Meme) {
	if time.Until(meme.URLExpire) > refreshMargin {
		return
	}
	imgURL, err := s.store.PresignedURL(ctx, meme.ObjectName, storage.URLValidityWindow)
	if err != nil {
		observability.URLRefreshes.WithLabelValues("degraded").Inc()
		middleware.Logger.WarnContext(ctx, "presigned URL refresh failed", "meme_id", meme.ID, "error", err)
		return
	}
	expire := time.Now().Add(storage.URLValidityWindow)
	if err := s.memes.UpdateURL(ctx, meme.ID, imgURL, expire); err != nil {
		observability.URLRefreshes.WithLabelValues("degraded").Inc()
		middleware.Logger.WarnContext(ctx, "presigned URL persist failed", "meme_id", meme.ID, "error", err)
		return
	}
	meme.ImgURL = imgURL
	meme.URLExpire = expire
	observability.URLRefreshes.WithLabelValues("ok").Inc()
}

// ToggleLike flips the caller's like on a meme. The vote record is written
// first and the denormalized counter second, so the counter only ever moves
// when a record actually changed. A counter write that fails after the
// record write is reported loudly; it means the counter has drifted.
func (s *MemeService) ToggleLike(ctx context.Context, principal models.Principal, memeID string) (*ToggleResult, error) {
	meme, err := s.memes.GetByID(ctx, memeID)
	if err != nil {
		return nil, err
	}

	liked, err := s.memes.LikeExists(ctx, principal.Subject, memeID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	var changed bool
	var delta int
	if liked {
		changed, err = s.memes.DeleteLike(ctx, principal.Subject, memeID)
		delta = -1
	} else {
		changed, err = s.memes.InsertLike(ctx, principal.Subject, memeID)
		delta = 1
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	// A concurrent toggle got there first; the record already reflects the
	// target state and the counter must not move again.
	if changed {
		if err := s.memes.AdjustLikes(ctx, memeID, delta); err != nil {
			observability.LikeCounterFailures.Inc()
			middleware.Logger.ErrorContext(ctx, "like counter drifted from vote records",
				"meme_id", memeID, "delta", delta, "error", err)
			return nil, models.NewInternalError(err)
		}
		meme.Likes += delta
	}

	state := "liked"
	if liked {
		state = "unliked"
	}
	observability.LikeToggles.WithLabelValues(state).Inc()

	s.refreshURL(ctx, meme)
	return &ToggleResult{Meme: meme, Liked: !liked}, nil
}
