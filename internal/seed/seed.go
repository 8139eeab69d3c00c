// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"memehub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls how much demo data is generated.
type Options struct {
	Users    int
	Memes    int
	MaxDays  int // spread of created_at timestamps, in days back from now
	Password string
}

// DefaultOptions returns a small but lively data set.
func DefaultOptions() Options {
	return Options{
		Users:    10,
		Memes:    40,
		MaxDays:  30,
		Password: "password123",
	}
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample user with the default scope
// bundle. Optional override functions may modify it before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(f.opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Email:        gofakeit.Email(),
		FullName:     gofakeit.Name(),
		PasswordHash: string(hash),
		Scopes:       models.DefaultUserScopes(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateMeme constructs and persists a sample meme owned by the given user.
// Seeded memes point at placeholder images instead of the object store; the
// far-future expiry keeps the lazy refresher away from them.
func (f *Factory) CreateMeme(owner *models.User, overrides ...func(*models.Meme)) (*models.Meme, error) {
	seed := gofakeit.UUID()
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}

	meme := &models.Meme{
		Title:       gofakeit.Sentence(4),
		Description: gofakeit.Sentence(10),
		ObjectName:  seed + ".jpg",
		Filename:    gofakeit.Word() + ".jpg",
		ImgURL:      fmt.Sprintf("https://picsum.photos/seed/%s/800/800", seed),
		URLExpire:   time.Now().Add(365 * 24 * time.Hour),
		Owner:       owner.Username,
		CreatedAt: time.Now().
			Add(-time.Duration(f.rand.Intn(maxDays)) * 24 * time.Hour).
			Add(-time.Duration(f.rand.Intn(24)) * time.Hour),
	}
	for _, override := range overrides {
		override(meme)
	}
	if err := f.db.Create(meme).Error; err != nil {
		return nil, err
	}
	return meme, nil
}

// Like records a vote and bumps the counter, mirroring what the toggle does
// at runtime so the seeded counters stay consistent with the vote records.
func (f *Factory) Like(user *models.User, meme *models.Meme) error {
	like := &models.Like{
		Username:  user.Username,
		MemeID:    meme.ID,
		CreatedAt: time.Now(),
	}
	if err := f.db.Create(like).Error; err != nil {
		return err
	}
	return f.db.Model(&models.Meme{}).
		Where("id = ?", meme.ID).
		UpdateColumn("likes", gorm.Expr("likes + 1")).Error
}

// Run populates the database with users, memes and a random like mesh.
func Run(db *gorm.DB, opts Options) error {
	factory := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		users = append(users, user)
	}

	memes := make([]*models.Meme, 0, opts.Memes)
	for i := 0; i < opts.Memes; i++ {
		owner := users[factory.rand.Intn(len(users))]
		meme, err := factory.CreateMeme(owner)
		if err != nil {
			return fmt.Errorf("seed meme: %w", err)
		}
		memes = append(memes, meme)
	}

	// Each user likes a random subset of memes.
	var likes int
	for _, user := range users {
		for _, meme := range memes {
			if factory.rand.Intn(100) < 25 {
				if err := factory.Like(user, meme); err != nil {
					return fmt.Errorf("seed like: %w", err)
				}
				likes++
			}
		}
	}

	log.Printf("Seeded %d users, %d memes, %d likes", len(users), len(memes), likes)
	return nil
}
