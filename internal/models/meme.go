package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meme represents an uploaded meme. The Likes column is a denormalized
// counter; the Like records are the source of truth and the counter must
// always equal the number of Like rows referencing this meme.
type Meme struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ObjectName  string    `gorm:"not null" json:"object_name"`
	Filename    string    `json:"filename"`
	ImgURL      string    `gorm:"type:text" json:"img_url"`
	URLExpire   time.Time `json:"url_expire"`
	Owner       string    `gorm:"index;not null" json:"owner"`
	Likes       int       `gorm:"not null;default:0" json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate assigns an opaque identifier when none is set.
func (m *Meme) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
