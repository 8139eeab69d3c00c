package models

import "time"

// Like records that a user liked a meme. At most one row may exist per
// (username, meme) pair; the unique index is the storage-boundary guard the
// like toggle relies on.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Username  string    `gorm:"not null;uniqueIndex:idx_like_user_meme" json:"user"`
	MemeID    string    `gorm:"not null;size:36;uniqueIndex:idx_like_user_meme" json:"meme"`
	CreatedAt time.Time `json:"created_at"`
}
