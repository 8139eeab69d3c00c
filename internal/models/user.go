// Package models contains data structures for the application's domain models.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ScopeList is a set of capability strings granted to a user. It is stored
// as a JSON array in a single text column so the same model works on
// PostgreSQL and the SQLite driver used in tests.
type ScopeList []string

// Value implements driver.Valuer.
func (s ScopeList) Value() (driver.Value, error) {
	if s == nil {
		s = ScopeList{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *ScopeList) Scan(value interface{}) error {
	if value == nil {
		*s = ScopeList{}
		return nil
	}
	switch v := value.(type) {
	case string:
		return json.Unmarshal([]byte(v), s)
	case []byte:
		return json.Unmarshal(v, s)
	default:
		return fmt.Errorf("cannot scan %T into ScopeList", value)
	}
}

// Contains reports whether the exact scope string is present.
func (s ScopeList) Contains(scope string) bool {
	for _, sc := range s {
		if sc == scope {
			return true
		}
	}
	return false
}

// User represents an account. Username is the unique, immutable key; the
// password hash is never serialized to API responses.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Disabled     bool      `gorm:"not null;default:false" json:"disabled"`
	Scopes       ScopeList `gorm:"type:text;not null" json:"scopes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
