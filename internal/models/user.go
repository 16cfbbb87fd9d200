package models

import (
	"fmt"
	"net/url"
	"time"
)

const (
	DefaultBio          = "🍞 Bread lover"
	DefaultFavoriteItem = "Sourdough"

	MaxBioLength          = 160
	MaxFavoriteItemLength = 100
	MaxAvatarLength       = 2048
)

// User is an account. Password holds the bcrypt hash and is never serialized.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password     string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;default:user" json:"role"`
	Avatar       string    `gorm:"size:2048" json:"avatar"`
	Bio          string    `gorm:"size:160" json:"bio"`
	FavoriteItem string    `gorm:"size:100" json:"favoriteItem"`
	LastActive   time.Time `json:"lastActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUser builds a user with the default profile applied. passwordHash must
// already be hashed.
func NewUser(username, email, passwordHash string, now time.Time) *User {
	return &User{
		Username:     username,
		Email:        email,
		Password:     passwordHash,
		Role:         RoleUser,
		Avatar:       DefaultAvatar(username),
		Bio:          DefaultBio,
		FavoriteItem: DefaultFavoriteItem,
		LastActive:   now,
	}
}

// DefaultAvatar returns the generated avatar URL seeded by username.
func DefaultAvatar(username string) string {
	return fmt.Sprintf(
		"https://api.dicebear.com/7.x/avataaars/svg?seed=%s&backgroundColor=b6e3f4,c0aede,d1d4f9",
		url.QueryEscape(username),
	)
}

// ApplyDefaults fills any profile field left empty by older records and
// reports whether something changed.
func (u *User) ApplyDefaults(now time.Time) bool {
	changed := false
	if !u.Role.Valid() {
		u.Role = RoleUser
		changed = true
	}
	if u.Avatar == "" {
		u.Avatar = DefaultAvatar(u.Username)
		changed = true
	}
	if u.Bio == "" {
		u.Bio = DefaultBio
		changed = true
	}
	if u.FavoriteItem == "" {
		u.FavoriteItem = DefaultFavoriteItem
		changed = true
	}
	if u.LastActive.IsZero() {
		u.LastActive = now
		changed = true
	}
	return changed
}

// UserSummary is the author projection embedded in posts and comments.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Role     Role   `json:"role,omitempty"`
}

// TableName maps the projection onto the users table so posts can preload it.
func (UserSummary) TableName() string { return "users" }

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar, Role: u.Role}
}

// PublicProfile is what anonymous visitors may see of an account.
type PublicProfile struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar"`
	Bio          string    `json:"bio"`
	FavoriteItem string    `json:"favoriteItem"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActive   time.Time `json:"lastActive"`
	PostCount    int64     `json:"postCount"`
}

func (u *User) PublicProfile(postCount int64) *PublicProfile {
	return &PublicProfile{
		ID:           u.ID,
		Username:     u.Username,
		Avatar:       u.Avatar,
		Bio:          u.Bio,
		FavoriteItem: u.FavoriteItem,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		LastActive:   u.LastActive,
		PostCount:    postCount,
	}
}
