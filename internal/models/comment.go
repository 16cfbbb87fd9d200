package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment lives inside its post's JSON column and has no table of its own.
// Author and IsLiked are filled for responses and dropped before saving.
type Comment struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	AuthorID  uint         `json:"authorId"`
	Author    *UserSummary `json:"author,omitempty"`
	Likes     []uint       `json:"likes"`
	LikeCount int          `json:"likeCount"`
	IsLiked   bool         `json:"isLiked,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NewComment builds a comment with a fresh id. content must already be trimmed.
func NewComment(authorID uint, content string, now time.Time) Comment {
	return Comment{
		ID:        uuid.NewString(),
		Content:   content,
		AuthorID:  authorID,
		Likes:     []uint{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StoredComments returns a copy of comments without the response-only fields.
func StoredComments(comments []Comment) []Comment {
	out := make([]Comment, len(comments))
	for i, c := range comments {
		c.Author = nil
		c.IsLiked = false
		if c.Likes == nil {
			c.Likes = []uint{}
		}
		out[i] = c
	}
	return out
}
