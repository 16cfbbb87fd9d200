package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
	"gorm.io/datatypes"
)

const (
	MinTitleLength    = 5
	MaxTitleLength    = 200
	MaxContentLength  = 5000
	MaxCommentLength  = 500
	MaxImageURLLength = 2048
	MaxTags           = 20
	MaxTagLength      = 40

	RepostTitlePrefix = "Repost: "
)

// Category classifies a post by bread type.
type Category string

const (
	CategorySourdough Category = "sourdough"
	CategoryBaguette  Category = "baguette"
	CategoryCroissant Category = "croissant"
	CategoryBrioche   Category = "brioche"
	CategoryCiabatta  Category = "ciabatta"
	CategoryRye       Category = "rye"
	CategoryOther     Category = "other"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategorySourdough, CategoryBaguette, CategoryCroissant,
	CategoryBrioche, CategoryCiabatta, CategoryRye, CategoryOther,
}

// ParseCategory accepts an empty value as CategoryOther.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryOther, true
	}
	c := Category(s)
	return c, lo.Contains(Categories, c)
}

// Post is stored as one row: the like and repost sets and the comment thread
// live in JSON columns next to their derived counters.
type Post struct {
	ID             uint                         `gorm:"primaryKey" json:"id"`
	Title          string                       `gorm:"size:200;not null" json:"title"`
	Content        string                       `gorm:"type:text;not null" json:"content"`
	AuthorID       uint                         `gorm:"not null;index" json:"authorId"`
	Author         *UserSummary                 `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Category       Category                     `gorm:"size:32;not null;default:other;index" json:"category"`
	ImageURL       string                       `gorm:"size:2048" json:"imageUrl"`
	Tags           datatypes.JSONSlice[string]  `json:"tags"`
	Likes          datatypes.JSONSlice[uint]    `json:"likes"`
	LikeCount      int                          `gorm:"not null;default:0" json:"likeCount"`
	Comments       datatypes.JSONSlice[Comment] `json:"comments"`
	CommentCount   int                          `gorm:"not null;default:0" json:"commentCount"`
	Reposts        datatypes.JSONSlice[uint]    `json:"reposts"`
	RepostCount    int                          `gorm:"not null;default:0" json:"repostCount"`
	IsRepost       bool                         `gorm:"not null;default:false" json:"isRepost"`
	OriginalPostID *uint                        `gorm:"index" json:"originalPostId,omitempty"`
	OriginalPost   *Post                        `gorm:"foreignKey:OriginalPostID;constraint:OnDelete:SET NULL" json:"originalPost,omitempty"`
	CreatedAt      time.Time                    `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time                    `json:"updatedAt"`

	// Computed per viewer
	IsLiked    bool `gorm:"-" json:"isLiked"`
	IsReposted bool `gorm:"-" json:"isReposted"`
}

// NewPost builds a post with empty engagement sets and consistent counters.
func NewPost(authorID uint, title, content string, category Category, imageURL string, tags []string) *Post {
	p := &Post{
		Title:    title,
		Content:  content,
		AuthorID: authorID,
		Category: category,
		ImageURL: imageURL,
		Tags:     NormalizeTags(tags),
		Likes:    datatypes.JSONSlice[uint]{},
		Comments: datatypes.JSONSlice[Comment]{},
		Reposts:  datatypes.JSONSlice[uint]{},
	}
	p.Recount()
	return p
}

// NewRepost copies the shareable parts of original into a post owned by userID.
func NewRepost(original *Post, userID uint) *Post {
	p := NewPost(userID, RepostTitle(original.Title), original.Content,
		original.Category, original.ImageURL, original.Tags)
	id := original.ID
	p.IsRepost = true
	p.OriginalPostID = &id
	return p
}

// RepostTitle prefixes title and keeps the result within the title limit.
func RepostTitle(title string) string {
	t := RepostTitlePrefix + title
	if utf8.RuneCountInString(t) <= MaxTitleLength {
		return t
	}
	return string([]rune(t)[:MaxTitleLength])
}

// Recount sets every derived counter from the size of its source set.
func (p *Post) Recount() {
	p.LikeCount = len(p.Likes)
	p.CommentCount = len(p.Comments)
	p.RepostCount = len(p.Reposts)
	for i := range p.Comments {
		p.Comments[i].LikeCount = len(p.Comments[i].Likes)
	}
}

// FindComment returns the index of the comment with id, or -1.
func (p *Post) FindComment(id string) int {
	_, idx, ok := lo.FindIndexOf([]Comment(p.Comments), func(c Comment) bool {
		return c.ID == id
	})
	if !ok {
		return -1
	}
	return idx
}

// ApplyViewer sets the per-viewer flags. A zero viewer sees everything unliked.
func (p *Post) ApplyViewer(viewerID uint) {
	p.IsLiked = viewerID != 0 && lo.Contains(p.Likes, viewerID)
	p.IsReposted = viewerID != 0 && lo.Contains(p.Reposts, viewerID)
	for i := range p.Comments {
		p.Comments[i].IsLiked = viewerID != 0 && lo.Contains(p.Comments[i].Likes, viewerID)
	}
}

// NormalizeTags trims, lowercases and de-duplicates tags, dropping empties.
func NormalizeTags(tags []string) []string {
	out := lo.Uniq(lo.FilterMap(tags, func(t string, _ int) (string, bool) {
		t = strings.ToLower(strings.TrimSpace(t))
		return t, t != ""
	}))
	if out == nil {
		return []string{}
	}
	return out
}
