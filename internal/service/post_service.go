package service

import (
	"context"
	"strings"

	"bhreads/internal/models"
	"bhreads/internal/observability"
	"bhreads/internal/repository"
	"bhreads/internal/validation"

	"github.com/samber/lo"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// RoleLookup resolves the role of a user.
type RoleLookup func(ctx context.Context, userID uint) (models.Role, error)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	roleOf   RoleLookup
}

type CreatePostInput struct {
	AuthorID uint     `json:"-"`
	Title    string   `json:"title" validate:"required,min=5,max=200"`
	Content  string   `json:"content" validate:"required,max=5000"`
	Category string   `json:"category"`
	ImageURL string   `json:"imageUrl" validate:"max=2048"`
	Tags     []string `json:"tags" validate:"max=20,dive,max=40"`
}

// UpdatePostInput holds a partial edit; nil fields keep their value.
type UpdatePostInput struct {
	PostID   uint      `json:"-"`
	UserID   uint      `json:"-"`
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	ImageURL *string   `json:"imageUrl"`
	Tags     *[]string `json:"tags"`
}

type ListPostsInput struct {
	Page     int
	Limit    int
	Category string
	Tag      string
	ViewerID uint
}

// PostPage is one page of the feed.
type PostPage struct {
	Posts       []*models.Post `json:"posts"`
	Total       int64          `json:"total"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, roleOf RoleLookup) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		roleOf:   roleOf,
	}
}

// validatePost trims and validates in and resolves its category.
func validatePost(in *CreatePostInput) (models.Category, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := validation.Struct(in); err != nil {
		return "", err
	}
	category, ok := models.ParseCategory(in.Category)
	if !ok {
		return "", models.NewValidationError("Invalid category")
	}
	return category, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	category, err := validatePost(&in)
	if err != nil {
		return nil, err
	}

	post = models.NewPost(in.AuthorID, in.Title, in.Content, category, in.ImageURL, in.Tags)
	if err = s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID, in.AuthorID)
}

// ListPosts returns the newest posts first. Page and limit fall back to
// their defaults when out of range.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*PostPage, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit <= 0 {
		in.Limit = DefaultPageSize
	}
	if in.Limit > MaxPageSize {
		in.Limit = MaxPageSize
	}

	filter := repository.PostFilter{
		Tag:    in.Tag,
		Limit:  in.Limit,
		Offset: (in.Page - 1) * in.Limit,
	}
	if strings.TrimSpace(in.Category) != "" {
		category, ok := models.ParseCategory(in.Category)
		if !ok {
			return nil, models.NewValidationError("Invalid category")
		}
		filter.Category = category
	}

	posts, total, err := s.postRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := decorate(ctx, s.userRepo, in.ViewerID, posts...); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	return &PostPage{
		Posts:       posts,
		Total:       total,
		TotalPages:  int((total + int64(in.Limit) - 1) / int64(in.Limit)),
		CurrentPage: in.Page,
	}, nil
}

func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := decorate(ctx, s.userRepo, viewerID, post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost applies a partial edit. Only the author may edit a post.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "UpdatePost")
	defer func() { observability.EndSpan(span, err) }()

	post, err = s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	merged := CreatePostInput{
		AuthorID: post.AuthorID,
		Title:    lo.FromPtrOr(in.Title, post.Title),
		Content:  lo.FromPtrOr(in.Content, post.Content),
		Category: lo.FromPtrOr(in.Category, string(post.Category)),
		ImageURL: lo.FromPtrOr(in.ImageURL, post.ImageURL),
		Tags:     lo.FromPtrOr(in.Tags, []string(post.Tags)),
	}
	category, err := validatePost(&merged)
	if err != nil {
		return nil, err
	}

	post.Title = merged.Title
	post.Content = merged.Content
	post.Category = category
	post.ImageURL = merged.ImageURL
	post.Tags = models.NormalizeTags(merged.Tags)
	post.Recount()
	if err = s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID, in.UserID)
}

// DeletePost removes a post and its comments. Authors and admins may delete.
// Deleting a repost also frees the reposter's slot on the original.
func (s *PostService) DeletePost(ctx context.Context, postID, callerID uint) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "DeletePost")
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	role, err := s.roleOf(ctx, callerID)
	if err != nil {
		return err
	}
	if !models.CanModify(callerID, role, post.AuthorID) {
		return models.NewForbiddenError("Not authorized to delete this post")
	}

	return s.postRepo.Transaction(ctx, func(tx repository.PostRepository) error {
		if err := tx.Delete(ctx, post.ID); err != nil {
			return err
		}
		if !post.IsRepost || post.OriginalPostID == nil {
			return nil
		}
		original, err := tx.GetByID(ctx, *post.OriginalPostID)
		if err != nil {
			if models.AsAppError(err).Code == models.CodeNotFound {
				return nil
			}
			return err
		}
		if !lo.Contains(original.Reposts, post.AuthorID) {
			return nil
		}
		original.Reposts = lo.Without(original.Reposts, post.AuthorID)
		original.Recount()
		return tx.Update(ctx, original)
	})
}

// decorate fills comment authors and the per-viewer flags of posts.
func decorate(ctx context.Context, userRepo repository.UserRepository, viewerID uint, posts ...*models.Post) error {
	var ids []uint
	for _, p := range posts {
		for _, c := range p.Comments {
			ids = append(ids, c.AuthorID)
		}
	}

	authors := map[uint]*models.UserSummary{}
	if ids = lo.Uniq(ids); len(ids) > 0 {
		users, err := userRepo.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for i := range users {
			authors[users[i].ID] = users[i].Summary()
		}
	}

	for _, p := range posts {
		for i := range p.Comments {
			p.Comments[i].Author = authors[p.Comments[i].AuthorID]
		}
		p.ApplyViewer(viewerID)
		if p.OriginalPost != nil {
			p.OriginalPost.ApplyViewer(viewerID)
		}
	}
	return nil
}
