package repository

import (
	"context"
	"encoding/json"
	"strings"

	"bhreads/internal/models"
	"bhreads/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows and pages a post listing.
type PostFilter struct {
	Category models.Category
	Tag      string
	Limit    int
	Offset   int
}

// PostRepository defines persistence operations for posts. Comments, likes
// and reposts are part of the post row and are written by Update.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
	// Transaction runs fn against a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(repo PostRepository) error) error
}

type postRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, metrics: observability.NewDatabaseMetrics("posts")}
}

func withAuthors(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("OriginalPost").
		Preload("OriginalPost.Author")
}

// storedCopy strips associations and response-only fields before a write.
func storedCopy(post *models.Post) *models.Post {
	stored := *post
	stored.Author = nil
	stored.OriginalPost = nil
	stored.Comments = models.StoredComments(post.Comments)
	return &stored
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer r.metrics.TrackQuery("create")()
	stored := storedCopy(post)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(stored).Error; err != nil {
		return translateError(err, "Post", post.ID)
	}
	post.ID = stored.ID
	post.CreatedAt = stored.CreatedAt
	post.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer r.metrics.TrackQuery("get_by_id")()
	var post models.Post
	if err := r.db.WithContext(ctx).Scopes(withAuthors).First(&post, id).Error; err != nil {
		return nil, translateError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error) {
	defer r.metrics.TrackQuery("list")()

	query := r.db.WithContext(ctx).Model(&models.Post{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		query = tagFilter(query, tag)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []*models.Post
	err := query.Scopes(withAuthors).
		Order("created_at DESC").Order("id DESC").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// tagFilter keeps posts whose tags array holds tag as a whole element.
func tagFilter(query *gorm.DB, tag string) *gorm.DB {
	if query.Dialector.Name() == "sqlite" {
		// Tags are written as a blob; json_each needs the text form.
		return query.Where("EXISTS (SELECT 1 FROM json_each(CAST(tags AS TEXT)) WHERE json_each.value = ?)", tag)
	}
	element, _ := json.Marshal([]string{tag})
	return query.Where("tags @> ?::jsonb", string(element))
}

// Update rewrites every column of an existing post. It never inserts, so a
// post deleted concurrently stays deleted.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer r.metrics.TrackQuery("update")()
	stored := storedCopy(post)
	result := r.db.WithContext(ctx).Model(stored).
		Select("*").Omit(clause.Associations, "id", "created_at").
		Updates(stored)
	if result.Error != nil {
		return translateError(result.Error, "Post", post.ID)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	post.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes the row, taking its embedded comments with it.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete")()
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return translateError(result.Error, "Post", id)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	// Reposts outlive their original with the link cleared, on every driver.
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("original_post_id = ?", id).
		UpdateColumn("original_post_id", nil).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) Transaction(ctx context.Context, fn func(repo PostRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&postRepository{db: tx, metrics: r.metrics})
	})
}
