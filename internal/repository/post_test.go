package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"bhreads/internal/models"
	"bhreads/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedBaker(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.NewUser(username, username+"@bhreads.dev", "hash", time.Now())
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func TestPostRepository_ListTagPostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "posts" WHERE tags @> \$1::jsonb`).
		WithArgs(`["salt&pepper"]`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE tags @> \$1::jsonb`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	posts, total, err := repo.List(context.Background(), PostFilter{Tag: "Salt&Pepper", Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	baker := seedBaker(t, db, "baker1")

	post := models.NewPost(baker.ID, "Open crumb sourdough", "72 hour ferment", models.CategorySourdough, "", []string{"Levain", "crumb"})
	require.NoError(t, repo.Create(ctx, post))
	require.NotZero(t, post.ID)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Open crumb sourdough", got.Title)
	assert.Equal(t, []string{"levain", "crumb"}, []string(got.Tags))
	require.NotNil(t, got.Author)
	assert.Equal(t, "baker1", got.Author.Username)
	assert.Equal(t, baker.Avatar, got.Author.Avatar)
	assert.Empty(t, got.Likes)
	assert.Zero(t, got.LikeCount)

	_, err = repo.GetByID(ctx, 9999)
	assert.Equal(t, models.CodeNotFound, models.AsAppError(err).Code)
}

func TestPostRepository_UpdateStoresEngagement(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	baker := seedBaker(t, db, "baker1")
	fan := seedBaker(t, db, "fan")

	post := models.NewPost(baker.ID, "Country loaf", "Crackly crust", models.CategorySourdough, "", nil)
	require.NoError(t, repo.Create(ctx, post))

	comment := models.NewComment(fan.ID, "Beautiful ear", time.Now())
	comment.Author = &models.UserSummary{ID: fan.ID, Username: "fan"}
	comment.IsLiked = true
	comment.Likes = []uint{baker.ID}
	post.Comments = append(post.Comments, comment)
	post.Likes = append(post.Likes, fan.ID)
	post.Recount()
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)
	assert.Equal(t, []uint{fan.ID}, []uint(got.Likes))
	require.Len(t, got.Comments, 1)
	assert.Equal(t, comment.ID, got.Comments[0].ID)
	assert.Equal(t, 1, got.Comments[0].LikeCount)
	assert.Nil(t, got.Comments[0].Author)
	assert.False(t, got.Comments[0].IsLiked)
	assert.Equal(t, 1, got.CommentCount)

	// The caller's copy keeps its response fields.
	assert.NotNil(t, post.Comments[0].Author)
}

func TestPostRepository_UpdateMissingPost(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	baker := seedBaker(t, db, "baker1")

	post := models.NewPost(baker.ID, "Ghost loaf", "Gone", models.CategoryOther, "", nil)
	require.NoError(t, repo.Create(ctx, post))
	require.NoError(t, repo.Delete(ctx, post.ID))

	err := repo.Update(ctx, post)
	assert.Equal(t, models.CodeNotFound, models.AsAppError(err).Code)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostRepository_ListFiltersAndPages(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	baker := seedBaker(t, db, "baker1")

	base := time.Now().Add(-time.Hour)
	fixtures := []struct {
		title    string
		category models.Category
		tags     []string
	}{
		{"First sourdough", models.CategorySourdough, []string{"levain"}},
		{"Second sourdough", models.CategorySourdough, []string{"levain", "rye"}},
		{"Butter croissant", models.CategoryCroissant, []string{"lamination"}},
		{"Dark rye loaf", models.CategoryRye, []string{"ryebread"}},
		{"Seeded ciabatta", models.CategoryCiabatta, []string{"salt&pepper", "<b>"}},
	}
	for i, f := range fixtures {
		post := models.NewPost(baker.ID, f.title, "content", f.category, "", f.tags)
		post.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, post))
	}

	t.Run("newest first", func(t *testing.T) {
		posts, total, err := repo.List(ctx, PostFilter{Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		require.Len(t, posts, 5)
		assert.Equal(t, "Seeded ciabatta", posts[0].Title)
		assert.Equal(t, "First sourdough", posts[4].Title)
		require.NotNil(t, posts[0].Author)
	})

	t.Run("paging keeps total", func(t *testing.T) {
		posts, total, err := repo.List(ctx, PostFilter{Limit: 3, Offset: 4})
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		require.Len(t, posts, 1)
		assert.Equal(t, "First sourdough", posts[0].Title)
	})

	t.Run("category", func(t *testing.T) {
		posts, total, err := repo.List(ctx, PostFilter{Category: models.CategorySourdough, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, posts, 2)
	})

	t.Run("tag matches whole elements only", func(t *testing.T) {
		posts, total, err := repo.List(ctx, PostFilter{Tag: " RYE ", Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, posts, 1)
		assert.Equal(t, "Second sourdough", posts[0].Title)
	})

	t.Run("tags with html characters", func(t *testing.T) {
		for _, tag := range []string{"salt&pepper", "<b>"} {
			posts, total, err := repo.List(ctx, PostFilter{Tag: tag, Limit: 10})
			require.NoError(t, err)
			assert.EqualValues(t, 1, total, tag)
			require.Len(t, posts, 1)
			assert.Equal(t, "Seeded ciabatta", posts[0].Title)
		}
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		_, total, err := repo.List(ctx, PostFilter{Tag: "%", Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestPostRepository_DeleteAndCount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	baker := seedBaker(t, db, "baker1")
	other := seedBaker(t, db, "baker2")

	first := models.NewPost(baker.ID, "Focaccia slab", "Dimpled", models.CategoryOther, "", nil)
	second := models.NewPost(baker.ID, "Ciabatta pair", "Holey", models.CategoryCiabatta, "", nil)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	count, err := repo.CountByAuthor(ctx, baker.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = repo.CountByAuthor(ctx, other.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, repo.Delete(ctx, first.ID))
	err = repo.Delete(ctx, first.ID)
	assert.Equal(t, models.CodeNotFound, models.AsAppError(err).Code)

	count, err = repo.CountByAuthor(ctx, baker.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPostRepository_DeleteOriginalDetachesReposts(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	baker := seedBaker(t, db, "baker1")
	other := seedBaker(t, db, "baker2")

	original := models.NewPost(baker.ID, "Country loaf", "Open crumb", models.CategorySourdough, "", nil)
	require.NoError(t, repo.Create(ctx, original))
	repost := models.NewRepost(original, other.ID)
	require.NoError(t, repo.Create(ctx, repost))

	require.NoError(t, repo.Delete(ctx, original.ID))

	got, err := repo.GetByID(ctx, repost.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRepost)
	assert.Nil(t, got.OriginalPostID)
	assert.Nil(t, got.OriginalPost)
}

func TestPostRepository_TransactionRollsBack(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	baker := seedBaker(t, db, "baker1")

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx PostRepository) error {
		post := models.NewPost(baker.ID, "Brioche buns", "Rich", models.CategoryBrioche, "", nil)
		if err := tx.Create(ctx, post); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := repo.CountByAuthor(ctx, baker.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
