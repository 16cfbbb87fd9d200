package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"bhreads/internal/models"
	"bhreads/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBaker struct {
	id    uint
	token string
}

func registerBaker(t *testing.T, app *fiber.App, username string) testBaker {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@bhreads.dev",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, status, body)
	user := body["user"].(map[string]any)
	return testBaker{id: uint(user["id"].(float64)), token: body["token"].(string)}
}

func createPost(t *testing.T, app *fiber.App, author testBaker, title string) uint {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/posts", author.token, map[string]any{
		"title":    title,
		"content":  "72 hour cold ferment, 78% hydration.",
		"category": "sourdough",
		"tags":     []string{"levain", "Open Crumb"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	post := body["post"].(map[string]any)
	return uint(post["id"].(float64))
}

func TestHealthEndpoints(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["status"])

	status, body = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	app, _, _ := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, models.CodeNotFound, body["code"])
}

func TestAuthFlow(t *testing.T) {
	app, _, _ := newTestApp(t)
	baker := registerBaker(t, app, "baker1")

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "baker1", "email": "other@bhreads.dev", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", body["message"])

	status, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "baker1@bhreads.dev", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, body = doJSON(t, app, http.MethodGet, "/api/auth/me", baker.token, nil)
	require.Equal(t, http.StatusOK, status)
	me := body["user"].(map[string]any)
	assert.Equal(t, "baker1", me["username"])
	assert.Equal(t, "user", me["role"])
	assert.NotContains(t, me, "password")

	status, body = doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authorization required", body["message"])

	status, body = doJSON(t, app, http.MethodGet, "/api/auth/me", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", body["message"])

	status, body = doJSON(t, app, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestPostLifecycle(t *testing.T) {
	app, _, _ := newTestApp(t)
	baker1 := registerBaker(t, app, "baker1")
	baker2 := registerBaker(t, app, "baker2")

	status, _ := doJSON(t, app, http.MethodPost, "/api/posts", "", map[string]any{
		"title": "My first loaf", "content": "crumb shot",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/posts", baker1.token, map[string]any{
		"title": "Hi", "content": "too short a title",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body["code"])

	postID := createPost(t, app, baker1, "My first loaf")
	postPath := fmt.Sprintf("/api/posts/%d", postID)

	// Anonymous feed
	status, body = doJSON(t, app, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(1), body["totalPages"])
	assert.Equal(t, float64(1), body["currentPage"])
	feed := body["posts"].([]any)
	require.Len(t, feed, 1)
	first := feed[0].(map[string]any)
	assert.Equal(t, false, first["isLiked"])
	assert.Equal(t, []any{"levain", "open crumb"}, first["tags"])
	author := first["author"].(map[string]any)
	assert.Equal(t, "baker1", author["username"])
	assert.NotContains(t, author, "email")

	// Like toggles
	status, body = doJSON(t, app, http.MethodPost, postPath+"/like", baker2.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["isLiked"])
	assert.Equal(t, float64(1), body["likeCount"])

	status, body = doJSON(t, app, http.MethodGet, "/api/posts", baker2.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["posts"].([]any)[0].(map[string]any)["isLiked"])

	status, body = doJSON(t, app, http.MethodPost, postPath+"/like", baker2.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["isLiked"])
	assert.Equal(t, float64(0), body["likeCount"])

	// Edit is owner-only
	status, body = doJSON(t, app, http.MethodPut, postPath, baker2.token, map[string]any{"title": "Stolen loaf"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You can only update your own posts", body["message"])

	status, body = doJSON(t, app, http.MethodPut, postPath, baker1.token, map[string]any{"category": "rye"})
	require.Equal(t, http.StatusOK, status)
	updated := body["post"].(map[string]any)
	assert.Equal(t, "rye", updated["category"])
	assert.Equal(t, "My first loaf", updated["title"])

	// Filters
	status, body = doJSON(t, app, http.MethodGet, "/api/posts?category=rye&tag=levain", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])

	status, body = doJSON(t, app, http.MethodGet, "/api/posts?breadType=baguette", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["total"])
	assert.Empty(t, body["posts"])

	status, _ = doJSON(t, app, http.MethodGet, "/api/posts?category=pretzel", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// Delete
	status, body = doJSON(t, app, http.MethodDelete, postPath, baker2.token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not authorized to delete this post", body["message"])

	status, body = doJSON(t, app, http.MethodDelete, postPath, baker1.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Post deleted", body["message"])

	status, body = doJSON(t, app, http.MethodGet, postPath, baker1.token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, body["code"])

	status, _ = doJSON(t, app, http.MethodGet, "/api/posts/abc", baker1.token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCommentsAndReposts(t *testing.T) {
	app, _, _ := newTestApp(t)
	baker1 := registerBaker(t, app, "baker1")
	baker2 := registerBaker(t, app, "baker2")
	postID := createPost(t, app, baker1, "Seeded rye loaf")
	postPath := fmt.Sprintf("/api/posts/%d", postID)

	status, body := doJSON(t, app, http.MethodPost, postPath+"/comments", baker2.token, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Comment content is required", body["message"])

	status, body = doJSON(t, app, http.MethodPost, postPath+"/comments", baker2.token, map[string]string{"content": "Great crumb!"})
	require.Equal(t, http.StatusOK, status)
	comments := body["comments"].([]any)
	require.Len(t, comments, 1)
	comment := comments[0].(map[string]any)
	assert.Equal(t, "Great crumb!", comment["content"])
	assert.Equal(t, "baker2", comment["author"].(map[string]any)["username"])
	commentPath := fmt.Sprintf("%s/comments/%s", postPath, comment["id"])

	status, body = doJSON(t, app, http.MethodPost, commentPath+"/like", baker1.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["isLiked"])
	assert.Equal(t, float64(1), body["likeCount"])

	status, _ = doJSON(t, app, http.MethodPost, postPath+"/comments/missing/like", baker1.token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = doJSON(t, app, http.MethodGet, postPath, baker1.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["post"].(map[string]any)["commentCount"])

	// Repost once
	status, body = doJSON(t, app, http.MethodPost, postPath+"/repost", baker2.token, nil)
	require.Equal(t, http.StatusOK, status)
	repost := body["repost"].(map[string]any)
	assert.Equal(t, "Repost: Seeded rye loaf", repost["title"])
	assert.Equal(t, true, repost["isRepost"])
	original := repost["originalPost"].(map[string]any)
	assert.Equal(t, float64(postID), original["id"])
	assert.Equal(t, float64(1), original["repostCount"])

	status, body = doJSON(t, app, http.MethodPost, postPath+"/repost", baker2.token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You have already reposted this post", body["message"])

	status, body = doJSON(t, app, http.MethodGet, "/api/posts", baker2.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["total"])

	// Comment deletion: the post owner is not the comment author
	status, _ = doJSON(t, app, http.MethodDelete, commentPath, baker1.token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, app, http.MethodDelete, commentPath, baker2.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["comments"])
}

func TestProfilesAndRoles(t *testing.T) {
	app, srv, _ := newTestApp(t)
	baker := registerBaker(t, app, "baker1")
	admin := registerBaker(t, app, "headbaker")
	createPost(t, app, baker, "Weekend baguettes")

	status, body := doJSON(t, app, http.MethodPut, "/api/users/profile", baker.token, map[string]string{
		"bio": "Levain keeper", "favoriteItem": "Baguette",
	})
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Levain keeper", user["bio"])
	assert.Equal(t, "Baguette", user["favoriteItem"])

	status, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d", baker.id), "", nil)
	require.Equal(t, http.StatusOK, status)
	profile := body["user"].(map[string]any)
	assert.Equal(t, "baker1", profile["username"])
	assert.Equal(t, float64(1), profile["postCount"])
	assert.NotContains(t, profile, "email")

	status, _ = doJSON(t, app, http.MethodGet, "/api/users/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	rolePath := fmt.Sprintf("/api/users/%d/role", baker.id)
	status, body = doJSON(t, app, http.MethodPut, rolePath, baker.token, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Admin access required", body["message"])

	require.NoError(t, srv.userRepo.UpdateRole(context.Background(), admin.id, models.RoleAdmin))

	status, body = doJSON(t, app, http.MethodPut, rolePath, admin.token, map[string]string{"role": "chef"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Role must be one of: user, moderator, admin", body["message"])

	status, body = doJSON(t, app, http.MethodPut, rolePath, admin.token, map[string]string{"role": "moderator"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "moderator", body["user"].(map[string]any)["role"])

	status, body = doJSON(t, app, http.MethodGet, "/api/auth/role", baker.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "moderator", body["role"])
	assert.Equal(t, true, body["isModerator"])
	assert.Equal(t, false, body["isAdmin"])
}

func TestAdminMayDeleteAnyPost(t *testing.T) {
	app, srv, db := newTestApp(t)
	baker := registerBaker(t, app, "baker1")
	admin := registerBaker(t, app, "headbaker")
	postID := createPost(t, app, baker, "Brioche braid")

	users := repository.NewUserRepository(db)
	require.NoError(t, users.UpdateRole(context.Background(), admin.id, models.RoleAdmin))

	status, _ := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), admin.token, nil)
	assert.Equal(t, http.StatusOK, status)

	count, err := srv.postRepo.CountByAuthor(context.Background(), baker.id)
	require.NoError(t, err)
	assert.Zero(t, count)
}
