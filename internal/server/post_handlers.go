package server

import (
	"bhreads/internal/middleware"
	"bhreads/internal/models"
	"bhreads/internal/service"
	"bhreads/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Newest first. A bearer token adds per-viewer flags.
// @Tags posts
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param category query string false "Bread category"
// @Param tag query string false "Tag"
// @Success 200 {object} object{success=bool,posts=[]models.Post,total=int,totalPages=int,currentPage=int}
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	viewerID, _ := middleware.UserID(c)
	category := c.Query("category")
	if category == "" {
		category = c.Query("breadType")
	}

	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", service.DefaultPageSize),
		Category: category,
		Tag:      c.Query("tag"),
		ViewerID: viewerID,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"posts":       page.Posts,
		"total":       page.Total,
		"totalPages":  page.TotalPages,
		"currentPage": page.CurrentPage,
	})
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreatePostInput true "Post"
// @Success 201 {object} object{success=bool,post=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req service.CreatePostInput
	if err := validation.Bind(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	req.AuthorID = userID

	post, err := s.postService.CreatePost(c.UserContext(), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusCreated, fiber.Map{"post": post})
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,post=models.Post}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.GetPost(c.UserContext(), postID, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"post": post})
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update post
// @Description Only the author may edit a post.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.UpdatePostInput true "Fields to change"
// @Success 200 {object} object{success=bool,post=models.Post}
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req service.UpdatePostInput
	if err := validation.Bind(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	req.PostID = postID
	req.UserID = userID

	post, err := s.postService.UpdatePost(c.UserContext(), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"post": post})
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description The author or an admin may delete a post.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if err := s.postService.DeletePost(c.UserContext(), postID, userID); err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"message": "Post deleted"})
}
