package server

import (
	"bhreads/internal/models"
	"bhreads/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/posts/:id/like
// @Summary Toggle like
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,isLiked=bool,likeCount=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	res, err := s.engagementService.ToggleLike(c.UserContext(), postID, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"isLiked":   res.IsLiked,
		"likeCount": res.LikeCount,
	})
}

// AddComment handles POST /api/posts/:id/comments
// @Summary Add comment
// @Description Returns the whole thread, oldest first.
// @Tags engagement
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 200 {object} object{success=bool,comments=[]models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := validation.Bind(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	comments, err := s.engagementService.AddComment(c.UserContext(), postID, userID, req.Content)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"comments": comments})
}

// LikeComment handles POST /api/posts/:postId/comments/:commentId/like
// @Summary Toggle comment like
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} object{success=bool,isLiked=bool,likeCount=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments/{commentId}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	res, err := s.engagementService.ToggleCommentLike(c.UserContext(), postID, c.Params("commentId"), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"isLiked":   res.IsLiked,
		"likeCount": res.LikeCount,
	})
}

// DeleteComment handles DELETE /api/posts/:postId/comments/:commentId
// @Summary Delete comment
// @Description The comment author or an admin may delete a comment.
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} object{success=bool,comments=[]models.Comment}
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{postId}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	comments, err := s.engagementService.DeleteComment(c.UserContext(), postID, c.Params("commentId"), userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"comments": comments})
}

// Repost handles POST /api/posts/:id/repost
// @Summary Repost
// @Description A user may repost a given post once.
// @Tags engagement
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,repost=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id}/repost [post]
func (s *Server) Repost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	repost, err := s.engagementService.Repost(c.UserContext(), postID, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return success(c, fiber.StatusOK, fiber.Map{"repost": repost})
}
