package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"bhreads/internal/models"
	"bhreads/internal/observability"
	"bhreads/internal/repository"

	"github.com/samber/lo"
)

// EngagementService maintains likes, comments and reposts. Every mutation
// reloads the post, changes one set and recomputes the counters before
// writing the row back, so concurrent writers on one post race and the last
// write wins. Reposts are the exception and run in a transaction.
type EngagementService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	roleOf   RoleLookup
	now      func() time.Time
}

// LikeResult is the state of a like toggle after it was applied.
type LikeResult struct {
	IsLiked   bool `json:"isLiked"`
	LikeCount int  `json:"likeCount"`
}

func NewEngagementService(postRepo repository.PostRepository, userRepo repository.UserRepository, roleOf RoleLookup) *EngagementService {
	return &EngagementService{
		postRepo: postRepo,
		userRepo: userRepo,
		roleOf:   roleOf,
		now:      time.Now,
	}
}

// toggleMember adds id to set when absent and removes it otherwise. It
// reports whether id is a member afterwards.
func toggleMember(set []uint, id uint) ([]uint, bool) {
	if lo.Contains(set, id) {
		return lo.Without(set, id), false
	}
	return append(set, id), true
}

func (s *EngagementService) ToggleLike(ctx context.Context, postID, userID uint) (res *LikeResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "EngagementService", "ToggleLike")
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	likes, liked := toggleMember(post.Likes, userID)
	post.Likes = likes
	post.Recount()
	if err = s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	observability.RecordEngagement(lo.Ternary(liked, observability.EventLike, observability.EventUnlike))
	return &LikeResult{IsLiked: liked, LikeCount: post.LikeCount}, nil
}

// AddComment appends a comment and returns the whole thread, oldest first.
func (s *EngagementService) AddComment(ctx context.Context, postID, userID uint, content string) (comments []models.Comment, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "EngagementService", "AddComment")
	defer func() { observability.EndSpan(span, err) }()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return nil, models.NewValidationError("Comment must be at most 500 characters")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	post.Comments = append(post.Comments, models.NewComment(userID, content, s.now()))
	post.Recount()
	if err = s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	observability.RecordEngagement(observability.EventComment)
	return s.thread(ctx, post, userID)
}

func (s *EngagementService) ToggleCommentLike(ctx context.Context, postID uint, commentID string, userID uint) (res *LikeResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "EngagementService", "ToggleCommentLike")
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	idx := post.FindComment(commentID)
	if idx < 0 {
		return nil, models.NewNotFoundError("Comment", commentID)
	}

	comment := &post.Comments[idx]
	likes, liked := toggleMember(comment.Likes, userID)
	comment.Likes = likes
	comment.UpdatedAt = s.now()
	post.Recount()
	if err = s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	observability.RecordEngagement(lo.Ternary(liked, observability.EventCommentLike, observability.EventCommentUnlike))
	return &LikeResult{IsLiked: liked, LikeCount: post.Comments[idx].LikeCount}, nil
}

// Repost shares a post under userID. A user may repost a given post once.
// Creating the repost and recording it on the original happen atomically.
func (s *EngagementService) Repost(ctx context.Context, postID, userID uint) (repost *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "EngagementService", "Repost")
	defer func() { observability.EndSpan(span, err) }()

	err = s.postRepo.Transaction(ctx, func(tx repository.PostRepository) error {
		original, err := tx.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if lo.Contains(original.Reposts, userID) {
			return models.NewConflictError("You have already reposted this post")
		}

		repost = models.NewRepost(original, userID)
		if err := tx.Create(ctx, repost); err != nil {
			return err
		}

		original.Reposts = append(original.Reposts, userID)
		original.Recount()
		return tx.Update(ctx, original)
	})
	if err != nil {
		return nil, err
	}

	observability.RecordEngagement(observability.EventRepost)
	post, err := s.postRepo.GetByID(ctx, repost.ID)
	if err != nil {
		return nil, err
	}
	if err = decorate(ctx, s.userRepo, userID, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeleteComment removes one comment. Its author and admins may delete it.
func (s *EngagementService) DeleteComment(ctx context.Context, postID uint, commentID string, callerID uint) (comments []models.Comment, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "EngagementService", "DeleteComment")
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	idx := post.FindComment(commentID)
	if idx < 0 {
		return nil, models.NewNotFoundError("Comment", commentID)
	}

	role, err := s.roleOf(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !models.CanModify(callerID, role, post.Comments[idx].AuthorID) {
		return nil, models.NewForbiddenError("Not authorized to delete this comment")
	}

	post.Comments = append(post.Comments[:idx], post.Comments[idx+1:]...)
	post.Recount()
	if err = s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	observability.RecordEngagement(observability.EventCommentDelete)
	return s.thread(ctx, post, callerID)
}

func (s *EngagementService) thread(ctx context.Context, post *models.Post, viewerID uint) ([]models.Comment, error) {
	if err := decorate(ctx, s.userRepo, viewerID, post); err != nil {
		return nil, err
	}
	if len(post.Comments) == 0 {
		return []models.Comment{}, nil
	}
	return post.Comments, nil
}
