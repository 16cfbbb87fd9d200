// Package seed fills a database with demo bakers, posts and engagement.
// Everything goes through the services so counters and validation behave
// exactly as they do for API traffic. Intended for development and tests.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"bhreads/internal/middleware"
	"bhreads/internal/models"
	"bhreads/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/samber/lo"
)

// DefaultPassword is given to every generated baker.
const DefaultPassword = "bread123"

var (
	breads = []string{
		"sourdough", "baguette", "croissant", "brioche", "ciabatta", "rye loaf",
		"focaccia", "bagel", "challah", "pain de campagne", "milk bread",
	}
	bakeTags = []string{
		"levain", "open crumb", "high hydration", "whole wheat", "cold retard",
		"lamination", "enriched", "scoring", "dutch oven", "spelt",
	}
	usernameJunk = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// Options controls the generated data set.
type Options struct {
	Bakers int
	Posts  int
	// Probability that a given baker likes a given post.
	LikeChance float64
	// Probability that a given baker comments on a given post.
	CommentChance float64
	// Probability that a given baker reposts a given post.
	RepostChance float64
}

// DefaultOptions returns a small, lively data set.
func DefaultOptions() Options {
	return Options{
		Bakers:        20,
		Posts:         60,
		LikeChance:    0.3,
		CommentChance: 0.1,
		RepostChance:  0.03,
	}
}

// Summary counts what a run created.
type Summary struct {
	Bakers   int
	Posts    int
	Likes    int
	Comments int
	Reposts  int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d bakers, %d posts, %d likes, %d comments, %d reposts",
		s.Bakers, s.Posts, s.Likes, s.Comments, s.Reposts)
}

// Seeder creates demo content through the service layer.
type Seeder struct {
	auth       *service.AuthService
	users      *service.UserService
	posts      *service.PostService
	engagement *service.EngagementService
	faker      *gofakeit.Faker
}

// NewSeeder binds a seeder to the services. seed zero picks a random seed.
func NewSeeder(auth *service.AuthService, users *service.UserService, posts *service.PostService, engagement *service.EngagementService, seed int64) *Seeder {
	return &Seeder{
		auth:       auth,
		users:      users,
		posts:      posts,
		engagement: engagement,
		faker:      gofakeit.New(seed),
	}
}

// Run generates bakers, their posts and random engagement between them.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{}

	bakers, err := s.SeedBakers(ctx, opts.Bakers)
	if err != nil {
		return summary, err
	}
	summary.Bakers = len(bakers)

	posts, err := s.SeedPosts(ctx, bakers, opts.Posts)
	if err != nil {
		return summary, err
	}
	summary.Posts = len(posts)

	if err := s.SeedEngagement(ctx, bakers, posts, opts, summary); err != nil {
		return summary, err
	}

	middleware.Logger.Info("seed complete", slog.String("summary", summary.String()))
	return summary, nil
}

// SeedBakers registers n bakers with generated names and profiles.
func (s *Seeder) SeedBakers(ctx context.Context, n int) ([]*models.User, error) {
	bakers := make([]*models.User, 0, n)
	for i := range n {
		username := s.username(i)
		sess, err := s.auth.Register(ctx, service.RegisterInput{
			Username: username,
			Email:    strings.ToLower(username) + "@" + s.faker.DomainName(),
			Password: DefaultPassword,
		})
		if err != nil {
			return bakers, fmt.Errorf("register %s: %w", username, err)
		}

		user, err := s.users.UpdateProfile(ctx, sess.User.ID, service.UpdateProfileInput{
			Bio:          lo.Substring(s.faker.Sentence(10), 0, 160),
			FavoriteItem: s.faker.RandomString(breads),
		})
		if err != nil {
			return bakers, fmt.Errorf("profile %s: %w", username, err)
		}
		bakers = append(bakers, user)
	}
	return bakers, nil
}

// SeedPosts creates n posts spread over the given bakers.
func (s *Seeder) SeedPosts(ctx context.Context, bakers []*models.User, n int) ([]*models.Post, error) {
	if len(bakers) == 0 {
		return nil, nil
	}

	posts := make([]*models.Post, 0, n)
	for range n {
		author := bakers[s.faker.Number(0, len(bakers)-1)]
		in := service.CreatePostInput{
			AuthorID: author.ID,
			Title:    s.title(),
			Content:  s.faker.Paragraph(1, 3, 12, " "),
			Category: string(models.Categories[s.faker.Number(0, len(models.Categories)-1)]),
			Tags:     s.tags(),
		}
		if s.faker.Bool() {
			in.ImageURL = s.faker.ImageURL(800, 600)
		}

		post, err := s.posts.CreatePost(ctx, in)
		if err != nil {
			return posts, fmt.Errorf("create post for %s: %w", author.Username, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SeedEngagement walks every baker/post pair and rolls for a like, a comment
// and a repost. Bakers never engage with their own posts.
func (s *Seeder) SeedEngagement(ctx context.Context, bakers []*models.User, posts []*models.Post, opts Options, summary *Summary) error {
	for _, post := range posts {
		for _, baker := range bakers {
			if baker.ID == post.AuthorID {
				continue
			}

			if s.roll(opts.LikeChance) {
				if _, err := s.engagement.ToggleLike(ctx, post.ID, baker.ID); err != nil {
					return fmt.Errorf("like post %d: %w", post.ID, err)
				}
				summary.Likes++
			}
			if s.roll(opts.CommentChance) {
				if _, err := s.engagement.AddComment(ctx, post.ID, baker.ID, s.faker.Sentence(8)); err != nil {
					return fmt.Errorf("comment on post %d: %w", post.ID, err)
				}
				summary.Comments++
			}
			if !post.IsRepost && s.roll(opts.RepostChance) {
				if _, err := s.engagement.Repost(ctx, post.ID, baker.ID); err != nil {
					return fmt.Errorf("repost %d: %w", post.ID, err)
				}
				summary.Reposts++
			}
		}
	}
	return nil
}

func (s *Seeder) roll(chance float64) bool {
	return chance > 0 && s.faker.Float64Range(0, 1) < chance
}

// username derives a valid, unique handle from a generated one.
func (s *Seeder) username(i int) string {
	base := usernameJunk.ReplaceAllString(s.faker.Username(), "")
	base = lo.Substring(base, 0, 22)
	if len(base) < 3 {
		base = "baker"
	}
	return fmt.Sprintf("%s_%d", base, i+1)
}

func (s *Seeder) title() string {
	title := fmt.Sprintf("%s %s", s.faker.Adjective(), s.faker.RandomString(breads))
	return strings.ToUpper(title[:1]) + title[1:]
}

func (s *Seeder) tags() []string {
	n := s.faker.Number(0, 3)
	tags := make([]string, 0, n)
	for range n {
		tags = append(tags, s.faker.RandomString(bakeTags))
	}
	return tags
}
