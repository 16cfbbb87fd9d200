package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"bhreads/internal/models"
	"bhreads/internal/service"

	"gopkg.in/yaml.v3"
)

// Fixture is a hand-written data set, usually kept in a YAML file.
type Fixture struct {
	Bakers []FixtureBaker `yaml:"bakers"`
	Posts  []FixturePost  `yaml:"posts"`
}

type FixtureBaker struct {
	Username     string `yaml:"username"`
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	Bio          string `yaml:"bio"`
	FavoriteItem string `yaml:"favoriteItem"`
}

// FixturePost references bakers by username.
type FixturePost struct {
	Author     string           `yaml:"author"`
	Title      string           `yaml:"title"`
	Content    string           `yaml:"content"`
	Category   string           `yaml:"category"`
	ImageURL   string           `yaml:"imageUrl"`
	Tags       []string         `yaml:"tags"`
	LikedBy    []string         `yaml:"likedBy"`
	Comments   []FixtureComment `yaml:"comments"`
	RepostedBy []string         `yaml:"repostedBy"`
}

type FixtureComment struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// LoadFixture decodes a fixture. Unknown keys are rejected so typos surface.
func LoadFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// LoadFixtureFile opens and decodes the fixture at path.
func LoadFixtureFile(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return LoadFixture(file)
}

// ApplyFixture creates the fixture's bakers, then its posts with their likes,
// comments and reposts, in file order.
func (s *Seeder) ApplyFixture(ctx context.Context, f *Fixture) (*Summary, error) {
	summary := &Summary{}
	byName := make(map[string]*models.User, len(f.Bakers))

	for _, b := range f.Bakers {
		password := b.Password
		if password == "" {
			password = DefaultPassword
		}
		sess, err := s.auth.Register(ctx, service.RegisterInput{
			Username: b.Username,
			Email:    b.Email,
			Password: password,
		})
		if err != nil {
			return summary, fmt.Errorf("baker %q: %w", b.Username, err)
		}

		user := sess.User
		if b.Bio != "" || b.FavoriteItem != "" {
			user, err = s.users.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{
				Bio:          b.Bio,
				FavoriteItem: b.FavoriteItem,
			})
			if err != nil {
				return summary, fmt.Errorf("baker %q profile: %w", b.Username, err)
			}
		}
		byName[user.Username] = user
		summary.Bakers++
	}

	lookup := func(username string) (*models.User, error) {
		user, ok := byName[username]
		if !ok {
			return nil, fmt.Errorf("unknown baker %q", username)
		}
		return user, nil
	}

	for i, p := range f.Posts {
		author, err := lookup(p.Author)
		if err != nil {
			return summary, fmt.Errorf("post %d: %w", i+1, err)
		}
		post, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			AuthorID: author.ID,
			Title:    p.Title,
			Content:  p.Content,
			Category: p.Category,
			ImageURL: p.ImageURL,
			Tags:     p.Tags,
		})
		if err != nil {
			return summary, fmt.Errorf("post %d: %w", i+1, err)
		}
		summary.Posts++

		for _, name := range p.LikedBy {
			liker, err := lookup(name)
			if err != nil {
				return summary, fmt.Errorf("post %d like: %w", i+1, err)
			}
			if _, err := s.engagement.ToggleLike(ctx, post.ID, liker.ID); err != nil {
				return summary, fmt.Errorf("post %d like: %w", i+1, err)
			}
			summary.Likes++
		}

		for _, c := range p.Comments {
			commenter, err := lookup(c.Author)
			if err != nil {
				return summary, fmt.Errorf("post %d comment: %w", i+1, err)
			}
			if _, err := s.engagement.AddComment(ctx, post.ID, commenter.ID, c.Content); err != nil {
				return summary, fmt.Errorf("post %d comment: %w", i+1, err)
			}
			summary.Comments++
		}

		for _, name := range p.RepostedBy {
			reposter, err := lookup(name)
			if err != nil {
				return summary, fmt.Errorf("post %d repost: %w", i+1, err)
			}
			if _, err := s.engagement.Repost(ctx, post.ID, reposter.ID); err != nil {
				return summary, fmt.Errorf("post %d repost: %w", i+1, err)
			}
			summary.Reposts++
		}
	}
	return summary, nil
}
