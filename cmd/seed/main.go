// Command seed populates the database with demo bakers and posts.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"bhreads/internal/auth"
	"bhreads/internal/config"
	"bhreads/internal/database"
	"bhreads/internal/middleware"
	"bhreads/internal/repository"
	"bhreads/internal/seed"
	"bhreads/internal/service"

	"github.com/fatih/color"
)

func main() {
	defaults := seed.DefaultOptions()
	bakers := flag.Int("bakers", defaults.Bakers, "Number of bakers to create")
	posts := flag.Int("posts", defaults.Posts, "Number of posts to create")
	fixture := flag.String("fixture", "", "YAML fixture to load instead of generated data")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.ConfigureLogger(cfg.Env, os.Stdout)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	if err := database.ApplySchema(ctx, db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	users := service.NewUserService(userRepo, postRepo)
	s := seed.NewSeeder(
		service.NewAuthService(userRepo, auth.NewHasher(cfg.BcryptCost), auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)),
		users,
		service.NewPostService(postRepo, userRepo, users.RoleOf),
		service.NewEngagementService(postRepo, userRepo, users.RoleOf),
		*randSeed,
	)

	var summary *seed.Summary
	if *fixture != "" {
		f, err := seed.LoadFixtureFile(*fixture)
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
		summary, err = s.ApplyFixture(ctx, f)
		if err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
	} else {
		opts := defaults
		opts.Bakers = *bakers
		opts.Posts = *posts
		summary, err = s.Run(ctx, opts)
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		color.Yellow("All generated bakers use the password: %s", seed.DefaultPassword)
	}

	color.Green("✨ Seeded %s", summary)
}
