// Command admin manages account roles from the command line.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"bhreads/internal/config"
	"bhreads/internal/database"
	"bhreads/internal/middleware"
	"bhreads/internal/repository"
	"bhreads/internal/service"

	"github.com/fatih/color"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	middleware.ConfigureLogger(cfg.Env, os.Stderr)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := service.NewUserService(repository.NewUserRepository(db), repository.NewPostRepository(db))
	ctx := context.Background()

	switch os.Args[1] {
	case "set-role":
		if len(os.Args) < 4 {
			fmt.Println("Usage: go run ./cmd/admin set-role <email> <user|moderator|admin>")
			os.Exit(1)
		}
		user, err := users.SetRoleByEmail(ctx, os.Args[2], os.Args[3])
		if err != nil {
			log.Fatalf("Failed to set role: %v", err)
		}
		color.Green("✅ %s (ID: %d) is now %s", user.Username, user.ID, user.Role)

	case "list-admins":
		admins, err := users.ListAdmins(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch admins: %v", err)
		}
		if len(admins) == 0 {
			fmt.Println("No admins found")
			return
		}
		header := color.New(color.FgCyan, color.Bold)
		_, _ = header.Printf("%-6s %-30s %s\n", "ID", "USERNAME", "EMAIL")
		for _, a := range admins {
			fmt.Printf("%-6d %-30s %s\n", a.ID, a.Username, a.Email)
		}

	default:
		color.Red("Unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin set-role <email> <role>   - Change an account's role")
	fmt.Println("  go run ./cmd/admin list-admins               - List all admins")
}
