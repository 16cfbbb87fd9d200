package server

import (
	"os"
	"path/filepath"

	"bhreads/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// pageRoutes maps browser routes to files under PUBLIC_DIR.
var pageRoutes = map[string]string{
	"/":            "index.html",
	"/login":       "login.html",
	"/register":    "register.html",
	"/profile":     "profile.html",
	"/profile/:id": "profile.html",
}

// setupPages serves the bundled HTML pages and static assets. A missing
// public directory disables both; the API keeps working.
func (s *Server) setupPages(app *fiber.App) {
	dir := s.config.PublicDir
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		middleware.Logger.Debug("public directory not found, pages disabled", "dir", dir)
		return
	}

	for route, file := range pageRoutes {
		path := filepath.Join(dir, file)
		app.Get(route, func(c *fiber.Ctx) error {
			return c.SendFile(path)
		})
	}
	app.Static("/", dir)
}
