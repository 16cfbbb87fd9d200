package validation

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"bhreads/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string   `json:"username" validate:"required,min=3,max=30,username"`
	Email    string   `json:"email" validate:"required,loose_email"`
	Password string   `json:"password" validate:"required,min=6"`
	Tags     []string `json:"tags" validate:"max=2"`
	Role     string   `json:"role" validate:"omitempty,oneof=user admin"`
}

func TestStruct(t *testing.T) {
	t.Parallel()
	valid := signup{Username: "baker_1", Email: "b@x.com", Password: "secret1"}

	tests := []struct {
		name    string
		mutate  func(s *signup)
		wantMsg string
	}{
		{"Valid", func(*signup) {}, ""},
		{"Missing Username", func(s *signup) { s.Username = "" }, "username is required"},
		{"Short Username", func(s *signup) { s.Username = "ab" }, "username must be at least 3 characters"},
		{"Long Username", func(s *signup) { s.Username = strings.Repeat("a", 31) }, "username must be at most 30 characters"},
		{"Illegal Username", func(s *signup) { s.Username = "bak er" }, "Username can only contain letters, numbers, underscores and hyphens"},
		{"Bad Email", func(s *signup) { s.Email = "baker.at.home" }, "Please provide a valid email"},
		{"Email With Space", func(s *signup) { s.Email = "a b@x.com" }, "Please provide a valid email"},
		{"Short Password", func(s *signup) { s.Password = "12345" }, "password must be at least 6 characters"},
		{"Too Many Tags", func(s *signup) { s.Tags = []string{"a", "b", "c"} }, "tags must have at most 2 items"},
		{"Unknown Role", func(s *signup) { s.Role = "chef" }, "role must be one of: user, admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := Struct(&s)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr := models.AsAppError(err)
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("b@x.com"))
	assert.Error(t, ValidateEmail("b@x"))
	assert.Error(t, ValidateEmail(""))
}

func TestBindAndValidate(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var body signup
		if err := BindAndValidate(c, &body); err != nil {
			return models.RespondWithError(c, err)
		}
		return c.SendString(body.Username)
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"Valid", `{"username":"baker1","email":"b@x.com","password":"secret1"}`, fiber.StatusOK, "baker1"},
		{"Malformed", `{"username":`, fiber.StatusBadRequest, "Invalid request body"},
		{"Invalid", `{"username":"baker1","email":"nope","password":"secret1"}`, fiber.StatusBadRequest, "Please provide a valid email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), tt.wantBody)
		})
	}
}
