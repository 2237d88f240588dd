package server

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"ainews/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":           "ID",
		"commentId":    "comment ID",
		"parentPostId": "parent post ID",
		"name":         "name",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}

func TestSplitCamel(t *testing.T) {
	assert.Equal(t, []string{"parent", "Post"}, splitCamel("parentPost"))
	assert.Equal(t, []string{"single"}, splitCamel("single"))
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, models.CodeNotFound, codeForStatus(fiber.StatusNotFound))
	assert.Equal(t, models.CodeUnauthorized, codeForStatus(fiber.StatusUnauthorized))
	assert.Equal(t, models.CodeValidation, codeForStatus(fiber.StatusRequestEntityTooLarge))
	assert.Equal(t, models.CodeInternal, codeForStatus(fiber.StatusBadGateway))
}

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/items/:commentId", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "commentId")
		if err != nil {
			return nil
		}
		return c.SendString(itoa(id))
	})

	tests := []struct {
		path   string
		status int
	}{
		{"/items/42", http.StatusOK},
		{"/items/0", http.StatusBadRequest},
		{"/items/-3", http.StatusBadRequest},
		{"/items/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
