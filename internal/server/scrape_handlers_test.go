package server

import (
	"net/http"
	"testing"

	"ainews/internal/models"
	"ainews/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeNews(t *testing.T) {
	env := newTestEnv(t)
	_, teacherToken := env.profile(t, "teacher", models.RoleTeacher)
	_, studentToken := env.profile(t, "student", models.RoleStudent)

	tests := []struct {
		name   string
		token  string
		url    string
		status int
	}{
		{"teacher", teacherToken, "https://example.com/news/1", http.StatusOK},
		{"student", studentToken, "https://example.com/news/1", http.StatusForbidden},
		{"anonymous", "", "https://example.com/news/1", http.StatusUnauthorized},
		{"ftp url", teacherToken, "ftp://example.com/file", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := env.do(t, http.MethodPost, "/api/scrape-news", ScrapeRequest{URL: tt.url}, tt.token)
			require.Equal(t, tt.status, resp.StatusCode, string(raw))
			if tt.status == http.StatusOK {
				article := decode[scraper.Article](t, raw)
				assert.Equal(t, "Model released", article.Title)
				assert.Equal(t, []string{"AI"}, article.Tags)
			}
		})
	}
}
