package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ainews/internal/models"
	"ainews/internal/repository/repotest"
	"ainews/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	article *scraper.Article
	err     error
	calls   int
}

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) (*scraper.Article, error) {
	f.calls++
	return f.article, f.err
}

func TestScrape(t *testing.T) {
	stores := newStores(t)
	teacher := repotest.MustProfile(t, stores, "teacher", models.RoleTeacher)
	student := repotest.MustProfile(t, stores, "student", models.RoleStudent)
	article := &scraper.Article{Title: "Model released", Content: "Details.", Tags: []string{"llm"}}
	ctx := context.Background()

	tests := []struct {
		name    string
		flags   string
		actor   uint
		url     string
		fetched *stubFetcher
		code    string
		calls   int
	}{
		{"teacher imports", "scrape_news=on", teacher.ID, "https://news.example.com/a", &stubFetcher{article: article}, "", 1},
		{"flag off", "scrape_news=off", teacher.ID, "https://news.example.com/a", &stubFetcher{article: article}, models.CodeForbidden, 0},
		{"flag unset", "", teacher.ID, "https://news.example.com/a", &stubFetcher{article: article}, models.CodeForbidden, 0},
		{"student", "scrape_news=on", student.ID, "https://news.example.com/a", &stubFetcher{article: article}, models.CodeForbidden, 0},
		{"anonymous", "scrape_news=on", 0, "https://news.example.com/a", &stubFetcher{article: article}, models.CodeUnauthorized, 0},
		{"bad url", "scrape_news=on", teacher.ID, "ftp://news.example.com/a", &stubFetcher{article: article}, models.CodeValidation, 0},
		{"no content", "scrape_news=on", teacher.ID, "https://news.example.com/a", &stubFetcher{err: scraper.ErrNoContent}, models.CodeValidation, 1},
		{"private host", "scrape_news=on", teacher.ID, "http://intranet.example.com/", &stubFetcher{err: fmt.Errorf("dial: %w", scraper.ErrBlockedAddress)}, models.CodeValidation, 1},
		{"not html", "scrape_news=on", teacher.ID, "https://news.example.com/feed.pdf", &stubFetcher{err: scraper.ErrNotHTML}, models.CodeValidation, 1},
		{"fetch failed", "scrape_news=on", teacher.ID, "https://news.example.com/a", &stubFetcher{err: errors.New("dial tcp: refused")}, models.CodeValidation, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewScrapeService(tt.fetched, stores.Profiles, newFlags(t, tt.flags))
			got, err := svc.Scrape(ctx, tt.actor, tt.url)
			assert.Equal(t, tt.calls, tt.fetched.calls)
			if tt.code != "" {
				assertCode(t, err, tt.code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, article, got)
		})
	}
}
