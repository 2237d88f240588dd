package service

import (
	"context"
	"errors"

	"ainews/internal/featureflags"
	"ainews/internal/models"
	"ainews/internal/observability"
	"ainews/internal/repository"
	"ainews/internal/scraper"
	"ainews/internal/validation"
)

// ArticleFetcher extracts a post draft from a URL.
type ArticleFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*scraper.Article, error)
}

// ScrapeService turns a news URL into a post draft for staff users.
type ScrapeService struct {
	fetcher  ArticleFetcher
	profiles repository.ProfileRepository
	flags    *featureflags.Set
}

func NewScrapeService(fetcher ArticleFetcher, profiles repository.ProfileRepository, flags *featureflags.Set) *ScrapeService {
	return &ScrapeService{fetcher: fetcher, profiles: profiles, flags: flags}
}

func (s *ScrapeService) Scrape(ctx context.Context, actorID uint, rawURL string) (article *scraper.Article, err error) {
	ctx, finish := observability.StartSpan(ctx, "ScrapeService.Scrape")
	defer func() { finish(err) }()

	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	if !s.flags.Enabled(featureflags.ScrapeNews, actorID) {
		return nil, models.NewForbiddenError("News import is disabled")
	}
	if err := CanScrape(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateHTTPURL(rawURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	article, err = s.fetcher.Fetch(ctx, rawURL)
	switch {
	case err == nil:
		return article, nil
	case errors.Is(err, scraper.ErrUnsupportedURL):
		return nil, models.NewValidationError(err.Error())
	case errors.Is(err, scraper.ErrBlockedAddress):
		return nil, &models.AppError{Code: models.CodeValidation, Message: "URL must point to a public host", Err: err}
	case errors.Is(err, scraper.ErrNotHTML):
		return nil, &models.AppError{Code: models.CodeValidation, Message: "URL is not an HTML page", Err: err}
	case errors.Is(err, scraper.ErrNoContent):
		return nil, &models.AppError{Code: models.CodeValidation, Message: "No article content found at URL", Err: err}
	default:
		return nil, &models.AppError{Code: models.CodeValidation, Message: "Could not fetch URL", Err: err}
	}
}
