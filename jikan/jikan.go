// Package jikan provides a client for the Jikan REST API (api.jikan.moe),
// an unofficial MyAnimeList mirror used to enrich imported anime with
// metadata MAL's XML export does not carry.
package jikan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/anitrack/config"
	"github.com/jon4hz/anitrack/retry"
	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

var (
	// ErrNotFound is returned when the API has no anime for the given ID.
	// It is terminal, callers must not retry it.
	ErrNotFound = errors.New("jikan: anime not found")

	// ErrRateLimited is returned when the API answers 429.
	ErrRateLimited = errors.New("jikan: rate limited")
)

// Anime holds the subset of the Jikan payload we care about.
type Anime struct {
	MalID         int64
	TitleEnglish  *string
	TitleJapanese *string
	ImageURL      *string
	Synopsis      *string
	TrailerURL    *string
	Year          *int
	Studios       []string
	Genres        []string
}

type namedRef struct {
	Name string `json:"name"`
}

type animeResponse struct {
	Data struct {
		MalID         int64   `json:"mal_id"`
		TitleEnglish  *string `json:"title_english"`
		TitleJapanese *string `json:"title_japanese"`
		Images        struct {
			JPG struct {
				LargeImageURL *string `json:"large_image_url"`
			} `json:"jpg"`
		} `json:"images"`
		Synopsis *string `json:"synopsis"`
		Trailer  struct {
			URL *string `json:"url"`
		} `json:"trailer"`
		Year    *int       `json:"year"`
		Studios []namedRef `json:"studios"`
		Genres  []namedRef `json:"genres"`
	} `json:"data"`
}

// Client talks to the Jikan API. It paces requests with a rate limiter so
// bulk enrichment stays under the API's request budget, retries 429s with
// exponential backoff and caches responses for a while.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	cache      *gocache.Cache
	policy     retry.Policy
}

func New(cfg *config.JikanConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.URL,
		limiter:    rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		cache:      gocache.New(cfg.CacheTTL, 10*time.Minute),
		policy: retry.Policy{
			MaxAttempts: cfg.MaxRetries,
			Backoff:     retry.Exponential(cfg.BackoffBase),
			Retryable: func(err error) bool {
				return !errors.Is(err, ErrNotFound)
			},
		},
	}
}

// GetAnime fetches the full metadata for a MAL ID. A 404 surfaces as
// ErrNotFound, a 429 is retried until the policy gives up.
func (c *Client) GetAnime(ctx context.Context, malID int64) (*Anime, error) {
	cacheKey := fmt.Sprintf("anime-%d", malID)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*Anime), nil
	}

	var anime *Anime
	err := c.policy.Do(ctx, func() error {
		var err error
		anime, err = c.getAnime(ctx, malID)
		if err != nil && errors.Is(err, ErrRateLimited) {
			log.Warn("jikan rate limit hit, backing off", "malID", malID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, anime, gocache.DefaultExpiration)
	return anime, nil
}

func (c *Client) getAnime(ctx context.Context, malID int64) (*Anime, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/anime/%d/full", c.baseURL, malID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get anime %d: %w", malID, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("jikan: unexpected status %d for anime %d", resp.StatusCode, malID)
	}

	var payload animeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode anime %d: %w", malID, err)
	}

	d := payload.Data
	return &Anime{
		MalID:         d.MalID,
		TitleEnglish:  d.TitleEnglish,
		TitleJapanese: d.TitleJapanese,
		ImageURL:      d.Images.JPG.LargeImageURL,
		Synopsis:      d.Synopsis,
		TrailerURL:    d.Trailer.URL,
		Year:          d.Year,
		Studios:       lo.Map(d.Studios, func(s namedRef, _ int) string { return s.Name }),
		Genres:        lo.Map(d.Genres, func(g namedRef, _ int) string { return g.Name }),
	}, nil
}
