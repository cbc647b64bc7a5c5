package jikan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jon4hz/anitrack/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return New(&config.JikanConfig{
		URL:          url,
		RequestDelay: time.Millisecond,
		MaxRetries:   3,
		BackoffBase:  time.Millisecond,
		CacheTTL:     time.Minute,
	})
}

const fullAnimeBody = `{
	"data": {
		"mal_id": 5114,
		"title_english": "Fullmetal Alchemist: Brotherhood",
		"title_japanese": "鋼の錬金術師",
		"images": {"jpg": {"large_image_url": "https://cdn.example.com/5114l.jpg"}},
		"synopsis": "After a horrific alchemy experiment...",
		"trailer": {"url": "https://youtube.com/watch?v=abc"},
		"year": 2009,
		"studios": [{"mal_id": 4, "name": "Bones"}],
		"genres": [{"mal_id": 1, "name": "Action"}, {"mal_id": 2, "name": "Adventure"}]
	}
}`

func TestGetAnime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/anime/5114/full", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fullAnimeBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	anime, err := client.GetAnime(context.Background(), 5114)
	require.NoError(t, err)

	assert.Equal(t, int64(5114), anime.MalID)
	require.NotNil(t, anime.TitleEnglish)
	assert.Equal(t, "Fullmetal Alchemist: Brotherhood", *anime.TitleEnglish)
	require.NotNil(t, anime.ImageURL)
	assert.Equal(t, "https://cdn.example.com/5114l.jpg", *anime.ImageURL)
	require.NotNil(t, anime.Year)
	assert.Equal(t, 2009, *anime.Year)
	assert.Equal(t, []string{"Bones"}, anime.Studios)
	assert.Equal(t, []string{"Action", "Adventure"}, anime.Genres)
}

func TestGetAnimeNotFound(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetAnime(context.Background(), 404404)
	assert.ErrorIs(t, err, ErrNotFound)
	// 404 is terminal, no retries
	assert.Equal(t, 1, requests)
}

func TestGetAnimeRateLimitedThenSuccess(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(fullAnimeBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	anime, err := client.GetAnime(context.Background(), 5114)
	require.NoError(t, err)
	assert.Equal(t, int64(5114), anime.MalID)
	assert.Equal(t, 3, requests)
}

func TestGetAnimeRateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetAnime(context.Background(), 5114)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGetAnimeMalformedBodyRetried(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`{invalid`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetAnime(context.Background(), 5114)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	// A garbage body is transient: retried up to the ceiling
	assert.Equal(t, 3, requests)
}

func TestGetAnimeMalformedBodyThenSuccess(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			_, _ = w.Write([]byte(`{"data": {"mal_id":`))
			return
		}
		_, _ = w.Write([]byte(fullAnimeBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	anime, err := client.GetAnime(context.Background(), 5114)
	require.NoError(t, err)
	assert.Equal(t, int64(5114), anime.MalID)
	assert.Equal(t, 2, requests)
}

func TestGetAnimeCaches(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(fullAnimeBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetAnime(context.Background(), 5114)
	require.NoError(t, err)
	_, err = client.GetAnime(context.Background(), 5114)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestGetAnimeContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetAnime(ctx, 5114)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
}
