package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/anitrack/api/models"
	"github.com/jon4hz/anitrack/config"
	"github.com/jon4hz/anitrack/database"
	"github.com/jon4hz/anitrack/engine"
	"github.com/jon4hz/anitrack/jikan"
	"github.com/jon4hz/anitrack/mal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, jikanURL string) (*Server, *database.Client, *engine.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Listen: "127.0.0.1:0",
		Database: &config.DatabaseConfig{
			Path:        filepath.Join(t.TempDir(), "test.db"),
			BusyTimeout: 5000,
		},
		Import: &config.ImportConfig{MaxRetries: 3, RetryDelay: time.Millisecond},
		Jikan: &config.JikanConfig{
			URL:          jikanURL,
			RequestDelay: time.Millisecond,
			MaxRetries:   2,
			BackoffBase:  time.Millisecond,
			CacheTTL:     time.Minute,
		},
	}

	db, err := database.New(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	eng := engine.New(cfg, db, jikan.New(cfg.Jikan), rand.New(rand.NewSource(1)))
	server, err := New(cfg, eng, db)
	require.NoError(t, err)
	server.setupRoutes()
	return server, db, eng
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.ginEngine.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

const exportDoc = `<?xml version="1.0" encoding="UTF-8"?>
<myanimelist>
  <anime>
    <series_animedb_id>1</series_animedb_id>
    <series_title><![CDATA[Cowboy Bebop]]></series_title>
    <series_type>TV</series_type>
    <series_episodes>26</series_episodes>
    <my_watched_episodes>26</my_watched_episodes>
    <my_score>10</my_score>
    <my_status>Completed</my_status>
  </anime>
</myanimelist>`

func TestImportEndpoint(t *testing.T) {
	s, db, _ := newTestServer(t, "")

	w := doRequest(s, http.MethodPost, "/api/import", exportDoc)
	require.Equal(t, http.StatusOK, w.Code)

	result := decodeBody[engine.ImportResult](t, w)
	assert.Equal(t, 1, result.Created)

	anime, err := db.GetAnimeByMalID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Cowboy Bebop", anime.Title)
}

func TestImportEndpointRejectsMalformed(t *testing.T) {
	s, _, _ := newTestServer(t, "")

	w := doRequest(s, http.MethodPost, "/api/import", "<myanimelist><anime>")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAnimeEndpoint(t *testing.T) {
	s, _, eng := newTestServer(t, "")
	ctx := context.Background()

	_, err := eng.ImportEntries(ctx, []mal.Entry{
		{MalID: 1, Title: "Cowboy Bebop", Type: "TV", Status: "Completed", Score: 10, Rewatching: true, RewatchingEp: 7},
		{MalID: 2, Title: "Death Note", Type: "TV", Status: "Completed", Score: 8},
	})
	require.NoError(t, err)

	w := doRequest(s, http.MethodGet, "/api/anime", "")
	require.Equal(t, http.StatusOK, w.Code)
	all := decodeBody[[]models.Anime](t, w)
	assert.Len(t, all, 2)

	w = doRequest(s, http.MethodGet, "/api/anime?search=bebop", "")
	require.Equal(t, http.StatusOK, w.Code)
	filtered := decodeBody[[]models.Anime](t, w)
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(1), filtered[0].MalID)
	assert.True(t, filtered[0].MyRewatching)
	assert.Equal(t, 7, filtered[0].MyRewatchingEp)
	// Tags come back with resolved colors
	require.NotEmpty(t, filtered[0].Tags)
	assert.True(t, strings.HasPrefix(filtered[0].Tags[0].Color, "#"))

	w = doRequest(s, http.MethodGet, "/api/anime?scores=8", "")
	require.Equal(t, http.StatusOK, w.Code)
	filtered = decodeBody[[]models.Anime](t, w)
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(2), filtered[0].MalID)
}

func TestSaveTagsEndpoint(t *testing.T) {
	s, db, eng := newTestServer(t, "")
	ctx := context.Background()

	_, err := eng.ImportEntries(ctx, []mal.Entry{{MalID: 1, Title: "A", Status: "Watching"}})
	require.NoError(t, err)
	anime, err := db.GetAnimeByMalID(ctx, 1)
	require.NoError(t, err)

	w := doRequest(s, http.MethodPut, fmt.Sprintf("/api/anime/%d/tags", anime.ID), `{"tags":["favorite","cozy"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[[]models.Tag](t, w)
	assert.Len(t, got, 3)

	w = doRequest(s, http.MethodPut, "/api/anime/9999/tags", `{"tags":[]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteTagEndpoint(t *testing.T) {
	s, db, eng := newTestServer(t, "")
	ctx := context.Background()

	_, err := eng.ImportEntries(ctx, []mal.Entry{{MalID: 1, Title: "A", Status: "Watching"}})
	require.NoError(t, err)
	anime, err := db.GetAnimeByMalID(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, eng.SaveTags(ctx, anime.ID, []string{"favorite"}))

	linked, err := db.GetTagsForAnime(ctx, anime.ID)
	require.NoError(t, err)

	for _, tag := range linked {
		w := doRequest(s, http.MethodDelete, fmt.Sprintf("/api/tags/%d", tag.ID), "")
		if tag.Name == "favorite" {
			assert.Equal(t, http.StatusNoContent, w.Code)
		} else {
			assert.Equal(t, http.StatusConflict, w.Code)
		}
	}

	w := doRequest(s, http.MethodDelete, "/api/tags/9999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	s, _, eng := newTestServer(t, "")
	ctx := context.Background()

	_, err := eng.ImportEntries(ctx, []mal.Entry{
		{MalID: 1, Title: "A", Status: "Completed", Score: 10, WatchedEpisodes: 26},
		{MalID: 2, Title: "B", Status: "Watching", WatchedEpisodes: 4},
	})
	require.NoError(t, err)

	w := doRequest(s, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody[database.Stats](t, w)
	assert.Equal(t, int64(2), stats.TotalAnime)
	assert.Equal(t, int64(30), stats.EpisodesWatched)
	assert.Equal(t, 1, stats.ByStatus["Completed"])
}

func TestFetchEndpoints(t *testing.T) {
	jikanServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"data": {"mal_id": 1, "title_english": "Cowboy Bebop", "year": 1998,
			"images": {"jpg": {}}, "trailer": {}, "studios": [{"name": "Sunrise"}], "genres": []}}`)
	}))
	defer jikanServer.Close()

	s, db, eng := newTestServer(t, jikanServer.URL)
	ctx := context.Background()

	_, err := eng.ImportEntries(ctx, []mal.Entry{{MalID: 1, Title: "Cowboy Bebop", Status: "Completed"}})
	require.NoError(t, err)
	anime, err := db.GetAnimeByMalID(ctx, 1)
	require.NoError(t, err)

	w := doRequest(s, http.MethodGet, "/api/anime/missing-data", "")
	require.Equal(t, http.StatusOK, w.Code)
	missing := decodeBody[[]models.Anime](t, w)
	require.Len(t, missing, 1)

	w = doRequest(s, http.MethodPost, fmt.Sprintf("/api/anime/%d/fetch", anime.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[models.Anime](t, w)
	assert.True(t, got.Fetched)
	require.NotNil(t, got.TitleEnglish)
	assert.Equal(t, "Cowboy Bebop", *got.TitleEnglish)

	w = doRequest(s, http.MethodGet, "/api/anime/missing-data", "")
	require.Equal(t, http.StatusOK, w.Code)
	missing = decodeBody[[]models.Anime](t, w)
	assert.Empty(t, missing)
}
