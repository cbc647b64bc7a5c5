// Package handler implements the HTTP handlers of the API.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/anitrack/api/models"
	"github.com/jon4hz/anitrack/database"
	"github.com/jon4hz/anitrack/engine"
	"github.com/jon4hz/anitrack/mal"
	"github.com/samber/lo"
)

type Handler struct {
	engine *engine.Engine
	db     *database.Client
}

func New(eng *engine.Engine, db *database.Client) *Handler {
	return &Handler{
		engine: eng,
		db:     db,
	}
}

// Import accepts a MyAnimeList XML export, either as a multipart upload
// under the "file" field or as the raw request body.
func (h *Handler) Import(c *gin.Context) {
	var reader io.Reader = c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
			return
		}
		defer f.Close() //nolint:errcheck
		reader = f
	}

	result, err := h.engine.ImportXML(c.Request.Context(), reader)
	if err != nil {
		var parseErr *mal.ParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})
			return
		}
		log.Error("import failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Sweep fetches metadata for every anime that has none yet.
func (h *Handler) Sweep(c *gin.Context) {
	result, err := h.engine.Sweep(c.Request.Context())
	if err != nil {
		log.Error("enrichment sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enrichment sweep failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListAnime(c *gin.Context) {
	filter := database.AnimeFilter{
		Search:   c.Query("search"),
		SortBy:   c.Query("sort"),
		SortDesc: c.Query("desc") == "true",
	}
	for _, raw := range splitQuery(c.Query("tags")) {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tag id"})
			return
		}
		filter.TagIDs = append(filter.TagIDs, uint(id))
	}
	for _, raw := range splitQuery(c.Query("scores")) {
		score, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid score"})
			return
		}
		filter.Scores = append(filter.Scores, score)
	}

	anime, err := h.db.ListAnime(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list anime"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(anime, func(a database.Anime, _ int) models.Anime {
		return models.AnimeFromDB(a)
	}))
}

func (h *Handler) GetAnime(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	anime, err := h.db.GetAnimeByID(c.Request.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "anime not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get anime"})
		return
	}
	c.JSON(http.StatusOK, models.AnimeFromDB(*anime))
}

// SaveTags replaces the custom tags of an anime.
func (h *Handler) SaveTags(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var body struct {
		Tags []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if _, err := h.db.GetAnimeByID(c.Request.Context(), id); err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "anime not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get anime"})
		return
	}

	if err := h.engine.SaveTags(c.Request.Context(), id, body.Tags); err != nil {
		log.Error("failed to save tags", "animeID", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save tags"})
		return
	}

	linked, err := h.db.GetTagsForAnime(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get tags"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(linked, func(tag database.Tag, _ int) models.Tag {
		return models.TagFromDB(tag)
	}))
}

// FetchAnime enriches a single anime on demand and returns the result.
func (h *Handler) FetchAnime(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if _, err := h.engine.FetchOne(c.Request.Context(), id); err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "anime not found"})
			return
		}
		log.Error("failed to fetch anime", "animeID", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch metadata"})
		return
	}
	anime, err := h.db.GetAnimeByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get anime"})
		return
	}
	c.JSON(http.StatusOK, models.AnimeFromDB(*anime))
}

// MissingData lists the anime that have not been enriched yet.
func (h *Handler) MissingData(c *gin.Context) {
	anime, err := h.db.GetAnimeMissingData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list anime"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(anime, func(a database.Anime, _ int) models.Anime {
		return models.AnimeFromDB(a)
	}))
}

func (h *Handler) ListTags(c *gin.Context) {
	tagList, err := h.db.ListTags(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tags"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(tagList, func(tag database.Tag, _ int) models.Tag {
		return models.TagFromDB(tag)
	}))
}

// DeleteTag removes a custom tag everywhere. System tags cannot be deleted.
func (h *Handler) DeleteTag(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.db.DeleteTag(c.Request.Context(), id); err != nil {
		switch {
		case database.IsNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "tag not found"})
		case errors.Is(err, database.ErrTagNotDeletable):
			c.JSON(http.StatusConflict, gin.H{"error": "only custom tags can be deleted"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete tag"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.db.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
