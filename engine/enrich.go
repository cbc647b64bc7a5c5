package engine

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/anitrack/database"
	"github.com/jon4hz/anitrack/jikan"
	"github.com/jon4hz/anitrack/tags"
)

// SweepResult summarizes one enrichment sweep.
type SweepResult struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// FetchOne enriches a single anime from the Jikan API. It reports whether
// metadata was applied. A 404 or an exhausted retry budget is a terminal
// outcome: the row is marked fetched with no fields so later sweeps never
// ask for it again. Only cancellation and database failures return an error.
func (e *Engine) FetchOne(ctx context.Context, animeID uint) (bool, error) {
	anime, err := e.db.GetAnimeByID(ctx, animeID)
	if err != nil {
		return false, err
	}

	data, err := e.jikan.GetAnime(ctx, anime.MalID)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if errors.Is(err, jikan.ErrNotFound) {
			log.Warn("anime not found on jikan, skipping for good", "malID", anime.MalID, "title", anime.Title)
		} else {
			log.Warn("giving up on anime metadata", "malID", anime.MalID, "title", anime.Title, "error", err)
		}
		return false, e.db.MarkFetched(ctx, anime.ID)
	}

	enrichment := &database.Enrichment{
		TitleEnglish:  data.TitleEnglish,
		TitleJapanese: data.TitleJapanese,
		ImageURL:      data.ImageURL,
		Synopsis:      data.Synopsis,
		TrailerURL:    data.TrailerURL,
		Year:          data.Year,
	}
	err = e.db.Transaction(ctx, func(tx *database.Client) error {
		if err := tx.ApplyEnrichment(ctx, anime.ID, enrichment); err != nil {
			return err
		}
		if err := e.linkMetadataTags(ctx, tx, anime.ID, data.Studios, true); err != nil {
			return err
		}
		return e.linkMetadataTags(ctx, tx, anime.ID, data.Genres, false)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// linkMetadataTags attaches studio or genre tags. Links are additive, tags
// attached by earlier imports or by the user stay in place.
func (e *Engine) linkMetadataTags(ctx context.Context, tx *database.Client, animeID uint, names []string, isStudio bool) error {
	for _, name := range names {
		tag := database.Tag{
			Name:     name,
			IsStudio: isStudio,
			IsGenre:  !isStudio,
			ColorKey: string(tags.ColorKeyFor(name, isStudio)),
		}
		got, err := tx.GetOrCreateTag(ctx, tag)
		if err != nil {
			return err
		}
		if err := tx.LinkTag(ctx, animeID, got.ID); err != nil {
			return err
		}
	}
	return nil
}

// Sweep enriches every anime that has not been fetched yet, one at a time.
// The fetched flag makes the sweep resumable: rows handled by a previous run,
// including the terminally unavailable ones, are never requested again.
func (e *Engine) Sweep(ctx context.Context) (*SweepResult, error) {
	missing, err := e.db.GetAnimeMissingData(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Total: len(missing)}
	log.Info("starting enrichment sweep", "pending", len(missing))
	for _, anime := range missing {
		enriched, err := e.FetchOne(ctx, anime.ID)
		if err != nil {
			if ctx.Err() != nil {
				return result, err
			}
			log.Error("failed to enrich anime", "malID", anime.MalID, "title", anime.Title, "error", err)
			result.Failed++
			continue
		}
		if enriched {
			result.Updated++
		} else {
			result.Failed++
		}
	}
	log.Info("enrichment sweep finished", "updated", result.Updated, "failed", result.Failed)
	return result, nil
}
