package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/anitrack/database"
	"github.com/jon4hz/anitrack/mal"
	"github.com/jon4hz/anitrack/tags"
)

// ImportResult summarizes one import run.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportXML parses a MyAnimeList export and reconciles every entry into the
// database. A document that fails to parse aborts the whole import before
// any entry is touched.
func (e *Engine) ImportXML(ctx context.Context, r io.Reader) (*ImportResult, error) {
	entries, err := mal.Parse(r)
	if err != nil {
		return nil, err
	}
	return e.ImportEntries(ctx, entries)
}

// ImportEntries reconciles the given entries one by one. Each entry gets its
// own transaction so a failure only loses that entry; entries without a MAL
// ID are dropped without being counted.
func (e *Engine) ImportEntries(ctx context.Context, entries []mal.Entry) (*ImportResult, error) {
	result := &ImportResult{}
	for _, entry := range entries {
		if entry.MalID == 0 {
			continue
		}
		result.Total++

		created, err := e.importEntry(ctx, entry)
		if err != nil {
			log.Error("failed to import entry", "malID", entry.MalID, "title", entry.Title, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s (%d): %v", entry.Title, entry.MalID, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	log.Info("import finished",
		"total", result.Total,
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed)
	return result, nil
}

// importEntry runs one reconciliation transaction, retrying when sqlite
// reports the database as busy.
func (e *Engine) importEntry(ctx context.Context, entry mal.Entry) (created bool, err error) {
	err = e.txRetry.Do(ctx, func() error {
		created = false
		return e.db.Transaction(ctx, func(tx *database.Client) error {
			var txErr error
			created, txErr = e.reconcile(ctx, tx, entry)
			return txErr
		})
	})
	return created, err
}

// reconcile upserts the anime row and aligns its status and type tags with
// the export. Custom tags and enrichment data are left alone.
func (e *Engine) reconcile(ctx context.Context, tx *database.Client, entry mal.Entry) (bool, error) {
	var animeType *string
	if entry.Type != "" {
		animeType = &entry.Type
	}
	anime := &database.Anime{
		MalID:             entry.MalID,
		Title:             entry.Title,
		Type:              animeType,
		Episodes:          entry.Episodes,
		MyScore:           entry.Score,
		MyWatchedEpisodes: entry.WatchedEpisodes,
		MyStartDate:       entry.StartDate,
		MyFinishDate:      entry.FinishDate,
		MyRewatching:      entry.Rewatching,
		MyRewatchingEp:    entry.RewatchingEp,
	}

	existing, err := tx.GetAnimeByMalID(ctx, entry.MalID)
	created := false
	switch {
	case err == nil:
		anime.ID = existing.ID
		if err := tx.UpdateImportFields(ctx, existing.ID, anime); err != nil {
			return false, err
		}
	case database.IsNotFound(err):
		created = true
		if err := tx.CreateAnime(ctx, anime); err != nil {
			return false, err
		}
	default:
		return false, err
	}

	status := tags.CanonicalStatus(entry.Status)
	if err := e.replaceCategoryTag(ctx, tx, anime.ID, database.TagCategoryStatus, status, database.Tag{
		Name:     status,
		IsStatus: true,
	}); err != nil {
		return created, err
	}

	if entry.Type != "" {
		if err := e.replaceCategoryTag(ctx, tx, anime.ID, database.TagCategoryType, entry.Type, database.Tag{
			Name:   entry.Type,
			IsType: true,
		}); err != nil {
			return created, err
		}
	}
	return created, nil
}

func (e *Engine) replaceCategoryTag(ctx context.Context, tx *database.Client, animeID uint, category database.TagCategory, name string, tag database.Tag) error {
	tag.ColorKey = string(tags.ColorKeyFor(name, false))
	got, err := tx.GetOrCreateTag(ctx, tag)
	if err != nil {
		return err
	}
	return tx.ReplaceCategoryTag(ctx, animeID, category, got.ID)
}

// SaveTags replaces the custom tags of an anime with the given names. Newly
// created tags get a random custom color, system tags are untouched.
func (e *Engine) SaveTags(ctx context.Context, animeID uint, names []string) error {
	pick := func() string { return string(tags.RandomCustomKey(e.rng)) }
	return e.db.Transaction(ctx, func(tx *database.Client) error {
		return tx.ReplaceCustomTags(ctx, animeID, names, pick)
	})
}
