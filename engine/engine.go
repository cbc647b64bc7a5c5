// Package engine implements the import and enrichment pipeline: it parses
// MyAnimeList exports, reconciles them into the database and fills in
// metadata from the Jikan API.
package engine

import (
	"math/rand"
	"time"

	"github.com/jon4hz/anitrack/config"
	"github.com/jon4hz/anitrack/database"
	"github.com/jon4hz/anitrack/jikan"
	"github.com/jon4hz/anitrack/retry"
)

type Engine struct {
	cfg     *config.Config
	db      *database.Client
	jikan   *jikan.Client
	txRetry retry.Policy
	rng     *rand.Rand
}

// New creates an engine. A nil rng falls back to a time-seeded source;
// tests pass a seeded one to make custom tag colors reproducible.
func New(cfg *config.Config, db *database.Client, jikanClient *jikan.Client, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		cfg:   cfg,
		db:    db,
		jikan: jikanClient,
		rng:   rng,
		txRetry: retry.Policy{
			MaxAttempts: cfg.Import.MaxRetries,
			Backoff:     retry.Linear(cfg.Import.RetryDelay),
			Retryable:   database.IsBusy,
		},
	}
}
