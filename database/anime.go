package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Anime represents a single title on the user's list.
// Import-owned fields are overwritten on every re-import; enrichment-owned
// fields (alternate titles, synopsis, image, trailer, year) are only written
// by a successful metadata fetch.
// Rows are deleted for real instead of gorm's soft delete: the MAL id must be
// re-importable after a manual delete, and soft-deleted rows would keep
// occupying the unique index.
type Anime struct {
	ID                uint `gorm:"primarykey"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	MalID             int64  `gorm:"not null;uniqueIndex"`
	Title             string `gorm:"not null"`
	TitleEnglish      *string
	TitleJapanese     *string
	Type              *string
	Episodes          *int // nil when the total episode count is unknown
	MyScore           int  // 0 means unscored
	MyWatchedEpisodes int
	MyStartDate       *time.Time
	MyFinishDate      *time.Time
	MyRewatching      bool
	MyRewatchingEp    int
	// Fetched is set after the first enrichment attempt, successful or not,
	// so the sweep never retries the same title forever.
	Fetched    bool `gorm:"not null;default:false;index"`
	Synopsis   *string
	ImageURL   *string
	TrailerURL *string
	Year       *int
	Tags       []AnimeTag `gorm:"constraint:OnDelete:CASCADE;"`
}

// TableName pins the table to the uninflected form, anime is its own plural.
func (Anime) TableName() string { return "anime" }

// Enrichment holds the fields populated by a successful metadata fetch.
type Enrichment struct {
	TitleEnglish  *string
	TitleJapanese *string
	Synopsis      *string
	ImageURL      *string
	TrailerURL    *string
	Year          *int
}

func (c *Client) GetAnimeByMalID(ctx context.Context, malID int64) (*Anime, error) {
	var anime Anime
	if err := c.db.WithContext(ctx).Where("mal_id = ?", malID).First(&anime).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get anime by MAL ID", "mal_id", malID, "error", err)
		}
		return nil, err
	}
	return &anime, nil
}

func (c *Client) GetAnimeByID(ctx context.Context, id uint) (*Anime, error) {
	var anime Anime
	if err := c.db.WithContext(ctx).Preload("Tags.Tag").First(&anime, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get anime by ID", "id", id, "error", err)
		}
		return nil, err
	}
	return &anime, nil
}

func (c *Client) CreateAnime(ctx context.Context, anime *Anime) error {
	if err := c.db.WithContext(ctx).Create(anime).Error; err != nil {
		log.Error("failed to create anime", "mal_id", anime.MalID, "error", err)
		return err
	}
	return nil
}

// UpdateImportFields overwrites the import-owned fields of an existing anime.
// Enrichment-owned fields and the fetched flag are left untouched.
func (c *Client) UpdateImportFields(ctx context.Context, animeID uint, anime *Anime) error {
	updates := map[string]any{
		"title":               anime.Title,
		"type":                anime.Type,
		"episodes":            anime.Episodes,
		"my_score":            anime.MyScore,
		"my_watched_episodes": anime.MyWatchedEpisodes,
		"my_start_date":       anime.MyStartDate,
		"my_finish_date":      anime.MyFinishDate,
		"my_rewatching":       anime.MyRewatching,
		"my_rewatching_ep":    anime.MyRewatchingEp,
	}
	if err := c.db.WithContext(ctx).Model(&Anime{}).Where("id = ?", animeID).Updates(updates).Error; err != nil {
		log.Error("failed to update anime", "id", animeID, "error", err)
		return err
	}
	return nil
}

// ApplyEnrichment writes the enrichment-owned fields and marks the anime as
// fetched in one update.
func (c *Client) ApplyEnrichment(ctx context.Context, animeID uint, e *Enrichment) error {
	updates := map[string]any{
		"title_english":  e.TitleEnglish,
		"title_japanese": e.TitleJapanese,
		"synopsis":       e.Synopsis,
		"image_url":      e.ImageURL,
		"trailer_url":    e.TrailerURL,
		"year":           e.Year,
		"fetched":        true,
	}
	if err := c.db.WithContext(ctx).Model(&Anime{}).Where("id = ?", animeID).Updates(updates).Error; err != nil {
		log.Error("failed to apply enrichment", "id", animeID, "error", err)
		return err
	}
	return nil
}

// MarkFetched sets the fetched flag without touching any other field. Used
// after permanent enrichment failures.
func (c *Client) MarkFetched(ctx context.Context, animeID uint) error {
	if err := c.db.WithContext(ctx).Model(&Anime{}).Where("id = ?", animeID).Update("fetched", true).Error; err != nil {
		log.Error("failed to mark anime as fetched", "id", animeID, "error", err)
		return err
	}
	return nil
}

// GetAnimeMissingData returns all anime that have not been through an
// enrichment attempt yet, ordered by id so a resumed sweep continues where
// the previous one stopped.
func (c *Client) GetAnimeMissingData(ctx context.Context) ([]Anime, error) {
	var anime []Anime
	if err := c.db.WithContext(ctx).Where("fetched = ?", false).Order("id").Find(&anime).Error; err != nil {
		log.Error("failed to get anime missing data", "error", err)
		return nil, err
	}
	return anime, nil
}

// AnimeFilter describes the list query options.
type AnimeFilter struct {
	// Search matches against the title and the English title.
	Search string
	// TagIDs limits the result to anime linked to all of the given tags.
	TagIDs []uint
	// Scores limits the result to anime with one of the given scores.
	Scores []int
	// SortBy is one of title, score, episodes, updated. Empty sorts by title.
	SortBy string
	// SortDesc reverses the sort order.
	SortDesc bool
}

// ListAnime returns anime with their tags, filtered and sorted.
func (c *Client) ListAnime(ctx context.Context, filter AnimeFilter) ([]Anime, error) {
	tx := c.db.WithContext(ctx).Model(&Anime{}).Preload("Tags.Tag")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		tx = tx.Where("title LIKE ? OR title_english LIKE ?", pattern, pattern)
	}
	if len(filter.Scores) > 0 {
		tx = tx.Where("my_score IN ?", filter.Scores)
	}
	for _, tagID := range filter.TagIDs {
		tx = tx.Where(
			"EXISTS (SELECT 1 FROM anime_tags WHERE anime_tags.anime_id = anime.id AND anime_tags.tag_id = ?)",
			tagID,
		)
	}

	order := "title"
	switch filter.SortBy {
	case "", "title":
	case "score":
		order = "my_score"
	case "episodes":
		order = "my_watched_episodes"
	case "updated":
		order = "updated_at"
	}
	if filter.SortDesc {
		order += " DESC"
	}
	tx = tx.Order(order)

	var anime []Anime
	if err := tx.Find(&anime).Error; err != nil {
		log.Error("failed to list anime", "error", err)
		return nil, err
	}
	return anime, nil
}
