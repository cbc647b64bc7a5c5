package database

import (
	"context"

	"github.com/charmbracelet/log"
)

// Stats provides aggregate statistics over the whole list.
type Stats struct {
	TotalAnime      int64          `json:"total_anime"`
	TotalFetched    int64          `json:"total_fetched"`
	EpisodesWatched int64          `json:"episodes_watched"`
	MeanScore       float64        `json:"mean_score"`
	ByStatus        map[string]int `json:"by_status"`
	ScoreCounts     map[int]int    `json:"score_counts"`
}

// GetStats computes aggregate statistics. The mean only considers scored
// anime (score 0 means unscored).
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus:    make(map[string]int),
		ScoreCounts: make(map[int]int),
	}

	if err := c.db.WithContext(ctx).Model(&Anime{}).Count(&stats.TotalAnime).Error; err != nil {
		log.Error("failed to count anime", "error", err)
		return nil, err
	}
	if err := c.db.WithContext(ctx).Model(&Anime{}).Where("fetched = ?", true).Count(&stats.TotalFetched).Error; err != nil {
		log.Error("failed to count fetched anime", "error", err)
		return nil, err
	}

	var episodes *int64
	err := c.db.WithContext(ctx).Model(&Anime{}).
		Select("SUM(my_watched_episodes)").Scan(&episodes).Error
	if err != nil {
		log.Error("failed to sum watched episodes", "error", err)
		return nil, err
	}
	if episodes != nil {
		stats.EpisodesWatched = *episodes
	}

	var mean *float64
	err = c.db.WithContext(ctx).Model(&Anime{}).
		Where("my_score > 0").
		Select("AVG(my_score)").Scan(&mean).Error
	if err != nil {
		log.Error("failed to compute mean score", "error", err)
		return nil, err
	}
	if mean != nil {
		stats.MeanScore = *mean
	}

	type statusRow struct {
		Name  string
		Count int
	}
	var statusRows []statusRow
	err = c.db.WithContext(ctx).Model(&AnimeTag{}).
		Select("tags.name AS name, COUNT(*) AS count").
		Joins("JOIN tags ON tags.id = anime_tags.tag_id").
		Where("tags.is_status = ?", true).
		Group("tags.name").
		Scan(&statusRows).Error
	if err != nil {
		log.Error("failed to count anime by status", "error", err)
		return nil, err
	}
	for _, row := range statusRows {
		stats.ByStatus[row.Name] = row.Count
	}

	type scoreRow struct {
		Score int
		Count int
	}
	var scoreRows []scoreRow
	err = c.db.WithContext(ctx).Model(&Anime{}).
		Select("my_score AS score, COUNT(*) AS count").
		Where("my_score > 0").
		Group("my_score").
		Scan(&scoreRows).Error
	if err != nil {
		log.Error("failed to count scores", "error", err)
		return nil, err
	}
	for _, row := range scoreRows {
		stats.ScoreCounts[row.Score] = row.Count
	}

	return stats, nil
}
