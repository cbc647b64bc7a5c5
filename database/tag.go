package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagCategory identifies which path owns a tag association.
type TagCategory string

const (
	// TagCategoryStatus and TagCategoryType are system-owned: every import
	// recomputes them, displacing prior membership in the category.
	TagCategoryStatus TagCategory = "status"
	TagCategoryType   TagCategory = "type"
	// TagCategoryStudio and TagCategoryGenre are additive: enrichment links
	// them but never removes existing links.
	TagCategoryStudio TagCategory = "studio"
	TagCategoryGenre  TagCategory = "genre"
	// TagCategoryCustom tags are user-owned and only mutated by the explicit
	// set-tags operation.
	TagCategoryCustom TagCategory = "custom"
)

// Tag is a classification label. The category flags are assigned at creation
// and never change; a tag with no flag set is a free-form user tag.
type Tag struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"not null;uniqueIndex"`
	IsStatus  bool   `gorm:"not null;default:false"`
	IsType    bool   `gorm:"not null;default:false"`
	IsStudio  bool   `gorm:"not null;default:false"`
	IsGenre   bool   `gorm:"not null;default:false"`
	ColorKey  string `gorm:"not null;default:DEFAULT"`
}

// Category returns the category a tag belongs to.
func (t *Tag) Category() TagCategory {
	switch {
	case t.IsStatus:
		return TagCategoryStatus
	case t.IsType:
		return TagCategoryType
	case t.IsStudio:
		return TagCategoryStudio
	case t.IsGenre:
		return TagCategoryGenre
	default:
		return TagCategoryCustom
	}
}

// AnimeTag links an anime to a tag, unique per pair.
type AnimeTag struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	AnimeID   uint `gorm:"not null;uniqueIndex:idx_anime_tag;index"`
	TagID     uint `gorm:"not null;uniqueIndex:idx_anime_tag"`
	Tag       Tag  `gorm:"constraint:OnDelete:CASCADE;"`
}

// GetOrCreateTag returns the tag with the given name, creating it if needed.
// The unique name constraint arbitrates concurrent creation: when the insert
// conflicts, the surviving row is re-fetched instead of returning an error.
func (c *Client) GetOrCreateTag(ctx context.Context, tag Tag) (*Tag, error) {
	var existing Tag
	err := c.db.WithContext(ctx).Where("name = ?", tag.Name).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("failed to get tag", "name", tag.Name, "error", err)
		return nil, err
	}

	result := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&tag)
	if result.Error != nil {
		log.Error("failed to create tag", "name", tag.Name, "error", result.Error)
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Lost the creation race, fetch the surviving row.
		if err := c.db.WithContext(ctx).Where("name = ?", tag.Name).First(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	return &tag, nil
}

// categoryColumn maps a system category to its flag column.
func categoryColumn(category TagCategory) (string, error) {
	switch category {
	case TagCategoryStatus:
		return "is_status", nil
	case TagCategoryType:
		return "is_type", nil
	case TagCategoryStudio:
		return "is_studio", nil
	case TagCategoryGenre:
		return "is_genre", nil
	default:
		return "", fmt.Errorf("no flag column for category %q", category)
	}
}

// ReplaceCategoryTag removes all of the anime's associations in the given
// category and links exactly the given tag instead.
func (c *Client) ReplaceCategoryTag(ctx context.Context, animeID uint, category TagCategory, tagID uint) error {
	column, err := categoryColumn(category)
	if err != nil {
		return err
	}

	err = c.db.WithContext(ctx).
		Where("anime_id = ? AND tag_id IN (?)",
			animeID,
			c.db.Model(&Tag{}).Select("id").Where(column+" = ?", true),
		).
		Delete(&AnimeTag{}).Error
	if err != nil {
		log.Error("failed to remove category tags", "anime_id", animeID, "category", category, "error", err)
		return err
	}

	return c.LinkTag(ctx, animeID, tagID)
}

// LinkTag associates a tag with an anime. Linking an already linked tag is a
// no-op.
func (c *Client) LinkTag(ctx context.Context, animeID, tagID uint) error {
	link := AnimeTag{AnimeID: animeID, TagID: tagID}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "anime_id"}, {Name: "tag_id"}},
		DoNothing: true,
	}).Create(&link).Error
	if err != nil {
		log.Error("failed to link tag", "anime_id", animeID, "tag_id", tagID, "error", err)
		return err
	}
	return nil
}

// ReplaceCustomTags replaces the anime's free-form tag set in a single diff:
// all current custom associations are removed, then the given names are
// linked, creating missing tags with a color from pickColor. Status, type,
// studio and genre associations are never touched.
func (c *Client) ReplaceCustomTags(ctx context.Context, animeID uint, names []string, pickColor func() string) error {
	err := c.db.WithContext(ctx).
		Where("anime_id = ? AND tag_id IN (?)",
			animeID,
			c.db.Model(&Tag{}).Select("id").
				Where("is_status = ? AND is_type = ? AND is_studio = ? AND is_genre = ?", false, false, false, false),
		).
		Delete(&AnimeTag{}).Error
	if err != nil {
		log.Error("failed to remove custom tags", "anime_id", animeID, "error", err)
		return err
	}

	for _, name := range names {
		tag, err := c.GetOrCreateTag(ctx, Tag{Name: name, ColorKey: pickColor()})
		if err != nil {
			return err
		}
		if err := c.LinkTag(ctx, animeID, tag.ID); err != nil {
			return err
		}
	}
	return nil
}

// GetTagsForAnime returns all tags linked to an anime.
func (c *Client) GetTagsForAnime(ctx context.Context, animeID uint) ([]Tag, error) {
	var tagList []Tag
	err := c.db.WithContext(ctx).
		Joins("JOIN anime_tags ON anime_tags.tag_id = tags.id").
		Where("anime_tags.anime_id = ?", animeID).
		Order("tags.name").
		Find(&tagList).Error
	if err != nil {
		log.Error("failed to get tags for anime", "anime_id", animeID, "error", err)
		return nil, err
	}
	return tagList, nil
}

// ListTags returns all tags ordered by name.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var tagList []Tag
	if err := c.db.WithContext(ctx).Order("name").Find(&tagList).Error; err != nil {
		log.Error("failed to list tags", "error", err)
		return nil, err
	}
	return tagList, nil
}

// ErrTagNotDeletable is returned when a user tries to delete a system tag.
var ErrTagNotDeletable = fmt.Errorf("only custom tags can be deleted")

// DeleteTag removes a free-form tag and all of its associations. System tags
// (status, type, studio, genre) are never user-deletable.
func (c *Client) DeleteTag(ctx context.Context, tagID uint) error {
	var tag Tag
	if err := c.db.WithContext(ctx).First(&tag, tagID).Error; err != nil {
		return err
	}
	if tag.Category() != TagCategoryCustom {
		return ErrTagNotDeletable
	}

	return c.Transaction(ctx, func(tx *Client) error {
		if err := tx.db.Where("tag_id = ?", tagID).Delete(&AnimeTag{}).Error; err != nil {
			return err
		}
		return tx.db.Delete(&Tag{}, tagID).Error
	})
}
