// Package models holds the JSON shapes served by the API.
package models

import (
	"time"

	"github.com/jon4hz/anitrack/database"
	"github.com/jon4hz/anitrack/tags"
	"github.com/samber/lo"
)

type Tag struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color"`
}

type Anime struct {
	ID                uint       `json:"id"`
	MalID             int64      `json:"malId"`
	Title             string     `json:"title"`
	TitleEnglish      *string    `json:"titleEnglish"`
	TitleJapanese     *string    `json:"titleJapanese"`
	Type              *string    `json:"type"`
	Episodes          *int       `json:"episodes"`
	MyScore           int        `json:"myScore"`
	MyWatchedEpisodes int        `json:"myWatchedEpisodes"`
	MyStartDate       *time.Time `json:"myStartDate"`
	MyFinishDate      *time.Time `json:"myFinishDate"`
	MyRewatching      bool       `json:"myRewatching"`
	MyRewatchingEp    int        `json:"myRewatchingEp"`
	Fetched           bool       `json:"fetched"`
	Synopsis          *string    `json:"synopsis"`
	ImageURL          *string    `json:"imageUrl"`
	TrailerURL        *string    `json:"trailerUrl"`
	Year              *int       `json:"year"`
	Tags              []Tag      `json:"tags"`
}

func TagFromDB(tag database.Tag) Tag {
	return Tag{
		ID:       tag.ID,
		Name:     tag.Name,
		Category: string(tag.Category()),
		Color:    tags.Color(tag.ColorKey),
	}
}

func AnimeFromDB(anime database.Anime) Anime {
	return Anime{
		ID:                anime.ID,
		MalID:             anime.MalID,
		Title:             anime.Title,
		TitleEnglish:      anime.TitleEnglish,
		TitleJapanese:     anime.TitleJapanese,
		Type:              anime.Type,
		Episodes:          anime.Episodes,
		MyScore:           anime.MyScore,
		MyWatchedEpisodes: anime.MyWatchedEpisodes,
		MyStartDate:       anime.MyStartDate,
		MyFinishDate:      anime.MyFinishDate,
		MyRewatching:      anime.MyRewatching,
		MyRewatchingEp:    anime.MyRewatchingEp,
		Fetched:           anime.Fetched,
		Synopsis:          anime.Synopsis,
		ImageURL:          anime.ImageURL,
		TrailerURL:        anime.TrailerURL,
		Year:              anime.Year,
		Tags: lo.Map(anime.Tags, func(at database.AnimeTag, _ int) Tag {
			return TagFromDB(at.Tag)
		}),
	}
}
