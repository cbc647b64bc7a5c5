package mal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<myanimelist>
  <anime>
    <series_animedb_id>5114</series_animedb_id>
    <series_title>Fullmetal Alchemist: Brotherhood</series_title>
    <series_type>TV</series_type>
    <series_episodes>64</series_episodes>
    <my_watched_episodes>64</my_watched_episodes>
    <my_start_date>2020-01-05</my_start_date>
    <my_finish_date>2020-03-10</my_finish_date>
    <my_score>10</my_score>
    <my_status>Completed</my_status>
    <my_rewatching>0</my_rewatching>
    <my_rewatching_ep>0</my_rewatching_ep>
  </anime>
  <anime>
    <series_animedb_id>21</series_animedb_id>
    <series_title>One Piece</series_title>
    <series_type>TV</series_type>
    <series_episodes>0</series_episodes>
    <my_watched_episodes>1071</my_watched_episodes>
    <my_start_date>0000-00-00</my_start_date>
    <my_finish_date>0000-00-00</my_finish_date>
    <my_score>0</my_score>
    <my_status>Watching</my_status>
    <my_rewatching>1</my_rewatching>
    <my_rewatching_ep>12</my_rewatching_ep>
  </anime>
</myanimelist>`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sampleExport))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, int64(5114), first.MalID)
	assert.Equal(t, "Fullmetal Alchemist: Brotherhood", first.Title)
	assert.Equal(t, "TV", first.Type)
	require.NotNil(t, first.Episodes)
	assert.Equal(t, 64, *first.Episodes)
	assert.Equal(t, 10, first.Score)
	assert.Equal(t, "Completed", first.Status)
	require.NotNil(t, first.StartDate)
	assert.Equal(t, time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), *first.StartDate)
	assert.False(t, first.Rewatching)

	second := entries[1]
	assert.Equal(t, int64(21), second.MalID)
	// Episode count 0 means unknown
	assert.Nil(t, second.Episodes)
	// Zero-date sentinel normalizes to nil
	assert.Nil(t, second.StartDate)
	assert.Nil(t, second.FinishDate)
	assert.True(t, second.Rewatching)
	assert.Equal(t, 12, second.RewatchingEp)
}

func TestParseSingleEntryNotWrappedInList(t *testing.T) {
	single := `<myanimelist>
  <anime>
    <series_animedb_id>1</series_animedb_id>
    <series_title>Cowboy Bebop</series_title>
    <series_type>TV</series_type>
    <series_episodes>26</series_episodes>
    <my_score>9</my_score>
    <my_status>Completed</my_status>
  </anime>
</myanimelist>`

	entries, err := Parse(strings.NewReader(single))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].MalID)
	assert.Equal(t, "Cowboy Bebop", entries[0].Title)
}

func TestParseMalformedDocument(t *testing.T) {
	_, err := Parse(strings.NewReader("<myanimelist><anime>"))
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParseWrongRoot(t *testing.T) {
	_, err := Parse(strings.NewReader("<export><anime></anime></export>"))
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParseEmptyList(t *testing.T) {
	entries, err := Parse(strings.NewReader("<myanimelist></myanimelist>"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseJunkNumbers(t *testing.T) {
	junk := `<myanimelist>
  <anime>
    <series_animedb_id>100</series_animedb_id>
    <series_title>Test</series_title>
    <series_episodes>unknown</series_episodes>
    <my_watched_episodes></my_watched_episodes>
    <my_score>abc</my_score>
    <my_start_date>not-a-date</my_start_date>
  </anime>
</myanimelist>`

	entries, err := Parse(strings.NewReader(junk))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Nil(t, e.Episodes)
	assert.Equal(t, 0, e.WatchedEpisodes)
	assert.Equal(t, 0, e.Score)
	assert.Nil(t, e.StartDate)
}

func TestParseMissingNaturalKey(t *testing.T) {
	doc := `<myanimelist>
  <anime>
    <series_title>No ID</series_title>
  </anime>
</myanimelist>`

	entries, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// The parser keeps the entry; the importer decides to skip it.
	assert.Equal(t, int64(0), entries[0].MalID)
}
