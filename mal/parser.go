// Package mal parses MyAnimeList XML export files into normalized entries.
package mal

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// zeroDate is the sentinel MAL uses for unset dates.
const zeroDate = "0000-00-00"

// ParseError indicates that a document is not a well-formed MAL export.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid MAL export: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid MAL export: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Entry is a single normalized list entry from a MAL export.
type Entry struct {
	// MalID is the MAL catalog id. Entries without one carry 0 and are
	// skipped by the importer.
	MalID           int64
	Title           string
	Type            string
	// Episodes is the total episode count, nil when unknown.
	Episodes        *int
	Score           int
	Status          string
	WatchedEpisodes int
	StartDate       *time.Time
	FinishDate      *time.Time
	Rewatching      bool
	RewatchingEp    int
}

// rawEntry mirrors the <anime> element. Numeric fields are decoded as strings
// because exports in the wild contain empty or junk values that must default
// to zero instead of failing the decode.
type rawEntry struct {
	SeriesAnimeDBID string `xml:"series_animedb_id"`
	SeriesTitle     string `xml:"series_title"`
	SeriesType      string `xml:"series_type"`
	SeriesEpisodes  string `xml:"series_episodes"`
	MyWatchedEps    string `xml:"my_watched_episodes"`
	MyStartDate     string `xml:"my_start_date"`
	MyFinishDate    string `xml:"my_finish_date"`
	MyScore         string `xml:"my_score"`
	MyStatus        string `xml:"my_status"`
	MyRewatching    string `xml:"my_rewatching"`
	MyRewatchingEp  string `xml:"my_rewatching_ep"`
}

type export struct {
	XMLName xml.Name   `xml:"myanimelist"`
	Anime   []rawEntry `xml:"anime"`
}

// Parse reads a MAL XML export and returns its entries in document order.
// A document with a single <anime> element yields a one-element slice.
// It returns a *ParseError when the document is malformed or lacks the
// <myanimelist> root.
func Parse(r io.Reader) ([]Entry, error) {
	var doc export
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Reason: "malformed document", Err: err}
	}
	if doc.XMLName.Local != "myanimelist" {
		return nil, &ParseError{Reason: "missing myanimelist root element"}
	}

	entries := make([]Entry, 0, len(doc.Anime))
	for _, raw := range doc.Anime {
		entries = append(entries, normalize(raw))
	}
	return entries, nil
}

func normalize(raw rawEntry) Entry {
	return Entry{
		MalID:           parseInt64(raw.SeriesAnimeDBID),
		Title:           strings.TrimSpace(raw.SeriesTitle),
		Type:            strings.TrimSpace(raw.SeriesType),
		Episodes:        parseEpisodes(raw.SeriesEpisodes),
		Score:           parseInt(raw.MyScore),
		Status:          strings.TrimSpace(raw.MyStatus),
		WatchedEpisodes: parseInt(raw.MyWatchedEps),
		StartDate:       parseDate(raw.MyStartDate),
		FinishDate:      parseDate(raw.MyFinishDate),
		Rewatching:      parseInt(raw.MyRewatching) == 1,
		RewatchingEp:    parseInt(raw.MyRewatchingEp),
	}
}

// parseDate normalizes the zero-date sentinel and unparsable dates to nil,
// never to an error.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == zeroDate {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// parseEpisodes treats 0 and junk as "unknown" since MAL exports use 0 for
// series with an unannounced episode count.
func parseEpisodes(s string) *int {
	n := parseInt(s)
	if n <= 0 {
		return nil
	}
	return &n
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
