package core

import (
	"strconv"
	"strings"
	"time"
)

// ResultSource identifies where a retrieval result came from.
type ResultSource int

const (
	// SourceVectorStore marks results produced by local similarity search.
	SourceVectorStore ResultSource = iota + 1
	// SourceExternalFallback marks results fetched from the external
	// metadata source because local results were judged insufficient.
	SourceExternalFallback
)

// String returns the log/rendering representation of the source tag.
func (s ResultSource) String() string {
	switch s {
	case SourceVectorStore:
		return "vector_store"
	case SourceExternalFallback:
		return "external_fallback"
	default:
		return "unknown"
	}
}

// RecordIDForAniDB builds the canonical record ID for an AniDB anime
// ID. The catalog loader and the external fetcher share this scheme so
// the same show always maps to the same record, whichever path found
// it first.
func RecordIDForAniDB(aid int) string {
	return "anidb-" + strconv.Itoa(aid)
}

// Relation links a show to a related or similar show.
type Relation struct {
	RelatedID    string `json:"related_id"`
	RelationType string `json:"relation_type,omitempty"`
	Title        string `json:"title,omitempty"`
	BeginYear    int    `json:"begin_year,omitempty"`
	EndYear      int    `json:"end_year,omitempty"`
}

// ShowRecord is one catalog entry. Records are created by the catalog
// loader or by the external metadata fetcher, and are only ever
// replaced whole; there is no partial-field mutation.
type ShowRecord struct {
	// RecordID is the stable unique identifier. Immutable once assigned.
	RecordID string `json:"record_id"`
	// AniDBID is the upstream AniDB identifier, when known.
	AniDBID int `json:"anidb_id,omitempty"`

	TitleMain string   `json:"title_main"`
	TitleAlts []string `json:"title_alts,omitempty"`

	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	EpisodeCountNormal  int `json:"episode_count_normal,omitempty"`
	EpisodeCountSpecial int `json:"episode_count_special,omitempty"`

	AirDate *time.Time `json:"air_date,omitempty"`
	EndDate *time.Time `json:"end_date,omitempty"`

	// BeginYear and EndYear use 0 for "unknown".
	BeginYear int `json:"begin_year,omitempty"`
	EndYear   int `json:"end_year,omitempty"`

	// Rating is on the AniDB 0-1000 scale.
	Rating    int `json:"rating,omitempty"`
	VoteCount int `json:"vote_count,omitempty"`

	ANNID         int    `json:"ann_id,omitempty"`
	CrunchyrollID string `json:"crunchyroll_id,omitempty"`
	WikipediaID   string `json:"wikipedia_id,omitempty"`

	Relations []Relation `json:"relations,omitempty"`
	Similar   []Relation `json:"similar,omitempty"`

	// FetchedAt is set when the record was produced by the external
	// metadata fetcher. Zero for catalog-sourced records.
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// Normalize trims whitespace from identifier and title fields and drops
// empty entries from title and tag lists. Alternate titles and tags are
// deduplicated case-insensitively, preserving first occurrence.
func (r *ShowRecord) Normalize() {
	r.RecordID = strings.TrimSpace(r.RecordID)
	r.TitleMain = strings.TrimSpace(r.TitleMain)
	r.CrunchyrollID = strings.TrimSpace(r.CrunchyrollID)
	r.WikipediaID = strings.TrimSpace(r.WikipediaID)
	r.TitleAlts = dedupeStrings(r.TitleAlts)
	r.Tags = dedupeStrings(r.Tags)
}

// HasTitle reports whether title matches the record's main title or any
// alternate title, ignoring case and surrounding whitespace.
func (r *ShowRecord) HasTitle(title string) bool {
	want := strings.ToLower(strings.TrimSpace(title))
	if want == "" {
		return false
	}
	if strings.ToLower(r.TitleMain) == want {
		return true
	}
	for _, alt := range r.TitleAlts {
		if strings.ToLower(strings.TrimSpace(alt)) == want {
			return true
		}
	}
	return false
}

// EmbedText renders the record as the text that gets embedded for
// similarity search. Titles lead so short queries anchor on them.
func (r *ShowRecord) EmbedText() string {
	parts := []string{r.TitleMain}

	if len(r.TitleAlts) > 0 {
		alts := r.TitleAlts
		if len(alts) > 5 {
			alts = alts[:5]
		}
		parts = append(parts, "Also known as: "+strings.Join(alts, ", "))
	}
	if r.Description != "" {
		parts = append(parts, r.Description)
	}
	if len(r.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(r.Tags, ", "))
	}
	if r.EpisodeCountNormal > 0 {
		parts = append(parts, "Episodes: "+strconv.Itoa(r.EpisodeCountNormal))
	}
	if r.BeginYear > 0 {
		years := strconv.Itoa(r.BeginYear)
		if r.EndYear > 0 && r.EndYear != r.BeginYear {
			years += "-" + strconv.Itoa(r.EndYear)
		}
		parts = append(parts, "Year: "+years)
	}

	return strings.Join(parts, "\n\n")
}

// RetrievalResult is a ShowRecord annotated with query-relative
// retrieval metadata. It is distinct from ShowRecord because the score
// belongs to the query, not the record.
type RetrievalResult struct {
	Record *ShowRecord
	// Distance is the vector store's dissimilarity score, lower = more
	// similar. Undefined when HasDistance reports false.
	Distance float64
	Source   ResultSource
}

// HasDistance reports whether Distance carries a comparable vector
// distance. External-fallback results return false: they are
// authoritative matches and must be rendered by label, never compared
// or averaged with vector distances.
func (rr *RetrievalResult) HasDistance() bool {
	return rr.Source == SourceVectorStore
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
