// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/anirag/core"
)

// shokoDateLayout is the timestamp format used by Shoko catalog dumps.
const shokoDateLayout = "2006-01-02 15:04:05"

// dump is the top-level shape of a Shoko catalog export.
type dump struct {
	Anime []rawRecord `json:"AniDB_Anime"`
}

// rawRecord keeps loosely typed fields as any because dumps are not
// consistent about numbers versus numeric strings.
type rawRecord struct {
	AniDBAnimeID        any    `json:"AniDB_AnimeID"`
	MainTitle           string `json:"MainTitle"`
	AllTitles           string `json:"AllTitles"`
	AllTags             string `json:"AllTags"`
	Description         string `json:"Description"`
	EpisodeCountNormal  any    `json:"EpisodeCountNormal"`
	EpisodeCountSpecial any    `json:"EpisodeCountSpecial"`
	AirDate             string `json:"AirDate"`
	EndDate             string `json:"EndDate"`
	BeginYear           any    `json:"BeginYear"`
	EndYear             any    `json:"EndYear"`
	Rating              any    `json:"Rating"`
	VoteCount           any    `json:"VoteCount"`
	ANNID               any    `json:"ANNID"`
	CrunchyrollID       string `json:"CrunchyrollID"`
	WikipediaID         string `json:"Wikipedia_ID"`
}

// Loader turns Shoko catalog dumps into show records.
type Loader struct {
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
	}
}

// NewLoader creates a catalog loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{logger: slog.Default().With("component", "catalog-loader")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile opens a catalog dump and returns its records.
// The whole file is decoded up front; iteration over the result is
// lazy, so record conversion cost is paid per record.
func (l *Loader) LoadFile(path string) (iter.Seq[*core.ShowRecord], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load decodes a catalog dump from r and returns its records.
// Records missing an AniDB ID are skipped with a warning, not fatal;
// one bad row must not sink a seventeen-hundred-show catalog.
func (l *Loader) Load(r io.Reader) (iter.Seq[*core.ShowRecord], error) {
	var d dump
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if d.Anime == nil {
		return nil, fmt.Errorf("catalog has no AniDB_Anime list")
	}

	l.logger.Info("loaded catalog dump", "records", len(d.Anime))

	return func(yield func(*core.ShowRecord) bool) {
		for idx, raw := range d.Anime {
			record, ok := l.convert(idx, raw)
			if !ok {
				continue
			}
			if !yield(record) {
				return
			}
		}
	}, nil
}

func (l *Loader) convert(idx int, raw rawRecord) (*core.ShowRecord, bool) {
	aid := coerceInt(raw.AniDBAnimeID)
	if aid == 0 {
		l.logger.Warn("skipping catalog record without AniDB_AnimeID", "index", idx)
		return nil, false
	}

	title := strings.TrimSpace(raw.MainTitle)
	if title == "" {
		l.logger.Warn("catalog record missing MainTitle", "anidb_id", aid)
		title = "Unknown Title"
	}

	var alts []string
	for _, alt := range SplitPipe(raw.AllTitles) {
		if !strings.EqualFold(alt, title) {
			alts = append(alts, alt)
		}
	}

	record := &core.ShowRecord{
		RecordID:            core.RecordIDForAniDB(aid),
		AniDBID:             aid,
		TitleMain:           title,
		TitleAlts:           alts,
		Description:         CleanDescription(raw.Description),
		Tags:                SplitPipe(raw.AllTags),
		EpisodeCountNormal:  coerceInt(raw.EpisodeCountNormal),
		EpisodeCountSpecial: coerceInt(raw.EpisodeCountSpecial),
		AirDate:             parseShokoDate(raw.AirDate),
		EndDate:             parseShokoDate(raw.EndDate),
		BeginYear:           coerceInt(raw.BeginYear),
		EndYear:             coerceInt(raw.EndYear),
		Rating:              coerceInt(raw.Rating),
		VoteCount:           coerceInt(raw.VoteCount),
		ANNID:               coerceInt(raw.ANNID),
		CrunchyrollID:       strings.TrimSpace(raw.CrunchyrollID),
		WikipediaID:         strings.TrimSpace(raw.WikipediaID),
	}
	record.Normalize()
	return record, true
}

// coerceInt accepts JSON numbers, numeric strings, and nil.
// Anything unconvertible maps to zero.
func coerceInt(v any) int {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return int(n)
	case int:
		return n
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func parseShokoDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(shokoDateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
