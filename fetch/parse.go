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


package fetch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/anirag/core"
)

// anidbResponse mirrors the gateway's JSON layout.
type anidbResponse struct {
	AID    int    `json:"aid"`
	Title  string `json:"title"`
	Titles []struct {
		Title string `json:"title"`
		Type  string `json:"type"`
	} `json:"titles"`
	Synopsis string `json:"synopsis"`
	Tags     []struct {
		Name string `json:"name"`
	} `json:"tags"`
	EpisodeCountNormal  int    `json:"episode_count_normal"`
	EpisodeCountSpecial int    `json:"episode_count_special"`
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
	BeginYear           int    `json:"begin_year"`
	EndYear             int    `json:"end_year"`
	Ratings             struct {
		Permanent      float64 `json:"permanent"`
		PermanentCount int     `json:"permanent_count"`
	} `json:"ratings"`
	ANNID         int    `json:"ann_id"`
	CrunchyrollID string `json:"crunchyroll_id"`
	WikipediaID   string `json:"wikipedia_id"`
	RelatedAnime  []struct {
		AID   int    `json:"aid"`
		Type  string `json:"type"`
		Title string `json:"title"`
	} `json:"related_anime"`
	SimilarAnime []struct {
		AID   int    `json:"aid"`
		Title string `json:"title"`
	} `json:"similar_anime"`
}

// ParseAniDBResponse maps a gateway JSON document onto a ShowRecord.
// Ratings arrive on a 0-10 scale and are stored on the catalog's
// 0-1000 scale. Unparseable dates are dropped, not fatal.
func ParseAniDBResponse(data []byte) (*core.ShowRecord, error) {
	var resp anidbResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	if resp.AID == 0 {
		return nil, fmt.Errorf("%w: missing aid", ErrBadResponse)
	}
	if strings.TrimSpace(resp.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", ErrBadResponse)
	}

	record := &core.ShowRecord{
		RecordID:            core.RecordIDForAniDB(resp.AID),
		AniDBID:             resp.AID,
		TitleMain:           resp.Title,
		Description:         resp.Synopsis,
		EpisodeCountNormal:  resp.EpisodeCountNormal,
		EpisodeCountSpecial: resp.EpisodeCountSpecial,
		BeginYear:           resp.BeginYear,
		EndYear:             resp.EndYear,
		Rating:              int(resp.Ratings.Permanent * 100),
		VoteCount:           resp.Ratings.PermanentCount,
		ANNID:               resp.ANNID,
		CrunchyrollID:       resp.CrunchyrollID,
		WikipediaID:         resp.WikipediaID,
		FetchedAt:           time.Now().UTC(),
	}

	for _, t := range resp.Titles {
		if t.Title != "" && t.Type != "main" {
			record.TitleAlts = append(record.TitleAlts, t.Title)
		}
	}
	for _, tag := range resp.Tags {
		if tag.Name != "" {
			record.Tags = append(record.Tags, tag.Name)
		}
	}

	record.AirDate = parseDate(resp.StartDate)
	record.EndDate = parseDate(resp.EndDate)

	for _, rel := range resp.RelatedAnime {
		if rel.AID == 0 {
			continue
		}
		record.Relations = append(record.Relations, core.Relation{
			RelatedID:    core.RecordIDForAniDB(rel.AID),
			RelationType: rel.Type,
			Title:        rel.Title,
		})
	}
	for _, sim := range resp.SimilarAnime {
		if sim.AID == 0 {
			continue
		}
		record.Similar = append(record.Similar, core.Relation{
			RelatedID: core.RecordIDForAniDB(sim.AID),
			Title:     sim.Title,
		})
	}

	record.Normalize()
	if err := core.ValidateShowRecord(record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return record, nil
}

// parseDate accepts RFC 3339 timestamps and bare dates. Anything else
// maps to nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
