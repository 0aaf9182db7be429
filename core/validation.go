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


package core

import (
	"fmt"
	"strings"
)

// ValidateShowRecord validates a ShowRecord according to domain rules.
//
// Validation rules:
//   - RecordID must not be empty or whitespace
//   - TitleMain must not be empty or whitespace
//   - Episode counts must not be negative
//   - Rating must be within 0-1000
//   - EndYear requires BeginYear, and must not precede it
//
// NOT validated:
//   - AniDBID and external ids (optional, source-dependent)
//   - FetchedAt (zero is valid for catalog-sourced records)
func ValidateShowRecord(record *ShowRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidShowRecord)
	}

	if strings.TrimSpace(record.RecordID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidShowRecord, ErrEmptyRecordID)
	}

	if strings.TrimSpace(record.TitleMain) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidShowRecord, ErrEmptyTitle)
	}

	if record.EpisodeCountNormal < 0 || record.EpisodeCountSpecial < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidShowRecord, ErrNegativeEpisodeCount)
	}

	if record.Rating < 0 || record.Rating > 1000 {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidShowRecord, ErrRatingOutOfRange, record.Rating)
	}

	if record.EndYear != 0 {
		if record.BeginYear == 0 {
			return fmt.Errorf("%w: %w", ErrInvalidShowRecord, ErrEndYearWithoutBeginYear)
		}
		if record.EndYear < record.BeginYear {
			return fmt.Errorf("%w: %w (%d < %d)",
				ErrInvalidShowRecord, ErrEndYearBeforeBeginYear, record.EndYear, record.BeginYear)
		}
	}

	return nil
}
