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

import "errors"

// Domain validation errors
var (
	// ErrInvalidShowRecord indicates a ShowRecord failed validation.
	ErrInvalidShowRecord = errors.New("invalid show record")

	// ErrEmptyRecordID indicates the RecordID field is empty.
	ErrEmptyRecordID = errors.New("record id cannot be empty")

	// ErrEmptyTitle indicates the TitleMain field is empty.
	ErrEmptyTitle = errors.New("main title cannot be empty")

	// ErrNegativeEpisodeCount indicates an episode count below zero.
	ErrNegativeEpisodeCount = errors.New("episode count cannot be negative")

	// ErrRatingOutOfRange indicates a rating outside the 0-1000 scale.
	ErrRatingOutOfRange = errors.New("rating must be between 0 and 1000")

	// ErrEndYearBeforeBeginYear indicates EndYear precedes BeginYear.
	ErrEndYearBeforeBeginYear = errors.New("end year cannot be before begin year")

	// ErrEndYearWithoutBeginYear indicates EndYear is set with no BeginYear.
	ErrEndYearWithoutBeginYear = errors.New("end year requires a begin year")
)
