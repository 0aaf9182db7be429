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

import "errors"

var (
	// ErrNotFound indicates the metadata source has no show with the
	// requested title.
	ErrNotFound = errors.New("show not found")

	// ErrBadResponse indicates the metadata source answered with a
	// payload that could not be mapped to a show record.
	ErrBadResponse = errors.New("bad metadata response")

	// ErrUnavailable indicates the metadata source could not be reached
	// or answered with a server error.
	ErrUnavailable = errors.New("metadata source unavailable")
)
