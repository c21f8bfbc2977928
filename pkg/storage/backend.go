// Copyright 2025 KrakLabs
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
//
// SPDX-License-Identifier: Apache-2.0

// Package storage persists the index document.
//
// IndexStore is the interface every persistence implementation satisfies:
// Load, Save, Close. LocalIndexStore is the only implementation, backed
// by a plain JSON document on disk under a project's .aria/ directory.
package storage

import "github.com/zydee3/aria/pkg/indexing"

// IndexStore persists and retrieves an indexing.Index document.
type IndexStore interface {
	// Load reads the current index document. A missing document is not
	// an error: it returns a fresh, empty index.
	Load() (*indexing.Index, error)

	// Save atomically writes idx as the current index document.
	Save(idx *indexing.Index) error

	// Close releases any resources held by the store.
	Close() error
}
