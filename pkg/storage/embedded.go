// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zydee3/aria/pkg/indexing"
)

// LocalIndexStore implements IndexStore as a single JSON file on local
// disk. This is the only backend; the persistence format is an
// implementation convenience, not part of any durability contract.
type LocalIndexStore struct {
	path   string
	mu     sync.RWMutex
	closed bool
}

// LocalIndexStoreConfig configures a LocalIndexStore.
type LocalIndexStoreConfig struct {
	// StateDir is the project's .aria/ directory. Defaults to ".aria" in
	// the current working directory.
	StateDir string
}

const indexFileName = "index.json"

// NewLocalIndexStore opens (without requiring the existence of) the
// index document under config.StateDir. The directory is created if
// absent.
func NewLocalIndexStore(config LocalIndexStoreConfig) (*LocalIndexStore, error) {
	if config.StateDir == "" {
		config.StateDir = ".aria"
	}
	if err := os.MkdirAll(config.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &LocalIndexStore{path: filepath.Join(config.StateDir, indexFileName)}, nil
}

// Load reads the index document, returning a fresh empty index if none
// exists yet.
func (s *LocalIndexStore) Load() (*indexing.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("index store is closed")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return indexing.NewIndex(), nil
		}
		return nil, fmt.Errorf("read index document: %w", err)
	}

	var idx indexing.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse index document: %w", err)
	}
	if idx.Version != "" && idx.Version != indexing.IndexSchemaVersion {
		return nil, fmt.Errorf("index schema version mismatch: document is %q, this binary expects %q", idx.Version, indexing.IndexSchemaVersion)
	}
	return &idx, nil
}

// Save atomically writes idx: it marshals to a sibling temp file, then
// renames over the existing document so a crash mid-write never leaves
// a truncated or partially-written index.json.
func (s *LocalIndexStore) Save(idx *indexing.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index store is closed")
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index document: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp index document: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("commit index document: %w", err)
	}
	return nil
}

// Close marks the store closed. Subsequent Load/Save calls fail.
func (s *LocalIndexStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ IndexStore = (*LocalIndexStore)(nil)
