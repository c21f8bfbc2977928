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

package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zydee3/aria/pkg/storage"
)

// ProjectConfig holds configuration for initializing a project's state
// directory.
type ProjectConfig struct {
	// RootDir is the repository root the state directory lives under.
	// Defaults to the current working directory.
	RootDir string
}

// ProjectInfo holds information about an initialized project.
type ProjectInfo struct {
	RootDir  string
	StateDir string
}

const stateDirName = ".aria"
const cacheDirName = "cache"

// InitProject creates a project's .aria/ state directory if absent:
// the directory itself and an empty cache/ subdirectory. It does not
// write an index document; it only checks that the store loads. This
// function is idempotent: calling it multiple times on an
// already-initialized project is safe and leaves any existing index
// document untouched.
func InitProject(config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.RootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		config.RootDir = wd
	}

	stateDir := filepath.Join(config.RootDir, stateDirName)
	logger.Info("bootstrap.project.init.start", "root_dir", config.RootDir, "state_dir", stateDir)

	if err := os.MkdirAll(filepath.Join(stateDir, cacheDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	store, err := storage.NewLocalIndexStore(storage.LocalIndexStoreConfig{StateDir: stateDir})
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	defer func() { _ = store.Close() }()

	// Load touches the document's existence without requiring it; on a
	// fresh project this writes nothing, it simply confirms the store
	// is usable before InitProject reports success.
	if _, err := store.Load(); err != nil {
		return nil, fmt.Errorf("verify index store: %w", err)
	}

	logger.Info("bootstrap.project.init.success", "root_dir", config.RootDir, "state_dir", stateDir)

	return &ProjectInfo{
		RootDir:  config.RootDir,
		StateDir: stateDir,
	}, nil
}

// OpenProject opens an existing project's index store.
func OpenProject(config ProjectConfig, logger *slog.Logger) (*storage.LocalIndexStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.RootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		config.RootDir = wd
	}

	stateDir := filepath.Join(config.RootDir, stateDirName)
	if _, err := os.Stat(stateDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("project not found: %s (run 'aria init' first)", stateDir)
	}

	logger.Debug("bootstrap.project.open", "root_dir", config.RootDir, "state_dir", stateDir)

	store, err := storage.NewLocalIndexStore(storage.LocalIndexStoreConfig{StateDir: stateDir})
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	return store, nil
}
