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

// Package bootstrap handles project state-directory initialization.
//
// This internal package creates and opens a project's .aria/ state
// directory: the index document, its sibling embedding files, and a
// cache/ subdirectory for anything the pipeline wants to persist
// between runs that isn't part of the index itself.
//
// # Initialization Workflow
//
//	info, err := bootstrap.InitProject(bootstrap.ProjectConfig{
//	    RootDir: "/path/to/repo", // optional, defaults to cwd
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Project initialized at: %s\n", info.StateDir)
//
//	// Later, open the project for queries
//	store, err := bootstrap.OpenProject(bootstrap.ProjectConfig{
//	    RootDir: "/path/to/repo",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Idempotency
//
// InitProject is idempotent: calling it multiple times on the same
// project is safe and never overwrites an existing index document.
package bootstrap
