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

// Package storage persists the index document produced by pkg/indexing.
//
// IndexStore is the single abstraction the rest of the codebase depends
// on: Load, Save, Close. LocalIndexStore is the only implementation,
// backed by a plain JSON document on disk. The persistence format is an
// implementation convenience, not a durability contract — a future
// backend (a shared cache, a remote index service) can satisfy the same
// interface without touching callers.
//
// # Quick Start
//
//	store, err := storage.NewLocalIndexStore(storage.LocalIndexStoreConfig{
//	    StateDir: ".aria",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	idx, err := store.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... mutate idx via pkg/indexing ...
//
//	if err := store.Save(idx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration
//
// LocalIndexStoreConfig controls where the document lives:
//
//	config := storage.LocalIndexStoreConfig{
//	    StateDir: ".aria", // project-local state directory
//	}
//
// If StateDir is empty it defaults to ".aria" in the current working
// directory. The directory is created on NewLocalIndexStore if absent.
//
// # Missing documents
//
// Load never fails because the document doesn't exist yet: a fresh,
// empty indexing.Index is returned instead, so a first-time index run
// looks identical to an incremental one with nothing to carry forward.
//
// # Schema versioning
//
// Every document embeds indexing.IndexSchemaVersion. Load rejects a
// document written by an incompatible version rather than attempting a
// partial read — callers should re-run a full index in that case.
//
// # Atomicity
//
// Save marshals to a sibling ".tmp" file and renames it over the
// existing document, so a crash mid-write never leaves a truncated or
// partially-written index.json behind.
//
// # Thread Safety
//
// LocalIndexStore is safe for concurrent use. Load holds a read lock;
// Save holds an exclusive lock, so concurrent reads don't block each
// other but a write excludes all readers for its duration.
package storage
