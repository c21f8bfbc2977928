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
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zydee3/aria/pkg/indexing"
)

func setupTestStore(t *testing.T) *LocalIndexStore {
	t.Helper()
	store, err := NewLocalIndexStore(LocalIndexStoreConfig{StateDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocalIndexStore failed: %v", err)
	}
	return store
}

func TestNewLocalIndexStore_CreatesStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".aria")
	if _, err := NewLocalIndexStore(LocalIndexStoreConfig{StateDir: dir}); err != nil {
		t.Fatalf("NewLocalIndexStore failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected state dir %q to exist", dir)
	}
}

func TestNewLocalIndexStore_DefaultStateDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if _, err := NewLocalIndexStore(LocalIndexStoreConfig{}); err != nil {
		t.Fatalf("NewLocalIndexStore failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".aria")); err != nil {
		t.Fatalf("expected default .aria dir to be created: %v", err)
	}
}

func TestLocalIndexStore_Load_MissingDocumentReturnsEmptyIndex(t *testing.T) {
	store := setupTestStore(t)

	idx, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if idx == nil {
		t.Fatal("expected non-nil index")
	}
	if idx.Version != indexing.IndexSchemaVersion {
		t.Errorf("Version = %q, want %q", idx.Version, indexing.IndexSchemaVersion)
	}
	if len(idx.Files) != 0 {
		t.Errorf("expected empty Files map, got %d entries", len(idx.Files))
	}
}

func TestLocalIndexStore_SaveThenLoad_RoundTrips(t *testing.T) {
	store := setupTestStore(t)

	idx := indexing.NewIndex()
	idx.SourceCommit = "abc123"
	idx.Files["main.go"] = &indexing.FileRecord{
		Path:     "main.go",
		Language: "go",
		Functions: []*indexing.Function{
			{Name: "main", QualifiedName: "main", Signature: "func main()"},
		},
	}

	if err := store.Save(idx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SourceCommit != "abc123" {
		t.Errorf("SourceCommit = %q, want %q", loaded.SourceCommit, "abc123")
	}
	fr, ok := loaded.Files["main.go"]
	if !ok {
		t.Fatal("expected main.go in loaded files")
	}
	if len(fr.Functions) != 1 || fr.Functions[0].QualifiedName != "main" {
		t.Errorf("unexpected functions: %+v", fr.Functions)
	}
}

func TestLocalIndexStore_Save_WritesAtomically(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Save(indexing.NewIndex()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(store.path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("expected temp file to be renamed away, stat err = %v", err)
	}
	if _, err := os.Stat(store.path); err != nil {
		t.Fatalf("expected final index document to exist: %v", err)
	}
}

func TestLocalIndexStore_Load_SchemaVersionMismatchIsFatal(t *testing.T) {
	store := setupTestStore(t)

	stale := struct {
		Version string `json:"version"`
	}{Version: "0"}
	data, err := json.Marshal(stale)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := os.WriteFile(store.path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := store.Load(); err == nil {
		t.Error("expected schema version mismatch to be fatal")
	}
}

func TestLocalIndexStore_Close_PreventsFurtherOperations(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := store.Load(); err == nil {
		t.Error("expected Load to fail after Close")
	}
	if err := store.Save(indexing.NewIndex()); err == nil {
		t.Error("expected Save to fail after Close")
	}
}

func TestLocalIndexStore_Close_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Close(); err != nil {
		t.Errorf("first Close returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
}

func TestLocalIndexStore_ConcurrentLoads(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Save(indexing.NewIndex()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	const readers = 10
	var wg sync.WaitGroup
	wg.Add(readers)
	for range readers {
		go func() {
			defer wg.Done()
			if _, err := store.Load(); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
