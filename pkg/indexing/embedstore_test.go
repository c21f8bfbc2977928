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

package indexing

import (
	"os"
	"path/filepath"
	"testing"
)

// Scenario F — embedding round-trip.
func TestEmbeddingStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	idxPath := filepath.Join(dir, "embeddings.idx")
	binPath := filepath.Join(dir, "embeddings.bin")

	store := NewEmbeddingStore(4)
	store.Put("pkg.Foo", []float32{1, 2, 3, 4})
	store.Put("pkg.Bar", []float32{-1, -2, -3, -4})
	store.Put("pkg.Baz", []float32{0.5, 0.25, 0.125, 0.0625})

	if err := store.Save(idxPath, binPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(binPath)
	if err != nil {
		t.Fatalf("stat binary file: %v", err)
	}
	if got, want := info.Size(), int64(3*4*4); got != want {
		t.Errorf("binary file size = %d, want %d", got, want)
	}

	loaded, err := LoadEmbeddingStore(idxPath, binPath, 4)
	if err != nil {
		t.Fatalf("LoadEmbeddingStore: %v", err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("loaded.Len() = %d, want 3", loaded.Len())
	}

	for _, key := range store.Keys() {
		want, _ := store.Get(key)
		got, ok := loaded.Get(key)
		if !ok {
			t.Fatalf("key %q missing after reload", key)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s[%d] = %v, want %v (bit-identical)", key, i, got[i], want[i])
			}
		}
	}
}

func TestEmbeddingStore_EmptyStoreWritesZeroByteFiles(t *testing.T) {
	dir := t.TempDir()
	idxPath := filepath.Join(dir, "embeddings.idx")
	binPath := filepath.Join(dir, "embeddings.bin")

	store := NewEmbeddingStore(8)
	if err := store.Save(idxPath, binPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	for _, p := range []string{idxPath, binPath} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Size() != 0 {
			t.Errorf("%s size = %d, want 0", p, info.Size())
		}
	}
}

func TestEmbeddingStore_LoadRejectsSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	idxPath := filepath.Join(dir, "embeddings.idx")
	binPath := filepath.Join(dir, "embeddings.bin")

	if err := os.WriteFile(idxPath, []byte("pkg.Foo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// One entry at dim=4 should be 16 bytes; write 8 instead.
	if err := os.WriteFile(binPath, make([]byte, 8), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadEmbeddingStore(idxPath, binPath, 4); err == nil {
		t.Fatal("expected size-mismatch error, got nil")
	}
}

func TestEmbeddingStore_Prune(t *testing.T) {
	dir := t.TempDir()
	idxPath := filepath.Join(dir, "embeddings.idx")
	binPath := filepath.Join(dir, "embeddings.bin")

	store := NewEmbeddingStore(2)
	store.Put("pkg.Keep", []float32{1, 2})
	store.Put("pkg.Drop", []float32{3, 4})
	if err := store.Save(idxPath, binPath); err != nil {
		t.Fatal(err)
	}

	removed, err := store.Prune(map[string]bool{"pkg.Keep": true}, idxPath, binPath)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	reloaded, err := LoadEmbeddingStore(idxPath, binPath, 2)
	if err != nil {
		t.Fatalf("LoadEmbeddingStore after prune: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Errorf("reloaded.Len() = %d, want 1", reloaded.Len())
	}
	if _, ok := reloaded.Get("pkg.Drop"); ok {
		t.Error("pkg.Drop should have been pruned")
	}
}

func TestCosineSimilarity(t *testing.T) {
	v := []float32{1, 2, 3}
	neg := []float32{-1, -2, -3}
	orth := []float32{2, -1, 0}

	if got := CosineSimilarity(v, v); abs32(got-1.0) > 1e-4 {
		t.Errorf("self similarity = %v, want ~1.0", got)
	}
	if got := CosineSimilarity(v, neg); abs32(got-(-1.0)) > 1e-4 {
		t.Errorf("negation similarity = %v, want ~-1.0", got)
	}
	if got := CosineSimilarity(v, orth); abs32(got) > 1e-4 {
		t.Errorf("orthogonal similarity = %v, want ~0.0", got)
	}
	if got := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("mismatched-length similarity = %v, want 0", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("zero-magnitude similarity = %v, want 0", got)
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func embedstoreTestIndex() *Index {
	idx := NewIndex()
	idx.Files["pkg/a.go"] = &FileRecord{
		Path:     "pkg/a.go",
		Language: "go",
		Functions: []*Function{
			{Name: "Square", QualifiedName: "pkg.Square", ContentHash: 111},
			{Name: "Cube", QualifiedName: "pkg.Cube", ContentHash: 222},
		},
	}
	return idx
}

func TestCarryForwardEmbeddings_SameNameSameHash(t *testing.T) {
	prior := embedstoreTestIndex()
	store := NewEmbeddingStore(2)
	store.Put("pkg.Square", []float32{1, 2})
	store.Put("pkg.Cube", []float32{3, 4})

	current := embedstoreTestIndex()
	currentByName := current.FunctionByQualifiedName()
	currentByName["pkg.Cube"].ContentHash = 999 // body changed

	carried := CarryForwardEmbeddings(current, prior, store)
	if carried != 1 {
		t.Fatalf("carried = %d, want 1", carried)
	}
	if len(currentByName["pkg.Square"].Embedding) != 2 {
		t.Error("Square's embedding should have been carried forward")
	}
	if currentByName["pkg.Cube"].Embedding != nil {
		t.Error("Cube changed content hash; its embedding must not be carried forward")
	}
}

func TestCarryForwardEmbeddings_MatchesByContentHashAcrossRename(t *testing.T) {
	prior := embedstoreTestIndex()
	store := NewEmbeddingStore(2)
	store.Put("pkg.Square", []float32{1, 2})

	current := NewIndex()
	current.Files["pkg/a.go"] = &FileRecord{
		Path:     "pkg/a.go",
		Language: "go",
		Functions: []*Function{
			{Name: "Sq", QualifiedName: "pkg.Sq", ContentHash: 111}, // renamed, same body
		},
	}

	carried := CarryForwardEmbeddings(current, prior, store)
	if carried != 1 {
		t.Fatalf("carried = %d, want 1", carried)
	}
	if len(current.Functions()[0].Embedding) != 2 {
		t.Error("renamed function with unchanged content hash should carry its embedding")
	}
}
