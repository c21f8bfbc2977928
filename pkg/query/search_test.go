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

package query

import (
	"testing"

	"github.com/zydee3/aria/pkg/indexing"
)

func TestSearch_RanksByCosineSimilarityAndAppliesThreshold(t *testing.T) {
	idx := indexing.NewIndex()
	idx.Files["pkg/a.go"] = &indexing.FileRecord{
		Path: "pkg/a.go",
		Functions: []*indexing.Function{
			{Name: "Close", QualifiedName: "pkg.Close", Signature: "func Close()"},
			{Name: "Open", QualifiedName: "pkg.Open", Signature: "func Open()"},
		},
	}

	store := indexing.NewEmbeddingStore(2)
	store.Put("pkg.Close", []float32{1, 0})
	store.Put("pkg.Open", []float32{0, 1})

	results := Search(idx, store, []float32{1, 0}, 10, 0.5)
	if len(results) != 1 || results[0].QualifiedName != "pkg.Close" {
		t.Fatalf("results = %+v, want [pkg.Close]", results)
	}
}

func TestSearch_SkipsEntriesNoLongerInIndex(t *testing.T) {
	idx := indexing.NewIndex()
	idx.Files["pkg/a.go"] = &indexing.FileRecord{
		Path: "pkg/a.go",
		Functions: []*indexing.Function{
			{Name: "Close", QualifiedName: "pkg.Close", Signature: "func Close()"},
		},
	}

	store := indexing.NewEmbeddingStore(2)
	store.Put("pkg.Close", []float32{1, 0})
	store.Put("pkg.Deleted", []float32{1, 0})

	results := Search(idx, store, []float32{1, 0}, 10, 0)
	if len(results) != 1 || results[0].QualifiedName != "pkg.Close" {
		t.Fatalf("results = %+v, want [pkg.Close]", results)
	}
}

func TestSearch_RespectsLimit(t *testing.T) {
	idx := indexing.NewIndex()
	idx.Files["pkg/a.go"] = &indexing.FileRecord{
		Path: "pkg/a.go",
		Functions: []*indexing.Function{
			{Name: "A", QualifiedName: "pkg.A"},
			{Name: "B", QualifiedName: "pkg.B"},
		},
	}
	store := indexing.NewEmbeddingStore(2)
	store.Put("pkg.A", []float32{1, 0})
	store.Put("pkg.B", []float32{0.9, 0.1})

	results := Search(idx, store, []float32{1, 0}, 1, 0)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}
