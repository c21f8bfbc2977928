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
	"sort"

	"github.com/zydee3/aria/pkg/indexing"
)

// SearchResult is one ranked hit from a semantic search.
type SearchResult struct {
	QualifiedName string  `json:"qualified_name"`
	Signature     string  `json:"signature"`
	Summary       string  `json:"summary,omitempty"`
	Score         float32 `json:"score"`
}

// Search ranks every vector in store against queryVector by cosine
// similarity, keeping hits at or above threshold and returning at most
// limit results (limit <= 0 means unlimited) in descending score order.
// Functions present in store but no longer present in idx are skipped:
// the store may carry stale entries until the next index run prunes it.
func Search(idx *indexing.Index, store *indexing.EmbeddingStore, queryVector []float32, limit int, threshold float32) []SearchResult {
	byQualified := idx.FunctionByQualifiedName()

	var results []SearchResult
	for _, key := range store.Keys() {
		fn, ok := byQualified[key]
		if !ok {
			continue
		}
		vector, ok := store.Get(key)
		if !ok {
			continue
		}
		score := indexing.CosineSimilarity(queryVector, vector)
		if score < threshold {
			continue
		}
		results = append(results, SearchResult{
			QualifiedName: fn.QualifiedName,
			Signature:     fn.Signature,
			Summary:       fn.Summary,
			Score:         score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].QualifiedName < results[j].QualifiedName
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
