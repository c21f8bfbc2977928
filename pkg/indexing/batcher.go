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

// Batcher splits a level's SummaryRequests into fixed-size batches, each
// of which becomes a single LLM call.
type Batcher struct {
	batchSize int
}

// NewBatcher returns a Batcher that groups requests into batches of at
// most batchSize. A non-positive batchSize is treated as 1.
func NewBatcher(batchSize int) *Batcher {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Batcher{batchSize: batchSize}
}

// Batch partitions requests into ordered, contiguous batches of at most
// b.batchSize elements each.
func (b *Batcher) Batch(requests []SummaryRequest) [][]SummaryRequest {
	if len(requests) == 0 {
		return nil
	}

	var batches [][]SummaryRequest
	for start := 0; start < len(requests); start += b.batchSize {
		end := start + b.batchSize
		if end > len(requests) {
			end = len(requests)
		}
		batches = append(batches, requests[start:end])
	}
	return batches
}
