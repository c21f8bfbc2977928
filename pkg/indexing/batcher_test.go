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

import "testing"

func batchOfRequests(n int) []SummaryRequest {
	reqs := make([]SummaryRequest, n)
	for i := range reqs {
		reqs[i] = SummaryRequest{QualifiedName: string(rune('a' + i))}
	}
	return reqs
}

func TestBatcher_EvenDivision(t *testing.T) {
	b := NewBatcher(3)
	batches := b.Batch(batchOfRequests(9))
	if len(batches) != 3 {
		t.Fatalf("len(batches) = %d, want 3", len(batches))
	}
	for i, batch := range batches {
		if len(batch) != 3 {
			t.Errorf("batch %d len = %d, want 3", i, len(batch))
		}
	}
}

func TestBatcher_RemainderFormsFinalShortBatch(t *testing.T) {
	b := NewBatcher(4)
	batches := b.Batch(batchOfRequests(10))
	if len(batches) != 3 {
		t.Fatalf("len(batches) = %d, want 3", len(batches))
	}
	if len(batches[0]) != 4 || len(batches[1]) != 4 || len(batches[2]) != 2 {
		t.Errorf("batch sizes = %d, %d, %d; want 4, 4, 2", len(batches[0]), len(batches[1]), len(batches[2]))
	}
}

func TestBatcher_PreservesOrder(t *testing.T) {
	b := NewBatcher(2)
	reqs := batchOfRequests(5)
	batches := b.Batch(reqs)

	var flattened []SummaryRequest
	for _, batch := range batches {
		flattened = append(flattened, batch...)
	}
	for i, req := range flattened {
		if req.QualifiedName != reqs[i].QualifiedName {
			t.Errorf("flattened[%d] = %q, want %q", i, req.QualifiedName, reqs[i].QualifiedName)
		}
	}
}

func TestBatcher_EmptyInputYieldsNoBatches(t *testing.T) {
	b := NewBatcher(5)
	if batches := b.Batch(nil); batches != nil {
		t.Errorf("batches = %v, want nil", batches)
	}
}

func TestBatcher_NonPositiveBatchSizeTreatedAsOne(t *testing.T) {
	b := NewBatcher(0)
	batches := b.Batch(batchOfRequests(3))
	if len(batches) != 3 {
		t.Fatalf("len(batches) = %d, want 3", len(batches))
	}
	for _, batch := range batches {
		if len(batch) != 1 {
			t.Errorf("batch len = %d, want 1", len(batch))
		}
	}
}
