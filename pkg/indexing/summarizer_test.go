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
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/zydee3/aria/pkg/llm"
)

func summarizerTestIndex() *Index {
	idx := NewIndex()
	idx.Files["pkg/math.go"] = &FileRecord{
		Path:     "pkg/math.go",
		Language: "go",
		Functions: []*Function{
			{
				Name:          "Square",
				QualifiedName: "pkg.Square",
				LineStart:     1,
				LineEnd:       3,
				Signature:     "func Square(n int) int",
			},
			{
				Name:          "SumOfSquares",
				QualifiedName: "pkg.SumOfSquares",
				LineStart:     5,
				LineEnd:       8,
				Signature:     "func SumOfSquares(a, b int) int",
				Calls: []CallSite{
					{Raw: "Square", Line: 6, Target: "pkg.Square"},
					{Raw: "Square", Line: 7, Target: "pkg.Square"},
				},
			},
		},
	}
	return idx
}

const testSource = `package pkg

func Square(n int) int {
	return n * n
}

func SumOfSquares(a, b int) int {
	return Square(a) + Square(b)
}
`

func testSourceReader(path string) ([]byte, error) {
	if path != "pkg/math.go" {
		return nil, fmt.Errorf("no source for %s", path)
	}
	return []byte(testSource), nil
}

// TestSummarizer_BottomUpOrdering asserts that by the time SumOfSquares
// is summarized, Square's summary is already available as a callee hint.
func TestSummarizer_BottomUpOrdering(t *testing.T) {
	idx := summarizerTestIndex()
	topo := ComputeTopology(idx)

	var mu sync.Mutex
	var sawCalleeContext bool

	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			if strings.Contains(req.Prompt, "SumOfSquares") && strings.Contains(req.Prompt, "This function calls:") {
				mu.Lock()
				sawCalleeContext = true
				mu.Unlock()
			}
			return &llm.GenerateResponse{Text: "squares a number."}, nil
		},
	}

	s := NewSummarizer(provider, "mock-model", 1, 2, nil)
	if err := s.Run(context.Background(), idx, topo, testSourceReader, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	byName := idx.FunctionByQualifiedName()
	if byName["pkg.Square"].Summary == "" {
		t.Error("Square should have a summary")
	}
	if byName["pkg.SumOfSquares"].Summary == "" {
		t.Error("SumOfSquares should have a summary")
	}
	if !sawCalleeContext {
		t.Error("SumOfSquares prompt should have included Square's summary as callee context")
	}
}

func TestSummarizer_FailureIsolatesPerBatch(t *testing.T) {
	idx := summarizerTestIndex()
	topo := ComputeTopology(idx)

	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			if strings.Contains(req.Prompt, "Square(n int)") {
				return nil, fmt.Errorf("simulated provider failure")
			}
			return &llm.GenerateResponse{Text: "adds two squared numbers."}, nil
		},
	}

	s := NewSummarizer(provider, "mock-model", 1, 1, nil)
	if err := s.Run(context.Background(), idx, topo, testSourceReader, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	byName := idx.FunctionByQualifiedName()
	if byName["pkg.Square"].Summary != "" {
		t.Error("Square's batch failed; it should have no summary")
	}
}

// Scenario E — cache carry-forward preserves a summary across a rebuild
// when a function's byte range is unchanged, even though an unrelated
// function in the same file changed.
func TestCarryForwardSummaries_PreservesUnchangedFunctions(t *testing.T) {
	prior := summarizerTestIndex()
	priorByName := prior.FunctionByQualifiedName()
	priorByName["pkg.Square"].ContentHash = 111
	priorByName["pkg.Square"].Summary = "squares its argument."
	priorByName["pkg.SumOfSquares"].ContentHash = 222
	priorByName["pkg.SumOfSquares"].Summary = "sums two squares."

	current := summarizerTestIndex()
	currentByName := current.FunctionByQualifiedName()
	currentByName["pkg.Square"].ContentHash = 111 // unchanged body
	currentByName["pkg.SumOfSquares"].ContentHash = 999 // body changed by one byte

	carried := CarryForwardSummaries(current, prior)
	if carried != 1 {
		t.Fatalf("carried = %d, want 1", carried)
	}
	if currentByName["pkg.Square"].Summary != "squares its argument." {
		t.Error("Square's summary should have been carried forward")
	}
	if currentByName["pkg.SumOfSquares"].Summary != "" {
		t.Error("SumOfSquares changed content hash; its summary must not be carried forward")
	}
}

func TestParseBatchResponse(t *testing.T) {
	response := "some preamble the model ignored instructions and added\n" +
		"[1]: parses a config file.\n" +
		"[3]: writes output atomically.\n"

	got := parseBatchResponse(response, 3)
	want := []string{"parses a config file.", placeholderSummary, "writes output atomically."}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseBatchResponse_IsIdempotentUnderDuplicateMarkers(t *testing.T) {
	response := "[1]: first answer.\n[1]: a duplicate that should be ignored.\n"
	got := parseBatchResponse(response, 1)
	if got[0] != "first answer." {
		t.Errorf("got[0] = %q, want first occurrence to win", got[0])
	}
}
