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
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/zydee3/aria/pkg/llm"
)

const placeholderSummary = "summary unavailable"

// CalleeHint is a resolved callee's simple name paired with its already
// computed summary, offered as context when summarizing a caller.
type CalleeHint struct {
	SimpleName string
	Summary    string
}

// SummaryRequest is the immutable input handed to an LLM call. Workers
// never mutate the Index; they return SummaryResult values and the
// orchestrator writes them.
type SummaryRequest struct {
	QualifiedName string
	Signature     string
	Body          string
	Callees       []CalleeHint
}

// SummaryResult is the output of one request within a batch.
type SummaryResult struct {
	QualifiedName string
	Summary       string
	Err           error
}

// SourceReader returns the full byte contents of a source file, given the
// repository-relative path recorded on a FileRecord.
type SourceReader func(path string) ([]byte, error)

// ProgressFunc is invoked after each batch completes, with a
// monotonically increasing completed count out of total.
type ProgressFunc func(completed, total int)

// Summarizer schedules per-function LLM summarization bottom-up over a
// call-graph Topology: every resolved callee's summary is available
// before its caller is prompted.
type Summarizer struct {
	provider  llm.Provider
	model     string
	batchSize int
	parallel  int
	logger    *slog.Logger
}

// NewSummarizer returns a Summarizer driving provider with the given
// model, batching requests at batchSize (≥1) and running up to parallel
// (≥1) batches concurrently per level.
func NewSummarizer(provider llm.Provider, model string, batchSize, parallel int, logger *slog.Logger) *Summarizer {
	if batchSize < 1 {
		batchSize = 1
	}
	if parallel < 1 {
		parallel = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		provider:  provider,
		model:     model,
		batchSize: batchSize,
		parallel:  parallel,
		logger:    logger,
	}
}

// CarryForwardSummaries copies summaries from prior onto idx for every
// function whose content hash is unchanged. Returns the number of
// summaries preserved. This is what makes re-indexing incremental
// without explicit file-level change tracking.
func CarryForwardSummaries(idx, prior *Index) int {
	if prior == nil {
		return 0
	}

	priorByHash := make(map[uint64]string)
	for _, fn := range prior.Functions() {
		if fn.Summary != "" {
			priorByHash[fn.ContentHash] = fn.Summary
		}
	}

	carried := 0
	for _, fn := range idx.Functions() {
		if fn.Summary != "" {
			continue
		}
		if summary, ok := priorByHash[fn.ContentHash]; ok {
			fn.Summary = summary
			carried++
		}
	}
	recordSummariesCarried(carried)
	return carried
}

// Run summarizes every function in idx still missing a summary, in
// ascending topology level order, reading raw bodies via readSource and
// reporting progress via onProgress (which may be nil).
func (s *Summarizer) Run(ctx context.Context, idx *Index, topo *Topology, readSource SourceReader, onProgress ProgressFunc) error {
	filesByFunction := make(map[string]string, len(idx.Files))
	for path, file := range idx.Files {
		for _, fn := range file.Functions {
			filesByFunction[fn.QualifiedName] = path
		}
	}

	byName := idx.FunctionByQualifiedName()

	live := make(map[string]string)
	for name, fn := range byName {
		if fn.Summary != "" {
			live[name] = fn.Summary
		}
	}
	var liveMu sync.RWMutex

	totalBatches := 0
	for _, level := range topo.ByLevel {
		missing := 0
		for _, name := range level {
			if fn, ok := byName[name]; ok && fn.Summary == "" {
				missing++
			}
		}
		totalBatches += (missing + s.batchSize - 1) / s.batchSize
	}

	var completed int64

	// Requests are built one level at a time, immediately before that
	// level executes, so callee hints reflect every summary written by
	// strictly lower levels (the happens-before the topology guarantees).
	for i, level := range topo.ByLevel {
		var reqs []SummaryRequest
		for _, name := range level {
			fn, ok := byName[name]
			if !ok || fn.Summary != "" {
				continue
			}
			req, err := s.buildRequest(fn, filesByFunction[name], idx, live, &liveMu, readSource)
			if err != nil {
				s.logger.Warn("summarizer.request.build_failed", "function", name, "err", err)
				continue
			}
			reqs = append(reqs, req)
		}
		if len(reqs) == 0 {
			continue
		}
		pipeMetrics.init()
		pipeMetrics.summariesRequested.Add(float64(len(reqs)))
		batcher := NewBatcher(s.batchSize)
		batches := batcher.Batch(reqs)

		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(s.parallel)

		results := make(chan []SummaryResult, len(batches))
		for _, batch := range batches {
			batch := batch
			group.Go(func() error {
				results <- s.executeBatch(gctx, batch)
				n := atomic.AddInt64(&completed, 1)
				if onProgress != nil {
					onProgress(int(n), totalBatches)
				}
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return fmt.Errorf("summarize level %d: %w", i, err)
		}
		close(results)

		for batchResults := range results {
			for _, res := range batchResults {
				fn, ok := byName[res.QualifiedName]
				if !ok {
					continue
				}
				if res.Err != nil {
					s.logger.Warn("summarizer.request.failed", "function", res.QualifiedName, "err", res.Err)
					continue
				}
				fn.Summary = res.Summary
				liveMu.Lock()
				live[res.QualifiedName] = res.Summary
				liveMu.Unlock()
			}
		}
	}

	return nil
}

func (s *Summarizer) buildRequest(fn *Function, path string, idx *Index, live map[string]string, liveMu *sync.RWMutex, readSource SourceReader) (SummaryRequest, error) {
	source, err := readSource(path)
	if err != nil {
		return SummaryRequest{}, fmt.Errorf("read source for %s: %w", path, err)
	}
	body := extractLines(source, fn.LineStart, fn.LineEnd)

	var callees []CalleeHint
	seen := make(map[string]bool)
	liveMu.RLock()
	for _, call := range fn.Calls {
		if call.Target == Unresolved || call.Target == "" || seen[call.Target] {
			continue
		}
		if summary, ok := live[call.Target]; ok {
			seen[call.Target] = true
			callees = append(callees, CalleeHint{SimpleName: simpleNameOf(call.Target, idx.Files[path].Separator()), Summary: summary})
		}
	}
	liveMu.RUnlock()

	return SummaryRequest{
		QualifiedName: fn.QualifiedName,
		Signature:     fn.Signature,
		Body:          body,
		Callees:       callees,
	}, nil
}

func simpleNameOf(qualifiedName, sep string) string {
	idx := strings.LastIndex(qualifiedName, sep)
	if idx < 0 {
		return qualifiedName
	}
	return qualifiedName[idx+len(sep):]
}

func extractLines(source []byte, start, end int) string {
	scanner := bufio.NewScanner(strings.NewReader(string(source)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var lines []string
	line := 0
	for scanner.Scan() {
		line++
		if line < start {
			continue
		}
		if line > end {
			break
		}
		lines = append(lines, scanner.Text())
	}
	return strings.Join(lines, "\n")
}

const summaryInstructions = "Summarize this function in 1-2 sentences. Describe its behavior, not its implementation. No preamble."

// executeBatch runs one LLM call per batch. A batch of size 1 still uses
// the single-request prompt shape, not the numbered batch shape, to keep
// the common case's prompt minimal.
func (s *Summarizer) executeBatch(ctx context.Context, batch []SummaryRequest) []SummaryResult {
	recordBatchSent()

	if len(batch) == 1 {
		return []SummaryResult{s.executeSingle(ctx, batch[0])}
	}

	prompt := buildBatchPrompt(batch)
	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{Prompt: prompt, Model: s.model})
	if err != nil {
		recordSummaryFailed(len(batch))
		results := make([]SummaryResult, len(batch))
		for i, req := range batch {
			results[i] = SummaryResult{QualifiedName: req.QualifiedName, Err: err}
		}
		return results
	}

	summaries := parseBatchResponse(resp.Text, len(batch))
	results := make([]SummaryResult, len(batch))
	for i, req := range batch {
		results[i] = SummaryResult{QualifiedName: req.QualifiedName, Summary: summaries[i]}
	}
	return results
}

func (s *Summarizer) executeSingle(ctx context.Context, req SummaryRequest) SummaryResult {
	prompt := buildSingleRequestPrompt(req)
	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{Prompt: prompt, Model: s.model})
	if err != nil {
		recordSummaryFailed(1)
		return SummaryResult{QualifiedName: req.QualifiedName, Err: err}
	}
	return SummaryResult{QualifiedName: req.QualifiedName, Summary: strings.TrimSpace(resp.Text)}
}

func buildSingleRequestPrompt(req SummaryRequest) string {
	var b strings.Builder
	b.WriteString(summaryInstructions)
	b.WriteString("\n\n")
	writeCalleesBlock(&b, req.Callees)
	fmt.Fprintf(&b, "Function: %s\n", req.Signature)
	fmt.Fprintf(&b, "Body:\n%s\n", req.Body)
	return b.String()
}

func buildBatchPrompt(batch []SummaryRequest) string {
	var b strings.Builder
	b.WriteString(summaryInstructions)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Respond with exactly one line per function, in the strict format `[N]: <summary>` for N = 1..%d. No other text.\n\n", len(batch))

	for i, req := range batch {
		fmt.Fprintf(&b, "=== Function %d ===\n", i+1)
		writeCalleesBlock(&b, req.Callees)
		fmt.Fprintf(&b, "Function: %s\n", req.Signature)
		fmt.Fprintf(&b, "Body:\n%s\n\n", req.Body)
	}
	return b.String()
}

func writeCalleesBlock(b *strings.Builder, callees []CalleeHint) {
	if len(callees) == 0 {
		return
	}
	b.WriteString("This function calls:\n")
	for _, c := range callees {
		fmt.Fprintf(b, "- %s(): %q\n", c.SimpleName, c.Summary)
	}
}

// parseBatchResponse scans response lines for the first occurrence of
// each marker "[k]:" (k in 1..=size). A missing marker yields a
// placeholder summary for that slot; this is not an error.
func parseBatchResponse(response string, size int) []string {
	summaries := make([]string, size)
	for i := range summaries {
		summaries[i] = placeholderSummary
	}
	found := make([]bool, size)

	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "[") {
			continue
		}
		closeIdx := strings.Index(trimmed, "]:")
		if closeIdx < 0 {
			continue
		}
		k, err := strconv.Atoi(trimmed[1:closeIdx])
		if err != nil || k < 1 || k > size || found[k-1] {
			continue
		}
		summaries[k-1] = strings.TrimSpace(trimmed[closeIdx+2:])
		found[k-1] = true
	}
	return summaries
}
