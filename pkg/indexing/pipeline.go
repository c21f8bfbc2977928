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
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zydee3/aria/internal/contract"
)

// PipelineConfig drives one Pipeline.Run invocation. It is populated by
// the CLI from the project's on-disk configuration plus per-invocation
// flags; the indexing package itself has no notion of a config file.
type PipelineConfig struct {
	// Source identifies the repository to index.
	Source RepoSource

	// ExcludeGlobs are path globs skipped during the repository walk.
	ExcludeGlobs []string

	// MaxFileSizeBytes skips any source file larger than this.
	MaxFileSizeBytes int64

	// ParseWorkers bounds parser goroutine concurrency. Values <= 1
	// disable the worker pool and parse sequentially.
	ParseWorkers int

	// EmbeddingProvider computes vectors for function summaries. A nil
	// value disables the embed stage entirely (Features.Embeddings off).
	EmbeddingProvider EmbeddingProvider

	// EmbedBatchSize bounds how many embed requests run concurrently.
	EmbedBatchSize int

	// PriorEmbeddings is the previous run's persisted vector store, used
	// to carry forward embeddings for functions whose content hash is
	// unchanged. A nil value means every function gets a freshly computed
	// embedding.
	PriorEmbeddings *EmbeddingStore

	// Summarizer generates natural-language summaries bottom-up over the
	// call graph. A nil value disables the summarize stage entirely
	// (Features.Summaries off).
	Summarizer *Summarizer

	// OnSummaryProgress reports summarize-stage progress, may be nil.
	OnSummaryProgress ProgressFunc
}

// Pipeline runs the full indexing sequence: load, parse, resolve,
// compute topology, summarize, embed. It holds no persistent state
// beyond request scope, so a single Pipeline value can run any number
// of times.
type Pipeline struct {
	logger     *slog.Logger
	repoLoader *RepoLoader
}

// NewPipeline returns a Pipeline that logs to logger (nil falls back to
// slog.Default()).
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		repoLoader: NewRepoLoader(logger),
	}
}

// Close releases temporary directories created by git-clone sources.
func (p *Pipeline) Close() error {
	return p.repoLoader.Close()
}

// RunResult summarizes one Run invocation, matching the end-of-run
// summary line every index command prints.
type RunResult struct {
	Index *Index

	FilesIndexed        int
	FunctionsExtracted  int
	TypesExtracted      int
	CallsResolved       int
	CallsUnresolved     int
	SummariesGenerated  int
	SummariesCarried    int
	EmbeddingsComputed  int
	EmbeddingsCarried   int
	ParseErrors         int

	ParseDuration     time.Duration
	ResolveDuration   time.Duration
	TopologyDuration  time.Duration
	SummarizeDuration time.Duration
	EmbedDuration     time.Duration
	TotalDuration     time.Duration
}

// ResolutionRate returns the fraction of call sites that resolved to a
// qualified name, in [0, 1]. It is 0 when there are no call sites.
func (r *RunResult) ResolutionRate() float64 {
	total := r.CallsResolved + r.CallsUnresolved
	if total == 0 {
		return 0
	}
	return float64(r.CallsResolved) / float64(total)
}

// Run executes one full index pass over cfg.Source, carrying forward
// unchanged summaries from prior (the previously persisted Index, or an
// empty one on a first run).
func (p *Pipeline) Run(ctx context.Context, cfg PipelineConfig, prior *Index) (*RunResult, error) {
	start := time.Now()

	loadResult, err := p.repoLoader.LoadRepository(cfg.Source, cfg.ExcludeGlobs, cfg.MaxFileSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("load repository: %w", err)
	}

	sort.Slice(loadResult.Files, func(i, j int) bool {
		return loadResult.Files[i].Path < loadResult.Files[j].Path
	})

	parseStart := time.Now()
	files, parseErrors := p.parseFiles(ctx, loadResult.RootPath, loadResult.Files, cfg.ParseWorkers)
	parseDuration := time.Since(parseStart)
	pipeMetrics.init()
	pipeMetrics.parseDuration.Observe(parseDuration.Seconds())

	idx := NewIndex()
	idx.Files = files
	if commit, err := p.sourceCommit(cfg.Source, loadResult.RootPath); err == nil {
		idx.SourceCommit = commit
	} else {
		p.logger.Debug("indexing.pipeline.source_commit.unavailable", "err", err)
	}
	idx.IndexedAt = time.Now().UTC().Format(time.RFC3339)

	if violations := contract.Validate(idx); len(violations) > 0 {
		for _, v := range violations {
			p.logger.Warn("indexing.pipeline.contract.violation", "detail", v.String())
		}
	}

	resolveStart := time.Now()
	resolver := NewResolver()
	resolver.BuildIndex(idx)
	resolver.ResolveAll(idx)
	resolveDuration := time.Since(resolveStart)
	pipeMetrics.resolveDuration.Observe(resolveDuration.Seconds())

	topoStart := time.Now()
	topo := ComputeTopology(idx)
	topologyDuration := time.Since(topoStart)
	pipeMetrics.topologyDuration.Observe(topologyDuration.Seconds())

	carried := CarryForwardSummaries(idx, prior)
	embeddingsCarried := CarryForwardEmbeddings(idx, prior, cfg.PriorEmbeddings)

	var summarizeDuration time.Duration
	summariesGenerated := 0
	if cfg.Summarizer != nil {
		summarizeStart := time.Now()
		readSource := func(relPath string) ([]byte, error) {
			return os.ReadFile(filepath.Join(loadResult.RootPath, relPath))
		}
		before := countSummarized(idx)
		if err := cfg.Summarizer.Run(ctx, idx, topo, readSource, cfg.OnSummaryProgress); err != nil {
			return nil, fmt.Errorf("summarize: %w", err)
		}
		summariesGenerated = countSummarized(idx) - before
		summarizeDuration = time.Since(summarizeStart)
		pipeMetrics.summarizeDuration.Observe(summarizeDuration.Seconds())
	}

	var embedDuration time.Duration
	embeddingsComputed := 0
	if cfg.EmbeddingProvider != nil {
		embedStart := time.Now()
		embeddingsComputed, err = p.embed(ctx, idx, cfg.EmbeddingProvider, cfg.EmbedBatchSize)
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}
		embedDuration = time.Since(embedStart)
		pipeMetrics.embedDuration.Observe(embedDuration.Seconds())
		pipeMetrics.embeddingsComputed.Add(float64(embeddingsComputed))
	}

	resolvedCalls, unresolvedCalls := countCallResolution(idx)

	return &RunResult{
		Index:               idx,
		FilesIndexed:        len(idx.Files),
		FunctionsExtracted:  len(idx.Functions()),
		TypesExtracted:      countTypes(idx),
		CallsResolved:       resolvedCalls,
		CallsUnresolved:     unresolvedCalls,
		SummariesGenerated:  summariesGenerated,
		SummariesCarried:    carried,
		EmbeddingsComputed:  embeddingsComputed,
		EmbeddingsCarried:   embeddingsCarried,
		ParseErrors:         parseErrors,
		ParseDuration:       parseDuration,
		ResolveDuration:     resolveDuration,
		TopologyDuration:    topologyDuration,
		SummarizeDuration:   summarizeDuration,
		EmbedDuration:       embedDuration,
		TotalDuration:       time.Since(start),
	}, nil
}

// sourceCommit resolves the HEAD commit of a local_path source so it can
// be stamped onto Index.SourceCommit. Git URL sources are cloned fresh
// each run, so their HEAD is read the same way from the clone directory.
func (p *Pipeline) sourceCommit(source RepoSource, rootPath string) (string, error) {
	dd := NewDeltaDetector(rootPath, p.logger)
	if !dd.IsGitRepository() {
		return "", fmt.Errorf("not a git repository: %s", rootPath)
	}
	return dd.GetHeadSHA()
}

// languageParser returns the parser for a detected language ("go" or
// "rust"), or nil for any other language; the repository walk already
// filtered most of these via detectLanguageFromPath.
func languageParser(language string, logger *slog.Logger) Parser {
	switch language {
	case "go":
		return NewGoParser(logger)
	case "rust":
		return NewRustParser(logger)
	default:
		return nil
	}
}

// parseFiles parses every loaded file, dispatching by detected language,
// and returns the resulting per-path FileRecord map along with a count
// of files that failed to produce a tree.
func (p *Pipeline) parseFiles(ctx context.Context, rootPath string, files []FileInfo, workers int) (map[string]*FileRecord, int) {
	if len(files) == 0 {
		return make(map[string]*FileRecord), 0
	}
	if workers <= 1 || len(files) < 10 {
		return p.parseFilesSequential(ctx, rootPath, files)
	}
	return p.parseFilesParallel(ctx, rootPath, files, workers)
}

func (p *Pipeline) parseOne(rootPath string, file FileInfo) *FileRecord {
	parser := languageParser(file.Language, p.logger)
	if parser == nil {
		return nil
	}
	source, err := os.ReadFile(file.FullPath)
	if err != nil {
		p.logger.Warn("indexing.pipeline.parse.read_failed", "path", file.Path, "err", err)
		return nil
	}
	record, ok := parser.ParseFile(file.Path, source)
	if !ok {
		return nil
	}
	return record
}

func (p *Pipeline) parseFilesSequential(ctx context.Context, rootPath string, files []FileInfo) (map[string]*FileRecord, int) {
	out := make(map[string]*FileRecord, len(files))
	errs := 0
	for _, file := range files {
		select {
		case <-ctx.Done():
			return out, errs
		default:
		}
		record := p.parseOne(rootPath, file)
		if record == nil {
			errs++
			continue
		}
		out[file.Path] = record
	}
	return out, errs
}

func (p *Pipeline) parseFilesParallel(ctx context.Context, rootPath string, files []FileInfo, workers int) (map[string]*FileRecord, int) {
	jobs := make(chan FileInfo, len(files))
	type result struct {
		path   string
		record *FileRecord
	}
	results := make(chan result, len(files))
	var errCount int32

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				record := p.parseOne(rootPath, file)
				if record == nil {
					atomic.AddInt32(&errCount, 1)
					continue
				}
				results <- result{path: file.Path, record: record}
			}
		}()
	}

	for _, file := range files {
		jobs <- file
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]*FileRecord, len(files))
	for r := range results {
		out[r.path] = r.record
	}
	return out, int(errCount)
}

// embed computes and stores an embedding for every function missing one,
// using the function's summary (falling back to its signature) as the
// text to embed. Embeddings live only in the returned count's side
// effect on idx's functions; persisting the vectors into an
// EmbeddingStore is the caller's responsibility once Run returns.
func (p *Pipeline) embed(ctx context.Context, idx *Index, provider EmbeddingProvider, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	functions := idx.Functions()
	sem := make(chan struct{}, batchSize)
	var wg sync.WaitGroup
	var computed int32

	for _, fn := range functions {
		if len(fn.Embedding) > 0 {
			continue
		}
		text := fn.Summary
		if text == "" {
			text = fn.Signature
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(fn *Function, text string) {
			defer wg.Done()
			defer func() { <-sem }()

			vector, err := provider.Embed(ctx, text)
			if err != nil {
				pipeMetrics.init()
				recordEmbedError()
				p.logger.Warn("indexing.pipeline.embed.failed", "qualified_name", fn.QualifiedName, "err", err)
				return
			}
			fn.Embedding = vector
			atomic.AddInt32(&computed, 1)
		}(fn, text)
	}
	wg.Wait()

	return int(computed), nil
}

func countSummarized(idx *Index) int {
	n := 0
	for _, fn := range idx.Functions() {
		if fn.Summary != "" {
			n++
		}
	}
	return n
}

func countTypes(idx *Index) int {
	n := 0
	for _, file := range idx.Files {
		n += len(file.Types)
	}
	return n
}

func countCallResolution(idx *Index) (resolved, unresolved int) {
	for _, fn := range idx.Functions() {
		for _, call := range fn.Calls {
			if call.Target == Unresolved {
				unresolved++
			} else {
				resolved++
			}
		}
	}
	return resolved, unresolved
}
