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

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"

	"github.com/zydee3/aria/internal/errors"
	"github.com/zydee3/aria/internal/ui"
	"github.com/zydee3/aria/pkg/indexing"
	"github.com/zydee3/aria/pkg/llm"
	"github.com/zydee3/aria/pkg/storage"
)

var defaultExcludeGlobs = []string{
	".git/**",
	".aria/**",
	"node_modules/**",
	"vendor/**",
	"target/**",
	"dist/**",
	"build/**",
}

// runIndex executes the 'index' CLI command: parses the repository,
// resolves calls, computes topology, carries forward and generates
// summaries, computes embeddings, and persists the resulting index.
//
// Flags:
//   - --full: ignore the previously persisted index (recompute every summary)
//   - --parse-workers: parallelism for the parse stage (default 4)
//   - --debug: enable debug logging
//   - --metrics-addr: HTTP listen address for Prometheus metrics (empty disables)
func runIndex(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	full := fs.Bool("full", false, "Ignore the previous index; regenerate every summary")
	parseWorkers := fs.Int("parse-workers", 4, "Parallelism for the parse stage")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aria index [options]

Indexes the current repository: parses source files, resolves calls,
generates summaries and embeddings, and writes the result to .aria/.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	configPath, err := findConfigFile()
	if err != nil {
		errors.FatalError(err, false)
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, false)
	}
	if *debug {
		cfg.Debug = true
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	rootDir := configDir(configPath)
	store, err := storage.NewLocalIndexStore(storage.LocalIndexStoreConfig{StateDir: ConfigDir(rootDir)})
	if err != nil {
		errors.FatalError(errors.NewConfigError("Cannot open index store", err.Error(), "check permissions on .aria/", err), false)
	}
	defer store.Close()

	prior, err := store.Load()
	if err != nil {
		errors.FatalError(errors.NewSchemaError("Cannot load existing index", err.Error(), "run 'aria index --full' to rebuild from scratch", err), false)
	}
	if *full {
		prior = indexing.NewIndex()
	}

	pipelineCfg := indexing.PipelineConfig{
		Source:           indexing.RepoSource{Type: "local_path", Value: rootDir},
		ExcludeGlobs:     defaultExcludeGlobs,
		MaxFileSizeBytes: 1024 * 1024,
		ParseWorkers:     *parseWorkers,
	}

	progressCfg := NewProgressConfig(globals)

	if cfg.Features.Summaries && cfg.LLM.Provider != "" && cfg.LLM.Provider != "none" {
		provider, err := llm.NewProvider(llm.ProviderConfig{
			Type:         cfg.LLM.Provider,
			APIKey:       cfg.LLM.APIKey,
			DefaultModel: cfg.LLM.Model,
		})
		if err != nil {
			errors.FatalError(errors.NewLLMError("Cannot create summary provider", err.Error(), "check llm.provider and llm.api_key in config.yaml", err), false)
		}
		pipelineCfg.Summarizer = indexing.NewSummarizer(provider, cfg.LLM.Model, cfg.LLM.BatchSize, cfg.LLM.Parallel, logger)
		var summaryBar *progressbar.ProgressBar
		pipelineCfg.OnSummaryProgress = func(completed, total int) {
			logger.Info("indexing.summarize.progress", "completed", completed, "total", total)
			if summaryBar == nil {
				summaryBar = NewProgressBar(progressCfg, int64(total), "Summarizing functions")
			}
			if summaryBar != nil {
				_ = summaryBar.Set(completed)
			}
		}
	}

	embedIdxPath, embedBinPath, embedDimPath := embeddingPaths(rootDir)

	if cfg.Features.Embeddings && cfg.Embeddings.ServiceURL != "" {
		provider := indexing.NewHTTPEmbeddingProvider(cfg.Embeddings.ServiceURL, cfg.Embeddings.Model, logger)
		if err := provider.Available(ctx); err != nil {
			errors.FatalError(errors.NewEmbeddingServiceError("Embedding service unreachable", err.Error(), "start the service at "+cfg.Embeddings.ServiceURL+" or disable features.embeddings", err), false)
		}
		pipelineCfg.EmbeddingProvider = provider
		pipelineCfg.EmbedBatchSize = cfg.Embeddings.BatchSize

		if dim, err := readEmbeddingDim(embedDimPath); err == nil {
			if priorStore, err := indexing.LoadEmbeddingStore(embedIdxPath, embedBinPath, dim); err == nil {
				pipelineCfg.PriorEmbeddings = priorStore
			} else {
				logger.Debug("indexing.embeddings.carry_forward.unavailable", "err", err)
			}
		}
	}

	pipeline := indexing.NewPipeline(logger)
	defer pipeline.Close()

	spinner := NewSpinner(progressCfg, phaseDescription("parsing"))
	result, err := pipeline.Run(ctx, pipelineCfg, prior)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if err != nil {
		errors.FatalError(errors.NewInternalError("Indexing failed", err.Error(), "re-run with --debug for more detail", err), false)
	}

	if err := store.Save(result.Index); err != nil {
		errors.FatalError(errors.NewConfigError("Cannot persist index", err.Error(), "check permissions on .aria/", err), false)
	}

	if cfg.Features.Embeddings && (result.EmbeddingsComputed > 0 || result.EmbeddingsCarried > 0) {
		functions := result.Index.Functions()
		dim := 0
		for _, fn := range functions {
			if len(fn.Embedding) > 0 {
				dim = len(fn.Embedding)
				break
			}
		}
		if dim > 0 {
			embedStore := indexing.NewEmbeddingStore(dim)
			for _, fn := range functions {
				if len(fn.Embedding) == dim {
					embedStore.Put(fn.QualifiedName, fn.Embedding)
				}
			}
			if err := embedStore.Save(embedIdxPath, embedBinPath); err != nil {
				logger.Warn("indexing.embeddings.save.failed", "err", err)
			} else if err := writeEmbeddingDim(embedDimPath, dim); err != nil {
				logger.Warn("indexing.embeddings.dim.save.failed", "err", err)
			}
		}
	}

	printResult(result)
}

// readEmbeddingDim reads the vector dimension recorded alongside the
// embedding store, since LoadEmbeddingStore must know the dimension
// before it can validate the binary file's size.
func readEmbeddingDim(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// writeEmbeddingDim records the vector dimension of a freshly saved
// embedding store.
func writeEmbeddingDim(path string, dim int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(dim)+"\n"), 0o644)
}

// printResult prints the end-of-run summary line set described in
// the CLI's external interface: file/function/type counts, call
// resolution percentage, summaries generated, and errors.
func printResult(result *indexing.RunResult) {
	fmt.Println()
	ui.Header("Indexing Complete")
	fmt.Printf("%s %d\n", ui.Label("Files indexed:"), result.FilesIndexed)
	fmt.Printf("%s %d\n", ui.Label("Functions extracted:"), result.FunctionsExtracted)
	fmt.Printf("%s %d\n", ui.Label("Types extracted:"), result.TypesExtracted)
	fmt.Printf("%s %d/%d (%.1f%%)\n", ui.Label("Calls resolved:"),
		result.CallsResolved, result.CallsResolved+result.CallsUnresolved, result.ResolutionRate()*100)
	fmt.Printf("%s %d (carried forward: %d)\n", ui.Label("Summaries generated:"), result.SummariesGenerated, result.SummariesCarried)
	fmt.Printf("%s %d (carried forward: %d)\n", ui.Label("Embeddings computed:"), result.EmbeddingsComputed, result.EmbeddingsCarried)
	if result.ParseErrors > 0 {
		ui.Warningf("Parse errors: %d", result.ParseErrors)
	}

	fmt.Println()
	ui.SubHeader("Timings:")
	fmt.Printf("  Parse:     %s\n", ui.DimText(result.ParseDuration.String()))
	fmt.Printf("  Resolve:   %s\n", ui.DimText(result.ResolveDuration.String()))
	fmt.Printf("  Topology:  %s\n", ui.DimText(result.TopologyDuration.String()))
	fmt.Printf("  Summarize: %s\n", ui.DimText(result.SummarizeDuration.String()))
	fmt.Printf("  Embed:     %s\n", ui.DimText(result.EmbedDuration.String()))
	fmt.Printf("  Total:     %s\n", ui.DimText(result.TotalDuration.String()))
	fmt.Println()
	ui.Success("Index written to .aria/")
}
