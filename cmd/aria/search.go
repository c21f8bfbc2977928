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

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/zydee3/aria/internal/errors"
	"github.com/zydee3/aria/internal/output"
	"github.com/zydee3/aria/pkg/indexing"
	"github.com/zydee3/aria/pkg/query"
	"github.com/zydee3/aria/pkg/storage"
)

// runSearch executes the 'search' CLI command: embeds a natural-language
// query and ranks every stored function vector against it by cosine
// similarity.
//
// Flags:
//   - --limit: maximum number of results (default 10)
//   - --threshold: minimum cosine similarity to include (default 0.0)
//   - --json: output as JSON
func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Maximum number of results")
	threshold := fs.Float64("threshold", 0.0, "Minimum cosine similarity to include")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aria search [options] <query>

Searches the current index by semantic similarity.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
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
	if !cfg.Features.Embeddings {
		errors.FatalError(errors.NewConfigError("Embeddings are disabled", "features.embeddings is false in config.yaml", "set features.embeddings: true, run 'aria embed', then search again", nil), false)
	}

	rootDir := configDir(configPath)
	idxStore, err := storage.NewLocalIndexStore(storage.LocalIndexStoreConfig{StateDir: ConfigDir(rootDir)})
	if err != nil {
		errors.FatalError(errors.NewConfigError("Cannot open index store", err.Error(), "run 'aria index' first", err), false)
	}
	defer idxStore.Close()

	idx, err := idxStore.Load()
	if err != nil {
		errors.FatalError(errors.NewSchemaError("Cannot load index", err.Error(), "run 'aria index --full' to rebuild", err), false)
	}

	embedIdxPath, embedBinPath, embedDimPath := embeddingPaths(rootDir)
	dim, err := readEmbeddingDim(embedDimPath)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError("No embeddings found", "no embeddings.dim sidecar file in .aria/", "run 'aria embed' first"), false)
	}
	embedStore, err := indexing.LoadEmbeddingStore(embedIdxPath, embedBinPath, dim)
	if err != nil {
		errors.FatalError(errors.NewSchemaError("Cannot load embedding store", err.Error(), "run 'aria embed --force' to rebuild", err), false)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	provider := indexing.NewHTTPEmbeddingProvider(cfg.Embeddings.ServiceURL, cfg.Embeddings.Model, logger)

	ctx := context.Background()
	if err := provider.Available(ctx); err != nil {
		errors.FatalError(errors.NewEmbeddingServiceError("Embedding service unreachable", err.Error(), "start the service at "+cfg.Embeddings.ServiceURL, err), false)
	}

	queryText := fs.Arg(0)
	queryVector, err := provider.Embed(ctx, queryText)
	if err != nil {
		errors.FatalError(errors.NewEmbeddingServiceError("Cannot embed search query", err.Error(), "check the embedding service", err), false)
	}

	results := query.Search(idx, embedStore, queryVector, *limit, float32(*threshold))

	if *jsonOutput {
		_ = output.JSON(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No matches found")
		return
	}
	for i, r := range results {
		fmt.Printf("%2d. %-50s score=%.3f\n", i+1, r.QualifiedName, r.Score)
		if r.Summary != "" {
			fmt.Printf("    %s\n", r.Summary)
		}
	}
}
