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
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/zydee3/aria/internal/errors"
	"github.com/zydee3/aria/pkg/indexing"
	"github.com/zydee3/aria/pkg/storage"
)

// runEmbed executes the 'embed' CLI command: computes embeddings for
// every function in the already-persisted index that is missing one,
// without re-parsing or re-summarizing. It is a cheaper alternative to
// 'aria index --full' when only the embedding model or service changed.
//
// Flags:
//   - --force: recompute every function's embedding, ignoring the carried-forward store
//   - --parallel: number of concurrent embed requests (default 4)
func runEmbed(args []string) {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	force := fs.Bool("force", false, "Recompute every embedding, ignoring the existing store")
	parallel := fs.Int("parallel", 4, "Number of concurrent embed requests")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aria embed [options]

Computes embeddings for functions in the current index that don't have
one yet, without re-parsing or re-summarizing the repository.

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
	if !cfg.Features.Embeddings {
		errors.FatalError(errors.NewConfigError("Embeddings are disabled", "features.embeddings is false in config.yaml", "set features.embeddings: true and re-run", nil), false)
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

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

	functions := idx.Functions()
	if !*force {
		if dim, err := readEmbeddingDim(embedDimPath); err == nil {
			if priorStore, err := indexing.LoadEmbeddingStore(embedIdxPath, embedBinPath, dim); err == nil {
				for _, fn := range functions {
					if vector, ok := priorStore.Get(fn.QualifiedName); ok {
						fn.Embedding = vector
					}
				}
			}
		}
	}

	var pending []*indexing.Function
	for _, fn := range functions {
		if len(fn.Embedding) == 0 {
			pending = append(pending, fn)
		}
	}
	if len(pending) == 0 {
		fmt.Println("Nothing to embed: every function already has a vector.")
		return
	}

	provider := indexing.NewHTTPEmbeddingProvider(cfg.Embeddings.ServiceURL, cfg.Embeddings.Model, logger)
	ctx := context.Background()
	if err := provider.Available(ctx); err != nil {
		errors.FatalError(errors.NewEmbeddingServiceError("Embedding service unreachable", err.Error(), "start the service at "+cfg.Embeddings.ServiceURL+" or disable features.embeddings", err), false)
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(*parallel)
	for _, fn := range pending {
		fn := fn
		group.Go(func() error {
			text := fn.Summary
			if text == "" {
				text = fn.Signature
			}
			vector, err := provider.Embed(gctx, text)
			if err != nil {
				logger.Warn("embed.function.failed", "function", fn.QualifiedName, "err", err)
				return nil
			}
			fn.Embedding = vector
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		errors.FatalError(errors.NewInternalError("Embedding failed", err.Error(), "re-run with --debug for more detail", err), false)
	}

	dim := 0
	embedStore := (*indexing.EmbeddingStore)(nil)
	for _, fn := range idx.Functions() {
		if len(fn.Embedding) > 0 {
			dim = len(fn.Embedding)
			break
		}
	}
	if dim > 0 {
		embedStore = indexing.NewEmbeddingStore(dim)
		for _, fn := range idx.Functions() {
			if len(fn.Embedding) == dim {
				embedStore.Put(fn.QualifiedName, fn.Embedding)
			}
		}
		if err := embedStore.Save(embedIdxPath, embedBinPath); err != nil {
			errors.FatalError(errors.NewConfigError("Cannot persist embeddings", err.Error(), "check permissions on .aria/", err), false)
		}
		if err := writeEmbeddingDim(embedDimPath, dim); err != nil {
			errors.FatalError(errors.NewConfigError("Cannot persist embedding dimension", err.Error(), "check permissions on .aria/", err), false)
		}
	}

	if err := idxStore.Save(idx); err != nil {
		errors.FatalError(errors.NewConfigError("Cannot persist index", err.Error(), "check permissions on .aria/", err), false)
	}

	computed := 0
	for _, fn := range pending {
		if len(fn.Embedding) > 0 {
			computed++
		}
	}
	fmt.Printf("Embedded %d/%d functions (dimension %d)\n", computed, len(pending), dim)
}
