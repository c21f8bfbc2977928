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

// Package indexing implements the code-intelligence indexing pipeline.
//
// Given a repository, indexing produces an Index: a map of every source
// file to the functions and types it declares, with call sites resolved
// to qualified names wherever possible, an optional natural-language
// summary per function, and an optional dense embedding per function for
// semantic search.
//
// # Pipeline Overview
//
// Pipeline.Run drives six stages in sequence:
//
//  1. Load: RepoLoader reads a git URL or local path into FileInfo entries,
//     applying exclude globs and a max file size.
//  2. Parse: each file is dispatched by detected language to a Parser
//     (GoParser or RustParser), producing a FileRecord of Functions/Types.
//  3. Resolve: Resolver builds a qualified-name symbol table across all
//     files and rewrites every CallSite's Target from raw text to either a
//     qualified name or the Unresolved sentinel.
//  4. Topology: ComputeTopology condenses the call graph into strongly
//     connected components and assigns each a summarization level, so
//     mutually recursive functions are summarized together and every
//     caller is summarized after its callees.
//  5. Summarize: CarryForwardSummaries copies prior summaries whose
//     ContentHash is unchanged, then Summarizer.Run fills in the rest,
//     level by level, bottom-up.
//  6. Embed: an EmbeddingProvider computes a vector per function summary
//     (or signature, if summarization is disabled), for later use with
//     EmbeddingStore and CosineSimilarity.
//
// # Supported Languages
//
// Two parsers are implemented, both via tree-sitter grammars:
//   - Go (.go), qualified names separated by "."
//   - Rust (.rs), qualified names separated by "::"
//
// # Quick Start
//
//	pipeline := indexing.NewPipeline(logger)
//	defer pipeline.Close()
//
//	result, err := pipeline.Run(ctx, indexing.PipelineConfig{
//	    Source: indexing.RepoSource{Type: "local_path", Value: "."},
//	    ExcludeGlobs: []string{"vendor/**", "node_modules/**"},
//	    MaxFileSizeBytes: 1024 * 1024,
//	    ParseWorkers: 4,
//	}, priorIndex)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Indexed %d files, %d functions\n",
//	    result.FilesIndexed, result.FunctionsExtracted)
//
// # Incremental Updates
//
// There is no separate incremental mode: every run reads the previously
// persisted Index (via pkg/storage) and passes it to Run as prior.
// CarryForwardSummaries keyed on content hash means an unchanged function
// never pays for a fresh LLM call, and the Resolver/Topology stages always
// run fresh since they're cheap relative to parsing and summarization.
//
// # Metrics
//
// Each stage's counters and duration histograms are exported via
// Prometheus (see metrics.go); RunResult carries the same counts back to
// the caller for the end-of-run summary line.
package indexing
