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
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/zydee3/aria/internal/errors"
	"github.com/zydee3/aria/internal/output"
	"github.com/zydee3/aria/pkg/indexing"
	"github.com/zydee3/aria/pkg/storage"
)

// diffEntry describes one changed path between the commit an index was
// built from and the repository's current HEAD.
type diffEntry struct {
	Path       string                  `json:"path"`
	Change     indexing.FileChangeType `json:"change"`
	StaleFuncs []string                `json:"stale_functions,omitempty"`
}

// runDiff executes the 'diff' CLI command: compares the commit the
// persisted index was built from against the repository's current HEAD,
// reporting which indexed files are now stale.
//
// Flags:
//   - --json: output as JSON
func runDiff(args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aria diff [options]

Compares the commit the current index was built from against HEAD and
reports which files have changed since, i.e. what 'aria index' would
need to re-process.

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
	rootDir := configDir(configPath)

	store, err := storage.NewLocalIndexStore(storage.LocalIndexStoreConfig{StateDir: ConfigDir(rootDir)})
	if err != nil {
		errors.FatalError(errors.NewConfigError("Cannot open index store", err.Error(), "run 'aria index' first", err), false)
	}
	defer store.Close()

	idx, err := store.Load()
	if err != nil {
		errors.FatalError(errors.NewSchemaError("Cannot load index", err.Error(), "run 'aria index --full' to rebuild", err), false)
	}
	if idx.SourceCommit == "" {
		fmt.Println("No prior indexed commit recorded; run 'aria index' first.")
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	detector := indexing.NewDeltaDetector(rootDir, logger)
	if !detector.IsGitRepository() {
		errors.FatalError(errors.NewInputError("Not a git repository", rootDir+" has no .git directory", "run 'aria diff' from inside a git repository"), false)
	}

	delta, err := detector.DetectDelta(idx.SourceCommit, "HEAD")
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot compute delta", err.Error(), "check that the indexed commit still exists in this repository", err), false)
	}
	delta = indexing.FilterDelta(delta, defaultExcludeGlobs, 1024*1024, rootDir)

	if !delta.HasChanges() {
		fmt.Println("No changes since the last index run.")
		return
	}

	entries := make([]diffEntry, 0, len(delta.All))
	for _, path := range delta.All {
		entry := diffEntry{Path: path, Change: delta.ChangeType(path)}
		if rec, ok := idx.Files[path]; ok {
			for _, fn := range rec.Functions {
				entry.StaleFuncs = append(entry.StaleFuncs, fn.QualifiedName)
			}
			sort.Strings(entry.StaleFuncs)
		}
		entries = append(entries, entry)
	}

	if *jsonOutput {
		_ = output.JSON(entries)
		return
	}

	stats := delta.GetStats()
	fmt.Printf("Changes since %s:\n\n", idx.SourceCommit)
	for _, e := range entries {
		fmt.Printf("  %-9s %s\n", e.Change, e.Path)
		for _, fn := range e.StaleFuncs {
			fmt.Printf("             stale: %s\n", fn)
		}
	}
	fmt.Printf("\n%d added, %d modified, %d deleted, %d renamed\n",
		stats.AddedCount, stats.ModifiedCount, stats.DeletedCount, stats.RenamedCount)
	fmt.Println("Run 'aria index' to bring the index up to date.")
}
