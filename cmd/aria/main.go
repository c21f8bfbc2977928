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

// Package main implements the aria CLI for indexing repositories and
// querying the resulting code-intelligence index.
//
// Usage:
//
//	aria init                        Create .aria/config.yaml
//	aria index                       Index the current repository
//	aria embed                       Compute missing embeddings
//	aria search <query>              Semantic search over summaries
//	aria query function|trace|usages|file|list
//	aria diff                        Show what changed since the last index
//	aria config                      Print the effective configuration
//	aria hooks                       Manage the git post-commit hook
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/zydee3/aria/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags holds the output-mode flags every subcommand can accept
// ahead of its own name, the way `git -C dir <command>` does.
type GlobalFlags struct {
	// Quiet suppresses progress bars/spinners. Implied by JSON.
	Quiet bool
	// JSON requests machine-readable output where the subcommand
	// supports it; implies Quiet.
	JSON bool
	// NoColor disables ANSI color codes in progress bars and CLI output.
	NoColor bool
	// Verbose counts repetitions of -v. No subcommand reads it: log levels
	// come from the config's debug key.
	Verbose int
}

func main() {
	// Global flags with short forms.
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format (for applicable commands)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Repeatable; counted but does not change log output")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress bars and non-essential output")
	)

	// Stop parsing at the first non-flag argument so subcommand-specific
	// flags like "index --full" are passed through instead of being
	// rejected by the global flag parser.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `aria - code intelligence indexer

Usage:
  aria <command> [options]

Commands:
  init     Create .aria/config.yaml in the current repository
  index    Parse, resolve, summarize, and embed the current repository
  embed    Compute embeddings for functions that are missing one
  search   Semantic search over function summaries
  query    Look up functions, traces, usages, files, or lists
  diff     Show what changed since the last index run
  config   Print the effective configuration
  hooks    Install or remove the git post-commit auto-index hook

Global Options:
  --json            Output in JSON format (for applicable commands)
  --no-color        Disable color output
  -v, --verbose     Repeatable; counted but does not change log output
  -q, --quiet       Suppress progress bars and non-essential output
  -V, --version     Show version and exit

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("aria version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	globals := GlobalFlags{
		Quiet:   *quiet || *jsonOutput,
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
	}

	ui.InitColors(globals.NoColor)

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "index":
		runIndex(cmdArgs, globals)
	case "embed":
		runEmbed(cmdArgs)
	case "search":
		runSearch(cmdArgs)
	case "query":
		runQuery(cmdArgs)
	case "diff":
		runDiff(cmdArgs)
	case "config":
		runConfigCmd(cmdArgs)
	case "hooks":
		runHooks(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
