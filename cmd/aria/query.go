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
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/zydee3/aria/internal/errors"
	"github.com/zydee3/aria/internal/output"
	"github.com/zydee3/aria/pkg/indexing"
	"github.com/zydee3/aria/pkg/query"
	"github.com/zydee3/aria/pkg/storage"
)

// runQuery executes the 'query' CLI command, one of five verbs:
// function, trace, usages, file, list.
func runQuery(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: aria query <function|trace|usages|file|list> [options]")
		os.Exit(1)
	}

	verb := args[0]
	verbArgs := args[1:]

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

	switch verb {
	case "function":
		runQueryFunction(idx, verbArgs)
	case "trace":
		runQueryTrace(idx, verbArgs)
	case "usages":
		runQueryUsages(idx, verbArgs)
	case "file":
		runQueryFile(idx, verbArgs)
	case "list":
		runQueryList(idx, verbArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown query verb: %s\n", verb)
		os.Exit(1)
	}
}

func runQueryFunction(idx *indexing.Index, args []string) {
	fs := flag.NewFlagSet("query function", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: aria query function <name>")
		os.Exit(1)
	}

	fn, err := query.ResolveFunction(idx, fs.Arg(0))
	if err != nil {
		failQuery(err, *jsonOutput)
	}

	if *jsonOutput {
		_ = output.JSON(fn)
		return
	}
	fmt.Printf("%s\n", fn.QualifiedName)
	fmt.Printf("  signature: %s\n", fn.Signature)
	if params := indexing.ParseGoSignatureParams(fn.Signature); len(params) > 0 {
		parts := make([]string, len(params))
		for i, p := range params {
			parts[i] = fmt.Sprintf("%s %s", p.Name, p.Type)
		}
		fmt.Printf("  params:    %s\n", strings.Join(parts, ", "))
	}
	fmt.Printf("  scope:     %s\n", fn.Scope)
	fmt.Printf("  lines:     %d-%d\n", fn.LineStart, fn.LineEnd)
	if fn.Summary != "" {
		fmt.Printf("  summary:   %s\n", fn.Summary)
	}
	fmt.Printf("  calls:     %d\n", len(fn.Calls))
	fmt.Printf("  called by: %d\n", len(fn.CalledBy))
}

func runQueryTrace(idx *indexing.Index, args []string) {
	fs := flag.NewFlagSet("query trace", flag.ExitOnError)
	depth := fs.Int("depth", 0, "Maximum trace depth (0 = unlimited)")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: aria query trace <name> [--depth N]")
		os.Exit(1)
	}

	node, err := query.Trace(idx, fs.Arg(0), *depth)
	if err != nil {
		failQuery(err, *jsonOutput)
	}

	if *jsonOutput {
		_ = output.JSON(node)
		return
	}
	printTraceNode(node, 0)
}

func printTraceNode(node *query.TraceNode, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Printf("%s%s\n", indent, node.QualifiedName)
	for _, u := range node.Unresolved {
		if u.Summary != "" {
			fmt.Printf("%s  [%s] %s - %s\n", indent, u.Class, u.Raw, u.Summary)
		} else {
			fmt.Printf("%s  [%s] %s\n", indent, u.Class, u.Raw)
		}
	}
	for _, child := range node.Children {
		printTraceNode(child, depth+1)
	}
}

func runQueryUsages(idx *indexing.Index, args []string) {
	fs := flag.NewFlagSet("query usages", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: aria query usages <name>")
		os.Exit(1)
	}

	callers, err := query.Usages(idx, fs.Arg(0))
	if err != nil {
		failQuery(err, *jsonOutput)
	}

	if *jsonOutput {
		_ = output.JSON(callers)
		return
	}
	if len(callers) == 0 {
		fmt.Println("No callers found")
		return
	}
	for _, c := range callers {
		fmt.Println(c)
	}
}

func runQueryFile(idx *indexing.Index, args []string) {
	fs := flag.NewFlagSet("query file", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: aria query file <path>")
		os.Exit(1)
	}

	rec, err := query.File(idx, fs.Arg(0))
	if err != nil {
		failQuery(err, *jsonOutput)
	}

	if *jsonOutput {
		_ = output.JSON(rec)
		return
	}
	fmt.Printf("%s (%s)\n", rec.Path, rec.Language)
	for _, fn := range rec.Functions {
		fmt.Printf("  func  %-40s %d-%d\n", fn.Name, fn.LineStart, fn.LineEnd)
	}
	for _, ty := range rec.Types {
		fmt.Printf("  %-5s %-40s %d-%d\n", ty.Kind, ty.Name, ty.LineStart, ty.LineEnd)
	}
}

func runQueryList(idx *indexing.Index, args []string) {
	fs := flag.NewFlagSet("query list", flag.ExitOnError)
	scope := fs.String("scope", "", "Filter by scope (public, internal, static)")
	language := fs.String("language", "", "Filter by language (go, rust)")
	pathPrefix := fs.String("path-prefix", "", "Filter by file path prefix")
	nameContains := fs.String("name-contains", "", "Filter by substring in the function name")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	results := query.List(idx, query.ListFilter{
		Scope:        indexing.Scope(*scope),
		Language:     *language,
		PathPrefix:   *pathPrefix,
		NameContains: *nameContains,
	})

	if *jsonOutput {
		_ = output.JSON(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No functions matched")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QUALIFIED NAME\tSCOPE\tLINES")
	for _, fn := range results {
		fmt.Fprintf(w, "%s\t%s\t%d-%d\n", fn.QualifiedName, fn.Scope, fn.LineStart, fn.LineEnd)
	}
	_ = w.Flush()
	fmt.Printf("\n(%d functions)\n", len(results))
}

func failQuery(err error, jsonOutput bool) {
	if jsonOutput {
		_ = output.JSONError(err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
