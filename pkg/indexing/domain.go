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

// Package indexing implements the code-intelligence indexing pipeline:
// per-language parsing, cross-file call resolution, call-graph topology,
// LLM-backed summarization, and a binary embedding store.
package indexing

import "sort"

// Scope describes a function or type's visibility.
type Scope string

const (
	ScopePublic   Scope = "public"
	ScopeInternal Scope = "internal"
	ScopeStatic   Scope = "static"
)

// TypeKind enumerates the kinds of type declarations recorded by a parser.
type TypeKind string

const (
	TypeKindStruct    TypeKind = "struct"
	TypeKindInterface TypeKind = "interface"
	TypeKindTypedef   TypeKind = "typedef"
	TypeKindEnum      TypeKind = "enum"
)

// Unresolved is the sentinel call target written by the Resolver when no
// unambiguous candidate exists. It is not an error.
const Unresolved = "[unresolved]"

// CallSite is a syntactic occurrence of a callee expression within a
// function body.
type CallSite struct {
	// Raw is the callee expression exactly as written (e.g. "pkg.Foo",
	// "s.logger.Info").
	Raw string `json:"raw"`

	// Line is the 1-indexed source line of the call expression.
	Line int `json:"line"`

	// Target is the resolved qualified name, or Unresolved.
	Target string `json:"target"`
}

// Function is a parsed function or method declaration.
type Function struct {
	// Name is the simple (unqualified) name.
	Name string `json:"name"`

	// QualifiedName is the globally unique key within one index.
	QualifiedName string `json:"qualified_name"`

	// ContentHash is a 64-bit non-cryptographic digest over the exact byte
	// range [LineStart, LineEnd] of the declaration.
	ContentHash uint64 `json:"ast_hash"`

	// LineStart and LineEnd are 1-indexed, inclusive.
	LineStart int `json:"line_start"`
	LineEnd   int `json:"line_end"`

	// Signature is a single-line textual reconstruction of the parameter
	// list and return type.
	Signature string `json:"signature"`

	// Scope is derived from visibility markers.
	Scope Scope `json:"scope"`

	// Receiver is the (pointer-stripped) receiver type name, for methods.
	Receiver string `json:"receiver,omitempty"`

	// Calls is the ordered list of call sites found in the function body.
	Calls []CallSite `json:"calls"`

	// CalledBy is the sorted, deduplicated set of caller qualified names,
	// populated by the Resolver.
	CalledBy []string `json:"called_by,omitempty"`

	// Summary is the natural-language description attached by the
	// Summarizer, if any.
	Summary string `json:"summary,omitempty"`

	// Embedding is the dense vector attached by the embedding stage, if
	// present. Not serialized into the index document; lives in the
	// sibling EmbeddingStore (see pkg/indexing/embedstore.go).
	Embedding []float32 `json:"-"`
}

// AddCalledBy appends a caller if not already present, keeping the slice
// sorted and deduplicated so called_by lists are deterministic across runs.
func (f *Function) AddCalledBy(caller string) {
	idx := sort.SearchStrings(f.CalledBy, caller)
	if idx < len(f.CalledBy) && f.CalledBy[idx] == caller {
		return
	}
	f.CalledBy = append(f.CalledBy, "")
	copy(f.CalledBy[idx+1:], f.CalledBy[idx:])
	f.CalledBy[idx] = caller
}

// Type is a parsed type, interface/trait, typedef, or enum declaration.
type Type struct {
	Name          string   `json:"name"`
	QualifiedName string   `json:"qualified_name"`
	Kind          TypeKind `json:"kind"`
	LineStart     int      `json:"line_start"`
	LineEnd       int      `json:"line_end"`
	Summary       string   `json:"summary,omitempty"`
	Methods       []string `json:"methods,omitempty"`
}

// FileRecord is the parsed representation of one source file.
type FileRecord struct {
	// Path is the file path relative to the repository root.
	Path string `json:"-"`

	// Language is the Parser.Language() value that produced this record
	// ("go", "rust"). The Resolver uses it to pick the namespace
	// separator ("." for Go, "::" for Rust) when splitting raw call
	// expressions.
	Language string `json:"language"`

	// ContentHash is the same 64-bit hash function applied to the whole
	// file's bytes.
	ContentHash uint64 `json:"ast_hash"`

	Functions []*Function `json:"functions"`
	Types     []*Type     `json:"types"`
}

// Separator returns the qualified-name namespace separator for a file's
// language.
func (f *FileRecord) Separator() string {
	if f.Language == "rust" {
		return "::"
	}
	return "."
}

// IndexSchemaVersion is bumped whenever the on-disk index document schema
// changes incompatibly. Load must treat a mismatch as fatal.
const IndexSchemaVersion = "1"

// Index is the root artifact: a queryable, semantically-enriched map of a
// repository at one point in time.
type Index struct {
	Version        string                 `json:"version"`
	SourceCommit   string                 `json:"source_commit,omitempty"`
	IndexedAt      string                 `json:"indexed_at"`
	Files          map[string]*FileRecord `json:"files"`
}

// NewIndex returns an empty Index stamped with the current schema version.
func NewIndex() *Index {
	return &Index{
		Version: IndexSchemaVersion,
		Files:   make(map[string]*FileRecord),
	}
}

// Functions returns every function across every file, in file-path order
// then declaration order, for deterministic iteration.
func (idx *Index) Functions() []*Function {
	paths := make([]string, 0, len(idx.Files))
	for p := range idx.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []*Function
	for _, p := range paths {
		out = append(out, idx.Files[p].Functions...)
	}
	return out
}

// FunctionByQualifiedName builds a lookup map; callers that need repeated
// lookups should cache the result rather than calling this in a loop.
func (idx *Index) FunctionByQualifiedName() map[string]*Function {
	out := make(map[string]*Function)
	for _, f := range idx.Functions() {
		out[f.QualifiedName] = f
	}
	return out
}

// Walk calls fn once per function declaration across every file, in the
// same deterministic order as Functions. It satisfies
// internal/contract.IndexLike.
func (idx *Index) Walk(fn func(path, qualifiedName string, lineStart, lineEnd int)) {
	paths := make([]string, 0, len(idx.Files))
	for p := range idx.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		for _, f := range idx.Files[p].Functions {
			fn(p, f.QualifiedName, f.LineStart, f.LineEnd)
		}
	}
}
