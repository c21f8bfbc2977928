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

// Package query answers lookups against an in-memory *indexing.Index:
// resolving a function by name, tracing its call graph, listing its
// callers, retrieving a file's declarations, and listing functions by
// filter. It replaces the teacher's CozoScript query surface with direct
// lookups over the JSON index document's Go structs.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zydee3/aria/pkg/indexing"
)

// ErrNotFound is returned when a lookup target does not exist in the index.
type ErrNotFound struct {
	Kind string
	Name string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found in index", e.Kind, e.Name)
}

// ResolveFunction finds a function by exact qualified name, falling back
// to a unique simple-name match. It returns ErrNotFound if no function
// matches, or a multi-match error listing every qualified name sharing
// the simple name.
func ResolveFunction(idx *indexing.Index, name string) (*indexing.Function, error) {
	byQualified := idx.FunctionByQualifiedName()
	if fn, ok := byQualified[name]; ok {
		return fn, nil
	}

	var matches []*indexing.Function
	for _, fn := range idx.Functions() {
		if fn.Name == name {
			matches = append(matches, fn)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &ErrNotFound{Kind: "function", Name: name}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, fn := range matches {
			names[i] = fn.QualifiedName
		}
		sort.Strings(names)
		return nil, fmt.Errorf("ambiguous function name %q, matches: %s", name, strings.Join(names, ", "))
	}
}

// UnresolvedCall is a call the Resolver could not match to a declaration
// in the index, classified for display by indexing.Classify.
type UnresolvedCall struct {
	Raw     string                 `json:"raw"`
	Class   indexing.ExternalClass `json:"class"`
	Summary string                 `json:"summary,omitempty"`
}

// TraceNode is one function in a call-graph trace, with its resolved
// callees expanded to the requested depth. A callee that could not be
// resolved (indexing.Unresolved) or that would exceed the requested depth
// appears as a leaf with Children == nil.
type TraceNode struct {
	QualifiedName string           `json:"qualified_name"`
	Signature     string           `json:"signature"`
	Children      []*TraceNode     `json:"children,omitempty"`
	Unresolved    []UnresolvedCall `json:"unresolved,omitempty"`
}

// Trace builds a call-graph tree rooted at the named function, descending
// into resolved callees up to maxDepth levels (maxDepth <= 0 means
// unlimited). Cycles are cut at the point of recurrence: a qualified name
// already on the current path is rendered as a leaf rather than expanded
// again, so a strongly-connected component does not recurse forever.
func Trace(idx *indexing.Index, name string, maxDepth int) (*TraceNode, error) {
	root, err := ResolveFunction(idx, name)
	if err != nil {
		return nil, err
	}
	byQualified := idx.FunctionByQualifiedName()
	visiting := make(map[string]bool)
	return traceNode(root, byQualified, visiting, 1, maxDepth), nil
}

func traceNode(fn *indexing.Function, byQualified map[string]*indexing.Function, visiting map[string]bool, depth, maxDepth int) *TraceNode {
	node := &TraceNode{QualifiedName: fn.QualifiedName, Signature: fn.Signature}
	visiting[fn.QualifiedName] = true
	defer delete(visiting, fn.QualifiedName)

	if maxDepth > 0 && depth >= maxDepth {
		return node
	}

	seen := make(map[string]bool)
	for _, call := range fn.Calls {
		if call.Target == indexing.Unresolved {
			class, summary := indexing.Classify(call.Raw)
			node.Unresolved = append(node.Unresolved, UnresolvedCall{Raw: call.Raw, Class: class, Summary: summary})
			continue
		}
		if seen[call.Target] || visiting[call.Target] {
			continue
		}
		seen[call.Target] = true
		callee, ok := byQualified[call.Target]
		if !ok {
			continue
		}
		node.Children = append(node.Children, traceNode(callee, byQualified, visiting, depth+1, maxDepth))
	}
	sort.Slice(node.Children, func(i, j int) bool {
		return node.Children[i].QualifiedName < node.Children[j].QualifiedName
	})
	sort.Slice(node.Unresolved, func(i, j int) bool {
		return node.Unresolved[i].Raw < node.Unresolved[j].Raw
	})
	return node
}

// Usages returns the sorted, deduplicated list of qualified names that
// call the named function, per Function.CalledBy (populated by the
// Resolver during indexing).
func Usages(idx *indexing.Index, name string) ([]string, error) {
	fn, err := ResolveFunction(idx, name)
	if err != nil {
		return nil, err
	}
	return fn.CalledBy, nil
}

// File returns the parsed record for a file, matched by its
// repository-relative path.
func File(idx *indexing.Index, path string) (*indexing.FileRecord, error) {
	if rec, ok := idx.Files[path]; ok {
		return rec, nil
	}
	return nil, &ErrNotFound{Kind: "file", Name: path}
}

// ListFilter narrows the result of List. A zero-value field is not
// applied as a constraint.
type ListFilter struct {
	// Scope restricts results to one visibility ("public", "internal",
	// "static").
	Scope indexing.Scope

	// Language restricts results to one parser language ("go", "rust").
	Language string

	// PathPrefix restricts results to functions declared in files whose
	// path starts with this prefix.
	PathPrefix string

	// NameContains is a case-insensitive substring match against the
	// simple function name.
	NameContains string
}

// List returns every function matching filter, in Index.Functions' stable
// file-path-then-declaration order.
func List(idx *indexing.Index, filter ListFilter) []*indexing.Function {
	var out []*indexing.Function
	for path, rec := range idx.Files {
		if filter.Language != "" && rec.Language != filter.Language {
			continue
		}
		if filter.PathPrefix != "" && !strings.HasPrefix(path, filter.PathPrefix) {
			continue
		}
		for _, fn := range rec.Functions {
			if filter.Scope != "" && fn.Scope != filter.Scope {
				continue
			}
			if filter.NameContains != "" && !strings.Contains(strings.ToLower(fn.Name), strings.ToLower(filter.NameContains)) {
				continue
			}
			out = append(out, fn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName < out[j].QualifiedName })
	return out
}
