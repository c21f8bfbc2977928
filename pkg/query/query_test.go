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

package query

import (
	"testing"

	"github.com/zydee3/aria/pkg/indexing"
)

func buildTestIndex() *indexing.Index {
	idx := indexing.NewIndex()
	idx.Files["pkg/a.go"] = &indexing.FileRecord{
		Path:     "pkg/a.go",
		Language: "go",
		Functions: []*indexing.Function{
			{
				Name:          "Foo",
				QualifiedName: "pkg.Foo",
				Signature:     "func Foo()",
				Scope:         indexing.ScopePublic,
				Calls:         []indexing.CallSite{{Raw: "Bar", Line: 2, Target: "pkg.Bar"}},
			},
			{
				Name:          "Bar",
				QualifiedName: "pkg.Bar",
				Signature:     "func Bar()",
				Scope:         indexing.ScopeInternal,
				CalledBy:      []string{"pkg.Foo"},
				Calls:         []indexing.CallSite{{Raw: "mystery.Do", Line: 5, Target: indexing.Unresolved}},
			},
		},
	}
	return idx
}

func TestResolveFunction_ByQualifiedName(t *testing.T) {
	idx := buildTestIndex()
	fn, err := ResolveFunction(idx, "pkg.Bar")
	if err != nil {
		t.Fatalf("ResolveFunction: %v", err)
	}
	if fn.Name != "Bar" {
		t.Errorf("Name = %q, want Bar", fn.Name)
	}
}

func TestResolveFunction_BySimpleName(t *testing.T) {
	idx := buildTestIndex()
	fn, err := ResolveFunction(idx, "Foo")
	if err != nil {
		t.Fatalf("ResolveFunction: %v", err)
	}
	if fn.QualifiedName != "pkg.Foo" {
		t.Errorf("QualifiedName = %q, want pkg.Foo", fn.QualifiedName)
	}
}

func TestResolveFunction_NotFound(t *testing.T) {
	idx := buildTestIndex()
	if _, err := ResolveFunction(idx, "Missing"); err == nil {
		t.Fatal("expected error for missing function")
	}
}

func TestTrace_FollowsResolvedCallsAndRecordsUnresolved(t *testing.T) {
	idx := buildTestIndex()
	node, err := Trace(idx, "pkg.Foo", 0)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if len(node.Children) != 1 || node.Children[0].QualifiedName != "pkg.Bar" {
		t.Fatalf("Children = %+v, want [pkg.Bar]", node.Children)
	}
	if len(node.Children[0].Unresolved) != 1 {
		t.Fatalf("expected one unresolved call on pkg.Bar, got %v", node.Children[0].Unresolved)
	}
	if got := node.Children[0].Unresolved[0].Class; got != indexing.ExternalUnknown {
		t.Errorf("Class = %q, want %q", got, indexing.ExternalUnknown)
	}
}

func TestTrace_DepthLimitStopsExpansion(t *testing.T) {
	idx := buildTestIndex()
	node, err := Trace(idx, "pkg.Foo", 1)
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if len(node.Children) != 0 {
		t.Errorf("expected no children at depth limit 1, got %d", len(node.Children))
	}
}

func TestUsages(t *testing.T) {
	idx := buildTestIndex()
	callers, err := Usages(idx, "pkg.Bar")
	if err != nil {
		t.Fatalf("Usages: %v", err)
	}
	if len(callers) != 1 || callers[0] != "pkg.Foo" {
		t.Errorf("callers = %v, want [pkg.Foo]", callers)
	}
}

func TestFile(t *testing.T) {
	idx := buildTestIndex()
	rec, err := File(idx, "pkg/a.go")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if len(rec.Functions) != 2 {
		t.Errorf("expected 2 functions, got %d", len(rec.Functions))
	}
	if _, err := File(idx, "pkg/missing.go"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestList_FiltersByScope(t *testing.T) {
	idx := buildTestIndex()
	results := List(idx, ListFilter{Scope: indexing.ScopeInternal})
	if len(results) != 1 || results[0].QualifiedName != "pkg.Bar" {
		t.Errorf("results = %+v, want [pkg.Bar]", results)
	}
}

func TestList_FiltersByNameSubstring(t *testing.T) {
	idx := buildTestIndex()
	results := List(idx, ListFilter{NameContains: "oo"})
	if len(results) != 1 || results[0].Name != "Foo" {
		t.Errorf("results = %+v, want [Foo]", results)
	}
}
