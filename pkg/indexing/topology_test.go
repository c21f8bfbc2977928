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

package indexing

import "testing"

func indexWithCalls(edges map[string][]string) *Index {
	idx := NewIndex()
	rec := &FileRecord{Path: "main.go", Language: "go"}
	for name := range edges {
		rec.Functions = append(rec.Functions, &Function{Name: name, QualifiedName: name})
	}
	// make sure every callee also exists as a node even if it has no
	// outgoing edges of its own.
	for _, callees := range edges {
		for _, c := range callees {
			if _, ok := edges[c]; !ok {
				rec.Functions = append(rec.Functions, &Function{Name: c, QualifiedName: c})
			}
		}
	}
	byName := make(map[string]*Function)
	for _, fn := range rec.Functions {
		byName[fn.QualifiedName] = fn
	}
	for caller, callees := range edges {
		for _, callee := range callees {
			byName[caller].Calls = append(byName[caller].Calls, CallSite{
				Raw: callee, Target: callee,
			})
		}
	}
	idx.Files["main.go"] = rec
	return idx
}

// Scenario A — chain resolution: bar calls foo, foo is terminal.
func TestTopology_ScenarioA_Chain(t *testing.T) {
	idx := indexWithCalls(map[string][]string{
		"main.bar": {"main.foo"},
		"main.foo": nil,
	})
	topo := ComputeTopology(idx)

	if topo.Levels["main.foo"] != 0 {
		t.Errorf("level(foo) = %d, want 0", topo.Levels["main.foo"])
	}
	if topo.Levels["main.bar"] != 1 {
		t.Errorf("level(bar) = %d, want 1", topo.Levels["main.bar"])
	}
}

// Scenario B — cycle collapse: A<->B mutual recursion, B also calls
// terminal C. The A/B SCC must share a level one above C.
func TestTopology_ScenarioB_CycleCollapse(t *testing.T) {
	idx := indexWithCalls(map[string][]string{
		"A": {"B"},
		"B": {"A", "C"},
		"C": nil,
	})
	topo := ComputeTopology(idx)

	if topo.Levels["C"] != 0 {
		t.Errorf("level(C) = %d, want 0", topo.Levels["C"])
	}
	if topo.Levels["A"] != topo.Levels["B"] {
		t.Errorf("level(A)=%d != level(B)=%d, SCC members must share a level", topo.Levels["A"], topo.Levels["B"])
	}
	if topo.Levels["A"] != 1 {
		t.Errorf("level(A) = %d, want 1", topo.Levels["A"])
	}
}

// Scenario D — diamond: A->B, A->C, B->D, C->D.
func TestTopology_ScenarioD_Diamond(t *testing.T) {
	idx := indexWithCalls(map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
		"D": nil,
	})
	topo := ComputeTopology(idx)

	if topo.Levels["D"] != 0 {
		t.Errorf("level(D) = %d, want 0", topo.Levels["D"])
	}
	if topo.Levels["B"] != 1 || topo.Levels["C"] != 1 {
		t.Errorf("level(B)=%d level(C)=%d, want both 1", topo.Levels["B"], topo.Levels["C"])
	}
	if topo.Levels["A"] != 2 {
		t.Errorf("level(A) = %d, want 2", topo.Levels["A"])
	}
}

func TestTopology_DeterministicAcrossRuns(t *testing.T) {
	idx := indexWithCalls(map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
		"D": nil,
	})

	first := ComputeTopology(idx)
	second := ComputeTopology(idx)

	for name, lvl := range first.Levels {
		if second.Levels[name] != lvl {
			t.Errorf("level(%s) differs across runs: %d vs %d", name, lvl, second.Levels[name])
		}
	}
}

func TestTopology_ResolvedEdgeImpliesHigherLevelAcrossSCCs(t *testing.T) {
	idx := indexWithCalls(map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
		"D": nil,
	})
	topo := ComputeTopology(idx)

	for _, fn := range idx.Functions() {
		for _, call := range fn.Calls {
			if call.Target == Unresolved {
				continue
			}
			if topo.Levels[fn.QualifiedName] <= topo.Levels[call.Target] {
				t.Errorf("level(%s)=%d must exceed level(%s)=%d", fn.QualifiedName,
					topo.Levels[fn.QualifiedName], call.Target, topo.Levels[call.Target])
			}
		}
	}
}

func TestTopology_UnresolvedCallsDoNotCreateEdges(t *testing.T) {
	idx := NewIndex()
	idx.Files["main.go"] = &FileRecord{
		Path:     "main.go",
		Language: "go",
		Functions: []*Function{
			{Name: "Caller", QualifiedName: "main.Caller", Calls: []CallSite{
				{Raw: "doesNotExist", Target: Unresolved},
			}},
		},
	}
	topo := ComputeTopology(idx)
	if topo.Levels["main.Caller"] != 0 {
		t.Errorf("level(Caller) = %d, want 0 (only unresolved outgoing edges)", topo.Levels["main.Caller"])
	}
}
