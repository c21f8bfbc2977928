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

import "sort"

// Topology is the bottom-up summarization order derived from the
// resolved call graph: every function's level, and the same information
// grouped by level for batch scheduling.
type Topology struct {
	// Levels maps a function's qualified name to its integer level.
	// Functions with no resolved outgoing edges are at level 0.
	Levels map[string]int

	// ByLevel[i] is the sorted list of qualified names at level i.
	ByLevel [][]string
}

// ComputeTopology assigns every function in idx an integer level such
// that summarization can proceed strictly bottom-up: a caller is never
// summarized before any function it resolves a call to.
//
// It computes strongly-connected components with a two-pass (Kosaraju)
// depth-first search, condenses the graph to its SCC DAG (dropping
// self-loops), then assigns SCC levels with a reverse Kahn propagation
// seeded from SCCs with no outgoing edges. Every traversal iterates
// children in sorted order so identical inputs always produce identical
// output.
func ComputeTopology(idx *Index) *Topology {
	nodes, graph, reverse := buildCallGraph(idx)
	order := finishOrder(nodes, graph)
	sccOf, sccs := condenseSCCs(order, reverse)

	_, callerEdges, outDegree := condensedEdges(sccOf, graph, len(sccs))
	sccLevel := levelSCCs(sccs, callerEdges, outDegree)

	levels := make(map[string]int, len(nodes))
	maxLevel := 0
	for _, n := range nodes {
		lvl := sccLevel[sccOf[n]]
		levels[n] = lvl
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	byLevel := make([][]string, maxLevel+1)
	for n, lvl := range levels {
		byLevel[lvl] = append(byLevel[lvl], n)
	}
	for _, group := range byLevel {
		sort.Strings(group)
	}

	pipeMetrics.init()
	pipeMetrics.sccCount.Set(float64(len(sccs)))
	pipeMetrics.levelCount.Set(float64(len(byLevel)))

	return &Topology{Levels: levels, ByLevel: byLevel}
}

// buildCallGraph returns the sorted set of every function qualified
// name, the forward adjacency (caller -> sorted unique resolved
// callees), and the reverse adjacency (callee -> sorted unique callers).
func buildCallGraph(idx *Index) (nodes []string, graph, reverse map[string][]string) {
	graph = make(map[string][]string)
	reverse = make(map[string][]string)

	seen := make(map[string]bool)
	for _, fn := range idx.Functions() {
		if !seen[fn.QualifiedName] {
			seen[fn.QualifiedName] = true
			nodes = append(nodes, fn.QualifiedName)
		}
	}
	sort.Strings(nodes)

	edgeSeen := make(map[[2]string]bool)
	for _, fn := range idx.Functions() {
		for _, call := range fn.Calls {
			if call.Target == Unresolved {
				continue
			}
			key := [2]string{fn.QualifiedName, call.Target}
			if edgeSeen[key] {
				continue
			}
			edgeSeen[key] = true
			graph[fn.QualifiedName] = append(graph[fn.QualifiedName], call.Target)
			reverse[call.Target] = append(reverse[call.Target], fn.QualifiedName)
		}
	}
	for n := range graph {
		sort.Strings(graph[n])
	}
	for n := range reverse {
		sort.Strings(reverse[n])
	}
	return nodes, graph, reverse
}

// finishOrder is Kosaraju's first pass: a post-order DFS over the
// forward graph, visiting children in sorted order.
func finishOrder(nodes []string, graph map[string][]string) []string {
	visited := make(map[string]bool, len(nodes))
	var order []string

	var visit func(string)
	visit = func(u string) {
		if visited[u] {
			return
		}
		visited[u] = true
		for _, v := range graph[u] {
			visit(v)
		}
		order = append(order, u)
	}
	for _, n := range nodes {
		visit(n)
	}
	return order
}

// condenseSCCs is Kosaraju's second pass: DFS over the reverse graph in
// decreasing finish-time order. Each tree rooted at an unvisited node is
// one strongly-connected component.
func condenseSCCs(order []string, reverse map[string][]string) (sccOf map[string]int, sccs [][]string) {
	sccOf = make(map[string]int, len(order))
	visited := make(map[string]bool, len(order))

	for i := len(order) - 1; i >= 0; i-- {
		root := order[i]
		if visited[root] {
			continue
		}

		var component []string
		var collect func(string)
		collect = func(u string) {
			if visited[u] {
				return
			}
			visited[u] = true
			component = append(component, u)
			for _, v := range reverse[u] {
				collect(v)
			}
		}
		collect(root)
		sort.Strings(component)

		id := len(sccs)
		for _, m := range component {
			sccOf[m] = id
		}
		sccs = append(sccs, component)
	}
	return sccOf, sccs
}

// condensedEdges projects the function-level graph onto SCC ids,
// dropping self-loops (an edge whose endpoints condense to the same
// SCC), and returns the distinct callee/caller adjacency per SCC plus
// each SCC's out-degree in the condensed DAG.
func condensedEdges(sccOf map[string]int, graph map[string][]string, sccCount int) (calleeEdges, callerEdges [][]int, outDegree []int) {
	calleeEdges = make([][]int, sccCount)
	callerEdges = make([][]int, sccCount)
	outDegree = make([]int, sccCount)

	seen := make(map[[2]int]bool)
	for u, callees := range graph {
		uSCC := sccOf[u]
		for _, v := range callees {
			vSCC := sccOf[v]
			if uSCC == vSCC {
				continue
			}
			key := [2]int{uSCC, vSCC}
			if seen[key] {
				continue
			}
			seen[key] = true
			calleeEdges[uSCC] = append(calleeEdges[uSCC], vSCC)
			callerEdges[vSCC] = append(callerEdges[vSCC], uSCC)
		}
	}
	for i := range calleeEdges {
		sort.Ints(calleeEdges[i])
		sort.Ints(callerEdges[i])
		outDegree[i] = len(calleeEdges[i])
	}
	return calleeEdges, callerEdges, outDegree
}

// levelSCCs runs the reverse Kahn propagation: SCCs with no outgoing
// edges start at level 0; a caller's level becomes one more than the
// highest level among its callees once every callee has been finalized.
func levelSCCs(sccs [][]string, callerEdges [][]int, outDegree []int) []int {
	level := make([]int, len(sccs))
	best := make([]int, len(sccs))
	remaining := make([]int, len(sccs))
	copy(remaining, outDegree)

	var queue []int
	for i := range sccs {
		if remaining[i] == 0 {
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		level[c] = best[c]

		for _, d := range callerEdges[c] {
			if candidate := level[c] + 1; candidate > best[d] {
				best[d] = candidate
			}
			remaining[d]--
			if remaining[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	return level
}
