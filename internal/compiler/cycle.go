package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pgshape/internal/ir"
)

// CycleWarning describes a cycle in the relationship graph.
//
// Cycles are informational, not errors. Self-referential tables and
// mutually related tables are legal because every path is finite; the
// warning only tells the author that Enumerate needs a depth bound.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["categories", "categories"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // always "info"
}

// AnalyzeCycles finds strongly connected components (Tarjan) in the graph
// of table → relationship target edges. Each SCC with more than one table,
// or a single table relating to itself, becomes one warning.
//
// Output is deterministic: nodes and edges are visited in sorted order and
// warnings are sorted by their first table.
func AnalyzeCycles(s *ir.Schema) []CycleWarning {
	graph := buildRelationGraph(s)
	if len(graph) == 0 {
		return []CycleWarning{}
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}

	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// relationGraph maps table name → sorted, de-duplicated target tables.
type relationGraph map[string][]string

func buildRelationGraph(s *ir.Schema) relationGraph {
	graph := make(relationGraph)
	for _, t := range s.Tables() {
		targets := []string{}
		for _, c := range t.Relations() {
			targets = append(targets, c.Relation.Target)
		}
		slices.Sort(targets)
		graph[t.Name] = slices.Compact(targets)
	}
	return graph
}

func hasSelfLoop(node string, graph relationGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Each SCC is returned sorted by table name.
func tarjanSCC(graph relationGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []string, graph relationGraph) CycleWarning {
	if len(scc) == 1 {
		table := scc[0]
		return CycleWarning{
			Path:    []string{table, table},
			Message: fmt.Sprintf("Self-referential relationship: %s → %s", table, table),
			Level:   "info",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Relationship cycle: %s", strings.Join(path, " → ")),
		Level:   "info",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph relationGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && neighbor != current && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
