// Package depgraph wraps github.com/dominikbraun/graph in the shape the
// resolver needs: add package-base nodes, add "depends on" edges, and
// produce a dependencies-first build order.
package depgraph

import (
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/Manpreet113/ax/internal/log"
)

// Graph is a directed graph of pkgbase names. An edge from -> to means
// "from depends on to".
type Graph struct {
	g graph.Graph[string, string]
}

func New() *Graph {
	return &Graph{g: graph.New(graph.StringHash, graph.Directed())}
}

// AddNode is idempotent: adding an existing node is a no-op.
func (d *Graph) AddNode(name string) {
	_ = d.g.AddVertex(name)
}

// AddEdge records that from depends on to, adding either endpoint as a
// node first if needed.
func (d *Graph) AddEdge(from, to string) {
	d.AddNode(from)
	d.AddNode(to)
	_ = d.g.AddEdge(from, to)
}

func (d *Graph) NodeCount() int {
	adj, err := d.g.AdjacencyMap()
	if err != nil {
		return 0
	}
	return len(adj)
}

// TopologicalOrder returns nodes dependencies-first: if a depends on b,
// b precedes a. dominikbraun/graph's StableTopologicalSort orders
// dependents-before-dependencies (edge direction "depends on"), so the
// result is reversed to match the resolver's expected build order.
//
// A cycle does not abort resolution: every node still needs building even
// when their relative order can't be determined, so this falls back to a
// deterministic lexicographically sorted list and logs a warning rather
// than failing the whole plan.
func (d *Graph) TopologicalOrder() []string {
	order, err := graph.StableTopologicalSort(d.g, func(a, b string) bool { return a < b })
	if err != nil {
		log.Warnf("circular dependency detected, falling back to lexicographic build order: %v", err)
		return d.sortedNodes()
	}
	reversed := make([]string, len(order))
	for i, n := range order {
		reversed[len(order)-1-i] = n
	}
	return reversed
}

// sortedNodes returns every node in the graph, lexicographically sorted,
// used as the cycle fallback order.
func (d *Graph) sortedNodes() []string {
	adj, err := d.g.AdjacencyMap()
	if err != nil || len(adj) == 0 {
		return nil
	}
	names := make([]string, 0, len(adj))
	for n := range adj {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
