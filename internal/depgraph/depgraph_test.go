package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleDAGOrder(t *testing.T) {
	g := New()
	g.AddEdge("a", "b") // a depends on b
	g.AddEdge("b", "c") // b depends on c

	order := g.TopologicalOrder()
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestCircularDependency(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")

	order := g.TopologicalOrder()
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestAddNodeIdempotent(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("a")
	assert.Equal(t, 1, g.NodeCount())
}
