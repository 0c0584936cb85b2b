// Package graph builds the dependency closure of a target item.
package graph

import (
	"sort"

	"prodplan/internal/recipe"
)

// Lookup resolves the formula that produces an item. Items without one are
// raw inputs.
type Lookup interface {
	Lookup(item string) (recipe.Formula, bool)
}

// Edge says that one cycle of From consumes Weight units of To.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// Graph is the subgraph of items reachable from a target through ingredients.
type Graph struct {
	Vertices map[string]struct{}
	Edges    []Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{Vertices: make(map[string]struct{})}
}

// Build expands target breadth-first. A vertex is expanded once; an item with
// no formula is kept as a leaf. Cycles are not detected here.
func Build(l Lookup, target string) *Graph {
	g := New()
	queue := []string{target}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if g.Has(v) {
			continue
		}
		g.Vertices[v] = struct{}{}
		f, ok := l.Lookup(v)
		if !ok {
			continue
		}
		for _, in := range f.Inputs {
			g.Edges = append(g.Edges, Edge{From: v, To: in.Name, Weight: in.Amount})
			queue = append(queue, in.Name)
		}
	}
	return g
}

// Has reports whether v is a vertex.
func (g *Graph) Has(v string) bool {
	_, ok := g.Vertices[v]
	return ok
}

// SortedVertices returns the vertices in lexical order.
func (g *Graph) SortedVertices() []string {
	out := make([]string, 0, len(g.Vertices))
	for v := range g.Vertices {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Consumers returns the edges pointing at v, in edge order.
func (g *Graph) Consumers(v string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.To == v {
			out = append(out, e)
		}
	}
	return out
}

// Inputs returns the edges leaving v, in edge order.
func (g *Graph) Inputs(v string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == v {
			out = append(out, e)
		}
	}
	return out
}
