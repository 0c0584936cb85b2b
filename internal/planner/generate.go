package planner

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"prodplan/internal/graph"
)

// CycleError reports items that could not be ordered because they depend on
// each other. No plan is produced when it is returned.
type CycleError struct {
	Unresolved []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("unresolvable dependency cycle among %d items: %s",
		len(e.Unresolved), strings.Join(e.Unresolved, ", "))
}

// Generate validates req, builds the dependency graph of its target and
// computes the plan.
func Generate(l graph.Lookup, req Request) (*Plan, *graph.Graph, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, nil, err
	}
	g := graph.Build(l, req.Target)
	plan, err := Compute(l, g, req.Target, req.Rate)
	if err != nil {
		return nil, g, err
	}
	return plan, g, nil
}

// Compute propagates demand from target through g. An item is resolved only
// once every item consuming it has been resolved; its rate is the sum over
// consuming edges of weight times the consumer's rate, except for the target
// whose rate is fixed to rate. Among items ready at the same time the
// lexically smallest goes first.
func Compute(l graph.Lookup, g *graph.Graph, target string, rate float64) (*Plan, error) {
	if !g.Has(target) {
		return nil, fmt.Errorf("target %q is not in the graph", target)
	}

	pending := make(map[string]int, len(g.Vertices))
	outgoing := make(map[string][]graph.Edge, len(g.Vertices))
	for v := range g.Vertices {
		pending[v] = 0
	}
	for _, e := range g.Edges {
		if !g.Has(e.From) || !g.Has(e.To) {
			return nil, fmt.Errorf("edge %s -> %s references an unknown item", e.From, e.To)
		}
		pending[e.To]++
		outgoing[e.From] = append(outgoing[e.From], e)
	}

	ready := &readyQueue{}
	for v, n := range pending {
		if n == 0 {
			heap.Push(ready, v)
		}
	}

	demand := make(map[string]float64, len(g.Vertices))
	plan := &Plan{Target: target, TargetRate: rate}
	for ready.Len() > 0 {
		v := heap.Pop(ready).(string)
		r := demand[v]
		if v == target {
			r = rate
		}
		entry := Entry{Item: v, Rate: r}
		if f, ok := l.Lookup(v); ok {
			ct := f.CycleTime
			entry.CycleTime = &ct
		}
		plan.add(entry)

		for _, e := range outgoing[v] {
			demand[e.To] += e.Weight * r
			pending[e.To]--
			if pending[e.To] == 0 {
				heap.Push(ready, e.To)
			}
		}
	}

	if len(plan.Entries) < len(g.Vertices) {
		var unresolved []string
		for v, n := range pending {
			if n > 0 {
				unresolved = append(unresolved, v)
			}
		}
		sort.Strings(unresolved)
		return nil, &CycleError{Unresolved: unresolved}
	}
	return plan, nil
}

type readyQueue []string

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *readyQueue) Push(x any)        { *q = append(*q, x.(string)) }
func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	v := old[n-1]
	*q = old[:n-1]
	return v
}
