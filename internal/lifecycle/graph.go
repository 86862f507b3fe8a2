package lifecycle

import (
	"fmt"
	"sort"
)

// Rule is the per-edge metadata of a transition. An empty AllowedRoles set
// marks a system-only edge: only the reserved system principal may execute it.
type Rule struct {
	AllowedRoles   []Role
	RequiredData   []DataKey
	ReasonRequired bool
}

// allowsRole reports whether the rule permits the given role.
func (r Rule) allowsRole(role Role) bool {
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Edge is a single legal transition in a state graph.
type Edge struct {
	From State
	To   State
	Rule Rule
}

// Graph is the immutable set of legal transitions for one aggregate type.
// It is built once at process start and never mutated afterwards.
type Graph struct {
	initial State
	states  map[State]bool
	edges   map[State]map[State]Rule
}

// NewGraph builds and validates a state graph. It rejects edges referencing
// undeclared states, duplicate edges, and states unreachable from the initial
// state.
func NewGraph(initial State, states []State, edges []Edge) (*Graph, error) {
	g := &Graph{
		initial: initial,
		states:  make(map[State]bool, len(states)),
		edges:   make(map[State]map[State]Rule),
	}

	for _, s := range states {
		if g.states[s] {
			return nil, fmt.Errorf("state %s declared twice", s)
		}
		g.states[s] = true
	}
	if !g.states[initial] {
		return nil, fmt.Errorf("initial state %s is not declared", initial)
	}

	for _, e := range edges {
		if !g.states[e.From] {
			return nil, fmt.Errorf("edge %s -> %s references undeclared state %s", e.From, e.To, e.From)
		}
		if !g.states[e.To] {
			return nil, fmt.Errorf("edge %s -> %s references undeclared state %s", e.From, e.To, e.To)
		}
		if e.From == e.To {
			return nil, fmt.Errorf("self-edge %s -> %s is implicit and must not be declared", e.From, e.To)
		}
		if _, ok := g.edges[e.From][e.To]; ok {
			return nil, fmt.Errorf("duplicate edge %s -> %s", e.From, e.To)
		}
		if g.edges[e.From] == nil {
			g.edges[e.From] = make(map[State]Rule)
		}
		g.edges[e.From][e.To] = e.Rule
	}

	if unreachable := g.unreachableStates(); len(unreachable) > 0 {
		return nil, fmt.Errorf("states unreachable from %s: %v", initial, unreachable)
	}

	return g, nil
}

// MustGraph is NewGraph that panics on error. Rule tables are fixed at build
// time, so a failure here is a programming error caught at startup.
func MustGraph(initial State, states []State, edges []Edge) *Graph {
	g, err := NewGraph(initial, states, edges)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) unreachableStates() []State {
	seen := map[State]bool{g.initial: true}
	queue := []State{g.initial}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range g.edges[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	var unreachable []State
	for s := range g.states {
		if !seen[s] {
			unreachable = append(unreachable, s)
		}
	}
	sort.Slice(unreachable, func(i, j int) bool { return unreachable[i] < unreachable[j] })
	return unreachable
}

// Initial returns the state aggregates are created in.
func (g *Graph) Initial() State {
	return g.initial
}

// Has reports whether s is a declared state.
func (g *Graph) Has(s State) bool {
	return g.states[s]
}

// Terminal reports whether s has no outgoing edges.
func (g *Graph) Terminal(s State) bool {
	return g.states[s] && len(g.edges[s]) == 0
}

// AllowedNext returns the legal targets from the given state, sorted.
func (g *Graph) AllowedNext(from State) []State {
	targets := make([]State, 0, len(g.edges[from]))
	for to := range g.edges[from] {
		targets = append(targets, to)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}

// RuleFor returns the rule of the (from, to) edge, if the edge exists.
func (g *Graph) RuleFor(from, to State) (Rule, bool) {
	rule, ok := g.edges[from][to]
	return rule, ok
}
