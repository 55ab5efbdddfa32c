package variant

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrCycleDetected is returned when a graph's edges contain a cycle.
// Concurrency graphs describe partial orders and must be acyclic.
var ErrCycleDetected = errors.New("variant: cycle detected, graph is not acyclic")

// Node is one activity instance in a concurrency graph.
type Node struct {
	ID       string `json:"id" yaml:"id"`
	Activity string `json:"activity" yaml:"activity"`
}

// Edge records that the From node precedes the To node.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Order selects the traversal used by Walk.
type Order int

const (
	// BreadthFirst visits nodes level by level.
	BreadthFirst Order = iota
	// DepthFirst follows each branch to its end before backtracking.
	DepthFirst
)

// Graph is a concurrency graph. It is immutable after construction and safe
// for concurrent readers; the transitive closure is computed once, lazily.
type Graph struct {
	nodes []Node
	edges []Edge
	index map[string]int
	succ  [][]int
	pred  [][]int

	closureOnce sync.Once
	closure     [][]bool
}

// NewGraph validates nodes and edges and builds a graph.
//
// Node ids must be unique and non-empty, every node needs an activity,
// edges must reference known nodes, and the edge relation must be acyclic.
func NewGraph(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{}
	if err := g.init(nodes, edges); err != nil {
		return nil, err
	}
	return g, nil
}

// MustGraph is like NewGraph but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustGraph(nodes []Node, edges []Edge) *Graph {
	g, err := NewGraph(nodes, edges)
	if err != nil {
		panic(err)
	}
	return g
}

// Chain builds a strictly sequential graph, one node per activity, with
// node ids n0, n1, ...
func Chain(activities ...string) (*Graph, error) {
	nodes := make([]Node, len(activities))
	var edges []Edge
	for i, a := range activities {
		nodes[i] = Node{ID: fmt.Sprintf("n%d", i), Activity: a}
		if i > 0 {
			edges = append(edges, Edge{From: nodes[i-1].ID, To: nodes[i].ID})
		}
	}
	return NewGraph(nodes, edges)
}

func (g *Graph) init(nodes []Node, edges []Edge) error {
	g.nodes = make([]Node, len(nodes))
	g.index = make(map[string]int, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("variant: node %d has empty id", i)
		}
		if _, dup := g.index[n.ID]; dup {
			return fmt.Errorf("variant: duplicate node id %q", n.ID)
		}
		act := NormalizeActivity(n.Activity)
		if act == "" {
			return fmt.Errorf("variant: node %q has empty activity", n.ID)
		}
		g.nodes[i] = Node{ID: n.ID, Activity: act}
		g.index[n.ID] = i
	}

	g.edges = make([]Edge, len(edges))
	g.succ = make([][]int, len(nodes))
	g.pred = make([][]int, len(nodes))
	for i, e := range edges {
		from, ok := g.index[e.From]
		if !ok {
			return fmt.Errorf("variant: edge %d references unknown node %q", i, e.From)
		}
		to, ok := g.index[e.To]
		if !ok {
			return fmt.Errorf("variant: edge %d references unknown node %q", i, e.To)
		}
		g.edges[i] = e
		g.succ[from] = append(g.succ[from], to)
		g.pred[to] = append(g.pred[to], from)
	}

	return g.checkAcyclic()
}

// checkAcyclic runs Kahn's algorithm over the edge relation.
func (g *Graph) checkAcyclic() error {
	inDegree := make([]int, len(g.nodes))
	for i := range g.nodes {
		inDegree[i] = len(g.pred[i])
	}
	var queue []int
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, s := range g.succ[n] {
			inDegree[s]--
			if inDegree[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	if visited != len(g.nodes) {
		return ErrCycleDetected
	}
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node at index i.
func (g *Graph) Node(i int) Node { return g.nodes[i] }

// Nodes returns a copy of the graph's nodes.
func (g *Graph) Nodes() []Node { return slices.Clone(g.nodes) }

// Edges returns a copy of the graph's edges.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Activities returns the distinct activity labels in ascending order.
func (g *Graph) Activities() []string {
	var out []string
	for _, n := range g.nodes {
		out = append(out, n.Activity)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// NodesWithActivity returns the indexes of nodes labelled with activity.
func (g *Graph) NodesWithActivity(activity string) []int {
	activity = NormalizeActivity(activity)
	var out []int
	for i, n := range g.nodes {
		if n.Activity == activity {
			out = append(out, i)
		}
	}
	return out
}

// IsStart reports whether node i has no predecessors.
func (g *Graph) IsStart(i int) bool { return len(g.pred[i]) == 0 }

// IsEnd reports whether node i has no successors.
func (g *Graph) IsEnd(i int) bool { return len(g.succ[i]) == 0 }

// DirectlyFollows reports whether there is an edge from node a to node b.
func (g *Graph) DirectlyFollows(a, b int) bool {
	return slices.Contains(g.succ[a], b)
}

// Reaches reports whether a non-empty path leads from node a to node b.
func (g *Graph) Reaches(a, b int) bool {
	g.closureOnce.Do(g.computeClosure)
	return g.closure[a][b]
}

// Concurrent reports whether a and b are distinct nodes with no path
// between them in either direction.
func (g *Graph) Concurrent(a, b int) bool {
	return a != b && !g.Reaches(a, b) && !g.Reaches(b, a)
}

func (g *Graph) computeClosure() {
	g.closure = make([][]bool, len(g.nodes))
	for i := range g.nodes {
		row := make([]bool, len(g.nodes))
		g.Walk(i, BreadthFirst, func(n int) bool {
			row[n] = true
			return true
		})
		g.closure[i] = row
	}
}

// Walk visits every node reachable from start through at least one edge,
// in the given order. The start node itself is not visited. Returning
// false from visit stops the walk.
func (g *Graph) Walk(start int, order Order, visit func(int) bool) {
	seen := make([]bool, len(g.nodes))
	frontier := slices.Clone(g.succ[start])
	for len(frontier) > 0 {
		var n int
		if order == DepthFirst {
			n = frontier[len(frontier)-1]
			frontier = frontier[:len(frontier)-1]
		} else {
			n = frontier[0]
			frontier = frontier[1:]
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		if !visit(n) {
			return
		}
		frontier = append(frontier, g.succ[n]...)
	}
}

type graphDoc struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// MarshalJSON encodes the graph as {"nodes": [...], "edges": [...]}.
func (g *Graph) MarshalJSON() ([]byte, error) {
	doc := graphDoc{Nodes: g.nodes, Edges: g.edges}
	if doc.Nodes == nil {
		doc.Nodes = []Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []Edge{}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes and validates the form written by MarshalJSON.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var doc graphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return g.init(doc.Nodes, doc.Edges)
}
