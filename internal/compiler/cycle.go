package compiler

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/contractum/internal/ir"
)

// CompileOrder returns the labels of all interfaces under the top-level
// `interface` field, ordered so that every parent referenced by name in
// `inherits` precedes its children.
//
// Name references form a dependency graph; a strongly connected component
// with more than one node, or a self-loop, is an inheritance cycle and is
// reported as a CompileError. Parents given as ids are not part of the
// graph.
func CompileOrder(root cue.Value) ([]string, error) {
	graph, positions, err := buildInheritanceGraph(root)
	if err != nil {
		return nil, err
	}

	var order []string
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			path := reconstructCyclePath(scc, graph)
			return nil, &CompileError{
				Field:   "inherits",
				Message: fmt.Sprintf("inheritance cycle: %s", strings.Join(path, " → ")),
				Pos:     positions[scc[0]],
			}
		}
		order = append(order, scc[0])
	}
	return order, nil
}

// CompileAll compiles every interface under the top-level `interface` field
// in CompileOrder, resolving parents referenced by name. It stops at the
// first error.
func CompileAll(root cue.Value) ([]*ir.Interface, error) {
	order, err := CompileOrder(root)
	if err != nil {
		return nil, err
	}
	known := make(map[string]ir.IfaceID, len(order))
	out := make([]*ir.Interface, 0, len(order))
	for _, label := range order {
		iface, err := CompileInterface(root.LookupPath(cue.MakePath(cue.Str("interface"), cue.Str(label))), known)
		if err != nil {
			return nil, err
		}
		known[label] = iface.ID()
		out = append(out, iface)
	}
	return out, nil
}

// inheritanceGraph maps interface label → labels of parents named in
// `inherits`. Every node has a (possibly empty) entry.
type inheritanceGraph map[string][]string

func buildInheritanceGraph(root cue.Value) (inheritanceGraph, map[string]token.Pos, error) {
	graph := make(inheritanceGraph)
	positions := make(map[string]token.Pos)

	val := root.LookupPath(cue.ParsePath("interface"))
	if !val.Exists() {
		return graph, positions, nil
	}
	iter, err := val.Fields()
	if err != nil {
		return nil, nil, formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Label()
		graph[label] = []string{}
		positions[label] = iter.Value().Pos()

		inherits := iter.Value().LookupPath(cue.ParsePath("inherits"))
		if !inherits.Exists() {
			continue
		}
		parents, err := stringList(inherits)
		if err != nil {
			return nil, nil, err
		}
		for _, parent := range parents {
			if _, err := ir.ParseIfaceID(parent); err == nil {
				continue
			}
			graph[label] = append(graph[label], parent)
		}
	}

	// Unknown names stay out of the graph; CompileInterface reports them.
	for label, parents := range graph {
		graph[label] = slices.DeleteFunc(parents, func(p string) bool {
			_, ok := graph[p]
			return !ok
		})
		slices.Sort(graph[label])
	}
	return graph, positions, nil
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph inheritanceGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Components are emitted after every component reachable from them, so with
// child → parent edges parents come first. Nodes and edges are visited in
// sorted order, which makes the result deterministic.
func tarjanSCC(graph inheritanceGraph) [][]string {
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
		// Set the depth index for v
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		// Consider successors of v
		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
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

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []string, graph inheritanceGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
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
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
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
