// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package plan

import (
	"fmt"
	"sort"

	"github.com/coatyio/reconplan/errs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// vertex is one instruction occurrence: which plan it came from and its
// position within that plan's instruction sequence.
type vertex struct {
	plan  int
	index int
}

func (v vertex) id() string { return fmt.Sprintf("%d#%d", v.plan, v.index) }

// Merge fuses a set of per-instance plans into one consistent schedule, per
// §4.4: a precedence DAG with sequential intra-plan edges and
// PushB->Wait synchronisation edges, emitted by frontier-preferring
// topological order. Plans are taken in the given order; ties in vertex
// selection are broken by (plan index, instruction index) to keep the
// result deterministic.
func Merge(plans []Plan) ([]Instruction, error) {
	vertices := make([]vertex, 0)
	for pi, p := range plans {
		for ii := range p.Instructions {
			vertices = append(vertices, vertex{plan: pi, index: ii})
		}
	}

	succ := make(map[string][]string)
	indeg := make(map[string]int)
	for _, v := range vertices {
		indeg[v.id()] = 0
	}
	addEdge := func(from, to string) {
		succ[from] = append(succ[from], to)
		indeg[to]++
	}

	// Sequential intra-plan edges.
	for pi, p := range plans {
		for ii := 0; ii+1 < len(p.Instructions); ii++ {
			addEdge(vertex{pi, ii}.id(), vertex{pi, ii + 1}.id())
		}
	}

	// PushB -> Wait synchronisation edges.
	for pi, p := range plans {
		for ii, instr := range p.Instructions {
			if instr.Op != PushB {
				continue
			}
			from := vertex{pi, ii}.id()
			for pj, q := range plans {
				for jj, w := range q.Instructions {
					if w.Op == Wait && w.ID == instr.ID && w.Behavior == instr.Behavior {
						addEdge(from, vertex{pj, jj}.id())
					}
				}
			}
		}
	}

	if cyc := findCycle(vertices, succ); cyc != nil {
		return nil, &errs.CycleInMerge{Offending: cyc}
	}

	// Root set: every plan's first instruction that is not a Wait.
	var ready []string
	for pi, p := range plans {
		if len(p.Instructions) == 0 {
			continue
		}
		if p.Instructions[0].Op == Wait {
			continue
		}
		v := vertex{pi, 0}.id()
		if indeg[v] == 0 {
			ready = append(ready, v)
		}
	}
	// Any other indegree-0 vertex (e.g. a plan whose first instruction is a
	// Wait already satisfied, or additional roots) also belongs in the
	// initial frontier.
	seenReady := make(map[string]struct{}, len(ready))
	for _, r := range ready {
		seenReady[r] = struct{}{}
	}
	for _, v := range vertices {
		id := v.id()
		if indeg[id] == 0 {
			if _, ok := seenReady[id]; !ok {
				ready = append(ready, id)
				seenReady[id] = struct{}{}
			}
		}
	}
	sort.Strings(ready)

	byID := make(map[string]vertex, len(vertices))
	for _, v := range vertices {
		byID[v.id()] = v
	}

	var order []Instruction
	emitted := make(map[string]struct{}, len(vertices))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			a, b := byID[ready[i]], byID[ready[j]]
			if a.plan != b.plan {
				return a.plan < b.plan
			}
			return a.index < b.index
		})
		next := ready[0]
		ready = ready[1:]
		if _, done := emitted[next]; done {
			continue
		}
		emitted[next] = struct{}{}
		v := byID[next]
		order = append(order, plans[v.plan].Instructions[v.index])
		for _, to := range succ[next] {
			indeg[to]--
			if indeg[to] == 0 {
				ready = append(ready, to)
			}
		}
	}
	return order, nil
}

// findCycle delegates to lvlath's topological sort for cycle detection. If
// a cycle exists it returns the ids of all vertices, sorted (or the two
// endpoints of an edge lvlath rejects); the vertices on the cycle itself are
// not singled out. It returns nil otherwise.
func findCycle(vertices []vertex, succ map[string][]string) []string {
	g := core.NewGraph(core.WithDirected(true))
	for _, v := range vertices {
		_ = g.AddVertex(v.id())
	}
	for from, tos := range succ {
		for _, to := range tos {
			if _, err := g.AddEdge(from, to, 0); err != nil {
				return []string{from, to}
			}
		}
	}
	if _, err := dfs.TopologicalSort(g); err != nil {
		offending := make([]string, 0, len(vertices))
		for _, v := range vertices {
			offending = append(offending, v.id())
		}
		sort.Strings(offending)
		return offending
	}
	return nil
}
