// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package lifecycle

import "sort"

// Skip is the distinguished no-op input appended to every reduced automaton;
// it pads solver words to the bounded length W (§4.2).
const Skip = "skip"

// absent is the sentinel destination recorded whenever delta(state,input) is
// undefined (encoded as ⊥ in §4.1).
const absent = ""

// Automaton is the deterministic (states x inputs -> state, cost) structure
// produced by reducing a ComponentType's place/behavior graph (§4.1).
type Automaton struct {
	States []string
	Inputs []string // behavior labels leaving a pivot, sorted by name, then Skip

	delta map[string]map[string]string
	cost  map[string]map[string]uint
}

// Delta returns the destination state for (state, input), or ("", false) if
// the transition is undefined (the ⊥ sentinel).
func (a *Automaton) Delta(state, input string) (string, bool) {
	m, ok := a.delta[state]
	if !ok {
		return absent, false
	}
	dst, ok := m[input]
	if !ok || dst == absent {
		return absent, false
	}
	return dst, true
}

// Cost returns kappa(state, input); it is 0 for undefined transitions.
func (a *Automaton) Cost(state, input string) uint {
	m, ok := a.cost[state]
	if !ok {
		return 0
	}
	return m[input]
}

// Build reduces a ComponentType into its Automaton, following the three
// passes of §4.1: raw automaton, pivot reduction, skip/absent completion.
func Build(t *ComponentType) (*Automaton, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	rawDelta, bhvIn, bhvOut, cost := rawAutomaton(t)
	states, inputs, transit, rcost := reduce(t, rawDelta, bhvIn, bhvOut, cost)
	return complete(states, inputs, transit, rcost), nil
}

// rawAutomaton builds raw_delta, bhv_in, bhv_out and the per-(place,behavior)
// maximum transition cost, as described in §4.1 pass 1.
func rawAutomaton(t *ComponentType) (
	rawDelta map[string]map[string][]string,
	bhvIn map[string][]string,
	bhvOut map[string][]string,
	cost map[[2]string]uint,
) {
	rawDelta = make(map[string]map[string][]string, len(t.Places))
	bhvIn = make(map[string][]string, len(t.Places))
	bhvOut = make(map[string][]string, len(t.Places))
	cost = make(map[[2]string]uint)

	for _, p := range t.Places {
		rawDelta[p] = make(map[string][]string)
	}

	for _, b := range t.Behaviors {
		for _, tr := range b.Transitions {
			rawDelta[tr.Src][b.Name] = append(rawDelta[tr.Src][b.Name], tr.Dst)
			key := [2]string{tr.Src, b.Name}
			if tr.Cost > cost[key] {
				cost[key] = tr.Cost // edges sharing a label collapse by maximum, deliberately
			}
			bhvOut[tr.Src] = appendIfAbsent(bhvOut[tr.Src], b.Name)
			bhvIn[tr.Dst] = appendIfAbsent(bhvIn[tr.Dst], b.Name)
		}
	}
	return
}

// reduce identifies pivot places and collapses deterministic chains between
// them into single labelled edges, per §4.1 pass 2.
func reduce(
	t *ComponentType,
	rawDelta map[string]map[string][]string,
	bhvIn, bhvOut map[string][]string,
	cost map[[2]string]uint,
) (states []string, inputs []string, transit map[string]map[string]string, rcost map[[2]string]uint) {
	pivots := make(map[string]struct{})
	for _, p := range t.Places {
		if len(bhvIn[p]) == 0 || len(difference(bhvOut[p], bhvIn[p])) != 0 {
			pivots[p] = struct{}{}
		}
	}

	reached := make(map[string]struct{})
	transit = make(map[string]map[string]string)
	rcost = make(map[[2]string]uint)
	inputSet := make(map[string]struct{})

	for p := range pivots {
		reached[p] = struct{}{}
		if transit[p] == nil {
			transit[p] = make(map[string]string)
		}
		for _, label := range bhvOut[p] {
			inputSet[label] = struct{}{}
			curr := p
			var acc uint
			for {
				targets := rawDelta[curr][label]
				if len(targets) == 0 {
					break // chain dead-ends before reaching another pivot
				}
				acc += cost[[2]string{curr, label}]
				curr = targets[0] // deterministic by construction after reduction
				if _, isPivot := pivots[curr]; isPivot {
					break
				}
			}
			transit[p][label] = curr
			rcost[[2]string{p, label}] = acc
			reached[curr] = struct{}{}
		}
	}

	for p := range reached {
		states = append(states, p)
	}
	sort.Strings(states)
	for label := range inputSet {
		inputs = append(inputs, label)
	}
	sort.Strings(inputs)
	return
}

// complete adds the Skip self-loop to every state and fills in the ⊥
// sentinel for undefined transitions, per §4.1 pass 3.
func complete(states, inputs []string, transit map[string]map[string]string, cost map[[2]string]uint) *Automaton {
	a := &Automaton{
		States: states,
		Inputs: append(append([]string{}, inputs...), Skip),
		delta:  make(map[string]map[string]string, len(states)),
		cost:   make(map[string]map[string]uint, len(states)),
	}
	for _, s := range states {
		a.delta[s] = make(map[string]string, len(a.Inputs))
		a.cost[s] = make(map[string]uint, len(a.Inputs))
		for _, in := range inputs {
			if dst, ok := transit[s][in]; ok {
				a.delta[s][in] = dst
				a.cost[s][in] = cost[[2]string{s, in}]
			} else {
				a.delta[s][in] = absent
			}
		}
		a.delta[s][Skip] = s
		a.cost[s][Skip] = 0
	}
	return a
}

func appendIfAbsent(s []string, v string) []string {
	for _, e := range s {
		if e == v {
			return s
		}
	}
	return append(s, v)
}

// difference returns the elements of a not present in b.
func difference(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, v := range b {
		in[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := in[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
