// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package solver

import (
	"fmt"

	"github.com/coatyio/reconplan/errs"
	"github.com/coatyio/reconplan/goal"
	"github.com/coatyio/reconplan/lifecycle"
)

// Model is the per-instance constraint model of §4.2: an automaton, the
// instance's current place, and the goals/constraints accumulated so far.
type Model struct {
	instance   string
	typ        *lifecycle.ComponentType
	auto       *lifecycle.Automaton
	initial    string
	wordLength int

	goals       []goal.Goal
	constraints []goal.Constraint
}

// NewModel builds a Model for one instance. wordLength defaults to
// |behaviors|*|states| per §4.2, overridable via SetWordLength.
func NewModel(instance string, typ *lifecycle.ComponentType, auto *lifecycle.Automaton, initialPlace string) *Model {
	w := len(typ.Behaviors) * len(auto.States)
	if w == 0 {
		w = 1
	}
	return &Model{instance: instance, typ: typ, auto: auto, initial: initialPlace, wordLength: w}
}

// SetWordLength overrides the default bound W.
func (m *Model) SetWordLength(w int) { m.wordLength = w }

// AddGoal accumulates one ReconfigurationGoal, monotonically.
func (m *Model) AddGoal(g goal.Goal) { m.goals = append(m.goals, g) }

// AddConstraint accumulates one received PortConstraint, monotonically.
func (m *Model) AddConstraint(c goal.Constraint) { m.constraints = append(m.constraints, c) }

// Trajectory is the per-port enabled/disabled status sequence of an
// inference solution, states[1..l+1] long, reported for §4.3's
// port-transition event derivation.
type Trajectory struct {
	Cost   uint
	Ports  map[string][]bool
	States []string
	// Actions is the behavior sequence that produced States/Ports, exposed
	// only so §4.3.1's port-transition events can be tagged with the
	// causing behavior; the sequence itself is never committed as a plan
	// from an inference call (§4.2).
	Actions []Action
}

// Infer solves with incoming constraints expressed only as PortGoal
// (non-final, existential) — no wait inputs are synthesized. Its purpose is
// the induced port-status trajectory (§4.2 "inference" use); the returned
// Actions exist only to tag trajectory transitions and must not be treated
// as a committed plan.
func (m *Model) Infer() (*Trajectory, error) {
	res, err := m.solve(false)
	if err != nil {
		return nil, err
	}
	return &Trajectory{Cost: res.cost, Ports: res.portTrajectory(m.typ), States: res.states, Actions: res.actions}, nil
}

// FinalPlan solves with incoming until-constraints expressed as wait
// inputs (§4.2 "final planning" use), after quiescence. The returned
// Actions have skip dropped.
func (m *Model) FinalPlan() ([]Action, error) {
	res, err := m.solve(true)
	if err != nil {
		return nil, err
	}
	return res.actions, nil
}

// cond is one existential ("some point along the run") requirement that
// must hold at least once by the time the word stops.
type cond struct {
	// placeOrPort, if non-nil, is evaluated against the place reached after
	// each step (and the initial place). behaviorName, if non-empty, is
	// evaluated against the behavior executed at each step instead.
	placeOrPort  func(place string) bool
	behaviorName string
	// desc names the goal/constraint this cond was compiled from, reported
	// in errs.InfeasibleConstraint.Conflicts when no accepting word exists.
	desc string
}

type waitSpec struct {
	source      string // C
	behavior    string // b
	port        string // local port pi
	wantEnabled bool   // required status s
	desc        string
}

// compiled is everything the layered DP needs, derived once from the
// Model's goals/constraints for one solve() call.
type compiled struct {
	conds       []cond
	waits       []waitSpec
	finalBehav  map[string]bool // behavior name -> must be last action
	finalState  string
	haveFinal   bool
	finalPorts  map[string]bool // port -> required enabled status
}

func (m *Model) compile(includeWaits bool) compiled {
	c := compiled{finalBehav: make(map[string]bool), finalPorts: make(map[string]bool)}

	for _, g := range m.goals {
		switch g.Kind {
		case goal.Behavior:
			if g.Final {
				c.finalBehav[g.Name] = true
			} else {
				name := g.Name
				c.conds = append(c.conds, cond{behaviorName: name, desc: fmt.Sprintf("behavior:%s", name)})
			}
		case goal.State:
			if g.Final {
				c.finalState = g.Name
				c.haveFinal = true
			} else {
				place := g.Name
				c.conds = append(c.conds, cond{
					placeOrPort: func(p string) bool { return p == place },
					desc:        fmt.Sprintf("state:%s", place),
				})
			}
		case goal.Port:
			port, want := g.Name, g.Enable
			if g.Final {
				if prev, seen := c.finalPorts[port]; seen && prev != want {
					// No word can end with the port in both statuses: record a
					// requirement that no step ever satisfies.
					c.conds = append(c.conds, cond{
						placeOrPort: func(string) bool { return false },
						desc:        fmt.Sprintf("final-port:%s=%v vs %v", port, prev, want),
					})
				}
				c.finalPorts[port] = want
			} else {
				c.conds = append(c.conds, cond{
					placeOrPort: func(p string) bool { return m.portBound(port, p) == want },
					desc:        fmt.Sprintf("port:%s=%v", port, want),
				})
			}
		}
	}

	for _, con := range m.constraints {
		port, want := con.LocalPort, con.RequiredStatus
		if con.Permanent() || !includeWaits {
			c.conds = append(c.conds, cond{
				placeOrPort: func(p string) bool { return m.portBound(port, p) == want },
				desc:        fmt.Sprintf("constraint:%s=%v(from %s)", port, want, con.SourceInstance),
			})
			continue
		}
		c.waits = append(c.waits, waitSpec{
			source:      con.SourceInstance,
			behavior:    con.UntilBehavior,
			port:        port,
			wantEnabled: want,
			desc:        fmt.Sprintf("wait:%s=%v(until %s.%s)", port, want, con.SourceInstance, con.UntilBehavior),
		})
	}
	return c
}

// conflicts lists every goal/constraint requirement compiled into c, for
// errs.InfeasibleConstraint.Conflicts (§7: "returned to driver with the set
// of conflicting goals"). Since infeasibility means no single word satisfies
// all of them together, every active requirement is a candidate conflict.
func (c compiled) conflicts() []string {
	out := make([]string, 0, len(c.conds)+len(c.waits)+len(c.finalBehav)+len(c.finalPorts)+1)
	for _, cnd := range c.conds {
		out = append(out, cnd.desc)
	}
	for _, w := range c.waits {
		out = append(out, w.desc)
	}
	if c.haveFinal {
		out = append(out, fmt.Sprintf("final-state:%s", c.finalState))
	}
	for b := range c.finalBehav {
		out = append(out, fmt.Sprintf("final-behavior:%s", b))
	}
	for port, want := range c.finalPorts {
		out = append(out, fmt.Sprintf("final-port:%s=%v", port, want))
	}
	return out
}

func (m *Model) portBound(port, place string) bool {
	p, ok := m.typ.PortByName(port)
	if !ok {
		return false
	}
	return p.Bound(place)
}

// dpState is one vertex of the product state space of §4.2/§9: automaton
// place, the bitmask of satisfied existential conditions and consumed
// waits, the last real action taken (frozen across trailing skips), and
// whether the word has entered its skip tail.
type dpState struct {
	place      string
	mask       uint64
	lastAction string
	tailing    bool
}

type edge struct {
	from dpState
	act  Action
	cost uint
}

type solveResult struct {
	cost    uint
	actions []Action
	states  []string
}

func (r *solveResult) portTrajectory(typ *lifecycle.ComponentType) map[string][]bool {
	out := make(map[string][]bool, len(typ.Ports))
	for _, p := range typ.Ports {
		seq := make([]bool, len(r.states))
		for i, s := range r.states {
			seq[i] = p.Bound(s)
		}
		out[p.Name] = seq
	}
	return out
}

// solve runs the layered DP described in §4.2, returning the minimum-cost
// accepting word, or errs.InfeasibleConstraint if none exists within W.
func (m *Model) solve(includeWaits bool) (*solveResult, error) {
	c := m.compile(includeWaits)
	nConds := len(c.conds)
	nWaits := len(c.waits)
	if nConds+nWaits > 62 {
		// Bitmask exhaustion is not expected for realistic goal sets; fail
		// closed rather than silently truncate coverage.
		return nil, &errs.InfeasibleConstraint{Instance: m.instance, Conflicts: c.conflicts(), WordLength: m.wordLength}
	}
	requiredMask := uint64(0)
	for i := 0; i < nConds+nWaits; i++ {
		requiredMask |= 1 << uint(i)
	}

	initMask := uint64(0)
	for i, cnd := range c.conds {
		if cnd.placeOrPort != nil && cnd.placeOrPort(m.initial) {
			initMask |= 1 << uint(i)
		}
	}
	start := dpState{place: m.initial, mask: initMask, lastAction: "", tailing: false}

	type layerT map[dpState]uint
	layers := make([]layerT, m.wordLength+1)
	layers[0] = layerT{start: 0}
	back := make([]map[dpState]edge, m.wordLength+1)
	back[0] = map[dpState]edge{}

	for l := 0; l < m.wordLength; l++ {
		next := layerT{}
		nextBack := map[dpState]edge{}
		relax := func(from dpState, baseCost uint, to dpState, act Action, stepCost uint) {
			total := baseCost + stepCost
			if cur, ok := next[to]; !ok || total < cur {
				next[to] = total
				nextBack[to] = edge{from: from, act: act, cost: stepCost}
			}
		}

		for st, cost := range layers[l] {
			if st.tailing {
				relax(st, cost, st, Action{Kind: SkipAction}, 0)
				continue
			}
			// Ordinary behaviors.
			for _, label := range m.auto.Inputs {
				if label == lifecycle.Skip {
					ns := st
					ns.tailing = true
					relax(st, cost, ns, Action{Kind: SkipAction}, 0)
					continue
				}
				dst, ok := m.auto.Delta(st.place, label)
				if !ok {
					continue
				}
				stepCost := m.auto.Cost(st.place, label)
				newMask := st.mask
				for i, cnd := range c.conds {
					if cnd.behaviorName == label {
						newMask |= 1 << uint(i)
					}
					if cnd.placeOrPort != nil && cnd.placeOrPort(dst) {
						newMask |= 1 << uint(i)
					}
				}
				ns := dpState{place: dst, mask: newMask, lastAction: label, tailing: false}
				relax(st, cost, ns, Action{Kind: BehaviorAction, Behavior: label}, stepCost)
			}
			// Wait pseudo-inputs.
			for wi, w := range c.waits {
				bit := uint64(1) << uint(nConds+wi)
				if st.mask&bit != 0 {
					continue // already consumed; count must equal exactly 1
				}
				if m.portBound(w.port, st.place) != w.wantEnabled {
					continue
				}
				ns := st
				ns.mask |= bit
				relax(st, cost, ns, Action{Kind: WaitAction, Behavior: w.behavior, WaitSource: w.source, WaitPort: w.port}, 0)
			}
		}
		layers[l+1] = next
		back[l+1] = nextBack
	}

	var best *dpState
	var bestLayer int
	var bestCost uint
	for l := 0; l <= m.wordLength; l++ {
		for st, cost := range layers[l] {
			if st.mask&requiredMask != requiredMask {
				continue
			}
			if c.haveFinal && st.place != c.finalState {
				continue
			}
			ok := true
			for b, want := range c.finalBehav {
				if want && st.lastAction != b {
					ok = false
				}
			}
			for port, want := range c.finalPorts {
				if m.portBound(port, st.place) != want {
					ok = false
				}
			}
			if !ok {
				continue
			}
			if best == nil || cost < bestCost {
				s := st
				best = &s
				bestLayer = l
				bestCost = cost
			}
		}
	}
	if best == nil {
		return nil, &errs.InfeasibleConstraint{Instance: m.instance, Conflicts: c.conflicts(), WordLength: m.wordLength}
	}

	// Reconstruct the action sequence by walking backpointers to the root,
	// then replay it forward to recover the visited-place sequence (skip
	// actions are dropped: the plan is the prefix before the first skip).
	var actions []Action
	cur := *best
	for l := bestLayer; l > 0; l-- {
		e, ok := back[l][cur]
		if !ok {
			break
		}
		if e.act.Kind != SkipAction {
			actions = append([]Action{e.act}, actions...)
		}
		cur = e.from
	}
	states := reconstructStates(m.initial, actions, m.auto)

	return &solveResult{cost: bestCost, actions: actions, states: states}, nil
}

func reconstructStates(initial string, actions []Action, auto *lifecycle.Automaton) []string {
	states := []string{initial}
	cur := initial
	for _, a := range actions {
		if a.Kind != BehaviorAction {
			states = append(states, cur)
			continue
		}
		dst, ok := auto.Delta(cur, a.Behavior)
		if !ok {
			states = append(states, cur)
			continue
		}
		cur = dst
		states = append(states, cur)
	}
	return states
}
