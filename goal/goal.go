// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package goal holds the ReconfigurationGoal and PortConstraint tagged
// values of §3, plus the goal-set validity checks of §7.
package goal

import (
	"fmt"

	"github.com/coatyio/reconplan/errs"
	"github.com/coatyio/reconplan/lifecycle"
)

// Kind discriminates the three ReconfigurationGoal variants of §3.
type Kind int

const (
	// Behavior requires a named behavior to appear in the sequence.
	Behavior Kind = iota
	// State requires a named place to be visited.
	State
	// Port requires a named port to assume a requested status.
	Port
)

func (k Kind) String() string {
	switch k {
	case Behavior:
		return "behavior"
	case State:
		return "state"
	case Port:
		return "port"
	default:
		return "unknown"
	}
}

// Goal is a tagged ReconfigurationGoal attached to one instance (§3).
//
//   - BehaviorGoal(behavior, final): set Kind=Behavior, Name=behavior.
//   - StateGoal(place, final): set Kind=State, Name=place.
//   - PortGoal(port, enable, final): set Kind=Port, Name=port, Enable=enable.
type Goal struct {
	Kind   Kind
	Name   string // behavior name, place name, or port name
	Enable bool   // meaningful only for Kind==Port
	Final  bool
}

// BehaviorGoal constructs a BehaviorGoal(behavior, final).
func BehaviorGoal(behavior string, final bool) Goal {
	return Goal{Kind: Behavior, Name: behavior, Final: final}
}

// StateGoal constructs a StateGoal(place, final).
func StateGoal(place string, final bool) Goal {
	return Goal{Kind: State, Name: place, Final: final}
}

// PortGoal constructs a PortGoal(port, enable, final).
func PortGoal(port string, enable bool, final bool) Goal {
	return Goal{Kind: Port, Name: port, Enable: enable, Final: final}
}

// Constraint is a PortConstraint of §3, exchanged across nodes via the
// messaging façade, never user-supplied.
type Constraint struct {
	SourceInstance string
	LocalPort      string
	RequiredStatus bool // true = enabled
	// UntilBehavior, if non-empty, names a behavior of SourceInstance after
	// whose execution the constraint no longer applies. Empty means
	// permanent.
	UntilBehavior string
}

// Permanent reports whether the constraint has no until-behavior.
func (c Constraint) Permanent() bool { return c.UntilBehavior == "" }

// Validate checks one instance's accumulated goal set against typ for the
// §7 InvalidGoal conditions: a goal naming a behavior/port/place the
// instance's type does not declare, or a goal set that is internally
// contradictory.
func Validate(instance string, typ *lifecycle.ComponentType, goals []Goal) error {
	finalState := ""
	haveFinalState := false
	finalBehavior := ""
	haveFinalBehavior := false

	for _, g := range goals {
		switch g.Kind {
		case State:
			if !typ.HasPlace(g.Name) {
				return &errs.InvalidGoal{
					Instance: instance,
					Reason:   fmt.Sprintf("state goal names undeclared place %q", g.Name),
				}
			}
			if !g.Final {
				continue
			}
			if haveFinalState && finalState != g.Name {
				return &errs.InvalidGoal{
					Instance: instance,
					Reason:   fmt.Sprintf("contradictory final state goals: %q and %q", finalState, g.Name),
				}
			}
			finalState, haveFinalState = g.Name, true
		case Behavior:
			if _, ok := typ.BehaviorByName(g.Name); !ok {
				return &errs.InvalidGoal{
					Instance: instance,
					Reason:   fmt.Sprintf("behavior goal names undeclared behavior %q", g.Name),
				}
			}
			if !g.Final {
				continue
			}
			if haveFinalBehavior && finalBehavior != g.Name {
				return &errs.InvalidGoal{
					Instance: instance,
					Reason:   fmt.Sprintf("contradictory final behavior goals: %q and %q", finalBehavior, g.Name),
				}
			}
			finalBehavior, haveFinalBehavior = g.Name, true
		case Port:
			if _, ok := typ.PortByName(g.Name); !ok {
				return &errs.InvalidGoal{
					Instance: instance,
					Reason:   fmt.Sprintf("port goal names undeclared port %q", g.Name),
				}
			}
			// Note: contradictory final PortGoals (e.g. enabled+final vs
			// disabled+final on the same port) are deliberately NOT rejected
			// here. Scenario S5 names InfeasibleConstraint, not InvalidGoal,
			// as the expected outcome for exactly that contradiction, so it
			// is left for the solver to report once both goals reach one
			// Model (see DESIGN.md).
		}
	}
	return nil
}
