// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package solver compiles one instance's automaton, current place, goals
// and received port constraints into the bounded-length minimum-cost word
// problem of §4.2, and solves it as a layered dynamic program over the
// product of (place, goal-progress, wait-progress, last-action).
package solver

import "fmt"

// Kind discriminates the three input variants the solver's word can use:
// an ordinary behavior, the distinguished skip, or a synthesized wait.
type Kind int

const (
	BehaviorAction Kind = iota
	SkipAction
	WaitAction
)

// Action is one element of a solved word. Behavior-kind actions carry the
// executed behavior name; wait-kind actions carry the behavior being waited
// on plus the remote instance and local port the wait synchronises, enough
// for node.PlannerNode to translate it to plan.Wait(source, behavior).
type Action struct {
	Kind       Kind
	Behavior   string
	WaitSource string
	WaitPort   string
}

func (a Action) String() string {
	switch a.Kind {
	case SkipAction:
		return "skip"
	case WaitAction:
		return fmt.Sprintf("wait(%s,%s,%s)", a.WaitSource, a.Behavior, a.WaitPort)
	default:
		return a.Behavior
	}
}
