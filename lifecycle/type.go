// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package lifecycle models a component type's place-transition lifecycle and
// reduces it to a deterministic automaton consumed by the constraint solver.
package lifecycle

import (
	"fmt"

	"github.com/coatyio/reconplan/errs"
)

// PortDirection distinguishes the two port directions of §3.
type PortDirection int

const (
	// Use marks a port that consumes a service a peer provides.
	Use PortDirection = iota
	// Provide marks a port that offers a service to peers.
	Provide
)

func (d PortDirection) String() string {
	if d == Provide {
		return "provide"
	}
	return "use"
}

// Transition is one edge (src_place, dst_place, cost>=0) of a behavior.
type Transition struct {
	Src  string
	Dst  string
	Cost uint
}

// Behavior is a named set of transitions on one component type.
type Behavior struct {
	Name        string
	Transitions []Transition
}

// Port is a typed directional interface bound to a subset of places. The
// port is active exactly when the instance's current place lies in Binding.
type Port struct {
	Name      string
	Direction PortDirection
	Binding   map[string]struct{}
}

// Bound reports whether place is in the port's binding.
func (p Port) Bound(place string) bool {
	_, ok := p.Binding[place]
	return ok
}

// ComponentType is a named descriptor of a component's places, behaviors and
// ports, as described by §3.
type ComponentType struct {
	Name    string
	Places  []string // ordered, includes Initial and, if present, Running
	Initial string
	Running string // "" if the type declares no running place
	Behaviors []Behavior
	Ports     []Port
}

// HasPlace reports whether name is one of the type's declared places.
func (t *ComponentType) HasPlace(name string) bool {
	for _, p := range t.Places {
		if p == name {
			return true
		}
	}
	return false
}

// BehaviorByName looks up a declared behavior, or (Behavior{}, false).
func (t *ComponentType) BehaviorByName(name string) (Behavior, bool) {
	for _, b := range t.Behaviors {
		if b.Name == name {
			return b, true
		}
	}
	return Behavior{}, false
}

// PortByName looks up a declared port, or (nil, false).
func (t *ComponentType) PortByName(name string) (*Port, bool) {
	for i := range t.Ports {
		if t.Ports[i].Name == name {
			return &t.Ports[i], true
		}
	}
	return nil, false
}

// Validate enforces the MalformedType invariants of §7: transitions and port
// bindings must reference declared places, and an initial place must exist.
func (t *ComponentType) Validate() error {
	if t.Initial == "" {
		return &errs.MalformedType{Type: t.Name, Reason: "no initial place"}
	}
	if !t.HasPlace(t.Initial) {
		return &errs.MalformedType{Type: t.Name, Reason: fmt.Sprintf("initial place %q not declared", t.Initial)}
	}
	if t.Running != "" && !t.HasPlace(t.Running) {
		return &errs.MalformedType{Type: t.Name, Reason: fmt.Sprintf("running place %q not declared", t.Running)}
	}
	for _, b := range t.Behaviors {
		for _, tr := range b.Transitions {
			if !t.HasPlace(tr.Src) {
				return &errs.MalformedType{Type: t.Name, Reason: fmt.Sprintf("behavior %s references unknown source place %q", b.Name, tr.Src)}
			}
			if !t.HasPlace(tr.Dst) {
				return &errs.MalformedType{Type: t.Name, Reason: fmt.Sprintf("behavior %s references unknown destination place %q", b.Name, tr.Dst)}
			}
		}
	}
	for _, p := range t.Ports {
		for place := range p.Binding {
			if !t.HasPlace(place) {
				return &errs.MalformedType{Type: t.Name, Reason: fmt.Sprintf("port %s bound to unknown place %q", p.Name, place)}
			}
		}
	}
	return nil
}
