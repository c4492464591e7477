// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package config loads the JSON file formats accepted by cmd/planner: a
// component-type/assembly description (§3) and a per-instance goal set
// (§3's ReconfigurationGoal). JSON is the teacher's own wire format for
// dda event payloads; reusing it for planner input files keeps one
// serialization idiom across the repository rather than introducing a
// second one (see DESIGN.md).
package config

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/coatyio/reconplan/assembly"
	"github.com/coatyio/reconplan/goal"
	"github.com/coatyio/reconplan/lifecycle"
)

// portDTO is the JSON shape of a lifecycle.Port: Direction and Binding are
// spelled as a string and a slice in files, rather than lifecycle's internal
// PortDirection int and map[string]struct{}.
type portDTO struct {
	Name      string   `json:"name"`
	Direction string   `json:"direction"` // "use" or "provide"
	Binding   []string `json:"binding"`
}

type transitionDTO struct {
	Src  string `json:"src"`
	Dst  string `json:"dst"`
	Cost uint   `json:"cost"`
}

type behaviorDTO struct {
	Name        string          `json:"name"`
	Transitions []transitionDTO `json:"transitions"`
}

type typeDTO struct {
	Name      string        `json:"name"`
	Places    []string      `json:"places"`
	Initial   string        `json:"initial"`
	Running   string        `json:"running,omitempty"`
	Behaviors []behaviorDTO `json:"behaviors"`
	Ports     []portDTO     `json:"ports"`
}

type instanceDTO struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Active string `json:"active"`
}

type connectionDTO struct {
	A    string `json:"a"`
	PortA string `json:"port_a"`
	B    string `json:"b"`
	PortB string `json:"port_b"`
}

// assemblyDTO is the on-disk shape of an assembly file: the component types
// it uses, its instances, and their port connections.
type assemblyDTO struct {
	Types       []typeDTO       `json:"types"`
	Instances   []instanceDTO   `json:"instances"`
	Connections []connectionDTO `json:"connections"`
}

// Assembly parses an assembly file into a *lifecycle.ComponentType set
// (registered by name for reuse, e.g. when the caller also needs the types
// to build a target assembly) and the resulting *assembly.Assembly.
func Assembly(r io.Reader) (*assembly.Assembly, map[string]*lifecycle.ComponentType, error) {
	var dto assemblyDTO
	if err := json.NewDecoder(r).Decode(&dto); err != nil {
		return nil, nil, fmt.Errorf("decode assembly file: %w", err)
	}

	types := make(map[string]*lifecycle.ComponentType, len(dto.Types))
	for _, td := range dto.Types {
		typ, err := toComponentType(td)
		if err != nil {
			return nil, nil, err
		}
		if err := typ.Validate(); err != nil {
			return nil, nil, err
		}
		types[typ.Name] = typ
	}

	a := assembly.New()
	for _, id := range dto.Instances {
		typ, ok := types[id.Type]
		if !ok {
			return nil, nil, fmt.Errorf("instance %s references undeclared type %q", id.ID, id.Type)
		}
		a.AddInstance(assembly.NewInstance(id.ID, typ, id.Active))
	}
	for _, c := range dto.Connections {
		if err := a.Connect(c.A, c.PortA, c.B, c.PortB); err != nil {
			return nil, nil, fmt.Errorf("connection %s.%s-%s.%s: %w", c.A, c.PortA, c.B, c.PortB, err)
		}
	}
	return a, types, nil
}

func toComponentType(td typeDTO) (*lifecycle.ComponentType, error) {
	behaviors := make([]lifecycle.Behavior, 0, len(td.Behaviors))
	for _, bd := range td.Behaviors {
		transitions := make([]lifecycle.Transition, 0, len(bd.Transitions))
		for _, trd := range bd.Transitions {
			transitions = append(transitions, lifecycle.Transition{Src: trd.Src, Dst: trd.Dst, Cost: trd.Cost})
		}
		behaviors = append(behaviors, lifecycle.Behavior{Name: bd.Name, Transitions: transitions})
	}

	ports := make([]lifecycle.Port, 0, len(td.Ports))
	for _, pd := range td.Ports {
		dir, err := toDirection(pd.Direction)
		if err != nil {
			return nil, fmt.Errorf("type %s port %s: %w", td.Name, pd.Name, err)
		}
		binding := make(map[string]struct{}, len(pd.Binding))
		for _, place := range pd.Binding {
			binding[place] = struct{}{}
		}
		ports = append(ports, lifecycle.Port{Name: pd.Name, Direction: dir, Binding: binding})
	}

	return &lifecycle.ComponentType{
		Name:      td.Name,
		Places:    td.Places,
		Initial:   td.Initial,
		Running:   td.Running,
		Behaviors: behaviors,
		Ports:     ports,
	}, nil
}

func toDirection(s string) (lifecycle.PortDirection, error) {
	switch s {
	case "use":
		return lifecycle.Use, nil
	case "provide":
		return lifecycle.Provide, nil
	default:
		return 0, fmt.Errorf("unknown port direction %q (want \"use\" or \"provide\")", s)
	}
}

// goalDTO is the JSON shape of one goal.Goal entry.
type goalDTO struct {
	Kind   string `json:"kind"` // "behavior", "state", or "port"
	Name   string `json:"name"`
	Enable bool   `json:"enable,omitempty"` // meaningful only for kind=="port"
	Final  bool   `json:"final"`
}

// Goals parses a goal file into the per-instance goal map Resolve expects,
// keyed by instance id. State goal names are passed through verbatim here
// ("start"/"initial"/"running" included) — §6.2's place-reference
// promotion happens in driver.Resolve, which has the *assembly.Instance
// each goal needs promoting against.
func Goals(r io.Reader) (map[string][]goal.Goal, error) {
	var dto map[string][]goalDTO
	if err := json.NewDecoder(r).Decode(&dto); err != nil {
		return nil, fmt.Errorf("decode goals file: %w", err)
	}

	out := make(map[string][]goal.Goal, len(dto))
	for instance, gds := range dto {
		goals := make([]goal.Goal, 0, len(gds))
		for _, gd := range gds {
			switch gd.Kind {
			case "behavior":
				goals = append(goals, goal.BehaviorGoal(gd.Name, gd.Final))
			case "state":
				goals = append(goals, goal.StateGoal(gd.Name, gd.Final))
			case "port":
				goals = append(goals, goal.PortGoal(gd.Name, gd.Enable, gd.Final))
			default:
				return nil, fmt.Errorf("instance %s: unknown goal kind %q", instance, gd.Kind)
			}
		}
		out[instance] = goals
	}
	return out, nil
}
