// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package plan holds the Instruction/Plan data model (§3), the diff
// algorithm (§4.5) and the plan merger (§4.4).
package plan

import "fmt"

// Op discriminates the six Instruction variants of §3.
type Op int

const (
	Add Op = iota
	Del
	Connect
	Disconnect
	PushB
	Wait
)

func (o Op) String() string {
	switch o {
	case Add:
		return "add"
	case Del:
		return "del"
	case Connect:
		return "connect"
	case Disconnect:
		return "disconnect"
	case PushB:
		return "pushB"
	case Wait:
		return "wait"
	default:
		return "unknown"
	}
}

// Instruction is a structurally-comparable tagged union over the six
// instruction variants of §3. Only the fields relevant to Op are
// meaningful; all fields are comparable so Instruction is usable as a map
// key (equality/hash defined structurally, per §3).
type Instruction struct {
	Op Op

	// Add: ID, Type. Del: ID. PushB/Wait: ID (instance), Behavior.
	ID       string
	Type     string
	Behavior string

	// Connect/Disconnect.
	Provider      string
	ProvidingPort string
	User          string
	UsingPort     string
}

// NewAdd builds an Add(id, type) instruction.
func NewAdd(id, typ string) Instruction { return Instruction{Op: Add, ID: id, Type: typ} }

// NewDel builds a Del(id) instruction.
func NewDel(id string) Instruction { return Instruction{Op: Del, ID: id} }

// NewConnect builds a Connect(provider, providingPort, user, usingPort).
func NewConnect(provider, providingPort, user, usingPort string) Instruction {
	return Instruction{Op: Connect, Provider: provider, ProvidingPort: providingPort, User: user, UsingPort: usingPort}
}

// NewDisconnect builds a Disconnect(provider, providingPort, user, usingPort).
func NewDisconnect(provider, providingPort, user, usingPort string) Instruction {
	return Instruction{Op: Disconnect, Provider: provider, ProvidingPort: providingPort, User: user, UsingPort: usingPort}
}

// NewPushB builds a PushB(instance, behavior).
func NewPushB(instance, behavior string) Instruction {
	return Instruction{Op: PushB, ID: instance, Behavior: behavior}
}

// NewWait builds a Wait(instance, behavior).
func NewWait(instance, behavior string) Instruction {
	return Instruction{Op: Wait, ID: instance, Behavior: behavior}
}

func (i Instruction) String() string {
	switch i.Op {
	case Add:
		return fmt.Sprintf("add(%s,%s)", i.ID, i.Type)
	case Del:
		return fmt.Sprintf("del(%s)", i.ID)
	case Connect:
		return fmt.Sprintf("connect(%s.%s,%s.%s)", i.Provider, i.ProvidingPort, i.User, i.UsingPort)
	case Disconnect:
		return fmt.Sprintf("disconnect(%s.%s,%s.%s)", i.Provider, i.ProvidingPort, i.User, i.UsingPort)
	case PushB:
		return fmt.Sprintf("pushB(%s,%s)", i.ID, i.Behavior)
	case Wait:
		return fmt.Sprintf("wait(%s,%s)", i.ID, i.Behavior)
	default:
		return "?"
	}
}

// Plan is a named ordered sequence of Instructions, one per instance, per §3.
type Plan struct {
	Instance     string
	Instructions []Instruction
}
