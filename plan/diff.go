// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package plan

import (
	"sort"

	"github.com/coatyio/reconplan/assembly"
	"github.com/coatyio/reconplan/lifecycle"
)

// connKey identifies one physical use/provide connection, keyed from the
// use-port side so that each connection is counted exactly once (a use-port
// has at most one peer, per §3's invariant).
type connKey struct {
	Provider, ProvidingPort string
	User, UsingPort         string
}

// Diff computes the structural add/del/connect/disconnect instructions that
// take the "in" assembly's components and connections to the "out"
// assembly's, per §4.5. Ordering within each bucket follows stable
// iteration order over instance ids (assembly.Assembly.Instances already
// returns them sorted).
func Diff(in, out *assembly.Assembly) []Instruction {
	typesIn, typesOut := componentTypes(in), componentTypes(out)
	connIn, connOut := connections(in), connections(out)

	var instrs []Instruction

	for _, id := range sortedIDs(typesOut) {
		if _, ok := typesIn[id]; !ok {
			instrs = append(instrs, NewAdd(id, typesOut[id]))
		}
	}
	for _, id := range sortedIDs(typesIn) {
		if _, ok := typesOut[id]; !ok {
			instrs = append(instrs, NewDel(id))
		}
	}
	for _, k := range sortedKeys(connOut) {
		if _, ok := connIn[k]; !ok {
			instrs = append(instrs, NewConnect(k.Provider, k.ProvidingPort, k.User, k.UsingPort))
		}
	}
	for _, k := range sortedKeys(connIn) {
		if _, ok := connOut[k]; !ok {
			instrs = append(instrs, NewDisconnect(k.Provider, k.ProvidingPort, k.User, k.UsingPort))
		}
	}
	return instrs
}

func componentTypes(a *assembly.Assembly) map[string]string {
	out := make(map[string]string)
	for _, inst := range a.Instances() {
		out[inst.ID()] = inst.Type().Name
	}
	return out
}

// connections enumerates every physical connection from the use-port side.
func connections(a *assembly.Assembly) map[connKey]struct{} {
	out := make(map[connKey]struct{})
	for _, inst := range a.Instances() {
		for _, port := range inst.Type().Ports {
			if port.Direction != lifecycle.Use {
				continue
			}
			for _, peer := range inst.Connections(port.Name) {
				out[connKey{
					Provider:      peer.InstanceID,
					ProvidingPort: peer.Port,
					User:          inst.ID(),
					UsingPort:     port.Name,
				}] = struct{}{}
			}
		}
	}
	return out
}

func sortedIDs(m map[string]string) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys(m map[connKey]struct{}) []connKey {
	keys := make([]connKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		if a.ProvidingPort != b.ProvidingPort {
			return a.ProvidingPort < b.ProvidingPort
		}
		if a.User != b.User {
			return a.User < b.User
		}
		return a.UsingPort < b.UsingPort
	})
	return keys
}

// Buckets holds a diff result split into its four named buckets, as
// scenario S4 expects.
type Buckets struct {
	Add, Del, Connect, Disconnect []Instruction
}

// Split partitions a Diff result into its four buckets.
func Split(instrs []Instruction) Buckets {
	var b Buckets
	for _, i := range instrs {
		switch i.Op {
		case Add:
			b.Add = append(b.Add, i)
		case Del:
			b.Del = append(b.Del, i)
		case Connect:
			b.Connect = append(b.Connect, i)
		case Disconnect:
			b.Disconnect = append(b.Disconnect, i)
		}
	}
	return b
}
