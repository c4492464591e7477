// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package assembly

import (
	"fmt"
	"sort"
)

// Assembly is the system of §3: a set of component instances and the
// port-level connections between them. Connections are always symmetric:
// connecting a.p to b.q records both halves atomically.
type Assembly struct {
	instances map[string]*Instance
}

// New returns an empty assembly.
func New() *Assembly {
	return &Assembly{instances: make(map[string]*Instance)}
}

// AddInstance registers inst, replacing any previous instance with the same
// id.
func (a *Assembly) AddInstance(inst *Instance) {
	a.instances[inst.ID()] = inst
}

// RemoveInstance deletes id and every connection that referenced it.
func (a *Assembly) RemoveInstance(id string) {
	delete(a.instances, id)
	for _, other := range a.instances {
		for port, peers := range other.connections {
			for peer := range peers {
				if peer.InstanceID == id {
					other.removeConnection(port, peer)
				}
			}
		}
	}
}

// Instance looks up an instance by id.
func (a *Assembly) Instance(id string) (*Instance, bool) {
	inst, ok := a.instances[id]
	return inst, ok
}

// Instances returns every instance, in stable id order.
func (a *Assembly) Instances() []*Instance {
	ids := make([]string, 0, len(a.instances))
	for id := range a.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Instance, len(ids))
	for i, id := range ids {
		out[i] = a.instances[id]
	}
	return out
}

// Connect binds instance a's port pa to instance b's port pb, symmetrically.
func (as *Assembly) Connect(a, pa, b, pb string) error {
	ia, ok := as.instances[a]
	if !ok {
		return fmt.Errorf("unknown instance %q", a)
	}
	ib, ok := as.instances[b]
	if !ok {
		return fmt.Errorf("unknown instance %q", b)
	}
	pfa, ok := ia.typ.PortByName(pa)
	if !ok {
		return fmt.Errorf("instance %s has no port %q", a, pa)
	}
	pfb, ok := ib.typ.PortByName(pb)
	if !ok {
		return fmt.Errorf("instance %s has no port %q", b, pb)
	}
	if pfa.Direction == pfb.Direction {
		return fmt.Errorf("cannot connect two %s ports (%s.%s, %s.%s)", pfa.Direction, a, pa, b, pb)
	}
	if err := ia.addConnection(pa, PeerRef{InstanceID: b, Port: pb}); err != nil {
		return err
	}
	if err := ib.addConnection(pb, PeerRef{InstanceID: a, Port: pa}); err != nil {
		ia.removeConnection(pa, PeerRef{InstanceID: b, Port: pb})
		return err
	}
	return nil
}

// Disconnect removes the (a.pa, b.pb) connection symmetrically. It is a
// no-op if the connection does not exist.
func (as *Assembly) Disconnect(a, pa, b, pb string) error {
	ia, ok := as.instances[a]
	if !ok {
		return fmt.Errorf("unknown instance %q", a)
	}
	ib, ok := as.instances[b]
	if !ok {
		return fmt.Errorf("unknown instance %q", b)
	}
	ia.removeConnection(pa, PeerRef{InstanceID: b, Port: pb})
	ib.removeConnection(pb, PeerRef{InstanceID: a, Port: pa})
	return nil
}

// PromotePlace resolves a boundary-level place reference (§6.2): "start"
// maps to the instance's current active place, "initial"/"running" map to
// the type's declared places, and anything else is returned unchanged,
// provided it names a declared place of typ.
func PromotePlace(inst *Instance, name string) (string, error) {
	typ := inst.Type()
	switch name {
	case "start":
		return inst.Active(), nil
	case "initial":
		return typ.Initial, nil
	case "running":
		if typ.Running == "" {
			return "", fmt.Errorf("type %s declares no running place", typ.Name)
		}
		return typ.Running, nil
	default:
		if !typ.HasPlace(name) {
			return "", fmt.Errorf("type %s has no place %q", typ.Name, name)
		}
		return name, nil
	}
}
