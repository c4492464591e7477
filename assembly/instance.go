// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package assembly holds the data model of §3: component instances, their
// port-level connections, and the assembly (system) they form.
package assembly

import (
	"fmt"
	"sort"

	"github.com/coatyio/reconplan/errs"
	"github.com/coatyio/reconplan/lifecycle"
)

// PeerRef identifies one endpoint of a port connection by identifier only;
// instances never hold references to peer instances (§9).
type PeerRef struct {
	InstanceID string
	Port       string
}

// Instance is a ComponentInstance of §3: a globally-unique id, its type, the
// current active place, and the per-port connection sets.
type Instance struct {
	id     string
	typ    *lifecycle.ComponentType
	active string

	connections map[string]map[PeerRef]struct{} // local port -> peers
	reverse     map[PeerRef]string              // (peerID, peerPort) -> local port
}

// NewInstance creates an instance of typ, identified by id, starting at
// activePlace.
func NewInstance(id string, typ *lifecycle.ComponentType, activePlace string) *Instance {
	return &Instance{
		id:          id,
		typ:         typ,
		active:      activePlace,
		connections: make(map[string]map[PeerRef]struct{}),
		reverse:     make(map[PeerRef]string),
	}
}

// ID returns the instance's globally-unique identifier.
func (i *Instance) ID() string { return i.id }

// Type returns the instance's component type.
func (i *Instance) Type() *lifecycle.ComponentType { return i.typ }

// Active returns the instance's current place.
func (i *Instance) Active() string { return i.active }

// SetActive updates the instance's current place.
func (i *Instance) SetActive(place string) { i.active = place }

// PortActive reports whether port is active given the instance's current
// place, i.e. whether active lies in the port's binding.
func (i *Instance) PortActive(port string) bool {
	p, ok := i.typ.PortByName(port)
	if !ok {
		return false
	}
	return p.Bound(i.active)
}

// Connections returns the peers connected to local port, in stable order.
func (i *Instance) Connections(port string) []PeerRef {
	peers := i.connections[port]
	out := make([]PeerRef, 0, len(peers))
	for p := range peers {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].InstanceID != out[b].InstanceID {
			return out[a].InstanceID < out[b].InstanceID
		}
		return out[a].Port < out[b].Port
	})
	return out
}

// ExternalPortConnection resolves a peer (peerID, peerPort) pair to the local
// port name it is bound to, via the reverse index of §3.
func (i *Instance) ExternalPortConnection(peerID, peerPort string) (string, bool) {
	local, ok := i.reverse[PeerRef{InstanceID: peerID, Port: peerPort}]
	return local, ok
}

// Neighbors returns the set of distinct peer instance ids this instance is
// connected to, across all ports, in stable order.
func (i *Instance) Neighbors() []string {
	seen := make(map[string]struct{})
	for _, peers := range i.connections {
		for p := range peers {
			seen[p.InstanceID] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// addConnection records one directed half of a port connection, enforcing
// the use-port cardinality invariant of §3 (at most one peer).
func (i *Instance) addConnection(localPort string, peer PeerRef) error {
	p, ok := i.typ.PortByName(localPort)
	if !ok {
		return &errs.MalformedType{Type: i.typ.Name, Reason: fmt.Sprintf("unknown port %q", localPort)}
	}
	if p.Direction == lifecycle.Use && len(i.connections[localPort]) >= 1 {
		for existing := range i.connections[localPort] {
			if existing != peer {
				return fmt.Errorf("use-port %s.%s already connected to %s.%s", i.id, localPort, existing.InstanceID, existing.Port)
			}
		}
	}
	if i.connections[localPort] == nil {
		i.connections[localPort] = make(map[PeerRef]struct{})
	}
	i.connections[localPort][peer] = struct{}{}
	i.reverse[PeerRef{InstanceID: peer.InstanceID, Port: peer.Port}] = localPort
	return nil
}

// removeConnection removes one directed half of a port connection.
func (i *Instance) removeConnection(localPort string, peer PeerRef) {
	delete(i.connections[localPort], peer)
	delete(i.reverse, PeerRef{InstanceID: peer.InstanceID, Port: peer.Port})
}
