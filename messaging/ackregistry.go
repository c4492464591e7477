// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package messaging

import "sync"

// set represents a set of instance ids.
type set = map[string]struct{}

// AckRegistry is the global-ack registry of §5: a set-valued monotonic
// register with broadcast/snapshot operations, shared by every actor on a
// node. All its methods are safe for concurrent use by multiple goroutines.
// Adapted from the teacher's Tracker, generalized from two fixed roles
// (coordinator/worker) to one open set of instance ids.
type AckRegistry struct {
	mu   sync.RWMutex // protects acked
	acked set         // ids that have broadcast their root-ack
}

// NewAckRegistry creates an empty registry.
func NewAckRegistry() *AckRegistry {
	return &AckRegistry{acked: make(set)}
}

// Broadcast atomically adds id to the registry. Monotonic: once added, an
// id is never removed.
func (r *AckRegistry) Broadcast(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acked[id] = struct{}{}
}

// Snapshot returns a copy of the currently-acked id set.
func (r *AckRegistry) Snapshot() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]struct{}, len(r.acked))
	for id := range r.acked {
		out[id] = struct{}{}
	}
	return out
}

// Quiescent reports whether every id in goalBearing has broadcast its
// root-ack, i.e. global_acks ⊇ goal_bearing_instances (§4.3 termination).
func (r *AckRegistry) Quiescent(goalBearing []string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range goalBearing {
		if _, ok := r.acked[id]; !ok {
			return false
		}
	}
	return true
}
