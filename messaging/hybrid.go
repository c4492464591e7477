// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package messaging

import (
	"sync"

	"github.com/coatyio/reconplan/goal"
)

// HybridMessaging composes a local MailboxMessaging and a remote
// Messaging, partitioning send targets by locality, per §6.3's "a hybrid
// composes both" and grounded on
// original_source/ballet/planner/communication/constraint_message.py's
// HybridMessaging, which performs the same local/remote partitioning.
type HybridMessaging struct {
	local  *MailboxMessaging
	remote Messaging

	mu        sync.RWMutex
	localSide map[string]struct{} // instance ids known to be local

	Stats Stats
}

// Stats tracks per-kind send counts for observability, reintroduced from
// original_source's n_local_send/n_remote_send counters (not present in
// spec.md, which only names the hybrid's existence).
type Stats struct {
	mu          sync.Mutex
	LocalSends  int
	RemoteSends int
}

func (s *Stats) addLocal(n int)  { s.mu.Lock(); s.LocalSends += n; s.mu.Unlock() }
func (s *Stats) addRemote(n int) { s.mu.Lock(); s.RemoteSends += n; s.mu.Unlock() }

// NewHybridMessaging builds a hybrid over local (co-located instance ids)
// and remote. local and remote must share the same AckRegistry (construct
// MailboxMessaging and RemoteMessaging from one shared registry) so that
// root-acks broadcast on either side are visible through GetGlobalAcks.
func NewHybridMessaging(local *MailboxMessaging, remote Messaging, localInstances []string) *HybridMessaging {
	h := &HybridMessaging{local: local, remote: remote, localSide: make(map[string]struct{}, len(localInstances))}
	for _, id := range localInstances {
		h.localSide[id] = struct{}{}
	}
	return h
}

func (h *HybridMessaging) isLocal(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.localSide[id]
	return ok
}

func (h *HybridMessaging) GetMessages(self string) ([]ConstraintMsg, error) {
	local, err := h.local.GetMessages(self)
	if err != nil {
		return nil, err
	}
	remote, err := h.remote.GetMessages(self)
	if err != nil {
		return nil, err
	}
	return append(local, remote...), nil
}

func (h *HybridMessaging) SendMessages(self string, round uint, targets map[string][]goal.Constraint) error {
	localTargets := make(map[string][]goal.Constraint)
	remoteTargets := make(map[string][]goal.Constraint)
	var nLocal, nRemote int
	for target, cs := range targets {
		if h.isLocal(target) {
			localTargets[target] = cs
			nLocal += len(cs)
		} else {
			remoteTargets[target] = cs
			nRemote += len(cs)
		}
	}
	h.Stats.addLocal(nLocal)
	h.Stats.addRemote(nRemote)
	if len(localTargets) > 0 {
		if err := h.local.SendMessages(self, round, localTargets); err != nil {
			return err
		}
	}
	if len(remoteTargets) > 0 {
		return h.remote.SendMessages(self, round, remoteTargets)
	}
	return nil
}

func (h *HybridMessaging) GetAcks(self string) ([]string, error) {
	local, err := h.local.GetAcks(self)
	if err != nil {
		return nil, err
	}
	remote, err := h.remote.GetAcks(self)
	if err != nil {
		return nil, err
	}
	return append(local, remote...), nil
}

func (h *HybridMessaging) SendAcks(self string, targets []string) error {
	var localTargets, remoteTargets []string
	for _, t := range targets {
		if h.isLocal(t) {
			localTargets = append(localTargets, t)
		} else {
			remoteTargets = append(remoteTargets, t)
		}
	}
	if len(localTargets) > 0 {
		if err := h.local.SendAcks(self, localTargets); err != nil {
			return err
		}
	}
	if len(remoteTargets) > 0 {
		return h.remote.SendAcks(self, remoteTargets)
	}
	return nil
}

func (h *HybridMessaging) BcastRootAcks(self string) error {
	if err := h.local.BcastRootAcks(self); err != nil {
		return err
	}
	return h.remote.BcastRootAcks(self)
}

func (h *HybridMessaging) GetGlobalAcks() (map[string]struct{}, error) {
	return h.remote.GetGlobalAcks()
}
