// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package messaging implements the Messaging façade of §6.3: the abstract
// contract planner-node actors use to exchange port constraints and acks,
// plus two concrete transports (in-process mailbox, dda-backed remote) and
// a hybrid composer that partitions recipients by locality.
package messaging

import "github.com/coatyio/reconplan/goal"

// ConstraintMsg is one (source, round, constraint) message of §6.3.
type ConstraintMsg struct {
	Source     string
	Round      uint
	Constraint goal.Constraint
}

// Messaging is the façade every PlannerNode actor is built against. All
// methods must be safe for concurrent use by any actor (§5).
type Messaging interface {
	// GetMessages atomically drains self's constraint inbox. Non-blocking.
	GetMessages(self string) ([]ConstraintMsg, error)
	// SendMessages best-effort delivers constraints to their targets,
	// preserving per-(source,target) round order.
	SendMessages(self string, round uint, targets map[string][]goal.Constraint) error
	// GetAcks atomically drains self's ack inbox.
	GetAcks(self string) ([]string, error)
	// SendAcks best-effort delivers acks to their targets.
	SendAcks(self string, targets []string) error
	// BcastRootAcks atomically adds self to the global-ack registry.
	BcastRootAcks(self string) error
	// GetGlobalAcks returns a monotonic snapshot of the global-ack registry.
	GetGlobalAcks() (map[string]struct{}, error)
}
