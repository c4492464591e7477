// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package messaging

import (
	"sync"

	"github.com/coatyio/reconplan/goal"
)

// MailboxMessaging is the in-process Messaging implementation of §6.3, for
// instances co-located on the same node. Delivery is immediate (no network
// hop); inboxes are guarded maps, in the style of the teacher's Tracker.
type MailboxMessaging struct {
	mu        sync.Mutex
	inbox     map[string][]ConstraintMsg
	ackInbox  map[string][]string
	registry  *AckRegistry
}

// NewMailboxMessaging creates an empty in-process mailbox sharing registry
// as its global-ack registry.
func NewMailboxMessaging(registry *AckRegistry) *MailboxMessaging {
	return &MailboxMessaging{
		inbox:    make(map[string][]ConstraintMsg),
		ackInbox: make(map[string][]string),
		registry: registry,
	}
}

func (m *MailboxMessaging) GetMessages(self string) ([]ConstraintMsg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.inbox[self]
	delete(m.inbox, self)
	return msgs, nil
}

func (m *MailboxMessaging) SendMessages(self string, round uint, targets map[string][]goal.Constraint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for target, constraints := range targets {
		for _, c := range constraints {
			m.inbox[target] = append(m.inbox[target], ConstraintMsg{Source: self, Round: round, Constraint: c})
		}
	}
	return nil
}

func (m *MailboxMessaging) GetAcks(self string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acks := m.ackInbox[self]
	delete(m.ackInbox, self)
	return acks, nil
}

func (m *MailboxMessaging) SendAcks(self string, targets []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range targets {
		m.ackInbox[t] = append(m.ackInbox[t], self)
	}
	return nil
}

func (m *MailboxMessaging) BcastRootAcks(self string) error {
	m.registry.Broadcast(self)
	return nil
}

func (m *MailboxMessaging) GetGlobalAcks() (map[string]struct{}, error) {
	return m.registry.Snapshot(), nil
}
