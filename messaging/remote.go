// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coatyio/dda/config"
	"github.com/coatyio/dda/dda"
	"github.com/coatyio/dda/services/com/api"
	"github.com/google/uuid"

	"github.com/coatyio/reconplan/clog"
	"github.com/coatyio/reconplan/errs"
	"github.com/coatyio/reconplan/goal"
)

const (
	eventTypeConstraint = "reconplan.constraint"
	eventTypeAck         = "reconplan.ack"
	eventTypeRootAck     = "reconplan.rootack"
)

// wireConstraint is the JSON payload carried by a constraint event.
type wireConstraint struct {
	Source string          `json:"source"`
	Round  uint            `json:"round"`
	Target string          `json:"target"`
	C      goal.Constraint `json:"constraint"`
}

// RemoteMessaging is the dda-backed transport of §6.3, for instances hosted
// on different nodes. It uses coatyio/dda in library mode (mirroring the
// teacher's Worker, which talks to its local dda instance directly rather
// than through a gRPC sidecar), publishing/subscribing plain events rather
// than request/response actions since every Messaging operation is
// best-effort fire-and-forget. Publish failures are retried with
// exponential backoff before being surfaced as errs.MessagingError.
type RemoteMessaging struct {
	*clog.CLogger
	dda      *dda.Dda
	registry *AckRegistry

	mu       sync.Mutex
	inbox    map[string][]ConstraintMsg
	ackInbox map[string][]string
}

// NewRemoteMessaging opens a dda instance against brokerURL and begins
// listening for constraint/ack/root-ack events.
func NewRemoteMessaging(ctx context.Context, brokerURL string, registry *AckRegistry) (*RemoteMessaging, error) {
	cfg := config.New()
	cfg.Services.Com.Url = brokerURL
	cfg.Identity.Name = "reconplan"
	cfg.Identity.Id = uuid.NewString()
	cfg.Apis.Grpc.Disabled = true
	cfg.Apis.GrpcWeb.Disabled = true

	d, err := dda.New(cfg)
	if err != nil {
		return nil, &errs.MessagingError{Op: "dda.New", Err: err}
	}
	if err := d.Open(0); err != nil {
		return nil, &errs.MessagingError{Op: "dda.Open", Err: err}
	}

	r := &RemoteMessaging{
		CLogger:  clog.New("remote %s ", cfg.Identity.Id),
		dda:      d,
		registry: registry,
		inbox:    make(map[string][]ConstraintMsg),
		ackInbox: make(map[string][]string),
	}
	if err := r.listen(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RemoteMessaging) listen(ctx context.Context) error {
	constraints, err := r.dda.SubscribeEvent(ctx, api.SubscriptionFilter{Type: eventTypeConstraint})
	if err != nil {
		return &errs.MessagingError{Op: "SubscribeEvent(constraint)", Err: err}
	}
	acks, err := r.dda.SubscribeEvent(ctx, api.SubscriptionFilter{Type: eventTypeAck})
	if err != nil {
		return &errs.MessagingError{Op: "SubscribeEvent(ack)", Err: err}
	}
	rootAcks, err := r.dda.SubscribeEvent(ctx, api.SubscriptionFilter{Type: eventTypeRootAck})
	if err != nil {
		return &errs.MessagingError{Op: "SubscribeEvent(rootack)", Err: err}
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-constraints:
				if !ok {
					return
				}
				var wc wireConstraint
				if err := json.Unmarshal(evt.Data, &wc); err != nil {
					continue
				}
				r.mu.Lock()
				r.inbox[wc.Target] = append(r.inbox[wc.Target], ConstraintMsg{Source: wc.Source, Round: wc.Round, Constraint: wc.C})
				r.mu.Unlock()
			case evt, ok := <-acks:
				if !ok {
					return
				}
				var parts struct{ Source, Target string }
				if err := json.Unmarshal(evt.Data, &parts); err != nil {
					continue
				}
				r.mu.Lock()
				r.ackInbox[parts.Target] = append(r.ackInbox[parts.Target], parts.Source)
				r.mu.Unlock()
			case evt, ok := <-rootAcks:
				if !ok {
					return
				}
				r.registry.Broadcast(string(evt.Data))
			}
		}
	}()
	return nil
}

func (r *RemoteMessaging) publish(evt api.Event) error {
	op := func() error { return r.dda.PublishEvent(evt) }
	notify := func(err error, wait time.Duration) {
		r.Printf("retrying PublishEvent(%s) after %v: %v", evt.Type, wait, err)
	}
	if err := backoff.RetryNotify(op, backoff.NewExponentialBackOff(), notify); err != nil {
		return &errs.MessagingError{Op: fmt.Sprintf("PublishEvent(%s)", evt.Type), Err: err}
	}
	return nil
}

func (r *RemoteMessaging) GetMessages(self string) ([]ConstraintMsg, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.inbox[self]
	delete(r.inbox, self)
	return msgs, nil
}

func (r *RemoteMessaging) SendMessages(self string, round uint, targets map[string][]goal.Constraint) error {
	for target, constraints := range targets {
		for _, c := range constraints {
			payload, err := json.Marshal(wireConstraint{Source: self, Round: round, Target: target, C: c})
			if err != nil {
				return err
			}
			if err := r.publish(api.Event{Type: eventTypeConstraint, Id: uuid.NewString(), Source: self, Data: payload}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *RemoteMessaging) GetAcks(self string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acks := r.ackInbox[self]
	delete(r.ackInbox, self)
	return acks, nil
}

func (r *RemoteMessaging) SendAcks(self string, targets []string) error {
	for _, target := range targets {
		payload, err := json.Marshal(struct{ Source, Target string }{self, target})
		if err != nil {
			return err
		}
		if err := r.publish(api.Event{Type: eventTypeAck, Id: uuid.NewString(), Source: self, Data: payload}); err != nil {
			return err
		}
	}
	return nil
}

func (r *RemoteMessaging) BcastRootAcks(self string) error {
	r.registry.Broadcast(self)
	return r.publish(api.Event{Type: eventTypeRootAck, Id: uuid.NewString(), Source: self, Data: []byte(self)})
}

func (r *RemoteMessaging) GetGlobalAcks() (map[string]struct{}, error) {
	return r.registry.Snapshot(), nil
}

// Close releases the underlying dda instance.
func (r *RemoteMessaging) Close() {
	r.dda.Close()
}
