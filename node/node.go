// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package node implements the PlannerNode actor of §4.3: one round loop
// per instance, alternating {drain inbox -> infer -> derive out-messages ->
// ack bookkeeping}, until global quiescence, then emitting the instance's
// final plan. Grounded on the teacher's Coordinator/Worker round-based
// select loop (components/coordinator.go's partitionAccumulate).
package node

import (
	"context"
	"fmt"
	"time"

	"github.com/coatyio/reconplan/assembly"
	"github.com/coatyio/reconplan/clog"
	"github.com/coatyio/reconplan/errs"
	"github.com/coatyio/reconplan/goal"
	"github.com/coatyio/reconplan/lifecycle"
	"github.com/coatyio/reconplan/messaging"
	"github.com/coatyio/reconplan/plan"
	"github.com/coatyio/reconplan/solver"
)

// PlannerNode is the per-instance actor of §4.3/§5. Its internal state is
// owned exclusively by this node and mutated only from within Step.
type PlannerNode struct {
	*clog.CLogger

	id    string
	inst  *assembly.Instance
	model *solver.Model
	msg   messaging.Messaging

	round        uint
	hasGoals     bool
	waitingAcks  map[string]struct{}
	mustSendAcks map[string]struct{}
	prevSent     map[string]map[string]struct{} // peer -> sent constraint fingerprints
}

// New builds a PlannerNode for inst, with model already seeded with this
// instance's own ReconfigurationGoals.
func New(inst *assembly.Instance, model *solver.Model, msg messaging.Messaging, hasGoals bool) *PlannerNode {
	return &PlannerNode{
		CLogger:      clog.New("node %s ", inst.ID()),
		id:           inst.ID(),
		inst:         inst,
		model:        model,
		msg:          msg,
		hasGoals:     hasGoals,
		waitingAcks:  make(map[string]struct{}),
		mustSendAcks: make(map[string]struct{}),
		prevSent:     make(map[string]map[string]struct{}),
	}
}

// Quiescent reports whether this node's own ack bookkeeping is balanced
// (invariant 4: at quiescence waiting_acks = must_send_acks = ∅).
func (n *PlannerNode) Quiescent() bool {
	return len(n.waitingAcks) == 0 && len(n.mustSendAcks) == 0
}

// Step runs one iteration of the round loop of §4.3 steps 1-8. It returns
// whether the iteration produced any externally-visible activity (messages
// sent or received), which Run uses to pace its polling.
func (n *PlannerNode) Step() (bool, error) {
	msgs, err := n.msg.GetMessages(n.id)
	if err != nil {
		return false, &errs.MessagingError{Op: "GetMessages", Err: err}
	}
	acks, err := n.msg.GetAcks(n.id)
	if err != nil {
		return false, &errs.MessagingError{Op: "GetAcks", Err: err}
	}
	for _, a := range acks {
		delete(n.waitingAcks, a)
	}

	if len(msgs) > 0 || (n.round == 0 && n.hasGoals) {
		n.round++
	}

	for _, msg := range msgs {
		localPort, ok := n.inst.ExternalPortConnection(msg.Source, msg.Constraint.LocalPort)
		if !ok {
			// Protocol violations are logged and the constraint is dropped;
			// per §7 this is the one place the core is lenient.
			n.Errorf("%v", &errs.ProtocolViolation{Instance: n.id, Source: msg.Source, Reason: fmt.Sprintf("unknown peer port %s.%s", msg.Source, msg.Constraint.LocalPort)})
			continue
		}
		translated := msg.Constraint
		translated.SourceInstance = msg.Source
		translated.LocalPort = localPort
		n.model.AddConstraint(translated)
		n.mustSendAcks[msg.Source] = struct{}{}
	}

	traj, err := n.model.Infer()
	if err != nil {
		return false, err
	}

	outMsgs := n.deriveOutMessages(traj)
	if len(outMsgs) > 0 {
		if err := n.msg.SendMessages(n.id, n.round, outMsgs); err != nil {
			return false, &errs.MessagingError{Op: "SendMessages", Err: err}
		}
	}
	for target := range outMsgs {
		if _, owed := n.mustSendAcks[target]; owed {
			delete(n.mustSendAcks, target) // the message itself serves as the ack
		} else {
			n.waitingAcks[target] = struct{}{}
		}
	}

	if len(outMsgs) == 0 && len(n.mustSendAcks) > 0 && len(n.waitingAcks) == 0 {
		targets := make([]string, 0, len(n.mustSendAcks))
		for t := range n.mustSendAcks {
			targets = append(targets, t)
		}
		if err := n.msg.SendAcks(n.id, targets); err != nil {
			return false, &errs.MessagingError{Op: "SendAcks", Err: err}
		}
		n.mustSendAcks = make(map[string]struct{})
	}

	if n.hasGoals && n.Quiescent() {
		if err := n.msg.BcastRootAcks(n.id); err != nil {
			return false, &errs.MessagingError{Op: "BcastRootAcks", Err: err}
		}
	}

	return len(msgs) > 0 || len(outMsgs) > 0, nil
}

// deriveOutMessages implements §4.3.1: only provide-port trajectories
// generate out-messages, one per peer of the port, deduplicated against
// prevSent so only deltas are (re-)emitted.
func (n *PlannerNode) deriveOutMessages(traj *solver.Trajectory) map[string][]goal.Constraint {
	out := make(map[string][]goal.Constraint)
	for _, port := range n.inst.Type().Ports {
		if port.Direction != lifecycle.Provide {
			continue
		}
		statuses := traj.Ports[port.Name]
		constraints := portEvents(port.Name, statuses, traj.Actions)
		if len(constraints) == 0 {
			continue
		}
		for _, peer := range n.inst.Connections(port.Name) {
			for _, c := range constraints {
				fp := fingerprint(c)
				sent := n.prevSent[peer.InstanceID]
				if sent == nil {
					sent = make(map[string]struct{})
					n.prevSent[peer.InstanceID] = sent
				}
				if _, already := sent[fp]; already {
					continue
				}
				sent[fp] = struct{}{}
				out[peer.InstanceID] = append(out[peer.InstanceID], c)
			}
		}
	}
	return out
}

// portEvents implements the event rule of §4.3.1 over one port's
// compressed status-change list. A disable followed later by a re-enable
// is tagged with the behavior that causes *that* re-enable (the "until b"
// of the constraint), not the behavior that caused the disable itself.
func portEvents(port string, statuses []bool, actions []solver.Action) []goal.Constraint {
	if len(statuses) < 2 {
		return nil
	}
	type change struct {
		at        int // index into statuses/actions of the causing step
		toEnabled bool
	}
	var changes []change
	for i := 1; i < len(statuses); i++ {
		if statuses[i] != statuses[i-1] {
			changes = append(changes, change{at: i - 1, toEnabled: statuses[i]})
		}
	}
	behaviorAt := func(i int) string {
		if i >= 0 && i < len(actions) && actions[i].Kind == solver.BehaviorAction {
			return actions[i].Behavior
		}
		return ""
	}
	var out []goal.Constraint
	for idx, ch := range changes {
		if ch.toEnabled {
			continue // re-enable events carry no message of their own
		}
		if idx == len(changes)-1 {
			out = append(out, goal.Constraint{LocalPort: port, RequiredStatus: false})
		} else {
			out = append(out, goal.Constraint{LocalPort: port, RequiredStatus: false, UntilBehavior: behaviorAt(changes[idx+1].at)})
		}
	}
	return out
}

func fingerprint(c goal.Constraint) string {
	return fmt.Sprintf("%s|%v|%s", c.LocalPort, c.RequiredStatus, c.UntilBehavior)
}

// Run drives Step in a polling loop until global quiescence (every id in
// goalBearing has broadcast its root-ack) or ctx is cancelled, then emits
// this instance's final Plan via ConstraintSolver.FinalPlan (§4.3 "Plan
// emission"). pollInterval paces the suspension point between rounds, per
// §5 ("awaiting inbox drainage if its step loop is implemented as a
// polling loop").
func (n *PlannerNode) Run(ctx context.Context, goalBearing []string, pollInterval time.Duration) (*plan.Plan, error) {
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil, &errs.PlanningTimedOut{Elapsed: time.Since(start).String()}
		default:
		}

		progressed, err := n.Step()
		if err != nil {
			return nil, err
		}

		acks, err := n.msg.GetGlobalAcks()
		if err != nil {
			return nil, &errs.MessagingError{Op: "GetGlobalAcks", Err: err}
		}
		if quiescent(acks, goalBearing) {
			break
		}

		if !progressed {
			select {
			case <-ctx.Done():
				return nil, &errs.PlanningTimedOut{Elapsed: time.Since(start).String()}
			case <-time.After(pollInterval):
			}
		}
	}

	actions, err := n.model.FinalPlan()
	if err != nil {
		return nil, err
	}
	instrs := make([]plan.Instruction, 0, len(actions))
	for _, a := range actions {
		switch a.Kind {
		case solver.WaitAction:
			instrs = append(instrs, plan.NewWait(a.WaitSource, a.Behavior))
		case solver.BehaviorAction:
			instrs = append(instrs, plan.NewPushB(n.id, a.Behavior))
		}
	}
	return &plan.Plan{Instance: n.id, Instructions: instrs}, nil
}

func quiescent(acks map[string]struct{}, goalBearing []string) bool {
	for _, id := range goalBearing {
		if _, ok := acks[id]; !ok {
			return false
		}
	}
	return true
}
