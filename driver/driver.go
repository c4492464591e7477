// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package driver implements the top-level control flow of §2: run the
// structural diff once, drive every instance's PlannerNode concurrently to
// quiescence over a shared Messaging, merge the resulting per-instance
// plans, and stitch the structural diff around the merged behavior plan.
// Grounded on original_source/ballet/planner/resolve.py's resolve(), whose
// single-process round-robin loop this package replaces with one goroutine
// per instance, per SPEC_FULL.md's actor-per-instance concurrency model.
package driver

import (
	"context"
	"time"

	"github.com/coatyio/reconplan/assembly"
	"github.com/coatyio/reconplan/clog"
	"github.com/coatyio/reconplan/goal"
	"github.com/coatyio/reconplan/lifecycle"
	"github.com/coatyio/reconplan/messaging"
	"github.com/coatyio/reconplan/node"
	"github.com/coatyio/reconplan/plan"
	"github.com/coatyio/reconplan/solver"
)

// DefaultPollInterval paces PlannerNode.Run's polling suspension point
// (§5) when the caller has no stronger preference.
const DefaultPollInterval = 2 * time.Millisecond

var logger = clog.New("driver ")

// nodeResult carries one instance's outcome back from its goroutine.
type nodeResult struct {
	plan *plan.Plan
	err  error
}

// promotePlaceGoals resolves every State goal's place reference through
// assembly.PromotePlace (§6.2's boundary promotion: "start"/"initial"/
// "running" map to instance- or type-relative places before the goal ever
// reaches a Model), leaving Behavior/Port goals unchanged.
func promotePlaceGoals(inst *assembly.Instance, goals []goal.Goal) ([]goal.Goal, error) {
	if len(goals) == 0 {
		return goals, nil
	}
	out := make([]goal.Goal, len(goals))
	for i, g := range goals {
		if g.Kind != goal.State {
			out[i] = g
			continue
		}
		place, err := assembly.PromotePlace(inst, g.Name)
		if err != nil {
			return nil, err
		}
		out[i] = goal.StateGoal(place, g.Final)
	}
	return out, nil
}

// Resolve runs the full pipeline described in §2's "Control flow" over
// assemblyOut (the target assembly, already carrying every instance's
// current active place): diff against assemblyIn, build and run one
// PlannerNode per instance in assemblyOut sharing msg, merge their final
// plans, and return the unified instruction sequence
// (add+connect, merged-behavior-plan, disconnect+del).
func Resolve(
	ctx context.Context,
	assemblyIn, assemblyOut *assembly.Assembly,
	goals map[string][]goal.Goal,
	msg messaging.Messaging,
	pollInterval time.Duration,
) ([]plan.Instruction, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	diffInstrs := plan.Diff(assemblyIn, assemblyOut)
	buckets := plan.Split(diffInstrs)
	logger.Printf("diff produced %d structural instructions", len(diffInstrs))

	instances := assemblyOut.Instances()
	var goalBearing []string
	for _, inst := range instances {
		if len(goals[inst.ID()]) > 0 {
			goalBearing = append(goalBearing, inst.ID())
		}
	}

	results := make(chan nodeResult, len(instances))
	for _, inst := range instances {
		instGoals, err := promotePlaceGoals(inst, goals[inst.ID()])
		if err != nil {
			return nil, err
		}
		if err := goal.Validate(inst.ID(), inst.Type(), instGoals); err != nil {
			return nil, err
		}
		auto, err := lifecycle.Build(inst.Type())
		if err != nil {
			return nil, err
		}
		model := solver.NewModel(inst.ID(), inst.Type(), auto, inst.Active())
		for _, g := range instGoals {
			model.AddGoal(g)
		}
		n := node.New(inst, model, msg, len(instGoals) > 0)
		go func() {
			p, err := n.Run(ctx, goalBearing, pollInterval)
			results <- nodeResult{plan: p, err: err}
		}()
	}

	plans := make([]plan.Plan, 0, len(instances))
	for range instances {
		r := <-results
		if r.err != nil {
			return nil, r.err
		}
		plans = append(plans, *r.plan)
	}

	merged, err := plan.Merge(plans)
	if err != nil {
		return nil, err
	}
	logger.Printf("merged %d per-instance plans into %d instructions", len(plans), len(merged))

	out := make([]plan.Instruction, 0, len(buckets.Add)+len(buckets.Connect)+len(merged)+len(buckets.Disconnect)+len(buckets.Del))
	out = append(out, buckets.Add...)
	out = append(out, buckets.Connect...)
	out = append(out, merged...)
	out = append(out, buckets.Disconnect...)
	out = append(out, buckets.Del...)
	return out, nil
}
