package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"classalloc/internal/milp"
)

// ComponentStatus is the per-component verdict of a run. Components are
// never dropped silently: every component in scope ends up either scheduled
// with a pattern or listed with the reason it is not.
type ComponentStatus struct {
	Component  int
	CourseCode string
	Cohort     string
	Kind       SessionKind
	Scheduled  bool
	Pattern    string
	Reason     string
}

// Outcome aggregates the committed results of all slices of a run.
type Outcome struct {
	Assignments    map[AssignKey]bool
	ChosenPatterns map[int]bool
	Statuses       []ComponentStatus
	FailedSlices   []*SliceError
	Objective      float64
	Stopped        bool
}

func (o *Outcome) ScheduledCount() int {
	n := 0
	for _, s := range o.Statuses {
		if s.Scheduled {
			n++
		}
	}
	return n
}

// Orchestrator drives a decomposition strategy: it builds a model per
// slice, seeds and solves it, commits the result into shared occupancy and
// moves on. A failing slice is recorded and skipped, never fatal, so a bad
// corner of the instance cannot take down the rest of the schedule.
type Orchestrator struct {
	Solver  milp.Solver
	Grid    *Grid
	Arena   *Arena
	Rooms   []Room
	Feas    *Feasibility
	Log     *zap.Logger

	Opts       RunOptions
	Blocked    Occupancy
	Stop       func() bool
	Preprocess bool
}

type RunOptions struct {
	TimeLimit    time.Duration
	GapTolerance float64
	WarmStart    bool
}

func (o *Orchestrator) Run(strategy Strategy) (*Outcome, error) {
	if o.Solver == nil {
		return nil, &ConfigError{Field: "solver", Reason: "no solver configured"}
	}

	outcome := &Outcome{
		Assignments:    make(map[AssignKey]bool),
		ChosenPatterns: make(map[int]bool),
	}
	blocked := o.Blocked
	if blocked.Rooms == nil {
		blocked = NewOccupancy()
	}
	blocked = blocked.Clone()

	pre := &Preprocessor{Arena: o.Arena, Feas: o.Feas, Log: o.Log}
	if o.Preprocess {
		pre.RemoveDominated()
	}

	slices := strategy.Slices(o.Arena)
	for i := 0; i < len(slices); {
		if o.stopped() {
			outcome.Stopped = true
			break
		}

		// A slice plus its Refine followers form one chain over a
		// shared scope; the chain commits once.
		end := i + 1
		for end < len(slices) && slices[end].Refine {
			end++
		}
		o.runChain(strategy.Name(), slices[i:end], blocked, pre, outcome)
		i = end
	}

	o.fillStatuses(outcome)
	if o.Log != nil {
		o.Log.Info("run finished",
			zap.String("strategy", strategy.Name()),
			zap.Int("scheduled", outcome.ScheduledCount()),
			zap.Int("components", len(outcome.Statuses)),
			zap.Int("failed_slices", len(outcome.FailedSlices)),
			zap.Bool("stopped", outcome.Stopped),
		)
	}
	return outcome, nil
}

// runChain solves one slice scope, possibly over several refining rounds,
// and commits the best incumbent found.
func (o *Orchestrator) runChain(strategy string, chain []Slice, blocked Occupancy, pre *Preprocessor, outcome *Outcome) {
	scope := chain[0].Components
	if len(scope) == 0 {
		return
	}

	sliceBlocked := blocked.Clone()
	sliceBlocked.Merge(chain[0].Reserved)

	bm := o.buildModel(scope, sliceBlocked, pre)
	for _, inf := range bm.Infeasible {
		outcome.Statuses = append(outcome.Statuses, ComponentStatus{
			Component:  inf.Component,
			CourseCode: inf.CourseCode,
			Cohort:     inf.Cohort,
			Kind:       inf.Kind,
			Reason:     inf.Reason,
		})
	}
	if len(bm.Y) == 0 {
		return
	}

	var incumbent map[milp.Var]float64
	if o.Opts.WarmStart {
		seed := GreedySeed(o.Grid, o.Arena, o.Feas, scope, sliceBlocked)
		incumbent = seed.Initial(bm)
		if o.Log != nil {
			o.Log.Debug("warm start built",
				zap.String("slice", chain[0].Label),
				zap.Int("placed", len(seed.Placed)),
			)
		}
	}

	var best *milp.Result
	var failures []*SliceError
	for round := range chain {
		if round > 0 && o.stopped() {
			outcome.Stopped = true
			break
		}
		slice := chain[round]
		opts := o.sliceOptions(slice, incumbent)

		result, err := o.Solver.Solve(bm.Model, opts)
		if err != nil {
			failures = append(failures, &SliceError{
				Strategy: strategy, Slice: slice.Label, Err: err,
			})
			continue
		}
		switch result.Status {
		case milp.StatusOptimal, milp.StatusFeasible:
			best = &result
			incumbent = resultValues(bm, result)
		default:
			failures = append(failures, &SliceError{
				Strategy: strategy, Slice: slice.Label,
				Err: fmt.Errorf("solver returned %s", result.Status),
			})
		}
		if best != nil && best.Status == milp.StatusOptimal {
			break
		}
	}

	if best != nil {
		// A failing round is only worth reporting when the whole chain
		// came away empty-handed; a committed incumbent makes earlier
		// rounds' stumbles irrelevant.
		if len(failures) > 0 && o.Log != nil {
			for _, failure := range failures {
				o.Log.Warn("slice round recovered", zap.Error(failure))
			}
		}
		o.commit(bm, *best, blocked, outcome)
		return
	}
	outcome.FailedSlices = append(outcome.FailedSlices, failures...)
}

func (o *Orchestrator) buildModel(scope []int, blocked Occupancy, pre *Preprocessor) *BuiltModel {
	builder := &Builder{Grid: o.Grid, Rooms: o.Rooms, Arena: o.Arena, Feas: o.Feas, Log: o.Log}
	bm := builder.Build(scope, blocked)
	if o.Preprocess {
		pre.FixInfeasible(bm, o.Rooms)
		// Ordering constraints can contradict a greedy incumbent, so
		// they are only added when no warm start will be supplied.
		if !o.Opts.WarmStart {
			pre.BreakSymmetry(bm)
		}
	}
	return bm
}

func (o *Orchestrator) sliceOptions(slice Slice, incumbent map[milp.Var]float64) milp.Options {
	opts := milp.Options{
		TimeLimit:    o.Opts.TimeLimit,
		GapTolerance: o.Opts.GapTolerance,
	}
	if slice.Opts != nil {
		if slice.Opts.TimeLimit > 0 {
			opts.TimeLimit = slice.Opts.TimeLimit
		}
		if slice.Opts.GapTolerance > 0 {
			opts.GapTolerance = slice.Opts.GapTolerance
		}
	}
	opts.Initial = incumbent
	return opts
}

// commit folds a solved slice into the run outcome and marks its occupancy
// so later slices cannot collide with it.
func (o *Orchestrator) commit(bm *BuiltModel, result milp.Result, blocked Occupancy, outcome *Outcome) {
	for p, y := range bm.Y {
		if result.Value(y) {
			outcome.ChosenPatterns[p] = true
		}
	}
	for key, x := range bm.X {
		if !result.Value(x) {
			continue
		}
		outcome.Assignments[key] = true
		cohort := o.Arena.Components[o.Arena.Sessions[key.Session].Component].Cohort.Key()
		for _, slot := range o.Feas.Occupation(key.Session, key.Start) {
			blocked.Rooms[RoomSlot{key.Room, slot}] = true
			blocked.Cohorts[CohortSlot{cohort, slot}] = true
		}
	}
	outcome.Objective += result.Objective
}

// fillStatuses gives every component without a status its final verdict.
func (o *Orchestrator) fillStatuses(outcome *Outcome) {
	reported := make(map[int]bool, len(outcome.Statuses))
	for _, s := range outcome.Statuses {
		reported[s.Component] = true
	}

	for _, component := range o.Arena.Components {
		if reported[component.ID] {
			continue
		}
		status := ComponentStatus{
			Component:  component.ID,
			CourseCode: component.CourseCode,
			Cohort:     component.Cohort.Key(),
			Kind:       component.Kind,
		}
		for _, p := range component.Patterns {
			if outcome.ChosenPatterns[p] {
				status.Scheduled = true
				status.Pattern = o.Arena.Patterns[p].Name
				break
			}
		}
		if !status.Scheduled {
			if outcome.Stopped {
				status.Reason = "run stopped before this component was solved"
			} else {
				status.Reason = "solver left the component unplaced"
			}
		}
		outcome.Statuses = append(outcome.Statuses, status)
	}
}

func (o *Orchestrator) stopped() bool {
	return o.Stop != nil && o.Stop()
}

func resultValues(bm *BuiltModel, result milp.Result) map[milp.Var]float64 {
	values := make(map[milp.Var]float64, len(bm.Y)+len(bm.X))
	for _, y := range bm.Y {
		values[y] = boolToFloat(result.Value(y))
	}
	for _, x := range bm.X {
		values[x] = boolToFloat(result.Value(x))
	}
	return values
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
