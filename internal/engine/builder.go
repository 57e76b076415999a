package engine

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"classalloc/internal/milp"
)

// AssignKey identifies one placement candidate: session i into room j
// starting at slot k.
type AssignKey struct {
	Session int
	Room    int
	Start   int
}

// BuiltModel is a binary program plus the bookkeeping needed to read its
// solution back: Y maps pattern ids to choice variables, X maps placement
// candidates to assignment variables.
type BuiltModel struct {
	Model      *milp.Model
	Y          map[int]milp.Var
	X          map[AssignKey]milp.Var
	XBySession map[int][]AssignKey
	Scope      []int
	Infeasible []*InfeasibleComponentError
}

// Vars returns the assignment variables of session, in candidate order.
func (bm *BuiltModel) Vars(session int) []milp.Var {
	keys := bm.XBySession[session]
	vars := make([]milp.Var, len(keys))
	for i, key := range keys {
		vars[i] = bm.X[key]
	}
	return vars
}

type Builder struct {
	Grid  *Grid
	Rooms []Room
	Arena *Arena
	Feas  *Feasibility
	Log   *zap.Logger
}

// Build assembles the binary program for the components in scope. Placement
// candidates are generated sparsely: a variable exists only for room and
// start combinations that pass category, capacity, day-rule, contiguity and
// blocked-slot checks. Components where some session has no candidate under
// every pattern produce no variables at all and are reported in Infeasible
// rather than dragged into the model as contradictions.
func (b *Builder) Build(scope []int, blocked Occupancy) *BuiltModel {
	bm := &BuiltModel{
		Model:      milp.NewModel(),
		Y:          make(map[int]milp.Var),
		X:          make(map[AssignKey]milp.Var),
		XBySession: make(map[int][]AssignKey),
		Scope:      scope,
	}

	roomSlotVars := make(map[RoomSlot][]milp.Var)
	cohortSlotVars := make(map[CohortSlot][]milp.Var)

	for _, c := range scope {
		component := &b.Arena.Components[c]
		chosen := b.buildComponent(bm, component, blocked, roomSlotVars, cohortSlotVars)
		if len(chosen) == 0 {
			bm.Infeasible = append(bm.Infeasible, &InfeasibleComponentError{
				Component:  component.ID,
				CourseCode: component.CourseCode,
				Kind:       component.Kind,
				Cohort:     component.Cohort.Key(),
				Reason:     "no pattern has a placement for every session",
			})
			continue
		}

		choice := make([]milp.Term, len(chosen))
		for i, p := range chosen {
			choice[i] = milp.Term{Var: bm.Y[p], Coef: 1}
		}
		bm.Model.Add(fmt.Sprintf("PatternChoice_%d", component.ID), choice, milp.Equal, 1)
	}

	b.addConflictConstraints(bm, roomSlotVars, cohortSlotVars)

	objective := make([]milp.Term, 0, len(bm.Y))
	for _, c := range scope {
		for _, p := range b.Arena.Components[c].Patterns {
			if y, ok := bm.Y[p]; ok {
				objective = append(objective, milp.Term{Var: y, Coef: 1})
			}
		}
	}
	bm.Model.Maximize(objective)

	if b.Log != nil {
		b.Log.Info("model built",
			zap.Int("components", len(scope)),
			zap.Int("infeasible", len(bm.Infeasible)),
			zap.Int("variables", bm.Model.NumVars()),
			zap.Int("constraints", len(bm.Model.Constraints)),
		)
	}
	return bm
}

// buildComponent creates variables and intra-pattern constraints for one
// component and returns the pattern ids that made it into the model.
func (b *Builder) buildComponent(
	bm *BuiltModel,
	component *Component,
	blocked Occupancy,
	roomSlotVars map[RoomSlot][]milp.Var,
	cohortSlotVars map[CohortSlot][]milp.Var,
) []int {
	cohort := component.Cohort.Key()
	var chosen []int

	for _, p := range b.Arena.ActivePatterns(component.ID) {
		pattern := &b.Arena.Patterns[p]

		candidates := make(map[int][]AssignKey, len(pattern.Sessions))
		schedulable := true
		for _, s := range pattern.Sessions {
			keys := b.sessionCandidates(s, cohort, blocked)
			if len(keys) == 0 {
				schedulable = false
				break
			}
			candidates[s] = keys
		}
		if !schedulable {
			continue
		}

		y := bm.Model.AddBinary(fmt.Sprintf("y_p%d", p))
		bm.Y[p] = y
		chosen = append(chosen, p)

		for _, s := range pattern.Sessions {
			keys := candidates[s]
			bm.XBySession[s] = keys
			binding := make([]milp.Term, 0, len(keys)+1)
			for _, key := range keys {
				x := bm.Model.AddBinary(fmt.Sprintf("x_s%d_r%d_k%d", key.Session, key.Room, key.Start))
				bm.X[key] = x
				binding = append(binding, milp.Term{Var: x, Coef: 1})

				for _, slot := range b.Feas.Occupation(key.Session, key.Start) {
					rs := RoomSlot{key.Room, slot}
					roomSlotVars[rs] = append(roomSlotVars[rs], x)
					cs := CohortSlot{cohort, slot}
					cohortSlotVars[cs] = append(cohortSlotVars[cs], x)
				}
			}
			binding = append(binding, milp.Term{Var: y, Coef: -1})
			bm.Model.Add(fmt.Sprintf("SessionAssignment_%d", s), binding, milp.Equal, 0)
		}

		if len(pattern.Sessions) > 1 {
			b.addDistinctDay(bm, pattern)
			b.addCohesion(bm, pattern)
		}
	}
	return chosen
}

func (b *Builder) sessionCandidates(session int, cohort string, blocked Occupancy) []AssignKey {
	var keys []AssignKey
	for _, j := range b.Feas.CandidateRooms(session) {
		for _, k := range b.Feas.ValidStarts(session) {
			free := true
			for _, slot := range b.Feas.Occupation(session, k) {
				if blocked.Blocked(j, slot, cohort) {
					free = false
					break
				}
			}
			if free {
				keys = append(keys, AssignKey{Session: session, Room: j, Start: k})
			}
		}
	}
	return keys
}

// addDistinctDay forbids two sessions of the same pattern from landing on
// the same weekday. One constraint per session pair per day.
func (b *Builder) addDistinctDay(bm *BuiltModel, pattern *Pattern) {
	for i := 0; i < len(pattern.Sessions); i++ {
		for j := i + 1; j < len(pattern.Sessions); j++ {
			s1, s2 := pattern.Sessions[i], pattern.Sessions[j]
			for d := 0; d < b.Grid.DayCount; d++ {
				var terms []milp.Term
				for _, key := range bm.XBySession[s1] {
					if day, _ := b.Grid.DayOffset(key.Start); int(day) == d {
						terms = append(terms, milp.Term{Var: bm.X[key], Coef: 1})
					}
				}
				for _, key := range bm.XBySession[s2] {
					if day, _ := b.Grid.DayOffset(key.Start); int(day) == d {
						terms = append(terms, milp.Term{Var: bm.X[key], Coef: 1})
					}
				}
				if len(terms) < 2 {
					continue
				}
				name := fmt.Sprintf("DifferentDay_%d_s%d_s%d_day%d", pattern.ID, s1, s2, d)
				bm.Model.Add(name, terms, milp.LessEq, 1)
			}
		}
	}
}

// addCohesion ties every meeting of a multi-session pattern to the same room
// and the same time of day as the first meeting.
func (b *Builder) addCohesion(bm *BuiltModel, pattern *Pattern) {
	first := pattern.Sessions[0]
	for _, s := range pattern.Sessions[1:] {
		for _, j := range b.Feas.CandidateRooms(first) {
			terms := roomTerms(bm, first, j, 1)
			terms = append(terms, roomTerms(bm, s, j, -1)...)
			if len(terms) == 0 {
				continue
			}
			name := fmt.Sprintf("SameRoom_p%d_s%d_r%d", pattern.ID, s, j)
			bm.Model.Add(name, terms, milp.Equal, 0)
		}
		for t := 0; t < b.Grid.SlotsPerDay; t++ {
			terms := offsetTerms(b.Grid, bm, first, t, 1)
			terms = append(terms, offsetTerms(b.Grid, bm, s, t, -1)...)
			if len(terms) == 0 {
				continue
			}
			name := fmt.Sprintf("SameTime_p%d_s%d_t%d", pattern.ID, s, t)
			bm.Model.Add(name, terms, milp.Equal, 0)
		}
	}
}

func roomTerms(bm *BuiltModel, session, room int, coef float64) []milp.Term {
	var terms []milp.Term
	for _, key := range bm.XBySession[session] {
		if key.Room == room {
			terms = append(terms, milp.Term{Var: bm.X[key], Coef: coef})
		}
	}
	return terms
}

func offsetTerms(grid *Grid, bm *BuiltModel, session, offset int, coef float64) []milp.Term {
	var terms []milp.Term
	for _, key := range bm.XBySession[session] {
		if _, o := grid.DayOffset(key.Start); o == offset {
			terms = append(terms, milp.Term{Var: bm.X[key], Coef: coef})
		}
	}
	return terms
}

func (b *Builder) addConflictConstraints(
	bm *BuiltModel,
	roomSlotVars map[RoomSlot][]milp.Var,
	cohortSlotVars map[CohortSlot][]milp.Var,
) {
	roomKeys := make([]RoomSlot, 0, len(roomSlotVars))
	for rs := range roomSlotVars {
		roomKeys = append(roomKeys, rs)
	}
	sort.Slice(roomKeys, func(i, j int) bool {
		if roomKeys[i].Room != roomKeys[j].Room {
			return roomKeys[i].Room < roomKeys[j].Room
		}
		return roomKeys[i].Slot < roomKeys[j].Slot
	})
	for _, rs := range roomKeys {
		vars := roomSlotVars[rs]
		if len(vars) < 2 {
			continue
		}
		terms := make([]milp.Term, len(vars))
		for i, v := range vars {
			terms[i] = milp.Term{Var: v, Coef: 1}
		}
		bm.Model.Add(fmt.Sprintf("RoomConflict_%d_%d", rs.Room, rs.Slot), terms, milp.LessEq, 1)
	}

	cohortKeys := make([]CohortSlot, 0, len(cohortSlotVars))
	for cs := range cohortSlotVars {
		cohortKeys = append(cohortKeys, cs)
	}
	sort.Slice(cohortKeys, func(i, j int) bool {
		if cohortKeys[i].Cohort != cohortKeys[j].Cohort {
			return cohortKeys[i].Cohort < cohortKeys[j].Cohort
		}
		return cohortKeys[i].Slot < cohortKeys[j].Slot
	})
	for _, cs := range cohortKeys {
		vars := cohortSlotVars[cs]
		if len(vars) < 2 {
			continue
		}
		terms := make([]milp.Term, len(vars))
		for i, v := range vars {
			terms[i] = milp.Term{Var: v, Coef: 1}
		}
		bm.Model.Add(fmt.Sprintf("GroupConflict_%s_%d", cs.Cohort, cs.Slot), terms, milp.LessEq, 1)
	}
}
