package engine

import (
	"fmt"

	"github.com/samber/lo"
)

// ReplayCheck re-validates a run outcome against every scheduling rule,
// independently of the solver that produced it. It returns one error per
// violation so a broken schedule names everything wrong with it at once.
func ReplayCheck(grid *Grid, arena *Arena, rooms []Room, feas *Feasibility, outcome *Outcome) []error {
	var violations []error

	byComponent := make(map[int]int)
	for p := range outcome.ChosenPatterns {
		byComponent[arena.Patterns[p].Component]++
	}
	for c, count := range byComponent {
		if count > 1 {
			violations = append(violations, fmt.Errorf(
				"component %s has %d chosen patterns", arena.ComponentLabel(c), count))
		}
	}

	bySession := make(map[int][]AssignKey)
	for key := range outcome.Assignments {
		bySession[key.Session] = append(bySession[key.Session], key)
	}

	for session, keys := range bySession {
		pattern := arena.Sessions[session].Pattern
		if !outcome.ChosenPatterns[pattern] {
			violations = append(violations, fmt.Errorf(
				"session %d placed but its pattern %s is not chosen", session, arena.Patterns[pattern].Name))
		}
		if len(keys) > 1 {
			violations = append(violations, fmt.Errorf(
				"session %d placed %d times", session, len(keys)))
		}
		for _, key := range keys {
			if !lo.Contains(feas.ValidStarts(session), key.Start) {
				violations = append(violations, fmt.Errorf(
					"session %d starts at slot %d outside its valid starts", session, key.Start))
			}
			if !feas.RoomCompatible(session, rooms[key.Room]) {
				violations = append(violations, fmt.Errorf(
					"session %d assigned incompatible room %s", session, rooms[key.Room].ID))
			}
		}
	}

	for p := range outcome.ChosenPatterns {
		pattern := &arena.Patterns[p]
		for _, s := range pattern.Sessions {
			if len(bySession[s]) != 1 {
				violations = append(violations, fmt.Errorf(
					"pattern %s chosen but session %d has %d placements", pattern.Name, s, len(bySession[s])))
			}
		}
		violations = append(violations, checkCohesion(grid, pattern, bySession)...)
	}

	violations = append(violations, checkConflicts(arena, feas, outcome)...)
	return violations
}

// checkCohesion validates the multi-meeting rules: distinct days, one room,
// one time of day.
func checkCohesion(grid *Grid, pattern *Pattern, bySession map[int][]AssignKey) []error {
	var violations []error
	if len(pattern.Sessions) < 2 {
		return nil
	}

	var days []Day
	var rms, offsets []int
	for _, s := range pattern.Sessions {
		for _, key := range bySession[s] {
			day, offset := grid.DayOffset(key.Start)
			days = append(days, day)
			rms = append(rms, key.Room)
			offsets = append(offsets, offset)
		}
	}
	if len(lo.Uniq(days)) != len(days) {
		violations = append(violations, fmt.Errorf(
			"pattern %s meets twice on the same day", pattern.Name))
	}
	if len(lo.Uniq(rms)) > 1 {
		violations = append(violations, fmt.Errorf(
			"pattern %s uses more than one room", pattern.Name))
	}
	if len(lo.Uniq(offsets)) > 1 {
		violations = append(violations, fmt.Errorf(
			"pattern %s meets at different times of day", pattern.Name))
	}
	return violations
}

func checkConflicts(arena *Arena, feas *Feasibility, outcome *Outcome) []error {
	var violations []error
	roomUse := make(map[RoomSlot]int)
	cohortUse := make(map[CohortSlot]int)

	for key := range outcome.Assignments {
		cohort := arena.Components[arena.Sessions[key.Session].Component].Cohort.Key()
		for _, slot := range feas.Occupation(key.Session, key.Start) {
			roomUse[RoomSlot{key.Room, slot}]++
			cohortUse[CohortSlot{cohort, slot}]++
		}
	}
	for rs, count := range roomUse {
		if count > 1 {
			violations = append(violations, fmt.Errorf(
				"room %d double booked at slot %d", rs.Room, rs.Slot))
		}
	}
	for cs, count := range cohortUse {
		if count > 1 {
			violations = append(violations, fmt.Errorf(
				"cohort %s double booked at slot %d", cs.Cohort, cs.Slot))
		}
	}
	return violations
}
