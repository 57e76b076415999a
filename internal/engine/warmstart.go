package engine

import (
	"sort"

	"github.com/samber/lo"

	"classalloc/internal/milp"
)

// Seed is a greedy partial schedule used to prime the solver with a
// feasible incumbent. Every placement it contains satisfies the model's
// constraints, including room cohesion, shared time of day and distinct
// days for multi-meeting patterns, so the solver can accept it verbatim.
type Seed struct {
	Y      map[int]bool
	X      map[AssignKey]bool
	Placed []int
}

// Initial converts the seed into a full variable assignment for the given
// model. Variables the seed does not set are zero; MIP starts want a value
// for every column.
func (s Seed) Initial(bm *BuiltModel) map[milp.Var]float64 {
	initial := make(map[milp.Var]float64, len(bm.Y)+len(bm.X))
	for p, y := range bm.Y {
		initial[y] = 0
		if s.Y[p] {
			initial[y] = 1
		}
	}
	for key, x := range bm.X {
		initial[x] = 0
		if s.X[key] {
			initial[x] = 1
		}
	}
	return initial
}

// GreedySeed places components one at a time, most constrained first
// (fewest active patterns). A pattern is committed only when every one of
// its meetings can be placed; otherwise the next pattern of the component
// is tried, and a component with no placeable pattern is left to the
// solver. There is no backtracking across components.
func GreedySeed(grid *Grid, arena *Arena, feas *Feasibility, scope []int, blocked Occupancy) Seed {
	seed := Seed{
		Y: make(map[int]bool),
		X: make(map[AssignKey]bool),
	}
	occ := blocked.Clone()

	order := append([]int(nil), scope...)
	sort.Slice(order, func(i, j int) bool {
		ni := len(arena.ActivePatterns(order[i]))
		nj := len(arena.ActivePatterns(order[j]))
		if ni != nj {
			return ni < nj
		}
		return order[i] < order[j]
	})

	for _, c := range order {
		component := &arena.Components[c]
		for _, p := range arena.ActivePatterns(c) {
			keys := placePattern(grid, arena, feas, &arena.Patterns[p], component.Cohort.Key(), occ)
			if keys == nil {
				continue
			}
			seed.Y[p] = true
			for _, key := range keys {
				seed.X[key] = true
				for _, slot := range feas.Occupation(key.Session, key.Start) {
					occ.Rooms[RoomSlot{key.Room, slot}] = true
					occ.Cohorts[CohortSlot{component.Cohort.Key(), slot}] = true
				}
			}
			seed.Placed = append(seed.Placed, c)
			break
		}
	}
	return seed
}

// placePattern tries to place all meetings of one pattern. The first meeting
// fixes the room and the time of day; the rest must reuse both on different
// days. Returns nil when no anchor placement extends to a full set.
func placePattern(grid *Grid, arena *Arena, feas *Feasibility, pattern *Pattern, cohort string, occ Occupancy) []AssignKey {
	first := pattern.Sessions[0]

	for _, j := range feas.CandidateRooms(first) {
		for _, k := range feas.ValidStarts(first) {
			if !placementFree(feas, first, j, k, cohort, occ) {
				continue
			}
			anchorDay, offset := grid.DayOffset(k)
			keys := []AssignKey{{Session: first, Room: j, Start: k}}
			usedDays := []Day{anchorDay}

			complete := true
			for _, s := range pattern.Sessions[1:] {
				key, ok := placeFollowUp(grid, feas, s, j, offset, cohort, usedDays, keys, occ)
				if !ok {
					complete = false
					break
				}
				keys = append(keys, key)
				day, _ := grid.DayOffset(key.Start)
				usedDays = append(usedDays, day)
			}
			if complete {
				return keys
			}
		}
	}
	return nil
}

// placeFollowUp finds a slot for a later meeting of the pattern: same room,
// same daily offset, a day not yet used, clear of both committed occupancy
// and the meetings placed so far in this pattern.
func placeFollowUp(grid *Grid, feas *Feasibility, session, room, offset int, cohort string, usedDays []Day, placed []AssignKey, occ Occupancy) (AssignKey, bool) {
	for d := 0; d < grid.DayCount; d++ {
		day := Day(d)
		if lo.Contains(usedDays, day) {
			continue
		}
		start := grid.SlotIndex(day, offset)
		if !lo.Contains(feas.ValidStarts(session), start) {
			continue
		}
		if !placementFree(feas, session, room, start, cohort, occ) {
			continue
		}
		if overlapsPlaced(feas, session, room, start, placed) {
			continue
		}
		return AssignKey{Session: session, Room: room, Start: start}, true
	}
	return AssignKey{}, false
}

func placementFree(feas *Feasibility, session, room, start int, cohort string, occ Occupancy) bool {
	for _, slot := range feas.Occupation(session, start) {
		if occ.Blocked(room, slot, cohort) {
			return false
		}
	}
	return true
}

func overlapsPlaced(feas *Feasibility, session, room, start int, placed []AssignKey) bool {
	slots := feas.Occupation(session, start)
	for _, key := range placed {
		for _, occupied := range feas.Occupation(key.Session, key.Start) {
			if key.Room == room && lo.Contains(slots, occupied) {
				return true
			}
		}
	}
	return false
}
