package engine

// CanonicalStarts restricts where sessions of a given duration (in slots) may
// begin within a day, keyed by duration and listing minutes since midnight.
// Durations without an entry fall back to on-the-hour starts. This is a
// search-space reduction heuristic, not a pedagogical rule; tune it via
// configuration when the slot budget allows.
type CanonicalStarts map[int][]int

func DefaultCanonicalStarts() CanonicalStarts {
	return CanonicalStarts{
		// 1.5-hour sessions keep to four anchors so that two of them tile a
		// teaching window without stranding a half slot.
		3: {8 * 60, 9*60 + 30, 13 * 60, 14*60 + 30},
	}
}

func (c CanonicalStarts) permits(durationSlots, startMinute int) bool {
	if anchors, ok := c[durationSlots]; ok {
		for _, anchor := range anchors {
			if startMinute == anchor {
				return true
			}
		}
		return false
	}
	return startMinute%60 == 0
}

// Feasibility holds the precomputed (session, room, start) compatibility
// data that keeps the model sparse: valid starts respect day rules, day
// boundaries, the midday gap and the canonical start anchors; candidate rooms
// respect the category partition and capacity.
type Feasibility struct {
	grid        *Grid
	rooms       []Room
	arena       *Arena
	starts      CanonicalStarts
	validStarts [][]int
}

func NewFeasibility(grid *Grid, rooms []Room, arena *Arena, starts CanonicalStarts) *Feasibility {
	if starts == nil {
		starts = DefaultCanonicalStarts()
	}
	f := &Feasibility{
		grid:        grid,
		rooms:       rooms,
		arena:       arena,
		starts:      starts,
		validStarts: make([][]int, len(arena.Sessions)),
	}
	for i := range arena.Sessions {
		f.validStarts[i] = f.computeValidStarts(&arena.Sessions[i])
	}
	return f
}

func (f *Feasibility) computeValidStarts(session *Session) []int {
	starts := []int{}
	for _, slot := range f.grid.Slots {
		if !session.Rule.Allows(slot.Day) {
			continue
		}
		if !f.starts.permits(session.DurationSlots, slot.Start) {
			continue
		}
		if !f.grid.Fits(slot.Index, session.DurationSlots) {
			continue
		}
		starts = append(starts, slot.Index)
	}
	return starts
}

// ValidStarts lists the permitted start slots for a session.
func (f *Feasibility) ValidStarts(session int) []int {
	return f.validStarts[session]
}

// Occupation lists the slots covered when a session begins at start.
func (f *Feasibility) Occupation(session, start int) []int {
	duration := f.arena.Sessions[session].DurationSlots
	covered := make([]int, duration)
	for offset := range covered {
		covered[offset] = start + offset
	}
	return covered
}

// RoomCompatible applies the strict category partition and the capacity rule.
func (f *Feasibility) RoomCompatible(session int, room Room) bool {
	component := f.arena.Components[f.arena.Sessions[session].Component]
	if room.Category != component.RoomCategory {
		return false
	}
	return component.Students <= room.Capacity
}

// CandidateRooms lists room indices a session may use.
func (f *Feasibility) CandidateRooms(session int) []int {
	candidates := []int{}
	for j, room := range f.rooms {
		if f.RoomCompatible(session, room) {
			candidates = append(candidates, j)
		}
	}
	return candidates
}

// PatternFlexibility is the mean valid-start count across a pattern's
// sessions, the tiebreaker used by dominance pruning.
func (f *Feasibility) PatternFlexibility(pattern int) float64 {
	sessions := f.arena.Patterns[pattern].Sessions
	if len(sessions) == 0 {
		return 0
	}
	total := 0
	for _, session := range sessions {
		total += len(f.validStarts[session])
	}
	return float64(total) / float64(len(sessions))
}
