package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayCheckFlagsViolations(t *testing.T) {
	instance := testInstance()
	grid, arena, feas := testSetup(t, instance)

	lecture := componentByKind(t, arena, "IT 101", Lecture)
	pattern := arena.Patterns[lecture.Patterns[0]]
	require.Len(t, pattern.Sessions, 2)
	s1, s2 := pattern.Sessions[0], pattern.Sessions[1]

	newOutcome := func() *Outcome {
		return &Outcome{
			Assignments:    make(map[AssignKey]bool),
			ChosenPatterns: map[int]bool{pattern.ID: true},
		}
	}

	t.Run("clean outcome passes", func(t *testing.T) {
		outcome := newOutcome()
		outcome.Assignments[AssignKey{Session: s1, Room: 0, Start: grid.SlotIndex(Monday, 0)}] = true
		outcome.Assignments[AssignKey{Session: s2, Room: 0, Start: grid.SlotIndex(Wednesday, 0)}] = true
		assert.Empty(t, ReplayCheck(grid, arena, instance.Rooms, feas, outcome))
	})

	t.Run("missing meeting", func(t *testing.T) {
		outcome := newOutcome()
		outcome.Assignments[AssignKey{Session: s1, Room: 0, Start: grid.SlotIndex(Monday, 0)}] = true
		violations := ReplayCheck(grid, arena, instance.Rooms, feas, outcome)
		require.NotEmpty(t, violations)
		assert.ErrorContains(t, violations[0], "has 0 placements")
	})

	t.Run("same day twice", func(t *testing.T) {
		outcome := newOutcome()
		outcome.Assignments[AssignKey{Session: s1, Room: 0, Start: grid.SlotIndex(Monday, 0)}] = true
		outcome.Assignments[AssignKey{Session: s2, Room: 0, Start: grid.SlotIndex(Monday, 8)}] = true
		violations := ReplayCheck(grid, arena, instance.Rooms, feas, outcome)
		requireViolation(t, violations, "meets twice on the same day")
	})

	t.Run("room changes between meetings", func(t *testing.T) {
		instance := testInstance()
		instance.Rooms = append(instance.Rooms, Room{ID: "R2", Capacity: 40, Category: NonLabRoom})
		grid, arena, feas := testSetup(t, instance)
		lecture := componentByKind(t, arena, "IT 101", Lecture)
		pattern := arena.Patterns[lecture.Patterns[0]]

		outcome := newOutcome()
		outcome.ChosenPatterns = map[int]bool{pattern.ID: true}
		outcome.Assignments[AssignKey{Session: pattern.Sessions[0], Room: 0, Start: grid.SlotIndex(Monday, 0)}] = true
		outcome.Assignments[AssignKey{Session: pattern.Sessions[1], Room: 2, Start: grid.SlotIndex(Wednesday, 0)}] = true
		violations := ReplayCheck(grid, arena, instance.Rooms, feas, outcome)
		requireViolation(t, violations, "more than one room")
	})

	t.Run("time of day drifts", func(t *testing.T) {
		outcome := newOutcome()
		outcome.Assignments[AssignKey{Session: s1, Room: 0, Start: grid.SlotIndex(Monday, 0)}] = true
		outcome.Assignments[AssignKey{Session: s2, Room: 0, Start: grid.SlotIndex(Wednesday, 8)}] = true
		violations := ReplayCheck(grid, arena, instance.Rooms, feas, outcome)
		requireViolation(t, violations, "different times of day")
	})

	t.Run("double booked room", func(t *testing.T) {
		other := componentByKind(t, arena, "IT 102", Lecture)
		otherPattern := arena.Patterns[other.Patterns[1]]
		require.Len(t, otherPattern.Sessions, 1)

		outcome := newOutcome()
		outcome.ChosenPatterns[otherPattern.ID] = true
		outcome.Assignments[AssignKey{Session: s1, Room: 0, Start: grid.SlotIndex(Monday, 0)}] = true
		outcome.Assignments[AssignKey{Session: s2, Room: 0, Start: grid.SlotIndex(Wednesday, 0)}] = true
		outcome.Assignments[AssignKey{Session: otherPattern.Sessions[0], Room: 0, Start: grid.SlotIndex(Monday, 0)}] = true
		violations := ReplayCheck(grid, arena, instance.Rooms, feas, outcome)
		requireViolation(t, violations, "double booked")
	})

	t.Run("start outside the valid set", func(t *testing.T) {
		outcome := newOutcome()
		// Offset 1 is 08:30, not a 90-minute anchor.
		outcome.Assignments[AssignKey{Session: s1, Room: 0, Start: grid.SlotIndex(Monday, 1)}] = true
		outcome.Assignments[AssignKey{Session: s2, Room: 0, Start: grid.SlotIndex(Wednesday, 1)}] = true
		violations := ReplayCheck(grid, arena, instance.Rooms, feas, outcome)
		requireViolation(t, violations, "outside its valid starts")
	})
}

func requireViolation(t *testing.T, violations []error, fragment string) {
	t.Helper()
	for _, violation := range violations {
		if strings.Contains(violation.Error(), fragment) {
			return
		}
	}
	t.Fatalf("no violation containing %q in %v", fragment, violations)
}
