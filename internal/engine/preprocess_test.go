package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dominanceArena builds one component with a one-meeting pattern and a
// two-meeting pattern of the same shape, so the first strictly dominates.
func dominanceArena() *Arena {
	arena := &Arena{Courses: map[string]Course{"IT 150": {Code: "IT 150", Name: "Elective"}}}
	cohort := Cohort{Program: "IT", Year: 1, Block: "A", Students: 20}

	component := Component{ID: 0, CourseCode: "IT 150", Kind: Lecture, Cohort: cohort, Students: 20, RoomCategory: NonLabRoom}
	shapes := []struct {
		meetings int
	}{{1}, {2}}
	for _, shape := range shapes {
		pattern := Pattern{
			ID:            len(arena.Patterns),
			Component:     0,
			Name:          PatternSpec{Kind: Lecture, DurationSlots: 2, Rule: AnyDay, Meetings: shape.meetings}.Name(),
			DurationSlots: 2,
			Meetings:      shape.meetings,
			Rule:          AnyDay,
		}
		for m := 0; m < shape.meetings; m++ {
			session := Session{ID: len(arena.Sessions), Pattern: pattern.ID, Component: 0, DurationSlots: 2, Rule: AnyDay}
			pattern.Sessions = append(pattern.Sessions, session.ID)
			arena.Sessions = append(arena.Sessions, session)
		}
		component.Patterns = append(component.Patterns, pattern.ID)
		arena.Patterns = append(arena.Patterns, pattern)
	}
	arena.Components = append(arena.Components, component)
	return arena
}

func TestRemoveDominated(t *testing.T) {
	grid, err := NewGrid(DefaultGridConfig())
	require.NoError(t, err)
	rooms := []Room{{ID: "R1", Capacity: 40, Category: NonLabRoom}}

	t.Run("longer pattern of same shape is pruned", func(t *testing.T) {
		arena := dominanceArena()
		feas := NewFeasibility(grid, rooms, arena, nil)
		pre := &Preprocessor{Arena: arena, Feas: feas}

		assert.Equal(t, 1, pre.RemoveDominated())
		assert.True(t, arena.Patterns[1].Removed)
		assert.False(t, arena.Patterns[0].Removed)
		assert.Equal(t, []int{0}, arena.ActivePatterns(0))
	})

	t.Run("standard catalog loses nothing", func(t *testing.T) {
		// The stock patterns trade session count against flexibility, so
		// none dominates another.
		instance := testInstance()
		_, arena, feas := testSetup(t, instance)
		pre := &Preprocessor{Arena: arena, Feas: feas}

		assert.Zero(t, pre.RemoveDominated())
	})

	t.Run("last pattern survives", func(t *testing.T) {
		arena := dominanceArena()
		arena.Patterns[0].Removed = true
		feas := NewFeasibility(grid, rooms, arena, nil)
		pre := &Preprocessor{Arena: arena, Feas: feas}

		assert.Zero(t, pre.RemoveDominated())
		assert.False(t, arena.Patterns[1].Removed)
	})
}

func TestRemoveDominatedKeepsComponentSchedulable(t *testing.T) {
	grid, err := NewGrid(DefaultGridConfig())
	require.NoError(t, err)
	rooms := []Room{{ID: "R1", Capacity: 40, Category: NonLabRoom}}

	pruned := dominanceArena()
	feasPruned := NewFeasibility(grid, rooms, pruned, nil)
	require.Equal(t, 1, (&Preprocessor{Arena: pruned, Feas: feasPruned}).RemoveDominated())

	unpruned := dominanceArena()
	feasUnpruned := NewFeasibility(grid, rooms, unpruned, nil)

	// Pruning trims choices, never the set of components a schedule can
	// cover.
	seedPruned := GreedySeed(grid, pruned, feasPruned, []int{0}, NewOccupancy())
	seedUnpruned := GreedySeed(grid, unpruned, feasUnpruned, []int{0}, NewOccupancy())
	assert.Equal(t, len(seedUnpruned.Placed), len(seedPruned.Placed))
	assert.Equal(t, []int{0}, seedPruned.Placed)
}

func TestFixInfeasible(t *testing.T) {
	instance := testInstance()
	grid, arena, feas := testSetup(t, instance)
	builder := &Builder{Grid: grid, Rooms: instance.Rooms, Arena: arena, Feas: feas}
	pre := &Preprocessor{Arena: arena, Feas: feas}

	t.Run("clean model has nothing to pin", func(t *testing.T) {
		bm := builder.Build([]int{0, 1, 2}, NewOccupancy())
		// Candidate generation and the feasibility index agree, so nothing
		// to pin.
		assert.Zero(t, pre.FixInfeasible(bm, instance.Rooms))
	})

	t.Run("drifted start is pinned", func(t *testing.T) {
		bm := builder.Build([]int{0, 1, 2}, NewOccupancy())
		// Slot 1 begins on the half hour, which no session may start on.
		key := AssignKey{Session: 0, Room: 0, Start: 1}
		require.NotContains(t, feas.ValidStarts(0), 1)
		bm.X[key] = bm.Model.AddBinary("x_s0_r0_k1")

		assert.Equal(t, 1, pre.FixInfeasible(bm, instance.Rooms))
		found := false
		for _, c := range bm.Model.Constraints {
			if c.Name == "FixZero_s0_r0_k1" {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestBreakSymmetry(t *testing.T) {
	grid, err := NewGrid(DefaultGridConfig())
	require.NoError(t, err)
	rooms := []Room{{ID: "R1", Capacity: 40, Category: NonLabRoom}, {ID: "R2", Capacity: 40, Category: NonLabRoom}}

	// Two cohorts of the same size taking single-pattern courses of the
	// same shape: their sessions are interchangeable.
	courses := []Course{{Code: "PathFit 1", Name: "PE 1", Year: 1, Semester: 1, LectureHours: 2}}
	cohorts := []Cohort{
		{Program: "IT", Year: 1, Block: "A", Students: 30},
		{Program: "IT", Year: 1, Block: "B", Students: 30},
	}
	arena := Expander{Rules: DefaultCourseRules(), Semester: 1}.Expand(courses, cohorts)
	require.Len(t, arena.Components, 2)

	feas := NewFeasibility(grid, rooms, arena, nil)
	builder := &Builder{Grid: grid, Rooms: rooms, Arena: arena, Feas: feas}
	bm := builder.Build([]int{0, 1}, NewOccupancy())

	pre := &Preprocessor{Arena: arena, Feas: feas}
	added := pre.BreakSymmetry(bm)
	assert.Equal(t, 1, added)

	found := false
	for _, c := range bm.Model.Constraints {
		if strings.HasPrefix(c.Name, "Symmetry_") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBreakSymmetrySkipsMultiPatternComponents(t *testing.T) {
	instance := testInstance()
	grid, arena, feas := testSetup(t, instance)
	builder := &Builder{Grid: grid, Rooms: instance.Rooms, Arena: arena, Feas: feas}
	bm := builder.Build([]int{0, 1, 2}, NewOccupancy())

	pre := &Preprocessor{Arena: arena, Feas: feas}
	assert.Zero(t, pre.BreakSymmetry(bm))
}
