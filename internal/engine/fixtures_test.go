package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testInstance() Instance {
	return Instance{
		Courses: []Course{
			{Code: "IT 101", Name: "Introduction to Computing", Program: "IT", Year: 1, Semester: 1, LectureHours: 3},
			{Code: "IT 102", Name: "Computer Programming 1", Program: "IT", Year: 1, Semester: 1, LectureHours: 2, LabHours: 1},
			{Code: "NSTP 1", Name: "Civic Welfare Training", Program: "IT", Year: 1, Semester: 1, LectureHours: 3},
		},
		Cohorts: []Cohort{
			{Program: "IT", Year: 1, Block: "A", Students: 30},
		},
		Rooms: []Room{
			{ID: "R1", Capacity: 40, Category: NonLabRoom},
			{ID: "L1", Capacity: 35, Category: LabRoom},
		},
	}
}

func testSetup(t *testing.T, instance Instance) (*Grid, *Arena, *Feasibility) {
	t.Helper()
	grid, err := NewGrid(DefaultGridConfig())
	require.NoError(t, err)
	arena := Expander{Rules: DefaultCourseRules(), Semester: 1}.Expand(instance.Courses, instance.Cohorts)
	feas := NewFeasibility(grid, instance.Rooms, arena, nil)
	return grid, arena, feas
}

func componentByKind(t *testing.T, arena *Arena, code string, kind SessionKind) *Component {
	t.Helper()
	for i := range arena.Components {
		c := &arena.Components[i]
		if c.CourseCode == code && c.Kind == kind {
			return c
		}
	}
	t.Fatalf("no %s component for %s", kind, code)
	return nil
}
