package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	instance := testInstance()
	_, arena, _ := testSetup(t, instance)

	// IT 101 lecture, IT 102 lecture, IT 102 lab. NSTP is excluded.
	assert.Len(t, arena.Components, 3)
	assert.Len(t, arena.Patterns, 6)
	assert.Len(t, arena.Sessions, 13)

	lecture := componentByKind(t, arena, "IT 101", Lecture)
	assert.Equal(t, NonLabRoom, lecture.RoomCategory)
	assert.Equal(t, 30, lecture.Students)
	assert.Equal(t, "IT-1A", lecture.Cohort.Key())
	assert.Len(t, lecture.Patterns, 2)

	lab := componentByKind(t, arena, "IT 102", Lab)
	assert.Equal(t, LabRoom, lab.RoomCategory)

	for _, pattern := range arena.Patterns {
		assert.Len(t, pattern.Sessions, pattern.Meetings, pattern.Name)
		for _, s := range pattern.Sessions {
			session := arena.Sessions[s]
			assert.Equal(t, pattern.ID, session.Pattern)
			assert.Equal(t, pattern.Component, session.Component)
			assert.Equal(t, pattern.DurationSlots, session.DurationSlots)
		}
	}
}

func TestExpandYearMatching(t *testing.T) {
	courses := []Course{
		{Code: "IT 101", Year: 1, Semester: 1, LectureHours: 3},
		{Code: "IT 201", Year: 2, Semester: 1, LectureHours: 3},
	}
	cohorts := []Cohort{
		{Program: "IT", Year: 2, Block: "A", Students: 25},
	}

	arena := Expander{Rules: DefaultCourseRules(), Semester: 1}.Expand(courses, cohorts)
	assert.Len(t, arena.Components, 1)
	assert.Equal(t, "IT 201", arena.Components[0].CourseCode)
}

func TestExpandProgramMatching(t *testing.T) {
	courses := []Course{
		{Code: "IT 201", Program: "IT", Year: 2, Semester: 1, LectureHours: 3},
		{Code: "IS 201", Program: "IS", Year: 2, Semester: 1, LectureHours: 3},
		{Code: "GE 5", Year: 2, Semester: 1, LectureHours: 3},
	}
	cohorts := []Cohort{{Program: "IT", Year: 2, Block: "A", Students: 25}}

	arena := Expander{Rules: DefaultCourseRules(), Semester: 1}.Expand(courses, cohorts)
	codes := []string{}
	for _, c := range arena.Components {
		codes = append(codes, c.CourseCode)
	}
	// Own-program courses plus shared general education subjects.
	assert.ElementsMatch(t, []string{"IT 201", "GE 5"}, codes)
}

func TestExpandSemesterFilter(t *testing.T) {
	courses := []Course{
		{Code: "IT 101", Year: 1, Semester: 1, LectureHours: 3},
		{Code: "IT 103", Year: 1, Semester: 2, LectureHours: 3},
		{Code: "IT 105", Year: 1, LectureHours: 3},
	}
	cohorts := []Cohort{{Program: "IT", Year: 1, Block: "A", Students: 25}}

	t.Run("filters when set", func(t *testing.T) {
		arena := Expander{Rules: DefaultCourseRules(), Semester: 2}.Expand(courses, cohorts)
		codes := []string{}
		for _, c := range arena.Components {
			codes = append(codes, c.CourseCode)
		}
		// Courses with no semester marker run every term.
		assert.ElementsMatch(t, []string{"IT 103", "IT 105"}, codes)
	})

	t.Run("keeps everything when unset", func(t *testing.T) {
		arena := Expander{Rules: DefaultCourseRules()}.Expand(courses, cohorts)
		assert.Len(t, arena.Components, 3)
	})
}

func TestActivePatterns(t *testing.T) {
	_, arena, _ := testSetup(t, testInstance())

	component := componentByKind(t, arena, "IT 101", Lecture)
	assert.Equal(t, component.Patterns, arena.ActivePatterns(component.ID))

	arena.Patterns[component.Patterns[0]].Removed = true
	assert.Equal(t, component.Patterns[1:], arena.ActivePatterns(component.ID))
}
