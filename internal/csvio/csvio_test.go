package csvio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classalloc/internal/engine"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadInstance(t *testing.T) {
	dir := t.TempDir()
	courses := writeFile(t, dir, "courses.csv",
		"code,name,program,year,semester,lec_hours,lab_hours\n"+
			"IT 101,Introduction to Computing,IT,1,1,3,0\n"+
			"IT 102,Computer Programming 1,IT,1,1,2,1\n")
	cohorts := writeFile(t, dir, "enrollment.csv",
		"program,year,block,students\nIT,1,A,42\n")
	rooms := writeFile(t, dir, "rooms.csv",
		"room_id,capacity,room_category\nR1,45,non-lab\nL1,40,Laboratory\n")

	instance, err := LoadInstance(courses, cohorts, rooms)
	require.NoError(t, err)

	require.Len(t, instance.Courses, 2)
	assert.Equal(t, engine.Course{
		Code: "IT 101", Name: "Introduction to Computing", Program: "IT",
		Year: 1, Semester: 1, LectureHours: 3,
	}, instance.Courses[0])

	require.Len(t, instance.Cohorts, 1)
	assert.Equal(t, "IT-1A", instance.Cohorts[0].Key())
	assert.Equal(t, 42, instance.Cohorts[0].Students)

	require.Len(t, instance.Rooms, 2)
	assert.Equal(t, engine.NonLabRoom, instance.Rooms[0].Category)
	assert.Equal(t, engine.LabRoom, instance.Rooms[1].Category)
}

func TestLoadRejectsBadRows(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty course code", func(t *testing.T) {
		path := writeFile(t, dir, "bad_courses.csv",
			"code,name,program,year,semester,lec_hours,lab_hours\n,X,IT,1,1,3,0\n")
		_, err := LoadCourses(path)
		assert.ErrorContains(t, err, "empty course code")
	})

	t.Run("zero students", func(t *testing.T) {
		path := writeFile(t, dir, "bad_enrollment.csv",
			"program,year,block,students\nIT,1,A,0\n")
		_, err := LoadCohorts(path)
		assert.ErrorContains(t, err, "students must be positive")
	})

	t.Run("unknown room category", func(t *testing.T) {
		path := writeFile(t, dir, "bad_rooms.csv",
			"room_id,capacity,room_category\nR1,45,gym\n")
		_, err := LoadRooms(path)
		assert.ErrorContains(t, err, "unknown room category")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCourses(filepath.Join(dir, "nope.csv"))
		assert.Error(t, err)
	})
}

func TestLoadExisting(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "existing.csv",
		"room,days,time\nR1,MW,08:00-09:30\n")

	entries, err := LoadExisting(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, engine.ExistingEntry{Room: "R1", Days: "MW", Time: "08:00-09:30"}, entries[0])
}

func TestWriteScheduleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	entries := []engine.Entry{
		{Cohort: "IT-1A", CourseCode: "IT 101", CourseName: "Introduction to Computing",
			Kind: "lecture", Room: "R1", Days: "MT", Time: "08:00-09:30",
			Instructor: "TBA", Units: 3, ContactHours: 3, LoadUnits: 3},
		{Cohort: "IT-2A", CourseCode: "IT 202", CourseName: "Data Structures",
			Kind: "lab", Room: "L1", Days: "MT", Time: "13:00-14:30",
			Instructor: "TBA", Units: 3, ContactHours: 5, LoadUnits: 4.25},
	}

	path := filepath.Join(dir, "schedule.csv")
	require.NoError(t, WriteSchedule(path, entries))

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "section,course_code")
	assert.Contains(t, string(data), "IT 101")

	t.Run("per cohort files", func(t *testing.T) {
		out := filepath.Join(dir, "by_cohort")
		require.NoError(t, WriteScheduleByCohort(out, entries))
		assert.FileExists(t, filepath.Join(out, "IT-1A.csv"))
		assert.FileExists(t, filepath.Join(out, "IT-2A.csv"))
	})
}

func TestWriteStatusReport(t *testing.T) {
	dir := t.TempDir()
	statuses := []engine.ComponentStatus{
		{Component: 0, CourseCode: "IT 101", Cohort: "IT-1A", Kind: engine.Lecture, Scheduled: true, Pattern: "2_days_3x2"},
		{Component: 1, CourseCode: "IT 102", Cohort: "IT-1A", Kind: engine.Lab, Reason: "no pattern has a placement for every session"},
	}

	path := filepath.Join(dir, "statuses.csv")
	require.NoError(t, WriteStatusReport(path, statuses))

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "2_days_3x2")
	assert.Contains(t, string(data), "no pattern has a placement")
}
