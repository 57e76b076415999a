package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInstanceFile(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "instance.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
	return path
}

func TestInstanceFromJSON(t *testing.T) {
	path := writeInstanceFile(t, `{
		"courses": [
			{"code": "IT 101", "name": "Introduction to Computing", "program": "IT", "year": 1, "semester": 1, "lec_hours": 3, "lab_hours": 0},
			{"code": "IT 102", "name": "Computer Programming 1", "program": "IT", "year": 1, "semester": 1, "lec_hours": 2, "lab_hours": 1}
		],
		"cohorts": [
			{"program": "IT", "year": 1, "block": "A", "students": 30}
		],
		"rooms": [
			{"id": "R1", "capacity": 40, "category": "non-lab"},
			{"id": "L1", "capacity": 35, "category": "Laboratory"}
		]
	}`)

	instance, err := InstanceFromJSON(path)
	require.NoError(t, err)

	require.Len(t, instance.Courses, 2)
	assert.Equal(t, "IT 101", instance.Courses[0].Code)
	assert.Equal(t, 3, instance.Courses[0].LectureHours)
	assert.Equal(t, 1, instance.Courses[1].LabHours)

	require.Len(t, instance.Cohorts, 1)
	assert.Equal(t, "IT-1A", instance.Cohorts[0].Key())
	assert.Equal(t, 30, instance.Cohorts[0].Students)

	require.Len(t, instance.Rooms, 2)
	assert.Equal(t, NonLabRoom, instance.Rooms[0].Category)
	assert.Equal(t, LabRoom, instance.Rooms[1].Category)
	assert.Equal(t, 35, instance.Rooms[1].Capacity)
}

func TestInstanceFromJSONErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := InstanceFromJSON(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeInstanceFile(t, `{"courses": [`)
		_, err := InstanceFromJSON(path)
		assert.Error(t, err)
	})

	t.Run("unknown room category", func(t *testing.T) {
		path := writeInstanceFile(t, `{
			"rooms": [{"id": "R1", "capacity": 40, "category": "gym"}]
		}`)
		_, err := InstanceFromJSON(path)
		assert.Error(t, err)
	})
}

func TestInstanceFromJSONFeedsExpansion(t *testing.T) {
	path := writeInstanceFile(t, `{
		"courses": [{"code": "IT 101", "name": "Introduction to Computing", "program": "IT", "year": 1, "semester": 1, "lec_hours": 3}],
		"cohorts": [{"program": "IT", "year": 1, "block": "A", "students": 30}],
		"rooms": [{"id": "R1", "capacity": 40, "category": "non-lab"}]
	}`)

	instance, err := InstanceFromJSON(path)
	require.NoError(t, err)

	arena := Expander{Rules: DefaultCourseRules(), Semester: 1}.Expand(instance.Courses, instance.Cohorts)
	require.Len(t, arena.Components, 1)
	assert.Equal(t, "IT 101", arena.Components[0].CourseCode)
}
