package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classalloc/internal/engine"
)

func TestSynthesizeShape(t *testing.T) {
	size := instanceSize{Programs: 2, Years: 3, Blocks: 2}
	instance := synthesize(size)

	// 3 shared GE courses plus 4 per program and year.
	assert.Len(t, instance.Courses, 3+2*3*4)
	assert.Len(t, instance.Cohorts, 2*3*2)

	var labRooms, lectureRooms int
	for _, room := range instance.Rooms {
		if room.Category == engine.LabRoom {
			labRooms++
		} else {
			lectureRooms++
		}
	}
	assert.Positive(t, lectureRooms)
	assert.Positive(t, labRooms)
}

func TestSynthesizeDeterministic(t *testing.T) {
	size := instanceSize{Programs: 1, Years: 2, Blocks: 1}
	assert.Equal(t, synthesize(size), synthesize(size))
}

func TestSynthesizedInstanceExpands(t *testing.T) {
	instance := synthesize(instanceSize{Programs: 2, Years: 3, Blocks: 2})

	expander := engine.Expander{Rules: engine.DefaultCourseRules(), Semester: 1}
	arena := expander.Expand(instance.Courses, instance.Cohorts)

	// Per cohort: three core lectures, one lecture plus lab pair and one
	// shared GE lecture.
	require.Len(t, arena.Components, 12*6)

	grid, err := engine.NewGrid(engine.DefaultGridConfig())
	require.NoError(t, err)
	feas := engine.NewFeasibility(grid, instance.Rooms, arena, engine.DefaultCanonicalStarts())

	for id := range arena.Sessions {
		assert.NotEmpty(t, feas.ValidStarts(id))
		assert.NotEmpty(t, feas.CandidateRooms(id), "session %d has no candidate rooms", id)
	}
}

func TestRoomCountsHeadroom(t *testing.T) {
	instance := synthesize(instanceSize{Programs: 2, Years: 3, Blocks: 2})

	lecture, lab := roomCounts(instance.Courses, instance.Cohorts)
	assert.Equal(t, 2, lecture)
	assert.Equal(t, 1, lab)
}

func TestPickStrategyNames(t *testing.T) {
	grid, err := engine.NewGrid(engine.DefaultGridConfig())
	require.NoError(t, err)

	for _, name := range strategyNames {
		assert.Equal(t, name, pickStrategy(name, grid, nil).Name())
	}
}
