package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayString(t *testing.T) {
	cases := []struct {
		in   string
		want []Day
	}{
		{"MWF", []Day{Monday, Wednesday, Friday}},
		{"TTH", []Day{Tuesday, Thursday}},
		{"TH", []Day{Thursday}},
		{"MTWTHF", []Day{Monday, Tuesday, Wednesday, Thursday, Friday}},
		{"mw", []Day{Monday, Wednesday}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			days, err := parseDayString(tc.in)
			require.NoError(t, err)
			got := []Day{}
			for _, day := range []Day{Monday, Tuesday, Wednesday, Thursday, Friday} {
				if days[day] {
					got = append(got, day)
				}
			}
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"", "X", "MQ"} {
		_, err := parseDayString(bad)
		assert.Error(t, err, bad)
	}
}

func TestBlockExisting(t *testing.T) {
	grid, err := NewGrid(DefaultGridConfig())
	require.NoError(t, err)
	rooms := []Room{
		{ID: "R1", Capacity: 40, Category: NonLabRoom},
		{ID: "R2", Capacity: 40, Category: NonLabRoom},
	}

	occ, err := BlockExisting(grid, rooms, []ExistingEntry{
		{Room: "R1", Days: "MW", Time: "08:00-09:30"},
		{Room: "unknown", Days: "F", Time: "08:00-09:00"},
	})
	require.NoError(t, err)

	// Three slots on Monday and three on Wednesday for room R1.
	assert.Len(t, occ.Rooms, 6)
	assert.True(t, occ.Blocked(0, grid.SlotIndex(Monday, 0), "IT-1A"))
	assert.True(t, occ.Blocked(0, grid.SlotIndex(Wednesday, 2), "IT-1A"))
	assert.False(t, occ.Blocked(0, grid.SlotIndex(Monday, 3), "IT-1A"))
	assert.False(t, occ.Blocked(1, grid.SlotIndex(Monday, 0), "IT-1A"))
}

func TestBlockExistingRejectsMalformedRows(t *testing.T) {
	grid, err := NewGrid(DefaultGridConfig())
	require.NoError(t, err)
	rooms := []Room{{ID: "R1", Capacity: 40, Category: NonLabRoom}}

	cases := []ExistingEntry{
		{Room: "R1", Days: "XYZ", Time: "08:00-09:00"},
		{Room: "R1", Days: "MW", Time: "08:00"},
		{Room: "R1", Days: "MW", Time: "09:00-08:00"},
	}
	for _, entry := range cases {
		_, err := BlockExisting(grid, rooms, []ExistingEntry{entry})
		assert.Error(t, err)
	}
}

func TestOccupancyMergeAndClone(t *testing.T) {
	a := NewOccupancy()
	a.Rooms[RoomSlot{0, 1}] = true
	a.Cohorts[CohortSlot{"IT-1A", 1}] = true

	b := a.Clone()
	b.Rooms[RoomSlot{0, 2}] = true

	assert.False(t, a.Rooms[RoomSlot{0, 2}], "clone must not alias the original")
	assert.True(t, b.Rooms[RoomSlot{0, 1}])
	assert.True(t, b.Cohorts[CohortSlot{"IT-1A", 1}])
}
