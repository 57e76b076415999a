package engine

import (
	"fmt"
	"strings"
)

type RoomSlot struct {
	Room int
	Slot int
}

type CohortSlot struct {
	Cohort string
	Slot   int
}

// Occupancy is the blocked-slot state carried across decomposition slices:
// (room, slot) pairs a session may not cover and (cohort, slot) pairs a
// cohort's sessions may not cover.
type Occupancy struct {
	Rooms   map[RoomSlot]bool
	Cohorts map[CohortSlot]bool
}

func NewOccupancy() Occupancy {
	return Occupancy{
		Rooms:   make(map[RoomSlot]bool),
		Cohorts: make(map[CohortSlot]bool),
	}
}

func (o Occupancy) Clone() Occupancy {
	clone := NewOccupancy()
	clone.Merge(o)
	return clone
}

func (o Occupancy) Merge(other Occupancy) {
	for key := range other.Rooms {
		o.Rooms[key] = true
	}
	for key := range other.Cohorts {
		o.Cohorts[key] = true
	}
}

// Blocked reports whether placing cohort's session into (room, slot) collides
// with committed state.
func (o Occupancy) Blocked(room, slot int, cohort string) bool {
	return o.Rooms[RoomSlot{room, slot}] || o.Cohorts[CohortSlot{cohort, slot}]
}

// ExistingEntry is one row of an already-committed schedule: a room, a
// concatenated day string ("MW", "TTH", "MWF") and a time range
// ("08:00-09:30"). Entries block room slots so a later run cannot collide
// with a schedule produced earlier.
type ExistingEntry struct {
	Room string
	Days string
	Time string
}

// BlockExisting converts prior-schedule rows into blocked (room, slot) pairs.
// Unknown rooms are skipped; malformed rows are an error because silently
// ignoring them would invite double bookings.
func BlockExisting(grid *Grid, rooms []Room, entries []ExistingEntry) (Occupancy, error) {
	occupancy := NewOccupancy()

	roomIndex := make(map[string]int, len(rooms))
	for j, room := range rooms {
		roomIndex[room.ID] = j
	}

	for _, entry := range entries {
		j, ok := roomIndex[entry.Room]
		if !ok {
			continue
		}
		days, err := parseDayString(entry.Days)
		if err != nil {
			return Occupancy{}, fmt.Errorf("existing schedule row for room %s: %w", entry.Room, err)
		}
		start, end, err := parseTimeRange(entry.Time)
		if err != nil {
			return Occupancy{}, fmt.Errorf("existing schedule row for room %s: %w", entry.Room, err)
		}

		for _, slot := range grid.Slots {
			if slot.Start >= start && slot.End <= end && days[slot.Day] {
				occupancy.Rooms[RoomSlot{j, slot.Index}] = true
			}
		}
	}

	return occupancy, nil
}

// parseDayString scans a registrar day string. TH must be consumed before T
// so "TTH" reads as Tuesday+Thursday.
func parseDayString(days string) (map[Day]bool, error) {
	parsed := make(map[Day]bool)
	raw := strings.ToUpper(strings.TrimSpace(days))
	for i := 0; i < len(raw); {
		switch {
		case strings.HasPrefix(raw[i:], "TH"):
			parsed[Thursday] = true
			i += 2
		case raw[i] == 'M':
			parsed[Monday] = true
			i++
		case raw[i] == 'T':
			parsed[Tuesday] = true
			i++
		case raw[i] == 'W':
			parsed[Wednesday] = true
			i++
		case raw[i] == 'F':
			parsed[Friday] = true
			i++
		default:
			return nil, fmt.Errorf("invalid day string %q", days)
		}
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("empty day string")
	}
	return parsed, nil
}

func parseTimeRange(timeRange string) (int, int, error) {
	parts := strings.Split(timeRange, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time range %q", timeRange)
	}
	start, err := ParseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("time range %q ends before it starts", timeRange)
	}
	return start, end, nil
}
