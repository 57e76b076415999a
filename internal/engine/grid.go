package engine

import (
	"fmt"
	"strings"
)

type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

var dayNames = map[Day]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
}

// dayLetters follow the registrar convention: TH for Thursday to keep it
// distinct from Tuesday in concatenated day strings like "MTHF".
var dayLetters = map[Day]string{
	Monday:    "M",
	Tuesday:   "T",
	Wednesday: "W",
	Thursday:  "TH",
	Friday:    "F",
}

func (d Day) String() string {
	return dayNames[d]
}

func (d Day) Letter() string {
	return dayLetters[d]
}

// Window is a contiguous teaching range in minutes since midnight.
type Window struct {
	Start int
	End   int
}

// GridConfig describes the weekly teaching grid: two windows per day
// separated by a fixed midday gap, sliced into SlotMinutes pieces.
type GridConfig struct {
	Days        int
	SlotMinutes int
	Morning     Window
	Afternoon   Window
}

func DefaultGridConfig() GridConfig {
	return GridConfig{
		Days:        5,
		SlotMinutes: 30,
		Morning:     Window{Start: 8 * 60, End: 12 * 60},
		Afternoon:   Window{Start: 13 * 60, End: 17 * 60},
	}
}

// TimeSlot is one grid cell. Slots are contiguous within a window and never
// span the midday gap.
type TimeSlot struct {
	Index int
	Day   Day
	Start int
	End   int
}

type Grid struct {
	Slots       []TimeSlot
	SlotsPerDay int
	DayCount    int
}

// NewGrid builds the ordered slot sequence. Windows that do not divide evenly
// by the slot size are a configuration error, not something to round away.
func NewGrid(cfg GridConfig) (*Grid, error) {
	if cfg.Days < 1 || cfg.Days > 5 {
		return nil, &ConfigError{Field: "days", Reason: fmt.Sprintf("must be between 1 and 5, got %d", cfg.Days)}
	}
	if cfg.SlotMinutes <= 0 {
		return nil, &ConfigError{Field: "slot_minutes", Reason: "must be positive"}
	}
	for _, window := range []struct {
		name string
		w    Window
	}{{"morning", cfg.Morning}, {"afternoon", cfg.Afternoon}} {
		if window.w.End <= window.w.Start {
			return nil, &ConfigError{Field: window.name, Reason: "window end must be after start"}
		}
		if (window.w.End-window.w.Start)%cfg.SlotMinutes != 0 {
			return nil, &ConfigError{
				Field:  window.name,
				Reason: fmt.Sprintf("window %s-%s does not divide into %d-minute slots", FormatClock(window.w.Start), FormatClock(window.w.End), cfg.SlotMinutes),
			}
		}
	}
	if cfg.Afternoon.Start < cfg.Morning.End {
		return nil, &ConfigError{Field: "afternoon", Reason: "afternoon window overlaps the morning window"}
	}

	grid := &Grid{DayCount: cfg.Days}
	for day := 0; day < cfg.Days; day++ {
		for _, window := range []Window{cfg.Morning, cfg.Afternoon} {
			for start := window.Start; start < window.End; start += cfg.SlotMinutes {
				grid.Slots = append(grid.Slots, TimeSlot{
					Index: len(grid.Slots),
					Day:   Day(day),
					Start: start,
					End:   start + cfg.SlotMinutes,
				})
			}
		}
	}
	grid.SlotsPerDay = len(grid.Slots) / cfg.Days

	return grid, nil
}

// SlotIndex maps (day, within-day offset) to the global slot index.
func (g *Grid) SlotIndex(day Day, offset int) int {
	return int(day)*g.SlotsPerDay + offset
}

// DayOffset is the inverse of SlotIndex.
func (g *Grid) DayOffset(index int) (Day, int) {
	return Day(index / g.SlotsPerDay), index % g.SlotsPerDay
}

// Fits reports whether duration consecutive slots starting at index stay on
// one day without spanning the midday gap. Contiguity in wall-clock minutes
// is the gap check: the last morning slot ends before the first afternoon
// slot starts.
func (g *Grid) Fits(index, duration int) bool {
	last := index + duration - 1
	if last >= len(g.Slots) {
		return false
	}
	if g.Slots[last].Day != g.Slots[index].Day {
		return false
	}
	for i := index; i < last; i++ {
		if g.Slots[i].End != g.Slots[i+1].Start {
			return false
		}
	}
	return true
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", clock)
	}
	var hours, minutes int
	if _, err := fmt.Sscanf(parts[0], "%d", &hours); err != nil {
		return 0, fmt.Errorf("invalid clock value %q", clock)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &minutes); err != nil {
		return 0, fmt.Errorf("invalid clock value %q", clock)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", clock)
	}
	return hours*60 + minutes, nil
}
