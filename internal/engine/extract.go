package engine

import (
	"sort"
	"strings"
)

// Entry is one printable schedule row. Meetings of the same component that
// share a room and time range collapse into a single row with a combined
// day string, the registrar's "MWF" / "TTH" convention.
type Entry struct {
	Cohort       string  `csv:"section"`
	CourseCode   string  `csv:"course_code"`
	CourseName   string  `csv:"course_name"`
	Kind         string  `csv:"type"`
	Room         string  `csv:"room"`
	Days         string  `csv:"days"`
	Time         string  `csv:"time"`
	Instructor   string  `csv:"instructor"`
	Units        int     `csv:"units"`
	ContactHours int     `csv:"contact_hours"`
	LoadUnits    float64 `csv:"load_units"`
}

// Metrics summarizes how a schedule uses the room inventory.
type Metrics struct {
	RoomSlotsTotal int
	RoomSlotsUsed  int
	Utilization    float64
	Idle           float64
	ProgramShare   map[string]float64
}

// ExtractSchedule turns a run outcome into sorted schedule rows. Extraction
// is pure: running it twice on the same outcome yields identical rows.
func ExtractSchedule(grid *Grid, arena *Arena, rooms []Room, outcome *Outcome) []Entry {
	byComponent := make(map[int][]AssignKey)
	for key := range outcome.Assignments {
		c := arena.Sessions[key.Session].Component
		byComponent[c] = append(byComponent[c], key)
	}

	var entries []Entry
	for c, keys := range byComponent {
		component := &arena.Components[c]
		course := arena.Courses[component.CourseCode]

		type rowKey struct {
			Room int
			Time string
		}
		rows := make(map[rowKey][]Day)
		for _, key := range keys {
			day, _ := grid.DayOffset(key.Start)
			slot := grid.Slots[key.Start]
			duration := arena.Sessions[key.Session].DurationSlots
			end := grid.Slots[key.Start+duration-1].End
			rk := rowKey{Room: key.Room, Time: FormatClock(slot.Start) + "-" + FormatClock(end)}
			rows[rk] = append(rows[rk], day)
		}

		for rk, days := range rows {
			sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
			letters := make([]string, len(days))
			for i, day := range days {
				letters[i] = day.Letter()
			}
			entries = append(entries, Entry{
				Cohort:       component.Cohort.Key(),
				CourseCode:   component.CourseCode,
				CourseName:   course.Name,
				Kind:         component.Kind.String(),
				Room:         rooms[rk.Room].ID,
				Days:         strings.Join(letters, ""),
				Time:         rk.Time,
				Instructor:   "TBA",
				Units:        course.LectureHours + course.LabHours,
				ContactHours: course.LectureHours + course.LabHours*3,
				LoadUnits:    float64(course.LectureHours) + float64(course.LabHours)*3*0.75,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Cohort != b.Cohort {
			return a.Cohort < b.Cohort
		}
		if a.CourseCode != b.CourseCode {
			return a.CourseCode < b.CourseCode
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Time < b.Time
	})
	return entries
}

// ComputeMetrics reports room-slot utilization and the share of used slots
// per program.
func ComputeMetrics(grid *Grid, arena *Arena, rooms []Room, outcome *Outcome) Metrics {
	metrics := Metrics{
		RoomSlotsTotal: len(rooms) * len(grid.Slots),
		ProgramShare:   make(map[string]float64),
	}

	programSlots := make(map[string]int)
	for key := range outcome.Assignments {
		covered := arena.Sessions[key.Session].DurationSlots
		metrics.RoomSlotsUsed += covered
		program := arena.Components[arena.Sessions[key.Session].Component].Cohort.Program
		programSlots[program] += covered
	}

	if metrics.RoomSlotsTotal > 0 {
		metrics.Utilization = 100 * float64(metrics.RoomSlotsUsed) / float64(metrics.RoomSlotsTotal)
		metrics.Idle = 100 - metrics.Utilization
	}
	for program, slots := range programSlots {
		if metrics.RoomSlotsUsed > 0 {
			metrics.ProgramShare[program] = 100 * float64(slots) / float64(metrics.RoomSlotsUsed)
		}
	}
	return metrics
}
