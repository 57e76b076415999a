package engine

import (
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Component is one schedulable unit: (cohort, course, session kind). Exactly
// one of its patterns must be chosen in any solution.
type Component struct {
	ID           int
	CourseCode   string
	Kind         SessionKind
	Cohort       Cohort
	Students     int
	RoomCategory RoomCategory
	Patterns     []int
}

// Pattern is one weekly meeting shape owned by a component. Chosen as a unit:
// all of its sessions are placed or none are. Removed marks dominance
// tombstones; indices stay stable so cross-references never dangle.
type Pattern struct {
	ID            int
	Component     int
	Name          string
	DurationSlots int
	Meetings      int
	Rule          DayRule
	Sessions      []int
	Removed       bool
}

// Session is one concrete weekly meeting, the atomic unit assigned to a
// (room, start-slot) pair.
type Session struct {
	ID            int
	Pattern       int
	Component     int
	DurationSlots int
	Rule          DayRule
}

// Arena owns every component, pattern and session of a run, referenced by
// integer index only. Rebuilt from scratch each run, mutated afterwards only
// by the preprocessor's tombstoning.
type Arena struct {
	Components []Component
	Patterns   []Pattern
	Sessions   []Session
	Courses    map[string]Course
}

// ActivePatterns lists the component's patterns that survived preprocessing.
func (a *Arena) ActivePatterns(component int) []int {
	return lo.Filter(a.Components[component].Patterns, func(id int, _ int) bool {
		return !a.Patterns[id].Removed
	})
}

// ComponentLabel renders a component for logs and error reports.
func (a *Arena) ComponentLabel(component int) string {
	c := a.Components[component]
	return c.CourseCode + " " + c.Kind.String() + " / " + c.Cohort.Key()
}

// Expander materializes the arena from the input tables.
type Expander struct {
	Rules CourseRules
	// Semester filters courses when non-zero.
	Semester int
	Log      *zap.Logger
}

// Expand crosses cohorts with the courses of their program and year level
// (and the active semester), skipping excluded codes and zero-hour courses,
// and creates one component per session kind present in the course's pattern
// list.
func (e Expander) Expand(courses []Course, cohorts []Cohort) *Arena {
	arena := &Arena{Courses: make(map[string]Course, len(courses))}
	for _, course := range courses {
		arena.Courses[course.Code] = course
	}

	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	for _, cohort := range cohorts {
		for _, course := range courses {
			if course.Year != cohort.Year {
				continue
			}
			// Courses without a program marker are shared general
			// education subjects.
			if course.Program != "" && course.Program != cohort.Program {
				continue
			}
			if e.Semester != 0 && course.Semester != 0 && course.Semester != e.Semester {
				continue
			}
			if e.Rules.Excluded(course.Code) {
				continue
			}

			specs := e.Rules.PatternsFor(course)
			if len(specs) == 0 {
				continue
			}

			byKind := lo.GroupBy(specs, func(spec PatternSpec) SessionKind { return spec.Kind })
			for _, kind := range []SessionKind{Lecture, Lab} {
				kindSpecs, ok := byKind[kind]
				if !ok {
					continue
				}

				component := Component{
					ID:           len(arena.Components),
					CourseCode:   course.Code,
					Kind:         kind,
					Cohort:       cohort,
					Students:     cohort.Students,
					RoomCategory: RoomCategoryFor(kind),
				}

				for _, spec := range kindSpecs {
					pattern := Pattern{
						ID:            len(arena.Patterns),
						Component:     component.ID,
						Name:          spec.Name(),
						DurationSlots: spec.DurationSlots,
						Meetings:      spec.Meetings,
						Rule:          spec.Rule,
					}
					for meeting := 0; meeting < spec.Meetings; meeting++ {
						session := Session{
							ID:            len(arena.Sessions),
							Pattern:       pattern.ID,
							Component:     component.ID,
							DurationSlots: spec.DurationSlots,
							Rule:          spec.Rule,
						}
						pattern.Sessions = append(pattern.Sessions, session.ID)
						arena.Sessions = append(arena.Sessions, session)
					}
					component.Patterns = append(component.Patterns, pattern.ID)
					arena.Patterns = append(arena.Patterns, pattern)
				}

				arena.Components = append(arena.Components, component)
			}
		}
	}

	log.Info("expanded components",
		zap.Int("components", len(arena.Components)),
		zap.Int("patterns", len(arena.Patterns)),
		zap.Int("sessions", len(arena.Sessions)),
	)

	return arena
}
