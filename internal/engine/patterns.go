package engine

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type SessionKind int

const (
	Lecture SessionKind = iota
	Lab
)

func (k SessionKind) String() string {
	if k == Lab {
		return "lab"
	}
	return "lecture"
}

// RoomCategoryFor maps a session kind to the room category it may use. The
// partition is strict policy: lectures never sit in lab rooms even though
// physically they could.
func RoomCategoryFor(kind SessionKind) RoomCategory {
	if kind == Lab {
		return LabRoom
	}
	return NonLabRoom
}

// DayRule restricts which weekdays a session may start on.
type DayRule int

const (
	// AnyDay permits all weekdays.
	AnyDay DayRule = iota
	// MWF pins meetings to Monday, Wednesday and Friday.
	MWF
	// TwoOfFive permits any weekday; the distinct-day constraint spreads the
	// two meetings onto different days.
	TwoOfFive
)

func (r DayRule) String() string {
	switch r {
	case MWF:
		return "MWF"
	case TwoOfFive:
		return "2_days"
	default:
		return "any_day"
	}
}

// Allows reports whether the rule permits a meeting on the given day.
func (r DayRule) Allows(day Day) bool {
	if r == MWF {
		return day == Monday || day == Wednesday || day == Friday
	}
	return true
}

// PatternSpec is one pedagogically valid weekly meeting shape for a course
// session type. Durations are in grid slots (30-minute units).
type PatternSpec struct {
	Kind          SessionKind
	DurationSlots int
	Rule          DayRule
	Meetings      int
}

func (p PatternSpec) Name() string {
	return fmt.Sprintf("%s_%dx%d", p.Rule, p.DurationSlots, p.Meetings)
}

// CourseRules configures the special-case course handling. These codes
// short-circuit the generic hour-based pattern rules.
type CourseRules struct {
	// PracticumCodes are off-campus internship courses delivered as a weekly
	// lecture check-in regardless of their nominal lab hours.
	PracticumCodes []string
	// SingleBlockPrefixes mark physical-education style courses taught as one
	// fixed 2-hour block per week.
	SingleBlockPrefixes []string
	// ExcludedPrefixes are scheduled entirely outside this system (e.g.
	// Saturday civic-welfare courses) and produce no components.
	ExcludedPrefixes []string
}

func DefaultCourseRules() CourseRules {
	return CourseRules{
		PracticumCodes:      []string{"IT 128", "IS 404"},
		SingleBlockPrefixes: []string{"PathFit"},
		ExcludedPrefixes:    []string{"NSTP"},
	}
}

func (r CourseRules) Excluded(code string) bool {
	return lo.SomeBy(r.ExcludedPrefixes, func(prefix string) bool {
		return strings.HasPrefix(code, prefix)
	})
}

// PatternsFor derives the candidate meeting shapes for a course. Precedence:
// special-case codes first, then the generic lecture/lab hour rules. A course
// with neither lecture nor lab hours yields nothing and is skipped upstream.
func (r CourseRules) PatternsFor(course Course) []PatternSpec {
	if lo.Contains(r.PracticumCodes, course.Code) {
		return []PatternSpec{
			{Kind: Lecture, DurationSlots: 2, Rule: TwoOfFive, Meetings: 2},
			{Kind: Lecture, DurationSlots: 4, Rule: AnyDay, Meetings: 1},
		}
	}
	if lo.SomeBy(r.SingleBlockPrefixes, func(prefix string) bool { return strings.HasPrefix(course.Code, prefix) }) {
		return []PatternSpec{
			{Kind: Lecture, DurationSlots: 4, Rule: AnyDay, Meetings: 1},
		}
	}

	specs := []PatternSpec{}

	if course.LectureHours > 0 {
		if course.LabHours == 0 {
			// Pure lecture courses carry 3 weekly hours.
			specs = append(specs,
				PatternSpec{Kind: Lecture, DurationSlots: 3, Rule: TwoOfFive, Meetings: 2},
				PatternSpec{Kind: Lecture, DurationSlots: 2, Rule: MWF, Meetings: 3},
			)
		} else {
			// Lectures paired with a lab carry 2 weekly hours.
			specs = append(specs,
				PatternSpec{Kind: Lecture, DurationSlots: 2, Rule: TwoOfFive, Meetings: 2},
				PatternSpec{Kind: Lecture, DurationSlots: 4, Rule: AnyDay, Meetings: 1},
			)
		}
	}

	if course.LabHours > 0 {
		// All labs carry 3 weekly contact hours.
		specs = append(specs,
			PatternSpec{Kind: Lab, DurationSlots: 3, Rule: TwoOfFive, Meetings: 2},
			PatternSpec{Kind: Lab, DurationSlots: 2, Rule: MWF, Meetings: 3},
		)
	}

	return specs
}
