package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"classalloc/internal/milp"
)

// Slice is one unit of work for the orchestrator: which components to
// solve, optional solver overrides and extra blocked slots. A Refine slice
// re-solves the scope of the slice before it, warm-started from that
// slice's incumbent, instead of opening a new scope.
type Slice struct {
	Label      string
	Components []int
	Opts       *milp.Options
	Refine     bool
	Reserved   Occupancy
}

// Strategy plans how the arena is cut into slices. Strategies only plan;
// committing results and carrying occupancy between slices is the
// orchestrator's job.
type Strategy interface {
	Name() string
	Slices(arena *Arena) []Slice
}

// Monolithic solves every component in a single model. The baseline for
// small instances and the reference the sliced strategies are judged
// against.
type Monolithic struct{}

func (Monolithic) Name() string { return "monolithic" }

func (Monolithic) Slices(arena *Arena) []Slice {
	return []Slice{{
		Label:      "all",
		Components: lo.Map(arena.Components, func(c Component, _ int) int { return c.ID }),
	}}
}

// Hierarchical solves in priority tiers: senior cohorts first, and within
// a year the lab components before the lectures, since lab rooms are the
// scarcer resource.
type Hierarchical struct{}

func (Hierarchical) Name() string { return "hierarchical" }

func (Hierarchical) Slices(arena *Arena) []Slice {
	years := lo.Uniq(lo.Map(arena.Components, func(c Component, _ int) int { return c.Cohort.Year }))
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	var slices []Slice
	for _, year := range years {
		for _, kind := range []SessionKind{Lab, Lecture} {
			ids := componentIDs(arena, func(c Component) bool {
				return c.Cohort.Year == year && c.Kind == kind
			})
			if len(ids) == 0 {
				continue
			}
			slices = append(slices, Slice{
				Label:      fmt.Sprintf("year%d-%s", year, kind),
				Components: ids,
			})
		}
	}
	return slices
}

// Progressive solves the whole arena repeatedly with rising time limits and
// tightening gap tolerances, carrying the incumbent forward each round. The
// orchestrator stops the chain early once a round proves optimality.
type Progressive struct {
	TimeLimits []time.Duration
}

func (Progressive) Name() string { return "progressive" }

func (p Progressive) Slices(arena *Arena) []Slice {
	limits := p.TimeLimits
	if len(limits) == 0 {
		limits = []time.Duration{300 * time.Second, 600 * time.Second, 1200 * time.Second}
	}

	ids := lo.Map(arena.Components, func(c Component, _ int) int { return c.ID })
	slices := make([]Slice, len(limits))
	for i, limit := range limits {
		slices[i] = Slice{
			Label:      fmt.Sprintf("round%d", i+1),
			Components: ids,
			Opts: &milp.Options{
				TimeLimit:    limit,
				GapTolerance: math.Max(0.01, 0.1/float64(i+1)),
			},
			Refine: i > 0,
		}
	}
	return slices
}

// YearSliced solves one year level at a time, youngest first. Slots taken
// by earlier years stay blocked for later ones through the orchestrator's
// occupancy carry.
type YearSliced struct{}

func (YearSliced) Name() string { return "year-sliced" }

func (YearSliced) Slices(arena *Arena) []Slice {
	years := lo.Uniq(lo.Map(arena.Components, func(c Component, _ int) int { return c.Cohort.Year }))
	sort.Ints(years)

	var slices []Slice
	for _, year := range years {
		ids := componentIDs(arena, func(c Component) bool { return c.Cohort.Year == year })
		if len(ids) == 0 {
			continue
		}
		slices = append(slices, Slice{
			Label:      fmt.Sprintf("year%d", year),
			Components: ids,
		})
	}
	return slices
}

// ProgramSliced solves one program at a time, largest cohort population
// first. While a program is being solved, lab room blocks are reserved for
// the lab demand of the programs still waiting, so an early program cannot
// starve the rest of laboratory space.
type ProgramSliced struct {
	Grid  *Grid
	Rooms []Room
}

func (ProgramSliced) Name() string { return "program-sliced" }

func (ps ProgramSliced) Slices(arena *Arena) []Slice {
	blocks := make(map[string]map[string]bool)
	for _, c := range arena.Components {
		if blocks[c.Cohort.Program] == nil {
			blocks[c.Cohort.Program] = make(map[string]bool)
		}
		blocks[c.Cohort.Program][c.Cohort.Key()] = true
	}

	programs := lo.Keys(blocks)
	sort.Slice(programs, func(i, j int) bool {
		ni, nj := len(blocks[programs[i]]), len(blocks[programs[j]])
		if ni != nj {
			return ni > nj
		}
		return programs[i] < programs[j]
	})

	var slices []Slice
	for i, program := range programs {
		ids := componentIDs(arena, func(c Component) bool { return c.Cohort.Program == program })

		demand := 0
		for _, later := range programs[i+1:] {
			demand += len(componentIDs(arena, func(c Component) bool {
				return c.Cohort.Program == later && c.Kind == Lab
			}))
		}

		slices = append(slices, Slice{
			Label:      "program-" + program,
			Components: ids,
			Reserved:   ps.reserveLabBlocks(demand),
		})
	}
	return slices
}

// reserveLabBlocks blocks one lab room window per outstanding lab
// component: the same three-slot offset on two distinct days, alternating
// between the start of the morning and the start of the afternoon. Every
// lab pattern meets on multiple days in one room at one time of day, so a
// usable reservation must hold that shape open, not just raw slot count.
func (ps ProgramSliced) reserveLabBlocks(demand int) Occupancy {
	reserved := NewOccupancy()
	if demand == 0 || ps.Grid == nil {
		return reserved
	}

	const blockSlots = 3
	offsets := []int{0, ps.Grid.SlotsPerDay / 2}

	taken := 0
	for _, offset := range offsets {
		for first := 0; first+1 < ps.Grid.DayCount && taken < demand; first += 2 {
			for j, room := range ps.Rooms {
				if room.Category != LabRoom || taken >= demand {
					continue
				}
				for _, d := range []int{first, first + 1} {
					start := ps.Grid.SlotIndex(Day(d), offset)
					for s := 0; s < blockSlots && offset+s < ps.Grid.SlotsPerDay; s++ {
						reserved.Rooms[RoomSlot{j, start + s}] = true
					}
				}
				taken++
			}
		}
	}
	return reserved
}

func componentIDs(arena *Arena, keep func(Component) bool) []int {
	return lo.FilterMap(arena.Components, func(c Component, _ int) (int, bool) {
		return c.ID, keep(c)
	})
}
