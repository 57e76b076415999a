package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"classalloc/internal/engine"
	"classalloc/internal/milp"
)

// benchmarkRow is one strategy x solver x instance measurement.
type benchmarkRow struct {
	Strategy     string  `csv:"strategy"`
	Solver       string  `csv:"solver"`
	Programs     int     `csv:"programs"`
	Years        int     `csv:"years"`
	Blocks       int     `csv:"blocks"`
	Components   int     `csv:"components"`
	Sessions     int     `csv:"sessions"`
	Rooms        int     `csv:"rooms"`
	Scheduled    int     `csv:"scheduled"`
	FailedSlices int     `csv:"failed_slices"`
	Violations   int     `csv:"violations"`
	Objective    float64 `csv:"objective"`
	DurationMS   int64   `csv:"duration_ms"`
}

type instanceSize struct {
	Programs int
	Years    int
	Blocks   int
}

var (
	strategyNames = []string{"monolithic", "hierarchical", "progressive", "year-sliced", "program-sliced"}
	solverNames   = []string{"cbc", "highs"}
	solverBinary  = map[string]string{"cbc": "cbc", "highs": "highs"}
	solvers       = map[string]func() milp.Solver{
		"cbc":   milp.NewCBCSolver,
		"highs": milp.NewHiGHSSolver,
	}
	programNames = []string{"IT", "IS", "CS", "EMC", "DS", "SE"}
)

func main() {
	scalePtr := flag.Int("scale", 3, "How many of the built-in instance sizes to benchmark (smallest first)")
	timeLimitPtr := flag.Duration("time-limit", 2*time.Minute, "Solver time budget per slice")
	outPtr := flag.String("out", "benchmark_results.csv", "Path of the results CSV")
	flag.Parse()

	sizes := instanceSizes()
	if *scalePtr < len(sizes) {
		sizes = sizes[:*scalePtr]
	}

	available := availableSolvers()
	if len(available) == 0 {
		log.Fatalf("no solver binary found on PATH; install one of %v", solverNames)
	}

	results := make([]benchmarkRow, 0, len(sizes)*len(strategyNames)*len(available))
	for _, size := range sizes {
		instance := synthesize(size)
		for _, strategyName := range strategyNames {
			for _, solverName := range available {
				fmt.Printf("Benchmarking %dx%dx%d with strategy %q and solver %q\n",
					size.Programs, size.Years, size.Blocks, strategyName, solverName)
				results = append(results, measure(size, instance, strategyName, solverName, *timeLimitPtr))
			}
		}
	}

	if err := writeResults(*outPtr, results); err != nil {
		log.Fatalf("cannot write results: %v", err)
	}
	fmt.Printf("Wrote %d rows to %s\n", len(results), *outPtr)
}

// instanceSizes lists the benchmark ladder, smallest first. The last rungs
// are sized to force the sliced strategies to earn their keep.
func instanceSizes() []instanceSize {
	return []instanceSize{
		{Programs: 1, Years: 2, Blocks: 1},
		{Programs: 2, Years: 3, Blocks: 2},
		{Programs: 3, Years: 4, Blocks: 2},
		{Programs: 4, Years: 4, Blocks: 3},
		{Programs: 6, Years: 4, Blocks: 3},
	}
}

// synthesize builds a deterministic instance: per program and year level,
// three lecture-only courses, one course with a laboratory component and a
// shared general education course, with block cohorts of staggered sizes.
// Room inventories are derived from weekly slot demand with headroom so
// synthetic instances stay satisfiable.
func synthesize(size instanceSize) engine.Instance {
	var instance engine.Instance

	for year := 1; year <= size.Years; year++ {
		instance.Courses = append(instance.Courses, engine.Course{
			Code:         fmt.Sprintf("GE %d01", year),
			Name:         fmt.Sprintf("General Education %d", year),
			Year:         year,
			Semester:     1,
			LectureHours: 3,
		})
	}

	for p := 0; p < size.Programs; p++ {
		program := programNames[p%len(programNames)]
		for year := 1; year <= size.Years; year++ {
			for i := 1; i <= 3; i++ {
				instance.Courses = append(instance.Courses, engine.Course{
					Code:         fmt.Sprintf("%s %d0%d", program, year, i),
					Name:         fmt.Sprintf("%s Core %d-%d", program, year, i),
					Program:      program,
					Year:         year,
					Semester:     1,
					LectureHours: 3,
				})
			}
			instance.Courses = append(instance.Courses, engine.Course{
				Code:         fmt.Sprintf("%s %d04", program, year),
				Name:         fmt.Sprintf("%s Core %d-4 with Laboratory", program, year),
				Program:      program,
				Year:         year,
				Semester:     1,
				LectureHours: 2,
				LabHours:     1,
			})

			for b := 0; b < size.Blocks; b++ {
				instance.Cohorts = append(instance.Cohorts, engine.Cohort{
					Program:  program,
					Year:     year,
					Block:    string(rune('A' + b)),
					Students: 25 + 5*b,
				})
			}
		}
	}

	lectureRooms, labRooms := roomCounts(instance.Courses, instance.Cohorts)
	for i := 1; i <= lectureRooms; i++ {
		instance.Rooms = append(instance.Rooms, engine.Room{
			ID:       fmt.Sprintf("R%d", i),
			Capacity: 45,
			Category: engine.NonLabRoom,
		})
	}
	for i := 1; i <= labRooms; i++ {
		instance.Rooms = append(instance.Rooms, engine.Room{
			ID:       fmt.Sprintf("L%d", i),
			Capacity: 40,
			Category: engine.LabRoom,
		})
	}

	return instance
}

// roomCounts derives room inventories from weekly slot demand, with 40%
// headroom over a perfectly packed week.
func roomCounts(courses []engine.Course, cohorts []engine.Cohort) (lecture, lab int) {
	var lectureSlots, labSlots int
	for _, cohort := range cohorts {
		for _, course := range courses {
			if course.Year != cohort.Year {
				continue
			}
			if course.Program != "" && course.Program != cohort.Program {
				continue
			}
			lectureSlots += course.LectureHours * 2
			labSlots += course.LabHours * 3 * 2
		}
	}

	cfg := engine.DefaultGridConfig()
	slotsPerDay := (cfg.Morning.End - cfg.Morning.Start + cfg.Afternoon.End - cfg.Afternoon.Start) / cfg.SlotMinutes
	weeklyCapacity := cfg.Days * slotsPerDay
	lecture = ceilDiv(lectureSlots*14, weeklyCapacity*10)
	if labSlots > 0 {
		lab = ceilDiv(labSlots*14, weeklyCapacity*10)
	}
	if lecture == 0 {
		lecture = 1
	}
	return lecture, lab
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func measure(size instanceSize, instance engine.Instance, strategyName, solverName string, timeLimit time.Duration) benchmarkRow {
	grid, err := engine.NewGrid(engine.DefaultGridConfig())
	if err != nil {
		log.Fatalf("cannot build grid: %v", err)
	}

	expander := engine.Expander{Rules: engine.DefaultCourseRules(), Semester: 1}
	arena := expander.Expand(instance.Courses, instance.Cohorts)
	feas := engine.NewFeasibility(grid, instance.Rooms, arena, engine.DefaultCanonicalStarts())

	orch := &engine.Orchestrator{
		Solver: solvers[solverName](),
		Grid:   grid,
		Arena:  arena,
		Rooms:  instance.Rooms,
		Feas:   feas,
		Log:    zap.NewNop(),
		Opts: engine.RunOptions{
			TimeLimit:    timeLimit,
			GapTolerance: 0.05,
			WarmStart:    true,
		},
		Blocked:    engine.NewOccupancy(),
		Preprocess: true,
	}

	started := time.Now()
	outcome, err := orch.Run(pickStrategy(strategyName, grid, instance.Rooms))
	elapsed := time.Since(started)
	if err != nil {
		log.Fatalf("run failed for strategy %q with solver %q: %v", strategyName, solverName, err)
	}

	violations := engine.ReplayCheck(grid, arena, instance.Rooms, feas, outcome)

	return benchmarkRow{
		Strategy:     strategyName,
		Solver:       solverName,
		Programs:     size.Programs,
		Years:        size.Years,
		Blocks:       size.Blocks,
		Components:   len(arena.Components),
		Sessions:     len(arena.Sessions),
		Rooms:        len(instance.Rooms),
		Scheduled:    outcome.ScheduledCount(),
		FailedSlices: len(outcome.FailedSlices),
		Violations:   len(violations),
		Objective:    outcome.Objective,
		DurationMS:   elapsed.Milliseconds(),
	}
}

func pickStrategy(name string, grid *engine.Grid, rooms []engine.Room) engine.Strategy {
	switch name {
	case "hierarchical":
		return engine.Hierarchical{}
	case "progressive":
		return engine.Progressive{}
	case "year-sliced":
		return engine.YearSliced{}
	case "program-sliced":
		return engine.ProgramSliced{Grid: grid, Rooms: rooms}
	default:
		return engine.Monolithic{}
	}
}

func availableSolvers() []string {
	var available []string
	for _, name := range solverNames {
		if _, err := exec.LookPath(solverBinary[name]); err != nil {
			fmt.Printf("Skipping solver %q: binary not on PATH\n", name)
			continue
		}
		available = append(available, name)
	}
	return available
}

func writeResults(path string, results []benchmarkRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return gocsv.MarshalFile(&results, file)
}
