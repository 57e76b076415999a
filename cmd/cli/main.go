package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"classalloc/internal/config"
	"classalloc/internal/csvio"
	"classalloc/internal/engine"
	"classalloc/internal/milp"
)

var (
	validStrategies = []string{"monolithic", "hierarchical", "progressive", "year-sliced", "program-sliced"}
	validSolvers    = []string{"cbc", "highs"}
	solvers         = map[string]func() milp.Solver{
		"cbc":   milp.NewCBCSolver,
		"highs": milp.NewHiGHSSolver,
	}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}

	// Define arguments; flags override the environment configuration.
	strategyPtr := flag.String("strategy", cfg.Run.Strategy, `Decomposition strategy. Allowed values are:
- "monolithic" (one model over every component),
- "hierarchical" (priority tiers: senior years first, labs before lectures),
- "progressive" (whole model re-solved with rising time budgets),
- "year-sliced" (one year level at a time, earlier slots carried forward) and
- "program-sliced" (one program at a time with lab-slot reservation)`)
	solverPtr := flag.String("solver", cfg.Solver.Name, "MILP solver to use. Allowed values are: \"cbc\" and \"highs\"")
	instancePtr := flag.String("instance", "", "Path to a single-file JSON instance; overrides the CSV inputs")
	coursesPtr := flag.String("courses", cfg.Files.Courses, "Path to the course catalog CSV")
	enrollmentPtr := flag.String("enrollment", cfg.Files.Enrollment, "Path to the enrollment CSV")
	roomsPtr := flag.String("rooms", cfg.Files.Rooms, "Path to the room inventory CSV")
	existingPtr := flag.String("existing", cfg.Files.Existing, "Path to an already-committed schedule CSV whose room slots must be avoided; may be empty")
	outPtr := flag.String("out", cfg.Files.OutDir, "Directory where the schedule, per-cohort files and the status report will be written")
	semesterPtr := flag.Int("semester", cfg.Rules.Semester, "Semester filter; 0 schedules every course")
	timeLimitPtr := flag.Duration("time-limit", cfg.Solver.TimeLimit, "Solver time budget per slice")
	gapPtr := flag.Float64("gap", cfg.Solver.GapTolerance, "Relative MIP gap tolerance")
	warmPtr := flag.Bool("warm-start", cfg.Solver.WarmStart, "Seed each slice with a greedy incumbent")
	preprocessPtr := flag.Bool("preprocess", cfg.Solver.Preprocess, "Run dominance, fixing and symmetry passes")
	flag.Parse()

	strategyName := strings.ToLower(*strategyPtr)
	solverName := strings.ToLower(*solverPtr)

	// Validate arguments
	if !slices.Contains(validStrategies, strategyName) {
		log.Fatalf("%v is not a valid strategy", strategyName)
	} else if !slices.Contains(validSolvers, solverName) {
		log.Fatalf("%v is not a valid solver", solverName)
	} else if *instancePtr == "" && (*coursesPtr == "" || *enrollmentPtr == "" || *roomsPtr == "") {
		log.Fatal("either an instance file or the courses, enrollment and rooms files must be specified")
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()

	gridCfg, err := cfg.Grid.Engine()
	if err != nil {
		logger.Fatal("invalid grid configuration", zap.Error(err))
	}
	grid, err := engine.NewGrid(gridCfg)
	if err != nil {
		logger.Fatal("invalid grid configuration", zap.Error(err))
	}
	starts, err := cfg.Grid.Starts()
	if err != nil {
		logger.Fatal("invalid canonical starts", zap.Error(err))
	}

	var instance engine.Instance
	if *instancePtr != "" {
		instance, err = engine.InstanceFromJSON(*instancePtr)
		if err != nil {
			logger.Fatal("cannot load instance file", zap.Error(err))
		}
	} else {
		instance, err = csvio.LoadInstance(*coursesPtr, *enrollmentPtr, *roomsPtr)
		if err != nil {
			logger.Fatal("cannot load input tables", zap.Error(err))
		}
	}

	blocked := engine.NewOccupancy()
	if *existingPtr != "" {
		existing, err := csvio.LoadExisting(*existingPtr)
		if err != nil {
			logger.Fatal("cannot load existing schedule", zap.Error(err))
		}
		blocked, err = engine.BlockExisting(grid, instance.Rooms, existing)
		if err != nil {
			logger.Fatal("cannot apply existing schedule", zap.Error(err))
		}
	}

	expander := engine.Expander{Rules: cfg.Rules.Engine(), Semester: *semesterPtr, Log: logger}
	arena := expander.Expand(instance.Courses, instance.Cohorts)
	feas := engine.NewFeasibility(grid, instance.Rooms, arena, starts)

	orch := &engine.Orchestrator{
		Solver: solvers[solverName](),
		Grid:   grid,
		Arena:  arena,
		Rooms:  instance.Rooms,
		Feas:   feas,
		Log:    logger,
		Opts: engine.RunOptions{
			TimeLimit:    *timeLimitPtr,
			GapTolerance: *gapPtr,
			WarmStart:    *warmPtr,
		},
		Blocked:    blocked,
		Stop:       interruptStop(logger),
		Preprocess: *preprocessPtr,
	}

	started := time.Now()
	outcome, err := orch.Run(pickStrategy(strategyName, cfg, grid, instance.Rooms))
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	violations := engine.ReplayCheck(grid, arena, instance.Rooms, feas, outcome)
	for _, violation := range violations {
		logger.Error("schedule violation", zap.Error(violation))
	}
	if len(violations) > 0 {
		logger.Fatal("schedule failed verification", zap.Int("violations", len(violations)))
	}

	entries := engine.ExtractSchedule(grid, arena, instance.Rooms, outcome)
	metrics := engine.ComputeMetrics(grid, arena, instance.Rooms, outcome)

	if err := os.MkdirAll(*outPtr, 0o755); err != nil {
		logger.Fatal("cannot create output directory", zap.Error(err))
	}
	if err := csvio.WriteSchedule(filepath.Join(*outPtr, "schedule.csv"), entries); err != nil {
		logger.Fatal("cannot write schedule", zap.Error(err))
	}
	if err := csvio.WriteScheduleByCohort(filepath.Join(*outPtr, "by_cohort"), entries); err != nil {
		logger.Fatal("cannot write per-cohort schedules", zap.Error(err))
	}
	if err := csvio.WriteStatusReport(filepath.Join(*outPtr, "statuses.csv"), outcome.Statuses); err != nil {
		logger.Fatal("cannot write status report", zap.Error(err))
	}

	logger.Info("schedule written",
		zap.String("strategy", strategyName),
		zap.String("solver", solverName),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("scheduled", outcome.ScheduledCount()),
		zap.Int("components", len(outcome.Statuses)),
		zap.Int("failed_slices", len(outcome.FailedSlices)),
		zap.Float64("utilization_pct", metrics.Utilization),
	)

	if outcome.ScheduledCount() < len(outcome.Statuses) {
		os.Exit(2)
	}
}

func pickStrategy(name string, cfg *config.Config, grid *engine.Grid, rooms []engine.Room) engine.Strategy {
	switch name {
	case "hierarchical":
		return engine.Hierarchical{}
	case "progressive":
		return engine.Progressive{TimeLimits: cfg.Run.TimeLimits}
	case "year-sliced":
		return engine.YearSliced{}
	case "program-sliced":
		return engine.ProgramSliced{Grid: grid, Rooms: rooms}
	default:
		return engine.Monolithic{}
	}
}

// interruptStop maps SIGINT/SIGTERM onto the orchestrator's between-slice
// stop check, so an interrupted run still writes the slices it finished.
func interruptStop(logger *zap.Logger) func() bool {
	var stopped atomic.Bool
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		logger.Warn("interrupt received, stopping after the current slice")
		stopped.Store(true)
	}()
	return stopped.Load
}
