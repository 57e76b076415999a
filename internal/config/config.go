package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"classalloc/internal/engine"
)

// Config is the full run configuration. Every value has a default matching
// the engine's stock behavior, so an empty environment is a valid one.
type Config struct {
	Grid   GridConfig
	Rules  RulesConfig
	Solver SolverConfig
	Run    RunConfig
	Files  FilesConfig
	Log    LogConfig
}

type GridConfig struct {
	Days           int
	SlotMinutes    int
	MorningStart   string
	MorningEnd     string
	AfternoonStart string
	AfternoonEnd   string
	// CanonicalStarts maps a duration in slots to its permitted start
	// clocks, e.g. "3=08:00|09:30|13:00|14:30".
	CanonicalStarts string
}

type RulesConfig struct {
	PracticumCodes      []string
	SingleBlockPrefixes []string
	ExcludedPrefixes    []string
	Semester            int
}

type SolverConfig struct {
	Name         string
	TimeLimit    time.Duration
	GapTolerance float64
	WarmStart    bool
	Preprocess   bool
}

type RunConfig struct {
	Strategy string
	// TimeLimits drives the progressive strategy's rounds.
	TimeLimits []time.Duration
}

type FilesConfig struct {
	Courses    string
	Enrollment string
	Rooms      string
	Existing   string
	OutDir     string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing .env file is fine; the defaults and the process
		// environment carry the configuration.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Grid = GridConfig{
		Days:            v.GetInt("GRID_DAYS"),
		SlotMinutes:     v.GetInt("GRID_SLOT_MINUTES"),
		MorningStart:    v.GetString("GRID_MORNING_START"),
		MorningEnd:      v.GetString("GRID_MORNING_END"),
		AfternoonStart:  v.GetString("GRID_AFTERNOON_START"),
		AfternoonEnd:    v.GetString("GRID_AFTERNOON_END"),
		CanonicalStarts: v.GetString("GRID_CANONICAL_STARTS"),
	}

	cfg.Rules = RulesConfig{
		PracticumCodes:      splitAndTrim(v.GetString("RULES_PRACTICUM_CODES")),
		SingleBlockPrefixes: splitAndTrim(v.GetString("RULES_SINGLE_BLOCK_PREFIXES")),
		ExcludedPrefixes:    splitAndTrim(v.GetString("RULES_EXCLUDED_PREFIXES")),
		Semester:            v.GetInt("RULES_SEMESTER"),
	}

	cfg.Solver = SolverConfig{
		Name:         strings.ToLower(v.GetString("SOLVER")),
		TimeLimit:    parseDuration(v.GetString("SOLVER_TIME_LIMIT"), 5*time.Minute),
		GapTolerance: v.GetFloat64("SOLVER_GAP_TOLERANCE"),
		WarmStart:    v.GetBool("SOLVER_WARM_START"),
		Preprocess:   v.GetBool("SOLVER_PREPROCESS"),
	}

	cfg.Run = RunConfig{
		Strategy:   strings.ToLower(v.GetString("STRATEGY")),
		TimeLimits: parseDurations(v.GetString("PROGRESSIVE_TIME_LIMITS")),
	}

	cfg.Files = FilesConfig{
		Courses:    v.GetString("FILE_COURSES"),
		Enrollment: v.GetString("FILE_ENROLLMENT"),
		Rooms:      v.GetString("FILE_ROOMS"),
		Existing:   v.GetString("FILE_EXISTING"),
		OutDir:     v.GetString("OUT_DIR"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GRID_DAYS", 5)
	v.SetDefault("GRID_SLOT_MINUTES", 30)
	v.SetDefault("GRID_MORNING_START", "08:00")
	v.SetDefault("GRID_MORNING_END", "12:00")
	v.SetDefault("GRID_AFTERNOON_START", "13:00")
	v.SetDefault("GRID_AFTERNOON_END", "17:00")
	v.SetDefault("GRID_CANONICAL_STARTS", "3=08:00|09:30|13:00|14:30")

	v.SetDefault("RULES_PRACTICUM_CODES", "IT 128,IS 404")
	v.SetDefault("RULES_SINGLE_BLOCK_PREFIXES", "PathFit")
	v.SetDefault("RULES_EXCLUDED_PREFIXES", "NSTP")
	v.SetDefault("RULES_SEMESTER", 0)

	v.SetDefault("SOLVER", "cbc")
	v.SetDefault("SOLVER_TIME_LIMIT", "5m")
	v.SetDefault("SOLVER_GAP_TOLERANCE", 0.05)
	v.SetDefault("SOLVER_WARM_START", true)
	v.SetDefault("SOLVER_PREPROCESS", true)

	v.SetDefault("STRATEGY", "monolithic")
	v.SetDefault("PROGRESSIVE_TIME_LIMITS", "5m,10m,20m")

	v.SetDefault("FILE_COURSES", "courses.csv")
	v.SetDefault("FILE_ENROLLMENT", "enrollment.csv")
	v.SetDefault("FILE_ROOMS", "rooms.csv")
	v.SetDefault("FILE_EXISTING", "")
	v.SetDefault("OUT_DIR", "out")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// GridConfig converts the clock strings into the engine's minute-based
// representation.
func (c GridConfig) Engine() (engine.GridConfig, error) {
	cfg := engine.GridConfig{Days: c.Days, SlotMinutes: c.SlotMinutes}

	clocks := []struct {
		value string
		dst   *int
	}{
		{c.MorningStart, &cfg.Morning.Start},
		{c.MorningEnd, &cfg.Morning.End},
		{c.AfternoonStart, &cfg.Afternoon.Start},
		{c.AfternoonEnd, &cfg.Afternoon.End},
	}
	for _, clock := range clocks {
		minutes, err := engine.ParseClock(clock.value)
		if err != nil {
			return engine.GridConfig{}, err
		}
		*clock.dst = minutes
	}
	return cfg, nil
}

// Starts parses the canonical start spec. Entries are semicolon-separated
// "durationSlots=clock|clock|..." pairs.
func (c GridConfig) Starts() (engine.CanonicalStarts, error) {
	spec := strings.TrimSpace(c.CanonicalStarts)
	if spec == "" {
		return nil, nil
	}

	starts := engine.CanonicalStarts{}
	for _, entry := range strings.Split(spec, ";") {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid canonical start entry %q", entry)
		}
		duration, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || duration < 1 {
			return nil, fmt.Errorf("invalid duration in canonical start entry %q", entry)
		}
		for _, clock := range strings.Split(parts[1], "|") {
			minutes, err := engine.ParseClock(clock)
			if err != nil {
				return nil, err
			}
			starts[duration] = append(starts[duration], minutes)
		}
	}
	return starts, nil
}

// Engine converts the rule lists into the expander's configuration.
func (c RulesConfig) Engine() engine.CourseRules {
	return engine.CourseRules{
		PracticumCodes:      c.PracticumCodes,
		SingleBlockPrefixes: c.SingleBlockPrefixes,
		ExcludedPrefixes:    c.ExcludedPrefixes,
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func parseDurations(raw string) []time.Duration {
	var durations []time.Duration
	for _, part := range splitAndTrim(raw) {
		if d, err := time.ParseDuration(part); err == nil {
			durations = append(durations, d)
		}
	}
	return durations
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
