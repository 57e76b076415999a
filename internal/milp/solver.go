package milp

import (
	"strconv"
	"strings"
	"time"
)

type Status int

const (
	StatusOptimal Status = iota
	StatusFeasible
	StatusInfeasible
	StatusNoSolution
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "no_solution"
	}
}

// Options are the per-solve budgets. TimeLimit and GapTolerance are hard
// cutoffs enforced by the backend process, not retried here. Initial seeds the
// solver's incumbent when the backend supports warm starts.
type Options struct {
	TimeLimit    time.Duration
	GapTolerance float64
	Initial      map[Var]float64
}

// Result carries the backend's verdict. Values is indexed by Var and is only
// meaningful when Status is optimal or feasible.
type Result struct {
	Status    Status
	Values    []float64
	Objective float64
}

// Value reports whether v is set in a 0/1 solution.
func (r Result) Value(v Var) bool {
	return int(v) < len(r.Values) && r.Values[v] > 0.5
}

type Solver interface {
	Solve(*Model, Options) (Result, error)
}

// parseVarIndex maps a wire name emitted by WriteLP ("x42") back to its Var.
// Returns -1 for names that are not model variables (e.g. slack rows).
func parseVarIndex(name string) int {
	if len(name) < 2 || name[0] != 'x' {
		return -1
	}
	index, err := strconv.Atoi(name[1:])
	if err != nil {
		return -1
	}
	return index
}

func fields(line string) []string {
	return strings.Fields(strings.TrimSpace(line))
}
