package milp

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const cbcPath = "cbc"

type cbcSolver struct{}

// NewCBCSolver returns a Solver backed by the COIN-OR CBC command-line binary.
func NewCBCSolver() Solver {
	return &cbcSolver{}
}

func (solver *cbcSolver) Solve(model *Model, options Options) (Result, error) {
	dir, err := os.MkdirTemp("", "classalloc-cbc-")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(dir)

	modelFile := filepath.Join(dir, "model.lp")
	solutionFile := filepath.Join(dir, "solution.txt")

	file, err := os.Create(modelFile)
	if err != nil {
		return Result{}, err
	}
	if err := model.WriteLP(file); err != nil {
		file.Close()
		return Result{}, err
	}
	file.Close()

	args := []string{modelFile}
	if options.TimeLimit > 0 {
		args = append(args, "sec", strconv.Itoa(int(options.TimeLimit.Seconds())))
	}
	if options.GapTolerance > 0 {
		args = append(args, "ratio", strconv.FormatFloat(options.GapTolerance, 'f', -1, 64))
	}
	if len(options.Initial) > 0 {
		startFile := filepath.Join(dir, "warm.mst")
		if err := writeMIPStart(startFile, model, options.Initial); err != nil {
			return Result{}, err
		}
		args = append(args, "mips", startFile)
	}
	args = append(args, "solve", "solution", solutionFile)

	cmd := exec.Command(cbcPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("cbc execution failed: %v : %v", err, stderr.String())
	}

	output, err := os.ReadFile(solutionFile)
	if err != nil {
		return Result{}, fmt.Errorf("cbc produced no solution file: %v", err)
	}

	return ParseCBCSolution(string(output), model.NumVars())
}

// ParseCBCSolution decodes CBC's "solution" file format. The first line holds
// the status and objective value, subsequent lines hold non-zero variables as
// "<row> <name> <value> <reduced-cost>".
func ParseCBCSolution(output string, variables int) (Result, error) {
	lines := strings.Split(output, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return Result{}, fmt.Errorf("empty cbc solution output")
	}

	header := strings.TrimSpace(lines[0])
	result := Result{Values: make([]float64, variables)}

	switch {
	case strings.HasPrefix(header, "Optimal"):
		result.Status = StatusOptimal
	case strings.HasPrefix(header, "Infeasible"):
		result.Status = StatusInfeasible
		return result, nil
	case strings.HasPrefix(header, "Unbounded"):
		return Result{}, fmt.Errorf("unexpected cbc status: %v", header)
	case strings.Contains(header, "objective value"):
		// CBC stops on time, iterations or gap; any stop that still
		// reports an objective carries a usable incumbent.
		result.Status = StatusFeasible
	default:
		result.Status = StatusNoSolution
		return result, nil
	}

	if idx := strings.Index(header, "objective value"); idx >= 0 {
		objective, err := strconv.ParseFloat(strings.TrimSpace(header[idx+len("objective value"):]), 64)
		if err != nil {
			return Result{}, fmt.Errorf("cannot parse cbc objective: %v", err)
		}
		result.Objective = objective
	}

	for _, line := range lines[1:] {
		parts := fields(line)
		if len(parts) < 3 {
			continue
		}
		index := parseVarIndex(parts[1])
		if index < 0 || index >= variables {
			continue
		}
		value, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return Result{}, fmt.Errorf("invalid value in cbc output: %v", err)
		}
		result.Values[index] = value
	}

	return result, nil
}

func writeMIPStart(path string, model *Model, initial map[Var]float64) error {
	var builder strings.Builder
	for v := 0; v < model.NumVars(); v++ {
		value := initial[Var(v)]
		fmt.Fprintf(&builder, "%d x%d %g\n", v, v, value)
	}
	return os.WriteFile(path, []byte(builder.String()), 0644)
}
