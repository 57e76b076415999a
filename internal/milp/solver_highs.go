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

const highsPath = "highs"

type highsSolver struct{}

// NewHiGHSSolver returns a Solver backed by the HiGHS command-line binary.
func NewHiGHSSolver() Solver {
	return &highsSolver{}
}

func (solver *highsSolver) Solve(model *Model, options Options) (Result, error) {
	dir, err := os.MkdirTemp("", "classalloc-highs-")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(dir)

	modelFile := filepath.Join(dir, "model.lp")
	solutionFile := filepath.Join(dir, "solution.txt")
	optionsFile := filepath.Join(dir, "options.txt")

	file, err := os.Create(modelFile)
	if err != nil {
		return Result{}, err
	}
	if err := model.WriteLP(file); err != nil {
		file.Close()
		return Result{}, err
	}
	file.Close()

	var optionLines strings.Builder
	if options.TimeLimit > 0 {
		fmt.Fprintf(&optionLines, "time_limit = %g\n", options.TimeLimit.Seconds())
	}
	if options.GapTolerance > 0 {
		fmt.Fprintf(&optionLines, "mip_rel_gap = %g\n", options.GapTolerance)
	}
	if err := os.WriteFile(optionsFile, []byte(optionLines.String()), 0644); err != nil {
		return Result{}, err
	}

	args := []string{modelFile, "--options_file", optionsFile, "--solution_file", solutionFile}
	if len(options.Initial) > 0 {
		startFile := filepath.Join(dir, "warm.sol")
		if err := writeHiGHSStart(startFile, model, options.Initial); err != nil {
			return Result{}, err
		}
		args = append(args, "--read_solution_file", startFile)
	}

	cmd := exec.Command(highsPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("highs execution failed: %v : %v", err, stderr.String())
	}

	output, err := os.ReadFile(solutionFile)
	if err != nil {
		return Result{}, fmt.Errorf("highs produced no solution file: %v", err)
	}

	return ParseHiGHSSolution(string(output), model.NumVars())
}

// ParseHiGHSSolution decodes HiGHS's pretty solution file: a "Model status"
// section followed by "# Columns" rows of "<name> <value>" pairs.
func ParseHiGHSSolution(output string, variables int) (Result, error) {
	lines := strings.Split(output, "\n")
	result := Result{Status: StatusNoSolution, Values: make([]float64, variables)}

	inColumns := false
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		switch {
		case line == "Model status":
			if i+1 < len(lines) {
				status := strings.TrimSpace(lines[i+1])
				switch status {
				case "Optimal":
					result.Status = StatusOptimal
				case "Infeasible":
					result.Status = StatusInfeasible
					return result, nil
				case "Time limit reached":
					result.Status = StatusFeasible
				default:
					result.Status = StatusNoSolution
				}
				i++
			}
		case strings.HasPrefix(line, "Objective"):
			parts := fields(line)
			if len(parts) == 2 {
				objective, err := strconv.ParseFloat(parts[1], 64)
				if err != nil {
					return Result{}, fmt.Errorf("cannot parse highs objective: %v", err)
				}
				result.Objective = objective
			}
		case strings.HasPrefix(line, "# Columns"):
			inColumns = true
		case strings.HasPrefix(line, "# Rows"):
			inColumns = false
		case inColumns && line != "":
			parts := fields(line)
			if len(parts) != 2 {
				continue
			}
			index := parseVarIndex(parts[0])
			if index < 0 || index >= variables {
				continue
			}
			value, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return Result{}, fmt.Errorf("invalid value in highs output: %v", err)
			}
			result.Values[index] = value
		}
	}

	if result.Status == StatusNoSolution {
		result.Values = nil
	}
	return result, nil
}

func writeHiGHSStart(path string, model *Model, initial map[Var]float64) error {
	var builder strings.Builder
	builder.WriteString("Model status\nOptimal\n\n# Primal solution values\nFeasible\n")
	fmt.Fprintf(&builder, "# Columns %d\n", model.NumVars())
	for v := 0; v < model.NumVars(); v++ {
		fmt.Fprintf(&builder, "x%d %g\n", v, initial[Var(v)])
	}
	return os.WriteFile(path, []byte(builder.String()), 0644)
}
