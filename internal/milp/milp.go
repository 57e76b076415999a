package milp

import (
	"fmt"
	"io"
	"strings"
)

// Var identifies a binary decision variable within a Model.
type Var int

// Term is a coefficient applied to a variable inside a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	default:
		return "="
	}
}

// Constraint is a named linear constraint: sum(Terms) Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a binary integer program with a maximize objective. Variables carry
// a human-readable label for diagnostics; on the wire they are always written
// as x<index> so that solution files can be mapped back unambiguously.
type Model struct {
	labels      []string
	Constraints []Constraint
	Objective   []Term
}

func NewModel() *Model {
	return &Model{labels: []string{}}
}

// AddBinary registers a new binary variable and returns its handle.
func (m *Model) AddBinary(label string) Var {
	m.labels = append(m.labels, label)
	return Var(len(m.labels) - 1)
}

func (m *Model) NumVars() int {
	return len(m.labels)
}

func (m *Model) Label(v Var) string {
	return m.labels[v]
}

func (m *Model) Add(name string, terms []Term, sense Sense, rhs float64) {
	m.Constraints = append(m.Constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

// Maximize sets the objective. Later calls replace earlier ones.
func (m *Model) Maximize(terms []Term) {
	m.Objective = terms
}

// WriteLP serializes the model in CPLEX-LP text format, the lingua franca
// consumed by both the CBC and HiGHS command-line solvers.
func (m *Model) WriteLP(w io.Writer) error {
	var builder strings.Builder

	builder.WriteString("Maximize\n obj:")
	writeTerms(&builder, m.Objective)
	builder.WriteString("\nSubject To\n")

	for _, constraint := range m.Constraints {
		fmt.Fprintf(&builder, " %s:", constraint.Name)
		writeTerms(&builder, constraint.Terms)
		fmt.Fprintf(&builder, " %s %g\n", constraint.Sense, constraint.RHS)
	}

	builder.WriteString("Binary\n")
	for i := range m.labels {
		fmt.Fprintf(&builder, " x%d", i)
		if i%10 == 9 || i == len(m.labels)-1 {
			builder.WriteString("\n")
		}
	}
	builder.WriteString("End\n")

	_, err := io.WriteString(w, builder.String())
	return err
}

func writeTerms(builder *strings.Builder, terms []Term) {
	for _, term := range terms {
		if term.Coef >= 0 {
			fmt.Fprintf(builder, " +%g x%d", term.Coef, term.Var)
		} else {
			fmt.Fprintf(builder, " %g x%d", term.Coef, term.Var)
		}
	}
}
