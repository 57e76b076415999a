package engine

import "fmt"

// ConfigError is fatal: it aborts a run before any model is built.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Reason)
}

// InfeasibleComponentError names a component that cannot be scheduled at all:
// either it has no patterns or some session of every pattern has zero feasible
// (room, start) pairs. It is reported per component, never swallowed into a
// generic solver status.
type InfeasibleComponentError struct {
	Component  int
	CourseCode string
	Kind       SessionKind
	Cohort     string
	Reason     string
}

func (e *InfeasibleComponentError) Error() string {
	return fmt.Sprintf("component %d (%s %s for %s) is unschedulable: %s",
		e.Component, e.CourseCode, e.Kind, e.Cohort, e.Reason)
}

// SliceError records the failure of one decomposition slice. It does not halt
// the run; the orchestrator collects these and continues with the remaining
// slices.
type SliceError struct {
	Strategy string
	Slice    string
	Err      error
}

func (e *SliceError) Error() string {
	return fmt.Sprintf("%s strategy failed on slice %s: %v", e.Strategy, e.Slice, e.Err)
}

func (e *SliceError) Unwrap() error {
	return e.Err
}
