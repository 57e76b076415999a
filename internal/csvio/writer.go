package csvio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"classalloc/internal/engine"
)

// WriteSchedule writes the combined schedule to one CSV file.
func WriteSchedule(path string, entries []engine.Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return gocsv.MarshalFile(&entries, file)
}

// WriteScheduleByCohort writes one CSV per cohort into dir, named after the
// cohort key.
func WriteScheduleByCohort(dir string, entries []engine.Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	byCohort := make(map[string][]engine.Entry)
	for _, entry := range entries {
		byCohort[entry.Cohort] = append(byCohort[entry.Cohort], entry)
	}

	for cohort, rows := range byCohort {
		name := strings.ReplaceAll(cohort, " ", "_") + ".csv"
		if err := WriteSchedule(filepath.Join(dir, name), rows); err != nil {
			return fmt.Errorf("write schedule for %s: %w", cohort, err)
		}
	}
	return nil
}

type statusRow struct {
	Cohort    string `csv:"section"`
	Course    string `csv:"course_code"`
	Kind      string `csv:"type"`
	Scheduled bool   `csv:"scheduled"`
	Pattern   string `csv:"pattern"`
	Reason    string `csv:"reason"`
}

// WriteStatusReport writes the per-component verdicts, including the reason
// for every component left unscheduled.
func WriteStatusReport(path string, statuses []engine.ComponentStatus) error {
	rows := make([]statusRow, len(statuses))
	for i, status := range statuses {
		rows[i] = statusRow{
			Cohort:    status.Cohort,
			Course:    status.CourseCode,
			Kind:      status.Kind.String(),
			Scheduled: status.Scheduled,
			Pattern:   status.Pattern,
			Reason:    status.Reason,
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return gocsv.MarshalFile(&rows, file)
}
