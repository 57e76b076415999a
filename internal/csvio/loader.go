package csvio

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"classalloc/internal/engine"
)

type courseRow struct {
	Code     string `csv:"code"`
	Name     string `csv:"name"`
	Program  string `csv:"program"`
	Year     int    `csv:"year"`
	Semester int    `csv:"semester"`
	LecHours int    `csv:"lec_hours"`
	LabHours int    `csv:"lab_hours"`
}

type enrollmentRow struct {
	Program  string `csv:"program"`
	Year     int    `csv:"year"`
	Block    string `csv:"block"`
	Students int    `csv:"students"`
}

type roomRow struct {
	RoomID   string `csv:"room_id"`
	Capacity int    `csv:"capacity"`
	Category string `csv:"room_category"`
}

type existingRow struct {
	Room string `csv:"room"`
	Days string `csv:"days"`
	Time string `csv:"time"`
}

func unmarshalFile[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows := []T{}
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}

// LoadCourses reads the course catalog table.
func LoadCourses(path string) ([]engine.Course, error) {
	rows, err := unmarshalFile[courseRow](path)
	if err != nil {
		return nil, err
	}

	courses := make([]engine.Course, 0, len(rows))
	for i, row := range rows {
		if row.Code == "" {
			return nil, fmt.Errorf("%s row %d: empty course code", path, i+1)
		}
		if row.Year < 1 {
			return nil, fmt.Errorf("%s row %d (%s): year must be at least 1", path, i+1, row.Code)
		}
		if row.LecHours < 0 || row.LabHours < 0 {
			return nil, fmt.Errorf("%s row %d (%s): negative hours", path, i+1, row.Code)
		}
		courses = append(courses, engine.Course{
			Code:         row.Code,
			Name:         row.Name,
			Program:      row.Program,
			Year:         row.Year,
			Semester:     row.Semester,
			LectureHours: row.LecHours,
			LabHours:     row.LabHours,
		})
	}
	return courses, nil
}

// LoadCohorts reads the enrollment table.
func LoadCohorts(path string) ([]engine.Cohort, error) {
	rows, err := unmarshalFile[enrollmentRow](path)
	if err != nil {
		return nil, err
	}

	cohorts := make([]engine.Cohort, 0, len(rows))
	for i, row := range rows {
		if row.Program == "" || row.Block == "" {
			return nil, fmt.Errorf("%s row %d: program and block are required", path, i+1)
		}
		if row.Students <= 0 {
			return nil, fmt.Errorf("%s row %d (%s-%d%s): students must be positive", path, i+1, row.Program, row.Year, row.Block)
		}
		cohorts = append(cohorts, engine.Cohort{
			Program:  row.Program,
			Year:     row.Year,
			Block:    row.Block,
			Students: row.Students,
		})
	}
	return cohorts, nil
}

// LoadRooms reads the room inventory table.
func LoadRooms(path string) ([]engine.Room, error) {
	rows, err := unmarshalFile[roomRow](path)
	if err != nil {
		return nil, err
	}

	rooms := make([]engine.Room, 0, len(rows))
	for i, row := range rows {
		if row.RoomID == "" {
			return nil, fmt.Errorf("%s row %d: empty room id", path, i+1)
		}
		if row.Capacity <= 0 {
			return nil, fmt.Errorf("%s row %d (%s): capacity must be positive", path, i+1, row.RoomID)
		}
		category, err := engine.ParseRoomCategory(row.Category)
		if err != nil {
			return nil, fmt.Errorf("%s row %d (%s): %w", path, i+1, row.RoomID, err)
		}
		rooms = append(rooms, engine.Room{
			ID:       row.RoomID,
			Capacity: row.Capacity,
			Category: category,
		})
	}
	return rooms, nil
}

// LoadExisting reads an already-committed schedule whose room slots must be
// avoided.
func LoadExisting(path string) ([]engine.ExistingEntry, error) {
	rows, err := unmarshalFile[existingRow](path)
	if err != nil {
		return nil, err
	}

	entries := make([]engine.ExistingEntry, len(rows))
	for i, row := range rows {
		entries[i] = engine.ExistingEntry{Room: row.Room, Days: row.Days, Time: row.Time}
	}
	return entries, nil
}

// LoadInstance bundles the three mandatory tables.
func LoadInstance(coursesPath, cohortsPath, roomsPath string) (engine.Instance, error) {
	courses, err := LoadCourses(coursesPath)
	if err != nil {
		return engine.Instance{}, err
	}
	cohorts, err := LoadCohorts(cohortsPath)
	if err != nil {
		return engine.Instance{}, err
	}
	rooms, err := LoadRooms(roomsPath)
	if err != nil {
		return engine.Instance{}, err
	}
	return engine.Instance{Courses: courses, Cohorts: cohorts, Rooms: rooms}, nil
}
