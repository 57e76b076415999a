package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Course is one catalog entry. Hours are weekly credit hours; the pattern
// catalog translates them into meeting shapes.
type Course struct {
	Code         string
	Name         string
	Program      string
	Year         int
	Semester     int
	LectureHours int `mapstructure:"lec_hours"`
	LabHours     int `mapstructure:"lab_hours"`
}

// Cohort is a fixed block of students enrolled together (program+year+block).
type Cohort struct {
	Program  string
	Year     int
	Block    string
	Students int
}

// Key is the stable identifier used for cohort-conflict bookkeeping and
// output grouping, e.g. "IT-2A".
func (c Cohort) Key() string {
	return fmt.Sprintf("%s-%d%s", c.Program, c.Year, c.Block)
}

type RoomCategory int

const (
	NonLabRoom RoomCategory = iota
	LabRoom
)

func (c RoomCategory) String() string {
	if c == LabRoom {
		return "lab"
	}
	return "non-lab"
}

func ParseRoomCategory(value string) (RoomCategory, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "lab", "laboratory":
		return LabRoom, nil
	case "non-lab", "nonlab", "lecture":
		return NonLabRoom, nil
	default:
		return NonLabRoom, fmt.Errorf("unknown room category %q", value)
	}
}

type Room struct {
	ID       string
	Capacity int
	Category RoomCategory
}

// Instance bundles the three input tables for a run.
type Instance struct {
	Courses []Course
	Cohorts []Cohort
	Rooms   []Room
}

// InstanceFromJSON reads a single-file instance. Typing and column presence
// are the loader's concern; the engine receives already-typed records.
func InstanceFromJSON(file string) (Instance, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Instance{}, err
	}
	var inputJSON map[string]any
	if err := json.Unmarshal(bytes, &inputJSON); err != nil {
		return Instance{}, err
	}

	var instance Instance
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: roomCategoryHook,
		Result:     &instance,
	})
	if err != nil {
		return Instance{}, err
	}
	if err := decoder.Decode(inputJSON); err != nil {
		return Instance{}, err
	}
	return instance, nil
}

// roomCategoryHook lets JSON instances spell room categories as strings.
func roomCategoryHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(RoomCategory(0)) {
		return data, nil
	}
	return ParseRoomCategory(data.(string))
}
