package domain

import (
	"math"
	"strings"
	"time"
)

// Unit is the weight unit recorded for a set.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitPound    Unit = "lb"
)

// PoundsToKilograms converts pound weights into kilograms.
const PoundsToKilograms = 0.453592

// ParseUnit normalises user supplied unit spellings. An empty value means kilograms.
func ParseUnit(raw string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "kg", "kgs", "kilogram", "kilograms":
		return UnitKilogram, true
	case "lb", "lbs", "pound", "pounds":
		return UnitPound, true
	}
	return "", false
}

// Set is a single set of an exercise entry.
type Set struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	Unit   Unit    `json:"unit"`
}

// Kilograms returns the set weight normalised to kilograms.
func (s Set) Kilograms() float64 {
	if s.Unit == UnitPound {
		return s.Weight * PoundsToKilograms
	}
	return s.Weight
}

// Volume returns kilograms × reps.
func (s Set) Volume() float64 {
	return s.Kilograms() * float64(s.Reps)
}

// ExerciseEntry is one exercise performed within a workout.
type ExerciseEntry struct {
	Name string `json:"name"`
	Sets []Set  `json:"sets"`
}

// Workout is a training session owned by a single user.
type Workout struct {
	ID        string
	Owner     string
	Name      string
	Exercises []ExerciseEntry
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalVolume sums the volume of every set in the workout.
func (w Workout) TotalVolume() float64 {
	var total float64
	for _, entry := range w.Exercises {
		for _, set := range entry.Sets {
			total += set.Volume()
		}
	}
	return total
}

// VolumeInRange reports whether the total volume is a finite number that can
// be stored and encoded.
func (w Workout) VolumeInRange() bool {
	total := w.TotalVolume()
	return !math.IsInf(total, 0) && !math.IsNaN(total)
}

// ExerciseNames returns the distinct exercise names in entry order.
func (w Workout) ExerciseNames() []string {
	seen := make(map[string]struct{}, len(w.Exercises))
	out := make([]string, 0, len(w.Exercises))
	for _, entry := range w.Exercises {
		key := strings.ToLower(entry.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry.Name)
	}
	return out
}

// ProgressPoint is one entry of the volume time series.
type ProgressPoint struct {
	Date        time.Time
	TotalVolume float64
	WorkoutID   string
	Name        string
}

// SetInput is the write-side shape of a set.
type SetInput struct {
	Weight float64 `json:"weight" validate:"gt=0,lte=10000"`
	Reps   int     `json:"reps" validate:"gt=0,lte=10000"`
	Unit   string  `json:"unit" validate:"omitempty,oneof=kg kgs kilogram kilograms lb lbs pound pounds"`
}

// ExerciseEntryInput is the write-side shape of an exercise entry.
type ExerciseEntryInput struct {
	Name string     `json:"name" validate:"notblank"`
	Sets []SetInput `json:"sets" validate:"min=1,dive"`
}

// WorkoutInput carries the replaceable fields of a workout.
type WorkoutInput struct {
	Name      string               `json:"name" validate:"notblank"`
	Exercises []ExerciseEntryInput `json:"exercises" validate:"min=1,dive"`
	Date      *time.Time           `json:"date"`
}

func (in WorkoutInput) entries() []ExerciseEntry {
	out := make([]ExerciseEntry, 0, len(in.Exercises))
	for _, e := range in.Exercises {
		sets := make([]Set, 0, len(e.Sets))
		for _, s := range e.Sets {
			unit, _ := ParseUnit(s.Unit)
			sets = append(sets, Set{Weight: s.Weight, Reps: s.Reps, Unit: unit})
		}
		out = append(out, ExerciseEntry{Name: strings.TrimSpace(e.Name), Sets: sets})
	}
	return out
}
