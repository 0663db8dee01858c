package generation

import (
	"errors"
	"fmt"
	"strings"

	"example.com/fittrack/internal/validation"
)

// Kind selects what is generated.
type Kind string

const (
	KindRecipe  Kind = "recipe"
	KindWorkout Kind = "workout"
)

const (
	DefaultDietType    = "vegetarian"
	DefaultCountry     = "italy"
	DefaultLevel       = "beginner"
	DefaultWorkoutType = "full body"
)

// Levels lists the accepted workout levels.
var Levels = []string{"beginner", "intermediate", "advanced"}

// ErrMissingOwner rejects a request before any provider is contacted.
var ErrMissingOwner = errors.New("owner identifier is required")

// Request is a structured generation request. Recipe requests use DietType
// and Country; workout requests use Level, Experience and WorkoutType.
type Request struct {
	Kind        Kind
	Owner       string
	DietType    string
	Country     string
	Level       string
	Experience  int
	WorkoutType string
}

// Normalize trims inputs and applies defaults for optional fields.
func (r Request) Normalize() Request {
	r.Owner = strings.TrimSpace(r.Owner)
	switch r.Kind {
	case KindRecipe:
		r.DietType = orDefault(r.DietType, DefaultDietType)
		r.Country = orDefault(r.Country, DefaultCountry)
	case KindWorkout:
		r.Level = strings.ToLower(orDefault(r.Level, DefaultLevel))
		r.WorkoutType = orDefault(r.WorkoutType, DefaultWorkoutType)
	}
	return r
}

// Validate checks a normalized request. A missing owner yields ErrMissingOwner.
func (r Request) Validate() error {
	if r.Owner == "" {
		return ErrMissingOwner
	}
	switch r.Kind {
	case KindRecipe:
		return nil
	case KindWorkout:
		if !validLevel(r.Level) {
			return validation.NewError("level", "must be one of: "+strings.Join(Levels, ", "))
		}
		if r.Experience < 0 {
			return validation.NewError("experience", "must be 0 or more")
		}
		return nil
	default:
		return validation.NewError("kind", fmt.Sprintf("unknown kind %q", r.Kind))
	}
}

// Parameters returns the request inputs recorded alongside the generated text.
func (r Request) Parameters() map[string]any {
	switch r.Kind {
	case KindRecipe:
		return map[string]any{"dietType": r.DietType, "country": r.Country}
	case KindWorkout:
		return map[string]any{"level": r.Level, "experience": r.Experience, "workoutType": r.WorkoutType}
	}
	return map[string]any{}
}

func validLevel(level string) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
