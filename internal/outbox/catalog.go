package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"example.com/fittrack/internal/events"
)

// Route describes where an event type is published and the JSON schema its
// payload is registered under.
type Route struct {
	Topic         string
	SchemaSubject string
	Schema        string
}

var routes = map[string]Route{
	events.TypeWorkoutRecorded:     newRoute("workout_recorded", &events.WorkoutRecorded{}),
	events.TypeWorkoutUpdated:      newRoute("workout_updated", &events.WorkoutRecorded{}),
	events.TypeWorkoutDeleted:      newRoute("workout_deleted", &events.WorkoutDeleted{}),
	events.TypeGenerationCompleted: newRoute("generation_completed", &events.GenerationCompleted{}),
}

// Lookup returns the route for eventType.
func Lookup(eventType string) (Route, bool) {
	r, ok := routes[eventType]
	return r, ok
}

// TopicFor returns the Kafka topic of eventType or "" when unknown.
func TopicFor(eventType string) string {
	return routes[eventType].Topic
}

func newRoute(topic string, payload any) Route {
	return Route{
		Topic:         topic,
		SchemaSubject: topic + "-value",
		Schema:        mustSchema(payload),
	}
}

func mustSchema(payload any) string {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	body, err := json.Marshal(r.Reflect(payload))
	if err != nil {
		panic(fmt.Sprintf("outbox: build schema for %T: %v", payload, err))
	}
	return string(body)
}
