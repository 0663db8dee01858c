package generation

import (
	"fmt"
	"strings"
)

var countryIngredients = map[string][]string{
	"italy":  {"tomatoes", "olive oil", "pasta", "basil", "garlic"},
	"japan":  {"rice", "soy sauce", "fish", "seaweed", "ginger"},
	"mexico": {"corn", "beans", "chili peppers", "avocado", "lime"},
	"india":  {"lentils", "basmati rice", "turmeric", "cumin", "chickpeas"},
	"greece": {"feta", "olives", "cucumber", "oregano", "lemon"},
}

var genericIngredients = []string{"local vegetables", "spices", "staple grains"}

// IngredientsFor returns the ingredient list for a country, keyed by its
// lowercase name. Unknown countries get a generic list.
func IngredientsFor(country string) []string {
	key := strings.ToLower(strings.TrimSpace(country))
	if list, ok := countryIngredients[key]; ok {
		return append([]string(nil), list...)
	}
	return append([]string(nil), genericIngredients...)
}

const recipeTemplate = `Create a detailed %s recipe from %s using mainly: %s.
Format:
- Dish Name: [name]
- Ingredients: [list with measurements]
- Instructions: [numbered steps]
- Nutrition: [calories, macros]`

const workoutTemplate = `You are an expert personal trainer. Create a professional %s workout plan for someone with %d weeks of gym experience, focused on %s.
The workout must include:
- A warm-up section (2-3 exercises)
- A main workout section (at least 5 strength exercises, with sets, reps, and rest times)
- A cooldown section (2-3 stretching exercises)

Follow this strict format:
---
Warm-up:
1. [Exercise] - [Duration or Reps]

Main Workout:
1. [Exercise] - [Sets] x [Reps] - [Rest Time]
2. [Exercise] - [Sets] x [Reps] - [Rest Time]
3. [Exercise] - [Sets] x [Reps] - [Rest Time]
4. [Exercise] - [Sets] x [Reps] - [Rest Time]
5. [Exercise] - [Sets] x [Reps] - [Rest Time]

Cooldown:
1. [Stretch] - [Duration]
2. [Stretch] - [Duration]

Only return the structured workout plan. Do NOT return this prompt. Do NOT add extra explanations.`

// RenderPrompt renders the fixed template for a normalized request. Output is
// byte-for-byte stable for equal parameters.
func RenderPrompt(req Request) string {
	switch req.Kind {
	case KindRecipe:
		return fmt.Sprintf(recipeTemplate, req.DietType, req.Country, strings.Join(IngredientsFor(req.Country), ", "))
	case KindWorkout:
		return fmt.Sprintf(workoutTemplate, req.Level, req.Experience, req.WorkoutType)
	}
	return ""
}
