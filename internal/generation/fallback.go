package generation

import "strings"

const defaultKey = "default"

// DefaultRecipeFallback and DefaultWorkoutFallback are the last-resort entries.
const (
	DefaultRecipeFallback  = "Recipe generation unavailable. Please try different parameters."
	DefaultWorkoutFallback = `Warm-up:
1. Jumping Jacks - 60 seconds
2. Arm Circles - 30 seconds each direction

Main Workout:
1. Bodyweight Squat - 3 x 12 - 60s rest
2. Push-Up - 3 x 10 - 60s rest
3. Glute Bridge - 3 x 12 - 60s rest
4. Bent-Over Row - 3 x 10 - 60s rest
5. Plank - 3 x 30s - 45s rest

Cooldown:
1. Hamstring Stretch - 30 seconds each side
2. Chest Opener - 30 seconds`
)

var recipeFallbacks = map[string]map[string]string{
	"vegetarian": {
		"italy": `Dish Name: Caprese Salad
Ingredients: 2 large tomatoes, 200 g fresh mozzarella, 10 basil leaves, 2 tbsp olive oil, salt, pepper
Instructions: 1. Slice tomatoes and mozzarella. 2. Alternate slices with basil. 3. Drizzle with olive oil and season.
Nutrition: about 350 kcal, 20 g protein, 8 g carbs, 27 g fat`,
		"japan": `Dish Name: Vegetable Tempura
Ingredients: 1 sweet potato, 1 zucchini, 8 shiitake mushrooms, 120 g flour, 200 ml ice water, oil for frying, soy sauce
Instructions: 1. Slice vegetables thinly. 2. Whisk flour with ice water. 3. Dip and fry until crisp. 4. Serve with soy sauce.
Nutrition: about 420 kcal, 8 g protein, 55 g carbs, 18 g fat`,
		defaultKey: `Dish Name: Vegetable Stir Fry
Ingredients: 300 g mixed vegetables, 2 cloves garlic, 1 tbsp soy sauce, 1 tbsp oil, 150 g cooked rice
Instructions: 1. Heat oil and fry garlic. 2. Add vegetables and stir fry for 5 minutes. 3. Season with soy sauce and serve over rice.
Nutrition: about 380 kcal, 10 g protein, 60 g carbs, 10 g fat`,
	},
	"vegan": {
		"mexico": `Dish Name: Vegan Tacos
Ingredients: 6 corn tortillas, 400 g black beans, 1 avocado, 1 lime, 1 chili pepper, fresh coriander
Instructions: 1. Warm the beans with chopped chili. 2. Heat the tortillas. 3. Fill with beans and sliced avocado. 4. Finish with lime and coriander.
Nutrition: about 450 kcal, 16 g protein, 65 g carbs, 15 g fat`,
		defaultKey: `Dish Name: Chickpea Curry
Ingredients: 400 g chickpeas, 400 ml coconut milk, 1 onion, 2 tbsp curry paste, 200 g spinach, 150 g cooked rice
Instructions: 1. Soften the onion. 2. Stir in curry paste. 3. Add chickpeas and coconut milk and simmer 15 minutes. 4. Wilt spinach and serve with rice.
Nutrition: about 520 kcal, 17 g protein, 58 g carbs, 25 g fat`,
	},
}

var workoutFallbacks = map[string]map[string]string{
	"beginner": {
		"full body": DefaultWorkoutFallback,
		"cardio": `Warm-up:
1. Marching in Place - 2 minutes
2. Leg Swings - 10 each side

Main Workout:
1. Brisk Walk Intervals - 5 x 2 min - 60s rest
2. Step-Ups - 3 x 10 - 45s rest
3. Jumping Jacks - 3 x 30s - 30s rest
4. Mountain Climbers - 3 x 20s - 40s rest
5. Shadow Boxing - 3 x 60s - 30s rest

Cooldown:
1. Calf Stretch - 30 seconds each side
2. Quad Stretch - 30 seconds each side`,
	},
	"intermediate": {
		defaultKey: `Warm-up:
1. Rowing Machine - 5 minutes
2. Walking Lunges - 10 each side

Main Workout:
1. Barbell Squat - 4 x 8 - 90s rest
2. Bench Press - 4 x 8 - 90s rest
3. Romanian Deadlift - 3 x 10 - 90s rest
4. Pull-Up - 3 x 8 - 90s rest
5. Overhead Press - 3 x 10 - 60s rest

Cooldown:
1. Pigeon Stretch - 45 seconds each side
2. Lat Stretch - 30 seconds each side`,
	},
	"advanced": {
		defaultKey: `Warm-up:
1. Assault Bike - 5 minutes
2. Banded Hip Openers - 10 each side

Main Workout:
1. Back Squat - 5 x 5 - 2-3 min rest
2. Deadlift - 5 x 3 - 3 min rest
3. Weighted Pull-Up - 4 x 6 - 2 min rest
4. Incline Bench Press - 4 x 6 - 2 min rest
5. Bulgarian Split Squat - 3 x 8 - 90s rest

Cooldown:
1. Couch Stretch - 60 seconds each side
2. Thoracic Extension - 60 seconds`,
	},
}

// FallbackFor selects a static result keyed by the request's primary
// parameters: diet type then country for recipes, level then workout type for
// workouts. Unmatched keys fall back to the group default and finally to the
// kind default, so the result is never empty.
func FallbackFor(req Request) string {
	switch req.Kind {
	case KindRecipe:
		return lookupFallback(recipeFallbacks, req.DietType, req.Country, DefaultRecipeFallback)
	case KindWorkout:
		return lookupFallback(workoutFallbacks, req.Level, req.WorkoutType, DefaultWorkoutFallback)
	}
	return DefaultRecipeFallback
}

func lookupFallback(table map[string]map[string]string, primary, secondary, last string) string {
	group, ok := table[normalizeKey(primary)]
	if !ok {
		return last
	}
	if text, ok := group[normalizeKey(secondary)]; ok {
		return text
	}
	if text, ok := group[defaultKey]; ok {
		return text
	}
	return last
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
