package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/persistence/memory"
	"example.com/fittrack/internal/validation"
)

func legDay() domain.WorkoutInput {
	return domain.WorkoutInput{
		Name: "Leg Day",
		Exercises: []domain.ExerciseEntryInput{
			{Name: "Squat", Sets: []domain.SetInput{{Weight: 100, Reps: 5, Unit: "kg"}}},
		},
	}
}

func at(day int) *time.Time {
	ts := time.Date(2026, time.May, day, 7, 0, 0, 0, time.UTC)
	return &ts
}

func TestCreateWorkoutStoresOwnerAndEntries(t *testing.T) {
	repo := memory.NewWorkoutRepository()
	svc := domain.NewWorkoutService(repo, nil)

	created, err := svc.Create(context.Background(), "U1", legDay())
	require.NoError(t, err)
	require.Equal(t, "U1", created.Owner)
	require.Equal(t, "Leg Day", created.Name)

	want := []domain.ExerciseEntry{{Name: "Squat", Sets: []domain.Set{{Weight: 100, Reps: 5, Unit: domain.UnitKilogram}}}}
	if diff := cmp.Diff(want, created.Exercises); diff != "" {
		t.Fatalf("unexpected exercises (-want +got):\n%s", diff)
	}

	stored, err := svc.Get(context.Background(), "U1", created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(*created, *stored); diff != "" {
		t.Fatalf("stored workout differs (-created +stored):\n%s", diff)
	}
}

func TestCreateWorkoutRejectsInvalidInputWithoutWriting(t *testing.T) {
	cases := map[string]domain.WorkoutInput{
		"missing name": {Exercises: legDay().Exercises},
		"blank name":   {Name: "   ", Exercises: legDay().Exercises},
		"no exercises": {Name: "Leg Day"},
		"no sets":      {Name: "Leg Day", Exercises: []domain.ExerciseEntryInput{{Name: "Squat"}}},
		"zero reps": {Name: "Leg Day", Exercises: []domain.ExerciseEntryInput{
			{Name: "Squat", Sets: []domain.SetInput{{Weight: 100, Reps: 0}}},
		}},
		"negative weight": {Name: "Leg Day", Exercises: []domain.ExerciseEntryInput{
			{Name: "Squat", Sets: []domain.SetInput{{Weight: -5, Reps: 5}}},
		}},
		"unknown unit": {Name: "Leg Day", Exercises: []domain.ExerciseEntryInput{
			{Name: "Squat", Sets: []domain.SetInput{{Weight: 5, Reps: 5, Unit: "stone"}}},
		}},
		"huge weight": {Name: "Leg Day", Exercises: []domain.ExerciseEntryInput{
			{Name: "Squat", Sets: []domain.SetInput{{Weight: 1e308, Reps: 10}}},
		}},
		"too many reps": {Name: "Leg Day", Exercises: []domain.ExerciseEntryInput{
			{Name: "Squat", Sets: []domain.SetInput{{Weight: 100, Reps: 10001}}},
		}},
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			repo := memory.NewWorkoutRepository()
			svc := domain.NewWorkoutService(repo, nil)

			_, err := svc.Create(context.Background(), "U1", input)
			var verr *validation.Error
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)

			all, err := svc.List(context.Background(), "U1")
			require.NoError(t, err)
			require.Empty(t, all)
		})
	}
}

func TestWorkoutsOfAnotherOwnerAreNotFound(t *testing.T) {
	svc := domain.NewWorkoutService(memory.NewWorkoutRepository(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "A", legDay())
	require.NoError(t, err)

	_, err = svc.Get(ctx, "B", created.ID)
	require.ErrorIs(t, err, domain.ErrWorkoutNotFound)

	_, err = svc.Update(ctx, "B", created.ID, legDay())
	require.ErrorIs(t, err, domain.ErrWorkoutNotFound)

	err = svc.Delete(ctx, "B", created.ID)
	require.ErrorIs(t, err, domain.ErrWorkoutNotFound)

	_, err = svc.Get(ctx, "B", "does-not-exist")
	require.ErrorIs(t, err, domain.ErrWorkoutNotFound)

	stillThere, err := svc.Get(ctx, "A", created.ID)
	require.NoError(t, err)
	require.Equal(t, "Leg Day", stillThere.Name)
}

func TestUpdateReplacesWorkoutAndKeepsDateWhenOmitted(t *testing.T) {
	svc := domain.NewWorkoutService(memory.NewWorkoutRepository(), nil)
	ctx := context.Background()

	input := legDay()
	input.Date = at(3)
	created, err := svc.Create(ctx, "U1", input)
	require.NoError(t, err)

	replacement := domain.WorkoutInput{
		Name: "Push Day",
		Exercises: []domain.ExerciseEntryInput{
			{Name: "Bench Press", Sets: []domain.SetInput{{Weight: 135, Reps: 8, Unit: "lb"}, {Weight: 135, Reps: 6, Unit: "lb"}}},
		},
	}
	updated, err := svc.Update(ctx, "U1", created.ID, replacement)
	require.NoError(t, err)
	require.Equal(t, "Push Day", updated.Name)
	require.Len(t, updated.Exercises, 1)
	require.Len(t, updated.Exercises[0].Sets, 2)
	require.Equal(t, domain.UnitPound, updated.Exercises[0].Sets[0].Unit)
	require.True(t, updated.Date.Equal(*at(3)))
	require.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func TestDeleteRemovesWorkout(t *testing.T) {
	svc := domain.NewWorkoutService(memory.NewWorkoutRepository(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "U1", legDay())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "U1", created.ID))
	require.ErrorIs(t, svc.Delete(ctx, "U1", created.ID), domain.ErrWorkoutNotFound)
}

func TestListIsNewestFirstAndRepeatable(t *testing.T) {
	svc := domain.NewWorkoutService(memory.NewWorkoutRepository(), nil)
	ctx := context.Background()

	for _, day := range []int{2, 9, 5} {
		input := legDay()
		input.Date = at(day)
		_, err := svc.Create(ctx, "U1", input)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "U2", legDay())
	require.NoError(t, err)

	first, err := svc.List(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.True(t, first[0].Date.Equal(*at(9)))
	require.True(t, first[2].Date.Equal(*at(2)))

	second, err := svc.List(ctx, "U1")
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("list not repeatable:\n%s", diff)
	}

	none, err := svc.List(ctx, "nobody")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestRecentAppliesLimits(t *testing.T) {
	svc := domain.NewWorkoutService(memory.NewWorkoutRepository(), nil)
	ctx := context.Background()
	for day := 1; day <= 7; day++ {
		input := legDay()
		input.Date = at(day)
		_, err := svc.Create(ctx, "U1", input)
		require.NoError(t, err)
	}

	recent, err := svc.Recent(ctx, "U1", 0)
	require.NoError(t, err)
	require.Len(t, recent, domain.DefaultRecentLimit)
	require.True(t, recent[0].Date.Equal(*at(7)))

	two, err := svc.Recent(ctx, "U1", 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
}

func TestProgressComputesVolumeAscending(t *testing.T) {
	svc := domain.NewWorkoutService(memory.NewWorkoutRepository(), nil)
	ctx := context.Background()

	pounds := domain.WorkoutInput{
		Name:      "Pounds",
		Date:      at(10),
		Exercises: []domain.ExerciseEntryInput{{Name: "Squat", Sets: []domain.SetInput{{Weight: 100, Reps: 5, Unit: "lb"}}}},
	}
	kilos := domain.WorkoutInput{
		Name: "Kilos",
		Date: at(4),
		Exercises: []domain.ExerciseEntryInput{
			{Name: "Squat", Sets: []domain.SetInput{{Weight: 100, Reps: 5}, {Weight: 80, Reps: 3, Unit: "kg"}}},
			{Name: "Lunge", Sets: []domain.SetInput{{Weight: 20, Reps: 10}}},
		},
	}
	_, err := svc.Create(ctx, "U1", pounds)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "U1", kilos)
	require.NoError(t, err)

	points, err := svc.Progress(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, points, 2)

	require.Equal(t, "Kilos", points[0].Name)
	require.InDelta(t, 100*5+80*3+20*10, points[0].TotalVolume, 1e-9)
	require.Equal(t, "Pounds", points[1].Name)
	require.InDelta(t, 226.796, points[1].TotalVolume, 1e-6)
}

func TestSetVolume(t *testing.T) {
	require.InDelta(t, 226.796, domain.Set{Weight: 100, Reps: 5, Unit: domain.UnitPound}.Volume(), 1e-9)
	require.InDelta(t, 500, domain.Set{Weight: 100, Reps: 5, Unit: domain.UnitKilogram}.Volume(), 1e-9)
}

func TestVolumeInRange(t *testing.T) {
	ok := domain.Workout{Exercises: []domain.ExerciseEntry{
		{Name: "Squat", Sets: []domain.Set{{Weight: 10000, Reps: 10000, Unit: domain.UnitKilogram}}},
	}}
	require.True(t, ok.VolumeInRange())

	overflow := domain.Workout{Exercises: []domain.ExerciseEntry{
		{Name: "Squat", Sets: []domain.Set{{Weight: 1e308, Reps: 10, Unit: domain.UnitKilogram}}},
	}}
	require.False(t, overflow.VolumeInRange())
}

func TestUpdateRejectsOversizedSets(t *testing.T) {
	svc := domain.NewWorkoutService(memory.NewWorkoutRepository(), nil)
	created, err := svc.Create(context.Background(), "U1", legDay())
	require.NoError(t, err)

	input := legDay()
	input.Exercises[0].Sets[0].Weight = 1e308
	_, err = svc.Update(context.Background(), "U1", created.ID, input)
	var verr *validation.Error
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	require.Contains(t, verr.Fields, "exercises[0].sets[0].weight")

	stored, err := svc.Get(context.Background(), "U1", created.ID)
	require.NoError(t, err)
	require.InDelta(t, 500, stored.TotalVolume(), 1e-9)
}

func TestParseUnit(t *testing.T) {
	unit, ok := domain.ParseUnit("")
	require.True(t, ok)
	require.Equal(t, domain.UnitKilogram, unit)

	unit, ok = domain.ParseUnit(" LBS ")
	require.True(t, ok)
	require.Equal(t, domain.UnitPound, unit)

	_, ok = domain.ParseUnit("stone")
	require.False(t, ok)
}

func TestOwned(t *testing.T) {
	require.True(t, domain.Owned("U1", "U1"))
	require.False(t, domain.Owned("U1", "U2"))
	require.False(t, domain.Owned("", ""))
}
