package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/generation"
)

func TestWorkoutRepositoryOrdersByDateThenID(t *testing.T) {
	repo := NewWorkoutRepository()
	ctx := context.Background()
	day := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	for _, w := range []domain.Workout{
		{ID: "a", Owner: "U1", Name: "first", Date: day},
		{ID: "c", Owner: "U1", Name: "same day later id", Date: day},
		{ID: "b", Owner: "U1", Name: "newer", Date: day.Add(24 * time.Hour)},
		{ID: "z", Owner: "U2", Name: "other owner", Date: day.Add(48 * time.Hour)},
	} {
		require.NoError(t, repo.Create(ctx, w))
	}

	got, err := repo.ListByOwner(ctx, "U1", 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, w := range got {
		ids = append(ids, w.ID)
	}
	require.Equal(t, []string{"b", "c", "a"}, ids)

	limited, err := repo.ListByOwner(ctx, "U1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "b", limited[0].ID)
}

func TestWorkoutRepositoryReturnsCopies(t *testing.T) {
	repo := NewWorkoutRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.Workout{
		ID:        "w1",
		Owner:     "U1",
		Exercises: []domain.ExerciseEntry{{Name: "Squat", Sets: []domain.Set{{Weight: 10, Reps: 1}}}},
	}))

	first, err := repo.GetOwned(ctx, "U1", "w1")
	require.NoError(t, err)
	first.Exercises[0].Sets[0].Weight = 999

	second, err := repo.GetOwned(ctx, "U1", "w1")
	require.NoError(t, err)
	require.Equal(t, 10.0, second.Exercises[0].Sets[0].Weight)
}

func TestWorkoutRepositoryScopesMutationsToOwner(t *testing.T) {
	repo := NewWorkoutRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.Workout{ID: "w1", Owner: "U1", Name: "mine"}))

	got, err := repo.GetOwned(ctx, "U2", "w1")
	require.NoError(t, err)
	require.Nil(t, got)

	updated, err := repo.UpdateOwned(ctx, domain.Workout{ID: "w1", Owner: "U2", Name: "stolen"})
	require.NoError(t, err)
	require.Nil(t, updated)

	deleted, err := repo.DeleteOwned(ctx, "U2", "w1")
	require.NoError(t, err)
	require.False(t, deleted)

	mine, err := repo.GetOwned(ctx, "U1", "w1")
	require.NoError(t, err)
	require.Equal(t, "mine", mine.Name)
}

func TestCatalogRepositoryRecordUsage(t *testing.T) {
	repo := NewCatalogRepository()
	ctx := context.Background()
	first := time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)
	earlier := first.Add(-time.Hour)

	n, err := repo.RecordUsage(ctx, []string{"Plank", "PLANK", "Moonwalk"}, first)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = repo.RecordUsage(ctx, []string{"plank"}, earlier)
	require.NoError(t, err)

	found, err := repo.Search(ctx, domain.CatalogFilter{Name: "plank"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, 2, found[0].SessionCount)
	require.True(t, found[0].LastSeenAt.Equal(first))

	moon, err := repo.Search(ctx, domain.CatalogFilter{Name: "moonwalk"})
	require.NoError(t, err)
	require.Empty(t, moon)
}

func TestCatalogRepositoryListIsSortedByName(t *testing.T) {
	repo := NewCatalogRepository()
	all, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, len(domain.DefaultCatalog()))
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].Name, all[i].Name)
	}
	for _, ex := range all {
		require.NotEmpty(t, ex.ID)
		require.NotNil(t, ex.Instructions)
	}
}

func TestUserRepositoryUpsertKeepsProfile(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	t0 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Upsert(ctx, domain.User{Subject: "s1", Name: "Ada", Email: "ada@example.com", LastSeenAt: t0})
	require.NoError(t, err)

	again, err := repo.Upsert(ctx, domain.User{Subject: "s1", Name: "Other", LastSeenAt: t0.Add(time.Hour)})
	require.NoError(t, err)
	require.Equal(t, "Ada", again.Name)
	require.Equal(t, "ada@example.com", again.Email)
	require.True(t, again.LastSeenAt.Equal(t0.Add(time.Hour)))

	_, err = repo.Upsert(ctx, domain.User{Subject: "s2", Email: "ada@example.com"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)

	missing, err := repo.Get(ctx, "s2")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestGenerationStoreListsNewestFirstPerKind(t *testing.T) {
	store := NewGenerationStore()
	ctx := context.Background()
	for _, rec := range []generation.Record{
		{ID: "r1", Owner: "U1", Kind: generation.KindRecipe},
		{ID: "w1", Owner: "U1", Kind: generation.KindWorkout},
		{ID: "r2", Owner: "U1", Kind: generation.KindRecipe},
		{ID: "r3", Owner: "U2", Kind: generation.KindRecipe},
	} {
		require.NoError(t, store.Save(ctx, rec))
	}

	recipes, err := store.ListByOwner(ctx, "U1", generation.KindRecipe, 0)
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	require.Equal(t, "r2", recipes[0].ID)
	require.Equal(t, "r1", recipes[1].ID)

	one, err := store.ListByOwner(ctx, "U1", generation.KindRecipe, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)

	none, err := store.ListByOwner(ctx, "U3", generation.KindWorkout, 0)
	require.NoError(t, err)
	require.Empty(t, none)
}
