package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"example.com/fittrack/internal/validation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubProvider struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	text    string
	err     error
	block   bool
}

func (p *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	p.calls++
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if p.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return p.text, p.err
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type stubStore struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (s *stubStore) Save(ctx context.Context, record Record) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *stubStore) ListByOwner(ctx context.Context, owner string, kind Kind, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if r.Owner == owner && r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func chain(a, b, local Provider) []Step {
	return []Step{
		{Stage: StageProviderA, Provider: a, Timeout: 10 * time.Second},
		{Stage: StageProviderB, Provider: b, Timeout: 10 * time.Second},
		{Stage: StageLocal, Provider: local, Timeout: 5 * time.Second},
	}
}

func TestGenerateFallsBackWhenEveryProviderFails(t *testing.T) {
	a := &stubProvider{err: errors.New("connection refused")}
	b := &stubProvider{err: &ProviderError{Provider: "gemini", StatusCode: 503, Err: errors.New("unavailable")}}
	local := &stubProvider{text: "   "}
	store := &stubStore{}

	orch := NewOrchestrator(store, chain(a, b, local))
	record, err := orch.Generate(context.Background(), Request{Kind: KindRecipe, Owner: "U1", DietType: "vegan", Country: "Mexico"})

	require.NoError(t, err)
	require.Equal(t, StageFallback, record.Source)
	require.NotEmpty(t, record.Text)
	require.Contains(t, record.Text, "Vegan Tacos")
	require.Equal(t, 1, a.callCount())
	require.Equal(t, 1, b.callCount())
	require.Equal(t, 1, local.callCount())
	require.Len(t, store.records, 1)
	require.Equal(t, StageFallback, store.records[0].Source)
}

func TestGenerateShortCircuitsOnProviderA(t *testing.T) {
	a := &stubProvider{text: "Dish Name: Pasta al Pomodoro"}
	b := &stubProvider{text: "unused"}
	local := &stubProvider{text: "unused"}
	store := &stubStore{}

	orch := NewOrchestrator(store, chain(a, b, local))
	record, err := orch.Generate(context.Background(), Request{Kind: KindRecipe, Owner: "U1"})

	require.NoError(t, err)
	require.Equal(t, StageProviderA, record.Source)
	require.Equal(t, "Dish Name: Pasta al Pomodoro", record.Text)
	require.Equal(t, 1, a.callCount())
	require.Zero(t, b.callCount())
	require.Zero(t, local.callCount())
}

func TestGenerateUsesProviderBAfterTimeout(t *testing.T) {
	a := &stubProvider{block: true}
	b := &stubProvider{text: "Warm-up: ..."}
	store := &stubStore{}

	steps := []Step{
		{Stage: StageProviderA, Provider: a, Timeout: 20 * time.Millisecond},
		{Stage: StageProviderB, Provider: b, Timeout: time.Second},
	}
	orch := NewOrchestrator(store, steps)
	record, err := orch.Generate(context.Background(), Request{Kind: KindWorkout, Owner: "U1", Level: "Intermediate", Experience: 12})

	require.NoError(t, err)
	require.Equal(t, StageProviderB, record.Source)
	require.Equal(t, 1, a.callCount())
	require.Equal(t, "intermediate", record.Parameters["level"])
	require.Equal(t, 12, record.Parameters["experience"])
	require.Equal(t, DefaultWorkoutType, record.Parameters["workoutType"])
}

func TestGenerateSkipsUnconfiguredLocalProvider(t *testing.T) {
	a := &stubProvider{err: errors.New("boom")}
	b := &stubProvider{err: errors.New("boom")}
	store := &stubStore{}

	orch := NewOrchestrator(store, chain(a, b, nil))
	require.Len(t, orch.steps, 2)

	record, err := orch.Generate(context.Background(), Request{Kind: KindWorkout, Owner: "U1"})
	require.NoError(t, err)
	require.Equal(t, StageFallback, record.Source)
	require.Equal(t, DefaultWorkoutFallback, record.Text)
}

func TestGenerateRejectsMissingOwnerBeforeProviders(t *testing.T) {
	a := &stubProvider{text: "x"}
	store := &stubStore{}

	orch := NewOrchestrator(store, chain(a, nil, nil))
	record, err := orch.Generate(context.Background(), Request{Kind: KindRecipe, Owner: "  "})

	require.ErrorIs(t, err, ErrMissingOwner)
	require.Nil(t, record)
	require.Zero(t, a.callCount())
	require.Empty(t, store.records)
}

func TestGenerateRejectsUnknownLevel(t *testing.T) {
	a := &stubProvider{text: "x"}
	orch := NewOrchestrator(&stubStore{}, chain(a, nil, nil))

	_, err := orch.Generate(context.Background(), Request{Kind: KindWorkout, Owner: "U1", Level: "elite"})

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "level")
	require.Zero(t, a.callCount())
}

func TestGenerateUnknownCountryDegradesToGenericIngredients(t *testing.T) {
	a := &stubProvider{err: errors.New("down")}
	store := &stubStore{}

	orch := NewOrchestrator(store, chain(a, nil, nil))
	record, err := orch.Generate(context.Background(), Request{Kind: KindRecipe, Owner: "U1", Country: "Atlantis"})

	require.NoError(t, err)
	require.Contains(t, a.prompts[0], "local vegetables, spices, staple grains")
	require.Contains(t, record.Prompt, "from Atlantis")
	require.Equal(t, StageFallback, record.Source)
	require.Contains(t, record.Text, "Vegetable Stir Fry")
}

func TestGenerateReportsPersistenceFailureDistinctly(t *testing.T) {
	a := &stubProvider{text: "a plan"}
	store := &stubStore{err: errors.New("disk full")}

	orch := NewOrchestrator(store, chain(a, nil, nil))
	record, err := orch.Generate(context.Background(), Request{Kind: KindWorkout, Owner: "U1"})

	require.ErrorIs(t, err, ErrPersistence)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	require.NotNil(t, record)
	require.Equal(t, "a plan", record.Text)
	require.Equal(t, StageProviderA, perr.Record.Source)
}

func TestGenerateAfterCancellationUsesFallbackAndStillPersists(t *testing.T) {
	a := &stubProvider{text: "never"}
	store := &stubStore{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := NewOrchestrator(store, chain(a, nil, nil))
	record, err := orch.Generate(ctx, Request{Kind: KindRecipe, Owner: "U1"})

	require.NoError(t, err)
	require.Equal(t, StageFallback, record.Source)
	require.Zero(t, a.callCount())
	require.Len(t, store.records, 1)
}

func TestGenerateUsesClock(t *testing.T) {
	fixed := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)
	orch := NewOrchestrator(&stubStore{}, nil, WithClock(func() time.Time { return fixed }))

	record, err := orch.Generate(context.Background(), Request{Kind: KindRecipe, Owner: "U1"})
	require.NoError(t, err)
	require.Equal(t, fixed, record.CreatedAt)
	require.NotEmpty(t, record.ID)
}

func TestHistoryNewestFirst(t *testing.T) {
	store := &stubStore{}
	orch := NewOrchestrator(store, nil)

	first, err := orch.Generate(context.Background(), Request{Kind: KindRecipe, Owner: "U1", Country: "japan"})
	require.NoError(t, err)
	second, err := orch.Generate(context.Background(), Request{Kind: KindRecipe, Owner: "U1", Country: "mexico"})
	require.NoError(t, err)
	_, err = orch.Generate(context.Background(), Request{Kind: KindWorkout, Owner: "U1"})
	require.NoError(t, err)
	_, err = orch.Generate(context.Background(), Request{Kind: KindRecipe, Owner: "U2"})
	require.NoError(t, err)

	history, err := orch.History(context.Background(), "U1", KindRecipe, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, second.ID, history[0].ID)
	require.Equal(t, first.ID, history[1].ID)

	empty, err := orch.History(context.Background(), "nobody", KindWorkout, 10)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	_, err = orch.History(context.Background(), "", KindRecipe, 10)
	require.ErrorIs(t, err, ErrMissingOwner)
}
