// Package generation produces recipes and workout plans through an ordered
// chain of text-generation providers that ends in a static fallback table.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/fittrack/internal/logging"
	"example.com/fittrack/internal/observability"
)

// Stage is the provenance tag recording which step produced a result.
type Stage string

const (
	StageProviderA Stage = "providerA"
	StageProviderB Stage = "providerB"
	StageLocal     Stage = "local"
	StageFallback  Stage = "fallback"
)

// Provider attempts one generation. Implementations must honour ctx deadlines.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Step places a provider in the chain.
type Step struct {
	Stage    Stage
	Provider Provider
	Timeout  time.Duration
}

// ErrEmptyResponse marks a provider reply without usable text.
var ErrEmptyResponse = errors.New("provider returned no usable text")

// ProviderError is the typed failure returned by provider adapters.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Record is an immutable generated-content record.
type Record struct {
	ID         string
	Owner      string
	Kind       Kind
	Parameters map[string]any
	Prompt     string
	Text       string
	Source     Stage
	CreatedAt  time.Time
}

// Store persists generated-content records.
type Store interface {
	Save(ctx context.Context, record Record) error
	// ListByOwner returns the owner's records of kind, newest first.
	ListByOwner(ctx context.Context, owner string, kind Kind, limit int) ([]Record, error)
}

// ErrPersistence reports that a result was generated but could not be stored.
var ErrPersistence = errors.New("generated content could not be saved")

// PersistenceError carries the unsaved record so callers can still return it.
type PersistenceError struct {
	Record Record
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPersistence, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// DefaultHistoryLimit caps History.
const DefaultHistoryLimit = 50

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for provider failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock overrides time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// Orchestrator runs the fallback chain and persists results.
type Orchestrator struct {
	steps  []Step
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewOrchestrator builds an Orchestrator. Steps run in the given order; steps
// without a provider are dropped, which is how unconfigured providers are
// left out.
func NewOrchestrator(store Store, steps []Step, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  store,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, step := range steps {
		if step.Provider != nil {
			o.steps = append(o.steps, step)
		}
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate validates req, produces text through the chain and persists the
// record. Validation failures are returned before any provider is called.
// A *PersistenceError is returned together with the unsaved record when the
// store fails.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Record, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt := RenderPrompt(req)
	text, source := o.run(ctx, req, prompt)

	record := Record{
		ID:         uuid.NewString(),
		Owner:      req.Owner,
		Kind:       req.Kind,
		Parameters: req.Parameters(),
		Prompt:     prompt,
		Text:       text,
		Source:     source,
		CreatedAt:  o.now(),
	}

	// The result is stored even when the caller has gone away.
	if err := o.store.Save(context.WithoutCancel(ctx), record); err != nil {
		logging.FromContext(ctx, o.logger).Error("generation persist failed",
			zap.String("kind", string(record.Kind)),
			zap.String("source", string(record.Source)),
			zap.Error(err),
		)
		return &record, &PersistenceError{Record: record, Err: err}
	}
	return &record, nil
}

// History lists the owner's records of kind, newest first.
func (o *Orchestrator) History(ctx context.Context, owner string, kind Kind, limit int) ([]Record, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrMissingOwner
	}
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	records, err := o.store.ListByOwner(ctx, owner, kind, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (o *Orchestrator) run(ctx context.Context, req Request, prompt string) (string, Stage) {
	log := logging.FromContext(ctx, o.logger)
	for _, step := range o.steps {
		if ctx.Err() != nil {
			log.Warn("request cancelled, skipping remaining providers", zap.String("stage", string(step.Stage)))
			break
		}

		start := time.Now()
		text, err := o.attempt(ctx, step, prompt)
		if err == nil {
			observability.RecordProviderAttempt(string(step.Stage), "success", time.Since(start))
			return text, step.Stage
		}

		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		observability.RecordProviderAttempt(string(step.Stage), outcome, time.Since(start))
		log.Warn("provider attempt failed",
			zap.String("stage", string(step.Stage)),
			zap.String("kind", string(req.Kind)),
			zap.Error(err),
		)
	}

	observability.RecordFallback(string(req.Kind))
	return FallbackFor(req), StageFallback
}

func (o *Orchestrator) attempt(ctx context.Context, step Step, prompt string) (string, error) {
	attemptCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	text, err := step.Provider.Generate(attemptCtx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
