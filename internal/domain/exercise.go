package domain

import (
	"context"
	"strings"
	"time"
)

const (
	// DefaultSearchLimit caps catalog search results.
	DefaultSearchLimit = 10
	// MaxListLimit caps catalog listing.
	MaxListLimit = 200
)

// Exercise is a read-only catalog entry.
type Exercise struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Category     string     `json:"category,omitempty"`
	Equipment    string     `json:"equipment,omitempty"`
	Description  string     `json:"description,omitempty"`
	Image        string     `json:"image,omitempty"`
	Instructions []string   `json:"instructions"`
	SessionCount int        `json:"session_count"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
}

// CatalogFilter narrows a catalog search. Name is a case-insensitive
// substring, Category an exact match.
type CatalogFilter struct {
	Name     string
	Category string
	Limit    int
}

// CatalogRepository exposes catalog persistence.
type CatalogRepository interface {
	List(ctx context.Context, limit int) ([]Exercise, error)
	Search(ctx context.Context, filter CatalogFilter) ([]Exercise, error)
	// UpsertByName inserts or replaces the descriptive fields of the entry with
	// the same (case-insensitive) name. Usage counters are preserved.
	UpsertByName(ctx context.Context, exercise Exercise) error
	// RecordUsage bumps session counters of entries whose name matches one of
	// names case-insensitively and returns how many entries changed.
	RecordUsage(ctx context.Context, names []string, seenAt time.Time) (int, error)
}

// CatalogService contains catalog read and enrichment logic.
type CatalogService struct {
	repo CatalogRepository
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// List returns catalog entries ordered by name.
func (s *CatalogService) List(ctx context.Context, limit int) ([]Exercise, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}

// Search filters the catalog. Empty filters match everything.
func (s *CatalogService) Search(ctx context.Context, filter CatalogFilter) ([]Exercise, error) {
	filter.Name = strings.TrimSpace(filter.Name)
	filter.Category = strings.TrimSpace(filter.Category)
	if filter.Limit <= 0 || filter.Limit > DefaultSearchLimit {
		filter.Limit = DefaultSearchLimit
	}
	return s.repo.Search(ctx, filter)
}

// Seed upserts every exercise by name.
func (s *CatalogService) Seed(ctx context.Context, exercises []Exercise) error {
	for _, ex := range exercises {
		if err := s.repo.UpsertByName(ctx, ex); err != nil {
			return err
		}
	}
	return nil
}

// RecordUsage enriches catalog entries matching the exercises of a recorded workout.
func (s *CatalogService) RecordUsage(ctx context.Context, names []string, seenAt time.Time) (int, error) {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return 0, nil
	}
	if seenAt.IsZero() {
		seenAt = time.Now().UTC()
	}
	return s.repo.RecordUsage(ctx, cleaned, seenAt)
}

// MatchesFilter reports whether ex satisfies filter. Repositories without a
// query language use it directly.
func MatchesFilter(ex Exercise, filter CatalogFilter) bool {
	if filter.Name != "" && !strings.Contains(strings.ToLower(ex.Name), strings.ToLower(filter.Name)) {
		return false
	}
	if filter.Category != "" && ex.Category != filter.Category {
		return false
	}
	return true
}

// DefaultCatalog is the built-in exercise library.
func DefaultCatalog() []Exercise {
	return []Exercise{
		{
			Name:        "Push-Up",
			Category:    "strength",
			Equipment:   "bodyweight",
			Description: "A bodyweight exercise targeting chest, shoulders, and triceps.",
			Image:       "https://example.com/pushup.jpg",
			Instructions: []string{
				"Start in a plank position.",
				"Lower your body until chest nearly touches the floor.",
				"Push yourself back up.",
			},
		},
		{
			Name:        "Squat",
			Category:    "strength",
			Equipment:   "barbell",
			Description: "A lower body exercise targeting quads, glutes, and hamstrings.",
			Image:       "https://example.com/squat.jpg",
			Instructions: []string{
				"Stand with feet shoulder-width apart.",
				"Lower your hips back and down as if sitting in a chair.",
				"Push through your heels to return to standing.",
			},
		},
		{
			Name:        "Deadlift",
			Category:    "strength",
			Equipment:   "barbell",
			Description: "A hip hinge that loads the posterior chain.",
			Instructions: []string{
				"Stand with the bar over mid-foot.",
				"Hinge and grip the bar just outside the knees.",
				"Drive through the floor keeping the bar close until standing tall.",
			},
		},
		{
			Name:        "Bench Press",
			Category:    "strength",
			Equipment:   "barbell",
			Description: "A horizontal press for chest, shoulders, and triceps.",
			Instructions: []string{
				"Lie on the bench with eyes under the bar.",
				"Lower the bar to the mid chest under control.",
				"Press back to lockout.",
			},
		},
		{
			Name:        "Pull-Up",
			Category:    "strength",
			Equipment:   "pull-up bar",
			Description: "A vertical pull for lats and biceps.",
			Instructions: []string{
				"Hang from the bar with an overhand grip.",
				"Pull until your chin clears the bar.",
				"Lower to a full hang.",
			},
		},
		{
			Name:        "Plank",
			Category:    "core",
			Equipment:   "bodyweight",
			Description: "An isometric hold for the trunk.",
			Instructions: []string{
				"Rest on forearms and toes.",
				"Keep a straight line from head to heels.",
				"Hold while breathing steadily.",
			},
		},
		{
			Name:        "Walking Lunge",
			Category:    "strength",
			Equipment:   "dumbbell",
			Description: "A unilateral leg exercise for quads and glutes.",
			Instructions: []string{
				"Step forward and lower the back knee toward the floor.",
				"Push through the front heel.",
				"Step through into the next lunge.",
			},
		},
		{
			Name:        "Jump Rope",
			Category:    "cardio",
			Equipment:   "rope",
			Description: "Conditioning with continuous skipping.",
			Instructions: []string{
				"Hold handles at hip height.",
				"Turn the rope with the wrists.",
				"Hop just high enough to clear it.",
			},
		},
	}
}
