package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"example.com/fittrack/internal/validation"
)

var (
	// ErrUserNotFound is returned when no profile exists for a subject.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when an email already belongs to another subject.
	ErrEmailTaken = errors.New("email already in use")
)

// User is the profile of an authenticated subject.
type User struct {
	Subject    string
	Name       string
	Email      string
	AvatarURL  string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// UserRepository captures profile persistence.
type UserRepository interface {
	// Upsert inserts the profile on first sight of a subject and only refreshes
	// last_seen_at afterwards.
	Upsert(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, subject string) (*User, error)
	UpdateProfile(ctx context.Context, subject string, update ProfileUpdate) (*User, error)
}

// ProfileUpdate carries user-editable profile fields. Nil fields are left
// alone and an empty email clears the stored one.
type ProfileUpdate struct {
	Name      *string `json:"name" validate:"omitempty,notblank,max=120"`
	Email     *string `json:"email" validate:"omitempty,email"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// UserService manages profiles.
type UserService struct {
	repo      UserRepository
	validator *validation.Validator
}

// NewUserService constructs a UserService.
func NewUserService(repo UserRepository, validator *validation.Validator) *UserService {
	if validator == nil {
		validator = validation.New()
	}
	return &UserService{repo: repo, validator: validator}
}

// Touch records a verified request from subject, creating the profile on first
// sight. A first-sight email already held by another subject is dropped so the
// profile is still created; the owner can set a free address later.
func (s *UserService) Touch(ctx context.Context, user User) (*User, error) {
	if strings.TrimSpace(user.Subject) == "" {
		return nil, validation.NewError("subject", "is required")
	}
	now := time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.LastSeenAt = now

	out, err := s.repo.Upsert(ctx, user)
	if errors.Is(err, ErrEmailTaken) && user.Email != "" {
		user.Email = ""
		return s.repo.Upsert(ctx, user)
	}
	return out, err
}

// Get returns the profile for subject.
func (s *UserService) Get(ctx context.Context, subject string) (*User, error) {
	user, err := s.repo.Get(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies edits to the subject's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, subject string, update ProfileUpdate) (*User, error) {
	if err := s.validator.Struct(update); err != nil {
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
	}
	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		update.Email = &email
	}
	user, err := s.repo.UpdateProfile(ctx, subject, update)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
