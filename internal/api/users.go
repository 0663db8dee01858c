package api

import (
	"net/http"
	"time"

	"example.com/fittrack/internal/domain"
)

// UserView is the response shape of a profile.
type UserView struct {
	Subject    string    `json:"subject"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

func toUserView(u domain.User) UserView {
	return UserView{
		Subject:    u.Subject,
		Name:       u.Name,
		Email:      u.Email,
		AvatarURL:  u.AvatarURL,
		CreatedAt:  u.CreatedAt,
		LastSeenAt: u.LastSeenAt,
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	owner, ok := subject(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := h.users.Get(r.Context(), owner)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserView(*user))
	case http.MethodPut:
		var update domain.ProfileUpdate
		if !decodeBody(w, r, &update) {
			return
		}
		user, err := h.users.UpdateProfile(r.Context(), owner, update)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserView(*user))
	default:
		methodNotAllowed(w)
	}
}
