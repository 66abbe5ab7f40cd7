package user

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type ProfileDTO struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Picture     string `json:"picture"`
	DisplayName string `json:"displayName"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CurrentUser godoc
// @Summary Get current user
// @Description Retrieve the profile of the signed-in identity
// @Tags User
// @Produce json
// @Success 200 {object} ProfileDTO
// @Failure 403 {string} string "Not signed in"
// @Router /api/user/current [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting current user")

	profile, err := CurrentProfile(r.Context())
	if errors.Is(err, ErrNoProfile) {
		profile, err = h.userService.GetCurrentProfile(r.Context())
	}
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(profileToDTO(profile)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func profileToDTO(p Profile) ProfileDTO {
	return ProfileDTO{
		Name:        p.Name,
		Email:       p.Email,
		Picture:     p.Picture,
		DisplayName: p.DisplayName(),
	}
}
