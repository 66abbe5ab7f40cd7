package calendar

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/klokku/ecosystem/internal/rest"
	"github.com/klokku/ecosystem/pkg/credential"
	log "github.com/sirupsen/logrus"
)

type CalendarDTO struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Handler struct {
	directory *Directory
}

func NewHandler(directory *Directory) *Handler {
	return &Handler{directory}
}

// ListCalendars returns the calendars the dashboard aggregates.
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	calendars, err := h.directory.ListCalendars(r.Context())
	if err != nil {
		if errors.Is(err, credential.ErrNoCredential) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if errors.Is(err, credential.ErrCredentialRejected) {
			rest.WriteError(w, http.StatusUnauthorized, "Sign in again", err.Error())
			return
		}
		log.Errorf("failed to list calendars: %v", err)
		rest.WriteError(w, http.StatusBadGateway, "Unable to list calendars", err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	calendarItems := make([]CalendarDTO, 0, len(calendars))
	for _, c := range calendars {
		calendarItems = append(calendarItems, toCalendarDTO(c))
	}

	if err := json.NewEncoder(w).Encode(calendarItems); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func toCalendarDTO(d Descriptor) CalendarDTO {
	return CalendarDTO{
		Id:    d.ID,
		Name:  d.Name,
		Color: d.Color,
	}
}
