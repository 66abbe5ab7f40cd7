package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/klokku/ecosystem/internal/rest"
	"github.com/klokku/ecosystem/pkg/calendar"
	"github.com/klokku/ecosystem/pkg/credential"
	"github.com/klokku/ecosystem/pkg/notice"
	log "github.com/sirupsen/logrus"
)

type NoticeDTO struct {
	Severity notice.Severity `json:"severity"`
	Message  string          `json:"message"`
}

type EventDTO struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	AllDay        bool      `json:"allDay"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	RawStart      string    `json:"rawStart"`
	RawEnd        string    `json:"rawEnd,omitempty"`
	Period        string    `json:"period"`
	CalendarID    string    `json:"calendarId"`
	CalendarName  string    `json:"calendarName"`
	CalendarColor string    `json:"calendarColor,omitempty"`
}

type DashboardDTO struct {
	HasAccess   bool        `json:"hasAccess"`
	Notices     []NoticeDTO `json:"notices"`
	Today       []EventDTO  `json:"today"`
	Events      []EventDTO  `json:"events"`
	WindowStart time.Time   `json:"windowStart"`
	WindowEnd   time.Time   `json:"windowEnd"`
}

type Handler struct {
	service *Service
	format  calendar.DisplayFormat
}

func NewHandler(service *Service, format calendar.DisplayFormat) *Handler {
	return &Handler{service: service, format: format}
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting dashboard")
	view, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	dto := DashboardDTO{
		HasAccess:   view.HasAccess,
		Notices:     make([]NoticeDTO, 0, len(view.Notices)),
		Today:       h.eventsToDTO(view.Today),
		Events:      h.eventsToDTO(view.Events),
		WindowStart: view.WindowStart,
		WindowEnd:   view.WindowEnd,
	}
	for _, n := range view.Notices {
		dto.Notices = append(dto.Notices, NoticeDTO{Severity: n.Rule.Severity, Message: n.Rule.Message})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in RFC3339 format")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in RFC3339 format")
		return
	}
	if !from.Before(to) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid window", "'from' must be before 'to'")
		return
	}

	events, err := h.service.Events(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.eventsToDTO(events)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, credential.ErrNoCredential):
		rest.WriteError(w, http.StatusForbidden, "Sign in is required", "")
	case errors.Is(err, credential.ErrCredentialRejected):
		rest.WriteError(w, http.StatusUnauthorized, "Your session has expired, sign in again", err.Error())
	case errors.Is(err, calendar.ErrDirectoryFetch):
		log.Errorf("Dashboard unavailable: %v", err)
		rest.WriteError(w, http.StatusBadGateway, "Unable to load calendars", err.Error())
	default:
		log.Errorf("Dashboard unavailable: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Unable to load dashboard", err.Error())
	}
}

func (h *Handler) eventsToDTO(events []calendar.Event) []EventDTO {
	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, EventDTO{
			ID:            e.ID,
			Title:         e.Title,
			AllDay:        e.AllDay,
			Start:         e.Start,
			End:           e.EffectiveEnd(),
			RawStart:      e.RawStart,
			RawEnd:        e.RawEnd,
			Period:        e.Display(h.format),
			CalendarID:    e.CalendarID,
			CalendarName:  e.CalendarName,
			CalendarColor: e.CalendarColor,
		})
	}
	return dtos
}
