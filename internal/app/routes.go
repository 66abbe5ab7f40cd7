package app

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	// Sign in
	r.HandleFunc("/api/auth/login", deps.GoogleAuthHandler.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/auth/callback", deps.GoogleAuthHandler.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/auth/logout", deps.GoogleAuthHandler.OAuthLogout).Methods("DELETE")

	session := r.PathPrefix("/api").Subrouter()
	session.Use(requireSession(deps))

	session.HandleFunc("/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	session.HandleFunc("/calendars", deps.CalendarHandler.ListCalendars).Methods("GET")
	session.HandleFunc("/dashboard", deps.DashboardHandler.GetDashboard).Methods("GET")
	session.HandleFunc("/events", deps.DashboardHandler.GetEvents).Queries("from", "{from}", "to", "{to}").Methods("GET")
}
