package app

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klokku/ecosystem/pkg/user"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires the HTTP middlewares shared by all routes.
func SetupMiddleware(r *mux.Router) {
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			log.Debugf("%s %s", req.Method, req.URL.Path)
			next.ServeHTTP(w, req)
		})
	})
}

// requireSession rejects requests while nobody is signed in and propagates the
// stored profile into the context for downstream handlers.
func requireSession(deps *Dependencies) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !deps.CredentialStore.SignedIn() {
				log.Debug("not signed in")
				http.Error(w, "sign in is required", http.StatusForbidden)
				return
			}

			ctx := req.Context()
			profile, err := deps.UserService.GetCurrentProfile(ctx)
			if err != nil && !errors.Is(err, user.ErrNoProfile) {
				log.Errorf("failed to get profile: %v", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if err == nil {
				ctx = user.WithProfile(ctx, profile)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
