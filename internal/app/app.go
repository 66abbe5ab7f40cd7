package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/ecosystem/internal/config"
	"github.com/klokku/ecosystem/internal/database"
	"github.com/klokku/ecosystem/internal/utils"
	"github.com/klokku/ecosystem/pkg/google"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, session database, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	db     *sql.DB
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Session.Path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	deps, err := BuildDependencies(db, cfg, utils.SystemClock{}, google.Endpoints{})
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := deps.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Listen,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, router: r, srv: srv}, nil
}

// Run starts the background refresh and the HTTP server and blocks.
func (a *Application) Run() error {
	a.deps.DashboardRefresher.Start()
	defer a.deps.DashboardRefresher.Stop()
	defer a.db.Close()

	log.Infof("Starting server on %s, open %s to sign in", a.srv.Addr, a.cfg.Host)
	return a.srv.ListenAndServe()
}
