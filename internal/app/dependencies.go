package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/klokku/ecosystem/internal/config"
	"github.com/klokku/ecosystem/internal/event_bus"
	"github.com/klokku/ecosystem/internal/utils"
	"github.com/klokku/ecosystem/pkg/calendar"
	"github.com/klokku/ecosystem/pkg/credential"
	"github.com/klokku/ecosystem/pkg/dashboard"
	"github.com/klokku/ecosystem/pkg/google"
	"github.com/klokku/ecosystem/pkg/notice"
	"github.com/klokku/ecosystem/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	CredentialStore *credential.Store

	GoogleAuth        *google.GoogleAuth
	GoogleClient      *google.Client
	GoogleAuthHandler *google.AuthHandler

	UserService user.Service
	UserHandler *user.Handler

	CalendarDirectory *calendar.Directory
	EventAggregator   *calendar.Aggregator
	CalendarHandler   *calendar.Handler

	DashboardCache     *dashboard.Cache
	DashboardService   *dashboard.Service
	DashboardHandler   *dashboard.Handler
	DashboardRefresher *dashboard.Refresher
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application, clock utils.Clock, endpoints google.Endpoints) (*Dependencies, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	denyList, err := calendar.NewDenyList(cfg.Calendar.DenyList)
	if err != nil {
		return nil, err
	}
	rules, err := noticeRules(cfg.Notices)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{}
	deps.Clock = clock
	deps.EventBus = event_bus.NewEventBus()

	deps.GoogleAuth = google.NewGoogleAuth(cfg, google.NewSessionRepository(db))
	deps.GoogleClient = google.NewClient(endpoints)
	deps.CredentialStore = credential.NewStore(credential.NewRepository(db), deps.GoogleAuth, deps.Clock, deps.EventBus)

	deps.UserService = user.NewUserService(user.NewRepo(db), deps.GoogleClient, deps.CredentialStore)
	deps.UserHandler = user.NewHandler(deps.UserService)
	deps.CredentialStore.OnSignOut(deps.UserService.ClearProfile)

	deps.GoogleAuthHandler = google.NewAuthHandler(deps.GoogleAuth, deps.CredentialStore, deps.UserService, deps.Clock, cfg.Host+"/")

	deps.CalendarDirectory = calendar.NewDirectory(deps.GoogleClient, deps.CredentialStore, denyList)
	deps.EventAggregator = calendar.NewAggregator(deps.GoogleClient, deps.CredentialStore, location,
		int64(cfg.Calendar.MaxResults), cfg.Calendar.MaxConcurrentFetches)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarDirectory)

	deps.DashboardCache = dashboard.NewCache()
	deps.DashboardCache.Watch(deps.CredentialStore)
	deps.DashboardService = dashboard.NewService(deps.CalendarDirectory, deps.EventAggregator, deps.Clock, dashboard.Settings{
		RequiredCalendarID: cfg.Calendar.RequiredCalendarId,
		MonthsBefore:       cfg.Calendar.MonthsBefore,
		MonthsAfter:        cfg.Calendar.MonthsAfter,
		Location:           location,
		Rules:              rules,
	}, deps.DashboardCache)
	deps.DashboardHandler = dashboard.NewHandler(deps.DashboardService, calendar.DisplayFormat{
		DateLayout: cfg.Display.DateLayout,
		TimeLayout: cfg.Display.TimeLayout,
		Location:   location,
	})
	deps.DashboardRefresher, err = dashboard.NewRefresher(deps.DashboardService, cfg.Calendar.Refresh, location)
	if err != nil {
		return nil, err
	}

	return deps, nil
}

// Init recovers the persisted session.
func (d *Dependencies) Init(ctx context.Context) error {
	return d.CredentialStore.Init(ctx)
}

func noticeRules(configured []config.NoticeRule) ([]notice.Rule, error) {
	rules := make([]notice.Rule, 0, len(configured))
	for i, c := range configured {
		rule, err := notice.NewRule(c.Keyword, notice.Severity(c.Severity), c.Message)
		if err != nil {
			return nil, fmt.Errorf("notices[%d]: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
