package dashboard

import (
	"context"
	"time"

	"github.com/klokku/ecosystem/internal/utils"
	"github.com/klokku/ecosystem/pkg/calendar"
	"github.com/klokku/ecosystem/pkg/notice"
	log "github.com/sirupsen/logrus"
)

type Settings struct {
	RequiredCalendarID string
	MonthsBefore       int
	MonthsAfter        int
	Location           *time.Location
	Rules              []notice.Rule
}

type Service struct {
	directory  *calendar.Directory
	aggregator *calendar.Aggregator
	clock      utils.Clock
	settings   Settings
	cache      *Cache
}

func NewService(directory *calendar.Directory, aggregator *calendar.Aggregator, clock utils.Clock, settings Settings, cache *Cache) *Service {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	return &Service{
		directory:  directory,
		aggregator: aggregator,
		clock:      clock,
		settings:   settings,
		cache:      cache,
	}
}

// Build runs a full aggregation cycle. Directory and authorization failures are
// returned; a failing calendar only reduces the events shown.
func (s *Service) Build(ctx context.Context) (View, error) {
	calendars, err := s.directory.ListCalendars(ctx)
	if err != nil {
		return View{}, err
	}

	now := s.clock.Now().In(s.settings.Location)
	from, to := calendar.MonthWindow(now, s.settings.Location, s.settings.MonthsBefore, s.settings.MonthsAfter)
	events := s.aggregator.FetchEvents(ctx, calendars, from, to)
	dayStart, dayEnd := calendar.DayWindow(now, s.settings.Location)

	view := View{
		HasAccess:   s.hasAccess(calendars),
		Events:      calendar.FilterActive(events, from, to),
		Today:       calendar.FilterActive(events, dayStart, dayEnd),
		WindowStart: from,
		WindowEnd:   to,
		BuiltAt:     now,
	}
	if !view.HasAccess {
		log.Warnf("Required calendar %s is not visible to the session", s.settings.RequiredCalendarID)
		view.Notices = append(view.Notices, notice.ActiveNotice{Rule: AccessNotice, Active: true})
	}
	view.Notices = append(view.Notices, notice.OnlyActive(notice.ActiveNotices(events, s.settings.Rules, now))...)
	return view, nil
}

// Dashboard returns the cached view, building it when there is none.
func (s *Service) Dashboard(ctx context.Context) (View, error) {
	if view, ok := s.cache.Get(); ok {
		log.Trace("Serving cached dashboard")
		return view, nil
	}
	return s.Refresh(ctx)
}

// Refresh builds a new view and caches it unless the cache was invalidated meanwhile.
func (s *Service) Refresh(ctx context.Context) (View, error) {
	generation := s.cache.Generation()
	view, err := s.Build(ctx)
	if err != nil {
		return View{}, err
	}
	if !s.cache.Store(generation, view) {
		log.Debug("Discarding dashboard built before invalidation")
	}
	return view, nil
}

// Events returns the events active in [from, to) across all allowed calendars.
func (s *Service) Events(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	calendars, err := s.directory.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	events := s.aggregator.FetchEvents(ctx, calendars, from, to)
	return calendar.FilterActive(events, from, to), nil
}

func (s *Service) hasAccess(calendars []calendar.Descriptor) bool {
	if s.settings.RequiredCalendarID == "" {
		return true
	}
	for _, c := range calendars {
		if c.ID == s.settings.RequiredCalendarID {
			return true
		}
	}
	return false
}
