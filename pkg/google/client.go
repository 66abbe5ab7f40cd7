package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/klokku/ecosystem/pkg/calendar"
	"github.com/klokku/ecosystem/pkg/credential"
	"github.com/klokku/ecosystem/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	oauth2v2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Endpoints overrides the Google API base URLs. Empty values keep the defaults.
type Endpoints struct {
	Calendar string
	Userinfo string
}

// Client talks to the Google Calendar and userinfo APIs with the bearer token
// it is handed on every call. It holds no credential state itself.
type Client struct {
	endpoints Endpoints
}

func NewClient(endpoints Endpoints) *Client {
	return &Client{endpoints: endpoints}
}

func (c *Client) ListCalendars(ctx context.Context, cred credential.Credential) ([]calendar.Descriptor, error) {
	service, err := gcal.NewService(ctx, c.options(ctx, cred, c.endpoints.Calendar)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}

	var calendars []calendar.Descriptor
	err = service.CalendarList.List().Pages(ctx, func(page *gcal.CalendarList) error {
		for _, item := range page.Items {
			name := item.Summary
			if item.SummaryOverride != "" {
				name = item.SummaryOverride
			}
			calendars = append(calendars, calendar.Descriptor{
				ID:    item.Id,
				Name:  name,
				Color: item.BackgroundColor,
			})
		}
		return nil
	})
	if err != nil {
		return nil, mapError("unable to retrieve calendars from Google Calendar", err)
	}
	return calendars, nil
}

func (c *Client) ListEvents(ctx context.Context, cred credential.Credential, calendarID string, q calendar.Query) ([]calendar.RawEvent, error) {
	service, err := gcal.NewService(ctx, c.options(ctx, cred, c.endpoints.Calendar)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}

	call := service.Events.List(calendarID).
		TimeMin(q.From.Format(time.RFC3339)).
		TimeMax(q.To.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	if q.MaxResults > 0 {
		call = call.MaxResults(q.MaxResults)
	}

	var events []calendar.RawEvent
	err = call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			events = append(events, calendar.RawEvent{
				ID:      item.Id,
				Summary: item.Summary,
				Start:   rawDate(item.Start),
				End:     rawDate(item.End),
			})
		}
		return nil
	})
	if err != nil {
		return nil, mapError("unable to retrieve events from Google Calendar", err)
	}
	log.Tracef("Fetched %d events of calendar %s", len(events), calendarID)
	return events, nil
}

func (c *Client) FetchProfile(ctx context.Context, cred credential.Credential) (user.Profile, error) {
	service, err := oauth2v2.NewService(ctx, c.options(ctx, cred, c.endpoints.Userinfo)...)
	if err != nil {
		return user.Profile{}, fmt.Errorf("unable to create userinfo client: %w", err)
	}
	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return user.Profile{}, mapError("unable to retrieve Google profile", err)
	}
	return user.Profile{Name: info.Name, Email: info.Email, Picture: info.Picture}, nil
}

func (c *Client) options(ctx context.Context, cred credential.Credential, endpoint string) []option.ClientOption {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.AccessToken, TokenType: "Bearer"})
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, source))}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}

func rawDate(d *gcal.EventDateTime) *calendar.RawDate {
	if d == nil {
		return nil
	}
	return &calendar.RawDate{Date: d.Date, DateTime: d.DateTime}
}

func mapError(message string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", message, credential.ErrCredentialRejected)
	}
	return fmt.Errorf("%s: %w", message, err)
}
