package calendar

import (
	"context"
	"fmt"
	"regexp"

	"github.com/klokku/ecosystem/pkg/auth_retry"
	"github.com/klokku/ecosystem/pkg/credential"
	log "github.com/sirupsen/logrus"
)

// DenyList excludes calendars whose name matches any of its patterns, ignoring case.
type DenyList struct {
	patterns []*regexp.Regexp
}

func NewDenyList(patterns []string) (DenyList, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return DenyList{}, fmt.Errorf("invalid deny-list pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return DenyList{patterns: compiled}, nil
}

func (d DenyList) Denies(name string) bool {
	for _, re := range d.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

type Directory struct {
	provider Provider
	source   auth_retry.Source
	denyList DenyList
}

func NewDirectory(provider Provider, source auth_retry.Source, denyList DenyList) *Directory {
	return &Directory{provider: provider, source: source, denyList: denyList}
}

// ListCalendars returns the visible calendars minus the denied ones, in provider order.
func (d *Directory) ListCalendars(ctx context.Context) ([]Descriptor, error) {
	calendars, err := auth_retry.Call(ctx, d.source, func(ctx context.Context, cred credential.Credential) ([]Descriptor, error) {
		return d.provider.ListCalendars(ctx, cred)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectoryFetch, err)
	}

	allowed := make([]Descriptor, 0, len(calendars))
	for _, c := range calendars {
		if d.denyList.Denies(c.Name) {
			log.Tracef("Skipping denied calendar %q", c.Name)
			continue
		}
		allowed = append(allowed, c)
	}
	log.Debugf("Directory listed %d calendars, %d allowed", len(calendars), len(allowed))
	return allowed, nil
}
