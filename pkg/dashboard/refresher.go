package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/ecosystem/pkg/credential"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Refresher rebuilds the cached dashboard on a cron schedule.
type Refresher struct {
	cron    *cron.Cron
	service *Service
}

func NewRefresher(service *Service, schedule string, location *time.Location) (*Refresher, error) {
	c := cron.New(cron.WithLocation(location))
	r := &Refresher{cron: c, service: service}
	if _, err := c.AddFunc(schedule, r.refresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Refresher) refresh() {
	view, err := r.service.Refresh(context.Background())
	if errors.Is(err, credential.ErrNoCredential) {
		log.Trace("Skipping dashboard refresh, nobody is signed in")
		return
	}
	if err != nil {
		log.Errorf("Dashboard refresh failed: %v", err)
		return
	}
	log.Debugf("Dashboard refreshed with %d events", len(view.Events))
}
