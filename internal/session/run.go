package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule holds the live-mode cadences as cron specs with a seconds field.
type Schedule struct {
	// Clock fires OnClock, e.g. to refresh a current-time readout.
	Clock string
	// Resync moves every card to the current time (skipped while editing).
	Resync string
	// OnClock receives the current time on every Clock tick. May be nil.
	OnClock func(time.Time)
}

// Run drives ticks from a cron scheduler until ctx is done.
func (c *Controller) Run(ctx context.Context, sched Schedule) error {
	cr := cron.New(cron.WithSeconds())

	if sched.Clock != "" && sched.OnClock != nil {
		if _, err := cr.AddFunc(sched.Clock, func() {
			sched.OnClock(c.now())
		}); err != nil {
			return fmt.Errorf("clock schedule %q: %w", sched.Clock, err)
		}
	}
	if sched.Resync != "" {
		if _, err := cr.AddFunc(sched.Resync, func() {
			if !c.TickNow() {
				log.Printf("SESSION: %s resync skipped during edit", c.id)
			}
		}); err != nil {
			return fmt.Errorf("resync schedule %q: %w", sched.Resync, err)
		}
	}

	cr.Start()
	<-ctx.Done()
	<-cr.Stop().Done()
	return nil
}
