// Package schedule drops the cached catalog on a cron schedule.
package schedule

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/banux/tcg-kiosk/internal/catalog"
)

// Invalidator periodically invalidates a catalog source.
type Invalidator struct {
	cron *cron.Cron
	id   cron.EntryID
}

// New schedules target.Invalidate according to spec, a standard five-field
// cron expression or a descriptor such as "@hourly" or "@every 10m".
// When warm is true the catalog is rebuilt right after each invalidation
// so that the next request does not pay for the walk.
func New(spec string, target catalog.Invalidator, src catalog.Source, warm bool, log zerolog.Logger) (*Invalidator, error) {
	c := cron.New()
	id, err := c.AddFunc(spec, func() {
		target.Invalidate()
		log.Info().Str("schedule", spec).Msg("catalog invalidated")
		if !warm || src == nil {
			return
		}
		if _, err := src.Snapshot(); err != nil {
			log.Error().Err(err).Msg("rebuild catalog")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Invalidator{cron: c, id: id}, nil
}

// Start runs the schedule in its own goroutine.
func (i *Invalidator) Start() {
	i.cron.Start()
}

// Stop halts the schedule and waits for a running invalidation to finish.
func (i *Invalidator) Stop() {
	<-i.cron.Stop().Done()
}

// Run executes the scheduled job once, immediately.
func (i *Invalidator) Run() {
	i.cron.Entry(i.id).Job.Run()
}
