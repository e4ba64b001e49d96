package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-rift-portal/sessions"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const sweepTimeout = time.Minute

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Janitor periodically sweeps idle browser scopes out of session storage
type Janitor struct {
	cron    *cron.Cron
	expirer sessions.Expirer
	onSweep func(removed int)
}

// NewJanitor validates schedule (standard 5 field cron or a descriptor such as "@every 10m")
func NewJanitor(schedule string, expirer sessions.Expirer, onSweep func(removed int)) (*Janitor, error) {
	j := &Janitor{
		cron:    cron.New(cron.WithParser(parser)),
		expirer: expirer,
		onSweep: onSweep,
	}
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("[scheduler NewJanitor] invalid schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce sweeps immediately
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	removed, err := j.expirer.CleanupExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("[Janitor RunOnce] %w", err)
	}
	if j.onSweep != nil {
		j.onSweep(removed)
	}
	return removed, nil
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	removed, err := j.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("swept idle browser scopes")
	}
}
