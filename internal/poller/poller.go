// Package poller runs a function on a fixed interval without letting runs
// overlap.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/fpldash/internal/logging"
)

// Func is one unit of periodic work. Its error is logged.
type Func func(ctx context.Context) error

// Poller calls a Func every interval. A run still in progress when the next
// tick fires causes that tick to be skipped.
type Poller struct {
	name     string
	interval time.Duration
	fn       Func
	log      zerolog.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	// runs hold a read lock; Stop takes the write lock to wait them out.
	running sync.RWMutex
	stopped chan struct{}
	once    sync.Once
}

// New creates a stopped poller.
func New(name string, interval time.Duration, fn Func, log zerolog.Logger) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		name:     name,
		interval: interval,
		fn:       fn,
		log:      log.With().Str("poller", name).Logger(),
		ctx:      ctx,
		cancel:   cancel,
		stopped:  make(chan struct{}),
	}
	cl := logging.CronLogger{L: p.log}
	p.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))
	return p
}

// Job returns the wrapped job the scheduler runs.
func (p *Poller) Job() cron.Job {
	return cron.NewChain(cron.SkipIfStillRunning(logging.CronLogger{L: p.log})).Then(cron.FuncJob(p.run))
}

func (p *Poller) run() {
	p.running.RLock()
	defer p.running.RUnlock()
	if p.ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := p.fn(p.ctx); err != nil {
		p.log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("poll failed")
		return
	}
	p.log.Debug().Dur("duration", time.Since(start)).Msg("poll done")
}

// Start schedules the job and, if immediate is set, runs it once right away.
func (p *Poller) Start(immediate bool) {
	job := p.Job()
	p.cron.Schedule(cron.Every(p.interval), job)
	p.cron.Start()
	if immediate {
		go job.Run()
	}
	p.log.Info().Dur("interval", p.interval).Msg("poller started")
}

// Stop halts the schedule, cancels the in-flight run's context and waits
// for it to return or for ctx to end.
func (p *Poller) Stop(ctx context.Context) error {
	p.once.Do(func() {
		cronDone := p.cron.Stop()
		p.cancel()
		go func() {
			<-cronDone.Done()
			p.running.Lock()
			defer p.running.Unlock()
			close(p.stopped)
		}()
	})

	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
