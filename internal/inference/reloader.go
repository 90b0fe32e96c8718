package inference

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/pkg/constants"
)

// ReloadScheduler polls the serving pointer and drives ModelState to pick up
// version changes. Start and Stop are idempotent.
type ReloadScheduler struct {
	state    *ModelState
	interval time.Duration
	logger   *logrus.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewReloadScheduler creates a stopped scheduler. interval <= 0 uses the
// default poll interval.
func NewReloadScheduler(state *ModelState, interval time.Duration, logger *logrus.Logger) *ReloadScheduler {
	if logger == nil {
		logger = logrus.New()
	}
	if interval <= 0 {
		interval = time.Duration(constants.DefaultReloadInterval) * time.Second
	}
	return &ReloadScheduler{
		state:    state,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the reload loop. A no-op when already running.
func (r *ReloadScheduler) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	stopCh := r.stopCh
	r.mu.Unlock()

	r.wg.Add(1)
	go r.loop(ctx, stopCh)

	r.logger.WithField("interval", r.interval).Info("Reload scheduler started")
}

// Stop signals the loop to exit and waits for it. Safe to call repeatedly
// and on a scheduler that was never started.
func (r *ReloadScheduler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("Reload scheduler stopped")
}

// Running reports whether the loop is active.
func (r *ReloadScheduler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *ReloadScheduler) loop(ctx context.Context, stopCh chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			// A failed refresh leaves the previous model serving; the
			// next tick retries.
			if _, err := r.state.Refresh(ctx); err != nil {
				r.logger.WithError(err).Error("Model reload failed")
			}
		}
	}
}
