package screens

import (
	"context"
	"errors"
	"sync"
	"time"

	"eps-citas/internal/platform/logger"

	"github.com/go-co-op/gocron"
)

const DefaultRefreshInterval = 30 * time.Second

// AutoRefresh llama a refresh cada intervalo hasta Stop. Las ejecuciones no se solapan.
type AutoRefresh struct {
	refresh func(context.Context)
	log     logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	sched  *gocron.Scheduler

	mu      sync.Mutex
	running bool

	// runMu serializa las ejecuciones del scheduler y las de ForceRefresh.
	runMu sync.Mutex
}

// StartAutoRefresh arranca el scheduler. La primera ejecución ocurre al cumplirse
// el primer intervalo; la carga inicial es responsabilidad de la pantalla.
func StartAutoRefresh(ctx context.Context, interval time.Duration, refresh func(context.Context), log logger.Logger) (*AutoRefresh, error) {
	if refresh == nil {
		return nil, errors.New("screens: refresh func required")
	}
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if log == nil {
		log = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)
	a := &AutoRefresh{
		refresh: refresh,
		log:     log.With(map[string]any{"component": "autorefresh"}),
		ctx:     ctx,
		cancel:  cancel,
		sched:   gocron.NewScheduler(time.Local),
	}
	a.sched.SingletonModeAll()

	if _, err := a.sched.Every(interval).WaitForSchedule().Do(a.run); err != nil {
		cancel()
		return nil, err
	}
	a.sched.StartAsync()
	a.running = true
	a.log.Debug("auto refresh started", map[string]any{"interval": interval.String()})
	return a, nil
}

func (a *AutoRefresh) run() {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.ctx.Err() != nil {
		return
	}
	a.refresh(a.ctx)
}

// ForceRefresh ejecuta refresh ya, en la goroutine del caller. Si hay una ejecución
// en curso, espera a que termine.
func (a *AutoRefresh) ForceRefresh() {
	a.run()
}

// Stop detiene el scheduler y cancela la ejecución en curso. Es idempotente.
func (a *AutoRefresh) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	a.running = false
	a.cancel()
	a.sched.Stop()
	a.log.Debug("auto refresh stopped", nil)
}
