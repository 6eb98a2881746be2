package sweeper

import (
	"context"
	"time"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/authz"
	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
)

type Config struct {
	// CRON schedules the sweep, e.g. "0 0 2 * * *" for nightly.
	CRON string `conf:"cron" yaml:"cron" json:"cron"`

	Enabled bool `conf:"enabled" yaml:"enabled" json:"enabled"`
}

// Worker periodically disables tenants whose subscription lapsed, so
// expired tenants stop validating at login even if nobody signs in to
// trip the per-login check.
type Worker struct {
	Tenants    *biz.TenantService
	Executor   executors.ScheduledExecutor
	Config     Config
	CancelFunc context.CancelFunc
}

type Params struct {
	fx.In

	Config   Config
	Tenants  *biz.TenantService
	Executor executors.ScheduledExecutor
}

func NewWorker(params Params) *Worker {
	return &Worker{
		Tenants:  params.Tenants,
		Executor: params.Executor,
		Config:   params.Config,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	if !w.Config.Enabled {
		log.Info(ctx, "tenant sweeper disabled")
		return nil
	}

	cancelFunc, err := w.Executor.ScheduleFuncAtCronRate(
		w.runSweepWithSystemContext,
		executors.CRONRule{Expr: w.Config.CRON},
	)
	if err != nil {
		return err
	}

	w.CancelFunc = cancelFunc

	log.Info(ctx, "tenant sweeper started", log.String("cron", w.Config.CRON))

	return nil
}

// Stop cancels the schedule. The executor is shared and shut down by its
// own lifecycle hook.
func (w *Worker) Stop(ctx context.Context) error {
	if w.CancelFunc != nil {
		w.CancelFunc()
	}

	return nil
}

func (w *Worker) runSweepWithSystemContext(ctx context.Context) {
	w.RunSweep(authz.NewSystemContext(ctx))
}

// RunSweep performs one pass. It expects a system principal on the
// context.
func (w *Worker) RunSweep(ctx context.Context) {
	disabled, err := w.Tenants.DisableExpired(ctx, time.Now())
	if err != nil {
		log.Error(ctx, "failed to sweep expired tenants", log.Cause(err))
		return
	}

	if len(disabled) > 0 {
		log.Info(ctx, "disabled expired tenants", log.Strings("tenants", disabled))
	}
}
