package dependencies

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/pkg/xredis"
	"github.com/lyfdddd/ryadmin/internal/server/db"
)

var Module = fx.Module("dependencies",
	fx.Provide(log.New),
	fx.Provide(db.NewDB),
	fx.Provide(xredis.NewClient),
	fx.Provide(func(client *redis.Client) xredis.CounterStore {
		return xredis.NewCounterStore(client)
	}),
	fx.Provide(NewExecutors),
	fx.Invoke(func(lc fx.Lifecycle, executor executors.ScheduledExecutor) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return executor.Shutdown(ctx)
			},
		})
	}),
	fx.Invoke(func(lc fx.Lifecycle, client *redis.Client) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
	}),
)
