package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/tix-factory/internal/auth"
	"github.com/kirinyoku/tix-factory/internal/config"
	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/host"
	"github.com/kirinyoku/tix-factory/internal/postgres"
	redisx "github.com/kirinyoku/tix-factory/internal/redis"
	"github.com/kirinyoku/tix-factory/internal/remote"
	"github.com/kirinyoku/tix-factory/internal/remote/rabbitmq"
	"github.com/kirinyoku/tix-factory/internal/repository"
	"github.com/kirinyoku/tix-factory/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/tix-factory/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tix-factory/internal/repository/redis"
	"github.com/kirinyoku/tix-factory/internal/service"
	"github.com/kirinyoku/tix-factory/internal/service/factory"
	"github.com/kirinyoku/tix-factory/internal/service/inventory"
	"github.com/kirinyoku/tix-factory/internal/service/sale"
	httpgin "github.com/kirinyoku/tix-factory/internal/transport/http/gin"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server

	cache    *redisrepo.Cache
	pubsub   *redisx.ShowsPubSub
	local    *remote.LocalScheduler
	consumer *rabbitmq.Consumer

	// closers release connections in reverse order of opening.
	closers []func()
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()
	a := &App{cfg: cfg, logger: logger}

	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	var (
		rdb     *goredis.Client
		idem    *redisrepo.IdempotencyStore
		limiter sale.Limiter
		notify  inventory.Notifier
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redisx.New(ctx, redisx.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })

		a.cache = redisrepo.New(rdb)
		a.pubsub = redisx.NewShowsPubSub(rdb)
		idem = redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
		if cfg.RateLimit.Purchases > 0 {
			limiter = redisrepo.NewSlidingWindowLimiter(rdb, "purchases", cfg.RateLimit.Purchases, cfg.RateLimit.Window)
		}
		notify = a.pubsub
	} else {
		logger.Warn("redis disabled: no cache, idempotency or rate limiting")
	}

	router := remote.NewRouter()
	hst := host.New(uow.NewUoW(store), router, nil, logger.With("component", "host"))
	exec := remote.NewExecutor(hst, remote.ExecutorConfig{
		StepTimeout: cfg.Remote.StepTimeout,
		MaxGas:      remote.Gas(cfg.Remote.MaxGas) * remote.TGas,
	}, logger.With("component", "executor"))

	scheduler, err := a.openScheduler(exec)
	if err != nil {
		a.close()
		return nil, err
	}

	services, err := service.NewServices(service.Deps{
		Store:     store,
		Scheduler: scheduler,
		Router:    router,
		Cache:     a.cache,
		Notifier:  notify,
		Limiter:   limiter,
		Logger:    logger,
	}, service.Config{
		Factory: factory.Config{
			Account:        domain.AccountID(cfg.Factory.Account),
			Owner:          domain.AccountID(cfg.Factory.Owner),
			ProvisionFee:   domain.Amount(cfg.Fees.Provision),
			InitialCapital: domain.Amount(cfg.Fees.InitialCapital),
			InitGas:        remote.Gas(cfg.Remote.InitGas) * remote.TGas,
			SettleGas:      remote.Gas(cfg.Remote.SettleGas) * remote.TGas,
		},
		Sale: sale.Config{
			MintFee:   domain.Amount(cfg.Fees.Mint),
			RedeemFee: domain.Amount(cfg.Fees.Redeem),
			MintGas:   remote.Gas(cfg.Remote.MintGas) * remote.TGas,
			SettleGas: remote.Gas(cfg.Remote.SettleGas) * remote.TGas,
		},
		Decimals: cfg.Decimals,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := hst.Bootstrap(ctx, services.Factory.Account(), host.CodeFactory); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to bootstrap factory account: %w", err)
	}

	tokens, err := auth.New(cfg.Auth.Secret, cfg.Auth.Issuer, nil)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           httpgin.NewRouter(services, idem, tokens, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.Store, error) {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warn("using in-memory storage: state is lost on exit")
		return memory.NewStore(), nil
	}

	pool, err := postgres.New(ctx, postgres.Config{DSN: a.cfg.Postgres.DSN(), MaxConns: a.cfg.Postgres.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	store := postgresrepo.NewStore(pool)
	if a.cfg.Postgres.Migrate {
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
	}

	return store, nil
}

func (a *App) openScheduler(exec *remote.Executor) (remote.Scheduler, error) {
	if a.cfg.Scheduler != config.SchedulerRabbitMQ {
		a.local = remote.NewLocalScheduler(exec, a.logger.With("component", "scheduler"))
		return a.local, nil
	}

	rcfg := rabbitmq.Config{URL: a.cfg.RabbitMQ.URL, Queue: a.cfg.RabbitMQ.Queue, Prefetch: a.cfg.RabbitMQ.Prefetch}

	conn, err := rabbitmq.Dial(rcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rabbitmq: %w", err)
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	a.closers = append(a.closers, func() { _ = ch.Close() })

	a.consumer = rabbitmq.NewConsumer(conn, rcfg, exec, a.logger.With("component", "consumer"))
	return rabbitmq.NewScheduler(ch, rcfg.Queue, exec, a.logger.With("component", "scheduler")), nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	if a.pubsub != nil {
		g.Go(func() error {
			err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, deployment, showKey string) {
				if err := a.cache.InvalidateShow(ctx, deployment, showKey); err != nil {
					a.logger.Warn("cache invalidation failed", "deployment", deployment, "show", showKey, "error", err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if a.consumer != nil {
		g.Go(func() error {
			return a.consumer.Run(gCtx)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		err := a.httpServer.Shutdown(ctx)

		if a.local != nil {
			a.logger.Info("waiting for running chains")
			_ = a.local.Close()
		}
		return err
	})

	return g.Wait()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
