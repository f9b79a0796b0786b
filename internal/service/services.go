// Package service wires the domain services around one store and registers
// their privileged methods with the host router.
package service

import (
	"log/slog"
	"time"

	"github.com/kirinyoku/tix-factory/internal/pricing"
	"github.com/kirinyoku/tix-factory/internal/remote"
	"github.com/kirinyoku/tix-factory/internal/repository"
	redisrepo "github.com/kirinyoku/tix-factory/internal/repository/redis"
	"github.com/kirinyoku/tix-factory/internal/service/factory"
	"github.com/kirinyoku/tix-factory/internal/service/inventory"
	"github.com/kirinyoku/tix-factory/internal/service/query"
	"github.com/kirinyoku/tix-factory/internal/service/sale"
	"github.com/kirinyoku/tix-factory/internal/service/settlement"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

type Services struct {
	Factory   *factory.Service
	Inventory *inventory.Service
	Sale      *sale.Service
	Query     *query.Service
	Settler   *settlement.Settler
}

type Config struct {
	Factory  factory.Config
	Sale     sale.Config
	Query    query.Config
	Decimals int
}

// Deps are the collaborators shared by the services. Cache, Notifier and
// Limiter are optional.
type Deps struct {
	Store     repository.Store
	Scheduler remote.Scheduler
	Router    *remote.Router
	Cache     *redisrepo.Cache
	Notifier  inventory.Notifier
	Limiter   sale.Limiter
	Clock     func() time.Time
	Logger    *slog.Logger
}

func NewServices(deps Deps, cfg Config) (*Services, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	prices, err := pricing.New(cfg.Decimals, cfg.Sale.MintFee)
	if err != nil {
		return nil, err
	}

	settler := settlement.New(uow.NewUoW(deps.Store), deps.Clock, deps.Logger.With("component", "settlement"))

	inv := inventory.New(deps.Store, deps.Cache, deps.Notifier, prices, deps.Clock, deps.Logger.With("component", "inventory"))

	svc := &Services{
		Factory:   factory.New(deps.Store, deps.Scheduler, settler, cfg.Factory, deps.Clock, deps.Logger.With("component", "factory")),
		Inventory: inv,
		Sale:      sale.New(deps.Store, inv, deps.Scheduler, settler, deps.Limiter, cfg.Sale, deps.Clock, deps.Logger.With("component", "sale")),
		Query:     query.New(deps.Store, deps.Cache, cfg.Query, deps.Clock),
		Settler:   settler,
	}

	if deps.Router != nil {
		svc.Factory.Register(deps.Router)
		svc.Inventory.Register(deps.Router)
		svc.Sale.Register(deps.Router)
	}

	return svc, nil
}
