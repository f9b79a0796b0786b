package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/host"
	"github.com/kirinyoku/tix-factory/internal/remote"
	"github.com/kirinyoku/tix-factory/internal/repository"
	"github.com/kirinyoku/tix-factory/internal/repository/memory"
	"github.com/kirinyoku/tix-factory/internal/service"
	"github.com/kirinyoku/tix-factory/internal/service/factory"
	"github.com/kirinyoku/tix-factory/internal/service/inventory"
	"github.com/kirinyoku/tix-factory/internal/service/sale"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

const (
	factoryAccount = domain.AccountID("tixfactory")
	factoryOwner   = domain.AccountID("admin")

	provisionFee   = domain.Amount(5_000_000_000)
	initialCapital = domain.Amount(6_500_000_000)
	mintFee        = domain.Amount(10_000_000)
	provisionCost  = provisionFee + initialCapital
)

// queue holds submitted commands until the test runs them, so tests can
// interleave chains or drop them.
type queue struct {
	mu   sync.Mutex
	cmds []*remote.Command
	err  error
}

func (q *queue) Submit(ctx context.Context, cmd *remote.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return q.err
	}
	q.cmds = append(q.cmds, cmd)
	return nil
}

func (q *queue) take() []*remote.Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	cmds := q.cmds
	q.cmds = nil
	return cmds
}

type denyAll struct{}

func (denyAll) Allow(ctx context.Context, id string) (bool, int64, time.Duration, error) {
	return false, 11, time.Second, nil
}

type harness struct {
	t     *testing.T
	ctx   context.Context
	now   time.Time
	uow   *uow.UoW
	exec  *remote.Executor
	local *remote.LocalScheduler
	queue *queue
	svc   *service.Services
}

type option func(*service.Deps)

func withLimiter(l sale.Limiter) option {
	return func(d *service.Deps) { d.Limiter = l }
}

// newHarness builds the whole stack on the in-memory store. With queued set,
// chains wait in h.queue until run; otherwise they run on a LocalScheduler.
func newHarness(t *testing.T, queued bool, opts ...option) *harness {
	t.Helper()

	h := &harness{
		t:   t,
		ctx: context.Background(),
		now: time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return h.now }

	store := memory.NewStore()
	h.uow = uow.NewUoW(store)

	router := remote.NewRouter()
	hst := host.New(h.uow, router, clock, nil)
	h.exec = remote.NewExecutor(hst, remote.ExecutorConfig{StepTimeout: 5 * time.Second}, nil)

	deps := service.Deps{
		Store:  store,
		Router: router,
		Clock:  clock,
	}
	if queued {
		h.queue = &queue{}
		deps.Scheduler = h.queue
	} else {
		h.local = remote.NewLocalScheduler(h.exec, nil)
		deps.Scheduler = h.local
		t.Cleanup(func() { _ = h.local.Close() })
	}
	for _, o := range opts {
		o(&deps)
	}

	svc, err := service.NewServices(deps, service.Config{
		Factory: factory.Config{
			Account:        factoryAccount,
			Owner:          factoryOwner,
			ProvisionFee:   provisionFee,
			InitialCapital: initialCapital,
		},
		Sale:     sale.Config{MintFee: mintFee, RedeemFee: 1},
		Decimals: 9,
	})
	require.NoError(t, err)
	h.svc = svc

	require.NoError(t, hst.Bootstrap(h.ctx, factoryAccount, host.CodeFactory))
	return h
}

// drain runs every pending chain to completion.
func (h *harness) drain() {
	h.t.Helper()

	if h.local != nil {
		h.local.Wait()
		return
	}
	for _, cmd := range h.queue.take() {
		require.NoError(h.t, h.exec.Execute(h.ctx, cmd))
	}
}

func (h *harness) credit(id domain.AccountID, amount domain.Amount) {
	h.t.Helper()

	_, err := h.svc.Factory.Credit(h.ctx, factoryOwner, id, amount)
	require.NoError(h.t, err)
}

func (h *harness) balance(id domain.AccountID) domain.Amount {
	h.t.Helper()

	acc, err := h.svc.Query.Account(h.ctx, id)
	require.NoError(h.t, err)
	return acc.Balance
}

func (h *harness) caller(id domain.AccountID) domain.Caller {
	return domain.Caller{Account: id, PublicKey: "ed25519:" + string(id)}
}

// deploy provisions prefix for organizer and waits for it to be ready.
func (h *harness) deploy(organizer domain.AccountID, prefix string) domain.AccountID {
	h.t.Helper()

	h.credit(organizer, provisionCost)
	p, err := h.svc.Factory.Provision(h.ctx, h.caller(organizer), prefix,
		domain.ContractMetadata{Name: "Gala Night", Symbol: "GALA"}, provisionCost)
	require.NoError(h.t, err)
	h.drain()

	_, err = h.svc.Query.Deployment(h.ctx, p.Deployment)
	require.NoError(h.t, err)
	return p.Deployment
}

// show creates a show on sale for the next day with the given types.
func (h *harness) show(owner, dep domain.AccountID, key string, types ...domain.TicketTypeSpec) {
	h.t.Helper()

	_, err := h.svc.Inventory.CreateShow(h.ctx, owner, dep, inventory.ShowInput{
		Key:         key,
		ShowTime:    h.now.Add(48 * time.Hour),
		SaleStart:   h.now.Add(-time.Hour),
		SaleEnd:     h.now.Add(24 * time.Hour),
		TicketTypes: types,
	})
	require.NoError(h.t, err)
}

func (h *harness) ticketType(dep domain.AccountID, showKey, name string) domain.TicketType {
	h.t.Helper()

	var tt domain.TicketType
	require.NoError(h.t, h.uow.Read(h.ctx, func(ctx context.Context, tx repository.Tx) error {
		sh, err := tx.Shows().Get(ctx, dep, showKey)
		if err != nil {
			return err
		}
		tt = sh.TicketTypes[name]
		return nil
	}))
	return tt
}
