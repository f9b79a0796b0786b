package service_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/remote"
	"github.com/kirinyoku/tix-factory/internal/service/factory"
	"github.com/kirinyoku/tix-factory/internal/service/inventory"
	"github.com/kirinyoku/tix-factory/internal/service/sale"
)

func TestGalaScenario(t *testing.T) {
	h := newHarness(t, false)

	dep := h.deploy("alice", "gala")
	assert.Equal(t, domain.AccountID("gala.tixfactory"), dep)

	d, err := h.svc.Query.Deployment(h.ctx, dep)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountID("alice"), d.Owner)
	assert.Equal(t, domain.DefaultMetadataSpec, d.Metadata.Spec)

	assert.Equal(t, domain.Amount(0), h.balance("alice"))
	assert.Equal(t, provisionFee, h.balance(factoryAccount))
	assert.Equal(t, initialCapital, h.balance(dep))

	acc, err := h.svc.Query.Account(h.ctx, dep)
	require.NoError(t, err)
	assert.Equal(t, []string{"ed25519:alice"}, acc.Keys)

	listed, err := h.svc.Factory.DeploymentsOwnedBy(h.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.AccountID{dep}, listed)

	h.show("alice", dep, "gala",
		domain.TicketTypeSpec{Name: "vip", Supply: 2, Price: 1.5},
		domain.TicketTypeSpec{Name: "standard", Supply: 100, Price: 0.25},
	)

	vip := h.ticketType(dep, "gala", "vip")
	assert.Equal(t, domain.Amount(1_510_000_000), vip.UnitPrice)

	h.credit("bob", 2_000_000_000)
	p, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", vip.UnitPrice)
	require.NoError(t, err)
	assert.Equal(t, "gala.vip.0", p.TokenID)
	h.drain()

	saga, err := h.svc.Query.Saga(h.ctx, p.SagaID)
	require.NoError(t, err)
	assert.Equal(t, domain.SagaCommitted, saga.Status)

	ticket, err := h.svc.Query.Ticket(h.ctx, dep, "gala.vip.0")
	require.NoError(t, err)
	assert.False(t, ticket.IsUsed)
	require.NotNil(t, ticket.Show)
	assert.Equal(t, uint32(1), ticket.Show.TicketTypes["vip"].Sold)

	owned, err := h.svc.Query.TicketsOwnedBy(h.ctx, dep, "bob")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "gala.vip.0", owned[0].TokenID)

	assert.Equal(t, domain.Amount(490_000_000), h.balance("bob"))
	assert.Equal(t, initialCapital+vip.UnitPrice, h.balance(dep))

	redeemed, err := h.svc.Sale.Redeem(h.ctx, "bob", dep, "gala.vip.0", 1)
	require.NoError(t, err)
	assert.True(t, redeemed.IsUsed)

	ticket, err = h.svc.Query.Ticket(h.ctx, dep, "gala.vip.0")
	require.NoError(t, err)
	assert.True(t, ticket.IsUsed)
}

func TestSupplyOfTwoSellsExactlyTwice(t *testing.T) {
	h := newHarness(t, false)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "ga", Supply: 2, Price: 1.00})

	price := h.ticketType(dep, "gala", "ga").UnitPrice
	require.Equal(t, domain.Amount(1_000_000_000)+mintFee, price)

	for i, buyer := range []domain.AccountID{"bob", "carol"} {
		h.credit(buyer, price)
		p, err := h.svc.Sale.BuyTicket(h.ctx, h.caller(buyer), dep, "gala", "ga", price)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("gala.ga.%d", i), p.TokenID)
		h.drain()

		saga, err := h.svc.Query.Saga(h.ctx, p.SagaID)
		require.NoError(t, err)
		assert.Equal(t, domain.SagaCommitted, saga.Status)
		assert.Equal(t, uint32(i+1), h.ticketType(dep, "gala", "ga").Sold)
		assert.Equal(t, domain.Amount(0), h.balance(buyer))
	}

	h.credit("dave", price)
	_, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("dave"), dep, "gala", "ga", price)
	assert.ErrorIs(t, err, domain.ErrSoldOut)
	h.drain()

	assert.Equal(t, uint32(2), h.ticketType(dep, "gala", "ga").Sold)
	assert.Equal(t, price, h.balance("dave"))
	assert.Equal(t, initialCapital+2*price, h.balance(dep))
}

func TestProvisionDepositMismatchHasNoEffect(t *testing.T) {
	h := newHarness(t, true)
	h.credit("alice", 2*provisionCost)

	for _, deposit := range []domain.Amount{0, provisionCost - 1, provisionCost + 1} {
		_, err := h.svc.Factory.Provision(h.ctx, h.caller("alice"), "gala",
			domain.ContractMetadata{Name: "Gala", Symbol: "GALA"}, deposit)
		assert.ErrorIs(t, err, domain.ErrInsufficientDeposit)
	}

	assert.Equal(t, 2*provisionCost, h.balance("alice"))
	assert.Equal(t, domain.Amount(0), h.balance(factoryAccount))
	assert.Empty(t, h.queue.take())

	listed, err := h.svc.Factory.DeploymentsOwnedBy(h.ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestProvisionRejectsBadInputBeforeCharging(t *testing.T) {
	h := newHarness(t, true)
	h.credit("alice", provisionCost)

	_, err := h.svc.Factory.Provision(h.ctx, h.caller("alice"), "Bad.Prefix",
		domain.ContractMetadata{Name: "Gala", Symbol: "GALA"}, provisionCost)
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)

	_, err = h.svc.Factory.Provision(h.ctx, h.caller("alice"), "gala",
		domain.ContractMetadata{Name: "Gala"}, provisionCost)
	assert.ErrorIs(t, err, domain.ErrInvalidMetadata)

	assert.Equal(t, provisionCost, h.balance("alice"))
}

func TestProvisionFailureRefundsOnce(t *testing.T) {
	h := newHarness(t, true)
	h.deploy("alice", "gala")

	// The sub-account exists, so the second provisioning fails remotely.
	h.credit("carol", provisionCost)
	p, err := h.svc.Factory.Provision(h.ctx, h.caller("carol"), "gala",
		domain.ContractMetadata{Name: "Copy", Symbol: "CPY"}, provisionCost)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(0), h.balance("carol"))

	cmds := h.queue.take()
	require.Len(t, cmds, 1)
	require.NoError(t, h.exec.Execute(h.ctx, cmds[0]))

	assert.Equal(t, provisionCost, h.balance("carol"))
	assert.Equal(t, provisionFee, h.balance(factoryAccount))

	saga, err := h.svc.Query.Saga(h.ctx, p.SagaID)
	require.NoError(t, err)
	assert.Equal(t, domain.SagaCompensated, saga.Status)

	// A second delivery of the continuation must not refund again.
	require.NoError(t, h.exec.Deliver(h.ctx, cmds[0], remote.Failed(*cmds[0], errors.New("replayed"))))
	assert.Equal(t, provisionCost, h.balance("carol"))
	assert.Equal(t, provisionFee, h.balance(factoryAccount))

	// The failed deployment stays listed.
	listed, err := h.svc.Factory.DeploymentsOwnedBy(h.ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, []domain.AccountID{"gala.tixfactory"}, listed)

	d, err := h.svc.Query.Deployment(h.ctx, "gala.tixfactory")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountID("alice"), d.Owner)
}

func TestProvisionConstructorFailureRefunds(t *testing.T) {
	h := newHarness(t, true)
	h.credit("carol", provisionCost)

	p, err := h.svc.Factory.Provision(h.ctx, h.caller("carol"), "gala",
		domain.ContractMetadata{Name: "Gala", Symbol: "GALA"}, provisionCost)
	require.NoError(t, err)

	cmds := h.queue.take()
	require.Len(t, cmds, 1)
	cmd := cmds[0]

	// the account batch succeeds and the constructor rejects its arguments
	cmd.Stages[1].Actions[0].Args = json.RawMessage(`{}`)
	require.NoError(t, h.exec.Execute(h.ctx, cmd))

	assert.Equal(t, provisionCost, h.balance("carol"))
	assert.Equal(t, domain.Amount(0), h.balance(factoryAccount))

	_, err = h.svc.Query.Account(h.ctx, p.Deployment)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.svc.Query.Deployment(h.ctx, p.Deployment)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	saga, err := h.svc.Query.Saga(h.ctx, p.SagaID)
	require.NoError(t, err)
	assert.Equal(t, domain.SagaCompensated, saga.Status)

	// replaying the continuation neither refunds nor reclaims again
	replay := []remote.Result{
		{Stage: 0, Receiver: p.Deployment, Success: true},
		{Stage: 1, Receiver: p.Deployment, Error: "replayed"},
	}
	require.NoError(t, h.exec.Deliver(h.ctx, cmd, replay))
	assert.Equal(t, provisionCost, h.balance("carol"))
	assert.Equal(t, domain.Amount(0), h.balance(factoryAccount))

	// the prefix is free for a new attempt
	again, err := h.svc.Factory.Provision(h.ctx, h.caller("carol"), "gala",
		domain.ContractMetadata{Name: "Gala", Symbol: "GALA"}, provisionCost)
	require.NoError(t, err)
	h.drain()

	d, err := h.svc.Query.Deployment(h.ctx, again.Deployment)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountID("carol"), d.Owner)
	assert.Equal(t, initialCapital, h.balance(again.Deployment))
	assert.Equal(t, provisionFee, h.balance(factoryAccount))

	listed, err := h.svc.Factory.DeploymentsOwnedBy(h.ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, []domain.AccountID{p.Deployment, again.Deployment}, listed)
}

func TestProvisionSubmitFailureRefunds(t *testing.T) {
	h := newHarness(t, true)
	h.credit("alice", provisionCost)
	h.queue.err = remote.ErrSchedulerClosed

	_, err := h.svc.Factory.Provision(h.ctx, h.caller("alice"), "gala",
		domain.ContractMetadata{Name: "Gala", Symbol: "GALA"}, provisionCost)
	require.ErrorIs(t, err, domain.ErrRemoteFailure)

	assert.Equal(t, provisionCost, h.balance("alice"))
	assert.Equal(t, domain.Amount(0), h.balance(factoryAccount))
}

func TestContinuationsArePrivate(t *testing.T) {
	h := newHarness(t, false)
	dep := h.deploy("alice", "gala")

	args, err := json.Marshal(sale.MintArgs{TokenID: "gala.vip.0", ReceiverID: "mallory"})
	require.NoError(t, err)

	_, err = h.svc.Sale.ConfirmMint(h.ctx, remote.Call{Receiver: dep, Predecessor: "mallory", Method: sale.MethodConfirmMint, Args: args})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.svc.Sale.SettlePurchase(h.ctx, remote.Call{Receiver: dep, Predecessor: "mallory", Method: sale.MethodSettlePurchase, Args: args})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.svc.Factory.ConfirmProvision(h.ctx, remote.Call{Receiver: factoryAccount, Predecessor: "mallory", Method: factory.MethodConfirmProvision, Args: args})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestConfirmMintRequiresNextSequence(t *testing.T) {
	h := newHarness(t, false)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 5, Price: 1})

	mint := func(tokenID string) error {
		args, err := json.Marshal(sale.MintArgs{TokenID: tokenID, ReceiverID: "bob"})
		require.NoError(t, err)
		_, err = h.svc.Sale.ConfirmMint(h.ctx, remote.Call{Receiver: dep, Predecessor: dep, Method: sale.MethodConfirmMint, Args: args})
		return err
	}

	assert.ErrorIs(t, mint("gala.vip.1"), domain.ErrAlreadyExists)
	assert.Equal(t, uint32(0), h.ticketType(dep, "gala", "vip").Sold)
	_, err := h.svc.Query.Ticket(h.ctx, dep, "gala.vip.1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, mint("gala.vip.0"))
	assert.ErrorIs(t, mint("gala.vip.0"), domain.ErrAlreadyExists)
	require.NoError(t, mint("gala.vip.1"))
	assert.Equal(t, uint32(2), h.ticketType(dep, "gala", "vip").Sold)
}

func TestBuyRejectsOutOfRangeDeposit(t *testing.T) {
	h := newHarness(t, true)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 2, Price: 1})
	h.credit("bob", 10)

	_, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", ^domain.Amount(0))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = h.svc.Factory.Credit(h.ctx, factoryOwner, "bob", domain.MaxAmount)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	assert.Equal(t, domain.Amount(10), h.balance("bob"))
	assert.Equal(t, initialCapital, h.balance(dep))
	assert.Empty(t, h.queue.take())
}

func TestBuyRejections(t *testing.T) {
	h := newHarness(t, true)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 0, Price: 1})
	h.credit("bob", 10_000_000_000)

	_, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", 5_000_000_000)
	assert.ErrorIs(t, err, domain.ErrSoldOut)

	_, err = h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "balcony", 5_000_000_000)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "nope", "vip", 5_000_000_000)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.Inventory.CreateShow(h.ctx, "alice", dep, inventory.ShowInput{
		Key:         "later",
		SaleStart:   h.now.Add(time.Hour),
		SaleEnd:     h.now.Add(2 * time.Hour),
		TicketTypes: []domain.TicketTypeSpec{{Name: "vip", Supply: 1, Price: 1}},
	})
	require.NoError(t, err)
	_, err = h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "later", "vip", 5_000_000_000)
	assert.ErrorIs(t, err, domain.ErrNotStarted)

	h.now = h.now.Add(3 * time.Hour)
	_, err = h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "later", "vip", 5_000_000_000)
	assert.ErrorIs(t, err, domain.ErrEnded)

	assert.Empty(t, h.queue.take())
	assert.Equal(t, domain.Amount(10_000_000_000), h.balance("bob"))
}

func TestBuyDeposit(t *testing.T) {
	h := newHarness(t, true)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 10, Price: 1})
	price := h.ticketType(dep, "gala", "vip").UnitPrice
	h.credit("bob", 10*price)

	_, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", price-1)
	assert.ErrorIs(t, err, domain.ErrInsufficientDeposit)
	assert.Empty(t, h.queue.take())

	_, err = h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", price)
	require.NoError(t, err)
	h.drain()
	assert.Equal(t, 9*price, h.balance("bob"))

	// Overpayment is accepted and the excess is kept.
	p, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", 2*price)
	require.NoError(t, err)
	assert.Equal(t, "gala.vip.1", p.TokenID)
	h.drain()
	assert.Equal(t, 7*price, h.balance("bob"))

	_, err = h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", 100*price)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestConcurrentBuyersOfLastTicket(t *testing.T) {
	h := newHarness(t, true)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 1, Price: 1})
	price := h.ticketType(dep, "gala", "vip").UnitPrice
	h.credit("bob", price)
	h.credit("carol", price)

	pb, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", price)
	require.NoError(t, err)
	pc, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("carol"), dep, "gala", "vip", price)
	require.NoError(t, err)
	assert.Equal(t, pb.TokenID, pc.TokenID)

	h.drain()

	assert.Equal(t, uint32(1), h.ticketType(dep, "gala", "vip").Sold)
	assert.Equal(t, domain.Amount(0), h.balance("bob"))
	assert.Equal(t, price, h.balance("carol"))

	sc, err := h.svc.Query.Saga(h.ctx, pc.SagaID)
	require.NoError(t, err)
	assert.Equal(t, domain.SagaCompensated, sc.Status)
}

func TestBuyRefundsOnceOnDuplicateContinuation(t *testing.T) {
	h := newHarness(t, true)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 5, Price: 1})
	price := h.ticketType(dep, "gala", "vip").UnitPrice
	h.credit("bob", price)

	_, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", price)
	require.NoError(t, err)

	cmd := h.queue.take()[0]
	failed := remote.Failed(*cmd, errors.New("mint failed"))
	require.NoError(t, h.exec.Deliver(h.ctx, cmd, failed))
	require.NoError(t, h.exec.Deliver(h.ctx, cmd, failed))

	assert.Equal(t, price, h.balance("bob"))
	assert.Equal(t, uint32(0), h.ticketType(dep, "gala", "vip").Sold)
}

func TestBuySubmitFailureRefunds(t *testing.T) {
	h := newHarness(t, true)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 5, Price: 1})
	price := h.ticketType(dep, "gala", "vip").UnitPrice
	h.credit("bob", price)
	h.queue.err = remote.ErrSchedulerClosed

	_, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", price)
	require.ErrorIs(t, err, domain.ErrRemoteFailure)
	assert.Equal(t, price, h.balance("bob"))
}

func TestBuyRateLimited(t *testing.T) {
	h := newHarness(t, true, withLimiter(denyAll{}))
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 5, Price: 1})

	_, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", 1)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

// Any interleaving of accepted purchases and mints keeps sold within supply,
// issues unique token ids and refunds every buyer whose mint failed.
func TestSoldNeverExceedsSupply(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 20; round++ {
		h := newHarness(t, true)
		dep := h.deploy("alice", "gala")
		supply := uint32(1 + rng.Intn(4))
		h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: supply, Price: 0.5})
		price := h.ticketType(dep, "gala", "vip").UnitPrice

		buyers := 2 + rng.Intn(8)
		var pending []*remote.Command
		accepted := map[domain.AccountID]bool{}

		for i := 0; i < buyers; i++ {
			buyer := domain.AccountID(fmt.Sprintf("buyer%d", i))
			h.credit(buyer, price)

			if _, err := h.svc.Sale.BuyTicket(h.ctx, h.caller(buyer), dep, "gala", "vip", price); err == nil {
				accepted[buyer] = true
			} else {
				require.ErrorIs(t, err, domain.ErrSoldOut)
			}

			pending = append(pending, h.queue.take()...)
			if rng.Intn(2) == 0 && len(pending) > 0 {
				k := rng.Intn(len(pending))
				require.NoError(t, h.exec.Execute(h.ctx, pending[k]))
				pending = append(pending[:k], pending[k+1:]...)
			}
		}

		rng.Shuffle(len(pending), func(i, j int) { pending[i], pending[j] = pending[j], pending[i] })
		for _, cmd := range pending {
			require.NoError(t, h.exec.Execute(h.ctx, cmd))
		}

		tt := h.ticketType(dep, "gala", "vip")
		require.LessOrEqual(t, tt.Sold, tt.Supply)

		seen := map[string]bool{}
		holders := 0
		for buyer := range accepted {
			owned, err := h.svc.Query.TicketsOwnedBy(h.ctx, dep, buyer)
			require.NoError(t, err)
			for _, tk := range owned {
				require.False(t, seen[tk.TokenID], "duplicate token %s", tk.TokenID)
				seen[tk.TokenID] = true
			}

			switch len(owned) {
			case 0:
				assert.Equal(t, price, h.balance(buyer), "unminted buyer %s refunded", buyer)
			case 1:
				holders++
				assert.Equal(t, domain.Amount(0), h.balance(buyer))
			default:
				t.Fatalf("buyer %s holds %d tickets", buyer, len(owned))
			}
		}
		assert.Equal(t, int(tt.Sold), holders)
	}
}

func TestRedeem(t *testing.T) {
	h := newHarness(t, false)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 5, Price: 1})
	price := h.ticketType(dep, "gala", "vip").UnitPrice
	h.credit("bob", price+10)
	h.credit("mallory", 10)

	_, err := h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", price)
	require.NoError(t, err)
	h.drain()

	for _, deposit := range []domain.Amount{0, 2} {
		_, err = h.svc.Sale.Redeem(h.ctx, "bob", dep, "gala.vip.0", deposit)
		assert.ErrorIs(t, err, domain.ErrInsufficientDeposit)
	}

	_, err = h.svc.Sale.Redeem(h.ctx, "bob", dep, "gala.vip.9", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.Sale.Redeem(h.ctx, "mallory", dep, "gala.vip.0", 1)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	for i := 0; i < 2; i++ {
		tk, err := h.svc.Sale.Redeem(h.ctx, "bob", dep, "gala.vip.0", 1)
		require.NoError(t, err)
		assert.True(t, tk.IsUsed)
	}
	assert.Equal(t, domain.Amount(8), h.balance("bob"))
}

func TestInventoryOwnerRules(t *testing.T) {
	h := newHarness(t, false)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 2, Price: 1})

	input := func(key string) inventory.ShowInput {
		return inventory.ShowInput{Key: key, SaleStart: h.now, SaleEnd: h.now.Add(time.Hour)}
	}

	_, err := h.svc.Inventory.CreateShow(h.ctx, "mallory", dep, input("x"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.svc.Inventory.CreateShow(h.ctx, "alice", dep, input("gala"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = h.svc.Inventory.CreateShow(h.ctx, "alice", dep, input("a.b"))
	assert.ErrorIs(t, err, domain.ErrInvalidKey)

	closed := input("closed")
	closed.SaleEnd = closed.SaleStart
	_, err = h.svc.Inventory.CreateShow(h.ctx, "alice", dep, closed)
	assert.ErrorIs(t, err, domain.ErrInvalidSaleWindow)

	closed.SaleEnd = closed.SaleStart.Add(-time.Minute)
	_, err = h.svc.Inventory.CreateShow(h.ctx, "alice", dep, closed)
	assert.ErrorIs(t, err, domain.ErrInvalidSaleWindow)

	_, err = h.svc.Inventory.AmendTicketType(h.ctx, "alice", dep, "gala",
		domain.TicketTypeSpec{Name: "vip", Supply: 3, Price: 1}, inventory.ModeAdd)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = h.svc.Inventory.AmendTicketType(h.ctx, "alice", dep, "gala",
		domain.TicketTypeSpec{Name: "balcony", Supply: 3, Price: 1}, inventory.ModeEdit)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.Inventory.AmendTicketType(h.ctx, "alice", dep, "nope",
		domain.TicketTypeSpec{Name: "vip", Supply: 3, Price: 1}, inventory.ModeAdd)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.Inventory.AmendTicketType(h.ctx, "alice", dep, "gala",
		domain.TicketTypeSpec{Name: "balcony", Supply: 3, Price: -1}, inventory.ModeAdd)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	price := h.ticketType(dep, "gala", "vip").UnitPrice
	h.credit("bob", price)
	_, err = h.svc.Sale.BuyTicket(h.ctx, h.caller("bob"), dep, "gala", "vip", price)
	require.NoError(t, err)
	h.drain()

	_, err = h.svc.Inventory.AmendTicketType(h.ctx, "alice", dep, "gala",
		domain.TicketTypeSpec{Name: "vip", Supply: 0, Price: 2}, inventory.ModeEdit)
	assert.ErrorIs(t, err, domain.ErrInvalidSupply)

	tt, err := h.svc.Inventory.AmendTicketType(h.ctx, "alice", dep, "gala",
		domain.TicketTypeSpec{Name: "vip", Supply: 4, Price: 2}, inventory.ModeEdit)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), tt.Sold)
	assert.Equal(t, domain.Amount(2_010_000_000), tt.UnitPrice)

	require.ErrorIs(t, h.svc.Inventory.TransferOwnership(h.ctx, "mallory", dep, "mallory"), domain.ErrUnauthorized)
	require.NoError(t, h.svc.Inventory.TransferOwnership(h.ctx, "alice", dep, "dave"))

	_, err = h.svc.Inventory.CreateShow(h.ctx, "alice", dep, input("encore"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, h.svc.Inventory.RenounceOwnership(h.ctx, "dave", dep))
	_, err = h.svc.Inventory.CreateShow(h.ctx, "dave", dep, input("encore"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, h.svc.Inventory.RenounceOwnership(h.ctx, "dave", dep), domain.ErrUnauthorized)
}

func TestActiveShows(t *testing.T) {
	h := newHarness(t, false)
	dep := h.deploy("alice", "gala")
	h.show("alice", dep, "gala", domain.TicketTypeSpec{Name: "vip", Supply: 2, Price: 1})

	_, err := h.svc.Inventory.CreateShow(h.ctx, "alice", dep, inventory.ShowInput{
		Key:       "later",
		SaleStart: h.now.Add(time.Hour),
		SaleEnd:   h.now.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	all, err := h.svc.Query.AllShows(h.ctx, dep)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := h.svc.Query.ActiveShows(h.ctx, dep)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "gala", active[0].Key)

	_, err = h.svc.Query.AllShows(h.ctx, "nobody.tixfactory")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreditIsOwnerOnly(t *testing.T) {
	h := newHarness(t, true)

	_, err := h.svc.Factory.Credit(h.ctx, "mallory", "mallory", 100)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	acc, err := h.svc.Factory.Credit(h.ctx, factoryOwner, "bob", 100)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(100), acc.Balance)
}
