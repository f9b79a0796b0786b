// Package memory is an in-process repository.Store. Transactions are
// serialized and work on a copy of the state that replaces the original
// only on commit.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/repository"
)

type tokenRow struct {
	owner domain.AccountID
	at    time.Time
	seq   int64
}

type state struct {
	accounts    map[domain.AccountID]domain.Account
	deployments map[domain.AccountID]domain.Deployment
	listings    map[domain.AccountID][]domain.AccountID
	shows       map[domain.AccountID]map[string]*domain.Show
	tickets     map[string]domain.Ticket
	tokens      map[string]tokenRow
	sagas       map[uuid.UUID]domain.Saga
	seq         int64
}

func newState() *state {
	return &state{
		accounts:    map[domain.AccountID]domain.Account{},
		deployments: map[domain.AccountID]domain.Deployment{},
		listings:    map[domain.AccountID][]domain.AccountID{},
		shows:       map[domain.AccountID]map[string]*domain.Show{},
		tickets:     map[string]domain.Ticket{},
		tokens:      map[string]tokenRow{},
		sagas:       map[uuid.UUID]domain.Saga{},
	}
}

func (s *state) clone() *state {
	cp := &state{
		accounts:    make(map[domain.AccountID]domain.Account, len(s.accounts)),
		deployments: maps.Clone(s.deployments),
		listings:    make(map[domain.AccountID][]domain.AccountID, len(s.listings)),
		shows:       make(map[domain.AccountID]map[string]*domain.Show, len(s.shows)),
		tickets:     maps.Clone(s.tickets),
		tokens:      maps.Clone(s.tokens),
		sagas:       maps.Clone(s.sagas),
		seq:         s.seq,
	}

	for id, a := range s.accounts {
		a.Keys = slices.Clone(a.Keys)
		cp.accounts[id] = a
	}

	for owner, l := range s.listings {
		cp.listings[owner] = slices.Clone(l)
	}

	for dep, shows := range s.shows {
		m := make(map[string]*domain.Show, len(shows))
		for k, sh := range shows {
			m[k] = sh.Clone()
		}
		cp.shows[dep] = m
	}

	return cp
}

func (s *state) next() int64 {
	s.seq++
	return s.seq
}

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) RunTx(
	ctx context.Context,
	opts *repository.TxOptions,
	fn func(ctx context.Context, tx repository.Tx) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &txn{st: work}); err != nil {
		return err
	}

	if opts == nil || !opts.ReadOnly {
		s.st = work
	}

	return nil
}

type txn struct {
	st *state
}

func (t *txn) Accounts() repository.AccountRepo       { return accountRepo{t.st} }
func (t *txn) Deployments() repository.DeploymentRepo { return deploymentRepo{t.st} }
func (t *txn) Shows() repository.ShowRepo             { return showRepo{t.st} }
func (t *txn) Tickets() repository.TicketRepo         { return ticketRepo{t.st} }
func (t *txn) Tokens() repository.TokenRepo           { return tokenRepo{t.st} }
func (t *txn) Sagas() repository.SagaRepo             { return sagaRepo{t.st} }

func scoped(deployment domain.AccountID, id string) string {
	return string(deployment) + "/" + id
}
