package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/repository"
)

type accountRepo struct{ st *state }

func (r accountRepo) Create(ctx context.Context, id domain.AccountID, at time.Time) error {
	if _, ok := r.st.accounts[id]; ok {
		return fmt.Errorf("account %s: %w", id, repository.ErrConflict)
	}
	r.st.accounts[id] = domain.Account{ID: id, CreatedAt: at}
	return nil
}

func (r accountRepo) Get(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	a, ok := r.st.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, repository.ErrNotFound)
	}
	a.Keys = slices.Clone(a.Keys)
	return &a, nil
}

func (r accountRepo) Credit(ctx context.Context, id domain.AccountID, amount domain.Amount) error {
	a, ok := r.st.accounts[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, repository.ErrNotFound)
	}
	sum, err := addBalance(a, amount)
	if err != nil {
		return err
	}
	a.Balance = sum
	r.st.accounts[id] = a
	return nil
}

// addBalance returns a's balance plus amount, or ErrOutOfRange when the sum
// exceeds domain.MaxAmount.
func addBalance(a domain.Account, amount domain.Amount) (domain.Amount, error) {
	if !amount.Valid() || a.Balance > domain.MaxAmount-amount {
		return 0, fmt.Errorf("account %s has %d, cannot add %d: %w", a.ID, a.Balance, amount, repository.ErrOutOfRange)
	}
	return a.Balance + amount, nil
}

func (r accountRepo) Transfer(ctx context.Context, from, to domain.AccountID, amount domain.Amount) error {
	src, ok := r.st.accounts[from]
	if !ok {
		return fmt.Errorf("account %s: %w", from, repository.ErrNotFound)
	}
	dst, ok := r.st.accounts[to]
	if !ok {
		return fmt.Errorf("account %s: %w", to, repository.ErrNotFound)
	}
	if !amount.Valid() {
		return fmt.Errorf("transfer %d: %w", amount, repository.ErrOutOfRange)
	}
	if src.Balance < amount {
		return fmt.Errorf("account %s has %d, needs %d: %w", from, src.Balance, amount, repository.ErrInsufficientFunds)
	}
	if from == to {
		return nil
	}

	sum, err := addBalance(dst, amount)
	if err != nil {
		return err
	}

	src.Balance -= amount
	dst.Balance = sum
	r.st.accounts[from] = src
	r.st.accounts[to] = dst
	return nil
}

func (r accountRepo) Delete(ctx context.Context, id, beneficiary domain.AccountID) (domain.Amount, error) {
	a, ok := r.st.accounts[id]
	if !ok {
		return 0, fmt.Errorf("account %s: %w", id, repository.ErrNotFound)
	}
	if _, ok := r.st.accounts[beneficiary]; !ok {
		return 0, fmt.Errorf("account %s: %w", beneficiary, repository.ErrNotFound)
	}

	delete(r.st.accounts, id)
	if err := r.Credit(ctx, beneficiary, a.Balance); err != nil {
		return 0, err
	}
	return a.Balance, nil
}

func (r accountRepo) DeployCode(ctx context.Context, id domain.AccountID, code string) error {
	a, ok := r.st.accounts[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, repository.ErrNotFound)
	}
	a.Code = code
	r.st.accounts[id] = a
	return nil
}

func (r accountRepo) AddKey(ctx context.Context, id domain.AccountID, publicKey string) error {
	a, ok := r.st.accounts[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, repository.ErrNotFound)
	}
	if slices.Contains(a.Keys, publicKey) {
		return fmt.Errorf("key on %s: %w", id, repository.ErrConflict)
	}
	a.Keys = append(a.Keys, publicKey)
	r.st.accounts[id] = a
	return nil
}

type deploymentRepo struct{ st *state }

func (r deploymentRepo) Init(ctx context.Context, d *domain.Deployment) error {
	if _, ok := r.st.deployments[d.ID]; ok {
		return fmt.Errorf("deployment %s: %w", d.ID, repository.ErrConflict)
	}
	r.st.deployments[d.ID] = *d
	return nil
}

func (r deploymentRepo) Get(ctx context.Context, id domain.AccountID) (*domain.Deployment, error) {
	d, ok := r.st.deployments[id]
	if !ok {
		return nil, fmt.Errorf("deployment %s: %w", id, repository.ErrNotFound)
	}
	return &d, nil
}

func (r deploymentRepo) SetOwner(ctx context.Context, id, owner domain.AccountID) error {
	d, ok := r.st.deployments[id]
	if !ok {
		return fmt.Errorf("deployment %s: %w", id, repository.ErrNotFound)
	}
	d.Owner = owner
	r.st.deployments[id] = d
	return nil
}

func (r deploymentRepo) AppendListing(ctx context.Context, owner, deployment domain.AccountID, at time.Time) error {
	r.st.listings[owner] = append(r.st.listings[owner], deployment)
	return nil
}

func (r deploymentRepo) ListByOwner(ctx context.Context, owner domain.AccountID) ([]domain.AccountID, error) {
	return slices.Clone(r.st.listings[owner]), nil
}

type showRepo struct{ st *state }

func (r showRepo) Create(ctx context.Context, deployment domain.AccountID, show *domain.Show) error {
	shows := r.st.shows[deployment]
	if shows == nil {
		shows = map[string]*domain.Show{}
		r.st.shows[deployment] = shows
	}
	if _, ok := shows[show.Key]; ok {
		return fmt.Errorf("show %s: %w", show.Key, repository.ErrConflict)
	}
	shows[show.Key] = show.Clone()
	return nil
}

func (r showRepo) Get(ctx context.Context, deployment domain.AccountID, key string) (*domain.Show, error) {
	sh, ok := r.st.shows[deployment][key]
	if !ok {
		return nil, fmt.Errorf("show %s: %w", key, repository.ErrNotFound)
	}
	return sh.Clone(), nil
}

func (r showRepo) List(ctx context.Context, deployment domain.AccountID) ([]domain.Show, error) {
	shows := r.st.shows[deployment]
	out := make([]domain.Show, 0, len(shows))
	for _, sh := range shows {
		out = append(out, *sh.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r showRepo) PutTicketType(ctx context.Context, deployment domain.AccountID, showKey string, tt domain.TicketType) error {
	sh, ok := r.st.shows[deployment][showKey]
	if !ok {
		return fmt.Errorf("show %s: %w", showKey, repository.ErrNotFound)
	}
	sh.TicketTypes[tt.Name] = tt
	return nil
}

func (r showRepo) IncrementSold(ctx context.Context, deployment domain.AccountID, showKey, typeName string) (uint32, error) {
	sh, ok := r.st.shows[deployment][showKey]
	if !ok {
		return 0, fmt.Errorf("show %s: %w", showKey, repository.ErrNotFound)
	}
	tt, ok := sh.TicketTypes[typeName]
	if !ok {
		return 0, fmt.Errorf("ticket type %s: %w", typeName, repository.ErrNotFound)
	}
	if tt.Sold >= tt.Supply {
		return 0, fmt.Errorf("ticket type %s: %w", typeName, repository.ErrExhausted)
	}
	prev := tt.Sold
	tt.Sold++
	sh.TicketTypes[typeName] = tt
	return prev, nil
}

type ticketRepo struct{ st *state }

func (r ticketRepo) Insert(ctx context.Context, deployment domain.AccountID, t *domain.Ticket) error {
	k := scoped(deployment, t.TokenID)
	if _, ok := r.st.tickets[k]; ok {
		return fmt.Errorf("ticket %s: %w", t.TokenID, repository.ErrConflict)
	}
	cp := *t
	cp.Show = nil
	r.st.tickets[k] = cp
	return nil
}

func (r ticketRepo) Get(ctx context.Context, deployment domain.AccountID, tokenID string) (*domain.Ticket, error) {
	t, ok := r.st.tickets[scoped(deployment, tokenID)]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", tokenID, repository.ErrNotFound)
	}
	return &t, nil
}

func (r ticketRepo) MarkUsed(ctx context.Context, deployment domain.AccountID, tokenID string) error {
	k := scoped(deployment, tokenID)
	t, ok := r.st.tickets[k]
	if !ok {
		return fmt.Errorf("ticket %s: %w", tokenID, repository.ErrNotFound)
	}
	t.IsUsed = true
	r.st.tickets[k] = t
	return nil
}

type tokenRepo struct{ st *state }

func (r tokenRepo) Mint(ctx context.Context, deployment domain.AccountID, tokenID string, owner domain.AccountID, at time.Time) error {
	k := scoped(deployment, tokenID)
	if _, ok := r.st.tokens[k]; ok {
		return fmt.Errorf("token %s: %w", tokenID, repository.ErrConflict)
	}
	r.st.tokens[k] = tokenRow{owner: owner, at: at, seq: r.st.next()}
	return nil
}

func (r tokenRepo) OwnerOf(ctx context.Context, deployment domain.AccountID, tokenID string) (domain.AccountID, error) {
	row, ok := r.st.tokens[scoped(deployment, tokenID)]
	if !ok {
		return "", fmt.Errorf("token %s: %w", tokenID, repository.ErrNotFound)
	}
	return row.owner, nil
}

func (r tokenRepo) ListByOwner(ctx context.Context, deployment, owner domain.AccountID) ([]string, error) {
	prefix := string(deployment) + "/"

	type owned struct {
		id  string
		seq int64
	}
	var found []owned
	for k, row := range r.st.tokens {
		if row.owner != owner || len(k) <= len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		found = append(found, owned{id: k[len(prefix):], seq: row.seq})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	ids := make([]string, len(found))
	for i, o := range found {
		ids[i] = o.id
	}
	return ids, nil
}

type sagaRepo struct{ st *state }

func (r sagaRepo) Create(ctx context.Context, s *domain.Saga) error {
	if _, ok := r.st.sagas[s.ID]; ok {
		return fmt.Errorf("saga %s: %w", s.ID, repository.ErrConflict)
	}
	r.st.sagas[s.ID] = *s
	return nil
}

func (r sagaRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Saga, error) {
	s, ok := r.st.sagas[id]
	if !ok {
		return nil, fmt.Errorf("saga %s: %w", id, repository.ErrNotFound)
	}
	return &s, nil
}

func (r sagaRepo) Settle(ctx context.Context, s *domain.Saga) (bool, error) {
	cur, ok := r.st.sagas[s.ID]
	if !ok {
		return false, fmt.Errorf("saga %s: %w", s.ID, repository.ErrNotFound)
	}
	if cur.Status != domain.SagaPending {
		return false, nil
	}
	r.st.sagas[s.ID] = *s
	return true, nil
}
