package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrAlreadySettled = errors.New("saga already settled")

type SagaKind string

const (
	SagaProvision SagaKind = "provision"
	SagaPurchase  SagaKind = "purchase"
)

// SagaStatus is the tag of a saga's state. A pending saga carries the
// compensation it owes if the remote chain fails.
type SagaStatus string

const (
	SagaPending     SagaStatus = "pending"
	SagaCommitted   SagaStatus = "committed"
	SagaCompensated SagaStatus = "compensated"
)

// Compensation is the refund owed to Payer when a saga's remote chain fails.
type Compensation struct {
	Payer  AccountID `json:"payer"`
	Amount Amount    `json:"amount"`
}

type Saga struct {
	ID       uuid.UUID  `json:"id"`
	Kind     SagaKind   `json:"kind"`
	Status   SagaStatus `json:"status"`
	Subject  string     `json:"subject"`
	Refunder AccountID  `json:"refunder"`
	Compensation
	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

func NewSaga(kind SagaKind, subject string, refunder AccountID, comp Compensation, now time.Time) *Saga {
	return &Saga{
		ID:           uuid.New(),
		Kind:         kind,
		Status:       SagaPending,
		Subject:      subject,
		Refunder:     refunder,
		Compensation: comp,
		CreatedAt:    now,
	}
}

// Settle moves a pending saga to its terminal state. It returns the refund to
// pay when the chain failed, or nil when it succeeded.
func (s Saga) Settle(succeeded bool, now time.Time) (Saga, *Compensation, error) {
	if s.Status != SagaPending {
		return s, nil, fmt.Errorf("%w: %s is %s", ErrAlreadySettled, s.ID, s.Status)
	}

	s.SettledAt = &now
	if succeeded {
		s.Status = SagaCommitted
		return s, nil, nil
	}

	s.Status = SagaCompensated
	refund := s.Compensation
	return s, &refund, nil
}
