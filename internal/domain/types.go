package domain

import (
	"time"

	"github.com/kirinyoku/tix-factory/internal/access"
)

// AccountID identifies an account: a person, the factory, or a provisioned deployment.
type AccountID string

// Amount is a non-negative quantity in the minimal currency unit.
type Amount uint64

// MaxAmount is the largest amount a balance or payment may hold. Ledgers
// store amounts as signed 64-bit integers.
const MaxAmount Amount = 1<<63 - 1

// Valid reports whether a fits in a ledger column.
func (a Amount) Valid() bool { return a <= MaxAmount }

type Account struct {
	ID        AccountID `json:"id"`
	Balance   Amount    `json:"balance"`
	Code      string    `json:"code,omitempty"`
	Keys      []string  `json:"keys,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	Account   AccountID
	PublicKey string
}

// ContractMetadata describes a ticket-sales deployment.
type ContractMetadata struct {
	Spec        string  `json:"spec"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Description *string `json:"description,omitempty"`
}

// Deployment is an initialized ticket-sales instance.
type Deployment struct {
	ID AccountID `json:"id"`
	access.Control[AccountID]
	Metadata  ContractMetadata `json:"metadata"`
	CreatedAt time.Time        `json:"created_at"`
}

type TicketType struct {
	Name      string `json:"ticket_type"`
	Supply    uint32 `json:"supply"`
	Sold      uint32 `json:"sold"`
	UnitPrice Amount `json:"price"`
}

// TicketTypeSpec is the organizer's view of a ticket type: the price is a
// decimal in whole currency units and has not been converted yet.
type TicketTypeSpec struct {
	Name   string
	Supply uint32
	Price  float64
}

type Show struct {
	Key         string                `json:"show_id"`
	Title       *string               `json:"show_title,omitempty"`
	Description *string               `json:"show_description,omitempty"`
	Banner      *string               `json:"show_banner,omitempty"`
	ShowTime    time.Time             `json:"show_time"`
	SaleStart   time.Time             `json:"selling_start_time"`
	SaleEnd     time.Time             `json:"selling_end_time"`
	TicketTypes map[string]TicketType `json:"ticket_infos"`
}

type Ticket struct {
	TokenID  string    `json:"ticket_id"`
	ShowKey  string    `json:"show_id"`
	TypeName string    `json:"ticket_type"`
	IsUsed   bool      `json:"is_used"`
	IssuedAt time.Time `json:"issued_at"`
	Show     *Show     `json:"show,omitempty"`
}

// Reservation is the result of a successful inventory check. It does not
// consume inventory.
type Reservation struct {
	TokenID   string
	ShowKey   string
	TypeName  string
	Sequence  uint32
	UnitPrice Amount
}
