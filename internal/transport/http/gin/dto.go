package httpgin

import (
	"time"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/service/inventory"
)

type MetadataRequest struct {
	Spec        string  `json:"spec"`
	Name        string  `json:"name" binding:"required"`
	Symbol      string  `json:"symbol" binding:"required"`
	Description *string `json:"description"`
}

func (m MetadataRequest) toDomain() domain.ContractMetadata {
	return domain.ContractMetadata{
		Spec:        m.Spec,
		Name:        m.Name,
		Symbol:      m.Symbol,
		Description: m.Description,
	}
}

type ProvisionRequest struct {
	Prefix   string          `json:"prefix" binding:"required"`
	Metadata MetadataRequest `json:"metadata" binding:"required"`
	Deposit  domain.Amount   `json:"deposit" binding:"lte=9223372036854775807"`
}

type CreditRequest struct {
	Amount domain.Amount `json:"amount" binding:"required,gt=0,lte=9223372036854775807"`
}

type TransferOwnerRequest struct {
	NewOwner string `json:"new_owner" binding:"required"`
}

type TicketTypeRequest struct {
	Name   string  `json:"ticket_type" binding:"required"`
	Supply uint32  `json:"supply"`
	Price  float64 `json:"price"`
}

func (t TicketTypeRequest) toSpec() domain.TicketTypeSpec {
	return domain.TicketTypeSpec{Name: t.Name, Supply: t.Supply, Price: t.Price}
}

// EditTicketTypeRequest is the body of a ticket type edit; the name comes
// from the path.
type EditTicketTypeRequest struct {
	Supply uint32  `json:"supply"`
	Price  float64 `json:"price"`
}

type CreateShowRequest struct {
	Key         string              `json:"show_id" binding:"required"`
	Title       *string             `json:"show_title"`
	Description *string             `json:"show_description"`
	Banner      *string             `json:"show_banner"`
	ShowTime    time.Time           `json:"show_time" binding:"required"`
	SaleStart   time.Time           `json:"selling_start_time" binding:"required"`
	SaleEnd     time.Time           `json:"selling_end_time" binding:"required"`
	TicketTypes []TicketTypeRequest `json:"ticket_infos" binding:"dive"`
}

func (r CreateShowRequest) toInput() inventory.ShowInput {
	in := inventory.ShowInput{
		Key:         r.Key,
		Title:       r.Title,
		Description: r.Description,
		Banner:      r.Banner,
		ShowTime:    r.ShowTime,
		SaleStart:   r.SaleStart,
		SaleEnd:     r.SaleEnd,
		TicketTypes: make([]domain.TicketTypeSpec, 0, len(r.TicketTypes)),
	}
	for _, t := range r.TicketTypes {
		in.TicketTypes = append(in.TicketTypes, t.toSpec())
	}
	return in
}

// DepositRequest is the body of calls that attach funds.
type DepositRequest struct {
	Deposit domain.Amount `json:"deposit" binding:"lte=9223372036854775807"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DeploymentsResponse struct {
	Owner       domain.AccountID   `json:"owner"`
	Deployments []domain.AccountID `json:"deployments"`
}
