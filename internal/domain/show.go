package domain

import (
	"fmt"
	"maps"
	"time"
)

// OnSale reports whether now falls inside the [SaleStart, SaleEnd) window.
func (s *Show) OnSale(now time.Time) bool {
	return !now.Before(s.SaleStart) && now.Before(s.SaleEnd)
}

// Reserve checks that one ticket of the given type can be sold at now and
// returns the token id it would receive. Sold is left untouched; it only
// moves when the mint is confirmed.
func (s *Show) Reserve(typeName string, now time.Time) (Reservation, error) {
	tt, ok := s.TicketTypes[typeName]
	if !ok {
		return Reservation{}, fmt.Errorf("%w: ticket type %q in show %q", ErrNotFound, typeName, s.Key)
	}

	if now.Before(s.SaleStart) {
		return Reservation{}, fmt.Errorf("%w: starts at %s", ErrNotStarted, s.SaleStart.Format(time.RFC3339))
	}

	if !now.Before(s.SaleEnd) {
		return Reservation{}, fmt.Errorf("%w: ended at %s", ErrEnded, s.SaleEnd.Format(time.RFC3339))
	}

	if tt.Sold >= tt.Supply {
		return Reservation{}, fmt.Errorf("%w: %d of %d sold", ErrSoldOut, tt.Sold, tt.Supply)
	}

	return Reservation{
		TokenID:   TokenID(s.Key, typeName, tt.Sold),
		ShowKey:   s.Key,
		TypeName:  typeName,
		Sequence:  tt.Sold,
		UnitPrice: tt.UnitPrice,
	}, nil
}

// Clone returns a copy that shares no mutable state with s.
func (s *Show) Clone() *Show {
	cp := *s
	cp.TicketTypes = maps.Clone(s.TicketTypes)
	if cp.TicketTypes == nil {
		cp.TicketTypes = map[string]TicketType{}
	}
	return &cp
}
