package postgresrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/repository"
)

type ShowRepo struct {
	db DB
}

func (r *ShowRepo) Create(ctx context.Context, deployment domain.AccountID, show *domain.Show) error {
	const op = "postgresrepo.ShowRepo.Create"

	if _, err := r.db.Exec(ctx,
		`INSERT INTO shows(deployment_id, show_key, title, description, banner, show_time, sale_start, sale_end)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		deployment, show.Key, show.Title, show.Description, show.Banner,
		show.ShowTime, show.SaleStart, show.SaleEnd,
	); err != nil {
		return wrapDBErr(op, err)
	}

	if len(show.TicketTypes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, tt := range show.TicketTypes {
		batch.Queue(
			`INSERT INTO ticket_types(deployment_id, show_key, type_name, supply, sold, unit_price)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			deployment, show.Key, tt.Name, int64(tt.Supply), int64(tt.Sold), int64(tt.UnitPrice),
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range show.TicketTypes {
		if _, err := br.Exec(); err != nil {
			return wrapDBErr(op, err)
		}
	}

	return nil
}

func (r *ShowRepo) Get(ctx context.Context, deployment domain.AccountID, key string) (*domain.Show, error) {
	const op = "postgresrepo.ShowRepo.Get"

	var sh domain.Show
	if err := r.db.QueryRow(ctx,
		`SELECT show_key, title, description, banner, show_time, sale_start, sale_end
		 FROM shows
		 WHERE deployment_id = $1 AND show_key = $2`,
		deployment, key,
	).Scan(&sh.Key, &sh.Title, &sh.Description, &sh.Banner, &sh.ShowTime, &sh.SaleStart, &sh.SaleEnd); err != nil {
		return nil, wrapDBErr(op, err)
	}

	types, err := r.ticketTypes(ctx, deployment, key)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	sh.TicketTypes = types[key]
	if sh.TicketTypes == nil {
		sh.TicketTypes = map[string]domain.TicketType{}
	}

	return &sh, nil
}

func (r *ShowRepo) List(ctx context.Context, deployment domain.AccountID) ([]domain.Show, error) {
	const op = "postgresrepo.ShowRepo.List"

	rows, err := r.db.Query(ctx,
		`SELECT show_key, title, description, banner, show_time, sale_start, sale_end
		 FROM shows
		 WHERE deployment_id = $1
		 ORDER BY show_key`,
		deployment,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	var out []domain.Show
	for rows.Next() {
		var sh domain.Show
		if err := rows.Scan(&sh.Key, &sh.Title, &sh.Description, &sh.Banner, &sh.ShowTime, &sh.SaleStart, &sh.SaleEnd); err != nil {
			rows.Close()
			return nil, wrapDBErr(op, err)
		}
		out = append(out, sh)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	types, err := r.ticketTypes(ctx, deployment, "")
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	for i := range out {
		out[i].TicketTypes = types[out[i].Key]
		if out[i].TicketTypes == nil {
			out[i].TicketTypes = map[string]domain.TicketType{}
		}
	}

	return out, nil
}

// ticketTypes loads the ticket types of one show, or of every show in the
// deployment when showKey is empty, grouped by show key.
func (r *ShowRepo) ticketTypes(ctx context.Context, deployment domain.AccountID, showKey string) (map[string]map[string]domain.TicketType, error) {
	rows, err := r.db.Query(ctx,
		`SELECT show_key, type_name, supply, sold, unit_price
		 FROM ticket_types
		 WHERE deployment_id = $1 AND ($2 = '' OR show_key = $2)`,
		deployment, showKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]map[string]domain.TicketType{}
	for rows.Next() {
		var (
			key                 string
			tt                  domain.TicketType
			supply, sold, price int64
		)
		if err := rows.Scan(&key, &tt.Name, &supply, &sold, &price); err != nil {
			return nil, err
		}
		tt.Supply = uint32(supply)
		tt.Sold = uint32(sold)
		tt.UnitPrice = domain.Amount(price)

		if out[key] == nil {
			out[key] = map[string]domain.TicketType{}
		}
		out[key][tt.Name] = tt
	}

	return out, rows.Err()
}

func (r *ShowRepo) PutTicketType(ctx context.Context, deployment domain.AccountID, showKey string, tt domain.TicketType) error {
	const op = "postgresrepo.ShowRepo.PutTicketType"

	_, err := r.db.Exec(ctx,
		`INSERT INTO ticket_types(deployment_id, show_key, type_name, supply, sold, unit_price)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (deployment_id, show_key, type_name)
		 DO UPDATE SET supply = EXCLUDED.supply, sold = EXCLUDED.sold, unit_price = EXCLUDED.unit_price`,
		deployment, showKey, tt.Name, int64(tt.Supply), int64(tt.Sold), int64(tt.UnitPrice),
	)

	return wrapDBErr(op, err)
}

func (r *ShowRepo) IncrementSold(ctx context.Context, deployment domain.AccountID, showKey, typeName string) (uint32, error) {
	const op = "postgresrepo.ShowRepo.IncrementSold"

	var prev int64
	err := r.db.QueryRow(ctx,
		`UPDATE ticket_types SET sold = sold + 1
		 WHERE deployment_id = $1 AND show_key = $2 AND type_name = $3 AND sold < supply
		 RETURNING sold - 1`,
		deployment, showKey, typeName,
	).Scan(&prev)
	if err == nil {
		return uint32(prev), nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, wrapDBErr(op, err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM ticket_types
		   WHERE deployment_id = $1 AND show_key = $2 AND type_name = $3)`,
		deployment, showKey, typeName,
	).Scan(&exists); err != nil {
		return 0, wrapDBErr(op, err)
	}

	if !exists {
		return 0, wrapDBErr(op, repository.ErrNotFound)
	}

	return 0, wrapDBErr(op, repository.ErrExhausted)
}
