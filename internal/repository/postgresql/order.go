package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/domain/order"
	"github.com/akulagin/fulfillment/internal/repository"
	"github.com/akulagin/fulfillment/internal/storage"
)

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) storage.OrderRepository {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) CreateTx(ctx context.Context, tx db.Tx, o *order.Order) error {
	now := time.Now().UTC()
	_, err := tx.Exec(ctx, `
        INSERT INTO orders (
            id, buyer_id, buyer_name, status, ordered_at,
            street, city, state, country, zip_code,
            card_number_masked, card_holder_name, card_expiry, card_type_id,
            version, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, $15, $15)
    `, o.ID, o.BuyerID, o.BuyerName, o.Status, o.OrderedAt,
		o.Address.Street, o.Address.City, o.Address.State, o.Address.Country, o.Address.ZipCode,
		o.Card.NumberMasked, o.Card.HolderName, o.Card.Expiry, o.Card.TypeID, now)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, l := range o.Lines {
		_, err := tx.Exec(ctx, `
            INSERT INTO order_lines (order_id, product_id, product_name, unit_price, discount, quantity, picture_url)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
        `, o.ID, l.ProductID, l.ProductName, l.UnitPrice, l.Discount, l.Quantity, l.PictureURL)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}
	o.Version = 1
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *OrderRepo) GetByIDTx(ctx context.Context, tx db.Tx, id uuid.UUID) (*order.Order, error) {
	return r.getByID(ctx, tx, id)
}

func (r *OrderRepo) getByID(ctx context.Context, q querier, id uuid.UUID) (*order.Order, error) {
	var row repository.Order
	err := q.Get(ctx, &row, `SELECT * FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	lines, err := r.getLines(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return toDomainOrder(&row, lines), nil
}

func (r *OrderRepo) getLines(ctx context.Context, q querier, orderID uuid.UUID) ([]repository.OrderLine, error) {
	var lines []repository.OrderLine
	err := q.Select(ctx, &lines, `
        SELECT * FROM order_lines WHERE order_id = $1 ORDER BY id ASC
    `, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order lines for %s: %w", orderID, err)
	}
	return lines, nil
}

func (r *OrderRepo) UpdateTx(ctx context.Context, tx db.Tx, o *order.Order) error {
	var rejected *string
	if len(o.RejectedProductIDs) > 0 {
		raw, err := json.Marshal(o.RejectedProductIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal rejected products: %w", err)
		}
		s := string(raw)
		rejected = &s
	}

	var tracking, carrier *string
	if o.TrackingNumber != "" {
		tracking = &o.TrackingNumber
	}
	if o.Carrier != "" {
		carrier = &o.Carrier
	}

	tag, err := tx.Exec(ctx, `
        UPDATE orders
        SET status = $2,
            rejected_products = $3,
            tracking_number = $4,
            carrier = $5,
            shipped_at = $6,
            version = version + 1,
            updated_at = $7
        WHERE id = $1 AND version = $8
    `, o.ID, o.Status, rejected, tracking, carrier, o.ShippedAt, time.Now().UTC(), o.Version)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrVersionConflict
	}
	o.Version++
	return nil
}

func (r *OrderRepo) AppendTrailTx(ctx context.Context, tx db.Tx, id uuid.UUID, trail []order.StatusChange) error {
	for _, entry := range trail {
		_, err := tx.Exec(ctx, `
            INSERT INTO order_status_log (order_id, status, changed_at)
            VALUES ($1, $2, $3)
        `, id, entry.Status, entry.ChangedAt)
		if err != nil {
			return fmt.Errorf("failed to append order status log for %s: %w", id, err)
		}
	}
	return nil
}

func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]*order.Order, error) {
	var rows []repository.Order
	err := r.db.Select(ctx, &rows, `
        SELECT * FROM orders WHERE buyer_id = $1 ORDER BY ordered_at DESC
    `, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for buyer %s: %w", buyerID, err)
	}
	return r.withLines(ctx, rows)
}

func (r *OrderRepo) ListOpen(ctx context.Context) ([]*order.Order, error) {
	var rows []repository.Order
	err := r.db.Select(ctx, &rows, `
        SELECT * FROM orders
        WHERE status NOT IN ($1, $2)
        ORDER BY ordered_at ASC
    `, order.StatusShipped, order.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}
	return r.withLines(ctx, rows)
}

func (r *OrderRepo) withLines(ctx context.Context, rows []repository.Order) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(rows))
	for i := range rows {
		lines, err := r.getLines(ctx, r.db, rows[i].ID)
		if err != nil {
			return nil, err
		}
		orders = append(orders, toDomainOrder(&rows[i], lines))
	}
	return orders, nil
}

func toDomainOrder(row *repository.Order, lineRows []repository.OrderLine) *order.Order {
	lines := make([]order.Line, 0, len(lineRows))
	for _, l := range lineRows {
		lines = append(lines, order.Line{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			Quantity:    l.Quantity,
			PictureURL:  l.PictureURL,
		})
	}

	o := order.Restore(
		row.ID, row.BuyerID, row.BuyerName, order.Status(row.Status), row.OrderedAt,
		lines,
		order.Address{Street: row.Street, City: row.City, State: row.State, Country: row.Country, ZipCode: row.ZipCode},
		order.PaymentCard{NumberMasked: row.CardNumberMasked, HolderName: row.CardHolderName, Expiry: row.CardExpiry, TypeID: row.CardTypeID},
		row.Version,
	)
	if row.TrackingNumber != nil {
		o.TrackingNumber = *row.TrackingNumber
	}
	if row.Carrier != nil {
		o.Carrier = *row.Carrier
	}
	o.ShippedAt = row.ShippedAt
	if row.RejectedProducts != nil {
		// Best effort: a malformed value only loses the rejection detail.
		_ = json.Unmarshal([]byte(*row.RejectedProducts), &o.RejectedProductIDs)
	}
	return o
}
