package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/suppscan/suppscan/internal/models"
)

// EventScrapeBatchSaved is emitted through the outbox once per persisted
// retailer batch.
const EventScrapeBatchSaved = "scrape_batch_saved"

// ProductRepository stores scrape snapshots. Every save appends rows; price
// history is the sequence of snapshots per product ID.
type ProductRepository struct {
	db     *DB
	stream string
	logger *slog.Logger
}

func NewProductRepository(db *DB, stream string) *ProductRepository {
	return &ProductRepository{
		db:     db,
		stream: stream,
		logger: slog.Default().With("component", "product_repository"),
	}
}

// SaveProducts appends one retailer batch and its outbox event in a single
// transaction. Implements the runner's sink contract.
func (r *ProductRepository) SaveProducts(ctx context.Context, products []*models.Product, category models.Category) error {
	if len(products) == 0 {
		return nil
	}

	retailer := products[0].Retailer

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		for _, p := range products {
			if err := insertProduct(ctx, tx, p, category); err != nil {
				return err
			}
		}

		payload, err := json.Marshal(map[string]any{
			"retailer": retailer,
			"category": category,
			"count":    len(products),
			"savedAt":  time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal batch payload: %w", err)
		}

		outbox := NewOutboxRepository(r.db)
		return outbox.InsertWithTx(ctx, tx, &OutboxEvent{
			AggregateType: "scrape_batch",
			AggregateID:   fmt.Sprintf("%s:%s", retailer, category),
			EventType:     EventScrapeBatchSaved,
			Payload:       payload,
			TargetStream:  r.stream,
		})
	})
	if err != nil {
		return err
	}

	r.logger.Info("batch saved", "retailer", retailer, "category", category, "count", len(products))
	return nil
}

func insertProduct(ctx context.Context, tx pgx.Tx, p *models.Product, category models.Category) error {
	flavours, err := json.Marshal(p.Flavours)
	if err != nil {
		return fmt.Errorf("failed to marshal flavours: %w", err)
	}

	query := `
		INSERT INTO scraped_products (
			product_id, retailer, category, brand, name,
			flavours, weight_grams, price_cents, currency,
			in_stock, url, scraped_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	_, err = tx.Exec(ctx, query,
		p.ID, p.Retailer, category, p.Brand, p.Name,
		flavours, p.WeightGrams, p.Price.AmountCents, p.Price.Currency,
		p.InStock, p.URL, p.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
	}

	return nil
}

// LatestByCategory returns each retailer's most recent snapshot rows for
// the category.
func (r *ProductRepository) LatestByCategory(ctx context.Context, category models.Category) ([]*models.Product, error) {
	query := `
		SELECT DISTINCT ON (retailer, product_id)
			product_id, brand, name, flavours, weight_grams,
			price_cents, currency, in_stock, url, scraped_at, retailer
		FROM scraped_products
		WHERE category = $1
		ORDER BY retailer, product_id, scraped_at DESC`

	rows, err := r.db.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// History returns every snapshot of one product ID, newest first.
func (r *ProductRepository) History(ctx context.Context, productID string) ([]*models.Product, error) {
	query := `
		SELECT
			product_id, brand, name, flavours, weight_grams,
			price_cents, currency, in_stock, url, scraped_at, retailer
		FROM scraped_products
		WHERE product_id = $1
		ORDER BY scraped_at DESC`

	rows, err := r.db.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product history: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]*models.Product, error) {
	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		var flavours []byte
		err := rows.Scan(
			&p.ID, &p.Brand, &p.Name, &flavours, &p.WeightGrams,
			&p.Price.AmountCents, &p.Price.Currency, &p.InStock, &p.URL,
			&p.ScrapedAt, &p.Retailer,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if len(flavours) > 0 {
			if err := json.Unmarshal(flavours, &p.Flavours); err != nil {
				return nil, fmt.Errorf("failed to unmarshal flavours: %w", err)
			}
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}
