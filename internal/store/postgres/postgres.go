// Package postgres implements the ledger repository on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockledger/internal/domain"
	"stockledger/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Repository = (*Store)(nil)

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id BIGSERIAL PRIMARY KEY,
			kind TEXT NOT NULL,
			order_id TEXT NOT NULL,
			entry_date DATE NOT NULL,
			item_name TEXT NOT NULL,
			quantity BIGINT NOT NULL,
			unit_price DOUBLE PRECISION NOT NULL,
			counterparty TEXT NOT NULL DEFAULT '',
			has_photo BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_entries_kind ON ledger_entries (kind, id)`,
		`CREATE TABLE IF NOT EXISTS thresholds (
			item_name TEXT PRIMARY KEY,
			safety_quantity DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS images (
			order_id TEXT PRIMARY KEY,
			content_type TEXT NOT NULL,
			data BYTEA NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_version (
			id SMALLINT PRIMARY KEY DEFAULT 1,
			version BIGINT NOT NULL DEFAULT 0,
			CHECK (id = 1)
		)`,
		`INSERT INTO ledger_version (id, version) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) AppendPurchase(ctx context.Context, tx domain.Transaction) error {
	return s.appendEntry(ctx, domain.LedgerPurchase, tx)
}

func (s *Store) AppendSale(ctx context.Context, tx domain.Transaction) error {
	return s.appendEntry(ctx, domain.LedgerSale, tx)
}

func (s *Store) appendEntry(ctx context.Context, kind domain.LedgerKind, entry domain.Transaction) error {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer dbtx.Rollback(ctx)

	_, err = dbtx.Exec(ctx,
		`INSERT INTO ledger_entries (kind, order_id, entry_date, item_name, quantity, unit_price, counterparty, has_photo)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(kind), entry.OrderID, entry.Date, entry.ItemName, entry.Quantity, entry.UnitPrice, entry.Counterparty, entry.HasPhoto,
	)
	if err != nil {
		return fmt.Errorf("postgres: append %s: %w", kind, err)
	}
	if err := bumpVersion(ctx, dbtx); err != nil {
		return err
	}
	return dbtx.Commit(ctx)
}

func (s *Store) DeletePurchase(ctx context.Context, index int) (domain.Transaction, error) {
	return s.deleteEntry(ctx, domain.LedgerPurchase, index)
}

func (s *Store) DeleteSale(ctx context.Context, index int) (domain.Transaction, error) {
	return s.deleteEntry(ctx, domain.LedgerSale, index)
}

// deleteEntry removes the index-th row of a ledger in insertion order. The
// OFFSET subquery gives the same positional addressing the in-memory slices
// have; later rows implicitly shift down by one.
func (s *Store) deleteEntry(ctx context.Context, kind domain.LedgerKind, index int) (domain.Transaction, error) {
	if index < 0 {
		return domain.Transaction{}, fmt.Errorf("%w: index %d", store.ErrIndexOutOfRange, index)
	}

	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("postgres: begin: %w", err)
	}
	defer dbtx.Rollback(ctx)

	row := dbtx.QueryRow(ctx,
		`DELETE FROM ledger_entries
		 WHERE id = (SELECT id FROM ledger_entries WHERE kind = $1 ORDER BY id OFFSET $2 LIMIT 1)
		 RETURNING order_id, entry_date, item_name, quantity, unit_price, counterparty, has_photo`,
		string(kind), index,
	)

	var removed domain.Transaction
	err = row.Scan(&removed.OrderID, &removed.Date, &removed.ItemName, &removed.Quantity, &removed.UnitPrice, &removed.Counterparty, &removed.HasPhoto)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Transaction{}, fmt.Errorf("%w: index %d", store.ErrIndexOutOfRange, index)
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("postgres: delete %s: %w", kind, err)
	}
	if err := bumpVersion(ctx, dbtx); err != nil {
		return domain.Transaction{}, err
	}
	if err := dbtx.Commit(ctx); err != nil {
		return domain.Transaction{}, fmt.Errorf("postgres: commit: %w", err)
	}
	return removed, nil
}

func (s *Store) ListPurchases(ctx context.Context) ([]domain.Transaction, error) {
	return s.listEntries(ctx, domain.LedgerPurchase)
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Transaction, error) {
	return s.listEntries(ctx, domain.LedgerSale)
}

func (s *Store) listEntries(ctx context.Context, kind domain.LedgerKind) ([]domain.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT order_id, entry_date, item_name, quantity, unit_price, counterparty, has_photo
		 FROM ledger_entries WHERE kind = $1 ORDER BY id`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", kind, err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.OrderID, &tx.Date, &tx.ItemName, &tx.Quantity, &tx.UnitPrice, &tx.Counterparty, &tx.HasPhoto); err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", kind, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", kind, err)
	}
	return out, nil
}

func (s *Store) SetThreshold(ctx context.Context, itemName string, safetyQuantity float64) error {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return fmt.Errorf("%w: item name required", store.ErrInvalidInput)
	}
	if safetyQuantity < 1 {
		return fmt.Errorf("%w: safety quantity %v is below 1", store.ErrInvalidThreshold, safetyQuantity)
	}

	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer dbtx.Rollback(ctx)

	_, err = dbtx.Exec(ctx,
		`INSERT INTO thresholds (item_name, safety_quantity, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (item_name) DO UPDATE SET safety_quantity = EXCLUDED.safety_quantity, updated_at = NOW()`,
		itemName, safetyQuantity,
	)
	if err != nil {
		return fmt.Errorf("postgres: set threshold: %w", err)
	}
	if err := bumpVersion(ctx, dbtx); err != nil {
		return err
	}
	return dbtx.Commit(ctx)
}

func (s *Store) ListThresholds(ctx context.Context) ([]domain.ThresholdEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT item_name, safety_quantity FROM thresholds ORDER BY updated_at, item_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list thresholds: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ThresholdEntry, 0)
	for rows.Next() {
		var entry domain.ThresholdEntry
		if err := rows.Scan(&entry.ItemName, &entry.SafetyQuantity); err != nil {
			return nil, fmt.Errorf("postgres: scan threshold: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list thresholds: %w", err)
	}
	return out, nil
}

func (s *Store) MarkPhoto(ctx context.Context, orderID string) (int, error) {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer dbtx.Rollback(ctx)

	tag, err := dbtx.Exec(ctx,
		`UPDATE ledger_entries SET has_photo = TRUE WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: mark photo: %w", err)
	}
	marked := int(tag.RowsAffected())
	if marked > 0 {
		if err := bumpVersion(ctx, dbtx); err != nil {
			return 0, err
		}
	}
	if err := dbtx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return marked, nil
}

func (s *Store) SaveImage(ctx context.Context, img domain.Image) error {
	uploadedAt := img.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer dbtx.Rollback(ctx)

	_, err = dbtx.Exec(ctx,
		`INSERT INTO images (order_id, content_type, data, uploaded_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (order_id) DO UPDATE SET content_type = EXCLUDED.content_type, data = EXCLUDED.data, uploaded_at = EXCLUDED.uploaded_at`,
		img.OrderID, img.ContentType, img.Data, uploadedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save image: %w", err)
	}
	if err := bumpVersion(ctx, dbtx); err != nil {
		return err
	}
	return dbtx.Commit(ctx)
}

func (s *Store) GetImage(ctx context.Context, orderID string) (*domain.Image, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT order_id, content_type, data, uploaded_at FROM images WHERE order_id = $1`,
		orderID,
	)

	var img domain.Image
	err := row.Scan(&img.OrderID, &img.ContentType, &img.Data, &img.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: image for order %q", store.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get image: %w", err)
	}
	return &img, nil
}

func (s *Store) Version(ctx context.Context) (int64, error) {
	var version int64
	err := s.pool.QueryRow(ctx, `SELECT version FROM ledger_version WHERE id = 1`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("postgres: read version: %w", err)
	}
	return version, nil
}

func bumpVersion(ctx context.Context, dbtx pgx.Tx) error {
	if _, err := dbtx.Exec(ctx, `UPDATE ledger_version SET version = version + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("postgres: bump version: %w", err)
	}
	return nil
}
