package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"stockledger/internal/cache"
	"stockledger/internal/domain"
	"stockledger/internal/snapshot"
	"stockledger/internal/store"
)

// Service runs each operator interaction as one atomic turn: read the
// ledgers, mutate, and let the next snapshot read recompute from scratch.
// The mutation lock serializes sale admission so the availability check and
// the append cannot interleave with another mutation.
type Service struct {
	repo        store.Repository
	snapshots   cache.SnapshotCache
	snapshotTTL time.Duration

	mu sync.Mutex
}

func New(repo store.Repository, snapshots cache.SnapshotCache, snapshotTTL time.Duration) *Service {
	if snapshots == nil {
		snapshots = cache.NoopSnapshotCache{}
	}
	if snapshotTTL <= 0 {
		snapshotTTL = 5 * time.Minute
	}
	return &Service{
		repo:        repo,
		snapshots:   snapshots,
		snapshotTTL: snapshotTTL,
	}
}

func (s *Service) RecordPurchase(ctx context.Context, req domain.TransactionCreateRequest) (domain.LedgerEntry, error) {
	tx, err := s.buildTransaction(ctx, req)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.ListPurchases(ctx)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if err := s.repo.AppendPurchase(ctx, tx); err != nil {
		return domain.LedgerEntry{}, err
	}

	log.Printf("[service] purchase recorded item=%q qty=%d price=%.2f order=%s", tx.ItemName, tx.Quantity, tx.UnitPrice, tx.OrderID)
	return domain.LedgerEntry{Index: len(existing), Transaction: tx}, nil
}

// RecordSale admits a sale only after validating availability against a
// snapshot computed inside the mutation lock, so two sales of the last unit
// cannot both pass the check.
func (s *Service) RecordSale(ctx context.Context, req domain.TransactionCreateRequest) (domain.LedgerEntry, error) {
	tx, err := s.buildTransaction(ctx, req)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	purchases, sales, thresholds, err := s.ledgers(ctx)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	rows := snapshot.Compute(purchases, sales, thresholds)
	if err := snapshot.ValidateSale(tx.ItemName, tx.Quantity, rows); err != nil {
		return domain.LedgerEntry{}, err
	}

	if err := s.repo.AppendSale(ctx, tx); err != nil {
		return domain.LedgerEntry{}, err
	}

	log.Printf("[service] sale recorded item=%q qty=%d price=%.2f order=%s", tx.ItemName, tx.Quantity, tx.UnitPrice, tx.OrderID)
	return domain.LedgerEntry{Index: len(sales), Transaction: tx}, nil
}

// DeletePurchase removes the row at index and shifts later rows down. The
// validator does not re-check dependent sales, so deleting a purchase after
// a sale was admitted can leave stock transiently negative.
func (s *Service) DeletePurchase(ctx context.Context, index int) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.repo.DeletePurchase(ctx, index)
	if err != nil {
		return domain.Transaction{}, err
	}
	log.Printf("[service] purchase deleted index=%d item=%q order=%s", index, removed.ItemName, removed.OrderID)
	return removed, nil
}

func (s *Service) DeleteSale(ctx context.Context, index int) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.repo.DeleteSale(ctx, index)
	if err != nil {
		return domain.Transaction{}, err
	}
	log.Printf("[service] sale deleted index=%d item=%q order=%s", index, removed.ItemName, removed.OrderID)
	return removed, nil
}

func (s *Service) Purchases(ctx context.Context) (domain.LedgerListResponse, error) {
	rows, err := s.repo.ListPurchases(ctx)
	if err != nil {
		return domain.LedgerListResponse{}, err
	}
	return toLedgerListResponse(domain.LedgerPurchase, rows), nil
}

func (s *Service) Sales(ctx context.Context) (domain.LedgerListResponse, error) {
	rows, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.LedgerListResponse{}, err
	}
	return toLedgerListResponse(domain.LedgerSale, rows), nil
}

func (s *Service) SetThreshold(ctx context.Context, req domain.ThresholdSetRequest) (domain.ThresholdEntry, error) {
	name := strings.TrimSpace(req.ItemName)
	if name == "" {
		return domain.ThresholdEntry{}, fmt.Errorf("%w: item name is required", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SetThreshold(ctx, name, req.SafetyQuantity); err != nil {
		return domain.ThresholdEntry{}, err
	}
	log.Printf("[service] threshold set item=%q safety=%v", name, req.SafetyQuantity)
	return domain.ThresholdEntry{ItemName: name, SafetyQuantity: req.SafetyQuantity}, nil
}

func (s *Service) Thresholds(ctx context.Context) (domain.ThresholdListResponse, error) {
	entries, err := s.repo.ListThresholds(ctx)
	if err != nil {
		return domain.ThresholdListResponse{}, err
	}
	return domain.ThresholdListResponse{Thresholds: entries}, nil
}

// Snapshot recomputes the inventory view from the full ledgers. The cache
// key embeds the store version, so a hit is byte-for-byte what a fresh
// recompute would produce; cache failures fall back to recomputing.
func (s *Service) Snapshot(ctx context.Context) (domain.SnapshotResponse, error) {
	version, err := s.repo.Version(ctx)
	if err != nil {
		return domain.SnapshotResponse{}, err
	}
	key := fmt.Sprintf("inventory:v%d", version)

	if rows, ok, err := s.snapshots.Get(ctx, key); err != nil {
		log.Printf("[service] WARN: snapshot cache get failed: %v", err)
	} else if ok {
		return toSnapshotResponse(rows), nil
	}

	purchases, sales, thresholds, err := s.ledgers(ctx)
	if err != nil {
		return domain.SnapshotResponse{}, err
	}
	rows := snapshot.Compute(purchases, sales, thresholds)

	if err := s.snapshots.Set(ctx, key, rows, s.snapshotTTL); err != nil {
		log.Printf("[service] WARN: snapshot cache set failed: %v", err)
	}
	return toSnapshotResponse(rows), nil
}

func (s *Service) LowStock(ctx context.Context) (domain.LowStockResponse, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.LowStockResponse{}, err
	}
	low := snapshot.LowStockItems(snap.Items)
	return domain.LowStockResponse{Count: len(low), Items: low}, nil
}

// AttachImage stores the image under the order id and flags has_photo on
// every ledger row carrying that id. Zero marked rows is not an error: the
// image stays addressable and a later entry with the same order id will not
// pick it up retroactively, matching the side-table behavior.
func (s *Service) AttachImage(ctx context.Context, orderID string, contentType string, data []byte) (int, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" || len(data) == 0 {
		return 0, fmt.Errorf("%w: order id and image body are required", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SaveImage(ctx, domain.Image{
		OrderID:     orderID,
		ContentType: contentType,
		Data:        data,
		UploadedAt:  time.Now().UTC(),
	}); err != nil {
		return 0, err
	}

	marked, err := s.repo.MarkPhoto(ctx, orderID)
	if err != nil {
		return 0, err
	}
	log.Printf("[service] image attached order=%s bytes=%d rows_marked=%d", orderID, len(data), marked)
	return marked, nil
}

func (s *Service) ImageByOrderID(ctx context.Context, orderID string) (*domain.Image, error) {
	return s.repo.GetImage(ctx, strings.TrimSpace(orderID))
}

func (s *Service) ledgers(ctx context.Context) ([]domain.Transaction, []domain.Transaction, []domain.ThresholdEntry, error) {
	purchases, err := s.repo.ListPurchases(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	thresholds, err := s.repo.ListThresholds(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return purchases, sales, thresholds, nil
}

func (s *Service) buildTransaction(ctx context.Context, req domain.TransactionCreateRequest) (domain.Transaction, error) {
	orderID := strings.TrimSpace(req.OrderID)
	itemName := strings.TrimSpace(req.ItemName)
	if orderID == "" || itemName == "" {
		return domain.Transaction{}, fmt.Errorf("%w: order id and item name are required", store.ErrInvalidInput)
	}
	if req.Quantity < 0 || req.UnitPrice < 0 {
		return domain.Transaction{}, fmt.Errorf("%w: quantity and unit price must be non-negative", store.ErrInvalidInput)
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidInput)
		}
		date = parsed.UTC()
	}

	hasPhoto := false
	if _, err := s.repo.GetImage(ctx, orderID); err == nil {
		hasPhoto = true
	}

	return domain.Transaction{
		OrderID:      orderID,
		Date:         date,
		ItemName:     itemName,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		Counterparty: strings.TrimSpace(req.Counterparty),
		HasPhoto:     hasPhoto,
	}, nil
}

func toLedgerListResponse(kind domain.LedgerKind, rows []domain.Transaction) domain.LedgerListResponse {
	entries := make([]domain.LedgerEntry, 0, len(rows))
	for i, tx := range rows {
		entries = append(entries, domain.LedgerEntry{Index: i, Transaction: tx})
	}
	return domain.LedgerListResponse{Kind: kind, Entries: entries}
}

func toSnapshotResponse(rows []domain.InventorySnapshot) domain.SnapshotResponse {
	return domain.SnapshotResponse{
		Items:      rows,
		ComputedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
