package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"stockledger/internal/domain"
	"stockledger/internal/store"
)

// Store keeps both ledgers in insertion order in plain slices, which makes
// positional delete and contiguous re-indexing trivial. All state lives for
// the process lifetime only.
type Store struct {
	mu         sync.RWMutex
	purchases  []domain.Transaction
	sales      []domain.Transaction
	thresholds []domain.ThresholdEntry
	images     map[string]domain.Image
	version    int64
}

func New() *Store {
	return &Store{
		purchases:  make([]domain.Transaction, 0, 64),
		sales:      make([]domain.Transaction, 0, 64),
		thresholds: make([]domain.ThresholdEntry, 0, 16),
		images:     make(map[string]domain.Image),
	}
}

func (s *Store) AppendPurchase(_ context.Context, tx domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purchases = append(s.purchases, tx)
	s.version++
	return nil
}

func (s *Store) AppendSale(_ context.Context, tx domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sales = append(s.sales, tx)
	s.version++
	return nil
}

func (s *Store) DeletePurchase(_ context.Context, index int) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, rest, err := deleteAt(s.purchases, index)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.purchases = rest
	s.version++
	return removed, nil
}

func (s *Store) DeleteSale(_ context.Context, index int) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, rest, err := deleteAt(s.sales, index)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.sales = rest
	s.version++
	return removed, nil
}

func deleteAt(ledger []domain.Transaction, index int) (domain.Transaction, []domain.Transaction, error) {
	if index < 0 || index >= len(ledger) {
		return domain.Transaction{}, ledger, fmt.Errorf("%w: index %d, ledger length %d", store.ErrIndexOutOfRange, index, len(ledger))
	}
	removed := ledger[index]
	return removed, slices.Delete(ledger, index, index+1), nil
}

func (s *Store) ListPurchases(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.purchases), nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sales), nil
}

// SetThreshold replaces any existing entry for the name rather than
// appending a duplicate. The refreshed entry moves to the end of the table,
// matching keep-last dedup semantics.
func (s *Store) SetThreshold(_ context.Context, itemName string, safetyQuantity float64) error {
	if strings.TrimSpace(itemName) == "" {
		return store.ErrInvalidInput
	}
	if safetyQuantity < 1 {
		return fmt.Errorf("%w: safety quantity %v is below the minimum of 1", store.ErrInvalidThreshold, safetyQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.thresholds = slices.DeleteFunc(s.thresholds, func(entry domain.ThresholdEntry) bool {
		return entry.ItemName == itemName
	})
	s.thresholds = append(s.thresholds, domain.ThresholdEntry{ItemName: itemName, SafetyQuantity: safetyQuantity})
	s.version++
	return nil
}

func (s *Store) ListThresholds(_ context.Context) ([]domain.ThresholdEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.thresholds), nil
}

// MarkPhoto flags has_photo on every ledger row carrying the order id, in
// both ledgers, and reports how many rows it touched.
func (s *Store) MarkPhoto(_ context.Context, orderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for i := range s.purchases {
		if s.purchases[i].OrderID == orderID && !s.purchases[i].HasPhoto {
			s.purchases[i].HasPhoto = true
			marked++
		}
	}
	for i := range s.sales {
		if s.sales[i].OrderID == orderID && !s.sales[i].HasPhoto {
			s.sales[i].HasPhoto = true
			marked++
		}
	}
	if marked > 0 {
		s.version++
	}
	return marked, nil
}

func (s *Store) SaveImage(_ context.Context, img domain.Image) error {
	if strings.TrimSpace(img.OrderID) == "" || len(img.Data) == 0 {
		return store.ErrInvalidInput
	}
	if img.UploadedAt.IsZero() {
		img.UploadedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-upload for the same order id overwrites.
	s.images[img.OrderID] = img
	s.version++
	return nil
}

func (s *Store) GetImage(_ context.Context, orderID string) (*domain.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := img
	copied.Data = slices.Clone(img.Data)
	return &copied, nil
}

func (s *Store) Version(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, nil
}
