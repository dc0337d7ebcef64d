package memory

import (
	"context"
	"errors"
	"testing"

	"stockledger/internal/domain"
	"stockledger/internal/store"
)

func tx(orderID, item string, qty int, price float64) domain.Transaction {
	return domain.Transaction{OrderID: orderID, ItemName: item, Quantity: qty, UnitPrice: price}
}

func TestDeleteShiftsLaterRowsDown(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i, price := range []float64{5, 6, 7} {
		if err := s.AppendPurchase(ctx, tx("ord", "Brick", 10+i, price)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	removed, err := s.DeletePurchase(ctx, 1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.UnitPrice != 6 {
		t.Fatalf("expected middle row removed, got price %v", removed.UnitPrice)
	}

	rows, err := s.ListPurchases(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].UnitPrice != 5 || rows[1].UnitPrice != 7 {
		t.Fatalf("rows did not reindex contiguously: %+v", rows)
	}
}

func TestDeleteOutOfRangeLeavesLedgerIntact(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.AppendSale(ctx, tx("ord", "Brick", 5, 10)); err != nil {
		t.Fatalf("append: %v", err)
	}

	for _, index := range []int{-1, 1, 99} {
		if _, err := s.DeleteSale(ctx, index); !errors.Is(err, store.ErrIndexOutOfRange) {
			t.Fatalf("index %d: expected ErrIndexOutOfRange, got %v", index, err)
		}
	}

	rows, err := s.ListSales(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("failed delete must not mutate the ledger, got %d rows", len(rows))
	}
}

func TestSetThresholdReplacesAndMovesToEnd(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SetThreshold(ctx, "Brick", 20); err != nil {
		t.Fatalf("set brick: %v", err)
	}
	if err := s.SetThreshold(ctx, "Cement", 10); err != nil {
		t.Fatalf("set cement: %v", err)
	}
	if err := s.SetThreshold(ctx, "Brick", 35); err != nil {
		t.Fatalf("reset brick: %v", err)
	}

	entries, err := s.ListThresholds(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after dedup, got %d", len(entries))
	}
	last := entries[len(entries)-1]
	if last.ItemName != "Brick" || last.SafetyQuantity != 35 {
		t.Fatalf("refreshed entry should move to the end with the new value, got %+v", last)
	}
}

func TestSetThresholdRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SetThreshold(ctx, "  ", 5); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("blank name: expected ErrInvalidInput, got %v", err)
	}
	if err := s.SetThreshold(ctx, "Brick", 0); !errors.Is(err, store.ErrInvalidThreshold) {
		t.Fatalf("zero quantity: expected ErrInvalidThreshold, got %v", err)
	}
	if err := s.SetThreshold(ctx, "Brick", 0.5); !errors.Is(err, store.ErrInvalidThreshold) {
		t.Fatalf("fractional below 1: expected ErrInvalidThreshold, got %v", err)
	}
	if err := s.SetThreshold(ctx, "Brick", 1); err != nil {
		t.Fatalf("minimum of 1 must pass, got %v", err)
	}
}

func TestMarkPhotoFlagsBothLedgers(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.AppendPurchase(ctx, tx("ord-1", "Brick", 10, 5))
	_ = s.AppendPurchase(ctx, tx("ord-2", "Brick", 10, 5))
	_ = s.AppendSale(ctx, tx("ord-1", "Brick", 5, 9))

	marked, err := s.MarkPhoto(ctx, "ord-1")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if marked != 2 {
		t.Fatalf("expected 2 rows marked across both ledgers, got %d", marked)
	}

	purchases, _ := s.ListPurchases(ctx)
	if !purchases[0].HasPhoto || purchases[1].HasPhoto {
		t.Fatalf("only ord-1 rows should carry the flag: %+v", purchases)
	}

	marked, err = s.MarkPhoto(ctx, "missing")
	if err != nil {
		t.Fatalf("mark missing: %v", err)
	}
	if marked != 0 {
		t.Fatalf("unknown order id should mark nothing, got %d", marked)
	}
}

func TestImageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetImage(ctx, "ord-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before upload, got %v", err)
	}

	img := domain.Image{OrderID: "ord-1", ContentType: "image/png", Data: []byte{1, 2, 3}}
	if err := s.SaveImage(ctx, img); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetImage(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContentType != "image/png" || len(got.Data) != 3 {
		t.Fatalf("unexpected image: %+v", got)
	}
	if got.UploadedAt.IsZero() {
		t.Fatalf("expected upload timestamp to be stamped")
	}

	// Mutating the returned bytes must not reach the stored copy.
	got.Data[0] = 99
	again, _ := s.GetImage(ctx, "ord-1")
	if again.Data[0] != 1 {
		t.Fatalf("stored image data was aliased to the caller's slice")
	}

	replacement := domain.Image{OrderID: "ord-1", ContentType: "image/jpeg", Data: []byte{9}}
	if err := s.SaveImage(ctx, replacement); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	latest, _ := s.GetImage(ctx, "ord-1")
	if latest.ContentType != "image/jpeg" {
		t.Fatalf("re-upload should overwrite, got %+v", latest)
	}
}

func TestVersionBumpsOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	s := New()

	base, _ := s.Version(ctx)
	_ = s.AppendPurchase(ctx, tx("ord", "Brick", 10, 5))
	_ = s.AppendSale(ctx, tx("ord", "Brick", 2, 9))
	_ = s.SetThreshold(ctx, "Brick", 5)
	_, _ = s.DeleteSale(ctx, 0)
	_ = s.SaveImage(ctx, domain.Image{OrderID: "ord", ContentType: "image/png", Data: []byte{1}})

	v, _ := s.Version(ctx)
	if v != base+5 {
		t.Fatalf("expected 5 version bumps, got %d", v-base)
	}

	_, _ = s.ListPurchases(ctx)
	after, _ := s.Version(ctx)
	if after != v {
		t.Fatalf("reads must not bump the version")
	}
}
