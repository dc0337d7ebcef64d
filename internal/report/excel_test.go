package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"stockledger/internal/domain"
)

func openWorkbook(t *testing.T, payload []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	if err != nil {
		t.Fatalf("read %s!%s: %v", sheet, ref, err)
	}
	return v
}

func TestPurchaseWorkbookLayout(t *testing.T) {
	rows := []domain.Transaction{
		{
			OrderID:      "po-1",
			Date:         time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
			ItemName:     "Brick",
			Quantity:     100,
			UnitPrice:    5,
			Counterparty: "Acme Materials",
			HasPhoto:     true,
		},
	}

	payload, err := PurchaseWorkbook(rows)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}
	f := openWorkbook(t, payload)

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != "Purchases" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}
	if got := cell(t, f, "Purchases", "A1"); got != "order_id" {
		t.Errorf("A1: got %q", got)
	}
	if got := cell(t, f, "Purchases", "F1"); got != "counterparty" {
		t.Errorf("F1: got %q", got)
	}
	// The photo marker column stays out of exports.
	if got := cell(t, f, "Purchases", "G1"); got != "" {
		t.Errorf("expected no seventh column, got %q", got)
	}

	if got := cell(t, f, "Purchases", "B2"); got != "2026-08-30" {
		t.Errorf("B2 date: got %q", got)
	}
	if got := cell(t, f, "Purchases", "C2"); got != "Brick" {
		t.Errorf("C2 item: got %q", got)
	}
	if got := cell(t, f, "Purchases", "D2"); got != "100" {
		t.Errorf("D2 quantity: got %q", got)
	}
}

func TestSalesWorkbookEmptyLedger(t *testing.T) {
	payload, err := SalesWorkbook(nil)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}
	f := openWorkbook(t, payload)

	if got := cell(t, f, "Sales", "A1"); got != "order_id" {
		t.Errorf("header row must exist even with no data, A1=%q", got)
	}
	if got := cell(t, f, "Sales", "A2"); got != "" {
		t.Errorf("expected empty data area, got %q", got)
	}
}

func TestSnapshotWorkbookLayout(t *testing.T) {
	rows := []domain.InventorySnapshot{
		{
			ItemName:         "Brick",
			TotalPurchased:   150,
			AvgPurchasePrice: 6,
			TotalSold:        120,
			AvgSalePrice:     10,
			CurrentStock:     30,
			StockValue:       180,
			SafetyQuantity:   50,
			Status:           domain.StatusLowStock,
		},
	}

	payload, err := SnapshotWorkbook(rows)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}
	f := openWorkbook(t, payload)

	if got := cell(t, f, "Inventory", "A1"); got != "item_name" {
		t.Errorf("A1: got %q", got)
	}
	if got := cell(t, f, "Inventory", "I1"); got != "status" {
		t.Errorf("I1: got %q", got)
	}
	if got := cell(t, f, "Inventory", "F2"); got != "30" {
		t.Errorf("F2 stock: got %q", got)
	}
	if got := cell(t, f, "Inventory", "I2"); got != domain.StatusLowStock {
		t.Errorf("I2 status: got %q", got)
	}
}
