// Package report renders ledgers and inventory snapshots as XLSX workbooks
// for download. The has_photo marker is excluded from exported tables by
// convention; image bytes live in the side store and are never exported.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"stockledger/internal/domain"
)

var ledgerHeader = []any{"order_id", "date", "item_name", "quantity", "unit_price", "counterparty"}

var snapshotHeader = []any{
	"item_name", "total_purchased", "avg_purchase_price", "total_sold",
	"avg_sale_price", "current_stock", "stock_value", "safety_quantity", "status",
}

func PurchaseWorkbook(rows []domain.Transaction) ([]byte, error) {
	return ledgerWorkbook("Purchases", rows)
}

func SalesWorkbook(rows []domain.Transaction) ([]byte, error) {
	return ledgerWorkbook("Sales", rows)
}

func ledgerWorkbook(sheet string, rows []domain.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &ledgerHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, tx := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{tx.OrderID, tx.Date.Format("2006-01-02"), tx.ItemName, tx.Quantity, tx.UnitPrice, tx.Counterparty}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	return workbookBytes(f)
}

func SnapshotWorkbook(rows []domain.InventorySnapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Inventory"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &snapshotHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, item := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			item.ItemName, item.TotalPurchased, item.AvgPurchasePrice, item.TotalSold,
			item.AvgSalePrice, item.CurrentStock, item.StockValue, item.SafetyQuantity, item.Status,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	return workbookBytes(f)
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
