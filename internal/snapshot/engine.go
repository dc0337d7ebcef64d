// Package snapshot derives the inventory view from the raw ledgers. Compute
// is a total, pure function: it never fails and never mutates its inputs, so
// the service can re-run it after every ledger mutation without drift between
// ledger and view.
package snapshot

import (
	"fmt"

	"stockledger/internal/domain"
	"stockledger/internal/store"
)

type aggregate struct {
	totalQty int
	priceSum float64
	txCount  int
}

func (a aggregate) avgPrice() float64 {
	if a.txCount == 0 {
		return 0
	}
	return a.priceSum / float64(a.txCount)
}

// Compute reduces the purchase ledger, the sales ledger and the threshold
// table into one snapshot row per distinct item name.
//
// Average prices are the unweighted arithmetic mean over transactions: a lot
// of 1 unit and a lot of 100 units contribute equally. This mirrors the
// legacy accounting sheet and is kept for compatibility.
//
// Items that appear in only one ledger still get a row, with the missing
// side's aggregates at zero. Item names join by exact string match, no
// normalization. Rows come out in first-appearance order (purchases before
// sales), but consumers must treat the result as a set keyed by item name.
func Compute(purchases []domain.Transaction, sales []domain.Transaction, thresholds []domain.ThresholdEntry) []domain.InventorySnapshot {
	purchased := make(map[string]aggregate)
	sold := make(map[string]aggregate)
	order := make([]string, 0, len(purchases)+len(sales))
	seen := make(map[string]struct{})

	for _, tx := range purchases {
		agg := purchased[tx.ItemName]
		agg.totalQty += tx.Quantity
		agg.priceSum += tx.UnitPrice
		agg.txCount++
		purchased[tx.ItemName] = agg
		if _, ok := seen[tx.ItemName]; !ok {
			seen[tx.ItemName] = struct{}{}
			order = append(order, tx.ItemName)
		}
	}
	for _, tx := range sales {
		agg := sold[tx.ItemName]
		agg.totalQty += tx.Quantity
		agg.priceSum += tx.UnitPrice
		agg.txCount++
		sold[tx.ItemName] = agg
		if _, ok := seen[tx.ItemName]; !ok {
			seen[tx.ItemName] = struct{}{}
			order = append(order, tx.ItemName)
		}
	}

	safety := make(map[string]float64, len(thresholds))
	for _, entry := range thresholds {
		// Last write wins when the table carries duplicates.
		safety[entry.ItemName] = entry.SafetyQuantity
	}

	rows := make([]domain.InventorySnapshot, 0, len(order))
	for _, name := range order {
		in := purchased[name]
		out := sold[name]

		row := domain.InventorySnapshot{
			ItemName:         name,
			TotalPurchased:   in.totalQty,
			AvgPurchasePrice: in.avgPrice(),
			TotalSold:        out.totalQty,
			AvgSalePrice:     out.avgPrice(),
			SafetyQuantity:   safety[name],
		}
		row.CurrentStock = row.TotalPurchased - row.TotalSold
		row.StockValue = float64(row.CurrentStock) * row.AvgPurchasePrice

		// Strict inequality: stock exactly at the safety level is OK.
		if float64(row.CurrentStock) < row.SafetyQuantity {
			row.Status = domain.StatusLowStock
		} else {
			row.Status = domain.StatusOK
		}
		rows = append(rows, row)
	}
	return rows
}

// LowStockItems filters a snapshot down to the rows in alert state.
func LowStockItems(rows []domain.InventorySnapshot) []domain.InventorySnapshot {
	low := make([]domain.InventorySnapshot, 0, len(rows))
	for _, row := range rows {
		if row.Status == domain.StatusLowStock {
			low = append(low, row)
		}
	}
	return low
}

// ValidateSale admits a sale only when the item has enough stock in the
// given snapshot. Selling exactly the remaining stock succeeds. The caller
// must hold the mutation lock so the snapshot cannot go stale between this
// check and the append.
func ValidateSale(itemName string, requestedQty int, rows []domain.InventorySnapshot) error {
	stock := 0
	for _, row := range rows {
		if row.ItemName == itemName {
			stock += row.CurrentStock
		}
	}
	if requestedQty > stock {
		return fmt.Errorf("%w: requested %d of %q but only %d on hand", store.ErrInsufficientStock, requestedQty, itemName, stock)
	}
	return nil
}
