package domain

import "time"

// Transaction is one row in a purchase or sales ledger. Rows are identified
// by position, not by OrderID: order ids are user supplied and the store does
// not enforce uniqueness.
type Transaction struct {
	OrderID      string    `json:"order_id"`
	Date         time.Time `json:"date"`
	ItemName     string    `json:"item_name"`
	Quantity     int       `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	Counterparty string    `json:"counterparty"`
	HasPhoto     bool      `json:"has_photo"`
}

// ThresholdEntry maps an item name to its safety stock level. The threshold
// table is keyed logically by item name: setting a threshold for an existing
// name replaces the prior entry.
type ThresholdEntry struct {
	ItemName       string  `json:"item_name"`
	SafetyQuantity float64 `json:"safety_quantity"`
}

// InventorySnapshot is one derived row of the inventory view. Snapshots are
// recomputed from the full ledgers on demand and never stored.
type InventorySnapshot struct {
	ItemName         string  `json:"item_name"`
	TotalPurchased   int     `json:"total_purchased"`
	AvgPurchasePrice float64 `json:"avg_purchase_price"`
	TotalSold        int     `json:"total_sold"`
	AvgSalePrice     float64 `json:"avg_sale_price"`
	CurrentStock     int     `json:"current_stock"`
	StockValue       float64 `json:"stock_value"`
	SafetyQuantity   float64 `json:"safety_quantity"`
	Status           string  `json:"status"`
}

const (
	StatusLowStock = "LOW_STOCK"
	StatusOK       = "OK"
)

// LedgerKind selects which ledger an operation targets.
type LedgerKind string

const (
	LedgerPurchase LedgerKind = "purchase"
	LedgerSale     LedgerKind = "sale"
)

type TransactionCreateRequest struct {
	OrderID      string  `json:"order_id"`
	Date         string  `json:"date,omitempty"`
	ItemName     string  `json:"item_name"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Counterparty string  `json:"counterparty"`
}

// LedgerEntry pairs a transaction with its current position. Indices shift
// down after a delete, so they must not be cached across mutations.
type LedgerEntry struct {
	Index       int         `json:"index"`
	Transaction Transaction `json:"transaction"`
}

type LedgerListResponse struct {
	Kind    LedgerKind    `json:"kind"`
	Entries []LedgerEntry `json:"entries"`
}

type ThresholdSetRequest struct {
	ItemName       string  `json:"item_name"`
	SafetyQuantity float64 `json:"safety_quantity"`
}

type ThresholdListResponse struct {
	Thresholds []ThresholdEntry `json:"thresholds"`
}

type SnapshotResponse struct {
	Items      []InventorySnapshot `json:"items"`
	ComputedAt string              `json:"computed_at"`
}

type LowStockResponse struct {
	Count int                 `json:"count"`
	Items []InventorySnapshot `json:"items"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

// Image is an attachment stored in the side table, keyed by the order id the
// operator typed on the form. Deleting a ledger row does not remove its image.
type Image struct {
	OrderID     string    `json:"order_id"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
