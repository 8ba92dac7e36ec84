// internal/core/domain/history.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoryKind classifies a stock-affecting event.
type HistoryKind string

const (
	HistorySale         HistoryKind = "sale"
	HistoryPurchase     HistoryKind = "purchase"
	HistoryCancellation HistoryKind = "cancellation"
)

// HistoryEntry is an append-only ledger row recording a stock-affecting
// event. Entries are never mutated; they are only inserted, or deleted in
// bulk when their owning sale is deleted or rebuilt.
type HistoryEntry struct {
	ID         uuid.UUID       `json:"id"`
	SaleID     *uuid.UUID      `json:"sale_id,omitempty"`
	ProductID  uuid.UUID       `json:"product_id"`
	Kind       HistoryKind     `json:"kind"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	RecordedAt time.Time       `json:"recorded_at"`
}
