// internal/handlers/lots.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/ports"
)

// LotsHandler handles purchase-lot intake and lookup
type LotsHandler struct {
	ledger ports.LotLedger
	logger *slog.Logger
}

// NewLotsHandler creates a new lots handler
func NewLotsHandler(ledger ports.LotLedger, logger *slog.Logger) *LotsHandler {
	return &LotsHandler{
		ledger: ledger,
		logger: logger.With(slog.String("handler", "lots")),
	}
}

// CreateLotRequest represents the request body for registering a lot
type CreateLotRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	OrderCode string          `json:"order_code"`
	OrderDate *time.Time      `json:"order_date,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreateLot handles POST /api/v1/lots
func (h *LotsHandler) CreateLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	lot := &domain.PurchaseLot{
		ProductID: req.ProductID,
		OrderCode: req.OrderCode,
		Quantity:  req.Quantity,
		UnitCost:  req.UnitCost,
	}
	if req.OrderDate != nil {
		lot.OrderDate = *req.OrderDate
	}
	lot.PrepareForStorage()

	if err := lot.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.CreateLot(ctx, lot); err != nil {
		h.logger.ErrorContext(ctx, "failed to create lot",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create lot")
		return
	}

	h.logger.InfoContext(ctx, "lot created",
		slog.String("lot_id", lot.ID.String()),
		slog.String("product_id", lot.ProductID.String()),
		slog.Int("quantity", lot.Quantity))

	h.respondJSON(w, http.StatusCreated, lot)
}

// GetLot handles GET /api/v1/lots/{id}
func (h *LotsHandler) GetLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lotID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid lot ID format")
		return
	}

	lot, err := h.ledger.FindLot(ctx, lotID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get lot",
			slog.String("lot_id", lotID.String()),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve lot")
		return
	}
	if lot == nil {
		h.respondError(w, http.StatusNotFound, "Lot not found")
		return
	}

	h.respondJSON(w, http.StatusOK, lot)
}

func (h *LotsHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h *LotsHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
