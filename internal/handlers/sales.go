// internal/handlers/sales.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/ports"
)

// SalesHandler handles sale-related HTTP requests. It is a thin layer: all
// business decisions live in the service, the handler only decodes, calls
// and maps domain errors onto status codes.
type SalesHandler struct {
	service ports.SaleService
	logger  *slog.Logger
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(service ports.SaleService, logger *slog.Logger) *SalesHandler {
	return &SalesHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "sales")),
	}
}

// CreateSale handles POST /api/v1/sales
func (h *SalesHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ports.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := h.service.CreateSale(ctx, req)
	if err != nil {
		h.respondDomainError(ctx, w, err, "failed to create sale")
		return
	}

	h.respondJSON(w, http.StatusCreated, sale)
}

// GetSale handles GET /api/v1/sales/{id}
func (h *SalesHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	saleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	sale, err := h.service.GetSale(ctx, saleID)
	if err != nil {
		h.respondDomainError(ctx, w, err, "failed to get sale")
		return
	}

	h.respondJSON(w, http.StatusOK, sale)
}

// ListSales handles GET /api/v1/sales
func (h *SalesHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.ListSales(ctx, h.parseListParams(r))
	if err != nil {
		h.respondDomainError(ctx, w, err, "failed to list sales")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// UpdateSale handles PUT /api/v1/sales/{id}
func (h *SalesHandler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	saleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	var req ports.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := h.service.UpdateSale(ctx, saleID, req)
	if err != nil {
		h.respondDomainError(ctx, w, err, "failed to update sale")
		return
	}

	h.respondJSON(w, http.StatusOK, sale)
}

// DeleteSale handles DELETE /api/v1/sales/{id}
func (h *SalesHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	saleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	if err := h.service.DeleteSale(ctx, saleID); err != nil {
		h.respondDomainError(ctx, w, err, "failed to delete sale")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Sale deleted successfully",
		"sale_id": saleID.String(),
	})
}

// CancelSale handles POST /api/v1/sales/{id}/cancel
func (h *SalesHandler) CancelSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	saleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	sale, err := h.service.CancelSale(ctx, saleID)
	if err != nil {
		h.respondDomainError(ctx, w, err, "failed to cancel sale")
		return
	}

	h.respondJSON(w, http.StatusOK, sale)
}

// UpdateStatus handles PATCH /api/v1/sales/{id}/status
func (h *SalesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	saleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	var patch domain.StatusPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := h.service.QuickUpdateStatus(ctx, saleID, patch)
	if err != nil {
		h.respondDomainError(ctx, w, err, "failed to update sale status")
		return
	}

	h.respondJSON(w, http.StatusOK, sale)
}

// parseListParams parses query parameters for listing sales
func (h *SalesHandler) parseListParams(r *http.Request) ports.SaleListParams {
	params := ports.SaleListParams{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			if l > 100 {
				params.PageSize = 100
			} else {
				params.PageSize = l
			}
		}
	}

	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		if id, err := uuid.Parse(clientID); err == nil {
			params.ClientID = &id
		}
	}
	if carrierID := r.URL.Query().Get("carrier_id"); carrierID != "" {
		if id, err := uuid.Parse(carrierID); err == nil {
			params.CarrierID = &id
		}
	}
	params.PaymentStatus = r.URL.Query().Get("payment_status")
	params.OverallStatus = r.URL.Query().Get("overall_status")

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}
	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params
}

// respondDomainError maps domain errors onto status codes. Unrecognized
// errors become a 500 with a generic message.
func (h *SalesHandler) respondDomainError(ctx context.Context, w http.ResponseWriter, err error, logMsg string) {
	switch {
	case domain.IsValidation(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		h.respondError(w, http.StatusNotFound, err.Error())
	case domain.IsInsufficientStock(err):
		h.respondError(w, http.StatusConflict, err.Error())
	case domain.IsConcurrency(err):
		h.respondError(w, http.StatusConflict, "The sale is being modified by another request, please retry")
	default:
		h.logger.ErrorContext(ctx, logMsg, slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *SalesHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h *SalesHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
