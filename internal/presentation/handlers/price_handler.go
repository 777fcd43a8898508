package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/application/services"
)

// maxPriceSymbols caps one price lookup
const maxPriceSymbols = 50

// PriceHandler handles price and swap quote requests
type PriceHandler struct {
	service *services.DashboardService
	logger  *zap.Logger
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(service *services.DashboardService, logger *zap.Logger) *PriceHandler {
	return &PriceHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the price routes on a chi router
func (h *PriceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/prices", h.GetPrices)
	r.Get("/swap/quote", h.GetSwapQuote)
}

// GetPrices handles GET /api/v1/prices?symbols=A,B
func (h *PriceHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if strings.TrimSpace(raw) == "" {
		respondError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	symbols := strings.Split(raw, ",")
	if len(symbols) > maxPriceSymbols {
		respondError(w, http.StatusBadRequest, "too many symbols")
		return
	}

	response, err := h.service.GetPrices(r.Context(), symbols)
	if err != nil {
		h.logger.Error("Failed to get prices", zap.Error(err), zap.Strings("symbols", symbols))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// GetSwapQuote handles GET /api/v1/swap/quote?from=&to=&amount=
func (h *PriceHandler) GetSwapQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	response, err := h.service.GetSwapQuote(r.Context(), q.Get("from"), q.Get("to"), q.Get("amount"))
	if err != nil {
		h.logger.Debug("Swap quote rejected", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}
