package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/application/services"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// WalletHandler handles HTTP requests for wallet views
type WalletHandler struct {
	service *services.DashboardService
	logger  *zap.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(service *services.DashboardService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the wallet routes on a chi router
func (h *WalletHandler) RegisterRoutes(r chi.Router) {
	r.Route("/wallets/{address}", func(r chi.Router) {
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/tokens", h.GetTokens)
		r.Get("/nfts", h.GetNFTs)
		r.Get("/defi", h.GetDefi)
		r.Get("/transactions", h.GetTransactions)
		r.Get("/token-transfers", h.GetTokenTransfers)
	})
}

// address returns the validated path address or writes a 400
func (h *WalletHandler) address(w http.ResponseWriter, r *http.Request) (string, bool) {
	address := chi.URLParam(r, "address")
	if !entities.IsValidAddress(address) {
		respondError(w, http.StatusBadRequest, "Invalid wallet address format")
		return "", false
	}
	return entities.NormalizeAddress(address), true
}

// refresh drops cached responses for address when the request asks for
// ?refresh=true. A cache failure is logged and the request proceeds.
func (h *WalletHandler) refresh(r *http.Request, address string) {
	refresh, err := strconv.ParseBool(r.URL.Query().Get("refresh"))
	if err != nil || !refresh {
		return
	}
	if err := h.service.Invalidate(r.Context(), address); err != nil {
		h.logger.Warn("Failed to invalidate cache", zap.Error(err), zap.String("address", address))
	}
}

func (h *WalletHandler) fail(w http.ResponseWriter, msg, address string, err error) {
	h.logger.Error(msg, zap.Error(err), zap.String("address", address))
	respondServiceError(w, err)
}

// GetDashboard handles GET /api/v1/wallets/{address}/dashboard?refresh=
func (h *WalletHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	h.refresh(r, address)

	response, err := h.service.GetDashboard(r.Context(), address)
	if err != nil {
		h.fail(w, "Failed to get dashboard", address, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// GetTokens handles GET /api/v1/wallets/{address}/tokens
func (h *WalletHandler) GetTokens(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}

	response, err := h.service.GetTokens(r.Context(), address)
	if err != nil {
		h.fail(w, "Failed to get tokens", address, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// GetNFTs handles GET /api/v1/wallets/{address}/nfts?page_key=&refresh=
func (h *WalletHandler) GetNFTs(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	h.refresh(r, address)

	response, err := h.service.GetNFTs(r.Context(), address, r.URL.Query().Get("page_key"))
	if err != nil {
		h.fail(w, "Failed to get NFTs", address, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// GetDefi handles GET /api/v1/wallets/{address}/defi
func (h *WalletHandler) GetDefi(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}

	response, err := h.service.GetDefi(r.Context(), address)
	if err != nil {
		h.fail(w, "Failed to get DeFi positions", address, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// GetTransactions handles GET /api/v1/wallets/{address}/transactions?page=
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	page, ok := parsePage(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid page")
		return
	}

	response, err := h.service.GetTransactions(r.Context(), address, page)
	if err != nil {
		h.fail(w, "Failed to get transactions", address, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// GetTokenTransfers handles GET /api/v1/wallets/{address}/token-transfers?page=
func (h *WalletHandler) GetTokenTransfers(w http.ResponseWriter, r *http.Request) {
	address, ok := h.address(w, r)
	if !ok {
		return
	}
	page, ok := parsePage(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid page")
		return
	}

	response, err := h.service.GetTokenTransfers(r.Context(), address, page)
	if err != nil {
		h.fail(w, "Failed to get token transfers", address, err)
		return
	}

	respondJSON(w, http.StatusOK, response)
}
