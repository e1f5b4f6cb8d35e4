/**
 * @description
 * This file defines the HTTP handlers for the wallet views: account and
 * transaction listing, exchange rates, payment methods, crypto wallet
 * creation and wallet operation submission.
 *
 * All reads proxy the wallet service with the active session credential;
 * the dashboard holds no balances of its own. After a mutating operation
 * the client re-fetches the account list rather than patching local state.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bpay/dashboard-service/internal/app"
	"github.com/bpay/dashboard-service/internal/domain"
)

// WalletGateway is the slice of the wallet service the read handlers proxy.
type WalletGateway interface {
	ListAccounts(ctx context.Context, token string) ([]domain.Account, error)
	ListTransactions(ctx context.Context, token string) ([]domain.Transaction, error)
	ListPaymentMethods(ctx context.Context, token string) ([]domain.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, token string, methodType domain.PaymentMethodType, details string) (*domain.PaymentMethod, error)
	CreateCryptoWallet(ctx context.Context, token string, currency domain.Currency) (*domain.Account, error)
}

// WalletHandler holds the dependencies for wallet-related handlers.
type WalletHandler struct {
	gateway    WalletGateway
	dispatcher *app.Dispatcher
	rates      *app.RateCache
	sessions   *app.SessionStore
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(gateway WalletGateway, dispatcher *app.Dispatcher, rates *app.RateCache, sessions *app.SessionStore) *WalletHandler {
	return &WalletHandler{
		gateway:    gateway,
		dispatcher: dispatcher,
		rates:      rates,
		sessions:   sessions,
	}
}

// ListAccounts returns all of the user's wallets.
func (h *WalletHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.gateway.ListAccounts(r.Context(), SessionTokenFromContext(r.Context()))
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// ListTransactions returns recent transactions, most recent first, in the
// order the upstream delivered them.
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.gateway.ListTransactions(r.Context(), SessionTokenFromContext(r.Context()))
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

// ListPaymentMethods returns the user's saved payout destinations.
func (h *WalletHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.gateway.ListPaymentMethods(r.Context(), SessionTokenFromContext(r.Context()))
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, methods)
}

// CreatePaymentMethodRequest carries a new payout destination. The display
// name is derived upstream from the details.
type CreatePaymentMethodRequest struct {
	Type    domain.PaymentMethodType `json:"type"`
	Details string                   `json:"details"`
}

// CreatePaymentMethod saves a payout destination for fiat withdrawals.
func (h *WalletHandler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Type.Valid() {
		http.Error(w, "type must be bank_ng or mpesa", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Details) == "" {
		http.Error(w, "details are required", http.StatusBadRequest)
		return
	}

	method, err := h.gateway.CreatePaymentMethod(r.Context(), SessionTokenFromContext(r.Context()), req.Type, req.Details)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, method)
}

// CreateCryptoWalletRequest names the currency for the new wallet.
type CreateCryptoWalletRequest struct {
	Currency domain.Currency `json:"currency"`
}

// CreateCryptoWallet requests a new crypto wallet with a deposit address.
func (h *WalletHandler) CreateCryptoWallet(w http.ResponseWriter, r *http.Request) {
	var req CreateCryptoWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Currency.IsCrypto() {
		http.Error(w, "currency must be BTC, ETH or USDT", http.StatusBadRequest)
		return
	}

	account, err := h.gateway.CreateCryptoWallet(r.Context(), SessionTokenFromContext(r.Context()), req.Currency)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// rateView is one row of the rates panel. Price is null until the first
// successful refresh; the client renders "Loading..." for those.
type rateView struct {
	Pair  string           `json:"pair"`
	Price *decimal.Decimal `json:"price"`
}

// GetRates returns the cached snapshot for the six displayed pairs.
func (h *WalletHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	views := make([]rateView, 0, len(domain.DisplayedPairs))
	for _, pair := range domain.DisplayedPairs {
		view := rateView{Pair: pair.Key()}
		if price, ok := h.rates.Get(pair); ok {
			view.Price = &price
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, views)
}

// RefreshRates is the pull trigger from the hosting view. A refresh failure
// keeps the previous snapshot; the stale-but-consistent data is still
// served with 200.
func (h *WalletHandler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	err := h.rates.Refresh(r.Context(), SessionTokenFromContext(r.Context()))
	if errors.Is(err, domain.ErrSessionExpired) {
		h.writeUpstreamError(w, r, err)
		return
	}
	h.GetRates(w, r)
}

// SubmitOperation validates and dispatches a wallet operation against the
// account named in the URL.
func (h *WalletHandler) SubmitOperation(w http.ResponseWriter, r *http.Request) {
	var req domain.WalletOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.AccountID = chi.URLParam(r, "id")

	result, err := h.dispatcher.Submit(r.Context(), req)
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Logout clears the active session.
func (h *WalletHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// writeUpstreamError maps upstream and local failures onto HTTP statuses.
// A rejected credential clears the session so the client falls back to the
// auth screen.
func (h *WalletHandler) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrSessionExpired) {
		h.sessions.Clear(r.Context())
		http.Error(w, "session expired", http.StatusUnauthorized)
		return
	}
	writeFlowError(w, err)
}
