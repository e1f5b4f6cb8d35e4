/**
 * @description
 * This package provides a client for the remote BPAY wallet-and-identity
 * service. It encapsulates the JSON/HTTP request-response boundary the
 * dashboard core calls through: code dispatch and verification, account and
 * transaction listing, exchange rates, and the four wallet operations.
 *
 * Key features:
 * - Attaches the caller's bearer token to every authenticated call.
 * - Maps HTTP 401 to domain.ErrSessionExpired so the session store can
 *   react uniformly.
 * - Surfaces the service's own error message verbatim when one is present.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, time: Standard Go libraries.
 * - github.com/shopspring/decimal: Rate and amount precision.
 * - The internal domain package for the shared models and error taxonomy.
 */
package walletclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bpay/dashboard-service/internal/domain"
)

// Client is a client for the BPAY wallet-and-identity service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new wallet service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// messageResponse is the upstream's generic acknowledgement payload.
type messageResponse struct {
	Message string `json:"message"`
}

// SendLoginCode verifies the password upstream and dispatches a login code
// to the user's email.
func (c *Client) SendLoginCode(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/login-code/", "", body, nil)
}

// VerifyLoginCode exchanges a valid login code for an access token.
func (c *Client) VerifyLoginCode(ctx context.Context, email, code string) (string, error) {
	body := map[string]string{"email": email, "code": code}
	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify-login/", "", body, &resp); err != nil {
		return "", err
	}
	if resp.Access == "" {
		return "", &domain.AuthError{Message: "no access token in response"}
	}
	return resp.Access, nil
}

// Register stores the pending registration upstream and dispatches a
// registration code. The account is only created once the code is verified.
func (c *Client) Register(ctx context.Context, email, password, fullName string) error {
	body := map[string]string{"email": email, "password": password, "full_name": fullName}
	return c.do(ctx, http.MethodPost, "/api/auth/register/", "", body, nil)
}

// VerifyRegistration confirms the registration code and creates the account
// together with its default NGN wallet.
func (c *Client) VerifyRegistration(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return c.do(ctx, http.MethodPost, "/api/auth/verify-registration/", "", body, nil)
}

// ForgotPassword dispatches a password reset code.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password/", "", body, nil)
}

// ResetPassword confirms the reset code and replaces the user's password.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	body := map[string]string{"email": email, "code": code, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password/", "", body, nil)
}

// ListAccounts fetches all of the user's wallets.
func (c *Client) ListAccounts(ctx context.Context, token string) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := c.do(ctx, http.MethodGet, "/api/wallets/", token, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateCryptoWallet requests a new crypto wallet with a business deposit
// address. Fiat wallets are created implicitly at registration.
func (c *Client) CreateCryptoWallet(ctx context.Context, token string, currency domain.Currency) (*domain.Account, error) {
	body := map[string]string{"currency": string(currency)}
	var account domain.Account
	if err := c.do(ctx, http.MethodPost, "/api/wallets/crypto/create/", token, body, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListTransactions fetches the user's recent transactions, most recent
// first. The dashboard consumes the order as delivered.
func (c *Client) ListTransactions(ctx context.Context, token string) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions/", token, nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// UpdateRates asks the upstream to recalculate its exchange rates.
func (c *Client) UpdateRates(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/rates/update/", token, struct{}{}, nil)
}

// GetRates fetches the current rate snapshot keyed "{CRYPTO}_{FIAT}".
func (c *Client) GetRates(ctx context.Context, token string) (map[string]decimal.Decimal, error) {
	var rates map[string]decimal.Decimal
	if err := c.do(ctx, http.MethodGet, "/api/rates/", token, nil, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

// ListPaymentMethods fetches the user's saved payout destinations.
func (c *Client) ListPaymentMethods(ctx context.Context, token string) ([]domain.PaymentMethod, error) {
	var methods []domain.PaymentMethod
	if err := c.do(ctx, http.MethodGet, "/api/payment-methods/", token, nil, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

// CreatePaymentMethod saves a new payout destination. The upstream derives
// the display name from the details it is given.
func (c *Client) CreatePaymentMethod(ctx context.Context, token string, methodType domain.PaymentMethodType, details string) (*domain.PaymentMethod, error) {
	body := map[string]string{"type": string(methodType), "details": details}
	var method domain.PaymentMethod
	if err := c.do(ctx, http.MethodPost, "/api/payment-methods/", token, body, &method); err != nil {
		return nil, err
	}
	return &method, nil
}

// operationBody is the wire body for the four wallet operations. Fields not
// relevant to an operation are omitted.
type operationBody struct {
	Amount          decimal.Decimal `json:"amount"`
	CurrencyTo      domain.Currency `json:"to_currency,omitempty"`
	PaymentMethodID string          `json:"payment_method_id,omitempty"`
	TxHash          string          `json:"tx_hash,omitempty"`
}

// SubmitOperation posts a validated wallet operation to its
// operation-specific endpoint under the account's id.
func (c *Client) SubmitOperation(ctx context.Context, token string, op domain.ValidatedOperation) (*domain.OperationResult, error) {
	req := op.Request
	path := fmt.Sprintf("/api/wallets/%s/%s/", req.AccountID, req.Kind)
	body := operationBody{
		Amount:          req.Amount,
		CurrencyTo:      req.CurrencyTo,
		PaymentMethodID: req.PaymentMethodID,
		TxHash:          req.TxHash,
	}

	var resp struct {
		Message         string          `json:"message"`
		ConvertedAmount decimal.Decimal `json:"converted_amount"`
	}
	if err := c.do(ctx, http.MethodPost, path, token, body, &resp); err != nil {
		return nil, err
	}
	return &domain.OperationResult{
		Message:         resp.Message,
		ConvertedAmount: resp.ConvertedAmount,
	}, nil
}

// do is a helper to make HTTP requests to the wallet service.
func (c *Client) do(ctx context.Context, method, path, token string, body, target interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &payload)
		return &domain.UpstreamError{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	if target != nil {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}

	return nil
}
