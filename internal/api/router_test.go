package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bpay/dashboard-service/internal/app"
	"github.com/bpay/dashboard-service/internal/config"
	"github.com/bpay/dashboard-service/internal/domain"
)

type identityStub struct {
	loginToken string
	codeErr    error
	verifyErr  error
}

func (s *identityStub) SendLoginCode(ctx context.Context, email, password string) error {
	return s.codeErr
}

func (s *identityStub) VerifyLoginCode(ctx context.Context, email, code string) (string, error) {
	if s.verifyErr != nil {
		return "", s.verifyErr
	}
	return s.loginToken, nil
}

func (s *identityStub) Register(ctx context.Context, email, password, fullName string) error {
	return s.codeErr
}

func (s *identityStub) VerifyRegistration(ctx context.Context, email, code string) error {
	return s.verifyErr
}

func (s *identityStub) ForgotPassword(ctx context.Context, email string) error {
	return s.codeErr
}

func (s *identityStub) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return s.verifyErr
}

type gatewayStub struct {
	accounts []domain.Account
	listErr  error
}

func (s *gatewayStub) ListAccounts(ctx context.Context, token string) ([]domain.Account, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.accounts, nil
}

func (s *gatewayStub) ListTransactions(ctx context.Context, token string) ([]domain.Transaction, error) {
	return nil, nil
}

func (s *gatewayStub) ListPaymentMethods(ctx context.Context, token string) ([]domain.PaymentMethod, error) {
	return nil, nil
}

func (s *gatewayStub) CreatePaymentMethod(ctx context.Context, token string, methodType domain.PaymentMethodType, details string) (*domain.PaymentMethod, error) {
	return &domain.PaymentMethod{ID: "pm-new", Type: methodType, Details: details, IsActive: true}, nil
}

func (s *gatewayStub) CreateCryptoWallet(ctx context.Context, token string, currency domain.Currency) (*domain.Account, error) {
	return &domain.Account{ID: "acct-new", Currency: currency}, nil
}

type rateSourceStub struct {
	rates map[string]decimal.Decimal
}

func (s *rateSourceStub) UpdateRates(ctx context.Context, token string) error { return nil }

func (s *rateSourceStub) GetRates(ctx context.Context, token string) (map[string]decimal.Decimal, error) {
	return s.rates, nil
}

type testEnv struct {
	server   *httptest.Server
	identity *identityStub
	gateway  *gatewayStub
	sessions *app.SessionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	identity := &identityStub{loginToken: "tok"}
	gateway := &gatewayStub{}

	sessions := app.NewSessionStore(nil, logger)
	flows := app.NewFlowManager(identity, sessions, logger)
	rates := app.NewRateCache(&rateSourceStub{}, logger)
	dispatcher := app.NewDispatcher(&dispatcherClientStub{}, sessions, nil, logger)

	cfg := &config.Config{AllowedOrigins: "http://localhost:3000"}
	server := httptest.NewServer(NewRouter(cfg, flows, gateway, dispatcher, rates, sessions))
	t.Cleanup(server.Close)

	return &testEnv{server: server, identity: identity, gateway: gateway, sessions: sessions}
}

// dispatcherClientStub satisfies the dispatcher's wallet API with empty data.
type dispatcherClientStub struct{}

func (dispatcherClientStub) ListAccounts(ctx context.Context, token string) ([]domain.Account, error) {
	return nil, nil
}

func (dispatcherClientStub) ListPaymentMethods(ctx context.Context, token string) ([]domain.PaymentMethod, error) {
	return nil, nil
}

func (dispatcherClientStub) SubmitOperation(ctx context.Context, token string, op domain.ValidatedOperation) (*domain.OperationResult, error) {
	return &domain.OperationResult{}, nil
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	decoded := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestRouter_CreateFlowStartsAtLoginCredentials(t *testing.T) {
	env := newTestEnv(t)

	resp, state := env.request(t, http.MethodPost, "/auth/flows", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if state["mode"] != "login" || state["step"] != "credentials" {
		t.Fatalf("unexpected initial state: %v", state)
	}
	if state["id"] == "" {
		t.Fatal("expected a flow id")
	}
}

func TestRouter_LoginFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	_, state := env.request(t, http.MethodPost, "/auth/flows", nil)
	flowID := state["id"].(string)

	resp, state := env.request(t, http.MethodPost, "/auth/flows/"+flowID+"/credentials",
		map[string]string{"email": "a@b.com", "password": "hunter2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if state["step"] != "code" {
		t.Fatalf("expected code step, got %v", state["step"])
	}

	for i := 0; i < domain.CodeLength; i++ {
		resp, _ := env.request(t, http.MethodPut,
			fmt.Sprintf("/auth/flows/%s/digits/%d", flowID, i),
			map[string]string{"value": "1"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("digit %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	resp, state = env.request(t, http.MethodPost, "/auth/flows/"+flowID+"/code", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if state["session_created"] != true {
		t.Fatalf("expected session_created, got %v", state)
	}

	if token, ok := env.sessions.Token(); !ok || token != "tok" {
		t.Fatalf("expected stored session token, got %q (ok=%v)", token, ok)
	}

	// Terminal resolution removes the flow from the registry.
	resp, _ = env.request(t, http.MethodGet, "/auth/flows/"+flowID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for resolved flow, got %d", resp.StatusCode)
	}
}

func TestRouter_InvalidDigitRejected(t *testing.T) {
	env := newTestEnv(t)

	_, state := env.request(t, http.MethodPost, "/auth/flows", nil)
	flowID := state["id"].(string)
	env.request(t, http.MethodPost, "/auth/flows/"+flowID+"/credentials",
		map[string]string{"email": "a@b.com", "password": "x"})

	resp, _ := env.request(t, http.MethodPut, "/auth/flows/"+flowID+"/digits/0",
		map[string]string{"value": "ab"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRouter_ResendDuringCooldownConflicts(t *testing.T) {
	env := newTestEnv(t)

	_, state := env.request(t, http.MethodPost, "/auth/flows", nil)
	flowID := state["id"].(string)
	env.request(t, http.MethodPost, "/auth/flows/"+flowID+"/credentials",
		map[string]string{"email": "a@b.com", "password": "x"})

	resp, _ := env.request(t, http.MethodPost, "/auth/flows/"+flowID+"/resend", nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}

func TestRouter_UnknownFlowIs404(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodGet, "/auth/flows/no-such-flow", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRouter_GuardedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodGet, "/wallets", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}

	env.sessions.Set(context.Background(), "tok")
	env.gateway.accounts = []domain.Account{{ID: "acct-1", Currency: domain.NGN}}

	resp, _ = env.request(t, http.MethodGet, "/wallets", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", resp.StatusCode)
	}
}

func TestRouter_UpstreamRejectionClearsSession(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.Set(context.Background(), "stale")
	env.gateway.listErr = domain.ErrSessionExpired

	resp, _ := env.request(t, http.MethodGet, "/wallets", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if _, ok := env.sessions.Token(); ok {
		t.Fatal("expected session to be cleared after upstream 401")
	}
}

func TestRouter_CreatePaymentMethod(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.Set(context.Background(), "tok")

	resp, method := env.request(t, http.MethodPost, "/payment-methods",
		map[string]string{"type": "mpesa", "details": "254700005678"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if method["type"] != "mpesa" || method["details"] != "254700005678" {
		t.Fatalf("unexpected payment method: %v", method)
	}

	resp, _ = env.request(t, http.MethodPost, "/payment-methods",
		map[string]string{"type": "paypal", "details": "x"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown rail, got %d", resp.StatusCode)
	}

	resp, _ = env.request(t, http.MethodPost, "/payment-methods",
		map[string]string{"type": "bank_ng", "details": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty details, got %d", resp.StatusCode)
	}
}

func TestRouter_RatesNullUntilPopulated(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.Set(context.Background(), "tok")

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/rates", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var views []struct {
		Pair  string           `json:"pair"`
		Price *decimal.Decimal `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode rates: %v", err)
	}
	if len(views) != len(domain.DisplayedPairs) {
		t.Fatalf("expected %d pairs, got %d", len(domain.DisplayedPairs), len(views))
	}
	for _, view := range views {
		if view.Price != nil {
			t.Fatalf("expected null price before first refresh, got %s", view.Price)
		}
	}
}

func TestRouter_LogoutClearsSession(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.Set(context.Background(), "tok")

	resp, _ := env.request(t, http.MethodPost, "/logout", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if _, ok := env.sessions.Token(); ok {
		t.Fatal("expected no session after logout")
	}
}
