package walletclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bpay/dashboard-service/internal/domain"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]interface{}
}

// newRecordingServer returns a server that captures the last request and
// replies with the given status and JSON body.
func newRecordingServer(t *testing.T, status int, response string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	recorded := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded.method = r.Method
		recorded.path = r.URL.Path
		recorded.auth = r.Header.Get("Authorization")
		recorded.body = map[string]interface{}{}
		_ = json.NewDecoder(r.Body).Decode(&recorded.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server, recorded
}

func TestClient_AttachesBearerToken(t *testing.T) {
	server, recorded := newRecordingServer(t, http.StatusOK, `[]`)
	client := NewClient(server.URL)

	if _, err := client.ListAccounts(context.Background(), "tok-123"); err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if recorded.auth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", recorded.auth)
	}
	if recorded.path != "/api/wallets/" {
		t.Fatalf("unexpected path: %s", recorded.path)
	}
}

func TestClient_UnauthenticatedCallsOmitHeader(t *testing.T) {
	server, recorded := newRecordingServer(t, http.StatusOK, `{"message":"code sent"}`)
	client := NewClient(server.URL)

	if err := client.SendLoginCode(context.Background(), "a@b.com", "hunter2"); err != nil {
		t.Fatalf("SendLoginCode: %v", err)
	}
	if recorded.auth != "" {
		t.Fatalf("expected no auth header, got %q", recorded.auth)
	}
	if recorded.body["email"] != "a@b.com" || recorded.body["password"] != "hunter2" {
		t.Fatalf("unexpected body: %v", recorded.body)
	}
}

func TestClient_UnauthorizedMapsToSessionExpired(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusUnauthorized, `{"detail":"token expired"}`)
	client := NewClient(server.URL)

	_, err := client.ListAccounts(context.Background(), "stale")
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestClient_UpstreamErrorMessagePreserved(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusBadRequest, `{"error":"Insufficient balance"}`)
	client := NewClient(server.URL)

	err := client.SendLoginCode(context.Background(), "a@b.com", "wrong")
	var upstreamErr *domain.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.Message != "Insufficient balance" {
		t.Fatalf("expected verbatim message, got %q", upstreamErr.Message)
	}
	if upstreamErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", upstreamErr.StatusCode)
	}
}

func TestClient_TransportFailureWrapsNetworkError(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusOK, `[]`)
	client := NewClient(server.URL)
	server.Close()

	_, err := client.ListAccounts(context.Background(), "tok")
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestClient_VerifyLoginCodeReturnsAccessToken(t *testing.T) {
	server, recorded := newRecordingServer(t, http.StatusOK, `{"access":"access-tok","refresh":"refresh-tok"}`)
	client := NewClient(server.URL)

	token, err := client.VerifyLoginCode(context.Background(), "a@b.com", "123456")
	if err != nil {
		t.Fatalf("VerifyLoginCode: %v", err)
	}
	if token != "access-tok" {
		t.Fatalf("expected access token, got %q", token)
	}
	if recorded.path != "/api/auth/verify-login/" {
		t.Fatalf("unexpected path: %s", recorded.path)
	}
}

func TestClient_VerifyLoginCodeRejectsEmptyToken(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusOK, `{"message":"ok"}`)
	client := NewClient(server.URL)

	_, err := client.VerifyLoginCode(context.Background(), "a@b.com", "123456")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestClient_SubmitOperationPath(t *testing.T) {
	server, recorded := newRecordingServer(t, http.StatusOK, `{"message":"Conversion successful","converted_amount":"0.00055"}`)
	client := NewClient(server.URL)

	op := domain.ValidatedOperation{
		Request: domain.WalletOperationRequest{
			AccountID:  "acct-9",
			Kind:       domain.OperationConvert,
			Amount:     decimal.RequireFromString("25000"),
			CurrencyTo: domain.BTC,
		},
	}
	result, err := client.SubmitOperation(context.Background(), "tok", op)
	if err != nil {
		t.Fatalf("SubmitOperation: %v", err)
	}

	if recorded.path != "/api/wallets/acct-9/convert/" {
		t.Fatalf("unexpected path: %s", recorded.path)
	}
	if recorded.method != http.MethodPost {
		t.Fatalf("unexpected method: %s", recorded.method)
	}
	if recorded.body["to_currency"] != "BTC" {
		t.Fatalf("unexpected target currency: %v", recorded.body["to_currency"])
	}
	if !result.ConvertedAmount.Equal(decimal.RequireFromString("0.00055")) {
		t.Fatalf("unexpected converted amount: %s", result.ConvertedAmount)
	}
}

func TestClient_CreatePaymentMethod(t *testing.T) {
	server, recorded := newRecordingServer(t, http.StatusCreated,
		`{"id":"7","type":"bank_ng","name":"GTBank - 1234","details":"0123451234 (GTBank)","is_active":true}`)
	client := NewClient(server.URL)

	method, err := client.CreatePaymentMethod(context.Background(), "tok", domain.PaymentMethodBankNG, "0123451234 (GTBank)")
	if err != nil {
		t.Fatalf("CreatePaymentMethod: %v", err)
	}

	if recorded.path != "/api/payment-methods/" || recorded.method != http.MethodPost {
		t.Fatalf("unexpected request: %s %s", recorded.method, recorded.path)
	}
	if recorded.body["type"] != "bank_ng" || recorded.body["details"] != "0123451234 (GTBank)" {
		t.Fatalf("unexpected body: %v", recorded.body)
	}
	if method.Name != "GTBank - 1234" || !method.IsActive {
		t.Fatalf("unexpected payment method: %+v", method)
	}
}

func TestClient_GetRatesDecodesDecimals(t *testing.T) {
	server, _ := newRecordingServer(t, http.StatusOK, `{"BTC_NGN":"45000000.50","ETH_KES":"420000"}`)
	client := NewClient(server.URL)

	rates, err := client.GetRates(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetRates: %v", err)
	}
	if !rates["BTC_NGN"].Equal(decimal.RequireFromString("45000000.50")) {
		t.Fatalf("unexpected BTC_NGN rate: %s", rates["BTC_NGN"])
	}
}
