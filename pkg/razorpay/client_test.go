package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rahulmenon/bazario-backend/pkg/config"
	"github.com/rahulmenon/bazario-backend/pkg/enums"
	pkgerrors "github.com/rahulmenon/bazario-backend/pkg/errors"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   baseURL,
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCreateOrderSuccess(t *testing.T) {
	var gotAuthUser, gotAuthPass string
	var gotBody createOrderRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(Order{
			ID:       "order_abc123",
			Amount:   gotBody.Amount,
			Currency: gotBody.Currency,
			Receipt:  gotBody.Receipt,
			Status:   "created",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	order, err := client.CreateOrder(context.Background(), "receipt-1", 3600, enums.CurrencyINR)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.ID != "order_abc123" || order.Status != "created" {
		t.Fatalf("unexpected order %+v", order)
	}
	if gotAuthUser != "rzp_test_key" || gotAuthPass != "rzp_test_secret" {
		t.Fatalf("basic auth not forwarded: %s/%s", gotAuthUser, gotAuthPass)
	}
	if gotBody.Amount != 3600 || gotBody.Currency != "INR" || gotBody.Receipt != "receipt-1" {
		t.Fatalf("unexpected payload %+v", gotBody)
	}
	if !gotBody.PaymentCapture {
		t.Fatal("payment capture should be requested")
	}
}

func TestCreateOrderMapsClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "BAD_REQUEST_ERROR", "description": "amount too small"},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.CreateOrder(context.Background(), "receipt-1", 1, enums.CurrencyINR)
	if !pkgerrors.HasCode(err, pkgerrors.CodeGatewayRejected) {
		t.Fatalf("expected gateway rejected, got %v", err)
	}
	if typed := pkgerrors.As(err); typed.Message() != "amount too small" {
		t.Fatalf("expected gateway description, got %q", typed.Message())
	}
}

func TestCreateOrderMapsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.CreateOrder(context.Background(), "receipt-1", 100, enums.CurrencyINR)
	if !pkgerrors.HasCode(err, pkgerrors.CodeGatewayDown) {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}
}

func TestCreateOrderTransportFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse all connections

	client := newTestClient(t, srv.URL)

	_, err := client.CreateOrder(context.Background(), "receipt-1", 100, enums.CurrencyINR)
	if !pkgerrors.HasCode(err, pkgerrors.CodeGatewayDown) {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}
	if !pkgerrors.MetadataFor(pkgerrors.CodeGatewayDown).Retryable {
		t.Fatal("gateway unavailable must be retryable")
	}
}

func TestCreateOrderValidatesInput(t *testing.T) {
	client := newTestClient(t, "http://localhost:0")

	if _, err := client.CreateOrder(context.Background(), "", 100, enums.CurrencyINR); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty receipt: expected validation error, got %v", err)
	}
	if _, err := client.CreateOrder(context.Background(), "receipt-1", 0, enums.CurrencyINR); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("zero amount: expected validation error, got %v", err)
	}
	if _, err := client.CreateOrder(context.Background(), "receipt-1", 100, enums.Currency("XYZ")); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("bad currency: expected validation error, got %v", err)
	}
}

func TestVerifySignatureRoundtrip(t *testing.T) {
	client := newTestClient(t, "http://localhost:0")

	sig := Sign("rzp_test_secret", "order_abc", "pay_def")
	if !client.VerifySignature("order_abc", "pay_def", sig) {
		t.Fatal("valid signature rejected")
	}

	// Any single flipped nibble must fail verification.
	tampered := []byte(sig)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	if client.VerifySignature("order_abc", "pay_def", string(tampered)) {
		t.Fatal("tampered signature accepted")
	}

	if client.VerifySignature("order_other", "pay_def", sig) {
		t.Fatal("signature accepted for a different order")
	}
	if client.VerifySignature("order_abc", "pay_def", "not-hex") {
		t.Fatal("malformed hex accepted")
	}
	if client.VerifySignature("", "pay_def", sig) {
		t.Fatal("empty order reference accepted")
	}
}
