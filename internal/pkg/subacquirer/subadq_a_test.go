package subacquirer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubadqA(baseURL string) *SubadqAAdapter {
	return NewSubadqA(baseURL, "merchant_123", "key", "secret", 5*time.Second)
}

func TestSubadqACreateDeposit_Success(t *testing.T) {
	var gotBody map[string]any
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.Equal(t, "/pix/create", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transaction_id":"PIX123456789","status":"PENDING"}`))
	}))
	defer srv.Close()

	adapter := newTestSubadqA(srv.URL)
	resp := adapter.CreateDeposit(context.Background(), CreateRequest{
		Amount:    decimal.RequireFromString("125.50"),
		Reference: "order-123",
	})

	require.True(t, resp.Success, "expected success, got error: %s", resp.Err)
	assert.Equal(t, "PIX123456789", resp.ExternalID)
	assert.Equal(t, "PENDING", resp.Status)

	// Amount travels as integer centavos.
	assert.Equal(t, float64(12550), gotBody["amount"])
	assert.Equal(t, "merchant_123", gotBody["merchant_id"])
	assert.Equal(t, "BRL", gotBody["currency"])
	assert.Equal(t, "order-123", gotBody["order_id"])
	assert.Equal(t, float64(3600), gotBody["expires_in"])

	assert.Equal(t, "key", gotHeaders.Get("X-API-Key"))
	assert.Equal(t, "secret", gotHeaders.Get("X-API-Secret"))
}

func TestSubadqACreateDeposit_ExpiryFromMetadata(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"transaction_id":"T1"}`))
	}))
	defer srv.Close()

	adapter := newTestSubadqA(srv.URL)

	// metadata expiry honored when the request carries none
	resp := adapter.CreateDeposit(context.Background(), CreateRequest{
		Amount:   decimal.NewFromInt(10),
		Metadata: map[string]any{"expires_in": 900.0},
	})
	require.True(t, resp.Success)
	assert.Equal(t, float64(900), gotBody["expires_in"])

	// an explicit request value wins over metadata
	resp = adapter.CreateDeposit(context.Background(), CreateRequest{
		Amount:    decimal.NewFromInt(10),
		Metadata:  map[string]any{"expires_in": 900.0},
		ExpiresIn: 1800,
	})
	require.True(t, resp.Success)
	assert.Equal(t, float64(1800), gotBody["expires_in"])
}

func TestSubadqACreateDeposit_ExternalIDPriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"transaction_id wins", `{"transaction_id":"T1","pix_id":"P1","id":"I1"}`, "T1"},
		{"pix_id next", `{"pix_id":"P1","id":"I1"}`, "P1"},
		{"id last", `{"id":"I1"}`, "I1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp := newTestSubadqA(srv.URL).CreateDeposit(context.Background(), CreateRequest{Amount: decimal.NewFromInt(10)})
			require.True(t, resp.Success)
			assert.Equal(t, tt.want, resp.ExternalID)
		})
	}
}

func TestSubadqACreateDeposit_MissingExternalID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"PENDING"}`))
	}))
	defer srv.Close()

	resp := newTestSubadqA(srv.URL).CreateDeposit(context.Background(), CreateRequest{Amount: decimal.NewFromInt(10)})
	require.False(t, resp.Success)
	assert.Contains(t, resp.Err, "No external ID")
}

func TestSubadqACreateDeposit_RejectsNonPositiveAmountWithoutCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	adapter := newTestSubadqA(srv.URL)
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		resp := adapter.CreateDeposit(context.Background(), CreateRequest{Amount: amount})
		require.False(t, resp.Success)
		assert.Contains(t, resp.Err, "greater than 0")
	}
	assert.False(t, called, "no network call may be attempted for invalid amounts")
}

func TestSubadqACreateDeposit_ProviderErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"merchant suspended"}`))
	}))
	defer srv.Close()

	resp := newTestSubadqA(srv.URL).CreateDeposit(context.Background(), CreateRequest{Amount: decimal.NewFromInt(10)})
	require.False(t, resp.Success)
	assert.Equal(t, "merchant suspended", resp.Err)
}

func TestSubadqACreateDeposit_SynthesizedHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	resp := newTestSubadqA(srv.URL).CreateDeposit(context.Background(), CreateRequest{Amount: decimal.NewFromInt(10)})
	require.False(t, resp.Success)
	assert.Contains(t, resp.Err, "HTTP 502")
}

func TestSubadqACreateDeposit_TransportFaultBecomesError(t *testing.T) {
	// Point at a closed server so the dial fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	resp := newTestSubadqA(srv.URL).CreateDeposit(context.Background(), CreateRequest{Amount: decimal.NewFromInt(10)})
	require.False(t, resp.Success)
	assert.NotEmpty(t, resp.Err)
}

func TestSubadqACreateDeposit_NoAuthHeadersWhenUnconfigured(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		_, _ = w.Write([]byte(`{"id":"X1"}`))
	}))
	defer srv.Close()

	adapter := NewSubadqA(srv.URL, "m", "", "", time.Second)
	resp := adapter.CreateDeposit(context.Background(), CreateRequest{Amount: decimal.NewFromInt(1)})
	require.True(t, resp.Success)
	assert.Empty(t, gotHeaders.Get("X-API-Key"))
	assert.Empty(t, gotHeaders.Get("X-API-Secret"))
}

func TestSubadqACreatePayout_Success(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.Equal(t, "/withdraw/create", r.URL.Path)
		_, _ = w.Write([]byte(`{"withdraw_id":"WD777","status":"PROCESSING"}`))
	}))
	defer srv.Close()

	resp := newTestSubadqA(srv.URL).CreatePayout(context.Background(), CreateRequest{
		Amount: decimal.RequireFromString("300.00"),
		Bank:   map[string]any{"bank": "Nubank", "agency": "0001"},
	})

	require.True(t, resp.Success)
	assert.Equal(t, "WD777", resp.ExternalID)
	// Payout amounts stay in the major unit.
	assert.Equal(t, float64(300), gotBody["amount"])
	assert.Equal(t, "Nubank", gotBody["bank"].(map[string]any)["bank"])
}

func TestSubadqAParseDepositWebhook(t *testing.T) {
	adapter := newTestSubadqA("")

	payload := map[string]any{
		"event":  "pix_payment_confirmed",
		"pix_id": "PIX123456789",
		"status": "CONFIRMED",
		"amount": float64(12550),
		"payer":  map[string]any{"name": "João da Silva", "cpf_cnpj": "12345678900"},
	}

	dto := adapter.ParseDepositWebhook(payload)
	require.NotNil(t, dto)
	assert.Equal(t, "PIX123456789", dto.ExternalID)
	assert.Equal(t, "CONFIRMED", dto.Status)
	assert.True(t, dto.Amount.Equal(decimal.RequireFromString("125.5")), "got %s", dto.Amount)
	require.NotNil(t, dto.PayerName)
	assert.Equal(t, "João da Silva", *dto.PayerName)
	require.NotNil(t, dto.PayerDocument)
	assert.Equal(t, "12345678900", *dto.PayerDocument)
}

func TestSubadqAParseDepositWebhook_FlatPayerFallback(t *testing.T) {
	dto := newTestSubadqA("").ParseDepositWebhook(map[string]any{
		"event":      "pix_payment_confirmed",
		"pix_id":     "PIX1",
		"payer_name": "Maria",
		"payer_cpf":  "98765432100",
	})
	require.NotNil(t, dto)
	require.NotNil(t, dto.PayerName)
	assert.Equal(t, "Maria", *dto.PayerName)
	require.NotNil(t, dto.PayerDocument)
	assert.Equal(t, "98765432100", *dto.PayerDocument)
}

func TestSubadqAParseDepositWebhook_Declines(t *testing.T) {
	adapter := newTestSubadqA("")

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"wrong event", map[string]any{"event": "pix_created", "pix_id": "P1"}},
		{"missing event", map[string]any{"pix_id": "P1"}},
		{"missing id", map[string]any{"event": "pix_payment_confirmed"}},
		{"non-string id", map[string]any{"event": "pix_payment_confirmed", "pix_id": float64(42)}},
		{"negative amount", map[string]any{"event": "pix_payment_confirmed", "pix_id": "P1", "amount": float64(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, adapter.ParseDepositWebhook(tt.payload))
		})
	}
}

func TestSubadqAParseDepositWebhook_NonStringStatusCoerced(t *testing.T) {
	dto := newTestSubadqA("").ParseDepositWebhook(map[string]any{
		"event":  "pix_payment_confirmed",
		"pix_id": "PIX1",
		"status": float64(7),
	})
	require.NotNil(t, dto)
	assert.Equal(t, "PENDING", dto.Status)
}

func TestSubadqAParsePayoutWebhook(t *testing.T) {
	dto := newTestSubadqA("").ParsePayoutWebhook(map[string]any{
		"event":          "withdraw_completed",
		"withdraw_id":    "WD1",
		"transaction_id": "T99",
		"status":         "SUCCESS",
		"amount":         float64(30000),
		"completed_at":   "2024-06-01T12:00:00Z",
		"metadata":       map[string]any{"destination_bank": "Itaú"},
	})
	require.NotNil(t, dto)
	assert.Equal(t, "WD1", dto.ExternalID)
	require.NotNil(t, dto.ProviderTxID)
	assert.Equal(t, "T99", *dto.ProviderTxID)
	assert.True(t, dto.Amount.Equal(decimal.NewFromInt(300)))
	require.NotNil(t, dto.BankInfo)
	assert.Equal(t, "Itaú", dto.BankInfo["bank"])
}

func TestSubadqAMinorUnitRoundTrip(t *testing.T) {
	adapter := newTestSubadqA("")

	for _, raw := range []string{"0.01", "1.00", "125.50", "9999.99", "10.10"} {
		amount := decimal.RequireFromString(raw)
		cents := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

		dto := adapter.ParseDepositWebhook(map[string]any{
			"event":  "pix_payment_confirmed",
			"pix_id": "P1",
			"amount": float64(cents),
		})
		require.NotNil(t, dto)
		assert.True(t, dto.Amount.Equal(amount), "round trip of %s gave %s", raw, dto.Amount)
	}
}
