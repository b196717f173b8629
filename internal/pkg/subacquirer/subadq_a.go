package subacquirer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pagfox/pagfox/internal/pkg/env"
)

const (
	NameSubadqA = "SubadqA"

	subadqADefaultExpiry = 3600
)

// SubadqAAdapter talks to the SubadqA sub-acquirer. SubadqA bills in
// integer minor units (centavos) for deposits and expects flat payloads
// with an `event` discriminator on webhooks.
type SubadqAAdapter struct {
	BaseURL    string
	MerchantID string
	APIKey     string
	APISecret  string

	HTTPClient *http.Client
}

// NewSubadqA creates a SubadqA adapter with the given credentials. Key and
// secret are independently optional.
func NewSubadqA(baseURL, merchantID, apiKey, apiSecret string, timeout time.Duration) *SubadqAAdapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if merchantID == "" {
		merchantID = "default_merchant"
	}
	return &SubadqAAdapter{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		MerchantID: merchantID,
		APIKey:     apiKey,
		APISecret:  apiSecret,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func NewSubadqAFromEnv() *SubadqAAdapter {
	timeout, _ := time.ParseDuration(env.GetEnv("SUBADQ_A_TIMEOUT", "30s"))
	return NewSubadqA(
		env.GetEnv("SUBADQ_A_BASE_URL", "http://localhost:9001"),
		env.GetEnv("SUBADQ_A_MERCHANT_ID", "default_merchant"),
		env.GetEnv("SUBADQ_A_API_KEY", ""),
		env.GetEnv("SUBADQ_A_API_SECRET", ""),
		timeout,
	)
}

func (a *SubadqAAdapter) Name() string {
	return NameSubadqA
}

func (a *SubadqAAdapter) headers() map[string]string {
	h := map[string]string{}
	if a.APIKey != "" {
		h["X-API-Key"] = a.APIKey
	}
	if a.APISecret != "" {
		h["X-API-Secret"] = a.APISecret
	}
	return h
}

// CreateDeposit posts a deposit creation request. The amount is converted
// to integer centavos, rounding half up to the nearest cent.
func (a *SubadqAAdapter) CreateDeposit(ctx context.Context, req CreateRequest) Response {
	if !req.Amount.IsPositive() {
		log.Warnf("[SubadqA] createDeposit: invalid amount %s", req.Amount)
		return ErrorResponse("Amount must be greater than 0", map[string]any{"amount": req.Amount.String()})
	}

	cents := req.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if cents <= 0 {
		return ErrorResponse("Amount must be greater than 0", map[string]any{"amount": req.Amount.String()})
	}

	orderID := req.Reference
	if orderID == "" {
		orderID = "order_" + uuid.New().String()
	}

	body := map[string]any{
		"merchant_id": a.MerchantID,
		"amount":      cents,
		"currency":    "BRL",
		"order_id":    orderID,
	}
	if payer, ok := mapValue(req.Metadata, "payer"); ok {
		body["payer"] = payer
	}
	expiresIn := req.ExpiresIn
	if expiresIn <= 0 {
		if v, ok := numberValue(req.Metadata, "expires_in"); ok && v > 0 {
			expiresIn = int(v)
		}
	}
	if expiresIn <= 0 {
		expiresIn = subadqADefaultExpiry
	}
	body["expires_in"] = expiresIn

	status, data, err := postJSON(ctx, a.HTTPClient, a.BaseURL+"/pix/create", a.headers(), body)
	if err != nil {
		log.Errorf("[SubadqA] createDeposit transport error: %v", err)
		return ErrorResponse(err.Error(), nil)
	}

	if !httpSuccess(status) {
		return ErrorResponse(providerError(data, fmt.Sprintf("HTTP %d: failed to create deposit", status)), data)
	}

	externalID, ok := firstString(data, "transaction_id", "pix_id", "id")
	if !ok {
		log.Warnf("[SubadqA] createDeposit: no external ID in response")
		return ErrorResponse("No external ID returned from SubadqA", data)
	}
	return SuccessResponse(externalID, rawStatus(data, "status"), data)
}

// CreatePayout posts a payout creation request. Unlike deposits, SubadqA
// takes payout amounts as a 2-decimal major-unit value.
func (a *SubadqAAdapter) CreatePayout(ctx context.Context, req CreateRequest) Response {
	if !req.Amount.IsPositive() {
		log.Warnf("[SubadqA] createPayout: invalid amount %s", req.Amount)
		return ErrorResponse("Amount must be greater than 0", map[string]any{"amount": req.Amount.String()})
	}

	body := map[string]any{
		"amount": req.Amount.Round(2).InexactFloat64(),
	}
	if len(req.Bank) > 0 {
		body["bank"] = req.Bank
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	status, data, err := postJSON(ctx, a.HTTPClient, a.BaseURL+"/withdraw/create", a.headers(), body)
	if err != nil {
		log.Errorf("[SubadqA] createPayout transport error: %v", err)
		return ErrorResponse(err.Error(), nil)
	}

	if !httpSuccess(status) {
		return ErrorResponse(providerError(data, fmt.Sprintf("HTTP %d: failed to create payout", status)), data)
	}

	externalID, ok := firstString(data, "withdraw_id", "id")
	if !ok {
		log.Warnf("[SubadqA] createPayout: no external ID in response")
		return ErrorResponse("No external ID returned from SubadqA", data)
	}
	return SuccessResponse(externalID, rawStatus(data, "status"), data)
}

// ParseDepositWebhook accepts `pix_payment_confirmed` events. Amounts
// arrive as integer centavos and are converted back to the major unit.
func (a *SubadqAAdapter) ParseDepositWebhook(payload map[string]any) *DepositNotification {
	if event, _ := stringValue(payload, "event"); event != "pix_payment_confirmed" {
		return nil
	}

	externalID, ok := firstString(payload, "pix_id", "transaction_id")
	if !ok {
		log.Warnf("[SubadqA] parseDepositWebhook: missing or invalid external ID")
		return nil
	}

	cents := 0.0
	if v, ok := numberValue(payload, "amount"); ok {
		cents = v
	}
	if cents < 0 {
		log.Warnf("[SubadqA] parseDepositWebhook: negative amount %v", cents)
		return nil
	}
	amount := decimal.NewFromFloat(cents).Div(decimal.NewFromInt(100))

	payerName := optString(payload, "payer_name")
	payerDocument := optString(payload, "payer_cpf")
	if payer, ok := mapValue(payload, "payer"); ok {
		payerName = optString(payer, "name")
		payerDocument = optString(payer, "cpf_cnpj")
	}

	var metadata map[string]any
	if m, ok := mapValue(payload, "metadata"); ok {
		metadata = m
	}

	return &DepositNotification{
		ExternalID:    externalID,
		Status:        rawStatus(payload, "status"),
		Amount:        amount,
		PayerName:     payerName,
		PayerDocument: payerDocument,
		PaymentDate:   optString(payload, "payment_date"),
		Metadata:      metadata,
	}
}

// ParsePayoutWebhook accepts `withdraw_completed` events.
func (a *SubadqAAdapter) ParsePayoutWebhook(payload map[string]any) *PayoutNotification {
	if event, _ := stringValue(payload, "event"); event != "withdraw_completed" {
		return nil
	}

	externalID, ok := stringValue(payload, "withdraw_id")
	if !ok {
		log.Warnf("[SubadqA] parsePayoutWebhook: missing or invalid external ID")
		return nil
	}

	cents := 0.0
	if v, ok := numberValue(payload, "amount"); ok {
		cents = v
	}
	if cents < 0 {
		log.Warnf("[SubadqA] parsePayoutWebhook: negative amount %v", cents)
		return nil
	}
	amount := decimal.NewFromFloat(cents).Div(decimal.NewFromInt(100))

	var metadata map[string]any
	var bankInfo map[string]any
	if m, ok := mapValue(payload, "metadata"); ok {
		metadata = m
		if bank, ok := stringValue(m, "destination_bank"); ok {
			bankInfo = map[string]any{"bank": bank}
		}
	}

	return &PayoutNotification{
		ExternalID:   externalID,
		ProviderTxID: optString(payload, "transaction_id"),
		Status:       rawStatus(payload, "status"),
		Amount:       amount,
		CompletedAt:  optString(payload, "completed_at"),
		BankInfo:     bankInfo,
		Metadata:     metadata,
	}
}
