package subacquirer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/pagfox/pagfox/internal/pkg/env"
)

const NameSubadqB = "SubadqB"

// SubadqBAdapter talks to the SubadqB sub-acquirer. SubadqB takes
// major-unit decimal amounts under provider-specific field names and wraps
// webhooks in a `{type, data, signature}` envelope.
type SubadqBAdapter struct {
	BaseURL   string
	APIKey    string
	APISecret string

	HTTPClient *http.Client
}

func NewSubadqB(baseURL, apiKey, apiSecret string, timeout time.Duration) *SubadqBAdapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SubadqBAdapter{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		APISecret:  apiSecret,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func NewSubadqBFromEnv() *SubadqBAdapter {
	timeout, _ := time.ParseDuration(env.GetEnv("SUBADQ_B_TIMEOUT", "30s"))
	return NewSubadqB(
		env.GetEnv("SUBADQ_B_BASE_URL", "http://localhost:9002"),
		env.GetEnv("SUBADQ_B_API_KEY", ""),
		env.GetEnv("SUBADQ_B_API_SECRET", ""),
		timeout,
	)
}

func (b *SubadqBAdapter) Name() string {
	return NameSubadqB
}

func (b *SubadqBAdapter) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if b.APIKey != "" {
		h["X-API-Key"] = b.APIKey
	}
	if b.APISecret != "" {
		h["X-API-Secret"] = b.APISecret
	}
	return h
}

// CreateDeposit posts a deposit creation request. SubadqB calls the amount
// field "value" and takes it as a 2-decimal number.
func (b *SubadqBAdapter) CreateDeposit(ctx context.Context, req CreateRequest) Response {
	if !req.Amount.IsPositive() {
		log.Warnf("[SubadqB] createDeposit: invalid amount %s", req.Amount)
		return ErrorResponse("Amount must be greater than 0", map[string]any{"amount": req.Amount.String()})
	}

	body := map[string]any{
		"value": req.Amount.Round(2).InexactFloat64(),
	}
	if req.Reference != "" {
		body["reference"] = req.Reference
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	status, data, err := postJSON(ctx, b.HTTPClient, b.BaseURL+"/api/pix", b.headers(), body)
	if err != nil {
		log.Errorf("[SubadqB] createDeposit transport error: %v", err)
		return ErrorResponse(err.Error(), nil)
	}

	if !httpSuccess(status) {
		return ErrorResponse(providerError(data, fmt.Sprintf("HTTP %d: failed to create deposit", status)), data)
	}

	externalID, ok := firstString(data, "id", "pix_id")
	if !ok {
		log.Warnf("[SubadqB] createDeposit: no external ID in response")
		return ErrorResponse("No external ID returned from SubadqB", data)
	}
	return SuccessResponse(externalID, rawStatus(data, "status"), data)
}

// CreatePayout posts a payout creation request. Bank details travel under
// "bank_account" rather than "bank".
func (b *SubadqBAdapter) CreatePayout(ctx context.Context, req CreateRequest) Response {
	if !req.Amount.IsPositive() {
		log.Warnf("[SubadqB] createPayout: invalid amount %s", req.Amount)
		return ErrorResponse("Amount must be greater than 0", map[string]any{"amount": req.Amount.String()})
	}

	body := map[string]any{
		"amount": req.Amount.Round(2).InexactFloat64(),
	}
	if len(req.Bank) > 0 {
		body["bank_account"] = req.Bank
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	status, data, err := postJSON(ctx, b.HTTPClient, b.BaseURL+"/api/withdraw", b.headers(), body)
	if err != nil {
		log.Errorf("[SubadqB] createPayout transport error: %v", err)
		return ErrorResponse(err.Error(), nil)
	}

	if !httpSuccess(status) {
		return ErrorResponse(providerError(data, fmt.Sprintf("HTTP %d: failed to create payout", status)), data)
	}

	externalID, ok := firstString(data, "id", "withdraw_id")
	if !ok {
		log.Warnf("[SubadqB] createPayout: no external ID in response")
		return ErrorResponse("No external ID returned from SubadqB", data)
	}
	return SuccessResponse(externalID, rawStatus(data, "status"), data)
}

// ParseDepositWebhook accepts `pix.status_update` envelopes. Values under
// data are already in the major unit; the envelope signature is carried
// through in the notification metadata.
func (b *SubadqBAdapter) ParseDepositWebhook(payload map[string]any) *DepositNotification {
	if t, _ := stringValue(payload, "type"); t != "pix.status_update" {
		return nil
	}

	data, ok := mapValue(payload, "data")
	if !ok {
		log.Warnf("[SubadqB] parseDepositWebhook: missing data envelope")
		return nil
	}
	externalID, ok := stringValue(data, "id")
	if !ok {
		log.Warnf("[SubadqB] parseDepositWebhook: missing or invalid external ID")
		return nil
	}

	value := 0.0
	if v, ok := numberValue(data, "value"); ok {
		value = v
	}
	if value < 0 {
		log.Warnf("[SubadqB] parseDepositWebhook: negative amount %v", value)
		return nil
	}

	var payerName, payerDocument *string
	if payer, ok := mapValue(data, "payer"); ok {
		payerName = optString(payer, "name")
		payerDocument = optString(payer, "document")
	}

	return &DepositNotification{
		ExternalID:    externalID,
		Status:        rawStatus(data, "status"),
		Amount:        decimal.NewFromFloat(value),
		PayerName:     payerName,
		PayerDocument: payerDocument,
		PaymentDate:   optString(data, "confirmed_at"),
		Metadata:      signatureMetadata(payload),
	}
}

// ParsePayoutWebhook accepts `withdraw.status_update` envelopes.
func (b *SubadqBAdapter) ParsePayoutWebhook(payload map[string]any) *PayoutNotification {
	if t, _ := stringValue(payload, "type"); t != "withdraw.status_update" {
		return nil
	}

	data, ok := mapValue(payload, "data")
	if !ok {
		log.Warnf("[SubadqB] parsePayoutWebhook: missing data envelope")
		return nil
	}
	externalID, ok := stringValue(data, "id")
	if !ok {
		log.Warnf("[SubadqB] parsePayoutWebhook: missing or invalid external ID")
		return nil
	}

	value := 0.0
	if v, ok := numberValue(data, "amount"); ok {
		value = v
	}
	if value < 0 {
		log.Warnf("[SubadqB] parsePayoutWebhook: negative amount %v", value)
		return nil
	}

	var bankInfo map[string]any
	if bank, ok := mapValue(data, "bank_account"); ok {
		bankInfo = bank
	}

	return &PayoutNotification{
		ExternalID:  externalID,
		Status:      rawStatus(data, "status"),
		Amount:      decimal.NewFromFloat(value),
		CompletedAt: optString(data, "processed_at"),
		BankInfo:    bankInfo,
		Metadata:    signatureMetadata(payload),
	}
}

func signatureMetadata(payload map[string]any) map[string]any {
	if sig, ok := stringValue(payload, "signature"); ok {
		return map[string]any{"signature": sig}
	}
	return nil
}
