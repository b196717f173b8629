package subacquirer

import "github.com/shopspring/decimal"

// CreateRequest is the provider-agnostic input for outbound transaction
// creation. Bank is only meaningful for payouts, ExpiresIn only for
// deposits (seconds; 0 selects the provider default).
type CreateRequest struct {
	Amount    decimal.Decimal
	Reference string
	Metadata  map[string]any
	Bank      map[string]any
	ExpiresIn int
}

// Response is the normalized result of an outbound creation call. Expected
// failure modes (bad amount, provider error response, missing id field)
// come back as Success=false with Err set; the adapter boundary never
// raises for them.
type Response struct {
	Success    bool
	ExternalID string
	Status     string
	Data       map[string]any
	Err        string
}

// SuccessResponse builds a successful creation result.
func SuccessResponse(externalID, status string, data map[string]any) Response {
	return Response{Success: true, ExternalID: externalID, Status: status, Data: data}
}

// ErrorResponse builds a failed creation result.
func ErrorResponse(err string, data map[string]any) Response {
	return Response{Success: false, Err: err, Data: data}
}

// DepositNotification is the canonical shape of an inbound deposit webhook
// after adapter parsing. Status carries the provider's raw status string;
// canonical interpretation happens in app/models. Amount is always in the
// major currency unit.
type DepositNotification struct {
	ExternalID    string
	Status        string
	Amount        decimal.Decimal
	PayerName     *string
	PayerDocument *string
	PaymentDate   *string
	Metadata      map[string]any
}

// PayoutNotification is the canonical shape of an inbound payout webhook.
// ProviderTxID is the secondary transaction id some providers attach.
type PayoutNotification struct {
	ExternalID   string
	ProviderTxID *string
	Status       string
	Amount       decimal.Decimal
	CompletedAt  *string
	BankInfo     map[string]any
	Metadata     map[string]any
}
