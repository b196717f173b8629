package subacquirer

import "context"

// Adapter translates between the platform's canonical contract and one
// sub-acquirer's wire format. Creation calls perform network I/O and honor
// ctx; webhook parsing is pure. Parse methods return nil (not an error)
// when the payload does not belong to them, which is how a single generic
// ingestion endpoint lets each adapter opt in or decline.
type Adapter interface {
	Name() string
	CreateDeposit(ctx context.Context, req CreateRequest) Response
	CreatePayout(ctx context.Context, req CreateRequest) Response
	ParseDepositWebhook(payload map[string]any) *DepositNotification
	ParsePayoutWebhook(payload map[string]any) *PayoutNotification
}
