package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pagfox/pagfox/app/models"
	"github.com/pagfox/pagfox/app/repository"
	"github.com/pagfox/pagfox/internal/pkg/subacquirer"
)

// fakeRepo is an in-memory PaymentRepository. Transactions are simulated
// by running fn against the same store; the dedup and locking contracts
// hold because tests exercise the repo from a single goroutine.
type fakeRepo struct {
	mu       sync.Mutex
	webhooks map[uint]*models.WebhookLog
	deposits map[uint]*models.Deposit
	payouts  map[uint]*models.Payout
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		webhooks: make(map[uint]*models.WebhookLog),
		deposits: make(map[uint]*models.Deposit),
		payouts:  make(map[uint]*models.Payout),
	}
}

// ids auto-increment per table, matching the real database schema.
func (r *fakeRepo) webhookID() uint { return uint(len(r.webhooks)) + 1 }
func (r *fakeRepo) depositID() uint { return uint(len(r.deposits)) + 1 }
func (r *fakeRepo) payoutID() uint  { return uint(len(r.payouts)) + 1 }

func (r *fakeRepo) Transaction(fn func(repository.PaymentRepository) error) error {
	return fn(r)
}

func (r *fakeRepo) FindOrCreateWebhookLog(entry *models.WebhookLog) (bool, *models.WebhookLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.webhooks {
		if existing.Subacquirer == entry.Subacquirer && existing.ExternalID == entry.ExternalID && existing.Kind == entry.Kind {
			return false, existing, nil
		}
	}
	entry.ID = r.webhookID()
	r.webhooks[entry.ID] = entry
	return true, entry, nil
}

func (r *fakeRepo) GetWebhookLog(id uint) (*models.WebhookLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.webhooks[id]; ok {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetWebhookLogForUpdate(id uint) (*models.WebhookLog, error) {
	return r.GetWebhookLog(id)
}

func (r *fakeRepo) MarkWebhookProcessed(id uint) error {
	w, err := r.GetWebhookLog(id)
	if err != nil {
		return err
	}
	now := time.Now()
	w.Status = models.WebhookStatusProcessed
	w.ProcessedAt = &now
	w.ErrorMessage = ""
	return nil
}

func (r *fakeRepo) MarkWebhookFailed(id uint, errorMessage string) error {
	w, err := r.GetWebhookLog(id)
	if err != nil {
		return err
	}
	w.Status = models.WebhookStatusFailed
	w.ErrorMessage = errorMessage
	w.Attempts++
	return nil
}

func (r *fakeRepo) CreateDeposit(deposit *models.Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deposit.ID = r.depositID()
	r.deposits[deposit.ID] = deposit
	return nil
}

func (r *fakeRepo) GetDepositByID(id uint) (*models.Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.deposits[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetDepositByExternalIDForUpdate(provider, externalID string) (*models.Deposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deposits {
		if d.Subacquirer == provider && d.ExternalID != nil && *d.ExternalID == externalID {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) UpdateDeposit(deposit *models.Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deposits[deposit.ID] = deposit
	return nil
}

func (r *fakeRepo) CreatePayout(payout *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payout.ID = r.payoutID()
	r.payouts[payout.ID] = payout
	return nil
}

func (r *fakeRepo) GetPayoutByID(id uint) (*models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payouts[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetPayoutByExternalIDForUpdate(provider, externalID string) (*models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payouts {
		if p.Subacquirer == provider && p.ExternalID != nil && *p.ExternalID == externalID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) UpdatePayout(payout *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payouts[payout.ID] = payout
	return nil
}

// fakeAdapter returns canned outbound results and delegates inbound parsing
// to configurable functions.
type fakeAdapter struct {
	name         string
	depositResp  subacquirer.Response
	payoutResp   subacquirer.Response
	parseDeposit func(map[string]any) *subacquirer.DepositNotification
	parsePayout  func(map[string]any) *subacquirer.PayoutNotification
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) CreateDeposit(ctx context.Context, req subacquirer.CreateRequest) subacquirer.Response {
	return f.depositResp
}

func (f *fakeAdapter) CreatePayout(ctx context.Context, req subacquirer.CreateRequest) subacquirer.Response {
	return f.payoutResp
}

func (f *fakeAdapter) ParseDepositWebhook(payload map[string]any) *subacquirer.DepositNotification {
	if f.parseDeposit == nil {
		return nil
	}
	return f.parseDeposit(payload)
}

func (f *fakeAdapter) ParsePayoutWebhook(payload map[string]any) *subacquirer.PayoutNotification {
	if f.parsePayout == nil {
		return nil
	}
	return f.parsePayout(payload)
}

// recordingDispatcher counts emitted events.
type recordingDispatcher struct {
	deposits []*models.Deposit
	payouts  []*models.Payout
}

func (d *recordingDispatcher) DepositConfirmed(ctx context.Context, deposit *models.Deposit) {
	d.deposits = append(d.deposits, deposit)
}

func (d *recordingDispatcher) PayoutCompleted(ctx context.Context, payout *models.Payout) {
	d.payouts = append(d.payouts, payout)
}

func activeMerchant(provider string) *models.Merchant {
	return &models.Merchant{
		ID:          1,
		Name:        "Test Merchant",
		Email:       "merchant@example.com",
		Subacquirer: provider,
		Status:      models.MerchantStatusActive,
	}
}

func TestCreateDepositSuccess(t *testing.T) {
	repo := newFakeRepo()
	adapter := &fakeAdapter{
		name:        "TestAdq",
		depositResp: subacquirer.SuccessResponse("EXT-123", "PENDING", nil),
	}
	svc := NewService(repo, subacquirer.NewRegistry(adapter), nil)

	deposit, err := svc.CreateDeposit(context.Background(), activeMerchant("TestAdq"), CreateDepositInput{
		Amount:    decimal.RequireFromString("125.50"),
		Reference: "order-123",
		Metadata:  map[string]any{"channel": "checkout"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.DepositStatusProcessing, deposit.Status)
	require.NotNil(t, deposit.ExternalID)
	assert.Equal(t, "EXT-123", *deposit.ExternalID)
	require.NotNil(t, deposit.Reference)
	assert.Equal(t, "order-123", *deposit.Reference)
	assert.Equal(t, "TestAdq", deposit.Subacquirer)

	stored, err := repo.GetDepositByID(deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DepositStatusProcessing, stored.Status)
}

func TestCreateDepositProviderFailure(t *testing.T) {
	repo := newFakeRepo()
	adapter := &fakeAdapter{
		name:        "TestAdq",
		depositResp: subacquirer.ErrorResponse("Insufficient merchant balance", nil),
	}
	svc := NewService(repo, subacquirer.NewRegistry(adapter), nil)

	deposit, err := svc.CreateDeposit(context.Background(), activeMerchant("TestAdq"), CreateDepositInput{
		Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	assert.Equal(t, models.DepositStatusFailed, deposit.Status)
	assert.Nil(t, deposit.ExternalID)
	assert.Equal(t, "Insufficient merchant balance", deposit.Metadata["error"])
}

func TestCreateDepositInvalidAmount(t *testing.T) {
	repo := newFakeRepo()
	adapter := &fakeAdapter{name: "TestAdq"}
	svc := NewService(repo, subacquirer.NewRegistry(adapter), nil)

	_, err := svc.CreateDeposit(context.Background(), activeMerchant("TestAdq"), CreateDepositInput{
		Amount: decimal.Zero,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, repo.deposits)
}

func TestCreateDepositNoSubacquirer(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, subacquirer.NewRegistry(&fakeAdapter{name: "TestAdq"}), nil)

	cases := []struct {
		name     string
		merchant *models.Merchant
	}{
		{"unconfigured", &models.Merchant{ID: 1, Status: models.MerchantStatusActive}},
		{"disabled", &models.Merchant{ID: 1, Subacquirer: "TestAdq", Status: models.MerchantStatusDisabled}},
		{"unknown provider", activeMerchant("NoSuchAdq")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateDeposit(context.Background(), tc.merchant, CreateDepositInput{
				Amount: decimal.NewFromInt(10),
			})
			assert.ErrorIs(t, err, ErrNoSubacquirer)
		})
	}
}

func TestCreatePayoutSuccess(t *testing.T) {
	repo := newFakeRepo()
	adapter := &fakeAdapter{
		name:       "TestAdq",
		payoutResp: subacquirer.SuccessResponse("WD-77", "PENDING", nil),
	}
	svc := NewService(repo, subacquirer.NewRegistry(adapter), nil)

	payout, err := svc.CreatePayout(context.Background(), activeMerchant("TestAdq"), CreatePayoutInput{
		Amount: decimal.RequireFromString("300.00"),
		Bank:   map[string]any{"bank": "001", "account": "12345-6"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PayoutStatusProcessing, payout.Status)
	require.NotNil(t, payout.ExternalID)
	assert.Equal(t, "WD-77", *payout.ExternalID)
	require.NotNil(t, payout.RequestedAt)
	assert.Equal(t, "001", payout.BankInfo["bank"])
}

func TestCreatePayoutProviderFailure(t *testing.T) {
	repo := newFakeRepo()
	adapter := &fakeAdapter{
		name:       "TestAdq",
		payoutResp: subacquirer.ErrorResponse("HTTP 502: failed to create payout", nil),
	}
	svc := NewService(repo, subacquirer.NewRegistry(adapter), nil)

	payout, err := svc.CreatePayout(context.Background(), activeMerchant("TestAdq"), CreatePayoutInput{
		Amount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	assert.Equal(t, models.PayoutStatusFailed, payout.Status)
	assert.Equal(t, "HTTP 502: failed to create payout", payout.Metadata["error"])
}

func TestMergeMetadataKeepsExistingKeys(t *testing.T) {
	existing := map[string]any{"a": 1, "b": "old"}
	merged := mergeMetadata(existing, map[string]any{"b": "new", "c": true})

	assert.Equal(t, 1, merged["a"])
	assert.Equal(t, "new", merged["b"])
	assert.Equal(t, true, merged["c"])
	// source map stays untouched
	assert.Equal(t, "old", existing["b"])
}

// fakeEnqueuer records simulated webhook schedules.
type fakeEnqueuer struct {
	calls []string
}

func (f *fakeEnqueuer) EnqueueWebhook(payload map[string]any, provider, kind string, delay time.Duration) error {
	f.calls = append(f.calls, fmt.Sprintf("%s/%s@%s", provider, kind, delay))
	return nil
}

func TestSimulationSchedulesWebhooks(t *testing.T) {
	repo := newFakeRepo()
	adapter := &fakeAdapter{
		name:        subacquirer.NameSubadqA,
		depositResp: subacquirer.SuccessResponse("PIX-1", "PENDING", nil),
	}
	svc := NewService(repo, subacquirer.NewRegistry(adapter), nil)
	q := &fakeEnqueuer{}
	svc.EnableWebhookSimulation(q)

	_, err := svc.CreateDeposit(context.Background(), activeMerchant(subacquirer.NameSubadqA), CreateDepositInput{
		Amount: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	assert.Len(t, q.calls, len(simulationDelays))
}

func TestSimulationDisabledByDefault(t *testing.T) {
	repo := newFakeRepo()
	adapter := &fakeAdapter{
		name:        subacquirer.NameSubadqA,
		depositResp: subacquirer.SuccessResponse("PIX-1", "PENDING", nil),
	}
	svc := NewService(repo, subacquirer.NewRegistry(adapter), nil)

	_, err := svc.CreateDeposit(context.Background(), activeMerchant(subacquirer.NameSubadqA), CreateDepositInput{
		Amount: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	// no enqueuer configured, nothing to schedule and no panic
}
