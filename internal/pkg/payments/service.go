package payments

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/pagfox/pagfox/app/models"
	"github.com/pagfox/pagfox/app/repository"
	"github.com/pagfox/pagfox/internal/pkg/events"
	"github.com/pagfox/pagfox/internal/pkg/subacquirer"
)

var (
	// ErrNoSubacquirer means the merchant has no resolvable provider
	// configured. A precondition fault: the request is rejected, never
	// retried.
	ErrNoSubacquirer = errors.New("no subacquirer configured for merchant")

	// ErrInvalidAmount rejects non-positive creation amounts before any
	// outbound call is attempted.
	ErrInvalidAmount = errors.New("amount must be greater than 0")
)

// Enqueuer schedules webhook work items for asynchronous processing.
// Implemented by the job queue; abstracted here so the service stays
// testable and free of queue internals.
type Enqueuer interface {
	EnqueueWebhook(payload map[string]any, subacquirer, kind string, delay time.Duration) error
}

// Service orchestrates transaction creation against sub-acquirers and
// reconciles inbound webhook notifications.
type Service struct {
	repo     repository.PaymentRepository
	registry *subacquirer.Registry
	events   events.Dispatcher

	enqueuer Enqueuer
	simulate bool
}

// NewService wires the payment core. dispatcher may be events.NopDispatcher{}.
func NewService(repo repository.PaymentRepository, registry *subacquirer.Registry, dispatcher events.Dispatcher) *Service {
	if dispatcher == nil {
		dispatcher = events.NopDispatcher{}
	}
	return &Service{repo: repo, registry: registry, events: dispatcher}
}

// EnableWebhookSimulation turns on the dev/staging aid that schedules fake
// provider webhooks after successful creations.
func (s *Service) EnableWebhookSimulation(q Enqueuer) {
	s.enqueuer = q
	s.simulate = true
}

// CreateDepositInput is the validated creation request shape for deposits.
type CreateDepositInput struct {
	Amount    decimal.Decimal
	Reference string
	Metadata  map[string]any
}

// CreatePayoutInput is the validated creation request shape for payouts.
type CreatePayoutInput struct {
	Amount   decimal.Decimal
	Bank     map[string]any
	Metadata map[string]any
}

// CreateDeposit creates a deposit for the merchant and forwards it to the
// merchant's sub-acquirer. The row insert, the provider call and the
// resulting status update form one atomic unit: a caller either observes
// a fully recorded outcome or a clean failure, never a half-written row.
func (s *Service) CreateDeposit(ctx context.Context, merchant *models.Merchant, in CreateDepositInput) (*models.Deposit, error) {
	adapter, err := s.adapterFor(merchant)
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	deposit := &models.Deposit{
		MerchantID:  merchant.ID,
		Subacquirer: adapter.Name(),
		Amount:      in.Amount,
		Status:      models.DepositStatusPending,
		Metadata:    datatypes.JSONMap(in.Metadata),
	}
	if in.Reference != "" {
		ref := in.Reference
		deposit.Reference = &ref
	}

	var resp subacquirer.Response
	err = s.repo.Transaction(func(tx repository.PaymentRepository) error {
		if err := tx.CreateDeposit(deposit); err != nil {
			return err
		}

		resp = adapter.CreateDeposit(ctx, subacquirer.CreateRequest{
			Amount:    in.Amount,
			Reference: in.Reference,
			Metadata:  in.Metadata,
		})

		if resp.Success {
			externalID := resp.ExternalID
			deposit.ExternalID = &externalID
			deposit.Status = models.DepositStatusProcessing
		} else {
			deposit.Status = models.DepositStatusFailed
			deposit.Metadata = mergeMetadata(deposit.Metadata, map[string]any{"error": resp.Err})
		}
		return tx.UpdateDeposit(deposit)
	})
	if err != nil {
		return nil, err
	}

	if resp.Success {
		log.Infof("[Payments] Deposit %d created on %s as %s", deposit.ID, deposit.Subacquirer, resp.ExternalID)
		s.simulateDepositWebhooks(deposit, adapter.Name())
	} else {
		log.Warnf("[Payments] Deposit %d failed on %s: %s", deposit.ID, deposit.Subacquirer, resp.Err)
	}
	return deposit, nil
}

// CreatePayout creates a payout for the merchant and forwards it to the
// merchant's sub-acquirer. Same atomicity contract as CreateDeposit.
func (s *Service) CreatePayout(ctx context.Context, merchant *models.Merchant, in CreatePayoutInput) (*models.Payout, error) {
	adapter, err := s.adapterFor(merchant)
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	now := time.Now()
	payout := &models.Payout{
		MerchantID:  merchant.ID,
		Subacquirer: adapter.Name(),
		Amount:      in.Amount,
		Status:      models.PayoutStatusPending,
		BankInfo:    datatypes.JSONMap(in.Bank),
		Metadata:    datatypes.JSONMap(in.Metadata),
		RequestedAt: &now,
	}

	var resp subacquirer.Response
	err = s.repo.Transaction(func(tx repository.PaymentRepository) error {
		if err := tx.CreatePayout(payout); err != nil {
			return err
		}

		resp = adapter.CreatePayout(ctx, subacquirer.CreateRequest{
			Amount:   in.Amount,
			Bank:     in.Bank,
			Metadata: in.Metadata,
		})

		if resp.Success {
			externalID := resp.ExternalID
			payout.ExternalID = &externalID
			payout.Status = models.PayoutStatusProcessing
		} else {
			payout.Status = models.PayoutStatusFailed
			payout.Metadata = mergeMetadata(payout.Metadata, map[string]any{"error": resp.Err})
		}
		return tx.UpdatePayout(payout)
	})
	if err != nil {
		return nil, err
	}

	if resp.Success {
		log.Infof("[Payments] Payout %d created on %s as %s", payout.ID, payout.Subacquirer, resp.ExternalID)
		s.simulatePayoutWebhooks(payout, adapter.Name())
	} else {
		log.Warnf("[Payments] Payout %d failed on %s: %s", payout.ID, payout.Subacquirer, resp.Err)
	}
	return payout, nil
}

// GetDeposit fetches a deposit by id.
func (s *Service) GetDeposit(id uint) (*models.Deposit, error) {
	return s.repo.GetDepositByID(id)
}

// GetPayout fetches a payout by id.
func (s *Service) GetPayout(id uint) (*models.Payout, error) {
	return s.repo.GetPayoutByID(id)
}

func (s *Service) adapterFor(merchant *models.Merchant) (subacquirer.Adapter, error) {
	name := merchant.ActiveSubacquirer()
	if name == "" {
		log.Warnf("[Payments] Merchant %d has no subacquirer configured", merchant.ID)
		return nil, ErrNoSubacquirer
	}
	adapter, ok := s.registry.Resolve(name)
	if !ok {
		log.Warnf("[Payments] Merchant %d configured with unknown subacquirer %q", merchant.ID, name)
		return nil, ErrNoSubacquirer
	}
	return adapter, nil
}

// mergeMetadata merges incoming keys over existing ones. Existing keys
// absent from incoming are preserved; the result is always a fresh map.
func mergeMetadata(existing datatypes.JSONMap, incoming map[string]any) datatypes.JSONMap {
	merged := make(datatypes.JSONMap, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}
