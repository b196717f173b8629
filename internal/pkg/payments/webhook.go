package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pagfox/pagfox/app/models"
	"github.com/pagfox/pagfox/app/repository"
	"github.com/pagfox/pagfox/internal/pkg/subacquirer"
)

// ProcessWebhook runs one delivery through the ingestion pipeline. Safe to
// call any number of times with the same payload: the first processing
// applies the business effect once, every later call is a no-op. An error
// return marks the ledger row FAILED and bumps its attempt counter so the
// queue can retry the delivery. Deliveries rejected before the ledger
// (unknown kind, no correlatable id) are logged and dropped without an
// error, since a retry would fail the same checks again.
func (s *Service) ProcessWebhook(ctx context.Context, providerName, kind string, payload map[string]any) error {
	if !models.IsKnownWebhookKind(kind) {
		log.Warnf("[Webhook] Unknown kind %q from %s, discarding delivery", kind, providerName)
		return nil
	}

	externalID := extractExternalID(payload)
	if externalID == "" {
		log.Warnf("[Webhook] %s/%s delivery has no external id, discarding", providerName, kind)
		return nil
	}

	created, entry, err := s.repo.FindOrCreateWebhookLog(&models.WebhookLog{
		Subacquirer: providerName,
		ExternalID:  externalID,
		Kind:        kind,
		Payload:     datatypes.JSONMap(payload),
		Status:      models.WebhookStatusPending,
	})
	if err != nil {
		return fmt.Errorf("record webhook: %w", err)
	}
	if !created && entry.Status == models.WebhookStatusProcessed {
		log.Infof("[Webhook] %s/%s %s already processed, skipping", providerName, kind, externalID)
		return nil
	}

	var (
		confirmedDeposit *models.Deposit
		completedPayout  *models.Payout
	)
	err = s.repo.Transaction(func(tx repository.PaymentRepository) error {
		locked, err := tx.GetWebhookLogForUpdate(entry.ID)
		if err != nil {
			return fmt.Errorf("lock webhook %d: %w", entry.ID, err)
		}
		// A concurrent worker may have finished while this one waited on
		// the lock.
		if locked.Status == models.WebhookStatusProcessed {
			return nil
		}

		adapter, ok := s.registry.Resolve(providerName)
		if !ok {
			log.Warnf("[Webhook] Unknown subacquirer %q, discarding delivery %d", providerName, entry.ID)
			return tx.MarkWebhookProcessed(entry.ID)
		}

		switch kind {
		case models.WebhookKindDeposit:
			confirmedDeposit, err = s.applyDepositWebhook(tx, adapter, providerName, payload)
		case models.WebhookKindPayout:
			completedPayout, err = s.applyPayoutWebhook(tx, adapter, providerName, payload)
		}
		if err != nil {
			return err
		}
		return tx.MarkWebhookProcessed(entry.ID)
	})
	if err != nil {
		if markErr := s.repo.MarkWebhookFailed(entry.ID, err.Error()); markErr != nil {
			log.Errorf("[Webhook] Failed to flag delivery %d: %v", entry.ID, markErr)
		}
		return err
	}

	// Events fire only after the commit that flipped the ledger row, so a
	// subscriber never hears about a state the database rolled back.
	if confirmedDeposit != nil {
		s.events.DepositConfirmed(ctx, confirmedDeposit)
	}
	if completedPayout != nil {
		s.events.PayoutCompleted(ctx, completedPayout)
	}
	return nil
}

// applyDepositWebhook parses and applies one deposit delivery inside the
// caller's transaction. Returns the deposit when this delivery confirmed it.
func (s *Service) applyDepositWebhook(tx repository.PaymentRepository, adapter subacquirer.Adapter, providerName string, payload map[string]any) (*models.Deposit, error) {
	n := adapter.ParseDepositWebhook(payload)
	if n == nil {
		log.Infof("[Webhook] %s deposit delivery not actionable, discarding", providerName)
		return nil, nil
	}

	deposit, err := tx.GetDepositByExternalIDForUpdate(providerName, n.ExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no deposit %s/%s for webhook", providerName, n.ExternalID)
		}
		return nil, fmt.Errorf("lock deposit %s/%s: %w", providerName, n.ExternalID, err)
	}

	wasConfirmed := deposit.IsConfirmed()
	applyDepositNotification(deposit, n)
	if err := tx.UpdateDeposit(deposit); err != nil {
		return nil, fmt.Errorf("update deposit %d: %w", deposit.ID, err)
	}
	log.Infof("[Webhook] Deposit %d (%s/%s) -> %s", deposit.ID, providerName, n.ExternalID, deposit.Status)

	if deposit.IsConfirmed() && !wasConfirmed {
		return deposit, nil
	}
	return nil, nil
}

// applyPayoutWebhook is the payout counterpart of applyDepositWebhook.
func (s *Service) applyPayoutWebhook(tx repository.PaymentRepository, adapter subacquirer.Adapter, providerName string, payload map[string]any) (*models.Payout, error) {
	n := adapter.ParsePayoutWebhook(payload)
	if n == nil {
		log.Infof("[Webhook] %s payout delivery not actionable, discarding", providerName)
		return nil, nil
	}

	payout, err := tx.GetPayoutByExternalIDForUpdate(providerName, n.ExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no payout %s/%s for webhook", providerName, n.ExternalID)
		}
		return nil, fmt.Errorf("lock payout %s/%s: %w", providerName, n.ExternalID, err)
	}

	wasCompleted := payout.IsCompleted()
	applyPayoutNotification(payout, n)
	if err := tx.UpdatePayout(payout); err != nil {
		return nil, fmt.Errorf("update payout %d: %w", payout.ID, err)
	}
	log.Infof("[Webhook] Payout %d (%s/%s) -> %s", payout.ID, providerName, n.ExternalID, payout.Status)

	if payout.IsCompleted() && !wasCompleted {
		return payout, nil
	}
	return nil, nil
}

// applyDepositNotification folds a parsed notification into the stored row.
// Fields absent from the notification leave the stored value untouched;
// PaymentDate is set at most once. Amount is fixed at creation and never
// rewritten from a notification.
func applyDepositNotification(deposit *models.Deposit, n *subacquirer.DepositNotification) {
	deposit.Status = models.CanonicalDepositStatus(n.Status)
	if n.Amount.IsPositive() && !n.Amount.Equal(deposit.Amount) {
		log.Warnf("[Webhook] Deposit %d amount mismatch: stored %s, reported %s", deposit.ID, deposit.Amount, n.Amount)
	}
	if n.PayerName != nil {
		deposit.PayerName = n.PayerName
	}
	if n.PayerDocument != nil {
		deposit.PayerDocument = n.PayerDocument
	}
	if len(n.Metadata) > 0 {
		deposit.Metadata = mergeMetadata(deposit.Metadata, n.Metadata)
	}
	if deposit.PaymentDate == nil && n.PaymentDate != nil {
		if ts, err := time.Parse(time.RFC3339, *n.PaymentDate); err == nil {
			deposit.PaymentDate = &ts
		}
	}
}

// applyPayoutNotification folds a parsed notification into the stored row.
// CompletedAt is set at most once. Amount is fixed at creation and never
// rewritten from a notification.
func applyPayoutNotification(payout *models.Payout, n *subacquirer.PayoutNotification) {
	payout.Status = models.CanonicalPayoutStatus(n.Status)
	if n.Amount.IsPositive() && !n.Amount.Equal(payout.Amount) {
		log.Warnf("[Webhook] Payout %d amount mismatch: stored %s, reported %s", payout.ID, payout.Amount, n.Amount)
	}
	if n.ProviderTxID != nil {
		payout.ProviderTxID = n.ProviderTxID
	}
	if len(n.BankInfo) > 0 {
		payout.BankInfo = mergeMetadata(payout.BankInfo, n.BankInfo)
	}
	if len(n.Metadata) > 0 {
		payout.Metadata = mergeMetadata(payout.Metadata, n.Metadata)
	}
	if payout.CompletedAt == nil && n.CompletedAt != nil {
		if ts, err := time.Parse(time.RFC3339, *n.CompletedAt); err == nil {
			payout.CompletedAt = &ts
		}
	}
}

// extractExternalID pulls the correlation id out of a raw payload before
// any provider-specific parsing. Checked in priority order; data.id covers
// envelope formats that nest the transaction object.
func extractExternalID(payload map[string]any) string {
	for _, key := range []string{"pix_id", "withdraw_id", "transaction_id", "id"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	if data, ok := payload["data"].(map[string]any); ok {
		for _, key := range []string{"pix_id", "withdraw_id", "transaction_id", "id"} {
			if v, ok := data[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}
