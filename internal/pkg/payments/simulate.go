package payments

import (
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pagfox/pagfox/app/models"
	"github.com/pagfox/pagfox/internal/pkg/subacquirer"
)

var centsFactor = decimal.NewFromInt(100)

// simulationDelays spaces the fake deliveries out. The same payload is
// delivered more than once on purpose: local runs exercise the dedup
// ledger the way flaky provider retries do in production.
var simulationDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

func (s *Service) simulateDepositWebhooks(deposit *models.Deposit, providerName string) {
	if !s.simulate || s.enqueuer == nil || deposit.ExternalID == nil {
		return
	}

	var payload map[string]any
	switch providerName {
	case subacquirer.NameSubadqA:
		cents := deposit.Amount.Mul(centsFactor).Round(0).IntPart()
		payload = map[string]any{
			"event":        "pix_payment_confirmed",
			"pix_id":       *deposit.ExternalID,
			"status":       "CONFIRMED",
			"amount":       cents,
			"payer":        map[string]any{"name": "Simulated Payer", "cpf_cnpj": "00000000000"},
			"payment_date": time.Now().Format(time.RFC3339),
		}
	case subacquirer.NameSubadqB:
		payload = map[string]any{
			"type": "pix.status_update",
			"data": map[string]any{
				"id":           *deposit.ExternalID,
				"status":       "PAID",
				"value":        deposit.Amount.Round(2).InexactFloat64(),
				"payer":        map[string]any{"name": "Simulated Payer", "document": "00000000000"},
				"confirmed_at": time.Now().Format(time.RFC3339),
			},
			"signature": "sim_" + uuid.New().String(),
		}
	default:
		return
	}

	s.enqueueSimulated(payload, providerName, models.WebhookKindDeposit)
}

func (s *Service) simulatePayoutWebhooks(payout *models.Payout, providerName string) {
	if !s.simulate || s.enqueuer == nil || payout.ExternalID == nil {
		return
	}

	var payload map[string]any
	switch providerName {
	case subacquirer.NameSubadqA:
		cents := payout.Amount.Mul(centsFactor).Round(0).IntPart()
		payload = map[string]any{
			"event":          "withdraw_completed",
			"withdraw_id":    *payout.ExternalID,
			"transaction_id": "tx_" + uuid.New().String(),
			"status":         "SUCCESS",
			"amount":         cents,
			"completed_at":   time.Now().Format(time.RFC3339),
			"metadata":       map[string]any{"destination_bank": "simulated-bank"},
		}
	case subacquirer.NameSubadqB:
		payload = map[string]any{
			"type": "withdraw.status_update",
			"data": map[string]any{
				"id":           *payout.ExternalID,
				"status":       "DONE",
				"amount":       payout.Amount.Round(2).InexactFloat64(),
				"bank_account": map[string]any(payout.BankInfo),
				"processed_at": time.Now().Format(time.RFC3339),
			},
			"signature": "sim_" + uuid.New().String(),
		}
	default:
		return
	}

	s.enqueueSimulated(payload, providerName, models.WebhookKindPayout)
}

func (s *Service) enqueueSimulated(payload map[string]any, providerName, kind string) {
	for _, delay := range simulationDelays {
		if err := s.enqueuer.EnqueueWebhook(payload, providerName, kind, delay); err != nil {
			log.Errorf("[Payments] Failed to schedule simulated %s webhook: %v", kind, err)
			return
		}
	}
	log.Infof("[Payments] Scheduled %d simulated %s webhooks for %s", len(simulationDelays), kind, providerName)
}
