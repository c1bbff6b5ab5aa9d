package service

import (
	"context"
	"fmt"

	"pix-ledger/internal/core/domain"
	"pix-ledger/internal/core/ports"
	"pix-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// PaymentEventServiceImpl implements ports.PaymentEventService: credits from
// gateway "payment confirmed" events, deduplicated by gateway reference so a
// redelivered event can never credit twice.
type PaymentEventServiceImpl struct {
	ledger    ports.LedgerService
	entryRepo ports.EntryRepository
	notifier  ports.Notifier
	log       zerolog.Logger
}

// NewPaymentEventService creates a new PaymentEventServiceImpl.
func NewPaymentEventService(
	ledger ports.LedgerService,
	entryRepo ports.EntryRepository,
	notifier ports.Notifier,
	log zerolog.Logger,
) *PaymentEventServiceImpl {
	return &PaymentEventServiceImpl{
		ledger:    ledger,
		entryRepo: entryRepo,
		notifier:  notifier,
		log:       log,
	}
}

// ConfirmPayment credits a completed sale to the seller's account. The
// gateway reference is checked again inside the ledger transaction: two
// concurrent deliveries of the same event serialize on the ledger lock and
// the second one sees the first one's entry.
func (s *PaymentEventServiceImpl) ConfirmPayment(ctx context.Context, accountID int64, amount int64, gatewayReference string) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if gatewayReference == "" {
		return nil, apperror.Validation("gateway reference cannot be empty")
	}

	// Cheap pre-check outside the lock.
	exists, err := s.entryRepo.ExternalReferenceExists(ctx, gatewayReference)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("check reference: %w", err))
	}
	if exists {
		s.log.Info().
			Str("reference", gatewayReference).
			Msg("payment event already credited, skipping")
		return nil, apperror.ErrDuplicateReference()
	}

	var entry *domain.LedgerEntry
	err = s.ledger.Mutate(ctx, func(tx pgx.Tx) error {
		// Authoritative check under the lock.
		exists, err := s.entryRepo.ExternalReferenceExists(ctx, gatewayReference)
		if err != nil {
			return apperror.ErrStorageFailure(fmt.Errorf("check reference: %w", err))
		}
		if exists {
			return apperror.ErrDuplicateReference()
		}

		entry, err = s.ledger.CreditTx(ctx, tx, accountID, amount, "sale payment confirmed", ports.EntryOpts{
			ExternalReference: &gatewayReference,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("account_id", accountID).
		Int64("amount", amount).
		Str("reference", gatewayReference).
		Msg("payment confirmed and credited")

	s.notifier.PaymentConfirmed(ctx, entry)
	return entry, nil
}
