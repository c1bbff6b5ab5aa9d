package service

import (
	"context"
	"fmt"
	"time"

	"pix-ledger/config"
	"pix-ledger/internal/core/domain"
	"pix-ledger/internal/core/ports"
	"pix-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// WithdrawalServiceImpl implements ports.WithdrawalService: the member's
// gross amount is debited the moment the request is created, held while
// approvers decide, and either settled through the gateway or credited back.
type WithdrawalServiceImpl struct {
	ledger       ports.LedgerService
	withdrawRepo ports.WithdrawalRepository
	approverRepo ports.ApproverRepository
	gateway      ports.PayoutGateway
	guard        ports.ProcessingGuard
	cooldown     ports.CooldownStore
	notifier     ports.Notifier
	fees         config.FeesConfig
	workflow     config.WorkflowConfig
	log          zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	ledger ports.LedgerService,
	withdrawRepo ports.WithdrawalRepository,
	approverRepo ports.ApproverRepository,
	gateway ports.PayoutGateway,
	guard ports.ProcessingGuard,
	cooldown ports.CooldownStore,
	notifier ports.Notifier,
	fees config.FeesConfig,
	workflow config.WorkflowConfig,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		ledger:       ledger,
		withdrawRepo: withdrawRepo,
		approverRepo: approverRepo,
		gateway:      gateway,
		guard:        guard,
		cooldown:     cooldown,
		notifier:     notifier,
		fees:         fees,
		workflow:     workflow,
		log:          log,
	}
}

// Create debits the gross amount and opens a pending withdrawal request.
// Both writes commit together: a visible pending request always has its hold
// already taken.
func (s *WithdrawalServiceImpl) Create(ctx context.Context, accountID int64, amount int64) (*domain.WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	net := amount - s.fees.WithdrawalFee
	if net <= 0 {
		return nil, apperror.ErrAmountTooSmall()
	}

	account, err := s.ledger.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.HasPayoutDestination() {
		return nil, apperror.ErrNoPayoutDestination()
	}

	req := &domain.WithdrawalRequest{
		ID:                uuid.New(),
		AccountID:         accountID,
		Amount:            amount,
		Fee:               s.fees.WithdrawalFee,
		NetAmount:         net,
		PayoutDestination: *account.PayoutDestination,
		Status:            domain.RequestStatusPending,
		CreatedAt:         time.Now().UTC(),
	}

	err = s.ledger.Mutate(ctx, func(tx pgx.Tx) error {
		_, err := s.ledger.DebitTx(ctx, tx, accountID, amount, "withdrawal hold", ports.EntryOpts{
			Kind: domain.EntryKindWithdrawalHold,
		})
		if err != nil {
			return err
		}
		if err := s.withdrawRepo.Create(ctx, tx, req); err != nil {
			return apperror.ErrStorageFailure(fmt.Errorf("create withdrawal request: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", req.ID.String()).
		Int64("account_id", accountID).
		Int64("amount", amount).
		Int64("net", net).
		Msg("withdrawal requested")

	s.notifier.WithdrawalRequested(ctx, req)
	return req, nil
}

// Approve pays out the net amount and settles the request. A gateway failure
// rejects the request and credits the full hold back.
func (s *WithdrawalServiceImpl) Approve(ctx context.Context, id uuid.UUID, approverID int64) (*domain.WithdrawalRequest, error) {
	req, err := s.checkDecision(ctx, id, approverID)
	if err != nil {
		return nil, err
	}

	acquired, err := s.guard.Acquire(ctx, "withdrawal:"+id.String(), s.workflow.ProcessingTTL)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("acquire processing marker: %w", err))
	}
	if !acquired {
		return nil, apperror.ErrAlreadyProcessed()
	}
	defer s.guard.Release(ctx, "withdrawal:"+id.String()) //nolint:errcheck

	payout, gwErr := s.gateway.CreatePayout(ctx, req.PayoutDestination, req.NetAmount, "withdrawal "+id.String())
	if gwErr != nil {
		// Nothing was paid. Reject the request and give the hold back.
		if err := s.reverse(ctx, req, domain.RequestStatusRejected, &approverID, "withdrawal reversed: gateway failure"); err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		req.Status = domain.RequestStatusRejected
		req.ApproverID = &approverID
		req.ResolvedAt = &now
		s.notifier.WithdrawalResolved(ctx, req, "gateway failure")
		return nil, gwErr
	}

	err = s.ledger.Mutate(ctx, func(tx pgx.Tx) error {
		ok, err := s.withdrawRepo.Resolve(ctx, tx, id, domain.RequestStatusApproved, &approverID, &payout.PayoutID)
		if err != nil {
			return apperror.ErrStorageFailure(err)
		}
		if !ok {
			// Paid but lost the resolve race. Needs an operator to reconcile.
			s.log.Error().
				Str("request_id", id.String()).
				Str("payout_id", payout.PayoutID).
				Msg("payout sent but request no longer pending")
			return apperror.ErrAlreadyProcessed()
		}
		return s.ledger.AppendTx(ctx, tx, &domain.LedgerEntry{
			EntryID:           uuid.New(),
			AccountID:         req.AccountID,
			Kind:              domain.EntryKindWithdrawalSettled,
			Amount:            req.NetAmount,
			GrossAmount:       &req.Amount,
			Description:       "withdrawal settled",
			ExternalReference: &payout.PayoutID,
			Status:            domain.EntryStatusCompleted,
			CreatedAt:         time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req.Status = domain.RequestStatusApproved
	req.ApproverID = &approverID
	req.GatewayPayoutID = &payout.PayoutID
	req.ResolvedAt = &now

	s.log.Info().
		Str("request_id", id.String()).
		Int64("approver_id", approverID).
		Str("payout_id", payout.PayoutID).
		Msg("withdrawal approved")

	s.notifier.WithdrawalResolved(ctx, req, "")
	return req, nil
}

// Reject closes the request and credits the full hold back.
func (s *WithdrawalServiceImpl) Reject(ctx context.Context, id uuid.UUID, approverID int64, reason string) (*domain.WithdrawalRequest, error) {
	req, err := s.checkDecision(ctx, id, approverID)
	if err != nil {
		return nil, err
	}

	acquired, err := s.guard.Acquire(ctx, "withdrawal:"+id.String(), s.workflow.ProcessingTTL)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("acquire processing marker: %w", err))
	}
	if !acquired {
		return nil, apperror.ErrAlreadyProcessed()
	}
	defer s.guard.Release(ctx, "withdrawal:"+id.String()) //nolint:errcheck

	if err := s.reverse(ctx, req, domain.RequestStatusRejected, &approverID, "withdrawal reversed: rejected"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req.Status = domain.RequestStatusRejected
	req.ApproverID = &approverID
	req.ResolvedAt = &now

	s.log.Info().
		Str("request_id", id.String()).
		Int64("approver_id", approverID).
		Str("reason", reason).
		Msg("withdrawal rejected")

	s.notifier.WithdrawalResolved(ctx, req, reason)
	return req, nil
}

// ForceReverse is the operator escape hatch for a stuck pending request.
// It skips the approver registry and cooldown checks.
func (s *WithdrawalServiceImpl) ForceReverse(ctx context.Context, id uuid.UUID, operatorID int64) (*domain.WithdrawalRequest, error) {
	req, err := s.withdrawRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("get withdrawal request: %w", err))
	}
	if req == nil {
		return nil, apperror.ErrNotFound("withdrawal request")
	}
	if !req.IsPending() {
		return nil, apperror.ErrAlreadyProcessed()
	}

	if err := s.reverse(ctx, req, domain.RequestStatusRejected, &operatorID, "withdrawal reversed: forced by operator"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req.Status = domain.RequestStatusRejected
	req.ApproverID = &operatorID
	req.ResolvedAt = &now

	s.log.Warn().
		Str("request_id", id.String()).
		Int64("operator_id", operatorID).
		Msg("withdrawal force-reversed")

	s.notifier.WithdrawalResolved(ctx, req, "forced by operator")
	return req, nil
}

// ExpireOlderThan reverses pending requests older than the lifetime and
// returns how many were expired.
func (s *WithdrawalServiceImpl) ExpireOlderThan(ctx context.Context, lifetime time.Duration) (int, error) {
	if lifetime <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().Add(-lifetime)
	stale, err := s.withdrawRepo.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperror.ErrStorageFailure(fmt.Errorf("list stale withdrawals: %w", err))
	}

	expired := 0
	for i := range stale {
		req := &stale[i]

		acquired, err := s.guard.Acquire(ctx, "withdrawal:"+req.ID.String(), s.workflow.ProcessingTTL)
		if err != nil {
			return expired, apperror.ErrStorageFailure(fmt.Errorf("acquire processing marker: %w", err))
		}
		if !acquired {
			// A decision is in flight; leave it alone.
			continue
		}

		err = s.reverse(ctx, req, domain.RequestStatusExpired, nil, "withdrawal reversed: expired")
		s.guard.Release(ctx, "withdrawal:"+req.ID.String()) //nolint:errcheck
		if err != nil {
			return expired, err
		}

		req.Status = domain.RequestStatusExpired
		s.notifier.WithdrawalResolved(ctx, req, "expired")
		expired++

		s.log.Info().
			Str("request_id", req.ID.String()).
			Int64("account_id", req.AccountID).
			Msg("withdrawal expired")
	}
	return expired, nil
}

// ListPending returns all pending withdrawal requests.
func (s *WithdrawalServiceImpl) ListPending(ctx context.Context) ([]domain.WithdrawalRequest, error) {
	reqs, err := s.withdrawRepo.ListPending(ctx)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("list pending withdrawals: %w", err))
	}
	return reqs, nil
}

// checkDecision runs the shared approve/reject preconditions.
func (s *WithdrawalServiceImpl) checkDecision(ctx context.Context, id uuid.UUID, approverID int64) (*domain.WithdrawalRequest, error) {
	req, err := s.withdrawRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("get withdrawal request: %w", err))
	}
	if req == nil {
		return nil, apperror.ErrNotFound("withdrawal request")
	}
	if !req.IsPending() {
		return nil, apperror.ErrAlreadyProcessed()
	}

	isApprover, err := s.approverRepo.IsApprover(ctx, approverID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("check approver: %w", err))
	}
	if !isApprover {
		return nil, apperror.ErrNotAnApprover()
	}

	allowed, err := s.cooldown.Allow(ctx, approverID, s.workflow.ApproverCooldown)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("check cooldown: %w", err))
	}
	if !allowed {
		return nil, apperror.ErrApproverCooldown()
	}

	return req, nil
}

// reverse resolves a pending request to a terminal status and credits the
// full held amount back, in one transaction.
func (s *WithdrawalServiceImpl) reverse(ctx context.Context, req *domain.WithdrawalRequest, status domain.RequestStatus, actorID *int64, description string) error {
	return s.ledger.Mutate(ctx, func(tx pgx.Tx) error {
		ok, err := s.withdrawRepo.Resolve(ctx, tx, req.ID, status, actorID, nil)
		if err != nil {
			return apperror.ErrStorageFailure(err)
		}
		if !ok {
			return apperror.ErrAlreadyProcessed()
		}
		_, err = s.ledger.CreditTx(ctx, tx, req.AccountID, req.Amount, description, ports.EntryOpts{})
		return err
	})
}
