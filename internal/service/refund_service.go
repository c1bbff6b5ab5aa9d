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

// RefundServiceImpl implements ports.RefundService. It mirrors the
// withdrawal workflow except the funding account pays while an external
// beneficiary, identified only by a reference and a PIX key, receives the
// payout.
type RefundServiceImpl struct {
	ledger       ports.LedgerService
	refundRepo   ports.RefundRepository
	approverRepo ports.ApproverRepository
	gateway      ports.PayoutGateway
	guard        ports.ProcessingGuard
	cooldown     ports.CooldownStore
	notifier     ports.Notifier
	fees         config.FeesConfig
	workflow     config.WorkflowConfig
	log          zerolog.Logger
}

// NewRefundService creates a new RefundServiceImpl.
func NewRefundService(
	ledger ports.LedgerService,
	refundRepo ports.RefundRepository,
	approverRepo ports.ApproverRepository,
	gateway ports.PayoutGateway,
	guard ports.ProcessingGuard,
	cooldown ports.CooldownStore,
	notifier ports.Notifier,
	fees config.FeesConfig,
	workflow config.WorkflowConfig,
	log zerolog.Logger,
) *RefundServiceImpl {
	return &RefundServiceImpl{
		ledger:       ledger,
		refundRepo:   refundRepo,
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

// Create debits the funding account for the gross amount and opens a pending
// refund request. The net amount must stay positive after the fee.
func (s *RefundServiceImpl) Create(ctx context.Context, fundingAccountID, beneficiaryRef int64, amount int64, payoutKey, reason string) (*domain.RefundRequest, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if payoutKey == "" {
		return nil, apperror.Validation("payout key cannot be empty")
	}

	net := amount - s.fees.RefundFee
	if net < s.fees.RefundMinNet {
		return nil, apperror.ErrAmountTooSmall()
	}

	req := &domain.RefundRequest{
		ID:                uuid.New(),
		FundingAccountID:  fundingAccountID,
		BeneficiaryRef:    beneficiaryRef,
		Amount:            amount,
		Fee:               s.fees.RefundFee,
		NetAmount:         net,
		PayoutDestination: payoutKey,
		Reason:            reason,
		Status:            domain.RequestStatusPending,
		CreatedAt:         time.Now().UTC(),
	}

	err := s.ledger.Mutate(ctx, func(tx pgx.Tx) error {
		_, err := s.ledger.DebitTx(ctx, tx, fundingAccountID, amount, "refund hold", ports.EntryOpts{
			Kind:           domain.EntryKindRefundHold,
			CounterpartyID: &beneficiaryRef,
		})
		if err != nil {
			return err
		}
		if err := s.refundRepo.Create(ctx, tx, req); err != nil {
			return apperror.ErrStorageFailure(fmt.Errorf("create refund request: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", req.ID.String()).
		Int64("funding_account_id", fundingAccountID).
		Int64("beneficiary_ref", beneficiaryRef).
		Int64("amount", amount).
		Msg("refund requested")

	s.notifier.RefundRequested(ctx, req)
	return req, nil
}

// Approve pays the beneficiary the net amount and settles the request.
// A gateway failure rejects the request and restores the funding account.
func (s *RefundServiceImpl) Approve(ctx context.Context, id uuid.UUID, approverID int64) (*domain.RefundRequest, error) {
	req, err := s.checkDecision(ctx, id, approverID)
	if err != nil {
		return nil, err
	}

	acquired, err := s.guard.Acquire(ctx, "refund:"+id.String(), s.workflow.ProcessingTTL)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("acquire processing marker: %w", err))
	}
	if !acquired {
		return nil, apperror.ErrAlreadyProcessed()
	}
	defer s.guard.Release(ctx, "refund:"+id.String()) //nolint:errcheck

	payout, gwErr := s.gateway.CreatePayout(ctx, req.PayoutDestination, req.NetAmount, "refund "+id.String())
	if gwErr != nil {
		if err := s.reverse(ctx, req, domain.RequestStatusRejected, &approverID, "refund reversed: gateway failure"); err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		req.Status = domain.RequestStatusRejected
		req.ApproverID = &approverID
		req.ResolvedAt = &now
		s.notifier.RefundResolved(ctx, req, "gateway failure")
		return nil, gwErr
	}

	err = s.ledger.Mutate(ctx, func(tx pgx.Tx) error {
		ok, err := s.refundRepo.Resolve(ctx, tx, id, domain.RequestStatusApproved, &approverID, &payout.PayoutID)
		if err != nil {
			return apperror.ErrStorageFailure(err)
		}
		if !ok {
			s.log.Error().
				Str("request_id", id.String()).
				Str("payout_id", payout.PayoutID).
				Msg("payout sent but refund no longer pending")
			return apperror.ErrAlreadyProcessed()
		}
		return s.ledger.AppendTx(ctx, tx, &domain.LedgerEntry{
			EntryID:           uuid.New(),
			AccountID:         req.FundingAccountID,
			Kind:              domain.EntryKindRefundSettled,
			Amount:            req.NetAmount,
			GrossAmount:       &req.Amount,
			Description:       "refund settled",
			CounterpartyID:    &req.BeneficiaryRef,
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
		Msg("refund approved")

	s.notifier.RefundResolved(ctx, req, "")
	return req, nil
}

// Reject closes the request and restores the funding account in full.
func (s *RefundServiceImpl) Reject(ctx context.Context, id uuid.UUID, approverID int64, reason string) (*domain.RefundRequest, error) {
	req, err := s.checkDecision(ctx, id, approverID)
	if err != nil {
		return nil, err
	}

	acquired, err := s.guard.Acquire(ctx, "refund:"+id.String(), s.workflow.ProcessingTTL)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("acquire processing marker: %w", err))
	}
	if !acquired {
		return nil, apperror.ErrAlreadyProcessed()
	}
	defer s.guard.Release(ctx, "refund:"+id.String()) //nolint:errcheck

	if err := s.reverse(ctx, req, domain.RequestStatusRejected, &approverID, "refund reversed: rejected"); err != nil {
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
		Msg("refund rejected")

	s.notifier.RefundResolved(ctx, req, reason)
	return req, nil
}

// ForceReverse is the operator escape hatch for a stuck pending refund.
// It skips the approver registry and cooldown checks.
func (s *RefundServiceImpl) ForceReverse(ctx context.Context, id uuid.UUID, operatorID int64) (*domain.RefundRequest, error) {
	req, err := s.refundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("get refund request: %w", err))
	}
	if req == nil {
		return nil, apperror.ErrNotFound("refund request")
	}
	if !req.IsPending() {
		return nil, apperror.ErrAlreadyProcessed()
	}

	if err := s.reverse(ctx, req, domain.RequestStatusRejected, &operatorID, "refund reversed: forced by operator"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req.Status = domain.RequestStatusRejected
	req.ApproverID = &operatorID
	req.ResolvedAt = &now

	s.log.Warn().
		Str("request_id", id.String()).
		Int64("operator_id", operatorID).
		Msg("refund force-reversed")

	s.notifier.RefundResolved(ctx, req, "forced by operator")
	return req, nil
}

// ListPending returns all pending refund requests.
func (s *RefundServiceImpl) ListPending(ctx context.Context) ([]domain.RefundRequest, error) {
	reqs, err := s.refundRepo.ListPending(ctx)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("list pending refunds: %w", err))
	}
	return reqs, nil
}

func (s *RefundServiceImpl) checkDecision(ctx context.Context, id uuid.UUID, approverID int64) (*domain.RefundRequest, error) {
	req, err := s.refundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("get refund request: %w", err))
	}
	if req == nil {
		return nil, apperror.ErrNotFound("refund request")
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

func (s *RefundServiceImpl) reverse(ctx context.Context, req *domain.RefundRequest, status domain.RequestStatus, actorID *int64, description string) error {
	return s.ledger.Mutate(ctx, func(tx pgx.Tx) error {
		ok, err := s.refundRepo.Resolve(ctx, tx, req.ID, status, actorID, nil)
		if err != nil {
			return apperror.ErrStorageFailure(err)
		}
		if !ok {
			return apperror.ErrAlreadyProcessed()
		}
		_, err = s.ledger.CreditTx(ctx, tx, req.FundingAccountID, req.Amount, description, ports.EntryOpts{})
		return err
	})
}
