package service

import (
	"context"
	"fmt"
	"time"

	"pix-ledger/internal/core/domain"
	"pix-ledger/internal/core/ports"
	"pix-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// ApproverServiceImpl implements ports.ApproverService.
type ApproverServiceImpl struct {
	approverRepo ports.ApproverRepository
	log          zerolog.Logger
}

// NewApproverService creates a new ApproverServiceImpl.
func NewApproverService(approverRepo ports.ApproverRepository, log zerolog.Logger) *ApproverServiceImpl {
	return &ApproverServiceImpl{approverRepo: approverRepo, log: log}
}

// Add registers an account as an approver. Re-adding is a no-op.
func (s *ApproverServiceImpl) Add(ctx context.Context, accountID, addedBy int64) (*domain.Approver, error) {
	approver := &domain.Approver{
		AccountID: accountID,
		AddedBy:   addedBy,
		AddedAt:   time.Now().UTC(),
	}
	if err := s.approverRepo.Add(ctx, approver); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("add approver: %w", err))
	}

	s.log.Info().
		Int64("account_id", accountID).
		Int64("added_by", addedBy).
		Msg("approver registered")

	return approver, nil
}

// Remove deregisters an approver.
func (s *ApproverServiceImpl) Remove(ctx context.Context, accountID int64) error {
	removed, err := s.approverRepo.Remove(ctx, accountID)
	if err != nil {
		return apperror.ErrStorageFailure(fmt.Errorf("remove approver: %w", err))
	}
	if !removed {
		return apperror.ErrNotFound("approver")
	}

	s.log.Info().Int64("account_id", accountID).Msg("approver removed")
	return nil
}

// List returns all registered approvers.
func (s *ApproverServiceImpl) List(ctx context.Context) ([]domain.Approver, error) {
	approvers, err := s.approverRepo.List(ctx)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("list approvers: %w", err))
	}
	return approvers, nil
}
