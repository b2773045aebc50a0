package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"emberchat/authgate/internal/model"
	"emberchat/authgate/internal/repository"
	"emberchat/authgate/pkg/crypto"
)

// ClaimResult is the outcome of a successful invite redemption.
// Reused is true when a still-live claim for the same (email, code)
// pair was returned instead of spending a fresh use.
type ClaimResult struct {
	Reused    bool      `json:"reused"`
	ExpiresAt time.Time `json:"expires_at"`
}

type InviteService interface {
	// Claim validates and redeems an invite code for an email.
	// Validation failures come back as ErrInvalidInput,
	// ErrInviteCodeInvalid, ErrInviteCodeInactive or
	// ErrInviteCodeExhausted; anything else is a store failure.
	Claim(ctx context.Context, email, code string) (*ClaimResult, error)

	CreateInviteCode(ctx context.Context, createdBy uuid.UUID, maxUses *int) (*model.InviteCode, error)
	ListInviteCodes(ctx context.Context) ([]model.InviteCode, error)
	SetInviteCodeActive(ctx context.Context, code string, active bool) error
}

type inviteService struct {
	inviteRepo repository.InviteCodeRepository
	claimRepo  repository.InviteClaimRepository
	claimTTL   time.Duration
	logger     *zap.Logger
}

func NewInviteService(
	inviteRepo repository.InviteCodeRepository,
	claimRepo repository.InviteClaimRepository,
	claimTTL time.Duration,
	logger *zap.Logger,
) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		claimRepo:  claimRepo,
		claimTTL:   claimTTL,
		logger:     logger,
	}
}

func (s *inviteService) Claim(ctx context.Context, email, code string) (*ClaimResult, error) {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, ErrInvalidInput
	}

	claim, reused, err := s.claimRepo.Issue(ctx, email, code, s.claimTTL)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeNotFound):
			return nil, ErrInviteCodeInvalid
		case errors.Is(err, repository.ErrCodeInactive):
			return nil, ErrInviteCodeInactive
		case errors.Is(err, repository.ErrCodeExhausted):
			return nil, ErrInviteCodeExhausted
		}
		return nil, fmt.Errorf("issue claim: %w", err)
	}

	s.logger.Info("invite claim issued",
		zap.String("email", email),
		zap.Bool("reused", reused),
	)
	return &ClaimResult{Reused: reused, ExpiresAt: claim.ExpiresAt}, nil
}

func (s *inviteService) CreateInviteCode(ctx context.Context, createdBy uuid.UUID, maxUses *int) (*model.InviteCode, error) {
	code, err := crypto.GenerateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}

	inviteCode := &model.InviteCode{
		Code:      code,
		IsActive:  true,
		MaxUses:   maxUses,
		CreatedBy: createdBy,
	}
	if err := s.inviteRepo.Create(ctx, inviteCode); err != nil {
		return nil, fmt.Errorf("create invite code: %w", err)
	}
	return inviteCode, nil
}

func (s *inviteService) ListInviteCodes(ctx context.Context) ([]model.InviteCode, error) {
	return s.inviteRepo.List(ctx)
}

func (s *inviteService) SetInviteCodeActive(ctx context.Context, code string, active bool) error {
	return s.inviteRepo.SetActive(ctx, strings.TrimSpace(code), active)
}

// NormalizeEmail trims and lower-cases an address so that claims and
// gate lookups always compare the same form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
