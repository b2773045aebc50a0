package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"emberchat/authgate/internal/model"
	"emberchat/authgate/internal/repository"
)

// SignInGate decides, at sign-in time, whether an email still holds a
// valid invite claim. It only guards the magic-link provider; every
// other provider is admitted unconditionally. Denial is a value, never
// an error — a non-nil error means the store failed, and the caller
// must surface that as a server fault rather than a refusal.
type SignInGate interface {
	Admit(ctx context.Context, email string, provider model.IdentityType) (bool, error)
}

type signInGate struct {
	claimRepo repository.InviteClaimRepository
	enabled   bool
	grace     time.Duration
	logger    *zap.Logger
}

func NewSignInGate(claimRepo repository.InviteClaimRepository, enabled bool, grace time.Duration, logger *zap.Logger) SignInGate {
	return &signInGate{
		claimRepo: claimRepo,
		enabled:   enabled,
		grace:     grace,
		logger:    logger,
	}
}

func (g *signInGate) Admit(ctx context.Context, email string, provider model.IdentityType) (bool, error) {
	if !g.enabled || provider != model.IdentityTypeEmail {
		return true, nil
	}

	email = NormalizeEmail(email)
	if email == "" {
		return false, nil
	}

	now := time.Now()
	claim, err := g.claimRepo.LatestAdmissible(ctx, email, now, g.grace)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			g.logger.Info("sign-in denied, no admissible claim", zap.String("email", email))
			return false, nil
		}
		return false, fmt.Errorf("look up claim: %w", err)
	}

	// A claim consumed within the grace window still admits, covering
	// a magic link clicked twice or a duplicated provider callback.
	// Only the first of any racing admissions performs the write.
	if claim.ConsumedAt == nil {
		wrote, err := g.claimRepo.Consume(ctx, claim.ID, now)
		if err != nil {
			return false, fmt.Errorf("consume claim: %w", err)
		}
		if !wrote {
			g.logger.Debug("claim consumed by concurrent sign-in", zap.String("email", email))
		}
	}

	return true, nil
}
