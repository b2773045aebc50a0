package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"emberchat/authgate/internal/model"
)

// Validation outcomes of the claim transaction. These are storage-level
// sentinels (like gorm.ErrRecordNotFound); the service layer maps them
// to its own error vocabulary.
var (
	ErrCodeNotFound  = errors.New("invite code not found")
	ErrCodeInactive  = errors.New("invite code is inactive")
	ErrCodeExhausted = errors.New("invite code has no uses left")
)

type InviteClaimRepository interface {
	// Issue atomically redeems code for email and returns the claim.
	// If a live unconsumed claim already exists for the exact
	// (email, code) pair, it is returned with reused=true and the
	// ledger is left untouched. Otherwise the ledger row is locked,
	// validated, its use counter incremented, and a fresh claim with
	// the given validity window inserted — all in one transaction.
	Issue(ctx context.Context, email, code string, ttl time.Duration) (claim *model.InviteClaim, reused bool, err error)

	// LatestAdmissible returns the most recent claim for email that
	// is live and either unconsumed or consumed after now-grace.
	// Returns gorm.ErrRecordNotFound when no such claim exists.
	LatestAdmissible(ctx context.Context, email string, now time.Time, grace time.Duration) (*model.InviteClaim, error)

	// Consume sets consumed_at on an unconsumed claim. The write is
	// conditional (WHERE consumed_at IS NULL): of several racing
	// calls at most one returns true, and none blocks.
	Consume(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}
