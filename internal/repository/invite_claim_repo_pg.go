package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"emberchat/authgate/internal/model"
)

type pgInviteClaimRepository struct {
	db *gorm.DB
}

func NewPGInviteClaimRepository(db *gorm.DB) InviteClaimRepository {
	return &pgInviteClaimRepository{db: db}
}

func (r *pgInviteClaimRepository) Issue(ctx context.Context, email, code string, ttl time.Duration) (*model.InviteClaim, bool, error) {
	var claim model.InviteClaim
	var reused bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// Cheap path first: a retried submission within the validity
		// window must not burn a use, so look for a live unconsumed
		// claim for this exact pair before going near the ledger.
		err := tx.
			Where("email = ? AND code = ? AND expires_at > ? AND consumed_at IS NULL", email, code, now).
			Order("created_at DESC").
			First(&claim).Error
		if err == nil {
			reused = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// SELECT ... FOR UPDATE serializes concurrent redemptions of
		// the same code; unrelated codes are not blocked.
		var invite model.InviteCode
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", code).
			First(&invite).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return err
		}
		if !invite.IsActive {
			return ErrCodeInactive
		}
		if invite.Exhausted() {
			return ErrCodeExhausted
		}

		if err := tx.Model(&model.InviteCode{}).
			Where("id = ?", invite.ID).
			UpdateColumn("uses", gorm.Expr("uses + 1")).Error; err != nil {
			return err
		}

		claim = model.InviteClaim{
			Email:     email,
			Code:      code,
			ExpiresAt: now.Add(ttl),
		}
		return tx.Create(&claim).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &claim, reused, nil
}

func (r *pgInviteClaimRepository) LatestAdmissible(ctx context.Context, email string, now time.Time, grace time.Duration) (*model.InviteClaim, error) {
	var claim model.InviteClaim
	err := r.db.WithContext(ctx).
		Where("email = ? AND expires_at > ? AND (consumed_at IS NULL OR consumed_at > ?)",
			email, now, now.Add(-grace)).
		Order("created_at DESC").
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *pgInviteClaimRepository) Consume(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InviteClaim{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
