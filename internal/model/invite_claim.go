package model

import (
	"time"

	"github.com/google/uuid"
)

// InviteClaim records one redemption of an invite code by an email.
// A claim is live while ExpiresAt is in the future; ConsumedAt is set
// exactly once, when the sign-in gate admits it. Rows are never
// deleted here; expiry makes stale rows inert.
type InviteClaim struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email      string     `gorm:"type:varchar(320);not null;index" json:"email"`
	Code       string     `gorm:"type:varchar(64);not null" json:"code"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (InviteClaim) TableName() string { return "invite_claims" }

// Live reports whether the claim has not yet expired.
func (c *InviteClaim) Live(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// Admissible reports whether the claim admits a sign-in at now: it
// must be live and either unconsumed or consumed within the grace
// window. The window is half-open: consumed exactly grace ago denies.
func (c *InviteClaim) Admissible(now time.Time, grace time.Duration) bool {
	if !c.Live(now) {
		return false
	}
	return c.ConsumedAt == nil || c.ConsumedAt.After(now.Add(-grace))
}
