package model

import (
	"time"

	"github.com/google/uuid"
)

// InviteCode is the ledger row backing invite redemption. Uses is only
// incremented inside a claim transaction that holds a FOR UPDATE lock
// on the row, so Uses never exceeds MaxUses.
type InviteCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Code      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	MaxUses   *int      `json:"max_uses,omitempty"` // nil = unbounded
	Uses      int       `gorm:"not null;default:0" json:"uses"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InviteCode) TableName() string { return "invite_codes" }

// Exhausted reports whether the code has no uses left.
func (c *InviteCode) Exhausted() bool {
	return c.MaxUses != nil && c.Uses >= *c.MaxUses
}
