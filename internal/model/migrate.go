package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&UserIdentity{},
		&InviteCode{},
		&InviteClaim{},
	); err != nil {
		return err
	}

	// Composite unique index: only enforce on non-soft-deleted rows.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_identity_type_identifier " +
			"ON user_identities (identity_type, identifier) WHERE deleted_at IS NULL",
	).Error; err != nil {
		return err
	}

	// The gate and the issuer's reuse check both scan recent claims
	// per email; the issuer additionally filters by code.
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_invite_claims_email_code_created " +
			"ON invite_claims (email, code, created_at DESC)",
	).Error
}
