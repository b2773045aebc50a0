package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"emberchat/authgate/internal/model"
	"emberchat/authgate/internal/repository"
	"emberchat/authgate/pkg/crypto"
)

type IdentityService interface {
	BindPassword(ctx context.Context, userID uuid.UUID, email, password string) error
	UnbindIdentity(ctx context.Context, userID uuid.UUID, identityID uuid.UUID) error
	ListIdentities(ctx context.Context, userID uuid.UUID) ([]model.UserIdentity, error)
}

type identityService struct {
	identityRepo repository.IdentityRepository
	userRepo     repository.UserRepository
}

func NewIdentityService(identityRepo repository.IdentityRepository, userRepo repository.UserRepository) IdentityService {
	return &identityService{
		identityRepo: identityRepo,
		userRepo:     userRepo,
	}
}

func (s *identityService) BindPassword(ctx context.Context, userID uuid.UUID, email, password string) error {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user.Status != model.UserStatusActive {
		return ErrUserDisabled
	}

	_, err = s.identityRepo.GetByTypeAndIdentifier(ctx, model.IdentityTypePassword, email)
	if err == nil {
		return ErrIdentityAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check identity: %w", err)
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	identity := &model.UserIdentity{
		UserID:         userID,
		IdentityType:   model.IdentityTypePassword,
		Identifier:     email,
		CredentialData: model.CredentialData{"password_hash": hash},
	}
	return s.identityRepo.Create(ctx, identity)
}

func (s *identityService) UnbindIdentity(ctx context.Context, userID uuid.UUID, identityID uuid.UUID) error {
	identities, err := s.identityRepo.ListByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list identities: %w", err)
	}

	// Must keep at least one
	if len(identities) <= 1 {
		return ErrCannotUnbindLast
	}

	found := false
	for _, id := range identities {
		if id.ID == identityID {
			found = true
			break
		}
	}
	if !found {
		return ErrIdentityNotOwned
	}

	return s.identityRepo.Delete(ctx, identityID)
}

func (s *identityService) ListIdentities(ctx context.Context, userID uuid.UUID) ([]model.UserIdentity, error) {
	identities, err := s.identityRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	// Never leak password hashes through the API.
	for i := range identities {
		if identities[i].IdentityType == model.IdentityTypePassword {
			identities[i].CredentialData = nil
		}
	}

	return identities, nil
}

var _ IdentityService = (*identityService)(nil)
