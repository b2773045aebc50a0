package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"emberchat/authgate/internal/config"
	"emberchat/authgate/internal/model"
	"emberchat/authgate/internal/repository"
	"emberchat/authgate/pkg/crypto"
	jwtpkg "emberchat/authgate/pkg/jwt"
)

const (
	stateKeyMagicLink      = "magiclink:"
	stateKeyRevokedRefresh = "revoked_refresh:"
)

// TokenSet represents a set of tokens returned after authentication.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	// RequestMagicLink mints a single-use sign-in token for email and
	// mails the link. It does not reveal whether the email is known.
	RequestMagicLink(ctx context.Context, email string) error

	// CompleteMagicLink redeems a magic-link token. The invite gate
	// runs before any session is created; a refused sign-in comes
	// back as ErrSignInRefused, a spent or unknown token as
	// ErrMagicLinkInvalid.
	CompleteMagicLink(ctx context.Context, token string) (*TokenSet, error)

	// LoginPassword signs in against a bound password identity. The
	// password provider is not invite-gated.
	LoginPassword(ctx context.Context, email, password string) (*TokenSet, error)

	RefreshToken(ctx context.Context, refreshToken string) (*TokenSet, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	userRepo     repository.UserRepository
	identityRepo repository.IdentityRepository
	stateStore   repository.StateStore
	gate         SignInGate
	mailSender   MailSender
	jwtManager   *jwtpkg.Manager
	magicLink    config.MagicLinkConfig
	logger       *zap.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	identityRepo repository.IdentityRepository,
	stateStore repository.StateStore,
	gate SignInGate,
	mailSender MailSender,
	jwtManager *jwtpkg.Manager,
	magicLink config.MagicLinkConfig,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		stateStore:   stateStore,
		gate:         gate,
		mailSender:   mailSender,
		jwtManager:   jwtManager,
		magicLink:    magicLink,
		logger:       logger,
	}
}

func (s *authService) RequestMagicLink(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	token, err := crypto.GenerateMagicLinkToken()
	if err != nil {
		return fmt.Errorf("generate magic link token: %w", err)
	}
	if err := s.stateStore.Set(ctx, stateKeyMagicLink+token, []byte(email), s.magicLink.TokenTTL); err != nil {
		return fmt.Errorf("store magic link token: %w", err)
	}

	link := fmt.Sprintf("%s?token=%s", s.magicLink.VerifyURL, token)
	body := fmt.Sprintf("Click the link below to sign in. It expires in %s and can be used once.\r\n\r\n%s\r\n",
		s.magicLink.TokenTTL, link)
	if err := s.mailSender.Send(ctx, email, "Your sign-in link", body); err != nil {
		return fmt.Errorf("send magic link: %w", err)
	}

	s.logger.Info("magic link sent", zap.String("email", email))
	return nil
}

func (s *authService) CompleteMagicLink(ctx context.Context, token string) (*TokenSet, error) {
	if token == "" {
		return nil, ErrMagicLinkInvalid
	}

	val, err := s.stateStore.Get(ctx, stateKeyMagicLink+token)
	if err != nil {
		return nil, fmt.Errorf("load magic link token: %w", err)
	}
	if val == nil {
		return nil, ErrMagicLinkInvalid
	}
	email := string(val)

	// The token is single-use; a second click of the same link falls
	// through to the gate's grace window on the already-consumed claim.
	if err := s.stateStore.Delete(ctx, stateKeyMagicLink+token); err != nil {
		return nil, fmt.Errorf("spend magic link token: %w", err)
	}

	ok, err := s.gate.Admit(ctx, email, model.IdentityTypeEmail)
	if err != nil {
		return nil, fmt.Errorf("sign-in gate: %w", err)
	}
	if !ok {
		return nil, ErrSignInRefused
	}

	user, err := s.findOrCreateEmailUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Status != model.UserStatusActive {
		return nil, ErrUserDisabled
	}

	return s.issueTokens(user)
}

func (s *authService) LoginPassword(ctx context.Context, email, password string) (*TokenSet, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	identity, err := s.identityRepo.GetByTypeAndIdentifier(ctx, model.IdentityTypePassword, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find password identity: %w", err)
	}

	hash, _ := identity.CredentialData["password_hash"].(string)
	if !crypto.CheckPassword(password, hash) {
		return nil, ErrInvalidCredentials
	}

	// The gate admits non-gated providers unconditionally; invoking it
	// here keeps every sign-in path behind the same hook.
	ok, err := s.gate.Admit(ctx, email, model.IdentityTypePassword)
	if err != nil {
		return nil, fmt.Errorf("sign-in gate: %w", err)
	}
	if !ok {
		return nil, ErrSignInRefused
	}

	user, err := s.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.Status != model.UserStatusActive {
		return nil, ErrUserDisabled
	}

	return s.issueTokens(user)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenSet, error) {
	claims, err := s.jwtManager.Validate(refreshToken)
	if err != nil || claims.TokenType != jwtpkg.TokenTypeRefresh {
		return nil, ErrRefreshTokenInvalid
	}

	revoked, err := s.stateStore.Exists(ctx, stateKeyRevokedRefresh+claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check refresh revocation: %w", err)
	}
	if revoked {
		return nil, ErrRefreshTokenInvalid
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrRefreshTokenInvalid
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.Status != model.UserStatusActive {
		return nil, ErrUserDisabled
	}

	// Rotate: the old refresh token is revoked for its remaining life.
	if err := s.revokeRefresh(ctx, claims); err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtManager.Validate(refreshToken)
	if err != nil || claims.TokenType != jwtpkg.TokenTypeRefresh {
		return ErrRefreshTokenInvalid
	}
	return s.revokeRefresh(ctx, claims)
}

func (s *authService) revokeRefresh(ctx context.Context, claims *jwtpkg.Claims) error {
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.stateStore.Set(ctx, stateKeyRevokedRefresh+claims.ID, []byte("1"), ttl); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *authService) findOrCreateEmailUser(ctx context.Context, email string) (*model.User, error) {
	identity, err := s.identityRepo.GetByTypeAndIdentifier(ctx, model.IdentityTypeEmail, email)
	if err == nil {
		user, err := s.userRepo.GetByID(ctx, identity.UserID)
		if err != nil {
			return nil, fmt.Errorf("load user: %w", err)
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find email identity: %w", err)
	}

	// First admitted sign-in creates the account.
	user := &model.User{Status: model.UserStatusActive}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.identityRepo.Create(ctx, &model.UserIdentity{
		UserID:       user.ID,
		IdentityType: model.IdentityTypeEmail,
		Identifier:   email,
	}); err != nil {
		return nil, fmt.Errorf("create email identity: %w", err)
	}

	s.logger.Info("user created via magic link", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *authService) issueTokens(user *model.User) (*TokenSet, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, _, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtManager.AccessTokenTTL().Seconds()),
	}, nil
}

var _ AuthService = (*authService)(nil)
