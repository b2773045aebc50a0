package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"emberchat/authgate/internal/model"
	"emberchat/authgate/internal/repository"
)

// memoryInviteStore implements both invite repositories with the same
// semantics as the postgres ones: Issue runs under a store-wide lock,
// which stands in for the FOR UPDATE row lock, and Consume is a
// conditional write.
type memoryInviteStore struct {
	mu           sync.Mutex
	codes        map[string]*model.InviteCode
	claims       []*model.InviteClaim
	consumeCount int
	failWith     error // when set, every call fails
}

func newMemoryInviteStore() *memoryInviteStore {
	return &memoryInviteStore{codes: make(map[string]*model.InviteCode)}
}

func (s *memoryInviteStore) addCode(code string, maxUses *int, active bool) *model.InviteCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &model.InviteCode{
		ID:        uuid.New(),
		Code:      code,
		IsActive:  active,
		MaxUses:   maxUses,
		CreatedAt: time.Now(),
	}
	s.codes[code] = c
	return c
}

func (s *memoryInviteStore) addClaim(email, code string, createdAt, expiresAt time.Time, consumedAt *time.Time) *model.InviteClaim {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &model.InviteClaim{
		ID:         uuid.New(),
		Email:      email,
		Code:       code,
		ExpiresAt:  expiresAt,
		ConsumedAt: consumedAt,
		CreatedAt:  createdAt,
	}
	s.claims = append(s.claims, c)
	return c
}

func (s *memoryInviteStore) uses(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[code].Uses
}

// InviteCodeRepository

func (s *memoryInviteStore) Create(_ context.Context, code *model.InviteCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	code.CreatedAt = time.Now()
	s.codes[code.Code] = code
	return nil
}

func (s *memoryInviteStore) GetByCode(_ context.Context, code string) (*model.InviteCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (s *memoryInviteStore) List(_ context.Context) ([]model.InviteCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.InviteCode, 0, len(s.codes))
	for _, c := range s.codes {
		out = append(out, *c)
	}
	return out, nil
}

func (s *memoryInviteStore) SetActive(_ context.Context, code string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[code]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.IsActive = active
	return nil
}

// InviteClaimRepository

func (s *memoryInviteStore) Issue(_ context.Context, email, code string, ttl time.Duration) (*model.InviteClaim, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, false, s.failWith
	}
	now := time.Now()

	// Reuse check before touching the ledger, newest first.
	for i := len(s.claims) - 1; i >= 0; i-- {
		c := s.claims[i]
		if c.Email == email && c.Code == code && c.ConsumedAt == nil && now.Before(c.ExpiresAt) {
			return c, true, nil
		}
	}

	invite, ok := s.codes[code]
	if !ok {
		return nil, false, repository.ErrCodeNotFound
	}
	if !invite.IsActive {
		return nil, false, repository.ErrCodeInactive
	}
	if invite.Exhausted() {
		return nil, false, repository.ErrCodeExhausted
	}

	invite.Uses++
	claim := &model.InviteClaim{
		ID:        uuid.New(),
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	s.claims = append(s.claims, claim)
	return claim, false, nil
}

func (s *memoryInviteStore) LatestAdmissible(_ context.Context, email string, now time.Time, grace time.Duration) (*model.InviteClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var latest *model.InviteClaim
	for _, c := range s.claims {
		if c.Email != email || !c.Admissible(now, grace) {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	out := *latest
	return &out, nil
}

func (s *memoryInviteStore) Consume(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	for _, c := range s.claims {
		if c.ID == id && c.ConsumedAt == nil {
			t := now
			c.ConsumedAt = &t
			s.consumeCount++
			return true, nil
		}
	}
	return false, nil
}

var (
	_ repository.InviteCodeRepository  = (*memoryInviteStore)(nil)
	_ repository.InviteClaimRepository = (*memoryInviteStore)(nil)
)

// mockUserRepo / mockIdentityRepo back the auth service tests.

type mockUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDWithIdentities(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

type mockIdentityRepo struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*model.UserIdentity
}

func newMockIdentityRepo() *mockIdentityRepo {
	return &mockIdentityRepo{identities: make(map[uuid.UUID]*model.UserIdentity)}
}

func (m *mockIdentityRepo) Create(_ context.Context, identity *model.UserIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	m.identities[identity.ID] = identity
	return nil
}

func (m *mockIdentityRepo) GetByTypeAndIdentifier(_ context.Context, idType model.IdentityType, identifier string) (*model.UserIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.identities {
		if id.IdentityType == idType && id.Identifier == identifier {
			return id, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockIdentityRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.UserIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.UserIdentity
	for _, id := range m.identities {
		if id.UserID == userID {
			out = append(out, *id)
		}
	}
	return out, nil
}

func (m *mockIdentityRepo) Update(_ context.Context, identity *model.UserIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[identity.ID] = identity
	return nil
}

func (m *mockIdentityRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.identities, id)
	return nil
}

var (
	_ repository.UserRepository     = (*mockUserRepo)(nil)
	_ repository.IdentityRepository = (*mockIdentityRepo)(nil)
)

// mockMailSender records outgoing mail instead of talking SMTP.

type sentMail struct {
	to      string
	subject string
	body    string
}

type mockMailSender struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *mockMailSender) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var _ MailSender = (*mockMailSender)(nil)
