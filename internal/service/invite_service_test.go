package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intPtr(n int) *int { return &n }

func newTestInviteService(store *memoryInviteStore) InviteService {
	return NewInviteService(store, store, 15*time.Minute, zap.NewNop())
}

func TestClaim_SingleUseCode(t *testing.T) {
	store := newMemoryInviteStore()
	store.addCode("WELCOME1", intPtr(1), true)
	svc := newTestInviteService(store)

	result, err := svc.Claim(context.Background(), "a@x.com", "WELCOME1")
	require.NoError(t, err)
	assert.False(t, result.Reused)
	assert.Equal(t, 1, store.uses("WELCOME1"))

	_, err = svc.Claim(context.Background(), "b@x.com", "WELCOME1")
	assert.ErrorIs(t, err, ErrInviteCodeExhausted)
	assert.Equal(t, 1, store.uses("WELCOME1"))
}

func TestClaim_ReuseIsIdempotent(t *testing.T) {
	store := newMemoryInviteStore()
	store.addCode("TEAM", intPtr(5), true)
	svc := newTestInviteService(store)

	first, err := svc.Claim(context.Background(), "a@x.com", "TEAM")
	require.NoError(t, err)
	assert.False(t, first.Reused)

	second, err := svc.Claim(context.Background(), "a@x.com", "TEAM")
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
	assert.Equal(t, 1, store.uses("TEAM"), "reuse must not burn a use")
}

func TestClaim_ExpiredClaimIsNotReused(t *testing.T) {
	store := newMemoryInviteStore()
	store.addCode("TEAM", intPtr(5), true)
	now := time.Now()
	store.addClaim("a@x.com", "TEAM", now.Add(-time.Hour), now.Add(-45*time.Minute), nil)
	svc := newTestInviteService(store)

	result, err := svc.Claim(context.Background(), "a@x.com", "TEAM")
	require.NoError(t, err)
	assert.False(t, result.Reused)
	assert.Equal(t, 1, store.uses("TEAM"))
}

func TestClaim_ConsumedClaimIsNotReused(t *testing.T) {
	store := newMemoryInviteStore()
	store.addCode("TEAM", intPtr(5), true)
	now := time.Now()
	consumed := now.Add(-time.Minute)
	store.addClaim("a@x.com", "TEAM", now.Add(-5*time.Minute), now.Add(10*time.Minute), &consumed)
	svc := newTestInviteService(store)

	result, err := svc.Claim(context.Background(), "a@x.com", "TEAM")
	require.NoError(t, err)
	assert.False(t, result.Reused, "consumed claims do not satisfy the reuse check")
	assert.Equal(t, 1, store.uses("TEAM"))
}

func TestClaim_ValidationFailures(t *testing.T) {
	store := newMemoryInviteStore()
	store.addCode("OFF", intPtr(10), false)
	svc := newTestInviteService(store)

	_, err := svc.Claim(context.Background(), "", "OFF")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Claim(context.Background(), "a@x.com", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Claim(context.Background(), "a@x.com", "NOPE")
	assert.ErrorIs(t, err, ErrInviteCodeInvalid)

	_, err = svc.Claim(context.Background(), "a@x.com", "OFF")
	assert.ErrorIs(t, err, ErrInviteCodeInactive)
	assert.Equal(t, 0, store.uses("OFF"), "inactive codes are never claimable")
}

func TestClaim_NormalizesEmailAndCode(t *testing.T) {
	store := newMemoryInviteStore()
	store.addCode("TEAM", intPtr(5), true)
	svc := newTestInviteService(store)

	_, err := svc.Claim(context.Background(), "A@X.com", "TEAM")
	require.NoError(t, err)

	result, err := svc.Claim(context.Background(), "  a@x.COM ", " TEAM ")
	require.NoError(t, err)
	assert.True(t, result.Reused)
	assert.Equal(t, 1, store.uses("TEAM"))
}

func TestClaim_UnboundedCode(t *testing.T) {
	store := newMemoryInviteStore()
	store.addCode("OPEN", nil, true)
	svc := newTestInviteService(store)

	for i := 0; i < 20; i++ {
		result, err := svc.Claim(context.Background(), fmt.Sprintf("u%d@x.com", i), "OPEN")
		require.NoError(t, err)
		assert.False(t, result.Reused)
	}
	assert.Equal(t, 20, store.uses("OPEN"))
}

func TestClaim_ConcurrentRespectsCapacity(t *testing.T) {
	const maxUses = 5
	const requests = 8

	store := newMemoryInviteStore()
	store.addCode("RACE", intPtr(maxUses), true)
	svc := newTestInviteService(store)

	var wg sync.WaitGroup
	errs := make([]error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Claim(context.Background(), fmt.Sprintf("u%d@x.com", i), "RACE")
		}(i)
	}
	wg.Wait()

	var ok, exhausted int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInviteCodeExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, maxUses, ok)
	assert.Equal(t, requests-maxUses, exhausted)
	assert.Equal(t, maxUses, store.uses("RACE"), "uses never exceeds max_uses")
}

func TestClaim_StoreFailureIsNotAValidationOutcome(t *testing.T) {
	store := newMemoryInviteStore()
	store.addCode("TEAM", intPtr(5), true)
	store.failWith = fmt.Errorf("connection reset")
	svc := newTestInviteService(store)

	_, err := svc.Claim(context.Background(), "a@x.com", "TEAM")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInviteCodeInvalid)
	assert.NotErrorIs(t, err, ErrInviteCodeInactive)
	assert.NotErrorIs(t, err, ErrInviteCodeExhausted)
}

func TestCreateInviteCode(t *testing.T) {
	store := newMemoryInviteStore()
	svc := newTestInviteService(store)

	code, err := svc.CreateInviteCode(context.Background(), uuid.New(), intPtr(3))
	require.NoError(t, err)
	assert.NotEmpty(t, code.Code)
	assert.True(t, code.IsActive)
	require.NotNil(t, code.MaxUses)
	assert.Equal(t, 3, *code.MaxUses)

	unbounded, err := svc.CreateInviteCode(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, unbounded.MaxUses)

	codes, err := svc.ListInviteCodes(context.Background())
	require.NoError(t, err)
	assert.Len(t, codes, 2)
}

func TestSetInviteCodeActive(t *testing.T) {
	store := newMemoryInviteStore()
	store.addCode("TEAM", intPtr(5), true)
	svc := newTestInviteService(store)

	require.NoError(t, svc.SetInviteCodeActive(context.Background(), "TEAM", false))

	_, err := svc.Claim(context.Background(), "a@x.com", "TEAM")
	assert.ErrorIs(t, err, ErrInviteCodeInactive)

	require.NoError(t, svc.SetInviteCodeActive(context.Background(), "TEAM", true))
	_, err = svc.Claim(context.Background(), "a@x.com", "TEAM")
	assert.NoError(t, err)
}
