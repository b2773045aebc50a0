package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberchat/authgate/internal/model"
	"emberchat/authgate/internal/service"
)

type stubInviteService struct {
	result *service.ClaimResult
	err    error
}

func (s *stubInviteService) Claim(context.Context, string, string) (*service.ClaimResult, error) {
	return s.result, s.err
}

func (s *stubInviteService) CreateInviteCode(context.Context, uuid.UUID, *int) (*model.InviteCode, error) {
	return nil, nil
}

func (s *stubInviteService) ListInviteCodes(context.Context) ([]model.InviteCode, error) {
	return nil, nil
}

func (s *stubInviteService) SetInviteCodeActive(context.Context, string, bool) error {
	return nil
}

func postClaim(t *testing.T, svc service.InviteService, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/invite/claim", NewInviteHandler(svc).Claim)

	req := httptest.NewRequest(http.MethodPost, "/invite/claim", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestClaimEndpoint_Success(t *testing.T) {
	svc := &stubInviteService{result: &service.ClaimResult{Reused: false}}
	w, resp := postClaim(t, svc, `{"email":"a@x.com","code":"WELCOME1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, false, resp["reused"])
}

func TestClaimEndpoint_Reused(t *testing.T) {
	svc := &stubInviteService{result: &service.ClaimResult{Reused: true}}
	w, resp := postClaim(t, svc, `{"email":"a@x.com","code":"WELCOME1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, true, resp["reused"])
}

func TestClaimEndpoint_MissingFields(t *testing.T) {
	svc := &stubInviteService{}
	for _, body := range []string{`{}`, `{"email":"a@x.com"}`, `{"code":"WELCOME1"}`, `not json`} {
		w, resp := postClaim(t, svc, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		assert.Equal(t, false, resp["ok"])
	}
}

func TestClaimEndpoint_ValidationFailures(t *testing.T) {
	cases := []struct {
		err  error
		msg  string
		code int
	}{
		{service.ErrInviteCodeInvalid, "Invalid invite code", http.StatusUnauthorized},
		{service.ErrInviteCodeInactive, "Invite code inactive", http.StatusUnauthorized},
		{service.ErrInviteCodeExhausted, "Invite code exhausted", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w, resp := postClaim(t, &stubInviteService{err: tc.err}, `{"email":"a@x.com","code":"X"}`)
		assert.Equal(t, tc.code, w.Code)
		assert.Equal(t, false, resp["ok"])
		assert.Equal(t, tc.msg, resp["error"])
	}
}

func TestClaimEndpoint_StoreFailure(t *testing.T) {
	w, resp := postClaim(t, &stubInviteService{err: assert.AnError}, `{"email":"a@x.com","code":"X"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, resp["ok"])
	assert.NotEmpty(t, resp["error"])
}
