package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	"github.com/johnquangdev/sales-mentor/pkg/jwt"
)

func TestExtractParams(t *testing.T) {
	t.Run("query string", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/ws?call_id=abc&token=%20tok%20", nil)
		p := ExtractParams(r)
		assert.Equal(t, "abc", p.CallID)
		assert.Equal(t, "tok", p.Token)
	})

	t.Run("forwarded uri", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/ws", nil)
		r.Header.Set("X-Original-URI", "/ws?call_id=abc")
		r.Header.Set("X-Forwarded-Uri", "/ws?call_id=ignored&token=tok")
		p := ExtractParams(r)
		assert.Equal(t, "abc", p.CallID)
		assert.Equal(t, "tok", p.Token)
	})

	t.Run("nothing supplied", func(t *testing.T) {
		p := ExtractParams(httptest.NewRequest("GET", "/v1/ws", nil))
		assert.Empty(t, p.CallID)
		assert.Empty(t, p.Token)
	})
}

func TestAuthenticator_Verify(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Hour)
	auth := NewAuthenticator(tokens, newFakeCalls(), nil)
	callID := uuid.New()
	token, _, err := tokens.GenerateSessionToken(callID.String(), "company-1", "agent-1")
	require.NoError(t, err)

	id, err := auth.Verify(Params{CallID: callID.String(), Token: token})
	require.NoError(t, err)
	assert.Equal(t, callID, id.CallID)
	assert.Equal(t, "company-1", id.CompanyID)
	assert.Equal(t, "agent-1", id.AgentID)

	_, err = auth.Verify(Params{CallID: callID.String()})
	reason, ok := Rejection(err)
	assert.True(t, ok)
	assert.Equal(t, "Missing call_id or token", reason)

	_, err = auth.Verify(Params{CallID: uuid.NewString(), Token: token})
	reason, _ = Rejection(err)
	assert.Equal(t, "Call mismatch", reason)

	_, err = auth.Verify(Params{CallID: callID.String(), Token: "garbage"})
	reason, _ = Rejection(err)
	assert.Equal(t, "Invalid token", reason)

	odd, _, err := tokens.GenerateSessionToken("not-a-uuid", "company-1", "agent-1")
	require.NoError(t, err)
	_, err = auth.Verify(Params{CallID: "not-a-uuid", Token: odd})
	reason, _ = Rejection(err)
	assert.Equal(t, "Call not found", reason)
}

func TestAuthenticator_Lookup(t *testing.T) {
	calls := newFakeCalls()
	auth := NewAuthenticator(jwt.NewManager("secret", time.Hour), calls, nil)
	ctx := context.Background()

	running := &entities.Call{ID: uuid.New(), CompanyID: uuid.New(), Status: entities.CallStatusRunning}
	require.NoError(t, calls.Create(ctx, running))

	assert.NoError(t, auth.Lookup(ctx, &Identity{CallID: running.ID, CompanyID: running.CompanyID.String()}))

	err := auth.Lookup(ctx, &Identity{CallID: running.ID, CompanyID: uuid.NewString()})
	reason, _ := Rejection(err)
	assert.Equal(t, "Company mismatch", reason)

	calls.err = errors.New("timeout")
	err = auth.Lookup(ctx, &Identity{CallID: running.ID, CompanyID: running.CompanyID.String()})
	require.Error(t, err)
	_, ok := Rejection(err)
	assert.False(t, ok, "storage failures are not rejections")
}

func TestRejection_IgnoresForeignErrors(t *testing.T) {
	_, ok := Rejection(errors.New("boom"))
	assert.False(t, ok)
	_, ok = Rejection(nil)
	assert.False(t, ok)
}
