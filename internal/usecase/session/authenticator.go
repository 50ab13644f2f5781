package session

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/sales-mentor/errors"
	"github.com/johnquangdev/sales-mentor/internal/domain/repositories"
	"github.com/johnquangdev/sales-mentor/pkg/jwt"
)

// Params are the handshake values a client supplies
type Params struct {
	CallID string
	Token  string
}

// Identity is the verified owner of a session
type Identity struct {
	CallID    uuid.UUID
	CompanyID string
	AgentID   string
}

// ExtractParams reads call_id and token from the first source that has them:
// parsed query, raw request URI, then URIs forwarded by proxies.
func ExtractParams(r *http.Request) Params {
	sources := []url.Values{r.URL.Query()}
	for _, raw := range []string{r.RequestURI, r.Header.Get("X-Original-URI"), r.Header.Get("X-Forwarded-Uri")} {
		if q := queryOf(raw); q != nil {
			sources = append(sources, q)
		}
	}

	var p Params
	for _, q := range sources {
		if p.CallID == "" {
			p.CallID = strings.TrimSpace(q.Get("call_id"))
		}
		if p.Token == "" {
			p.Token = strings.TrimSpace(q.Get("token"))
		}
	}
	return p
}

func queryOf(raw string) url.Values {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return u.Query()
}

// Authenticator verifies session credentials in two phases: Verify runs
// synchronously on the handshake, Lookup checks the call against storage.
type Authenticator struct {
	tokens *jwt.Manager
	calls  repositories.CallRepository
	logger *zap.Logger
}

// NewAuthenticator creates a new session authenticator
func NewAuthenticator(tokens *jwt.Manager, calls repositories.CallRepository, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		calls:  calls,
		logger: logger,
	}
}

// Verify checks presence, signature, expiry and call binding of the credential
func (a *Authenticator) Verify(p Params) (*Identity, error) {
	if p.CallID == "" || p.Token == "" {
		return nil, errors.ErrSessionMissingParams()
	}

	claims, err := a.tokens.ValidateSessionToken(p.Token)
	if err != nil {
		return nil, errors.ErrSessionInvalidToken(err)
	}
	if claims.CallID != p.CallID {
		return nil, errors.ErrSessionCallMismatch(p.CallID, claims.CallID)
	}

	callID, err := uuid.Parse(p.CallID)
	if err != nil {
		return nil, errors.ErrSessionCallNotFound(p.CallID)
	}

	return &Identity{
		CallID:    callID,
		CompanyID: claims.CompanyID,
		AgentID:   claims.AgentID,
	}, nil
}

// Lookup confirms the call exists, belongs to the credential's company and is
// still running. Storage failures are returned unwrapped from the rejection set.
func (a *Authenticator) Lookup(ctx context.Context, id *Identity) error {
	call, err := a.calls.FindByID(ctx, id.CallID)
	if err != nil {
		return fmt.Errorf("failed to look up call: %w", err)
	}
	if call == nil {
		return errors.ErrSessionCallNotFound(id.CallID.String())
	}
	if call.CompanyID.String() != id.CompanyID {
		return errors.ErrSessionCompanyMismatch(id.CallID.String())
	}
	if call.IsEnded() {
		return errors.ErrSessionCallEnded(id.CallID.String())
	}
	return nil
}

// Rejection reports whether err is a handshake rejection and returns its close reason
func Rejection(err error) (string, bool) {
	var appErr errors.AppError
	if !stdErrors.As(err, &appErr) {
		return "", false
	}
	switch appErr.Code {
	case errors.ErrorCode_SESSION_MISSING_PARAMS,
		errors.ErrorCode_SESSION_INVALID_TOKEN,
		errors.ErrorCode_SESSION_CALL_MISMATCH,
		errors.ErrorCode_SESSION_CALL_NOT_FOUND,
		errors.ErrorCode_SESSION_COMPANY_MISMATCH,
		errors.ErrorCode_SESSION_CALL_ENDED:
		return appErr.Message, true
	}
	return "", false
}
