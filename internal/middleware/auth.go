package middleware

import (
	"context"
	"errors"
	"slices"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/internal/auth"
)

// ErrLocked is returned for every non-public procedure while the ledger is locked.
var ErrLocked = errors.New("ledger is locked")

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// SessionIDKey is the context key for the unlocked session id.
const SessionIDKey contextKey = "session_id"

// GetSessionID extracts the session ID from the context.
// Returns empty string if not found.
func GetSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(SessionIDKey).(string)
	return sessionID
}

// RequireUnlocked returns an interceptor that enforces the access lock.
//
//   - Disabled: every call passes.
//   - Locked: only the public procedures pass.
//   - Unlocked: calls need the session token issued by SubmitPin, sent as
//     "Authorization: Bearer <token>". Public procedures pass without one.
//
// A valid token always adds the session id to the context.
func RequireUnlocked(lock *auth.Lock, jwtManager *auth.JWTManager, public ...string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			claims, tokenErr := sessionFromHeader(jwtManager, req.Header().Get("Authorization"))
			if claims != nil {
				ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
			}

			if slices.Contains(public, req.Spec().Procedure) {
				return next(ctx, req)
			}

			switch lock.State() {
			case auth.StateDisabled:
				return next(ctx, req)
			case auth.StateLocked:
				return nil, connect.NewError(connect.CodeUnauthenticated, ErrLocked)
			}
			if tokenErr != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, tokenErr)
			}
			return next(ctx, req)
		}
	}
}

func sessionFromHeader(jwtManager *auth.JWTManager, header string) (*auth.Claims, error) {
	if header == "" {
		return nil, auth.ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, auth.ErrInvalidToken
	}
	return jwtManager.Validate(parts[1])
}
