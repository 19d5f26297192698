package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/debtledger/internal/auth"
	"github.com/mmynk/debtledger/internal/middleware"
	"github.com/mmynk/debtledger/internal/service"
)

const (
	privateProcedure = "/test.v1.Echo/Private"
	publicProcedure  = "/test.v1.Echo/Public"
)

type pins struct {
	enabled bool
	pin     string
}

func (p *pins) PinState() (bool, string) { return p.enabled, p.pin }

func (p *pins) SavePinState(_ context.Context, enabled bool, pin string) error {
	p.enabled, p.pin = enabled, pin
	return nil
}

type echo struct {
	Session string `json:"session"`
}

func setup(t *testing.T, enabled bool) (*auth.Lock, *auth.JWTManager, string) {
	t.Helper()
	lock := auth.NewLock(context.Background(), &pins{enabled: enabled, pin: "1234"}, auth.LockOptions{})
	jwtManager := auth.NewJWTManager([]byte("test-secret"), time.Hour)

	interceptors := connect.WithInterceptors(
		middleware.RequireUnlocked(lock, jwtManager, publicProcedure),
		middleware.LoggingInterceptor(nil),
	)
	unary := func(ctx context.Context, _ *connect.Request[echo]) (*connect.Response[echo], error) {
		return connect.NewResponse(&echo{Session: middleware.GetSessionID(ctx)}), nil
	}

	mux := http.NewServeMux()
	for _, p := range []string{privateProcedure, publicProcedure} {
		mux.Handle(p, connect.NewUnaryHandler(p, unary, service.WithJSON(), interceptors))
	}
	server := httptest.NewServer(middleware.CORS(mux))
	t.Cleanup(server.Close)
	return lock, jwtManager, server.URL
}

func invoke(url, procedure, token string) (*echo, error) {
	client := connect.NewClient[echo, echo](http.DefaultClient, url+procedure, service.WithJSON())
	req := connect.NewRequest(&echo{})
	if token != "" {
		req.Header().Set("Authorization", token)
	}
	res, err := client.CallUnary(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func TestRequireUnlocked_Disabled(t *testing.T) {
	_, _, url := setup(t, false)

	res, err := invoke(url, privateProcedure, "")
	require.NoError(t, err)
	assert.Empty(t, res.Session)
}

func TestRequireUnlocked_Locked(t *testing.T) {
	_, jwtManager, url := setup(t, true)
	token, _, err := jwtManager.Generate()
	require.NoError(t, err)

	_, err = invoke(url, privateProcedure, "Bearer "+token)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = invoke(url, publicProcedure, "")
	assert.NoError(t, err)
}

func TestRequireUnlocked_Unlocked(t *testing.T) {
	lock, jwtManager, url := setup(t, true)
	require.NoError(t, lock.SubmitPin("1234"))

	token, claims, err := jwtManager.Generate()
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   connect.Code
	}{
		{name: "missing token", header: "", code: connect.CodeUnauthenticated},
		{name: "wrong scheme", header: "Basic " + token, code: connect.CodeUnauthenticated},
		{name: "garbage token", header: "Bearer nope", code: connect.CodeUnauthenticated},
		{name: "valid token", header: "Bearer " + token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := invoke(url, privateProcedure, tt.header)
			if tt.code != 0 {
				assert.Equal(t, tt.code, connect.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, claims.SessionID, res.Session)
		})
	}
}

func TestRequireUnlocked_PublicCarriesSession(t *testing.T) {
	lock, jwtManager, url := setup(t, true)
	require.NoError(t, lock.SubmitPin("1234"))
	token, claims, err := jwtManager.Generate()
	require.NoError(t, err)

	res, err := invoke(url, publicProcedure, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, claims.SessionID, res.Session)
}

func TestCORS_Preflight(t *testing.T) {
	handler := middleware.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight reached the handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, privateProcedure, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
