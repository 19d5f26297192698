package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/internal/auth"
)

// LockObserver is told the outcome of every lock operation.
type LockObserver interface {
	ObserveLock(op string, err error)
}

// LockService exposes the access lock.
type LockService struct {
	lock       *auth.Lock
	jwtManager *auth.JWTManager
	observer   LockObserver
	logger     *slog.Logger
}

// NewLockService creates the lock RPC service. observer may be nil.
func NewLockService(lock *auth.Lock, jwtManager *auth.JWTManager, observer LockObserver, logger *slog.Logger) *LockService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LockService{lock: lock, jwtManager: jwtManager, observer: observer, logger: logger}
}

// Handler returns the mount path and the HTTP handler of the service.
func (s *LockService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	r := newRouter(opts)
	handle(r, GetLockStateProcedure, s.GetState)
	handle(r, SubmitPinProcedure, s.SubmitPin)
	handle(r, ForgotPinProcedure, s.ForgotPin)
	handle(r, EnablePinProcedure, s.EnablePin)
	handle(r, SetPinProcedure, s.SetPin)
	handle(r, DisablePinProcedure, s.DisablePin)
	return servicePath(LockServiceName), r.mux
}

func (s *LockService) GetState(_ context.Context, _ *Empty) (*LockStateResponse, error) {
	res := s.state()
	if notice := s.lock.Notice(); notice != nil {
		res.Notice = notice.Error()
	}
	return res, nil
}

// SubmitPin unlocks the ledger and returns a session token.
func (s *LockService) SubmitPin(_ context.Context, req *SubmitPinRequest) (*LockStateResponse, error) {
	err := s.lock.SubmitPin(req.Pin)
	s.observe("submit_pin", err)
	if err != nil {
		return nil, toConnectError(s.logger, "SubmitPin", err)
	}

	token, claims, err := s.jwtManager.Generate()
	if err != nil {
		return nil, toConnectError(s.logger, "SubmitPin", err)
	}
	s.logger.Info("Session started", "session_id", claims.SessionID)

	res := s.state()
	res.Token = token
	return res, nil
}

func (s *LockService) ForgotPin(ctx context.Context, _ *Empty) (*LockStateResponse, error) {
	err := s.lock.ForgotPin(ctx)
	s.observe("forgot_pin", err)
	if err != nil {
		return nil, toConnectError(s.logger, "ForgotPin", err)
	}
	return s.state(), nil
}

func (s *LockService) EnablePin(ctx context.Context, _ *Empty) (*LockStateResponse, error) {
	err := s.lock.EnablePin(ctx)
	s.observe("enable_pin", err)
	if err != nil {
		return nil, toConnectError(s.logger, "EnablePin", err)
	}
	return s.state(), nil
}

func (s *LockService) SetPin(ctx context.Context, req *SetPinRequest) (*LockStateResponse, error) {
	err := s.lock.SetPin(ctx, req.Pin, req.Confirm)
	s.observe("set_pin", err)
	if err != nil {
		return nil, toConnectError(s.logger, "SetPin", err)
	}
	return s.state(), nil
}

func (s *LockService) DisablePin(ctx context.Context, _ *Empty) (*LockStateResponse, error) {
	err := s.lock.DisablePin(ctx)
	s.observe("disable_pin", err)
	if err != nil {
		return nil, toConnectError(s.logger, "DisablePin", err)
	}
	return s.state(), nil
}

func (s *LockService) state() *LockStateResponse {
	return &LockStateResponse{State: s.lock.State().String()}
}

func (s *LockService) observe(op string, err error) {
	if s.observer != nil {
		s.observer.ObserveLock(op, err)
	}
}
