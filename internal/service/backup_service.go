package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/internal/backup"
)

var errClearNotConfirmed = errors.New("clear requires confirm=true")

// BackupObserver is told the outcome of every backup operation.
type BackupObserver interface {
	ObserveBackup(op string, err error)
}

// BackupService exposes export, import and clear.
type BackupService struct {
	backup   *backup.Service
	observer BackupObserver
	now      func() time.Time
	logger   *slog.Logger
}

// NewBackupService creates the backup RPC service. observer may be nil.
func NewBackupService(b *backup.Service, observer BackupObserver, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{backup: b, observer: observer, now: time.Now, logger: logger}
}

// Handler returns the mount path and the HTTP handler of the service.
func (s *BackupService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	r := newRouter(opts)
	handle(r, ExportProcedure, s.Export)
	handle(r, ImportProcedure, s.Import)
	handle(r, ClearProcedure, s.Clear)
	return servicePath(BackupServiceName), r.mux
}

// Export returns the backup document and its suggested file name.
func (s *BackupService) Export(ctx context.Context, _ *Empty) (*ExportResponse, error) {
	doc, err := s.backup.ExportAll(ctx)
	s.observe("export", err)
	if err != nil {
		return nil, toConnectError(s.logger, "Export", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, toConnectError(s.logger, "Export", err)
	}
	return &ExportResponse{Filename: backup.Filename(s.now()), Document: raw}, nil
}

// Import restores a backup document. A malformed document is rejected with
// InvalidArgument and nothing is written.
func (s *BackupService) Import(ctx context.Context, req *ImportRequest) (*ImportResponse, error) {
	doc, err := backup.Parse(req.Document)
	if err == nil {
		err = s.backup.ImportAll(ctx, req.Document)
	}
	s.observe("import", err)
	if err != nil {
		return nil, toConnectError(s.logger, "Import", err)
	}
	return &ImportResponse{Keys: len(doc)}, nil
}

// Clear wipes the store.
func (s *BackupService) Clear(ctx context.Context, req *ClearRequest) (*Empty, error) {
	if !req.Confirm {
		return nil, connect.NewError(connect.CodeInvalidArgument, errClearNotConfirmed)
	}
	err := s.backup.ClearAll(ctx)
	s.observe("clear", err)
	if err != nil {
		return nil, toConnectError(s.logger, "Clear", err)
	}
	return &Empty{}, nil
}

func (s *BackupService) observe(op string, err error) {
	if s.observer != nil {
		s.observer.ObserveBackup(op, err)
	}
}
