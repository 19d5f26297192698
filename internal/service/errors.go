package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/internal/auth"
	"github.com/mmynk/debtledger/internal/backup"
	"github.com/mmynk/debtledger/internal/config"
	"github.com/mmynk/debtledger/internal/ledger"
)

// toConnectError maps domain errors to Connect codes. Unknown errors are
// logged and reported as internal.
func toConnectError(logger *slog.Logger, op string, err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, backup.ErrImportParse),
		errors.Is(err, auth.ErrWeakPin),
		errors.Is(err, auth.ErrPinMismatch),
		errors.Is(err, config.ErrEmptyCurrency),
		errors.Is(err, config.ErrDuplicateCurrency):
		code = connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, config.ErrUnknownCurrency):
		code = connect.CodeNotFound
	case errors.Is(err, ledger.ErrBlockedByActiveDebt),
		errors.Is(err, auth.ErrInvalidTransition),
		errors.Is(err, config.ErrLastCurrency),
		errors.Is(err, config.ErrDefaultCurrency):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, auth.ErrAuthenticationFailed):
		code = connect.CodeUnauthenticated
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}

	if code == connect.CodeInternal {
		logger.Error(op+" failed", "error", err)
	} else {
		logger.Warn(op+" rejected", "code", code, "error", err)
	}
	return connect.NewError(code, err)
}
