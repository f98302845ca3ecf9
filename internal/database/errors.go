package database

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/apperrors"
)

// PostgreSQL SQLSTATE codes the application reacts to.
const (
	codeUniqueViolation = "23505"
	codeDuplicateTable  = "42P07"
	codeUndefinedTable  = "42P01"
	codeUndefinedColumn = "42703"
)

// ClassifyError converts a driver error into an application error. Errors
// that already carry a kind are returned unchanged.
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeDuplicateTable:
			return apperrors.Wrap(apperrors.Conflict, err, op+": record already exists")
		case codeUndefinedTable, codeUndefinedColumn:
			return apperrors.Wrap(apperrors.NotFound, err, op+": "+pgErr.Message)
		}
		return apperrors.Wrap(apperrors.StoreOperationFailed, err, op+" failed")
	}

	if isUnavailable(err) {
		return apperrors.Wrap(apperrors.StoreUnavailable, err, "database unavailable")
	}

	return apperrors.Wrap(apperrors.StoreOperationFailed, err, op+" failed")
}

func isUnavailable(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
