package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/pedidos-api/internal/domain"
)

// Querier es lo común entre *pgxpool.Pool y pgx.Tx; los repos funcionan con cualquiera.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Códigos SQLSTATE usados.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// validID los ids son UUID; un id mal formado no puede existir y se trata como no encontrado.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// nullableID para columnas uuid opcionales (created_by): vacío o no-UUID se guarda como NULL.
func nullableID(s string) any {
	if !validID(s) {
		return nil
	}
	return s
}

// mapError traduce errores de PostgreSQL a errores de dominio. Deadlocks, fallas de
// serialización, timeouts de lock y cortes de conexión se reportan como ErrUnavailable
// sin exponer el detalle del motor.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return domain.ErrDuplicate
		case codeCheckViolation, codeNumericOutOfRange:
			return fmt.Errorf("%s: %w", op, domain.ErrInvalidInput)
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeQueryCanceled:
			return fmt.Errorf("%s: %w [%s]", op, domain.ErrUnavailable, pgErr.Code)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
