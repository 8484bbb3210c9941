package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pedidos-api/internal/domain"
)

const (
	testCompanyID = "6f1c2d3e-0000-4000-8000-000000000001"
	testProductID = "6f1c2d3e-0000-4000-8000-0000000000aa"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestInventoryLedger_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("descuenta bajo lock", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT stock FROM products`).
			WithArgs(testProductID, testCompanyID).
			WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(10))
		mock.ExpectQuery(`UPDATE products SET stock = stock - \$2`).
			WithArgs(testProductID, 4).
			WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(6))

		stock, err := NewInventoryLedger(mock).Reserve(ctx, testCompanyID, testProductID, 4)
		require.NoError(t, err)
		assert.Equal(t, 6, stock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stock insuficiente no escribe", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT stock FROM products`).
			WithArgs(testProductID, testCompanyID).
			WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(3))

		_, err := NewInventoryLedger(mock).Reserve(ctx, testCompanyID, testProductID, 5)
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		var ise *domain.InsufficientStockError
		require.True(t, errors.As(err, &ise))
		assert.Equal(t, 5, ise.Requested)
		assert.Equal(t, 3, ise.Available)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("producto ajeno o inactivo", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT stock FROM products`).
			WithArgs(testProductID, testCompanyID).
			WillReturnError(pgx.ErrNoRows)

		_, err := NewInventoryLedger(mock).Reserve(ctx, testCompanyID, testProductID, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("id mal formado no consulta", func(t *testing.T) {
		mock := newMock(t)
		_, err := NewInventoryLedger(mock).Reserve(ctx, testCompanyID, "no-es-uuid", 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cantidad inválida", func(t *testing.T) {
		mock := newMock(t)
		_, err := NewInventoryLedger(mock).Reserve(ctx, testCompanyID, testProductID, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("deadlock es reintentable", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT stock FROM products`).
			WithArgs(testProductID, testCompanyID).
			WillReturnError(&pgconn.PgError{Code: codeDeadlockDetected, Message: "deadlock detected"})

		_, err := NewInventoryLedger(mock).Reserve(ctx, testCompanyID, testProductID, 1)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		assert.NotContains(t, err.Error(), "deadlock detected")
	})
}

func TestInventoryLedger_Replenish(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT stock FROM products`).
		WithArgs(testProductID, testCompanyID).
		WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(0))
	mock.ExpectQuery(`UPDATE products SET stock = stock \+ \$2`).
		WithArgs(testProductID, 7).
		WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(7))

	stock, err := NewInventoryLedger(mock).Replenish(context.Background(), testCompanyID, testProductID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}
