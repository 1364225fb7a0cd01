package order

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func beginTestTx(t *testing.T, db *sql.DB) *sql.Tx {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	return tx
}

func TestRepositoryCreateTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	o := &Order{
		ID:          "order-123",
		UserID:      "user-1",
		Status:      StatusPending,
		TotalAmount: decimal.RequireFromString("25.50"),
		Shipping:    ShippingInfo{Name: "Ada", Address: "1 Main St", City: "Pune", Zip: "411001", Phone: "555"},
		CreatedAt:   now,
		Items: []Item{
			{ProductID: "p1", Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
			{ProductID: "p2", Quantity: 2, UnitPrice: decimal.RequireFromString("7.75")},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(o.ID, o.UserID, o.Status, o.TotalAmount,
			"Ada", "1 Main St", "Pune", "411001", "555", o.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WithArgs(sqlmock.AnyArg(), o.ID, "p1", 1, o.Items[0].UnitPrice).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WithArgs(sqlmock.AnyArg(), o.ID, "p2", 2, o.Items[1].UnitPrice).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx := beginTestTx(t, db)
	require.NoError(t, repo.CreateTx(ctx, tx, o))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateTx_ItemInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	o := &Order{
		ID:          "order-123",
		UserID:      "user-1",
		Status:      StatusPending,
		TotalAmount: decimal.RequireFromString("10.00"),
		CreatedAt:   time.Now(),
		Items:       []Item{{ProductID: "p1", Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	tx := beginTestTx(t, db)
	err = repo.CreateTx(context.Background(), tx, o)
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func orderRows(o *Order) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "status", "total_amount",
		"shipping_name", "shipping_address", "shipping_city", "shipping_zip", "shipping_phone",
		"gateway_order_id", "created_at",
	}).AddRow(o.ID, o.UserID, string(o.Status), o.TotalAmount.String(),
		o.Shipping.Name, o.Shipping.Address, o.Shipping.City, o.Shipping.Zip, o.Shipping.Phone,
		o.GatewayOrderID, o.CreatedAt)
}

func TestRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	want := &Order{
		ID:          "order-123",
		UserID:      "user-1",
		Status:      StatusPaid,
		TotalAmount: decimal.RequireFromString("25.50"),
		CreatedAt:   now,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("order-123").
		WillReturnRows(orderRows(want))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT product_id, quantity, unit_price FROM order_items`)).
		WithArgs("order-123").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "unit_price"}).
			AddRow("p1", 1, "10.00").
			AddRow("p2", 2, "7.75"))

	got, err := repo.GetByID(context.Background(), "order-123")
	require.NoError(t, err)
	require.Equal(t, "order-123", got.ID)
	require.Equal(t, StatusPaid, got.Status)
	require.Len(t, got.Items, 2)
	require.True(t, got.TotalAmount.Equal(want.TotalAmount))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRepositoryUpdateStatusTx_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status`)).
		WithArgs("nope", StatusPaid).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx := beginTestTx(t, db)
	err = repo.UpdateStatusTx(context.Background(), tx, "nope", StatusPaid)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, tx.Rollback())
}
