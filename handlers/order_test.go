package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havrebakery/bakery-api/database"
	"github.com/havrebakery/bakery-api/models"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	database.Bakery = db
	t.Cleanup(func() { db.Close() })
	return mock
}

func orderRequestBody(t *testing.T, items []models.OrderItemInput) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(models.OrderInput{
		Customer:      models.Customer{Name: "Jane Doe", Email: "jane@example.com", Phone: "555-0101"},
		Items:         items,
		OrderType:     models.OrderTypePickup,
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func productForOrderRows(name string, category models.Category, isActive bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"name", "category", "is_active"}).
		AddRow(name, string(category), isActive)
}

func TestCreateOrderCommitsReservations(t *testing.T) {
	mock := newMockDB(t)
	croissant := uuid.New()
	orderID, itemID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name, category, is_active FROM products`).
		WithArgs(croissant).
		WillReturnRows(productForOrderRows("Croissant", models.CategoryPastries, true))
	mock.ExpectExec(`UPDATE products`).
		WithArgs(croissant, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(orderID.String(), now, now))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(itemID.String()))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", orderRequestBody(t, []models.OrderItemInput{
		{Product: croissant, Quantity: 2, Price: 3.50},
	}))
	CreateOrder(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orderNumber":"ORD-`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A line failing its stock reservation must roll back the whole transaction,
// including reservations already made for earlier lines.
func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	mock := newMockDB(t)
	croissant, sourdough := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name, category, is_active FROM products`).
		WithArgs(croissant).
		WillReturnRows(productForOrderRows("Croissant", models.CategoryPastries, true))
	mock.ExpectExec(`UPDATE products`).
		WithArgs(croissant, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT name, category, is_active FROM products`).
		WithArgs(sourdough).
		WillReturnRows(productForOrderRows("Sourdough", models.CategoryBread, true))
	mock.ExpectExec(`UPDATE products`).
		WithArgs(sourdough, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", orderRequestBody(t, []models.OrderItemInput{
		{Product: croissant, Quantity: 2, Price: 3.50},
		{Product: sourdough, Quantity: 5, Price: 6.99},
	}))
	CreateOrder(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient stock for Sourdough")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderInactiveProductRollsBack(t *testing.T) {
	mock := newMockDB(t)
	eclair := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT name, category, is_active FROM products`).
		WithArgs(eclair).
		WillReturnRows(productForOrderRows("Eclair", models.CategoryPastries, false))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", orderRequestBody(t, []models.OrderItemInput{
		{Product: eclair, Quantity: 1, Price: 4.25},
	}))
	CreateOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product is not available: Eclair")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func deleteOrderRequest(orderID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/api/orders/"+orderID.String(), nil)
	return mux.SetURLVars(req, map[string]string{"id": orderID.String()})
}

// Deleting a non-cancelled order puts each line's quantity back; a line whose
// product was hard-deleted is skipped, not an error.
func TestDeleteOrderRestoresStock(t *testing.T) {
	mock := newMockDB(t)
	orderID, productID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders`).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectQuery(`SELECT product_id, quantity FROM order_items`).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity"}).
			AddRow(productID.String(), 3).
			AddRow(nil, 2))
	mock.ExpectExec(`UPDATE products`).
		WithArgs(productID, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM orders`).
		WithArgs(orderID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	DeleteOrder(rec, deleteOrderRequest(orderID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCancelledOrderLeavesStockAlone(t *testing.T) {
	mock := newMockDB(t)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders`).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))
	mock.ExpectQuery(`SELECT product_id, quantity FROM order_items`).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity"}).
			AddRow(uuid.New().String(), 4))
	mock.ExpectExec(`DELETE FROM orders`).
		WithArgs(orderID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := httptest.NewRecorder()
	DeleteOrder(rec, deleteOrderRequest(orderID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrderNotFound(t *testing.T) {
	mock := newMockDB(t)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders`).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	DeleteOrder(rec, deleteOrderRequest(orderID))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
