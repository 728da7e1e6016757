package dbhelper

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/havrebakery/bakery-api/database"
	"github.com/havrebakery/bakery-api/models"
)

var ErrOrderNotFound = errors.New("order not found")

const orderColumns = `id, order_number, customer_name, customer_email, customer_phone,
	subtotal, tax, delivery_fee, total, order_type, payment_method, status,
	payment_status, delivery_address, special_instructions,
	requested_delivery_time, actual_delivery_time, created_by, created_at, updated_at`

var orderSortColumns = map[string]string{
	"orderNumber": "order_number",
	"total":       "total",
	"status":      "status",
	"createdAt":   "created_at",
}

func scanOrder(row scanner) (*models.Order, error) {
	var o models.Order
	var address []byte
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Customer.Name, &o.Customer.Email,
		&o.Customer.Phone, &o.Subtotal, &o.Tax, &o.DeliveryFee, &o.Total,
		&o.OrderType, &o.PaymentMethod, &o.Status, &o.PaymentStatus, &address,
		&o.SpecialInstructions, &o.RequestedDeliveryTime, &o.ActualDeliveryTime,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(address) > 0 {
		o.DeliveryAddress = &models.DeliveryAddress{}
		if err := json.Unmarshal(address, o.DeliveryAddress); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

// CreateOrder persists the order row and its item snapshots inside the
// caller's transaction.
func CreateOrder(tx *sql.Tx, order *models.Order) error {
	var address interface{}
	if order.DeliveryAddress != nil {
		encoded, err := json.Marshal(order.DeliveryAddress)
		if err != nil {
			return err
		}
		address = encoded
	}

	err := tx.QueryRow(`
		INSERT INTO orders (order_number, customer_name, customer_email, customer_phone,
			subtotal, tax, delivery_fee, total, order_type, payment_method, status,
			payment_status, delivery_address, special_instructions,
			requested_delivery_time, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`,
		order.OrderNumber, order.Customer.Name, order.Customer.Email, order.Customer.Phone,
		order.Subtotal, order.Tax, order.DeliveryFee, order.Total, order.OrderType,
		order.PaymentMethod, order.Status, order.PaymentStatus, address,
		order.SpecialInstructions, order.RequestedDeliveryTime, order.CreatedBy).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := tx.QueryRow(`
			INSERT INTO order_items (order_id, product_id, name, price, category, quantity, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			order.ID, item.ProductID, item.Name, item.Price, item.Category,
			item.Quantity, item.Subtotal).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func loadOrderItems(orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	index := make(map[uuid.UUID]*models.Order, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		index[orders[i].ID] = &orders[i]
	}

	rows, err := database.Bakery.Query(`
		SELECT id, order_id, product_id, name, price, category, quantity, subtotal
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var productID uuid.NullUUID
		if err := rows.Scan(&item.ID, &item.OrderID, &productID, &item.Name,
			&item.Price, &item.Category, &item.Quantity, &item.Subtotal); err != nil {
			return err
		}
		if productID.Valid {
			item.ProductID = &productID.UUID
		}
		if order, ok := index[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return rows.Err()
}

func GetOrderByID(id uuid.UUID) (*models.Order, error) {
	order, err := scanOrder(database.Bakery.QueryRow(`
		SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	orders := []models.Order{*order}
	if err := loadOrderItems(orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

type OrderFilter struct {
	Status        models.OrderStatus
	OrderType     models.OrderType
	PaymentStatus models.PaymentStatus
	StartDate     *time.Time
	// EndDate bounds the range inclusively, for caller-supplied ranges.
	EndDate *time.Time
	// EndBefore bounds the range exclusively, so adjacent reporting windows
	// never count a boundary order twice.
	EndBefore        *time.Time
	Search           string
	ExcludeCancelled bool
	SortBy           string
	SortDesc         bool
	Limit            int
	Offset           int
}

func (f OrderFilter) where() (string, []interface{}) {
	clauses := []string{"TRUE"}
	var args []interface{}
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ExcludeCancelled {
		args = append(args, models.StatusCancelled)
		clauses = append(clauses, fmt.Sprintf("status <> $%d", len(args)))
	}
	if f.OrderType != "" {
		args = append(args, f.OrderType)
		clauses = append(clauses, fmt.Sprintf("order_type = $%d", len(args)))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		clauses = append(clauses, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if f.EndBefore != nil {
		args = append(args, *f.EndBefore)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(order_number ILIKE $%d OR customer_name ILIKE $%d OR customer_email ILIKE $%d OR customer_phone ILIKE $%d)",
			n, n, n, n))
	}
	return strings.Join(clauses, " AND "), args
}

func (f OrderFilter) orderBy() string {
	column, ok := orderSortColumns[f.SortBy]
	if !ok {
		return "created_at DESC"
	}
	if f.SortDesc {
		return column + " DESC"
	}
	return column + " ASC"
}

func ListOrders(filter OrderFilter) ([]models.Order, error) {
	where, args := filter.where()
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE %s
		ORDER BY %s`,
		orderColumns, where, filter.orderBy())
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := database.Bakery.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadOrderItems(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func CountOrders(filter OrderFilter) (int, error) {
	where, args := filter.where()
	var count int
	err := database.Bakery.QueryRow(`SELECT COUNT(*) FROM orders WHERE `+where, args...).Scan(&count)
	return count, err
}

// OrderUpdate covers the admin-editable fields; items and totals are fixed at
// creation time.
type OrderUpdate struct {
	Customer              models.Customer
	PaymentStatus         models.PaymentStatus
	SpecialInstructions   string
	RequestedDeliveryTime *time.Time
}

func UpdateOrder(id uuid.UUID, in OrderUpdate) (*models.Order, error) {
	order, err := scanOrder(database.Bakery.QueryRow(`
		UPDATE orders
		SET customer_name = $2, customer_email = $3, customer_phone = $4,
			payment_status = $5, special_instructions = $6,
			requested_delivery_time = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		id, in.Customer.Name, in.Customer.Email, in.Customer.Phone,
		in.PaymentStatus, in.SpecialInstructions, in.RequestedDeliveryTime))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	orders := []models.Order{*order}
	if err := loadOrderItems(orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// UpdateOrderStatus sets any valid status; reaching delivered stamps the
// actual delivery time.
func UpdateOrderStatus(id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	query := `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + orderColumns
	if status == models.StatusDelivered {
		query = `
		UPDATE orders SET status = $2, actual_delivery_time = now(), updated_at = now()
		WHERE id = $1
		RETURNING ` + orderColumns
	}
	order, err := scanOrder(database.Bakery.QueryRow(query, id, status))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// GetOrderForDelete reads the order status and its line items inside the
// deletion transaction, locking the order row.
func GetOrderForDelete(tx *sql.Tx, id uuid.UUID) (models.OrderStatus, []models.OrderItem, error) {
	var status models.OrderStatus
	err := tx.QueryRow(`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", nil, ErrOrderNotFound
	}
	if err != nil {
		return "", nil, err
	}

	rows, err := tx.Query(`
		SELECT product_id, quantity FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return "", nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		var productID uuid.NullUUID
		if err := rows.Scan(&productID, &item.Quantity); err != nil {
			return "", nil, err
		}
		if productID.Valid {
			item.ProductID = &productID.UUID
		}
		items = append(items, item)
	}
	return status, items, rows.Err()
}

func DeleteOrder(tx *sql.Tx, id uuid.UUID) error {
	_, err := tx.Exec(`DELETE FROM orders WHERE id = $1`, id)
	return err
}

// ListRecentOrders returns the newest orders regardless of status, for the
// dashboard table.
func ListRecentOrders(limit int) ([]models.Order, error) {
	return ListOrders(OrderFilter{SortBy: "createdAt", SortDesc: true, Limit: limit})
}

// ListStalePendingOrders finds orders still pending past the cutoff, for the
// nightly reminder job.
func ListStalePendingOrders(cutoff time.Time) ([]models.Order, error) {
	return ListOrders(OrderFilter{
		Status:  models.StatusPending,
		EndDate: &cutoff,
		SortBy:  "createdAt",
	})
}
