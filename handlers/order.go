package handlers

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/havrebakery/bakery-api/database"
	"github.com/havrebakery/bakery-api/database/dbhelper"
	"github.com/havrebakery/bakery-api/middlewares"
	"github.com/havrebakery/bakery-api/models"
	"github.com/havrebakery/bakery-api/utils"
)

// CreateOrder places a customer order. The whole placement runs in a single
// transaction: every line is validated against the live catalog and its stock
// reserved with a conditional decrement, and any failing line rolls back the
// reservations already made, so a rejected order never mutates state.
//
// The unit price on each line is taken from the request; only existence,
// activity and stock are checked against the catalog.
func CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in models.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := in.Validate(); len(errs) > 0 {
		utils.RespondValidationErrors(w, errs)
		return
	}

	var createdBy *uuid.UUID
	if user, err := middlewares.GetAuthenticatedUser(r); err == nil {
		createdBy = &user.ID
	}

	order := &models.Order{
		OrderNumber:           utils.GenerateOrderNumber(),
		Customer:              in.Customer,
		OrderType:             in.OrderType,
		PaymentMethod:         in.PaymentMethod,
		Status:                models.StatusPending,
		PaymentStatus:         models.PaymentStatusPending,
		SpecialInstructions:   in.SpecialInstructions,
		RequestedDeliveryTime: in.RequestedDeliveryTime,
		CreatedBy:             createdBy,
	}
	if in.OrderType == models.OrderTypeDelivery {
		order.DeliveryAddress = in.DeliveryAddress
	}

	var failure error
	var failedProduct string
	txErr := database.Tx(func(tx *sql.Tx) error {
		for _, line := range in.Items {
			name, category, isActive, err := dbhelper.GetProductForOrder(tx, line.Product)
			if err != nil {
				failure = err
				failedProduct = line.Product.String()
				return err
			}
			if !isActive {
				failure = dbhelper.ErrProductInactive
				failedProduct = name
				return failure
			}
			if err := dbhelper.ReserveStock(tx, line.Product, line.Quantity); err != nil {
				failure = err
				failedProduct = name
				return err
			}

			productID := line.Product
			order.Items = append(order.Items, models.OrderItem{
				ProductID: &productID,
				Name:      name,
				Price:     line.Price,
				Category:  category,
				Quantity:  line.Quantity,
				Subtotal:  line.Price * float64(line.Quantity),
			})
		}

		totals := models.CalculateTotals(order.Items, order.OrderType)
		order.Subtotal = totals.Subtotal
		order.Tax = totals.Tax
		order.DeliveryFee = totals.DeliveryFee
		order.Total = totals.Total

		return dbhelper.CreateOrder(tx, order)
	})

	switch {
	case txErr == nil:
		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"message": "Order created successfully",
			"order":   order,
		})
	case errors.Is(failure, dbhelper.ErrProductNotFound):
		utils.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Product not found: %s", failedProduct))
	case errors.Is(failure, dbhelper.ErrProductInactive):
		utils.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Product is not available: %s", failedProduct))
	case errors.Is(failure, dbhelper.ErrInsufficientStock):
		utils.RespondError(w, http.StatusConflict, fmt.Sprintf("Insufficient stock for %s", failedProduct))
	default:
		logrus.WithError(txErr).Error("failed to create order")
		utils.RespondError(w, http.StatusInternalServerError, "Server error creating order")
	}
}

func orderFilterFromQuery(r *http.Request) dbhelper.OrderFilter {
	q := r.URL.Query()
	filter := dbhelper.OrderFilter{
		Status:        models.OrderStatus(q.Get("status")),
		OrderType:     models.OrderType(q.Get("orderType")),
		PaymentStatus: models.PaymentStatus(q.Get("paymentStatus")),
		SortBy:        q.Get("sortBy"),
		SortDesc:      q.Get("sortOrder") == "desc" || q.Get("sortBy") == "",
	}
	if t, err := time.Parse(time.RFC3339, q.Get("startDate")); err == nil {
		filter.StartDate = &t
	}
	if t, err := time.Parse(time.RFC3339, q.Get("endDate")); err == nil {
		filter.EndDate = &t
	}
	return filter
}

func GetOrders(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 10)
	filter := orderFilterFromQuery(r)
	filter.Limit = limit
	filter.Offset = offset

	orders, err := dbhelper.ListOrders(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to list orders")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting orders")
		return
	}
	total, err := dbhelper.CountOrders(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to count orders")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting orders")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"orders":     orders,
		"pagination": paginationPayload(page, limit, total),
	})
}

func GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := dbhelper.GetOrderByID(id)
	if errors.Is(err, dbhelper.ErrOrderNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Order not found")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to get order")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting order")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

func UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	type request struct {
		Customer              models.Customer      `json:"customer"`
		PaymentStatus         models.PaymentStatus `json:"paymentStatus"`
		SpecialInstructions   string               `json:"specialInstructions"`
		RequestedDeliveryTime *time.Time           `json:"requestedDeliveryTime"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := dbhelper.GetOrderByID(id)
	if errors.Is(err, dbhelper.ErrOrderNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Order not found")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to load order")
		utils.RespondError(w, http.StatusInternalServerError, "Server error updating order")
		return
	}

	update := dbhelper.OrderUpdate{
		Customer:              existing.Customer,
		PaymentStatus:         existing.PaymentStatus,
		SpecialInstructions:   existing.SpecialInstructions,
		RequestedDeliveryTime: existing.RequestedDeliveryTime,
	}
	if req.Customer.Name != "" {
		update.Customer.Name = req.Customer.Name
	}
	if req.Customer.Email != "" {
		update.Customer.Email = req.Customer.Email
	}
	if req.Customer.Phone != "" {
		update.Customer.Phone = req.Customer.Phone
	}
	if req.PaymentStatus != "" {
		if !req.PaymentStatus.IsValid() {
			utils.RespondValidationErrors(w, []models.FieldError{
				{Field: "paymentStatus", Message: "Invalid payment status"},
			})
			return
		}
		update.PaymentStatus = req.PaymentStatus
	}
	if req.SpecialInstructions != "" {
		update.SpecialInstructions = req.SpecialInstructions
	}
	if req.RequestedDeliveryTime != nil {
		update.RequestedDeliveryTime = req.RequestedDeliveryTime
	}

	order, err := dbhelper.UpdateOrder(id, update)
	if err != nil {
		logrus.WithError(err).Error("failed to update order")
		utils.RespondError(w, http.StatusInternalServerError, "Server error updating order")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order updated successfully",
		"order":   order,
	})
}

func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	type request struct {
		Status models.OrderStatus `json:"status"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Status.IsValid() {
		utils.RespondValidationErrors(w, []models.FieldError{
			{Field: "status", Message: "Invalid order status"},
		})
		return
	}

	order, err := dbhelper.UpdateOrderStatus(id, req.Status)
	if errors.Is(err, dbhelper.ErrOrderNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Order not found")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to update order status")
		utils.RespondError(w, http.StatusInternalServerError, "Server error updating order status")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order status updated successfully",
		"order": map[string]interface{}{
			"id":                 order.ID,
			"orderNumber":        order.OrderNumber,
			"status":             order.Status,
			"actualDeliveryTime": order.ActualDeliveryTime,
		},
	})
}

// DeleteOrder permanently removes an order. Unless the order was already
// cancelled, each line's quantity goes back to its product's stock and the
// sales count is decremented, in the same transaction as the removal.
func DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	txErr := database.Tx(func(tx *sql.Tx) error {
		status, items, err := dbhelper.GetOrderForDelete(tx, id)
		if err != nil {
			return err
		}
		if status != models.StatusCancelled {
			for _, item := range items {
				// a nil product id means the product was hard-deleted;
				// there is no stock row left to restore
				if item.ProductID == nil {
					continue
				}
				if err := dbhelper.RestoreStock(tx, *item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return dbhelper.DeleteOrder(tx, id)
	})
	if errors.Is(txErr, dbhelper.ErrOrderNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Order not found")
		return
	} else if txErr != nil {
		logrus.WithError(txErr).Error("failed to delete order")
		utils.RespondError(w, http.StatusInternalServerError, "Server error deleting order")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order deleted successfully",
	})
}

func SearchOrders(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 10)
	filter := dbhelper.OrderFilter{
		Search:    r.URL.Query().Get("q"),
		Status:    models.OrderStatus(r.URL.Query().Get("status")),
		OrderType: models.OrderType(r.URL.Query().Get("orderType")),
		SortBy:    "createdAt",
		SortDesc:  true,
		Limit:     limit,
		Offset:    offset,
	}

	orders, err := dbhelper.ListOrders(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to search orders")
		utils.RespondError(w, http.StatusInternalServerError, "Server error searching orders")
		return
	}
	total, err := dbhelper.CountOrders(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to count orders")
		utils.RespondError(w, http.StatusInternalServerError, "Server error searching orders")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"orders":     orders,
		"total":      total,
		"pagination": paginationPayload(page, limit, total),
	})
}

// GetOrderStats summarises orders placed since the start of the requested
// period. Unlike the dashboard rollups, cancelled orders are included here.
func GetOrderStats(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	now := time.Now()
	var start time.Time
	switch period {
	case "week":
		start = now.AddDate(0, 0, -7)
	case "year":
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		period = "month"
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}

	orders, err := dbhelper.ListOrders(dbhelper.OrderFilter{StartDate: &start, SortBy: "createdAt"})
	if err != nil {
		logrus.WithError(err).Error("failed to load orders for stats")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting order statistics")
		return
	}

	var totalRevenue float64
	statusBreakdown := map[models.OrderStatus]int{}
	orderTypeBreakdown := map[models.OrderType]int{}
	paymentMethodBreakdown := map[models.PaymentMethod]int{}
	for _, order := range orders {
		totalRevenue += order.Total
		statusBreakdown[order.Status]++
		orderTypeBreakdown[order.OrderType]++
		paymentMethodBreakdown[order.PaymentMethod]++
	}

	averageOrderValue := 0.0
	if len(orders) > 0 {
		averageOrderValue = totalRevenue / float64(len(orders))
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"period":  period,
		"stats": map[string]interface{}{
			"totalOrders":            len(orders),
			"totalRevenue":           totalRevenue,
			"averageOrderValue":      averageOrderValue,
			"statusBreakdown":        statusBreakdown,
			"orderTypeBreakdown":     orderTypeBreakdown,
			"paymentMethodBreakdown": paymentMethodBreakdown,
		},
	})
}

func ExportOrders(w http.ResponseWriter, r *http.Request) {
	filter := dbhelper.OrderFilter{
		Status:   models.OrderStatus(r.URL.Query().Get("status")),
		SortBy:   "createdAt",
		SortDesc: true,
	}
	if t, err := time.Parse(time.RFC3339, r.URL.Query().Get("startDate")); err == nil {
		filter.StartDate = &t
	}
	if t, err := time.Parse(time.RFC3339, r.URL.Query().Get("endDate")); err == nil {
		filter.EndDate = &t
	}

	orders, err := dbhelper.ListOrders(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to export orders")
		utils.RespondError(w, http.StatusInternalServerError, "Server error exporting orders")
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"orders":  orders,
		})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=orders.csv")
	writer := csv.NewWriter(w)
	writer.Write([]string{"Order Number", "Customer Name", "Email", "Total", "Status", "Date"})
	for _, o := range orders {
		writer.Write([]string{
			o.OrderNumber,
			o.Customer.Name,
			o.Customer.Email,
			strconv.FormatFloat(o.Total, 'f', 2, 64),
			string(o.Status),
			o.CreatedAt.Format(time.RFC3339),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		logrus.WithError(err).Error("failed to write order csv")
	}
}
