package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/havrebakery/bakery-api/database/dbhelper"
	"github.com/havrebakery/bakery-api/models"
	"github.com/havrebakery/bakery-api/utils"
)

// growthPercent is the month-over-month change rounded to one decimal.
// A zero baseline always yields 0, regardless of the current value.
func growthPercent(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return math.Round((current-previous)/previous*1000) / 10
}

// bestSeller picks the product name with the highest summed quantity across
// the orders' line items. Ties go to the name encountered first.
func bestSeller(orders []models.Order) (string, int) {
	totals := map[string]int{}
	var names []string
	for _, order := range orders {
		for _, item := range order.Items {
			if _, seen := totals[item.Name]; !seen {
				names = append(names, item.Name)
			}
			totals[item.Name] += item.Quantity
		}
	}

	best := "No sales yet"
	bestUnits := 0
	for _, name := range names {
		if totals[name] > bestUnits {
			best = name
			bestUnits = totals[name]
		}
	}
	return best, bestUnits
}

type salesPoint struct {
	Name   string  `json:"name"`
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
}

// monthlySeries buckets orders per calendar month over the last n months
// ending at now, zero-filling months without orders.
func monthlySeries(orders []models.Order, months int, now time.Time) []salesPoint {
	type bucket struct {
		sales  float64
		orders int
	}
	buckets := map[string]*bucket{}
	for _, order := range orders {
		key := order.CreatedAt.Format("2006-01")
		if buckets[key] == nil {
			buckets[key] = &bucket{}
		}
		buckets[key].sales += order.Total
		buckets[key].orders++
	}

	series := make([]salesPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		point := salesPoint{Name: month.Format("Jan 2006")}
		if b := buckets[month.Format("2006-01")]; b != nil {
			point.Sales = math.Round(b.sales)
			point.Orders = b.orders
		}
		series = append(series, point)
	}
	return series
}

type daySalesPoint struct {
	Day   string  `json:"day"`
	Date  string  `json:"date"`
	Sales float64 `json:"sales"`
}

// dailySeries buckets order totals per day over the 30 days ending at now,
// zero-filling days without orders.
func dailySeries(orders []models.Order, now time.Time) []daySalesPoint {
	salesByDay := map[string]float64{}
	for _, order := range orders {
		salesByDay[order.CreatedAt.Format("2006-01-02")] += order.Total
	}

	series := make([]daySalesPoint, 0, 30)
	for i := 29; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		series = append(series, daySalesPoint{
			Day:   "Day " + strconv.Itoa(30-i),
			Date:  date,
			Sales: math.Round(salesByDay[date]),
		})
	}
	return series
}

type categoryStat struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
	Color string  `json:"color"`
}

var distributionColors = []string{"#8884d8", "#82ca9d", "#ffc658", "#ff7300", "#8dd1e1", "#d084d0"}

// categoryDistribution sums line subtotals and quantities per category, in
// first-encountered order.
func categoryDistribution(orders []models.Order) []categoryStat {
	type bucket struct {
		value float64
		count int
	}
	buckets := map[string]*bucket{}
	var names []string
	for _, order := range orders {
		for _, item := range order.Items {
			category := string(item.Category)
			if category == "" {
				category = "Other"
			}
			if buckets[category] == nil {
				buckets[category] = &bucket{}
				names = append(names, category)
			}
			buckets[category].value += item.Subtotal
			buckets[category].count += item.Quantity
		}
	}

	stats := make([]categoryStat, 0, len(names))
	for i, name := range names {
		stats = append(stats, categoryStat{
			Name:  name,
			Value: math.Round(buckets[name].value),
			Count: buckets[name].count,
			Color: distributionColors[i%len(distributionColors)],
		})
	}
	return stats
}

type productStat struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// topProducts ranks products by summed quantity, descending.
func topProducts(orders []models.Order, limit int) []productStat {
	totals := map[string]*productStat{}
	var names []string
	for _, order := range orders {
		for _, item := range order.Items {
			if totals[item.Name] == nil {
				totals[item.Name] = &productStat{Name: item.Name}
				names = append(names, item.Name)
			}
			totals[item.Name].Quantity += item.Quantity
			totals[item.Name].Revenue += item.Subtotal
		}
	}

	stats := make([]productStat, 0, len(names))
	for _, name := range names {
		stat := *totals[name]
		stat.Revenue = math.Round(stat.Revenue)
		stats = append(stats, stat)
	}
	// stable insertion-order base, then sort by quantity descending
	for i := 1; i < len(stats); i++ {
		for j := i; j > 0 && stats[j].Quantity > stats[j-1].Quantity; j-- {
			stats[j], stats[j-1] = stats[j-1], stats[j]
		}
	}
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// ordersBetween loads the non-cancelled orders in [start, end); the exclusive
// end keeps a boundary order out of two adjacent windows.
func ordersBetween(start, end time.Time) ([]models.Order, error) {
	return dbhelper.ListOrders(dbhelper.OrderFilter{
		StartDate:        &start,
		EndBefore:        &end,
		ExcludeCancelled: true,
		SortBy:           "createdAt",
	})
}

// GetDashboardStats compares the current calendar month against the previous
// one: revenue, order count and new customers each with a growth percentage,
// plus the best-selling product of the current month.
func GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	startOfLastMonth := startOfMonth.AddDate(0, -1, 0)

	currentOrders, err := ordersBetween(startOfMonth, now)
	if err != nil {
		logrus.WithError(err).Error("failed to load current month orders")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting dashboard stats")
		return
	}
	lastOrders, err := ordersBetween(startOfLastMonth, startOfMonth)
	if err != nil {
		logrus.WithError(err).Error("failed to load last month orders")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting dashboard stats")
		return
	}

	var totalRevenue, lastMonthRevenue float64
	for _, o := range currentOrders {
		totalRevenue += o.Total
	}
	for _, o := range lastOrders {
		lastMonthRevenue += o.Total
	}

	newCustomers, err := dbhelper.CountNewCustomers(startOfMonth, now)
	if err != nil {
		logrus.WithError(err).Error("failed to count new customers")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting dashboard stats")
		return
	}
	lastMonthCustomers, err := dbhelper.CountNewCustomers(startOfLastMonth, startOfMonth)
	if err != nil {
		logrus.WithError(err).Error("failed to count last month customers")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting dashboard stats")
		return
	}

	best, bestUnits := bestSeller(currentOrders)

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"totalRevenue":    totalRevenue,
			"revenueGrowth":   growthPercent(totalRevenue, lastMonthRevenue),
			"totalOrders":     len(currentOrders),
			"ordersGrowth":    growthPercent(float64(len(currentOrders)), float64(len(lastOrders))),
			"newCustomers":    newCustomers,
			"customersGrowth": growthPercent(float64(newCustomers), float64(lastMonthCustomers)),
			"bestSeller":      best,
			"bestSellerUnits": bestUnits,
		},
	})
}

func GetSalesData(w http.ResponseWriter, r *http.Request) {
	months := 6
	switch r.URL.Query().Get("period") {
	case "3months":
		months = 3
	case "1year":
		months = 12
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)
	orders, err := ordersBetween(start, now)
	if err != nil {
		logrus.WithError(err).Error("failed to load sales data")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting sales data")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    monthlySeries(orders, months, now),
	})
}

func GetLast30DaysSales(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	orders, err := ordersBetween(now.AddDate(0, 0, -30), now)
	if err != nil {
		logrus.WithError(err).Error("failed to load last 30 days sales")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting last 30 days sales")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    dailySeries(orders, now),
	})
}

func GetProductSalesDistribution(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	orders, err := ordersBetween(now.AddDate(0, 0, -30), now)
	if err != nil {
		logrus.WithError(err).Error("failed to load product distribution")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting product distribution")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    categoryDistribution(orders),
	})
}

func GetRecentOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}

	orders, err := dbhelper.ListRecentOrders(limit)
	if err != nil {
		logrus.WithError(err).Error("failed to load recent orders")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting recent orders")
		return
	}

	type recentOrder struct {
		ID          uuid.UUID       `json:"id"`
		OrderNumber string          `json:"orderNumber"`
		Customer    models.Customer `json:"customer"`
		Total       float64         `json:"total"`
		Status      string          `json:"status"`
		CreatedAt   time.Time       `json:"createdAt"`
	}
	data := make([]recentOrder, 0, len(orders))
	for _, o := range orders {
		data = append(data, recentOrder{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Customer:    o.Customer,
			Total:       o.Total,
			Status:      string(o.Status),
			CreatedAt:   o.CreatedAt,
		})
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func GetTopProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}

	now := time.Now()
	orders, err := ordersBetween(now.AddDate(0, 0, -30), now)
	if err != nil {
		logrus.WithError(err).Error("failed to load top products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting top products")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    topProducts(orders, limit),
	})
}
