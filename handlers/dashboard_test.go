package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havrebakery/bakery-api/models"
)

func orderAt(created time.Time, total float64, items ...models.OrderItem) models.Order {
	return models.Order{Total: total, CreatedAt: created, Items: items}
}

func TestGrowthPercent(t *testing.T) {
	assert.Equal(t, 50.0, growthPercent(150, 100))
	assert.Equal(t, -25.0, growthPercent(75, 100))
	assert.Equal(t, -100.0, growthPercent(0, 100))
	assert.Equal(t, 33.3, growthPercent(400, 300))
}

func TestGrowthPercentZeroBaseline(t *testing.T) {
	// zero prior-period baseline always reports zero growth
	assert.Equal(t, 0.0, growthPercent(0, 0))
	assert.Equal(t, 0.0, growthPercent(1234.56, 0))
}

func TestBestSeller(t *testing.T) {
	now := time.Now()
	orders := []models.Order{
		orderAt(now, 0,
			models.OrderItem{Name: "Croissant", Quantity: 3},
			models.OrderItem{Name: "Sourdough", Quantity: 5},
		),
		orderAt(now, 0,
			models.OrderItem{Name: "Croissant", Quantity: 4},
		),
	}

	name, units := bestSeller(orders)
	assert.Equal(t, "Croissant", name)
	assert.Equal(t, 7, units)
}

func TestBestSellerTieFirstEncounteredWins(t *testing.T) {
	now := time.Now()
	orders := []models.Order{
		orderAt(now, 0,
			models.OrderItem{Name: "Baguette", Quantity: 4},
			models.OrderItem{Name: "Eclair", Quantity: 4},
		),
	}

	name, units := bestSeller(orders)
	assert.Equal(t, "Baguette", name)
	assert.Equal(t, 4, units)
}

func TestBestSellerNoOrders(t *testing.T) {
	name, units := bestSeller(nil)
	assert.Equal(t, "No sales yet", name)
	assert.Zero(t, units)
}

func TestMonthlySeriesZeroFilled(t *testing.T) {
	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	orders := []models.Order{
		orderAt(time.Date(2026, time.August, 2, 9, 0, 0, 0, time.UTC), 100.4),
		orderAt(time.Date(2026, time.August, 20, 9, 0, 0, 0, time.UTC), 50.2),
		orderAt(time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC), 75),
	}

	series := monthlySeries(orders, 6, now)
	require.Len(t, series, 6)

	assert.Equal(t, "Mar 2026", series[0].Name)
	assert.Equal(t, "Aug 2026", series[5].Name)

	// months without orders are present with zeroes
	assert.Zero(t, series[0].Sales)
	assert.Zero(t, series[0].Orders)

	assert.Equal(t, 75.0, series[2].Sales) // May
	assert.Equal(t, 1, series[2].Orders)
	assert.Equal(t, 151.0, series[5].Sales) // August, rounded
	assert.Equal(t, 2, series[5].Orders)
}

func TestDailySeriesZeroFilled(t *testing.T) {
	now := time.Date(2026, time.August, 29, 18, 0, 0, 0, time.UTC)
	orders := []models.Order{
		orderAt(now.AddDate(0, 0, -1), 20.6),
		orderAt(now.AddDate(0, 0, -1), 10.0),
		orderAt(now, 5.0),
	}

	series := dailySeries(orders, now)
	require.Len(t, series, 30)

	assert.Equal(t, "Day 1", series[0].Day)
	assert.Equal(t, "Day 30", series[29].Day)
	assert.Equal(t, now.Format("2006-01-02"), series[29].Date)

	assert.Equal(t, 31.0, series[28].Sales) // yesterday, rounded sum
	assert.Equal(t, 5.0, series[29].Sales)
	for i := 0; i < 28; i++ {
		assert.Zero(t, series[i].Sales)
	}
}

func TestCategoryDistribution(t *testing.T) {
	now := time.Now()
	orders := []models.Order{
		orderAt(now, 0,
			models.OrderItem{Category: models.CategoryCakes, Subtotal: 51.9, Quantity: 2},
			models.OrderItem{Category: models.CategoryBread, Subtotal: 14.0, Quantity: 2},
		),
		orderAt(now, 0,
			models.OrderItem{Category: models.CategoryCakes, Subtotal: 26.0, Quantity: 1},
			models.OrderItem{Subtotal: 3.0, Quantity: 1}, // missing category buckets as Other
		),
	}

	stats := categoryDistribution(orders)
	require.Len(t, stats, 3)

	assert.Equal(t, "Cakes", stats[0].Name)
	assert.Equal(t, 78.0, stats[0].Value)
	assert.Equal(t, 3, stats[0].Count)
	assert.Equal(t, "Bread", stats[1].Name)
	assert.Equal(t, "Other", stats[2].Name)
	assert.NotEmpty(t, stats[0].Color)
}

func TestTopProducts(t *testing.T) {
	now := time.Now()
	orders := []models.Order{
		orderAt(now, 0,
			models.OrderItem{Name: "Croissant", Quantity: 10, Subtotal: 35.0},
			models.OrderItem{Name: "Sourdough", Quantity: 2, Subtotal: 13.98},
		),
		orderAt(now, 0,
			models.OrderItem{Name: "Eclair", Quantity: 6, Subtotal: 27.0},
			models.OrderItem{Name: "Sourdough", Quantity: 5, Subtotal: 34.95},
		),
	}

	stats := topProducts(orders, 2)
	require.Len(t, stats, 2)

	assert.Equal(t, "Croissant", stats[0].Name)
	assert.Equal(t, 10, stats[0].Quantity)
	assert.Equal(t, "Sourdough", stats[1].Name)
	assert.Equal(t, 7, stats[1].Quantity)
	assert.Equal(t, 49.0, stats[1].Revenue) // rounded
}
