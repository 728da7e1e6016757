package dbhelper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havrebakery/bakery-api/models"
)

func TestOrderFilterWindowEndIsExclusive(t *testing.T) {
	start := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

	where, args := OrderFilter{StartDate: &start, EndBefore: &end}.where()

	assert.Contains(t, where, "created_at >= $1")
	assert.Contains(t, where, "created_at < $2")
	assert.NotContains(t, where, "created_at <=")
	require.Len(t, args, 2)
	assert.Equal(t, start, args[0])
	assert.Equal(t, end, args[1])
}

func TestOrderFilterEndDateStaysInclusive(t *testing.T) {
	end := time.Date(2026, time.August, 31, 23, 59, 59, 0, time.UTC)

	where, args := OrderFilter{EndDate: &end}.where()

	assert.Contains(t, where, "created_at <= $1")
	require.Len(t, args, 1)
}

func TestOrderFilterExcludeCancelled(t *testing.T) {
	where, args := OrderFilter{ExcludeCancelled: true}.where()

	assert.Contains(t, where, "status <> $1")
	require.Len(t, args, 1)
	assert.Equal(t, models.StatusCancelled, args[0])
}
