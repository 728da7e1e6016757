package utils

import (
	"encoding/json"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havrebakery/bakery-api/config"
	"github.com/havrebakery/bakery-api/models"
)

func TestMain(m *testing.M) {
	config.SecretKey = []byte("test-secret")
	m.Run()
}

func TestAccessTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateAccessToken(userID, models.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	_, err := ParseAccessToken("not.a.token")
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsWrongKey(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), models.RoleCustomer)
	require.NoError(t, err)

	config.SecretKey = []byte("another-secret")
	defer func() { config.SecretKey = []byte("test-secret") }()

	_, err = ParseAccessToken(token)
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	_, refresh, err := GenerateTokens(userID, models.RoleCustomer)
	require.NoError(t, err)

	parsedID, err := ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, parsedID)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	_, refresh, err := GenerateTokens(uuid.New(), models.RoleCustomer)
	require.NoError(t, err)

	// refresh tokens carry no role claim, so a parsed one must not grant one
	claims, err := ParseAccessToken(refresh)
	if err == nil {
		assert.Empty(t, claims.Role)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2!", hash)

	assert.True(t, CheckPassword(hash, "hunter2!"))
	assert.False(t, CheckPassword(hash, "hunter3!"))
	assert.False(t, CheckPassword("", "hunter2!"))
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{8}-[0-9a-f]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		number := GenerateOrderNumber()
		assert.Regexp(t, pattern, number)
		assert.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
}

func TestRespondErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, 404, "Order not found")

	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Order not found", body["message"])
}

func TestRespondValidationErrorsEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondValidationErrors(rec, []models.FieldError{{Field: "price", Message: "Price cannot be negative"}})

	assert.Equal(t, 400, rec.Code)

	var body struct {
		Success bool                `json:"success"`
		Message string              `json:"message"`
		Errors  []models.FieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "price", body.Errors[0].Field)
}
