package tests

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"salonepay/internal/adapter/api"
)

func TestHealthCheck(t *testing.T) {
	// Setup
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Define the handler
	healthHandler := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	// Assertions
	if assert.NoError(t, healthHandler(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ok")
	}
}

func TestRequestValidation(t *testing.T) {
	e := echo.New()
	e.Validator = api.NewValidator()

	type filing struct {
		Reason   string `json:"reason" validate:"required"`
		Currency string `json:"currency" validate:"required,len=3"`
		Amount   int64  `json:"amount" validate:"min=0"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"fraud","currency":"SLE","amount":100}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var body filing
	assert.NoError(t, c.Bind(&body))
	assert.NoError(t, c.Validate(&body))

	// Bad currency length
	assert.Error(t, c.Validate(&filing{Reason: "fraud", Currency: "SLEO", Amount: 100}))

	// Missing reason
	assert.Error(t, c.Validate(&filing{Currency: "SLE", Amount: 100}))
}
