package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"salonepay/internal/domain/service"
	"salonepay/internal/infrastructure/firebase"
)

type HealthHandler struct {
	firebaseAuth *firebase.FirebaseAuthClient
	riskService  service.RiskAssessmentService
}

var healthHandler *HealthHandler

func NewHealthHandler(firebaseAuth *firebase.FirebaseAuthClient, riskService service.RiskAssessmentService) *HealthHandler {
	return &HealthHandler{
		firebaseAuth: firebaseAuth,
		riskService:  riskService,
	}
}

func SetupHealthHandler(firebaseAuth *firebase.FirebaseAuthClient, riskService service.RiskAssessmentService) {
	healthHandler = NewHealthHandler(firebaseAuth, riskService)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":       "Server is running",
		"time":         time.Now().Format(time.RFC3339),
		"risk_service": h.riskService != nil && h.riskService.Available(),
	})
}

func (h *HealthHandler) CheckFirebaseHealth(c echo.Context) error {
	err := h.firebaseAuth.TestConnection(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "Firebase Auth connection failed",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Firebase Auth connected successfully",
	})
}
