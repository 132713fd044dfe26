package router

import (
	"github.com/labstack/echo/v4"

	"salonepay/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	SetupDisputeRouter(e, authMiddleware, adminMiddleware)
	SetupHealthRouter(e)
}
