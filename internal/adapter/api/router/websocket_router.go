package router

import (
	"github.com/labstack/echo/v4"

	"salonepay/internal/adapter/api/handler"
)

// SetupWebSocketRouter exposes the notification stream. Auth is handled
// inside the handler so browser clients can pass a token query parameter.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
