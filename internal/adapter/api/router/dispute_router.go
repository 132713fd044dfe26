package router

import (
	"github.com/labstack/echo/v4"

	"salonepay/internal/adapter/api/handler"
	"salonepay/internal/adapter/api/middleware"
)

// SetupDisputeRouter wires the dispute lifecycle, thread and evidence routes.
func SetupDisputeRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	disputeHandler := handler.GetDisputeHandler()
	messageHandler := handler.GetDisputeMessageHandler()

	disputes := e.Group("/v1/disputes")
	disputes.Use(authMiddleware.Authenticate)

	// Lifecycle
	disputes.POST("", disputeHandler.CreateDispute, middleware.DisputeWriteRateLimit())
	disputes.GET("/my", disputeHandler.ListMyDisputes)
	disputes.GET("/business/:businessId", disputeHandler.ListBusinessDisputes)
	disputes.GET("/:id", disputeHandler.GetDispute)
	disputes.POST("/:id/escalate", disputeHandler.EscalateDispute)

	// Evidence
	disputes.POST("/:id/evidence", disputeHandler.UploadEvidence)
	disputes.GET("/:id/evidence/download", disputeHandler.GetEvidenceDownloadURL)
	disputes.GET("/:id/suggested-response", disputeHandler.GetSuggestedResponse)

	// Thread
	disputes.POST("/:id/messages", messageHandler.SendMessage)
	disputes.GET("/:id/messages", messageHandler.GetMessages)
	disputes.PUT("/:id/messages/read", messageHandler.MarkRead)
	disputes.GET("/:id/messages/unread-count", messageHandler.UnreadCount)
	disputes.DELETE("/:id/messages/:messageId", messageHandler.DeleteMessage)

	// Admin operations
	admin := e.Group("/v1/admin/disputes")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("", disputeHandler.ListDisputes)
	admin.GET("/stats", disputeHandler.GetStats)
	admin.PATCH("/:id/status", disputeHandler.UpdateStatus)
	admin.POST("/:id/resolve", disputeHandler.ResolveDispute)
	admin.POST("/:id/reopen", disputeHandler.ReopenDispute)
	admin.POST("/:id/assign", disputeHandler.AssignDispute)
	admin.GET("/:id/events", disputeHandler.GetEvents)
}
