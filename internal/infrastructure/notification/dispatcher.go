package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	ws "salonepay/internal/infrastructure/websocket"
	"salonepay/pkg/logger"
)

// Dispatcher delivers a templated dispute event to one recipient across the
// channels the delivery layer supports. Best-effort by contract: callers
// swallow every error it returns.
type Dispatcher interface {
	Notify(ctx context.Context, userID, eventKind string, payload map[string]interface{}) error
}

// WebSocketDispatcher pushes notification records over the live websocket
// channel and leaves a log line for the offline delivery layer (push, email,
// SMS) to pick the record up from.
type WebSocketDispatcher struct {
	manager *ws.Manager
}

func NewWebSocketDispatcher(manager *ws.Manager) *WebSocketDispatcher {
	return &WebSocketDispatcher{manager: manager}
}

func (d *WebSocketDispatcher) Notify(ctx context.Context, userID, eventKind string, payload map[string]interface{}) error {
	if userID == "" {
		return fmt.Errorf("notification recipient is empty")
	}

	record := map[string]interface{}{
		"type":      eventKind,
		"data":      payload,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %v", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if delivered := d.manager.SendToUser(userID, body); !delivered {
		// Recipient is offline. The emitted record is still the delivery
		// layer's to pick up; this is not a failure of the dispatcher.
		logger.Info("Notification queued for offline user %s: %s", userID, eventKind)
		return nil
	}

	logger.Info("Notification delivered to %s: %s", userID, eventKind)
	return nil
}
