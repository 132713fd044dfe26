package usecase

import (
	"context"
	"fmt"
	"time"

	"salonepay/internal/domain/entity"
	"salonepay/internal/domain/repository"
	"salonepay/internal/infrastructure/notification"
	"salonepay/internal/infrastructure/ratelimit"
	"salonepay/pkg/errors"
	"salonepay/pkg/logger"
)

type DisputeMessageUseCase struct {
	disputeRepo repository.DisputeRepository
	disputeUC   *DisputeUseCase
	notifier    notification.Dispatcher
	rateLimiter *ratelimit.RateLimiter
	runner      *asyncRunner
	opts        DisputeOptions
}

func NewDisputeMessageUseCase(
	disputeRepo repository.DisputeRepository,
	disputeUC *DisputeUseCase,
	notifier notification.Dispatcher,
	opts DisputeOptions,
) *DisputeMessageUseCase {
	opts.applyDefaults()

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &DisputeMessageUseCase{
		disputeRepo: disputeRepo,
		disputeUC:   disputeUC,
		notifier:    notifier,
		rateLimiter: rateLimiter,
		runner:      &asyncRunner{},
		opts:        opts,
	}
}

func (uc *DisputeMessageUseCase) WaitForBackgroundTasks() {
	uc.runner.Wait()
}

type SendMessageInput struct {
	Content     string
	Internal    bool
	Attachments []entity.MessageAttachment
}

// SendMessage appends a message to the dispute thread. The message is made
// durable first; the status auto-advance, audit event and notification that
// follow are each best-effort, so a reply is never lost to a downstream
// hiccup.
func (uc *DisputeMessageUseCase) SendMessage(ctx context.Context, actor Actor, disputeID string, input SendMessageInput) (*entity.DisputeMessage, error) {
	if input.Content == "" && len(input.Attachments) == 0 {
		return nil, errors.BadRequest("Message must have content or attachments", nil)
	}
	if input.Internal && actor.Role != entity.RoleAdmin {
		return nil, errors.Forbidden("Only admins can write internal notes", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(actor.ID, "send_message")
	if !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", actor.ID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please slow down", waitTime)
	}

	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeParticipant(actor, dispute); err != nil {
		return nil, err
	}

	kind := entity.MessageKindText
	visibleTo := []entity.PartyRole{entity.RoleCustomer, entity.RoleMerchant, entity.RoleAdmin}
	if input.Internal {
		kind = entity.MessageKindInternalNote
		visibleTo = []entity.PartyRole{entity.RoleAdmin}
	}

	message := &entity.DisputeMessage{
		DisputeID:   disputeID,
		SenderID:    actor.ID,
		Role:        actor.Role,
		Content:     input.Content,
		Kind:        kind,
		Attachments: input.Attachments,
		Internal:    input.Internal,
		VisibleTo:   visibleTo,
		ReadBy:      map[string]time.Time{actor.ID: time.Now()},
	}

	if err := uc.disputeRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	// Durable from here on. Nothing below may fail the call.

	uc.recordEvent(ctx, &entity.DisputeEvent{
		DisputeID:   disputeID,
		Type:        entity.EventMessageSent,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Description: fmt.Sprintf("%s sent a %s message", actor.Role, kind),
	})

	if !input.Internal {
		if err := uc.disputeUC.AdvanceAfterMessage(ctx, disputeID, actor.Role); err != nil {
			logger.LogDisputeError(disputeID, "auto_advance", err)
		}
		uc.notifyCounterpart(dispute, actor, message)
	}

	return message, nil
}

// GetMessages returns the thread filtered to what the caller's role may see,
// oldest first. Soft-deleted messages are dropped for everyone but admins.
func (uc *DisputeMessageUseCase) GetMessages(ctx context.Context, actor Actor, disputeID string) ([]*entity.DisputeMessage, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizeParticipant(actor, dispute); err != nil {
		return nil, err
	}

	messages, err := uc.disputeRepo.ListMessages(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	var visible []*entity.DisputeMessage
	for _, m := range messages {
		if m.Deleted && actor.Role != entity.RoleAdmin {
			continue
		}
		if !m.VisibleToRole(actor.Role) {
			continue
		}
		visible = append(visible, m)
	}

	return visible, nil
}

// MarkRead records the caller's read receipt on every visible message they
// have not yet read. Idempotent.
func (uc *DisputeMessageUseCase) MarkRead(ctx context.Context, actor Actor, disputeID string) (int, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return 0, err
	}

	if err := uc.authorizeParticipant(actor, dispute); err != nil {
		return 0, err
	}

	messages, err := uc.disputeRepo.ListMessages(ctx, disputeID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	marked := 0
	for _, m := range messages {
		if m.Deleted || !m.VisibleToRole(actor.Role) {
			continue
		}
		if _, seen := m.ReadBy[actor.ID]; seen {
			continue
		}
		if m.ReadBy == nil {
			m.ReadBy = map[string]time.Time{}
		}
		m.ReadBy[actor.ID] = now
		if err := uc.disputeRepo.UpdateMessage(ctx, disputeID, m); err != nil {
			logger.LogDisputeError(disputeID, "mark_read", err)
			continue
		}
		marked++
	}

	return marked, nil
}

// UnreadCount counts visible messages the caller has not read yet.
func (uc *DisputeMessageUseCase) UnreadCount(ctx context.Context, actor Actor, disputeID string) (int, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return 0, err
	}

	if err := uc.authorizeParticipant(actor, dispute); err != nil {
		return 0, err
	}

	messages, err := uc.disputeRepo.ListMessages(ctx, disputeID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range messages {
		if m.Deleted || !m.VisibleToRole(actor.Role) {
			continue
		}
		if _, seen := m.ReadBy[actor.ID]; !seen {
			count++
		}
	}

	return count, nil
}

// DeleteMessage soft-deletes a message. The author may delete their own
// messages; admins may delete any. The record stays in the subcollection for
// the audit trail.
func (uc *DisputeMessageUseCase) DeleteMessage(ctx context.Context, actor Actor, disputeID, messageID string) error {
	message, err := uc.disputeRepo.GetMessageByID(ctx, disputeID, messageID)
	if err != nil {
		return err
	}

	if actor.Role != entity.RoleAdmin && message.SenderID != actor.ID {
		return errors.Forbidden("You can only delete your own messages", nil)
	}

	message.Deleted = true
	return uc.disputeRepo.UpdateMessage(ctx, disputeID, message)
}

// authorizeParticipant gates thread access to the dispute's parties plus
// admins.
func (uc *DisputeMessageUseCase) authorizeParticipant(actor Actor, dispute *entity.Dispute) error {
	switch actor.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleCustomer:
		if dispute.CustomerID == actor.ID {
			return nil
		}
	case entity.RoleMerchant:
		if dispute.MerchantID == actor.ID {
			return nil
		}
	}
	return errors.Forbidden("You are not a participant in this dispute", nil)
}

// notifyCounterpart tells the other human party a message landed.
func (uc *DisputeMessageUseCase) notifyCounterpart(dispute *entity.Dispute, actor Actor, message *entity.DisputeMessage) {
	if uc.notifier == nil {
		return
	}

	var recipient string
	switch actor.Role {
	case entity.RoleCustomer:
		recipient = dispute.MerchantID
	case entity.RoleMerchant:
		recipient = dispute.CustomerID
	case entity.RoleAdmin:
		// Admin replies go to both parties
		uc.dispatch(dispute.CustomerID, dispute.ID, message)
		uc.dispatch(dispute.MerchantID, dispute.ID, message)
		return
	}

	uc.dispatch(recipient, dispute.ID, message)
}

func (uc *DisputeMessageUseCase) dispatch(recipient, disputeID string, message *entity.DisputeMessage) {
	if recipient == "" {
		return
	}

	uc.runner.Go("notify:dispute_message", uc.opts.NotifyTimeout, func(ctx context.Context) error {
		return uc.notifier.Notify(ctx, recipient, "dispute_message", map[string]interface{}{
			"dispute_id": disputeID,
			"message_id": message.ID,
			"from_role":  string(message.Role),
			"preview":    preview(message.Content, 120),
		})
	})
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func (uc *DisputeMessageUseCase) recordEvent(ctx context.Context, event *entity.DisputeEvent) {
	if err := uc.disputeRepo.CreateEvent(ctx, event); err != nil {
		logger.LogDisputeError(event.DisputeID, string(event.Type), err)
	}
}
