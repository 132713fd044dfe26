package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"salonepay/internal/domain/entity"
	"salonepay/internal/domain/repository"
	"salonepay/internal/domain/service"
	"salonepay/internal/infrastructure/notification"
	"salonepay/internal/infrastructure/ratelimit"
	"salonepay/internal/infrastructure/storage"
	"salonepay/pkg/errors"
	"salonepay/pkg/logger"
)

// Actor identifies who is performing a mutating call. Threaded explicitly
// through every operation so authorization and auditing are a pure function
// of inputs.
type Actor struct {
	ID   string
	Role entity.PartyRole
}

// EvidenceStorage is the slice of the object store this use case needs.
type EvidenceStorage interface {
	UploadEvidence(ctx context.Context, file io.Reader, contentType, suggestedName, pathHint string) (*storage.StoredObject, error)
	GenerateSignedDownloadURL(fileURL string) (string, error)
}

// DisputeOptions carries the tunables the state machine owns.
type DisputeOptions struct {
	MerchantResponseDays int
	RiskTimeout          time.Duration
	NotifyTimeout        time.Duration
}

func (o *DisputeOptions) applyDefaults() {
	if o.MerchantResponseDays <= 0 {
		o.MerchantResponseDays = 7
	}
	if o.RiskTimeout <= 0 {
		o.RiskTimeout = 30 * time.Second
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = 10 * time.Second
	}
}

type DisputeUseCase struct {
	disputeRepo repository.DisputeRepository
	userRepo    repository.UserRepository
	riskService service.RiskAssessmentService
	notifier    notification.Dispatcher
	evidence    EvidenceStorage
	rateLimiter *ratelimit.RateLimiter
	runner      *asyncRunner
	opts        DisputeOptions
}

func NewDisputeUseCase(
	disputeRepo repository.DisputeRepository,
	userRepo repository.UserRepository,
	riskService service.RiskAssessmentService,
	notifier notification.Dispatcher,
	evidence EvidenceStorage,
	opts DisputeOptions,
) *DisputeUseCase {
	opts.applyDefaults()

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &DisputeUseCase{
		disputeRepo: disputeRepo,
		userRepo:    userRepo,
		riskService: riskService,
		notifier:    notifier,
		evidence:    evidence,
		rateLimiter: rateLimiter,
		runner:      &asyncRunner{},
		opts:        opts,
	}
}

// WaitForBackgroundTasks blocks until in-flight risk analyses and
// notifications have finished. Called on shutdown.
func (uc *DisputeUseCase) WaitForBackgroundTasks() {
	uc.runner.Wait()
}

type CreateDisputeInput struct {
	Reason        entity.DisputeReason
	Description   string
	Amount        int64
	Currency      string
	TransactionID string
	PaymentID     string
	BusinessID    string
	MerchantID    string
}

func (uc *DisputeUseCase) CreateDispute(ctx context.Context, actor Actor, input CreateDisputeInput) (*entity.Dispute, error) {
	if input.Amount < 0 {
		return nil, errors.BadRequest("Dispute amount cannot be negative", nil)
	}
	if !entity.ValidReason(input.Reason) {
		return nil, errors.BadRequest(fmt.Sprintf("Unknown dispute reason: %s", input.Reason), nil)
	}
	if actor.ID == "" {
		return nil, errors.BadRequest("Dispute requires a filing customer", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(actor.ID, "create_dispute")
	if !allowed {
		logger.Warn("CreateDispute rate limited: user %s must wait %v", actor.ID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before filing another dispute", waitTime)
	}

	now := time.Now()
	deadline := now.AddDate(0, 0, uc.opts.MerchantResponseDays)

	dispute := &entity.Dispute{
		CustomerID:               actor.ID,
		MerchantID:               input.MerchantID,
		BusinessID:               input.BusinessID,
		TransactionID:            input.TransactionID,
		PaymentID:                input.PaymentID,
		Amount:                   input.Amount,
		Currency:                 input.Currency,
		Reason:                   input.Reason,
		Description:              input.Description,
		Status:                   entity.DisputeStatusOpen,
		Priority:                 entity.DerivePriority(input.Amount),
		CustomerEvidence:         []entity.EvidenceItem{},
		MerchantEvidence:         []entity.EvidenceItem{},
		MerchantResponseDeadline: &deadline,
	}

	if err := uc.disputeRepo.Create(ctx, dispute); err != nil {
		logger.Error("CreateDispute: failed to persist dispute for customer %s: %v", actor.ID, err)
		return nil, err
	}

	uc.recordEvent(ctx, &entity.DisputeEvent{
		DisputeID:   dispute.ID,
		Type:        entity.EventCreated,
		ActorID:     actor.ID,
		ActorRole:   entity.RoleCustomer,
		Description: fmt.Sprintf("Dispute filed for %d %s (%s)", dispute.Amount, dispute.Currency, dispute.Reason),
		NewValue:    string(dispute.Status),
	})

	uc.appendSystemMessage(ctx, dispute.ID, fmt.Sprintf(
		"A dispute has been filed for %d %s. Reason: %s. The merchant has %d days to respond (deadline %s).",
		dispute.Amount, dispute.Currency, dispute.Reason,
		uc.opts.MerchantResponseDays, deadline.Format("2 Jan 2006"),
	), entity.MessageKindStatusChange, nil, false)

	if dispute.MerchantID != "" {
		uc.notifyAsync(dispute.MerchantID, "dispute_filed", map[string]interface{}{
			"dispute_id": dispute.ID,
			"amount":     dispute.Amount,
			"currency":   dispute.Currency,
			"reason":     string(dispute.Reason),
			"deadline":   deadline.UTC().Format(time.RFC3339),
		})
	}

	uc.analyzeAsync(dispute.ID)

	return dispute, nil
}

func (uc *DisputeUseCase) GetDispute(ctx context.Context, id string) (*entity.Dispute, error) {
	return uc.disputeRepo.GetByID(ctx, id)
}

func (uc *DisputeUseCase) UpdateStatus(ctx context.Context, actor Actor, id string, newStatus entity.DisputeStatus, notes string) (*entity.Dispute, error) {
	if !validStatus(newStatus) {
		return nil, errors.BadRequest(fmt.Sprintf("Unknown dispute status: %s", newStatus), nil)
	}

	dispute, err := uc.disputeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := dispute.Status
	dispute.Status = newStatus

	if newStatus.IsTerminal() {
		now := time.Now()
		dispute.ResolvedAt = &now
		dispute.ResolvedBy = actor.ID
	}

	if err := uc.disputeRepo.Update(ctx, dispute); err != nil {
		return nil, err
	}

	uc.recordEvent(ctx, &entity.DisputeEvent{
		DisputeID:   dispute.ID,
		Type:        entity.EventStatusChanged,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Description: notes,
		OldValue:    string(oldStatus),
		NewValue:    string(newStatus),
	})

	content := fmt.Sprintf("Dispute status changed from %s to %s.", oldStatus, newStatus)
	if notes != "" {
		content = content + " " + notes
	}
	uc.appendSystemMessage(ctx, dispute.ID, content, entity.MessageKindStatusChange, nil, false)

	uc.notifyParties(dispute, "dispute_status_changed", map[string]interface{}{
		"dispute_id": dispute.ID,
		"old_status": string(oldStatus),
		"new_status": string(newStatus),
	})

	return dispute, nil
}

type ResolveDisputeInput struct {
	Outcome entity.ResolutionOutcome
	Amount  *int64
	Notes   string
}

func (uc *DisputeUseCase) Resolve(ctx context.Context, actor Actor, id string, input ResolveDisputeInput) (*entity.Dispute, error) {
	if !entity.ValidOutcome(input.Outcome) {
		return nil, errors.BadRequest(fmt.Sprintf("Unknown resolution outcome: %s", input.Outcome), nil)
	}

	dispute, err := uc.disputeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := dispute.Status

	var newStatus entity.DisputeStatus
	switch input.Outcome {
	case entity.OutcomeFavorCustomer, entity.OutcomeFullRefund:
		newStatus = entity.DisputeStatusWon
	case entity.OutcomeFavorMerchant, entity.OutcomeNoAction:
		newStatus = entity.DisputeStatusLost
	case entity.OutcomePartialRefund:
		newStatus = entity.DisputeStatusResolved
	}

	resolutionAmount := int64(0)
	if input.Amount != nil {
		resolutionAmount = *input.Amount
	} else if input.Outcome == entity.OutcomeFullRefund {
		// Full refund defaults to the disputed amount
		resolutionAmount = dispute.Amount
	}

	now := time.Now()
	dispute.Status = newStatus
	dispute.ResolutionOutcome = input.Outcome
	dispute.ResolutionAmount = resolutionAmount
	dispute.ResolutionNotes = input.Notes
	dispute.ResolvedBy = actor.ID
	dispute.ResolvedAt = &now

	if err := uc.disputeRepo.Update(ctx, dispute); err != nil {
		return nil, err
	}

	uc.recordEvent(ctx, &entity.DisputeEvent{
		DisputeID:   dispute.ID,
		Type:        entity.EventResolved,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Description: fmt.Sprintf("Resolved as %s for %d %s. %s", input.Outcome, resolutionAmount, dispute.Currency, input.Notes),
		OldValue:    string(oldStatus),
		NewValue:    string(newStatus),
	})

	uc.appendSystemMessage(ctx, dispute.ID, fmt.Sprintf(
		"This dispute has been resolved: %s. Resolution amount: %d %s. %s",
		input.Outcome, resolutionAmount, dispute.Currency, input.Notes,
	), entity.MessageKindResolution, nil, false)

	// Both parties hear about a resolution; a dropped notification never
	// rolls back the financial record change.
	uc.notifyParties(dispute, "dispute_resolved", map[string]interface{}{
		"dispute_id":        dispute.ID,
		"outcome":           string(input.Outcome),
		"resolution_amount": resolutionAmount,
		"currency":          dispute.Currency,
	})

	return dispute, nil
}

func (uc *DisputeUseCase) Escalate(ctx context.Context, actor Actor, id string, reason string) (*entity.Dispute, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dispute.Status.IsTerminal() {
		return nil, errors.InvalidState(fmt.Sprintf("Cannot escalate a dispute in status %s", dispute.Status), nil)
	}

	oldStatus := dispute.Status
	dispute.Status = entity.DisputeStatusEscalated
	// Escalation always wins over the derived priority
	dispute.Priority = entity.PriorityUrgent

	if err := uc.disputeRepo.Update(ctx, dispute); err != nil {
		return nil, err
	}

	uc.recordEvent(ctx, &entity.DisputeEvent{
		DisputeID:   dispute.ID,
		Type:        entity.EventEscalated,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Description: reason,
		OldValue:    string(oldStatus),
		NewValue:    string(entity.DisputeStatusEscalated),
	})

	uc.appendSystemMessage(ctx, dispute.ID, fmt.Sprintf(
		"This dispute has been escalated and is now urgent. Reason: %s", reason,
	), entity.MessageKindStatusChange, nil, false)

	uc.notifyParties(dispute, "dispute_escalated", map[string]interface{}{
		"dispute_id": dispute.ID,
		"reason":     reason,
	})

	return dispute, nil
}

func (uc *DisputeUseCase) Reopen(ctx context.Context, actor Actor, id string, reason string) (*entity.Dispute, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !dispute.Status.IsTerminal() {
		return nil, errors.InvalidState(fmt.Sprintf("Only a closed or resolved dispute can be reopened, current status is %s", dispute.Status), nil)
	}

	oldStatus := dispute.Status
	priorResolution := fmt.Sprintf("%s: %s", dispute.ResolutionOutcome, dispute.ResolutionNotes)

	dispute.Status = entity.DisputeStatusUnderReview
	dispute.ResolvedAt = nil
	dispute.ResolvedBy = ""
	dispute.ResolutionOutcome = ""
	dispute.ResolutionAmount = 0
	dispute.ResolutionNotes = ""

	if err := uc.disputeRepo.Update(ctx, dispute); err != nil {
		return nil, err
	}

	// The prior resolution survives in the audit trail, not on the record
	uc.recordEvent(ctx, &entity.DisputeEvent{
		DisputeID:   dispute.ID,
		Type:        entity.EventStatusChanged,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Description: fmt.Sprintf("Dispute reopened: %s. Prior resolution was %s", reason, priorResolution),
		OldValue:    string(oldStatus),
		NewValue:    string(entity.DisputeStatusUnderReview),
	})

	uc.appendSystemMessage(ctx, dispute.ID, fmt.Sprintf(
		"This dispute has been reopened and is back under review. Reason: %s", reason,
	), entity.MessageKindStatusChange, nil, false)

	uc.notifyParties(dispute, "dispute_reopened", map[string]interface{}{
		"dispute_id": dispute.ID,
		"reason":     reason,
	})

	return dispute, nil
}

func (uc *DisputeUseCase) AssignToAdmin(ctx context.Context, actor Actor, id, adminID string) (*entity.Dispute, error) {
	admin, err := uc.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, errors.NotFound("Admin", err)
	}
	if admin.Role != "admin" {
		return nil, errors.BadRequest("Disputes can only be assigned to admins", nil)
	}

	dispute, err := uc.disputeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := dispute.AssignedTo
	dispute.AssignedTo = adminID

	if err := uc.disputeRepo.Update(ctx, dispute); err != nil {
		return nil, err
	}

	uc.recordEvent(ctx, &entity.DisputeEvent{
		DisputeID:   dispute.ID,
		Type:        entity.EventAssigned,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Description: fmt.Sprintf("Assigned to %s", admin.Username),
		OldValue:    previous,
		NewValue:    adminID,
	})

	return dispute, nil
}

// UploadEvidence stores the file first, then appends the descriptor to the
// uploader's evidence list. All-or-nothing: a storage failure leaves the
// dispute untouched.
func (uc *DisputeUseCase) UploadEvidence(ctx context.Context, actor Actor, disputeID string, file io.Reader, contentType, filename string) (*entity.EvidenceItem, error) {
	if actor.Role != entity.RoleCustomer && actor.Role != entity.RoleMerchant {
		return nil, errors.BadRequest("Only the customer or the merchant can submit evidence", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(actor.ID, "upload_evidence")
	if !allowed {
		logger.Warn("UploadEvidence rate limited: user %s must wait %v", actor.ID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before uploading more evidence", waitTime)
	}

	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	stored, err := uc.evidence.UploadEvidence(ctx, file, contentType, filename, disputeID+"/"+string(actor.Role))
	if err != nil {
		logger.Error("UploadEvidence: storage failed for dispute %s: %v", disputeID, err)
		return nil, errors.Storage("Failed to store evidence file", err)
	}

	item := entity.EvidenceItem{
		URL:        stored.URL,
		Type:       stored.ContentType,
		Name:       stored.Name,
		Size:       stored.Size,
		UploadedBy: actor.ID,
		UploadedAt: time.Now(),
	}

	if actor.Role == entity.RoleCustomer {
		dispute.CustomerEvidence = append(dispute.CustomerEvidence, item)
	} else {
		dispute.MerchantEvidence = append(dispute.MerchantEvidence, item)
	}

	if err := uc.disputeRepo.Update(ctx, dispute); err != nil {
		return nil, err
	}

	uc.recordEvent(ctx, &entity.DisputeEvent{
		DisputeID:   dispute.ID,
		Type:        entity.EventEvidenceUploaded,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Description: fmt.Sprintf("%s uploaded evidence %s (%s, %d bytes)", actor.Role, item.Name, item.Type, item.Size),
	})

	uc.appendSystemMessage(ctx, dispute.ID,
		fmt.Sprintf("New evidence submitted by the %s: %s", actor.Role, item.Name),
		entity.MessageKindEvidence,
		[]entity.MessageAttachment{{URL: item.URL, Type: item.Type, Name: item.Name, Size: item.Size}},
		false,
	)

	return &item, nil
}

// AdvanceAfterMessage applies the auto-transition rule for an ordinary
// message. Only the three early states auto-advance; once a dispute has
// progressed further, messages no longer drive status, so explicit
// administrative decisions are never undone by late replies.
func (uc *DisputeUseCase) AdvanceAfterMessage(ctx context.Context, disputeID string, senderRole entity.PartyRole) error {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return err
	}

	switch dispute.Status {
	case entity.DisputeStatusOpen, entity.DisputeStatusPendingMerchant, entity.DisputeStatusPendingCustomer:
	default:
		return nil
	}

	oldStatus := dispute.Status

	switch senderRole {
	case entity.RoleMerchant:
		dispute.Status = entity.DisputeStatusUnderReview
		if dispute.MerchantRespondedAt == nil {
			now := time.Now()
			dispute.MerchantRespondedAt = &now
		}
	case entity.RoleCustomer:
		dispute.Status = entity.DisputeStatusPendingMerchant
	default:
		return nil
	}

	if dispute.Status == oldStatus {
		return nil
	}

	if err := uc.disputeRepo.Update(ctx, dispute); err != nil {
		return err
	}

	uc.recordEvent(ctx, &entity.DisputeEvent{
		DisputeID:   dispute.ID,
		Type:        entity.EventStatusChanged,
		ActorRole:   senderRole,
		Description: fmt.Sprintf("Status advanced after %s message", senderRole),
		OldValue:    string(oldStatus),
		NewValue:    string(dispute.Status),
	})

	return nil
}

func (uc *DisputeUseCase) ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*entity.Dispute, int64, error) {
	p := normalizePage(page, limit)
	return uc.disputeRepo.ListByCustomerID(ctx, customerID, p.PageSize, p.Offset)
}

func (uc *DisputeUseCase) ListByBusiness(ctx context.Context, businessID string, page, limit int) ([]*entity.Dispute, int64, error) {
	p := normalizePage(page, limit)
	return uc.disputeRepo.ListByBusinessID(ctx, businessID, p.PageSize, p.Offset)
}

func (uc *DisputeUseCase) ListAll(ctx context.Context, filter repository.DisputeFilter, page, limit int) ([]*entity.Dispute, int64, error) {
	p := normalizePage(page, limit)
	return uc.disputeRepo.List(ctx, filter, p.PageSize, p.Offset)
}

// GetEvidenceDownloadURL mints a short-lived signed URL for an evidence file
// already attached to the dispute. The caller must be a participant or an
// admin, and the URL must belong to one of the evidence lists.
func (uc *DisputeUseCase) GetEvidenceDownloadURL(ctx context.Context, actor Actor, disputeID, fileURL string) (string, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return "", err
	}

	if actor.Role != entity.RoleAdmin && dispute.CustomerID != actor.ID && dispute.MerchantID != actor.ID {
		return "", errors.Forbidden("You are not a participant in this dispute", nil)
	}

	found := false
	for _, item := range dispute.CustomerEvidence {
		if item.URL == fileURL {
			found = true
			break
		}
	}
	if !found {
		for _, item := range dispute.MerchantEvidence {
			if item.URL == fileURL {
				found = true
				break
			}
		}
	}
	if !found {
		return "", errors.NotFound("Evidence file", nil)
	}

	signed, err := uc.evidence.GenerateSignedDownloadURL(fileURL)
	if err != nil {
		return "", errors.Storage("Failed to sign evidence URL", err)
	}

	return signed, nil
}

func (uc *DisputeUseCase) GetEvents(ctx context.Context, disputeID string) ([]*entity.DisputeEvent, error) {
	if _, err := uc.disputeRepo.GetByID(ctx, disputeID); err != nil {
		return nil, err
	}
	return uc.disputeRepo.ListEvents(ctx, disputeID)
}

type DisputeStats struct {
	Total                 int64                          `json:"total"`
	ByStatus              map[entity.DisputeStatus]int64 `json:"by_status"`
	AverageResolutionDays float64                        `json:"average_resolution_days"`
}

func (uc *DisputeUseCase) GetStats(ctx context.Context) (*DisputeStats, error) {
	disputes, total, err := uc.disputeRepo.List(ctx, repository.DisputeFilter{}, -1, 0)
	if err != nil {
		return nil, err
	}

	stats := &DisputeStats{
		Total:    total,
		ByStatus: make(map[entity.DisputeStatus]int64),
	}

	var resolvedCount int64
	var totalDays float64
	for _, d := range disputes {
		stats.ByStatus[d.Status]++
		if d.ResolvedAt != nil {
			resolvedCount++
			totalDays += d.ResolvedAt.Sub(d.CreatedAt).Hours() / 24
		}
	}

	if resolvedCount > 0 {
		stats.AverageResolutionDays = totalDays / float64(resolvedCount)
	}

	return stats, nil
}

// GetSuggestedResponse asks the risk service to help the merchant draft a
// reply. Degrades to no suggestion when the service is unconfigured or
// failing; never an error to the caller.
func (uc *DisputeUseCase) GetSuggestedResponse(ctx context.Context, disputeID string) (*service.SuggestedResponse, error) {
	if uc.riskService == nil || !uc.riskService.Available() {
		return nil, nil
	}

	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	suggestion, err := uc.riskService.SuggestResponse(ctx, uc.snapshot(ctx, dispute))
	if err != nil {
		logger.Warn("GetSuggestedResponse: risk service failed for dispute %s: %v", disputeID, err)
		return nil, nil
	}

	return suggestion, nil
}

// analyzeAsync requests a fraud/merit assessment off the request path. The
// dispute is re-read inside the task so the score lands on fresh state.
func (uc *DisputeUseCase) analyzeAsync(disputeID string) {
	if uc.riskService == nil || !uc.riskService.Available() {
		return
	}

	uc.runner.Go("risk_analysis:"+disputeID, uc.opts.RiskTimeout, func(ctx context.Context) error {
		dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
		if err != nil {
			return err
		}

		result, err := uc.riskService.Analyze(ctx, uc.snapshot(ctx, dispute))
		if err != nil {
			return err
		}

		dispute, err = uc.disputeRepo.GetByID(ctx, disputeID)
		if err != nil {
			return err
		}

		score := result.FraudRiskScore
		dispute.FraudRiskScore = &score
		dispute.RiskAssessmentID = result.AssessmentID

		if err := uc.disputeRepo.Update(ctx, dispute); err != nil {
			return err
		}

		uc.recordEvent(ctx, &entity.DisputeEvent{
			DisputeID:   dispute.ID,
			Type:        entity.EventAIAnalyzed,
			ActorRole:   entity.RoleAI,
			Description: fmt.Sprintf("Fraud risk score %d, recommendation: %s", result.FraudRiskScore, result.Recommendation),
			NewValue:    fmt.Sprintf("%d", result.FraudRiskScore),
		})

		uc.appendAIMessage(ctx, dispute.ID, fmt.Sprintf(
			"Automated analysis complete. Fraud risk score: %d/100. Recommendation: %s. Confidence: %d/100. %s",
			result.FraudRiskScore, result.Recommendation, result.ConfidenceScore, result.Reasoning,
		))

		return nil
	})
}

// snapshot projects the dispute into the risk service's input contract.
func (uc *DisputeUseCase) snapshot(ctx context.Context, dispute *entity.Dispute) service.DisputeSnapshot {
	snap := service.DisputeSnapshot{
		DisputeID:     dispute.ID,
		TransactionID: dispute.TransactionID,
		Amount:        dispute.Amount,
		Currency:      dispute.Currency,
		CreatedAt:     dispute.CreatedAt,
		Reason:        string(dispute.Reason),
		Description:   dispute.Description,
	}

	if dispute.MerchantID != "" {
		if merchant, err := uc.userRepo.GetByID(ctx, dispute.MerchantID); err == nil {
			snap.MerchantName = merchant.Username
		}
	}

	if messages, err := uc.disputeRepo.ListMessages(ctx, dispute.ID); err == nil {
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == entity.RoleMerchant && messages[i].Kind == entity.MessageKindText && !messages[i].Deleted {
				snap.MerchantResponse = messages[i].Content
				break
			}
		}
	}

	return snap
}

// appendSystemMessage writes a system-authored thread entry. Failures are
// logged, not propagated; the state change it narrates has already committed.
func (uc *DisputeUseCase) appendSystemMessage(ctx context.Context, disputeID, content string, kind entity.MessageKind, attachments []entity.MessageAttachment, internal bool) {
	message := &entity.DisputeMessage{
		DisputeID:   disputeID,
		Role:        entity.RoleSystem,
		Content:     content,
		Kind:        kind,
		Attachments: attachments,
		Internal:    internal,
		VisibleTo:   []entity.PartyRole{entity.RoleCustomer, entity.RoleMerchant, entity.RoleAdmin},
		ReadBy:      map[string]time.Time{},
	}

	if err := uc.disputeRepo.CreateMessage(ctx, message); err != nil {
		logger.LogDisputeError(disputeID, "system_message", err)
	}
}

// appendAIMessage writes an internal-only analysis entry visible to admins.
func (uc *DisputeUseCase) appendAIMessage(ctx context.Context, disputeID, content string) {
	message := &entity.DisputeMessage{
		DisputeID: disputeID,
		Role:      entity.RoleAI,
		Content:   content,
		Kind:      entity.MessageKindAIAnalysis,
		Internal:  true,
		VisibleTo: []entity.PartyRole{entity.RoleAdmin},
		ReadBy:    map[string]time.Time{},
	}

	if err := uc.disputeRepo.CreateMessage(ctx, message); err != nil {
		logger.LogDisputeError(disputeID, "ai_message", err)
	}
}

func (uc *DisputeUseCase) recordEvent(ctx context.Context, event *entity.DisputeEvent) {
	if err := uc.disputeRepo.CreateEvent(ctx, event); err != nil {
		logger.LogDisputeError(event.DisputeID, string(event.Type), err)
	}
}

// notifyParties fires best-effort notifications at the customer and, when
// linked, the merchant.
func (uc *DisputeUseCase) notifyParties(dispute *entity.Dispute, eventKind string, payload map[string]interface{}) {
	uc.notifyAsync(dispute.CustomerID, eventKind, payload)
	if dispute.MerchantID != "" {
		uc.notifyAsync(dispute.MerchantID, eventKind, payload)
	}
}

func (uc *DisputeUseCase) notifyAsync(userID, eventKind string, payload map[string]interface{}) {
	if uc.notifier == nil || userID == "" {
		return
	}

	uc.runner.Go("notify:"+eventKind, uc.opts.NotifyTimeout, func(ctx context.Context) error {
		return uc.notifier.Notify(ctx, userID, eventKind, payload)
	})
}

func validStatus(s entity.DisputeStatus) bool {
	switch s {
	case entity.DisputeStatusOpen, entity.DisputeStatusPendingMerchant,
		entity.DisputeStatusPendingCustomer, entity.DisputeStatusUnderReview,
		entity.DisputeStatusEvidenceRequired, entity.DisputeStatusEscalated,
		entity.DisputeStatusResolved, entity.DisputeStatusWon,
		entity.DisputeStatusLost, entity.DisputeStatusClosed:
		return true
	}
	return false
}

type pageParams struct {
	PageSize int
	Offset   int
}

func normalizePage(page, limit int) pageParams {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return pageParams{PageSize: limit, Offset: (page - 1) * limit}
}
