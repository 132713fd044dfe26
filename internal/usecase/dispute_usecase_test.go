package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonepay/internal/domain/entity"
	"salonepay/internal/domain/repository"
	"salonepay/pkg/errors"
)

type disputeFixture struct {
	repo     *fakeDisputeRepo
	users    *fakeUserRepo
	notifier *fakeNotifier
	storage  *fakeStorage
	risk     *fakeRiskService
	uc       *DisputeUseCase
}

func newDisputeFixture(t *testing.T) *disputeFixture {
	t.Helper()

	repo := newFakeDisputeRepo()
	users := newFakeUserRepo(
		&entity.User{ID: "cust-1", Email: "amara@example.com", Username: "amara", Role: "customer"},
		&entity.User{ID: "merch-1", Email: "shop@example.com", Username: "freetownshop", Role: "merchant"},
		&entity.User{ID: "admin-1", Email: "ops@example.com", Username: "ops", Role: "admin"},
	)
	notifier := &fakeNotifier{}
	storage := &fakeStorage{}
	risk := &fakeRiskService{available: true, score: 35}

	uc := NewDisputeUseCase(repo, users, risk, notifier, storage, DisputeOptions{})

	return &disputeFixture{repo: repo, users: users, notifier: notifier, storage: storage, risk: risk, uc: uc}
}

var (
	customer = Actor{ID: "cust-1", Role: entity.RoleCustomer}
	merchant = Actor{ID: "merch-1", Role: entity.RoleMerchant}
	admin    = Actor{ID: "admin-1", Role: entity.RoleAdmin}
)

func (f *disputeFixture) createDispute(t *testing.T, amount int64) *entity.Dispute {
	t.Helper()

	dispute, err := f.uc.CreateDispute(context.Background(), customer, CreateDisputeInput{
		Reason:      entity.ReasonProductNotReceived,
		Description: "Order never arrived",
		Amount:      amount,
		Currency:    "SLE",
		MerchantID:  "merch-1",
		BusinessID:  "biz-1",
	})
	require.NoError(t, err)
	f.uc.WaitForBackgroundTasks()
	return dispute
}

func TestCreateDispute(t *testing.T) {
	f := newDisputeFixture(t)

	dispute := f.createDispute(t, 250000)

	assert.Equal(t, entity.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, entity.PriorityMedium, dispute.Priority)
	assert.NotNil(t, dispute.MerchantResponseDeadline)
	assert.Empty(t, dispute.CustomerEvidence)
	assert.Empty(t, dispute.MerchantEvidence)

	// One created event
	created := f.repo.eventsOfType(dispute.ID, entity.EventCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "cust-1", created[0].ActorID)

	// One system message announcing the response window
	messages, err := f.repo.ListMessages(context.Background(), dispute.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, entity.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "7 days")

	// Merchant heard about the filing
	assert.Len(t, f.notifier.sentTo("merch-1"), 1)

	// Risk analysis landed
	stored, err := f.repo.GetByID(context.Background(), dispute.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FraudRiskScore)
	assert.Equal(t, 35, *stored.FraudRiskScore)
	assert.Equal(t, "assess-"+dispute.ID, stored.RiskAssessmentID)

	// Analysis produced an admin-only message and an audit event
	analyzed := f.repo.eventsOfType(dispute.ID, entity.EventAIAnalyzed)
	assert.Len(t, analyzed, 1)
}

func TestCreateDisputeValidation(t *testing.T) {
	f := newDisputeFixture(t)

	_, err := f.uc.CreateDispute(context.Background(), customer, CreateDisputeInput{
		Reason:   "not_a_reason",
		Amount:   1000,
		Currency: "SLE",
	})
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, "BAD_REQUEST", appErr.Code)

	_, err = f.uc.CreateDispute(context.Background(), customer, CreateDisputeInput{
		Reason:   entity.ReasonFraud,
		Amount:   -5,
		Currency: "SLE",
	})
	require.Error(t, err)

	// Nothing was written
	_, total, err := f.repo.List(context.Background(), repository.DisputeFilter{}, -1, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateDisputeRateLimited(t *testing.T) {
	f := newDisputeFixture(t)

	for i := 0; i < 3; i++ {
		f.createDispute(t, 1000)
	}

	_, err := f.uc.CreateDispute(context.Background(), customer, CreateDisputeInput{
		Reason:   entity.ReasonFraud,
		Amount:   1000,
		Currency: "SLE",
	})
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, "TOO_MANY_REQUESTS", appErr.Code)
}

func TestPriorityBands(t *testing.T) {
	cases := []struct {
		amount int64
		want   entity.DisputePriority
	}{
		{0, entity.PriorityLow},
		{99999, entity.PriorityLow},
		{100000, entity.PriorityMedium},
		{499999, entity.PriorityMedium},
		{500000, entity.PriorityHigh},
		{999999, entity.PriorityHigh},
		{1000000, entity.PriorityUrgent},
		{5000000, entity.PriorityUrgent},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, entity.DerivePriority(tc.amount), "amount %d", tc.amount)
	}
}

func TestResolveOutcomeMapping(t *testing.T) {
	cases := []struct {
		outcome entity.ResolutionOutcome
		want    entity.DisputeStatus
	}{
		{entity.OutcomeFavorCustomer, entity.DisputeStatusWon},
		{entity.OutcomeFullRefund, entity.DisputeStatusWon},
		{entity.OutcomeFavorMerchant, entity.DisputeStatusLost},
		{entity.OutcomeNoAction, entity.DisputeStatusLost},
		{entity.OutcomePartialRefund, entity.DisputeStatusResolved},
	}

	for _, tc := range cases {
		f := newDisputeFixture(t)
		dispute := f.createDispute(t, 200000)

		resolved, err := f.uc.Resolve(context.Background(), admin, dispute.ID, ResolveDisputeInput{
			Outcome: tc.outcome,
			Notes:   "done",
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, resolved.Status, "outcome %s", tc.outcome)
		assert.Equal(t, "admin-1", resolved.ResolvedBy)
		assert.NotNil(t, resolved.ResolvedAt)
	}
}

func TestResolveFullRefundDefaultsToDisputedAmount(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 750000)

	resolved, err := f.uc.Resolve(context.Background(), admin, dispute.ID, ResolveDisputeInput{
		Outcome: entity.OutcomeFullRefund,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(750000), resolved.ResolutionAmount)
}

func TestResolveNotifiesBothParties(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	_, err := f.uc.Resolve(context.Background(), admin, dispute.ID, ResolveDisputeInput{
		Outcome: entity.OutcomePartialRefund,
		Amount:  int64Ptr(50000),
	})
	require.NoError(t, err)
	f.uc.WaitForBackgroundTasks()

	customerKinds := kindsOf(f.notifier.sentTo("cust-1"))
	merchantKinds := kindsOf(f.notifier.sentTo("merch-1"))
	assert.Contains(t, customerKinds, "dispute_resolved")
	assert.Contains(t, merchantKinds, "dispute_resolved")
}

func TestResolveSurvivesNotificationFailure(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	f.notifier.errOn = "dispute_resolved"

	resolved, err := f.uc.Resolve(context.Background(), admin, dispute.ID, ResolveDisputeInput{
		Outcome: entity.OutcomeNoAction,
	})
	require.NoError(t, err)
	f.uc.WaitForBackgroundTasks()

	assert.Equal(t, entity.DisputeStatusLost, resolved.Status)

	stored, err := f.repo.GetByID(context.Background(), dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusLost, stored.Status)
}

func TestEscalate(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 1000) // low priority

	escalated, err := f.uc.Escalate(context.Background(), customer, dispute.ID, "merchant unresponsive")
	require.NoError(t, err)

	assert.Equal(t, entity.DisputeStatusEscalated, escalated.Status)
	assert.Equal(t, entity.PriorityUrgent, escalated.Priority)

	events := f.repo.eventsOfType(dispute.ID, entity.EventEscalated)
	require.Len(t, events, 1)
	assert.Equal(t, string(entity.DisputeStatusOpen), events[0].OldValue)
}

func TestEscalateTerminalRejected(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 1000)

	_, err := f.uc.Resolve(context.Background(), admin, dispute.ID, ResolveDisputeInput{Outcome: entity.OutcomeNoAction})
	require.NoError(t, err)

	_, err = f.uc.Escalate(context.Background(), customer, dispute.ID, "too late")
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", appErr.Code)
}

func TestReopen(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	_, err := f.uc.Resolve(context.Background(), admin, dispute.ID, ResolveDisputeInput{
		Outcome: entity.OutcomeFavorMerchant,
		Notes:   "evidence was conclusive",
	})
	require.NoError(t, err)

	reopened, err := f.uc.Reopen(context.Background(), admin, dispute.ID, "new evidence surfaced")
	require.NoError(t, err)

	assert.Equal(t, entity.DisputeStatusUnderReview, reopened.Status)
	assert.Nil(t, reopened.ResolvedAt)
	assert.Empty(t, reopened.ResolvedBy)
	assert.Empty(t, reopened.ResolutionOutcome)
	assert.Zero(t, reopened.ResolutionAmount)
	assert.Empty(t, reopened.ResolutionNotes)

	// Prior resolution survives in the audit trail
	events, err := f.repo.ListEvents(context.Background(), dispute.ID)
	require.NoError(t, err)
	var found bool
	for _, e := range events {
		if strings.Contains(e.Description, "favor_merchant") && strings.Contains(e.Description, "reopened") {
			found = true
		}
	}
	assert.True(t, found, "reopen event should carry the prior resolution")
}

func TestReopenNonTerminalRejected(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	_, err := f.uc.Reopen(context.Background(), admin, dispute.ID, "still open")
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", appErr.Code)
}

func TestAssignToAdmin(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	assigned, err := f.uc.AssignToAdmin(context.Background(), admin, dispute.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", assigned.AssignedTo)

	// Assigning to a non-admin account is rejected
	_, err = f.uc.AssignToAdmin(context.Background(), admin, dispute.ID, "merch-1")
	require.Error(t, err)
}

func TestUploadEvidence(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	item, err := f.uc.UploadEvidence(context.Background(), merchant, dispute.ID, strings.NewReader("receipt"), "application/pdf", "receipt.pdf")
	require.NoError(t, err)
	assert.Equal(t, "receipt.pdf", item.Name)
	assert.Equal(t, "merch-1", item.UploadedBy)

	stored, err := f.repo.GetByID(context.Background(), dispute.ID)
	require.NoError(t, err)
	require.Len(t, stored.MerchantEvidence, 1)
	assert.Empty(t, stored.CustomerEvidence)

	events := f.repo.eventsOfType(dispute.ID, entity.EventEvidenceUploaded)
	assert.Len(t, events, 1)
}

func TestUploadEvidenceStorageFailure(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	f.storage.fail = true

	_, err := f.uc.UploadEvidence(context.Background(), customer, dispute.ID, strings.NewReader("x"), "image/png", "photo.png")
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, "STORAGE_ERROR", appErr.Code)

	// Dispute untouched
	stored, err := f.repo.GetByID(context.Background(), dispute.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CustomerEvidence)
	assert.Empty(t, f.repo.eventsOfType(dispute.ID, entity.EventEvidenceUploaded))
}

func TestUploadEvidenceAdminRejected(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	_, err := f.uc.UploadEvidence(context.Background(), admin, dispute.ID, strings.NewReader("x"), "image/png", "photo.png")
	require.Error(t, err)
}

func TestEvidenceDownloadURL(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	item, err := f.uc.UploadEvidence(context.Background(), customer, dispute.ID, strings.NewReader("x"), "image/png", "photo.png")
	require.NoError(t, err)

	signed, err := f.uc.GetEvidenceDownloadURL(context.Background(), merchant, dispute.ID, item.URL)
	require.NoError(t, err)
	assert.Contains(t, signed, "signed=1")

	// Unknown file
	_, err = f.uc.GetEvidenceDownloadURL(context.Background(), merchant, dispute.ID, "https://storage.googleapis.com/test-bucket/other")
	require.Error(t, err)

	// Outsider
	outsider := Actor{ID: "someone-else", Role: entity.RoleCustomer}
	_, err = f.uc.GetEvidenceDownloadURL(context.Background(), outsider, dispute.ID, item.URL)
	require.Error(t, err)
}

func TestRiskAnalysisUnavailable(t *testing.T) {
	f := newDisputeFixture(t)
	f.risk.available = false

	dispute := f.createDispute(t, 200000)

	stored, err := f.repo.GetByID(context.Background(), dispute.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FraudRiskScore)
	assert.Empty(t, f.repo.eventsOfType(dispute.ID, entity.EventAIAnalyzed))
}

func TestRiskAnalysisFailureDoesNotSurface(t *testing.T) {
	f := newDisputeFixture(t)
	f.risk.analyzeErr = assert.AnError

	dispute := f.createDispute(t, 200000)

	stored, err := f.repo.GetByID(context.Background(), dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusOpen, stored.Status)
	assert.Nil(t, stored.FraudRiskScore)
}

func TestSuggestedResponseDegrades(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	// Available: suggestion comes back
	suggestion, err := f.uc.GetSuggestedResponse(context.Background(), dispute.ID)
	require.NoError(t, err)
	require.NotNil(t, suggestion)
	assert.Equal(t, "strong", suggestion.StrengthAssessment)

	// Failing: nil, nil
	f.risk.suggestErr = assert.AnError
	suggestion, err = f.uc.GetSuggestedResponse(context.Background(), dispute.ID)
	require.NoError(t, err)
	assert.Nil(t, suggestion)

	// Unavailable: nil, nil
	f.risk.suggestErr = nil
	f.risk.available = false
	suggestion, err = f.uc.GetSuggestedResponse(context.Background(), dispute.ID)
	require.NoError(t, err)
	assert.Nil(t, suggestion)
}

func TestUpdateStatusRecordsTransition(t *testing.T) {
	f := newDisputeFixture(t)
	dispute := f.createDispute(t, 200000)

	updated, err := f.uc.UpdateStatus(context.Background(), admin, dispute.ID, entity.DisputeStatusEvidenceRequired, "need the receipt")
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusEvidenceRequired, updated.Status)

	events := f.repo.eventsOfType(dispute.ID, entity.EventStatusChanged)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, string(entity.DisputeStatusOpen), last.OldValue)
	assert.Equal(t, string(entity.DisputeStatusEvidenceRequired), last.NewValue)

	_, err = f.uc.UpdateStatus(context.Background(), admin, dispute.ID, "bogus", "")
	require.Error(t, err)
}

func TestGetStats(t *testing.T) {
	f := newDisputeFixture(t)

	d1 := f.createDispute(t, 1000)
	f.createDispute(t, 2000)

	_, err := f.uc.Resolve(context.Background(), admin, d1.ID, ResolveDisputeInput{Outcome: entity.OutcomeNoAction})
	require.NoError(t, err)

	stats, err := f.uc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[entity.DisputeStatusLost])
	assert.Equal(t, int64(1), stats.ByStatus[entity.DisputeStatusOpen])
}

func int64Ptr(v int64) *int64 { return &v }

func kindsOf(sent []sentNotification) []string {
	out := make([]string, 0, len(sent))
	for _, s := range sent {
		out = append(out, s.EventKind)
	}
	return out
}
