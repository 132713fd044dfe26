package entity

import (
	"time"
)

type DisputeStatus string
type DisputeReason string
type DisputePriority string
type ResolutionOutcome string

const (
	DisputeStatusOpen             DisputeStatus = "open"
	DisputeStatusPendingMerchant  DisputeStatus = "pending_merchant"
	DisputeStatusPendingCustomer  DisputeStatus = "pending_customer"
	DisputeStatusUnderReview      DisputeStatus = "under_review"
	DisputeStatusEvidenceRequired DisputeStatus = "evidence_required"
	DisputeStatusEscalated        DisputeStatus = "escalated"
	DisputeStatusResolved         DisputeStatus = "resolved"
	DisputeStatusWon              DisputeStatus = "won"
	DisputeStatusLost             DisputeStatus = "lost"
	DisputeStatusClosed           DisputeStatus = "closed"
)

const (
	ReasonDuplicateCharge       DisputeReason = "duplicate_charge"
	ReasonFraud                 DisputeReason = "fraud"
	ReasonProductNotReceived    DisputeReason = "product_not_received"
	ReasonProductUnacceptable   DisputeReason = "product_unacceptable"
	ReasonSubscriptionCancelled DisputeReason = "subscription_cancelled"
	ReasonUnrecognizedCharge    DisputeReason = "unrecognized_charge"
	ReasonCreditNotProcessed    DisputeReason = "credit_not_processed"
	ReasonGeneral               DisputeReason = "general"
	ReasonOther                 DisputeReason = "other"
)

const (
	PriorityLow    DisputePriority = "low"
	PriorityMedium DisputePriority = "medium"
	PriorityHigh   DisputePriority = "high"
	PriorityUrgent DisputePriority = "urgent"
)

const (
	OutcomeFullRefund    ResolutionOutcome = "full_refund"
	OutcomePartialRefund ResolutionOutcome = "partial_refund"
	OutcomeFavorMerchant ResolutionOutcome = "favor_merchant"
	OutcomeFavorCustomer ResolutionOutcome = "favor_customer"
	OutcomeNoAction      ResolutionOutcome = "no_action"
)

// ValidReason reports whether reason is one of the closed set of reason codes.
func ValidReason(reason DisputeReason) bool {
	switch reason {
	case ReasonDuplicateCharge, ReasonFraud, ReasonProductNotReceived,
		ReasonProductUnacceptable, ReasonSubscriptionCancelled,
		ReasonUnrecognizedCharge, ReasonCreditNotProcessed,
		ReasonGeneral, ReasonOther:
		return true
	}
	return false
}

// ValidOutcome reports whether outcome is one of the closed set of resolution outcomes.
func ValidOutcome(outcome ResolutionOutcome) bool {
	switch outcome {
	case OutcomeFullRefund, OutcomePartialRefund, OutcomeFavorMerchant,
		OutcomeFavorCustomer, OutcomeNoAction:
		return true
	}
	return false
}

// IsTerminal reports whether status is one of the states only reopen can leave.
func (s DisputeStatus) IsTerminal() bool {
	switch s {
	case DisputeStatusResolved, DisputeStatusWon, DisputeStatusLost, DisputeStatusClosed:
		return true
	}
	return false
}

type Dispute struct {
	ID         string `json:"id" firestore:"id"`
	CustomerID string `json:"customer_id" firestore:"customerId"`
	MerchantID string `json:"merchant_id,omitempty" firestore:"merchantId,omitempty"`
	BusinessID string `json:"business_id,omitempty" firestore:"businessId,omitempty"`

	// Subject
	TransactionID string `json:"transaction_id,omitempty" firestore:"transactionId,omitempty"`
	PaymentID     string `json:"payment_id,omitempty" firestore:"paymentId,omitempty"`
	Amount        int64  `json:"amount" firestore:"amount"` // minor units, immutable once set
	Currency      string `json:"currency" firestore:"currency"`

	// Classification
	Reason      DisputeReason `json:"reason" firestore:"reason"`
	Description string        `json:"description" firestore:"description"`

	// Lifecycle
	Status   DisputeStatus   `json:"status" firestore:"status"`
	Priority DisputePriority `json:"priority" firestore:"priority"`

	// Resolution. Populated together or not at all.
	ResolutionOutcome ResolutionOutcome `json:"resolution_outcome,omitempty" firestore:"resolutionOutcome,omitempty"`
	ResolutionAmount  int64             `json:"resolution_amount,omitempty" firestore:"resolutionAmount,omitempty"`
	ResolutionNotes   string            `json:"resolution_notes,omitempty" firestore:"resolutionNotes,omitempty"`
	ResolvedBy        string            `json:"resolved_by,omitempty" firestore:"resolvedBy,omitempty"`
	ResolvedAt        *time.Time        `json:"resolved_at,omitempty" firestore:"resolvedAt,omitempty"`

	// Assignment
	AssignedTo string `json:"assigned_to,omitempty" firestore:"assignedTo,omitempty"`

	// Evidence. Both lists are append-only; elements are never mutated or removed.
	CustomerEvidence []EvidenceItem `json:"customer_evidence" firestore:"customerEvidence"`
	MerchantEvidence []EvidenceItem `json:"merchant_evidence" firestore:"merchantEvidence"`

	// Risk
	FraudRiskScore   *int   `json:"fraud_risk_score,omitempty" firestore:"fraudRiskScore,omitempty"` // 0-100
	RiskAssessmentID string `json:"risk_assessment_id,omitempty" firestore:"riskAssessmentId,omitempty"`

	// Timeline
	CreatedAt                time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt                time.Time  `json:"updated_at" firestore:"updatedAt"`
	DueDate                  *time.Time `json:"due_date,omitempty" firestore:"dueDate,omitempty"`
	MerchantResponseDeadline *time.Time `json:"merchant_response_deadline,omitempty" firestore:"merchantResponseDeadline,omitempty"`
	MerchantRespondedAt      *time.Time `json:"merchant_responded_at,omitempty" firestore:"merchantRespondedAt,omitempty"`
}

type EvidenceItem struct {
	URL        string    `json:"url" firestore:"url"`
	Type       string    `json:"type" firestore:"type"` // content type of the stored object
	Name       string    `json:"name" firestore:"name"`
	Size       int64     `json:"size,omitempty" firestore:"size,omitempty"`
	UploadedBy string    `json:"uploaded_by" firestore:"uploadedBy"`
	UploadedAt time.Time `json:"uploaded_at" firestore:"uploadedAt"`
}

// DerivePriority maps a dispute amount (minor units) to a priority band.
// Pure function of the amount; escalation overrides it with urgent.
func DerivePriority(amount int64) DisputePriority {
	switch {
	case amount >= 1000000:
		return PriorityUrgent
	case amount >= 500000:
		return PriorityHigh
	case amount >= 100000:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
