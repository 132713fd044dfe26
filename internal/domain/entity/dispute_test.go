package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminal(t *testing.T) {
	terminal := []DisputeStatus{DisputeStatusResolved, DisputeStatusWon, DisputeStatusLost, DisputeStatusClosed}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	active := []DisputeStatus{
		DisputeStatusOpen, DisputeStatusPendingMerchant, DisputeStatusPendingCustomer,
		DisputeStatusUnderReview, DisputeStatusEvidenceRequired, DisputeStatusEscalated,
	}
	for _, s := range active {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}

func TestValidReason(t *testing.T) {
	assert.True(t, ValidReason(ReasonFraud))
	assert.True(t, ValidReason(ReasonOther))
	assert.False(t, ValidReason("chargeback"))
	assert.False(t, ValidReason(""))
}

func TestValidOutcome(t *testing.T) {
	assert.True(t, ValidOutcome(OutcomePartialRefund))
	assert.False(t, ValidOutcome("split_refund"))
	assert.False(t, ValidOutcome(""))
}

func TestMessageVisibleToRole(t *testing.T) {
	internal := &DisputeMessage{Internal: true, VisibleTo: []PartyRole{RoleCustomer}}
	assert.True(t, internal.VisibleToRole(RoleAdmin))
	assert.False(t, internal.VisibleToRole(RoleCustomer))
	assert.False(t, internal.VisibleToRole(RoleMerchant))

	open := &DisputeMessage{}
	assert.True(t, open.VisibleToRole(RoleCustomer))
	assert.True(t, open.VisibleToRole(RoleMerchant))

	scoped := &DisputeMessage{VisibleTo: []PartyRole{RoleMerchant}}
	assert.True(t, scoped.VisibleToRole(RoleMerchant))
	assert.False(t, scoped.VisibleToRole(RoleCustomer))
	// Admins see everything that is not, strictly, hidden from them
	assert.True(t, scoped.VisibleToRole(RoleAdmin))
}
