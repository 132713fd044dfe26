package repository

import (
	"context"

	"salonepay/internal/domain/entity"
)

// DisputeFilter narrows admin listings. Zero values mean "no filter".
type DisputeFilter struct {
	Status     entity.DisputeStatus
	Priority   entity.DisputePriority
	AssignedTo string
	Search     string // matched against dispute id, customer name and customer email
}

type DisputeRepository interface {
	Create(ctx context.Context, dispute *entity.Dispute) error
	GetByID(ctx context.Context, id string) (*entity.Dispute, error)
	Update(ctx context.Context, dispute *entity.Dispute) error
	List(ctx context.Context, filter DisputeFilter, limit, offset int) ([]*entity.Dispute, int64, error)
	ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*entity.Dispute, int64, error)
	ListByBusinessID(ctx context.Context, businessID string, limit, offset int) ([]*entity.Dispute, int64, error)

	// Message methods
	CreateMessage(ctx context.Context, message *entity.DisputeMessage) error
	GetMessageByID(ctx context.Context, disputeID, messageID string) (*entity.DisputeMessage, error)
	ListMessages(ctx context.Context, disputeID string) ([]*entity.DisputeMessage, error)
	UpdateMessage(ctx context.Context, disputeID string, message *entity.DisputeMessage) error

	// Event methods
	CreateEvent(ctx context.Context, event *entity.DisputeEvent) error
	ListEvents(ctx context.Context, disputeID string) ([]*entity.DisputeEvent, error)
}
