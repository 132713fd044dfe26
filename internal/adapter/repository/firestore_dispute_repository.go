package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"salonepay/internal/domain/entity"
	"salonepay/internal/domain/repository"
	"salonepay/pkg/errors"
	"salonepay/pkg/logger"
)

type firestoreDisputeRepository struct {
	client *firestore.Client
}

func NewFirestoreDisputeRepository(client *firestore.Client) repository.DisputeRepository {
	return &firestoreDisputeRepository{
		client: client,
	}
}

func (r *firestoreDisputeRepository) Create(ctx context.Context, dispute *entity.Dispute) error {
	if dispute.ID == "" {
		dispute.ID = uuid.New().String()
	}

	now := time.Now()
	dispute.CreatedAt = now
	dispute.UpdatedAt = now

	_, err := r.client.Collection("disputes").Doc(dispute.ID).Set(ctx, dispute)
	if err != nil {
		return errors.Internal("Failed to create dispute", err)
	}

	return nil
}

func (r *firestoreDisputeRepository) GetByID(ctx context.Context, id string) (*entity.Dispute, error) {
	doc, err := r.client.Collection("disputes").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Dispute", err)
		}
		return nil, errors.Internal("Failed to get dispute", err)
	}

	var dispute entity.Dispute
	if err := doc.DataTo(&dispute); err != nil {
		return nil, errors.Internal("Failed to parse dispute data", err)
	}

	return &dispute, nil
}

func (r *firestoreDisputeRepository) Update(ctx context.Context, dispute *entity.Dispute) error {
	dispute.UpdatedAt = time.Now()

	_, err := r.client.Collection("disputes").Doc(dispute.ID).Set(ctx, dispute)
	if err != nil {
		return errors.Internal("Failed to update dispute", err)
	}

	return nil
}

func (r *firestoreDisputeRepository) List(ctx context.Context, filter repository.DisputeFilter, limit, offset int) ([]*entity.Dispute, int64, error) {
	query := r.client.Collection("disputes").Query

	if filter.Status != "" {
		query = query.Where("status", "==", string(filter.Status))
	}
	if filter.Priority != "" {
		query = query.Where("priority", "==", string(filter.Priority))
	}
	if filter.AssignedTo != "" {
		query = query.Where("assignedTo", "==", filter.AssignedTo)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing disputes: %v", err)
		return nil, 0, errors.Internal("Failed to list disputes", err)
	}

	var disputes []*entity.Dispute
	for _, doc := range docs {
		var dispute entity.Dispute
		if err := doc.DataTo(&dispute); err != nil {
			continue // Skip malformed documents
		}
		disputes = append(disputes, &dispute)
	}

	if filter.Search != "" {
		disputes = r.filterBySearch(ctx, disputes, filter.Search)
	}

	// Newest first
	sort.Slice(disputes, func(i, j int) bool {
		return disputes[i].CreatedAt.After(disputes[j].CreatedAt)
	})

	total := int64(len(disputes))
	return paginate(disputes, limit, offset), total, nil
}

// filterBySearch matches the term against dispute ids and against the
// customer's name/email. Firestore has no full-text search; a dedicated
// search service would replace this scan at scale.
func (r *firestoreDisputeRepository) filterBySearch(ctx context.Context, disputes []*entity.Dispute, term string) []*entity.Dispute {
	term = strings.ToLower(term)

	matchedCustomers := make(map[string]bool)
	userDocs, err := r.client.Collection("users").Documents(ctx).GetAll()
	if err == nil {
		for _, doc := range userDocs {
			var user entity.User
			if err := doc.DataTo(&user); err != nil {
				continue
			}
			if strings.Contains(strings.ToLower(user.Username), term) || strings.Contains(strings.ToLower(user.Email), term) {
				matchedCustomers[user.ID] = true
			}
		}
	}

	var matched []*entity.Dispute
	for _, d := range disputes {
		if strings.Contains(strings.ToLower(d.ID), term) || matchedCustomers[d.CustomerID] {
			matched = append(matched, d)
		}
	}

	return matched
}

func (r *firestoreDisputeRepository) ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*entity.Dispute, int64, error) {
	return r.listByField(ctx, "customerId", customerID, limit, offset)
}

func (r *firestoreDisputeRepository) ListByBusinessID(ctx context.Context, businessID string, limit, offset int) ([]*entity.Dispute, int64, error) {
	return r.listByField(ctx, "businessId", businessID, limit, offset)
}

func (r *firestoreDisputeRepository) listByField(ctx context.Context, field, value string, limit, offset int) ([]*entity.Dispute, int64, error) {
	query := r.client.Collection("disputes").Where(field, "==", value).OrderBy("createdAt", firestore.Desc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing disputes by %s: %v", field, err)
		return nil, 0, errors.Internal("Failed to list disputes", err)
	}

	var disputes []*entity.Dispute
	for _, doc := range docs {
		var dispute entity.Dispute
		if err := doc.DataTo(&dispute); err != nil {
			continue
		}
		disputes = append(disputes, &dispute)
	}

	total := int64(len(disputes))
	return paginate(disputes, limit, offset), total, nil
}

// Apply pagination in-memory (faster than double Firestore query)
func paginate(disputes []*entity.Dispute, limit, offset int) []*entity.Dispute {
	start := offset
	end := len(disputes)
	if limit > 0 && limit != -1 {
		end = start + limit
		if end > len(disputes) {
			end = len(disputes)
		}
	}
	if start > len(disputes) {
		start = len(disputes)
	}
	return disputes[start:end]
}

func (r *firestoreDisputeRepository) CreateMessage(ctx context.Context, message *entity.DisputeMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	message.CreatedAt = time.Now()

	_, err := r.client.Collection("disputes").Doc(message.DisputeID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create dispute message", err)
	}

	return nil
}

func (r *firestoreDisputeRepository) GetMessageByID(ctx context.Context, disputeID, messageID string) (*entity.DisputeMessage, error) {
	doc, err := r.client.Collection("disputes").Doc(disputeID).Collection("messages").Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.DisputeMessage
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

func (r *firestoreDisputeRepository) ListMessages(ctx context.Context, disputeID string) ([]*entity.DisputeMessage, error) {
	query := r.client.Collection("disputes").Doc(disputeID).Collection("messages").OrderBy("createdAt", firestore.Asc)

	iter := query.Documents(ctx)
	var messages []*entity.DisputeMessage

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for dispute %s: %v", disputeID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.DisputeMessage
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message data for dispute %s: %v", disputeID, err)
			return nil, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreDisputeRepository) UpdateMessage(ctx context.Context, disputeID string, message *entity.DisputeMessage) error {
	_, err := r.client.Collection("disputes").Doc(disputeID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}

	return nil
}

func (r *firestoreDisputeRepository) CreateEvent(ctx context.Context, event *entity.DisputeEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	event.CreatedAt = time.Now()

	_, err := r.client.Collection("disputes").Doc(event.DisputeID).Collection("events").Doc(event.ID).Set(ctx, event)
	if err != nil {
		return errors.Internal("Failed to create dispute event", err)
	}

	return nil
}

func (r *firestoreDisputeRepository) ListEvents(ctx context.Context, disputeID string) ([]*entity.DisputeEvent, error) {
	query := r.client.Collection("disputes").Doc(disputeID).Collection("events").OrderBy("createdAt", firestore.Asc)

	iter := query.Documents(ctx)
	var events []*entity.DisputeEvent

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating events for dispute %s: %v", disputeID, err)
			return nil, errors.Internal("Failed to iterate events", err)
		}

		var event entity.DisputeEvent
		if err := doc.DataTo(&event); err != nil {
			logger.Error("Error parsing event data for dispute %s: %v", disputeID, err)
			return nil, errors.Internal("Failed to parse event data", err)
		}

		events = append(events, &event)
	}

	return events, nil
}
