package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"salonepay/internal/domain/entity"
	"salonepay/internal/domain/repository"
	"salonepay/internal/domain/service"
	"salonepay/internal/infrastructure/storage"
	"salonepay/pkg/errors"
)

// fakeDisputeRepo is an in-memory stand-in for the Firestore adapter.
type fakeDisputeRepo struct {
	mu       sync.Mutex
	disputes map[string]*entity.Dispute
	messages map[string][]*entity.DisputeMessage
	events   map[string][]*entity.DisputeEvent
	seq      int

	failCreateMessage bool
}

func newFakeDisputeRepo() *fakeDisputeRepo {
	return &fakeDisputeRepo{
		disputes: make(map[string]*entity.Dispute),
		messages: make(map[string][]*entity.DisputeMessage),
		events:   make(map[string][]*entity.DisputeEvent),
	}
}

func (r *fakeDisputeRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func copyDispute(d *entity.Dispute) *entity.Dispute {
	c := *d
	return &c
}

func (r *fakeDisputeRepo) Create(ctx context.Context, dispute *entity.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dispute.ID == "" {
		dispute.ID = r.nextID("dsp")
	}
	now := time.Now()
	dispute.CreatedAt = now
	dispute.UpdatedAt = now
	r.disputes[dispute.ID] = copyDispute(dispute)
	return nil
}

func (r *fakeDisputeRepo) GetByID(ctx context.Context, id string) (*entity.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.disputes[id]
	if !ok {
		return nil, errors.NotFound("Dispute", nil)
	}
	return copyDispute(d), nil
}

func (r *fakeDisputeRepo) Update(ctx context.Context, dispute *entity.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.disputes[dispute.ID]; !ok {
		return errors.NotFound("Dispute", nil)
	}
	dispute.UpdatedAt = time.Now()
	r.disputes[dispute.ID] = copyDispute(dispute)
	return nil
}

func (r *fakeDisputeRepo) List(ctx context.Context, filter repository.DisputeFilter, limit, offset int) ([]*entity.Dispute, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Dispute
	for _, d := range r.disputes {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && d.Priority != filter.Priority {
			continue
		}
		if filter.AssignedTo != "" && d.AssignedTo != filter.AssignedTo {
			continue
		}
		out = append(out, copyDispute(d))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return sliceWindow(out, limit, offset), int64(len(out)), nil
}

func (r *fakeDisputeRepo) ListByCustomerID(ctx context.Context, customerID string, limit, offset int) ([]*entity.Dispute, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Dispute
	for _, d := range r.disputes {
		if d.CustomerID == customerID {
			out = append(out, copyDispute(d))
		}
	}
	return sliceWindow(out, limit, offset), int64(len(out)), nil
}

func (r *fakeDisputeRepo) ListByBusinessID(ctx context.Context, businessID string, limit, offset int) ([]*entity.Dispute, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Dispute
	for _, d := range r.disputes {
		if d.BusinessID == businessID {
			out = append(out, copyDispute(d))
		}
	}
	return sliceWindow(out, limit, offset), int64(len(out)), nil
}

func sliceWindow(in []*entity.Dispute, limit, offset int) []*entity.Dispute {
	if offset > len(in) {
		offset = len(in)
	}
	end := len(in)
	if limit > 0 && limit != -1 && offset+limit < end {
		end = offset + limit
	}
	return in[offset:end]
}

func (r *fakeDisputeRepo) CreateMessage(ctx context.Context, message *entity.DisputeMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreateMessage {
		return errors.Internal("message store down", nil)
	}

	if message.ID == "" {
		message.ID = r.nextID("msg")
	}
	message.CreatedAt = time.Now()
	m := *message
	r.messages[message.DisputeID] = append(r.messages[message.DisputeID], &m)
	return nil
}

func (r *fakeDisputeRepo) GetMessageByID(ctx context.Context, disputeID, messageID string) (*entity.DisputeMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages[disputeID] {
		if m.ID == messageID {
			c := *m
			return &c, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *fakeDisputeRepo) ListMessages(ctx context.Context, disputeID string) ([]*entity.DisputeMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.DisputeMessage
	for _, m := range r.messages[disputeID] {
		c := *m
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeDisputeRepo) UpdateMessage(ctx context.Context, disputeID string, message *entity.DisputeMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.messages[disputeID] {
		if m.ID == message.ID {
			c := *message
			r.messages[disputeID][i] = &c
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

func (r *fakeDisputeRepo) CreateEvent(ctx context.Context, event *entity.DisputeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == "" {
		event.ID = r.nextID("evt")
	}
	event.CreatedAt = time.Now()
	e := *event
	r.events[event.DisputeID] = append(r.events[event.DisputeID], &e)
	return nil
}

func (r *fakeDisputeRepo) ListEvents(ctx context.Context, disputeID string) ([]*entity.DisputeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.DisputeEvent
	for _, e := range r.events[disputeID] {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeDisputeRepo) eventsOfType(disputeID string, t entity.DisputeEventType) []*entity.DisputeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.DisputeEvent
	for _, e := range r.events[disputeID] {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// fakeUserRepo holds a static user set.
type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) ListAdmins(ctx context.Context) ([]*entity.User, error) {
	var admins []*entity.User
	for _, u := range r.users {
		if u.Role == "admin" {
			admins = append(admins, u)
		}
	}
	return admins, nil
}

// fakeNotifier records deliveries.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []sentNotification
	errOn string
}

type sentNotification struct {
	UserID    string
	EventKind string
	Payload   map[string]interface{}
}

func (n *fakeNotifier) Notify(ctx context.Context, userID, eventKind string, payload map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.errOn != "" && n.errOn == eventKind {
		return fmt.Errorf("delivery failed for %s", eventKind)
	}

	n.sent = append(n.sent, sentNotification{UserID: userID, EventKind: eventKind, Payload: payload})
	return nil
}

func (n *fakeNotifier) sentTo(userID string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

func (n *fakeNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []string
	for _, s := range n.sent {
		out = append(out, s.EventKind)
	}
	return out
}

// fakeStorage returns deterministic stored objects, or fails on demand.
type fakeStorage struct {
	fail    bool
	uploads int
}

func (s *fakeStorage) UploadEvidence(ctx context.Context, file io.Reader, contentType, suggestedName, pathHint string) (*storage.StoredObject, error) {
	if s.fail {
		return nil, fmt.Errorf("bucket unavailable")
	}
	s.uploads++
	return &storage.StoredObject{
		URL:         fmt.Sprintf("https://storage.googleapis.com/test-bucket/private/disputes/%s/file-%d", pathHint, s.uploads),
		ContentType: contentType,
		Name:        suggestedName,
		Size:        42,
	}, nil
}

func (s *fakeStorage) GenerateSignedDownloadURL(fileURL string) (string, error) {
	if s.fail {
		return "", fmt.Errorf("bucket unavailable")
	}
	return fileURL + "?signed=1", nil
}

// fakeRiskService scores everything the same way.
type fakeRiskService struct {
	mu          sync.Mutex
	available   bool
	analyzeErr  error
	suggestErr  error
	score       int
	analyzed    []string
	suggestions int
}

func (s *fakeRiskService) Available() bool { return s.available }

func (s *fakeRiskService) Analyze(ctx context.Context, snapshot service.DisputeSnapshot) (*service.RiskAnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	s.analyzed = append(s.analyzed, snapshot.DisputeID)
	return &service.RiskAnalysisResult{
		AssessmentID:    "assess-" + snapshot.DisputeID,
		FraudRiskScore:  s.score,
		Recommendation:  "review",
		ConfidenceScore: 80,
		Reasoning:       "test reasoning",
	}, nil
}

func (s *fakeRiskService) SuggestResponse(ctx context.Context, snapshot service.DisputeSnapshot) (*service.SuggestedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.suggestErr != nil {
		return nil, s.suggestErr
	}
	s.suggestions++
	return &service.SuggestedResponse{
		SuggestedResponse:  "We shipped the order on time.",
		EvidenceToInclude:  []string{"shipping receipt"},
		StrengthAssessment: "strong",
		Tips:               []string{"attach tracking"},
	}, nil
}
