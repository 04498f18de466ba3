package manager

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tejzpr/privacy-portal/internal/db"
)

// ProcessingDays is the turnaround promised to requesters.
const ProcessingDays = 30

// ErrMissingIdentifier is returned when the identifier is empty after trimming.
var ErrMissingIdentifier = errors.New("identifier is required")

var submissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "privacy_portal_deletion_requests_total",
		Help: "Deletion request submissions by outcome",
	},
	[]string{"outcome"},
)

// SubmitInput is what a requester sends, before trimming.
type SubmitInput struct {
	Identifier string `validate:"required"`
	Channel    string
	Notes      string
}

// DeletionManager owns intake and listing of deletion requests.
type DeletionManager struct {
	store    db.Store
	broker   *SSEBroker
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// Option customizes a DeletionManager.
type Option func(*DeletionManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *DeletionManager) { m.now = now }
}

// WithIDGenerator overrides how request IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(m *DeletionManager) { m.newID = newID }
}

// NewDeletionManager creates a manager writing to store and announcing new
// requests on broker. broker may be nil.
func NewDeletionManager(store db.Store, broker *SSEBroker, opts ...Option) *DeletionManager {
	m := &DeletionManager{
		store:    store,
		broker:   broker,
		validate: validator.New(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit validates in and stores a new request with status received.
// Identical submissions are stored as separate requests.
func (m *DeletionManager) Submit(ctx context.Context, in SubmitInput) (db.DeletionRequest, error) {
	in.Identifier = strings.TrimSpace(in.Identifier)
	in.Channel = strings.TrimSpace(in.Channel)
	in.Notes = strings.TrimSpace(in.Notes)

	if err := m.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			submissionsTotal.WithLabelValues("rejected").Inc()
			return db.DeletionRequest{}, ErrMissingIdentifier
		}
		return db.DeletionRequest{}, fmt.Errorf("failed to validate request: %w", err)
	}

	req := db.DeletionRequest{
		RequestID:  m.newID(),
		Identifier: in.Identifier,
		Channel:    in.Channel,
		Notes:      in.Notes,
		Status:     db.StatusReceived,
		CreatedAt:  m.now().UTC(),
	}
	if err := m.store.Append(ctx, req); err != nil {
		submissionsTotal.WithLabelValues("error").Inc()
		return db.DeletionRequest{}, fmt.Errorf("failed to store request: %w", err)
	}
	submissionsTotal.WithLabelValues("received").Inc()

	if m.broker != nil {
		m.broker.Publish(req)
	}
	return req, nil
}

// List returns every stored request, most recent first.
func (m *DeletionManager) List(ctx context.Context) ([]db.DeletionRequest, error) {
	requests, err := m.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	if requests == nil {
		requests = []db.DeletionRequest{}
	}
	slices.Reverse(requests)
	return requests, nil
}

// ConfirmationMessage is the text shown to a requester after a successful submission.
func ConfirmationMessage(requestID string) string {
	return fmt.Sprintf("Request received. Your request ID is %s. We will process it within %d days.", requestID, ProcessingDays)
}

// MissingIdentifierMessage is shown when the form is posted without an identifier.
const MissingIdentifierMessage = "Please enter the email or phone number you used."
