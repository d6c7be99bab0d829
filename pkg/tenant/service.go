package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
)

// RegisterInput is the signup form.
type RegisterInput struct {
	Name  string `json:"company"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

// Service handles tenant onboarding.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a tenant Service. Panics if store is nil.
func NewService(store Store, log *slog.Logger) *Service {
	if store == nil {
		panic("tenant: Store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Register creates a tenant on the selected plan (starter when empty) with a trial
// starting now. The store seeds the usage counters, counting the signing-up user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Tenant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}

	planID := plans.Lowest
	if in.Plan != "" {
		id, ok := plans.ParseID(in.Plan)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, in.Plan)
		}
		planID = id
	}

	now := s.now().UTC()
	trialEnds := plans.Get(planID).TrialEndsAt(now)

	t := &Tenant{
		ID:          uuid.New(),
		Name:        name,
		Email:       strings.ToLower(email),
		Plan:        planID,
		Status:      StatusTrialing,
		TrialEndsAt: &trialEnds,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, t); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		s.log.ErrorContext(ctx, "failed to create tenant",
			logger.Error(err),
			logger.Plan(string(planID)),
		)
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	s.log.InfoContext(ctx, "tenant registered",
		logger.TenantID(t.ID),
		logger.Plan(string(planID)),
	)

	return t, nil
}

// Get returns a tenant by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.store.Get(ctx, id)
}
