// Package service implements ration issuance and collection reconciliation.
//
// Entitlement lookups and issuance are open to the distribution counter;
// listing and reconciling distributions require an administrator session and
// are rejected before the ledger is touched when the session is invalid.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	catalogModels "smartration/internal/catalog/models"
	"smartration/internal/distribution"
	"smartration/internal/distribution/models"
	"smartration/internal/entitlement"
	"smartration/internal/issuance/metrics"
	dErrors "smartration/pkg/domain-errors"
	"smartration/pkg/platform/sentinel"
	"smartration/pkg/requestcontext"
)

const tracerName = "smartration/internal/issuance/service"

type CatalogStore interface {
	FindCardByNumber(ctx context.Context, cardNumber string) (*catalogModels.Card, error)
	ListProducts(ctx context.Context) ([]*catalogModels.Product, error)
}

type Ledger interface {
	Create(ctx context.Context, cardNumber string, month models.Month, products []entitlement.Line, issuedAt time.Time) (*models.Distribution, error)
	List(ctx context.Context) ([]*models.Distribution, error)
	SetCompleted(ctx context.Context, id uuid.UUID, completed bool) (*models.Distribution, error)
}

// Session is what a verified administrator token tells the service.
type Session struct {
	Email string
}

// Authenticator verifies bearer tokens. Expiry is enforced by the implementation.
type Authenticator interface {
	Verify(token string) (*Session, error)
}

// Entitlement pairs a card with what it is owed this month.
type Entitlement struct {
	Card  *catalogModels.Card
	Lines []entitlement.Line
}

// IssueResult confirms a new distribution.
type IssueResult struct {
	ID      uuid.UUID
	Month   models.Month
	Message string
}

// Service orchestrates the catalog, the entitlement rules and the ledger.
type Service struct {
	catalog  CatalogStore
	ledger   Ledger
	auth     Authenticator
	location *time.Location
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLocation sets the zone whose calendar decides the issuance month.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func New(catalog CatalogStore, ledger Ledger, auth Authenticator, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog,
		ledger:   ledger,
		auth:     auth,
		location: time.UTC,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LookupEntitlement reads the card and the product catalog concurrently and
// computes the card's entitlement. It has no side effects.
func (s *Service) LookupEntitlement(ctx context.Context, cardNumber string) (result *Entitlement, err error) {
	ctx, span := s.tracer.Start(ctx, "issuance.LookupEntitlement")
	defer func() { endSpan(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveLookup(time.Now())
	}

	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "cardNumber is required")
	}
	span.SetAttributes(attribute.String("card_number", cardNumber))

	var (
		card     *catalogModels.Card
		products []*catalogModels.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.catalog.FindCardByNumber(gctx, cardNumber)
		if err != nil {
			return err
		}
		card = c
		return nil
	})
	g.Go(func() error {
		p, err := s.catalog.ListProducts(gctx)
		if err != nil {
			return err
		}
		products = p
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		s.logger.ErrorContext(ctx, "catalog lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"card_number", cardNumber,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up card")
	}

	lines, err := entitlement.Compute(card.FamilyMembers, products)
	if err != nil {
		return nil, err
	}
	return &Entitlement{Card: card, Lines: lines}, nil
}

// IssueRation records this month's distribution for the card. The lines are
// stored as supplied.
func (s *Service) IssueRation(ctx context.Context, cardNumber string, lines []entitlement.Line) (result *IssueResult, err error) {
	ctx, span := s.tracer.Start(ctx, "issuance.IssueRation")
	defer func() { endSpan(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveIssue(time.Now())
	}
	requestID := requestcontext.RequestID(ctx)

	cardNumber = strings.TrimSpace(cardNumber)
	if err := validateIssue(cardNumber, lines); err != nil {
		return nil, err
	}

	issuedAt := requestcontext.Now(ctx)
	month := models.MonthOf(issuedAt, s.location)
	span.SetAttributes(
		attribute.String("card_number", cardNumber),
		attribute.String("month", month.String()),
	)

	d, err := s.ledger.Create(ctx, cardNumber, month, lines, issuedAt)
	if err != nil {
		if errors.Is(err, distribution.ErrDuplicateIssuance) {
			if s.metrics != nil {
				s.metrics.IncrementDuplicate()
			}
			s.logger.WarnContext(ctx, "ration already issued this month",
				"request_id", requestID,
				"card_number", cardNumber,
				"month", month,
			)
			return nil, dErrors.New(dErrors.CodeAlreadyIssued, "Ration already issued for this month")
		}
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "failed to record distribution",
			"request_id", requestID,
			"card_number", cardNumber,
			"month", month,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue ration")
	}

	if s.metrics != nil {
		s.metrics.IncrementIssued()
	}
	s.logger.InfoContext(ctx, "ration issued",
		"request_id", requestID,
		"card_number", cardNumber,
		"month", month,
		"distribution_id", d.ID,
	)
	return &IssueResult{ID: d.ID, Month: d.Month, Message: "Ration issued successfully"}, nil
}

// ListIssuances returns every distribution to an authenticated administrator.
func (s *Service) ListIssuances(ctx context.Context, token string) (result []*models.Distribution, err error) {
	ctx, span := s.tracer.Start(ctx, "issuance.ListIssuances")
	defer func() { endSpan(span, err) }()

	ctx, err = s.requireSession(ctx, token)
	if err != nil {
		return nil, err
	}

	all, err := s.ledger.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list distributions",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list distributions")
	}
	return all, nil
}

// SetCollected marks or unmarks a distribution as physically collected.
// A malformed id is reported as not found.
func (s *Service) SetCollected(ctx context.Context, token, id string, completed bool) (result *models.Distribution, err error) {
	ctx, span := s.tracer.Start(ctx, "issuance.SetCollected")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Bool("completed", completed))

	ctx, err = s.requireSession(ctx, token)
	if err != nil {
		return nil, err
	}
	requestID := requestcontext.RequestID(ctx)

	distributionID, parseErr := uuid.Parse(strings.TrimSpace(id))
	if parseErr != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "distribution not found")
	}
	span.SetAttributes(attribute.String("distribution_id", distributionID.String()))

	d, err := s.ledger.SetCompleted(ctx, distributionID, completed)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "distribution not found")
		}
		s.logger.ErrorContext(ctx, "failed to update distribution",
			"request_id", requestID,
			"distribution_id", distributionID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update distribution")
	}

	if s.metrics != nil {
		s.metrics.IncrementToggle(completed)
	}
	s.logger.InfoContext(ctx, "distribution collection updated",
		"request_id", requestID,
		"distribution_id", d.ID,
		"card_number", d.CardNumber,
		"month", d.Month,
		"completed", d.Completed,
		"admin", requestcontext.AdminEmail(ctx),
	)
	return d, nil
}

// requireSession guards every administrative operation. It runs before any
// ledger access.
func (s *Service) requireSession(ctx context.Context, token string) (context.Context, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx, dErrors.New(dErrors.CodeUnauthorized, "missing session token")
	}
	session, err := s.auth.Verify(token)
	if err != nil {
		s.logger.WarnContext(ctx, "session rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return ctx, err
		}
		return ctx, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	return requestcontext.WithAdminEmail(ctx, session.Email), nil
}

func validateIssue(cardNumber string, lines []entitlement.Line) error {
	if cardNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "cardNumber is required")
	}
	if len(lines) == 0 {
		return dErrors.New(dErrors.CodeValidation, "products must be a non-empty list")
	}
	for _, l := range lines {
		if strings.TrimSpace(l.ProductName) == "" {
			return dErrors.New(dErrors.CodeValidation, "products[].productName is required")
		}
		if l.Quantity.IsNegative() {
			return dErrors.New(dErrors.CodeValidation, "products[].quantity cannot be negative")
		}
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
