// Package service implements the claim guard.
//
// The guard enforces at most one claim per order. Every submit runs the same
// transaction: normalize the order id, enter the ledger's critical section,
// check for an existing record, append when absent. Normalization and the
// atomic check-then-append live below this layer; the service owns input
// shaping, campaign labeling, the test-mode bypass, and side effects.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"masterbox/internal/core/emailnorm"
	"masterbox/internal/core/orderid"
	perr "masterbox/internal/platform/errors"
	"masterbox/internal/platform/logger"
	"masterbox/internal/services/claims/domain"
)

// Config for the claim guard.
type Config struct {
	// Campaign labels production rows; test-mode rows get the TEST_ prefix
	Campaign string
}

// Service implements domain.ServicePort.
type Service struct {
	ledger   domain.Ledger // nil when no claim store is configured
	sink     domain.AttemptSink
	notifier domain.Notifier
	cfg      Config
	log      logger.Logger
	now      func() time.Time
}

// New constructs the claim guard. ledger may be nil, in which case checks
// degrade open and submits fail with a configuration error.
func New(ledger domain.Ledger, sink domain.AttemptSink, notifier domain.Notifier, cfg Config) *Service {
	if cfg.Campaign == "" {
		cfg.Campaign = "default"
	}
	return &Service{
		ledger:   ledger,
		sink:     sink,
		notifier: notifier,
		cfg:      cfg,
		log:      *logger.Named("claims"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit implements domain.ServicePort.
func (s *Service) Submit(ctx context.Context, in domain.SubmitInput) (domain.SubmitOutcome, error) {
	if s.ledger == nil {
		return domain.SubmitOutcome{}, perr.New(perr.ErrorCodeUnavailable, "no claim store configured")
	}

	rec := s.buildRecord(in)
	// scope downstream logs to the campaign handling this claim
	ctx = logger.WithRequest(ctx, "", rec.Campaign)

	if in.TestMode {
		// test rows skip the guard entirely; they live in their own namespace
		// and never consume a production order id
		if err := s.ledger.AppendTest(ctx, rec); err != nil {
			s.report(ctx, rec, "failed", err)
			return domain.SubmitOutcome{}, err
		}
		s.report(ctx, rec, "recorded", nil)
		return domain.SubmitOutcome{SubmissionID: rec.SubmissionID, OrderID: rec.OrderIDNorm}, nil
	}

	existing, claimed, err := s.ledger.Claim(ctx, rec)
	if err != nil {
		s.report(ctx, rec, "failed", err)
		return domain.SubmitOutcome{}, err
	}
	if !claimed {
		s.report(ctx, rec, "duplicate", nil)
		return domain.SubmitOutcome{
			Duplicate: true,
			OrderID:   rec.OrderIDNorm,
			Existing:  existing.Summary(),
		}, nil
	}

	s.report(ctx, rec, "recorded", nil)
	if s.notifier != nil {
		if nerr := s.notifier.ClaimRecorded(ctx, rec); nerr != nil {
			// the claim is already durable; notification loss is tolerable
			logger.C(ctx).Warn().Err(nerr).Str("order_id", rec.OrderIDNorm).Msg("claim notify failed")
		}
	}
	return domain.SubmitOutcome{SubmissionID: rec.SubmissionID, OrderID: rec.OrderIDNorm}, nil
}

// Check implements domain.ServicePort. Advisory only: any backend trouble
// reports not-submitted so a legitimate claim is never blocked by an outage.
// Submit re-checks inside its critical section regardless.
func (s *Service) Check(ctx context.Context, in domain.CheckInput) (domain.CheckOutcome, error) {
	key := strings.TrimSpace(in.Key())
	if key == "" {
		return domain.CheckOutcome{}, perr.New(perr.ErrorCodeValidation, "orderId or orderIncrementId required")
	}
	norm := orderid.Normalize(key)

	if s.ledger == nil {
		return domain.CheckOutcome{Message: "claim store not configured, proceeding"}, nil
	}
	rec, err := s.ledger.Find(ctx, norm)
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", norm).Msg("claim check degraded open")
		return domain.CheckOutcome{Message: "check unavailable, proceeding"}, nil
	}
	if rec == nil {
		return domain.CheckOutcome{}, nil
	}
	return domain.CheckOutcome{HasSubmitted: true, Existing: rec.Summary()}, nil
}

func (s *Service) buildRecord(in domain.SubmitInput) domain.ClaimRecord {
	raw := strings.TrimSpace(in.OrderID)
	campaign := s.cfg.Campaign
	if in.TestMode {
		campaign = "TEST_" + campaign
	}
	now := s.now()
	return domain.ClaimRecord{
		OrderIDRaw:    raw,
		OrderIDNorm:   orderid.Normalize(raw),
		Email:         emailnorm.Normalize(in.Email),
		CustomerID:    strings.TrimSpace(in.CustomerID),
		FirstName:     strings.TrimSpace(in.Firstname),
		LastName:      strings.TrimSpace(in.Lastname),
		Specialties:   trimAll(in.Specialties),
		Campaign:      campaign,
		SubmissionID:  newSubmissionID(now),
		OrderEntityID: strings.TrimSpace(in.OrderEntityID),
		OrderAmount:   strings.TrimSpace(in.OrderAmount),
		Status:        "CLAIMED",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *Service) report(ctx context.Context, rec domain.ClaimRecord, decision string, err error) {
	if s.sink == nil {
		return
	}
	ev := domain.AttemptEvent{
		OrderIDNorm: rec.OrderIDNorm,
		Campaign:    rec.Campaign,
		Decision:    decision,
	}
	if err != nil {
		ev.Err = err.Error()
	}
	s.sink.Attempt(ctx, ev)
}

// newSubmissionID mints a correlation id for one successful append. Uniqueness
// comes from the uuid fragment; the millisecond prefix keeps ids sortable in
// the ledger.
func newSubmissionID(now time.Time) string {
	frag := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("SUB_%d_%s", now.UnixMilli(), frag)
}

func trimAll(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if v := strings.TrimSpace(x); v != "" {
			out = append(out, v)
		}
	}
	return out
}
