package repo

import (
	"context"
	"time"

	"masterbox/internal/platform/logger"
	"masterbox/internal/platform/store"
	"masterbox/internal/services/claims/domain"
)

// CHAttempts records guard decisions in the columnar store for campaign
// reporting. Strictly best effort: an insert failure is logged and dropped,
// never surfaced to the claim path.
type CHAttempts struct {
	ch  store.Clickhouse
	now func() time.Time
}

// NewCHAttempts builds the columnar attempt sink.
func NewCHAttempts(ch store.Clickhouse) *CHAttempts {
	return &CHAttempts{
		ch:  ch,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// attemptRow mirrors the claim_attempts table.
type attemptRow struct {
	At          time.Time `ch:"at"`
	OrderIDNorm string    `ch:"order_id_norm"`
	Campaign    string    `ch:"campaign"`
	Decision    string    `ch:"decision"`
	Error       string    `ch:"error"`
}

// Attempt implements domain.AttemptSink.
func (s *CHAttempts) Attempt(ctx context.Context, ev domain.AttemptEvent) {
	if s.ch == nil {
		return
	}
	row := attemptRow{
		At:          s.now(),
		OrderIDNorm: ev.OrderIDNorm,
		Campaign:    ev.Campaign,
		Decision:    ev.Decision,
		Error:       ev.Err,
	}
	if err := s.ch.Insert(ctx, "claim_attempts", []attemptRow{row}); err != nil {
		logger.C(ctx).Warn().Err(err).Str("order_id", ev.OrderIDNorm).Msg("attempt row dropped")
	}
}

// FanoutSink delivers one guard decision to several sinks.
type FanoutSink []domain.AttemptSink

// Attempt implements domain.AttemptSink.
func (f FanoutSink) Attempt(ctx context.Context, ev domain.AttemptEvent) {
	for _, s := range f {
		if s != nil {
			s.Attempt(ctx, ev)
		}
	}
}
