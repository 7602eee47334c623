// Package sheets talks to the spreadsheet-backed claim ledger through its
// webhook. The webhook script owns the ledger's mutual-exclusion lock and
// performs its own check-then-append inside that lock, so one append call is
// one complete claim transaction; this client never composes a separate check
// with an append.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	perr "masterbox/internal/platform/errors"
	"masterbox/internal/platform/logger"
	"masterbox/internal/services/claims/domain"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultMaxAttempts  = 2
	defaultRetryDelay   = 2 * time.Second
)

// Options configures the webhook client.
type Options struct {
	WebhookURL string

	// ReadTimeout bounds checkOrder calls, WriteTimeout bounds appends
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxAttempts and RetryDelay apply to appends only, and only for
	// timeout-class failures. Duplicates and rejections are never retried
	MaxAttempts int
	RetryDelay  time.Duration
}

// Client is the webhook-backed domain.Ledger.
type Client struct {
	read  *http.Client
	write *http.Client
	opts  Options
	log   logger.Logger
	sleep func(time.Duration)
}

// New builds a Client with sane defaults.
func New(o Options) *Client {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	return &Client{
		read:  &http.Client{Timeout: o.ReadTimeout},
		write: &http.Client{Timeout: o.WriteTimeout},
		opts:  o,
		log:   *logger.Named("sheets"),
		sleep: time.Sleep,
	}
}

// checkReply is the webhook's checkOrder response.
type checkReply struct {
	Exists      bool   `json:"exists"`
	Timestamp   string `json:"timestamp"`
	Specialties string `json:"specialties"`
	Email       string `json:"email"`
}

// appendRow is the webhook's append payload; field names match the sheet
// script's column mapping.
type appendRow struct {
	Email          string `json:"email"`
	CustomerID     string `json:"customer_id"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	Specialties    string `json:"specialties"`
	SpecialtyCount int    `json:"specialty_count"`
	Campaign       string `json:"campaign"`
	OrderID        string `json:"order_id"`
	SubmissionID   string `json:"submission_id"`
}

// appendReply is the webhook's append response.
type appendReply struct {
	Success     bool   `json:"success"`
	Duplicate   bool   `json:"duplicate"`
	Error       string `json:"error"`
	Timestamp   string `json:"timestamp"`
	Specialties string `json:"specialties"`
}

// Find implements domain.Ledger.
func (c *Client) Find(ctx context.Context, orderIDNorm string) (*domain.ClaimRecord, error) {
	u := c.opts.WebhookURL + "?action=checkOrder&orderId=" + url.QueryEscape(orderIDNorm)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "sheets new request")
	}
	resp, err := c.read.Do(req)
	if err != nil {
		return nil, classify(err, "sheets check failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "sheets check status %d", resp.StatusCode)
	}
	var rep checkReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rep); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "sheets check decode")
	}
	if !rep.Exists {
		return nil, nil
	}
	return summaryRecord(orderIDNorm, rep.Timestamp, rep.Specialties, rep.Email), nil
}

// Claim implements domain.Ledger. The webhook script runs the critical
// section; a duplicate reply means another claim won the order.
func (c *Client) Claim(ctx context.Context, rec domain.ClaimRecord) (*domain.ClaimRecord, bool, error) {
	rep, err := c.append(ctx, rec)
	if err != nil {
		return nil, false, err
	}
	if rep.Duplicate {
		existing := summaryRecord(rec.OrderIDNorm, rep.Timestamp, rep.Specialties, "")
		if existing.CreatedAt.IsZero() && existing.Specialties == nil {
			// reply carried no detail; best effort advisory read
			if found, ferr := c.Find(ctx, rec.OrderIDNorm); ferr == nil && found != nil {
				existing = found
			}
		}
		return existing, false, nil
	}
	if !rep.Success {
		msg := rep.Error
		if msg == "" {
			msg = "unsuccessful response"
		}
		return nil, false, perr.Newf(perr.ErrorCodeDB, "sheets append rejected: %s", msg)
	}
	return nil, true, nil
}

// AppendTest implements domain.Ledger. The TEST_ campaign label keeps test
// rows out of the production namespace on the sheet side.
func (c *Client) AppendTest(ctx context.Context, rec domain.ClaimRecord) error {
	rep, err := c.append(ctx, rec)
	if err != nil {
		return err
	}
	if !rep.Success && !rep.Duplicate {
		return perr.Newf(perr.ErrorCodeDB, "sheets test append rejected: %s", rep.Error)
	}
	return nil
}

// append posts one row, retrying timeout-class failures only.
func (c *Client) append(ctx context.Context, rec domain.ClaimRecord) (appendReply, error) {
	row := appendRow{
		Email:          rec.Email,
		CustomerID:     rec.CustomerID,
		Firstname:      rec.FirstName,
		Lastname:       rec.LastName,
		Specialties:    domain.JoinSpecialties(rec.Specialties),
		SpecialtyCount: len(rec.Specialties),
		Campaign:       rec.Campaign,
		OrderID:        rec.OrderIDRaw,
		SubmissionID:   rec.SubmissionID,
	}
	body, err := json.Marshal(row)
	if err != nil {
		return appendReply{}, perr.Wrap(err, perr.ErrorCodeUnknown, "sheets marshal row")
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.WebhookURL, bytes.NewReader(body))
		if err != nil {
			return appendReply{}, perr.Wrap(err, perr.ErrorCodeUnknown, "sheets new request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.write.Do(req)
		if err != nil {
			lastErr = classify(err, "sheets append failed")
			if !isTimeout(err) || attempt == c.opts.MaxAttempts {
				return appendReply{}, lastErr
			}
			c.log.Warn().Int("attempt", attempt).Dur("retry_in", c.opts.RetryDelay).Msg("sheets append timeout retrying")
			c.sleep(c.opts.RetryDelay)
			continue
		}

		var rep appendReply
		decErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rep)
		_ = resp.Body.Close()
		if resp.StatusCode >= 500 {
			return appendReply{}, perr.Newf(perr.ErrorCodeUnavailable, "sheets append status %d", resp.StatusCode)
		}
		if decErr != nil {
			return appendReply{}, perr.Wrap(decErr, perr.ErrorCodeDB, "sheets append decode")
		}
		return rep, nil
	}
	return appendReply{}, lastErr
}

func summaryRecord(orderIDNorm, timestamp, specialties, email string) *domain.ClaimRecord {
	rec := &domain.ClaimRecord{
		OrderIDRaw:  orderIDNorm,
		OrderIDNorm: orderIDNorm,
		Email:       email,
	}
	if ts, err := time.Parse(time.RFC3339, timestamp); err == nil {
		rec.CreatedAt = ts
	}
	if specialties != "" {
		rec.Specialties = []string{specialties}
	}
	return rec
}

// classify maps transport errors: timeouts and cancellations are transient.
func classify(err error, msg string) error {
	if isTimeout(err) {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, msg+": timeout")
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, msg)
}

func isTimeout(err error) bool {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
