// Package automation pushes claim activity to the marketing-automation
// backend. Everything here is best effort: the claim ledger is the source of
// truth and a lost notification is tolerable, so failures are logged and
// swallowed by the callers that can afford to.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	perr "masterbox/internal/platform/errors"
	"masterbox/internal/platform/logger"
	ptime "masterbox/internal/platform/time"
	"masterbox/internal/services/claims/domain"
)

const defaultTimeout = 10 * time.Second

// Options configures the Client.
type Options struct {
	BaseURL     string
	LicenseCode string
	APIKey      string
	Timeout     time.Duration
}

// Client talks to the automation REST API.
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// New creates a Client with sane defaults.
func New(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("automation"),
	}
}

// contactUpsert mirrors the automation API's contact payload.
type contactUpsert struct {
	Email        string     `json:"email"`
	Firstname    string     `json:"firstname,omitempty"`
	Lastname     string     `json:"lastname,omitempty"`
	Campaign     string     `json:"campaign"`
	Specialties  string     `json:"specialties"`
	OrderID      string     `json:"order_id"`
	SubmissionID string     `json:"submission_id"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
}

// attemptEvent mirrors the automation API's event payload.
type attemptEvent struct {
	Event    string `json:"event"`
	OrderID  string `json:"order_id"`
	Campaign string `json:"campaign"`
	Decision string `json:"decision"`
	Error    string `json:"error,omitempty"`
}

// ClaimRecorded implements domain.Notifier.
func (c *Client) ClaimRecorded(ctx context.Context, rec domain.ClaimRecord) error {
	return c.post(ctx, "/contacts/sync", contactUpsert{
		Email:        rec.Email,
		Firstname:    rec.FirstName,
		Lastname:     rec.LastName,
		Campaign:     rec.Campaign,
		Specialties:  domain.JoinSpecialties(rec.Specialties),
		OrderID:      rec.OrderIDNorm,
		SubmissionID: rec.SubmissionID,
		ClaimedAt:    ptime.Ptr(rec.CreatedAt),
	})
}

// Attempt implements domain.AttemptSink. Errors are logged, never returned.
func (c *Client) Attempt(ctx context.Context, ev domain.AttemptEvent) {
	err := c.post(ctx, "/events", attemptEvent{
		Event:    "claim_attempt",
		OrderID:  ev.OrderIDNorm,
		Campaign: ev.Campaign,
		Decision: ev.Decision,
		Error:    ev.Err,
	})
	if err != nil {
		c.log.Warn().Err(err).Str("order_id", ev.OrderIDNorm).Msg("attempt event dropped")
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	if c.opts.BaseURL == "" || c.opts.APIKey == "" {
		return perr.New(perr.ErrorCodeUnavailable, "automation backend not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "automation marshal")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "automation new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-License-Code", c.opts.LicenseCode)
	req.Header.Set("X-Api-Key", c.opts.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "automation post failed")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return perr.Newf(perr.ErrorCodeUnavailable, "automation status %d", resp.StatusCode)
	}
	return nil
}
