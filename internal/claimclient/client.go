// Package claimclient is the consumer-side client for the claim API.
//
// The flow is two phase: look up the customer's latest eligible order, then
// submit the claim for it. Lookup never implies eligibility; the guard decides
// at submit time, because another session may have claimed the same order in
// between.
package claimclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	perr "masterbox/internal/platform/errors"
	"masterbox/internal/platform/logger"
)

const (
	defaultTimeout = 15 * time.Second
	apiPrefix      = "/api/v1"
)

// Options configures the Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the claim API.
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
		log:  *logger.Named("claimclient"),
	}
}

// OrderRef identifies the order a session intends to claim.
type OrderRef struct {
	IncrementID string
	EntityID    int64
	GrandTotal  float64
}

// AmountText renders the order total the way the ledger stores it.
func (r *OrderRef) AmountText() string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(r.GrandTotal, 'f', 2, 64)
}

// Customer is the lookup's customer block.
type Customer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// ResultKind discriminates submit outcomes.
type ResultKind int

// Submit outcomes, in rough order of decreasing happiness.
const (
	ResultSuccess ResultKind = iota
	ResultDuplicate
	ResultValidation
	ResultTransient
	ResultFatal
)

// SubmitResult is the discriminated outcome of one submit attempt.
type SubmitResult struct {
	Kind         ResultKind
	SubmissionID string
	OrderID      string

	// Duplicate detail, present when Kind is ResultDuplicate
	ExistingTimestamp   string
	ExistingSpecialties string

	// Message carries the validation or failure text
	Message string

	// Retryable mirrors the server's timeout marker
	Retryable bool
}

// CheckResult is the advisory pre-flight outcome.
type CheckResult struct {
	HasSubmitted bool
	Specialties  string
	Timestamp    string
	Message      string
}

// SubmitRequest is the claim payload.
type SubmitRequest struct {
	Email         string   `json:"email"`
	Specialties   []string `json:"specialties"`
	OrderID       string   `json:"orderId"`
	Firstname     string   `json:"firstname,omitempty"`
	Lastname      string   `json:"lastname,omitempty"`
	CustomerID    string   `json:"customerId,omitempty"`
	OrderEntityID string   `json:"orderEntityId,omitempty"`
	OrderAmount   string   `json:"orderAmount,omitempty"`
	TestMode      bool     `json:"testMode,omitempty"`
}

// LatestOrder fetches the customer's most recent eligible order. Returns
// (nil, nil, nil) when there is none.
func (c *Client) LatestOrder(ctx context.Context, email string) (*OrderRef, *Customer, error) {
	u := c.opts.BaseURL + apiPrefix + "/orders/latest?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, perr.Wrap(err, perr.ErrorCodeUnknown, "claimclient new request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, wrapTransport(err, "order lookup failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, perr.Newf(perr.ErrorCodeUnavailable, "order lookup status %d", resp.StatusCode)
	}

	var body struct {
		Success  bool     `json:"success"`
		Customer Customer `json:"customer"`
		Order    struct {
			ID          int64   `json:"id"`
			IncrementID string  `json:"increment_id"`
			GrandTotal  float64 `json:"grand_total"`
		} `json:"order"`
	}
	if err := decode(resp.Body, &body); err != nil {
		return nil, nil, err
	}
	return &OrderRef{
		IncrementID: body.Order.IncrementID,
		EntityID:    body.Order.ID,
		GrandTotal:  body.Order.GrandTotal,
	}, &body.Customer, nil
}

// Check runs the advisory duplicate pre-flight for an order.
func (c *Client) Check(ctx context.Context, ref OrderRef) (CheckResult, error) {
	payload := map[string]string{"orderIncrementId": ref.IncrementID}
	resp, err := c.post(ctx, "/claims/check", payload)
	if err != nil {
		return CheckResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		HasSubmitted   bool   `json:"hasSubmitted"`
		Message        string `json:"message"`
		SubmissionData struct {
			Timestamp   string `json:"timestamp"`
			Specialties string `json:"specialties"`
		} `json:"submissionData"`
	}
	if err := decode(resp.Body, &body); err != nil {
		return CheckResult{}, err
	}
	return CheckResult{
		HasSubmitted: body.HasSubmitted,
		Specialties:  body.SubmissionData.Specialties,
		Timestamp:    body.SubmissionData.Timestamp,
		Message:      body.Message,
	}, nil
}

// Submit attempts the claim. Server responses map onto SubmitResult kinds;
// only transport-level trouble comes back as an error.
func (c *Client) Submit(ctx context.Context, reqBody SubmitRequest) (SubmitResult, error) {
	resp, err := c.post(ctx, "/claims/submit", reqBody)
	if err != nil {
		return SubmitResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Success        bool   `json:"success"`
		SubmissionID   string `json:"submissionId"`
		OrderID        string `json:"orderId"`
		Duplicate      bool   `json:"duplicate"`
		Error          string `json:"error"`
		Timeout        bool   `json:"timeout"`
		SubmissionData struct {
			Timestamp   string `json:"timestamp"`
			Specialties string `json:"specialties"`
		} `json:"submissionData"`
	}
	if err := decode(resp.Body, &body); err != nil {
		return SubmitResult{}, err
	}

	switch {
	case resp.StatusCode == http.StatusOK && body.Success:
		return SubmitResult{
			Kind:         ResultSuccess,
			SubmissionID: body.SubmissionID,
			OrderID:      body.OrderID,
		}, nil
	case resp.StatusCode == http.StatusConflict:
		return SubmitResult{
			Kind:                ResultDuplicate,
			Message:             body.Error,
			ExistingTimestamp:   body.SubmissionData.Timestamp,
			ExistingSpecialties: body.SubmissionData.Specialties,
		}, nil
	case resp.StatusCode == http.StatusBadRequest:
		return SubmitResult{Kind: ResultValidation, Message: body.Error}, nil
	case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusServiceUnavailable:
		return SubmitResult{Kind: ResultTransient, Message: body.Error, Retryable: true}, nil
	default:
		return SubmitResult{Kind: ResultFatal, Message: body.Error}, nil
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "claimclient marshal")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+apiPrefix+path, bytes.NewReader(raw))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "claimclient new request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapTransport(err, "claim call failed")
	}
	return resp, nil
}

func decode(r io.Reader, v any) error {
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(v); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "claimclient decode")
	}
	return nil
}

func wrapTransport(err error, msg string) error {
	var ue *url.Error
	if (errors.As(err, &ue) && ue.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, msg+": timeout")
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, msg)
}
