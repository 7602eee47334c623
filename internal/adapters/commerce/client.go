// Package commerce is a thin client for the storefront's order REST API.
// It answers exactly one question: the customer's most recent order inside
// the campaign eligibility window.
package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	perr "masterbox/internal/platform/errors"
	"masterbox/internal/platform/logger"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultWindow    = 30 * 24 * time.Hour
	ordersPath       = "/rest/V1/orders"
	createdAtPattern = "2006-01-02 15:04:05"
)

// Options configures the Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// Window bounds how far back the latest-order search looks
	Window time.Duration
}

// Order is the subset of the storefront order the campaign needs.
type Order struct {
	EntityID     int64   `json:"entity_id"`
	IncrementID  string  `json:"increment_id"`
	Status       string  `json:"status"`
	GrandTotal   float64 `json:"grand_total"`
	CurrencyCode string  `json:"order_currency_code"`
	CreatedAt    string  `json:"created_at"`

	CustomerID        int64  `json:"customer_id"`
	CustomerEmail     string `json:"customer_email"`
	CustomerFirstname string `json:"customer_firstname"`
	CustomerLastname  string `json:"customer_lastname"`
}

// searchResult is the storefront's search envelope.
type searchResult struct {
	Items      []Order `json:"items"`
	TotalCount int     `json:"total_count"`
}

// Client queries the storefront order API.
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// New creates a Client with sane defaults.
func New(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Window <= 0 {
		o.Window = defaultWindow
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("commerce"),
		now:  time.Now,
	}
}

// LatestOrder returns the newest order the customer placed inside the
// eligibility window, or nil when there is none.
func (c *Client) LatestOrder(ctx context.Context, email string) (*Order, error) {
	if c.opts.BaseURL == "" || c.opts.Token == "" {
		return nil, perr.New(perr.ErrorCodeUnavailable, "commerce backend not configured")
	}

	since := c.now().Add(-c.opts.Window).UTC().Format(createdAtPattern)
	q := url.Values{}
	setFilter(q, 0, "customer_email", email, "eq")
	setFilter(q, 1, "created_at", since, "gteq")
	q.Set("searchCriteria[sortOrders][0][field]", "created_at")
	q.Set("searchCriteria[sortOrders][0][direction]", "DESC")
	q.Set("searchCriteria[pageSize]", "1")

	u := c.opts.BaseURL + ordersPath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "commerce new request")
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if (errors.As(err, &ue) && ue.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "commerce lookup timeout")
		}
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "commerce lookup failed")
	}
	defer func() { _ = resp.Body.Close() }()
	c.log.Debug().Int("status", resp.StatusCode).Dur("took", c.now().Sub(start)).Msg("commerce order search")

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, perr.Newf(perr.ErrorCodeUnauthorized, "commerce auth rejected (%d)", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "commerce status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, perr.Newf(perr.ErrorCodeUnknown, "commerce status %d", resp.StatusCode)
	}

	var res searchResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&res); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "commerce decode")
	}
	if len(res.Items) == 0 {
		return nil, nil
	}
	return &res.Items[0], nil
}

func setFilter(q url.Values, group int, field, value, cond string) {
	prefix := fmt.Sprintf("searchCriteria[filter_groups][%d][filters][0]", group)
	q.Set(prefix+"[field]", field)
	q.Set(prefix+"[value]", value)
	q.Set(prefix+"[condition_type]", cond)
}
