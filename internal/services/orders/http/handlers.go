// Package http provides http transport for the order lookup. Same widget wire
// format as the claim endpoints.
package http

import (
	stdhttp "net/http"
	"net/url"
	"strings"

	"masterbox/internal/modkit/httpkit"
	perr "masterbox/internal/platform/errors"
	phttp "masterbox/internal/platform/net/http"
	"masterbox/internal/platform/net/http/bind"
	"masterbox/internal/services/orders/domain"
)

// Register mounts the order endpoints on the given router. The widget POSTs
// the email in a body; GET with a query parameter is kept for manual checks.
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	r.Post("/latest", h.latestPost)
	r.Get("/latest", h.latestGet)
}

type handlers struct{ svc domain.ServicePort }

type customerReply struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

type orderReply struct {
	ID           int64   `json:"id"`
	IncrementID  string  `json:"increment_id"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	GrandTotal   float64 `json:"grand_total"`
	CurrencyCode string  `json:"currency_code"`
}

type latestReply struct {
	Success  bool          `json:"success"`
	Customer customerReply `json:"customer"`
	Order    orderReply    `json:"order"`
	TestMode bool          `json:"testMode,omitempty"`
}

type failReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// @Summary Latest eligible order for a customer
// @Tags Orders
// @Accept json
// @Produce json
// @Param payload body domain.LatestInput true "Customer email"
// @Success 200 {object} latestReply "ok"
// @Failure 404 {object} failReply "no recent order"
// @Router /orders/latest [post]
func (h *handlers) latestPost(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	in, err := bind.ParseJSON[domain.LatestInput](r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	in.UAT = uatReferer(r)
	h.latest(w, r, in)
}

func (h *handlers) latestGet(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeFailure(w, perr.New(perr.ErrorCodeValidation, "email required"))
		return
	}
	h.latest(w, r, domain.LatestInput{Email: email, UAT: uatReferer(r)})
}

// uatReferer reports whether the call came from the staging site, which gets
// the UAT storefront backend.
func uatReferer(r *stdhttp.Request) bool {
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Host == "" {
		return false
	}
	host := strings.ToLower(ref.Host)
	return strings.Contains(host, "uat") || strings.Contains(host, "staging")
}

func (h *handlers) latest(w stdhttp.ResponseWriter, r *stdhttp.Request, in domain.LatestInput) {
	res, err := h.svc.Latest(r.Context(), in)
	if err != nil {
		writeFailure(w, err)
		return
	}
	o := res.Order
	phttp.JSON(w, stdhttp.StatusOK, latestReply{
		Success:  true,
		TestMode: res.TestMode,
		Customer: customerReply{
			ID:        o.CustomerID,
			Email:     o.CustomerEmail,
			Firstname: o.CustomerFirstname,
			Lastname:  o.CustomerLastname,
		},
		Order: orderReply{
			ID:           o.EntityID,
			IncrementID:  o.IncrementID,
			Status:       o.Status,
			CreatedAt:    o.CreatedAt,
			GrandTotal:   o.GrandTotal,
			CurrencyCode: o.CurrencyCode,
		},
	})
}

func writeFailure(w stdhttp.ResponseWriter, err error) {
	phttp.JSON(w, perr.HTTPStatus(err), failReply{Error: perr.WireFrom(err).Message})
}
