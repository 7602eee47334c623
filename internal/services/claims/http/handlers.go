// Package http provides http transport for the claim guard.
//
// These handlers speak the campaign widget's wire format, not the platform
// envelope: the widget predates this service and its response shapes are
// frozen.
package http

import (
	stdhttp "net/http"

	"masterbox/internal/modkit/httpkit"
	perr "masterbox/internal/platform/errors"
	phttp "masterbox/internal/platform/net/http"
	"masterbox/internal/platform/net/http/bind"
	"masterbox/internal/services/claims/domain"
)

// Register mounts the claim endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	r.Post("/check", h.check)
	r.Post("/submit", h.submit)
}

type handlers struct{ svc domain.ServicePort }

// checkReply is the widget's duplicate pre-flight response.
type checkReply struct {
	Success        bool                 `json:"success"`
	HasSubmitted   bool                 `json:"hasSubmitted"`
	Message        string               `json:"message,omitempty"`
	SubmissionData *domain.ClaimSummary `json:"submissionData,omitempty"`
}

// submitReply is the widget's submit response, success shape.
type submitReply struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"submissionId"`
	OrderID      string `json:"orderId"`
}

// duplicateReply is the widget's submit response, duplicate shape.
type duplicateReply struct {
	Success        bool                 `json:"success"`
	Duplicate      bool                 `json:"duplicate"`
	Error          string               `json:"error"`
	SubmissionData *domain.ClaimSummary `json:"submissionData,omitempty"`
}

// failReply is the widget's submit response, failure shape.
type failReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Timeout bool   `json:"timeout,omitempty"`
}

// @Summary Advisory duplicate pre-flight
// @Tags Claims
// @Accept json
// @Produce json
// @Param payload body domain.CheckInput true "Order reference"
// @Success 200 {object} checkReply "ok"
// @Failure 400 {object} failReply "missing order reference"
// @Router /claims/check [post]
func (h *handlers) check(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	in, err := bind.ParseJSON[domain.CheckInput](r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	out, err := h.svc.Check(r.Context(), in)
	if err != nil {
		writeFailure(w, err)
		return
	}
	phttp.JSON(w, stdhttp.StatusOK, checkReply{
		Success:        true,
		HasSubmitted:   out.HasSubmitted,
		Message:        out.Message,
		SubmissionData: out.Existing,
	})
}

// @Summary Guarded claim submission
// @Tags Claims
// @Accept json
// @Produce json
// @Param payload body domain.SubmitInput true "Claim"
// @Success 200 {object} submitReply "claim recorded"
// @Failure 400 {object} failReply "validation failure"
// @Failure 409 {object} duplicateReply "order already claimed"
// @Failure 504 {object} failReply "claim store timeout"
// @Router /claims/submit [post]
func (h *handlers) submit(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	in, err := bind.ParseJSON[domain.SubmitInput](r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	out, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if out.Duplicate {
		phttp.JSON(w, stdhttp.StatusConflict, duplicateReply{
			Success:        false,
			Duplicate:      true,
			Error:          "this order has already been used to claim",
			SubmissionData: out.Existing,
		})
		return
	}
	phttp.JSON(w, stdhttp.StatusOK, submitReply{
		Success:      true,
		SubmissionID: out.SubmissionID,
		OrderID:      out.OrderID,
	})
}

// writeFailure maps guard errors onto the widget's failure shape. Transient
// store trouble gets 504 with the timeout marker so the widget offers a retry;
// validation problems get 400 with the field message.
func writeFailure(w stdhttp.ResponseWriter, err error) {
	code := perr.CodeOf(err)
	switch code {
	case perr.ErrorCodeUnavailable:
		phttp.JSON(w, stdhttp.StatusGatewayTimeout, failReply{Error: failureMessage(err), Timeout: true})
	case perr.ErrorCodeValidation, perr.ErrorCodeJSON, perr.ErrorCodeInvalidArgument:
		phttp.JSON(w, stdhttp.StatusBadRequest, failReply{Error: failureMessage(err)})
	default:
		phttp.JSON(w, perr.HTTPStatus(err), failReply{Error: failureMessage(err)})
	}
}

func failureMessage(err error) string {
	return perr.WireFrom(err).Message
}
