package domain

// SubmitInput is the submit request body. OrderID is the customer-facing
// order increment id, the canonical duplicate key.
type SubmitInput struct {
	Email         string   `json:"email"                   validate:"required,email"              example:"doc@clinic.example"`
	Specialties   []string `json:"specialties"             validate:"required,min=1,dive,min=1"   example:"General Dentist"`
	OrderID       string   `json:"orderId"                 validate:"required"                    example:"000012345"`
	Firstname     string   `json:"firstname,omitempty"     validate:"omitempty,max=100"`
	Lastname      string   `json:"lastname,omitempty"      validate:"omitempty,max=100"`
	CustomerID    string   `json:"customerId,omitempty"    validate:"omitempty,max=64"`
	OrderEntityID string   `json:"orderEntityId,omitempty" validate:"omitempty,max=64"`
	OrderAmount   string   `json:"orderAmount,omitempty"   validate:"omitempty,max=32"`
	TestMode      bool     `json:"testMode,omitempty"`
}

// CheckInput is the duplicate pre-flight request body. At least one id is
// required; OrderIncrementID wins when both are present.
type CheckInput struct {
	OrderID          string `json:"orderId,omitempty"          validate:"omitempty,max=64"`
	OrderIncrementID string `json:"orderIncrementId,omitempty" validate:"omitempty,max=64"`
}

// Key returns the id to check, preferring the increment id.
func (in CheckInput) Key() string {
	if in.OrderIncrementID != "" {
		return in.OrderIncrementID
	}
	return in.OrderID
}

// SubmitOutcome is the discriminated result of a claim attempt. Exactly one
// of the two shapes is populated: a fresh SubmissionID on success, or
// Duplicate plus the prior record's summary.
type SubmitOutcome struct {
	Duplicate    bool
	SubmissionID string
	OrderID      string
	Existing     *ClaimSummary
}

// CheckOutcome is the advisory duplicate-check result. The check is read
// only and fails open: backend trouble reports HasSubmitted false with an
// explanatory message rather than blocking a legitimate submission.
type CheckOutcome struct {
	HasSubmitted bool
	Message      string
	Existing     *ClaimSummary
}
