package entitlement

import "time"

// Subscription status values. Only "active" grants an entitlement.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusCanceled = "canceled"
)

// Entitlement is the currently active subscription record for a user.
type Entitlement struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Plan               Plan      `json:"plan"`
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UpsertRequest is the write payload applied when the external billing flow
// reports a subscription change.
type UpsertRequest struct {
	Plan             string     `json:"plan"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
}
