package model

import "time"

// Plan is the subscription tier of an account.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Profile is the account record of a business owner. Identity itself lives
// with the external auth provider; ID is the provider's subject.
type Profile struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	FullName             string    `json:"full_name,omitempty"`
	AvatarURL            string    `json:"avatar_url,omitempty"`
	Plan                 Plan      `json:"plan"`
	PaddleCustomerID     string    `json:"paddle_customer_id,omitempty"`
	PaddleSubscriptionID string    `json:"paddle_subscription_id,omitempty"`
	LemonCustomerID      string    `json:"lemon_customer_id,omitempty"`
	LemonSubscriptionID  string    `json:"lemon_subscription_id,omitempty"`
	TestimonialCount     int       `json:"testimonial_count"`
	CreatedAt            time.Time `json:"created_at"`
}

// BillingKey names the profile column a billing update is matched on.
type BillingKey string

const (
	ByUserID               BillingKey = "id"
	ByPaddleCustomerID     BillingKey = "paddle_customer_id"
	ByPaddleSubscriptionID BillingKey = "paddle_subscription_id"
	ByLemonCustomerID      BillingKey = "lemon_customer_id"
	ByLemonSubscriptionID  BillingKey = "lemon_subscription_id"
)

// BillingUpdate mirrors a payment provider event onto matching profiles.
// Empty fields are left unchanged.
type BillingUpdate struct {
	Key   BillingKey
	Value string

	Plan                 Plan
	PaddleCustomerID     string
	PaddleSubscriptionID string
	LemonCustomerID      string
	LemonSubscriptionID  string
}

// IsNoop reports whether the update would change nothing.
func (u BillingUpdate) IsNoop() bool {
	return u.Value == "" || (u.Plan == "" && u.PaddleCustomerID == "" && u.PaddleSubscriptionID == "" &&
		u.LemonCustomerID == "" && u.LemonSubscriptionID == "")
}

// PaymentStatus is the review state of a manually verified crypto payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRejected  PaymentStatus = "rejected"
)

// Defaults for crypto payments submitted without chain or amount.
const (
	DefaultCryptoChain    = "TRC-20"
	DefaultCryptoAmount   = 9.9
	DefaultCryptoCurrency = "USDT"
)

// CryptoPayment is a transaction hash submitted for manual verification.
type CryptoPayment struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	TxHash        string        `json:"tx_hash"`
	Chain         string        `json:"chain"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	WalletAddress string        `json:"wallet_address"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}
