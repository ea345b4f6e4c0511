package domain

import "time"

// PaymentAttempt records one trip through the redirect gateway for an
// order. Created when the redirect URL is built; the verification
// fields are written once when the callback is verified.
type PaymentAttempt struct {
	OrderID     string
	TxnRef      string // gateway reference, unique per attempt
	RawParams   string // callback query string as received
	SignatureOK bool
	ResultCode  string
	CreatedAt   time.Time
	VerifiedAt  *time.Time
}

// Gateway result codes as reported on the return URL.
const (
	GatewayResultSuccess  = "00"
	GatewayResultDeclined = "24"
)
