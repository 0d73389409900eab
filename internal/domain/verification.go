package domain

// Verification types. A subject holds at most one record per type; issuing a new
// code overwrites the previous one.
const (
	VerificationLoginOTP      = "login_otp"      // subject: user id
	VerificationPasswordReset = "password_reset" // subject: lowercased email
)

// UserVerification stores a pending one-time code.
// PK: subject, SK: type. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type UserVerification struct {
	Subject   string `json:"subject" dynamodbav:"subject"`
	Type      string `json:"type" dynamodbav:"type"`
	Code      string `json:"-" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	Attempts  int    `json:"attempts" dynamodbav:"attempts"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"`
}

// Expired reports whether the code is past its expiry at unix time now.
func (v *UserVerification) Expired(now int64) bool { return now > v.ExpiresAt }
