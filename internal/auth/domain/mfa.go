package domain

import "time"

// MFASecret is the per-user TOTP enrolment record. At most one exists per
// user; re-enabling replaces it wholesale.
type MFASecret struct {
	ID          string
	UserID      string
	Secret      string   // base32 TOTP seed
	BackupCodes []string // unconsumed single-use codes
	Enabled     bool     // flips true on first successful verification
	LastUsedAt  *time.Time
	VerifiedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MFAEnrollResponse carries the one-time enrolment material. The secret and
// backup codes are shown exactly once; they are not recoverable afterwards.
type MFAEnrollResponse struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioning_uri"` // otpauth:// URL for QR rendering
	BackupCodes     []string `json:"backup_codes"`
}

// MFAVerifyResponse reports the outcome of a code verification.
type MFAVerifyResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}
