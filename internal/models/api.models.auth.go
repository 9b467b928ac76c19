// FilePath: internal/models/api.models.auth.go
package models

// Request bodies of the /auth endpoints

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// PasswordResetTicket is handed back by forgot-password; there is no mail delivery
type PasswordResetTicket struct {
	Message    string `json:"message" msgpack:"message"`
	ResetToken string `json:"reset_token" msgpack:"reset_token"`
	ExpiresAt  int64  `json:"expires_at" msgpack:"expires_at"`
}

// CalibrationRequest is posted by a device after a zero or span calibration
type CalibrationRequest struct {
	Mode  CalibrationMode `json:"mode"`
	Value *float64        `json:"value"`
}

// DACRequest sets the corrected DO value driven on the analog output
type DACRequest struct {
	CorrectedDO *float64 `json:"corrected_do"`
}
