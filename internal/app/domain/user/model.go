package user

import "time"

// Type categorizes a user for tailored advice and defaults.
type Type string

const (
	TypeGeneral      Type = "general"
	TypeStudent      Type = "student"
	TypeProfessional Type = "professional"
	TypeFarmer       Type = "farmer"
	TypeSenior       Type = "senior"
)

// User is a registered account holder.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile holds per-user preferences applied across the assistant.
type Profile struct {
	Language      string  `json:"language"`
	Currency      string  `json:"currency"`
	UserType      Type    `json:"user_type"`
	MonthlyIncome float64 `json:"monthly_income"`
	VoiceEnabled  bool    `json:"voice_enabled"`
}

// Session is an issued login session. Only the SHA-256 hash of the bearer
// token is stored.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
