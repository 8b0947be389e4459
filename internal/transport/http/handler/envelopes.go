package handler

import (
	"encoding/json"
	"net/http"

	"github.com/karvix-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login/register/refresh responses.
type AuthEnvelope struct {
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	Session      *SafeSession `json:"session,omitempty"`
	User         *SafeUser    `json:"user,omitempty"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Session *SafeSession `json:"session,omitempty"`
	User    *SafeUser    `json:"user,omitempty"`
}

// OTPEnvelope answers send-otp. OTP is only filled outside production.
type OTPEnvelope struct {
	Message   string `json:"message"`
	OTP       string `json:"otp,omitempty"`
	ExpiresIn int    `json:"expires_in"`
}

// VerifyOTPEnvelope answers verify-otp.
type VerifyOTPEnvelope struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// UsersEnvelope wraps user listings.
type UsersEnvelope struct {
	Data []*PublicUser `json:"data"`
}

// OrdersEnvelope wraps order listings.
type OrdersEnvelope struct {
	Data []domain.Order `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
