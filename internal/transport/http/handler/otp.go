package handler

import (
	"net/http"

	"github.com/karvix-api/internal/application/otp"
)

// OTPHandler serves the email verification endpoints that precede registration.
type OTPHandler struct {
	svc        otp.Service
	exposeCode bool
}

// NewOTPHandler builds the handler. exposeCode echoes the issued code back to
// the caller and must be false in production.
func NewOTPHandler(svc otp.Service, exposeCode bool) *OTPHandler {
	return &OTPHandler{svc: svc, exposeCode: exposeCode}
}

type sendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if !decodeValid(w, r, &req) {
		return
	}
	res, err := h.svc.Issue(r.Context(), req.Email)
	if err != nil {
		httpError(w, r, err)
		return
	}
	env := OTPEnvelope{
		Message:   "OTP sent to email successfully",
		ExpiresIn: int(res.ExpiresIn.Seconds()),
	}
	if h.exposeCode {
		env.Message = "OTP sent to email:" + req.Email
		env.OTP = res.Code
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ok, err := h.svc.Verify(r.Context(), req.Email, req.OTP)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusBadRequest, VerifyOTPEnvelope{Verified: false, Message: "Invalid OTP or OTP expired"})
		return
	}
	writeJSON(w, http.StatusOK, VerifyOTPEnvelope{Verified: true, Message: "OTP verified successfully"})
}
