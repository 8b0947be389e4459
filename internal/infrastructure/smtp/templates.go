package smtp

import (
	"bytes"
	"html/template"
)

// OTPEmailData feeds the verification email template.
type OTPEmailData struct {
	UserName      string
	OTP           string
	ExpiryMinutes int
	SupportLink   string
}

const OTPEmailSubject = "Verify your email"

var otpEmailTmpl = template.Must(template.New("otp").Parse(`<div style="font-family: 'Segoe UI', Tahoma, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto;">
  <p style="font-size: 28px; font-weight: 600; text-align: center;">Verify Your Email</p>
  <p>Hello <strong>{{.UserName}}</strong>,</p>
  <p>Please use the following code to verify your email address:</p>
  <div style="text-align: center; margin: 30px 0;">
    <span style="display: inline-block; background-color: #f0f7ff; border-radius: 5px; padding: 15px 25px; font-size: 24px; font-weight: bold; letter-spacing: 2px;">{{.OTP}}</span>
  </div>
  <p style="color: #e74c3c;">This code will expire in {{.ExpiryMinutes}} minutes.</p>
  <p>If you didn't request this code, ignore this email or <a href="{{.SupportLink}}">contact support</a>.</p>
  <p>Best regards,<br><strong>Karvix</strong></p>
</div>`))

// RenderOTPEmail renders the HTML body of the verification email.
func RenderOTPEmail(d OTPEmailData) (string, error) {
	var buf bytes.Buffer
	if err := otpEmailTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
