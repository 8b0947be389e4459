package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/karvix-api/internal/domain"
	"github.com/karvix-api/internal/infrastructure/smtp"
	"github.com/karvix-api/internal/pkg/validate"
)

const (
	codeKeyPrefix     = "otp:"
	verifiedKeyPrefix = "otp:verified:"
	verifiedValue     = "true"

	defaultExpiry         = 5 * time.Minute
	defaultVerifiedExpiry = 30 * time.Minute
)

// Internal verification outcomes. They are logged and counted but never
// returned, so callers cannot tell an expired code from a wrong one.
const (
	outcomeMissing  = "missing"
	outcomeMismatch = "mismatch"
	outcomeMatched  = "matched"
)

type IssueResult struct {
	Code      string
	ExpiresIn time.Duration
}

// Service issues and checks one-time email codes that gate registration.
type Service interface {
	Issue(ctx context.Context, email string) (*IssueResult, error)
	Verify(ctx context.Context, email, code string) (bool, error)
	IsVerified(ctx context.Context, email string) (bool, error)
	// Consume atomically takes the verified flag. Only one caller sees true
	// for a given verification.
	Consume(ctx context.Context, email string) (bool, error)
}

type kvStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type recorder interface {
	IncrementOTPIssued()
	IncrementOTPEmailFailures()
	ObserveOTPVerification(outcome string)
}

type service struct {
	store          kvStore
	mailer         smtp.Mailer
	metrics        recorder
	length         int
	expiry         time.Duration
	verifiedExpiry time.Duration
	supportURL     string
}

type ServiceDeps struct {
	Store          kvStore
	Mailer         smtp.Mailer
	Metrics        recorder
	Length         int
	Expiry         time.Duration
	VerifiedExpiry time.Duration
	SupportURL     string
}

func NewService(deps ServiceDeps) Service {
	length := deps.Length
	if length < 4 || length > 6 {
		length = 4
	}
	// A non-positive TTL would store keys without expiry.
	expiry := deps.Expiry
	if expiry <= 0 {
		expiry = defaultExpiry
	}
	verifiedExpiry := deps.VerifiedExpiry
	if verifiedExpiry <= 0 {
		verifiedExpiry = defaultVerifiedExpiry
	}
	return &service{
		store:          deps.Store,
		mailer:         deps.Mailer,
		metrics:        deps.Metrics,
		length:         length,
		expiry:         expiry,
		verifiedExpiry: verifiedExpiry,
		supportURL:     deps.SupportURL,
	}
}

func (s *service) Issue(ctx context.Context, email string) (*IssueResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	code, err := generateCode(s.length)
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	if err := s.store.Set(ctx, codeKey(email), code, s.expiry); err != nil {
		return nil, fmt.Errorf("store otp: %w: %w", domain.ErrPersistence, err)
	}

	body, err := smtp.RenderOTPEmail(smtp.OTPEmailData{
		UserName:      strings.SplitN(email, "@", 2)[0],
		OTP:           code,
		ExpiryMinutes: expiryMinutes(s.expiry),
		SupportLink:   s.supportURL,
	})
	if err != nil {
		return nil, fmt.Errorf("render otp email: %w", err)
	}
	// The stored code stays valid if dispatch fails; the next Issue overwrites it.
	if err := s.mailer.SendEmail(email, smtp.OTPEmailSubject, body); err != nil {
		s.recordEmailFailure()
		slog.Warn("otp email dispatch failed", "email", email, "err", err)
		return nil, fmt.Errorf("send otp email: %w: %w", domain.ErrEmailDispatch, err)
	}
	if s.metrics != nil {
		s.metrics.IncrementOTPIssued()
	}
	return &IssueResult{Code: code, ExpiresIn: s.expiry}, nil
}

func (s *service) Verify(ctx context.Context, email, code string) (bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	if err := validate.Var(code, fmt.Sprintf("required,numeric,len=%d", s.length)); err != nil {
		return false, fmt.Errorf("otp: %s: %w", err, domain.ErrBadRequest)
	}

	stored, err := s.store.Get(ctx, codeKey(email))
	if errors.Is(err, domain.ErrNotFound) {
		s.observe(email, outcomeMissing)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read otp: %w: %w", domain.ErrPersistence, err)
	}
	if stored != code {
		s.observe(email, outcomeMismatch)
		return false, nil
	}

	// Burn the code before writing the flag.
	if err := s.store.Del(ctx, codeKey(email)); err != nil {
		return false, fmt.Errorf("delete otp: %w: %w", domain.ErrPersistence, err)
	}
	if err := s.store.Set(ctx, verifiedKey(email), verifiedValue, s.verifiedExpiry); err != nil {
		return false, fmt.Errorf("store verified flag: %w: %w", domain.ErrPersistence, err)
	}
	s.observe(email, outcomeMatched)
	return true, nil
}

func (s *service) IsVerified(ctx context.Context, email string) (bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	v, err := s.store.Get(ctx, verifiedKey(email))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read verified flag: %w: %w", domain.ErrPersistence, err)
	}
	return v == verifiedValue, nil
}

func (s *service) Consume(ctx context.Context, email string) (bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	v, err := s.store.GetDel(ctx, verifiedKey(email))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume verified flag: %w: %w", domain.ErrPersistence, err)
	}
	return v == verifiedValue, nil
}

func (s *service) observe(email, outcome string) {
	slog.Debug("otp verification", "email", email, "outcome", outcome)
	if s.metrics != nil {
		s.metrics.ObserveOTPVerification(outcome)
	}
}

func (s *service) recordEmailFailure() {
	if s.metrics != nil {
		s.metrics.IncrementOTPEmailFailures()
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("email: %s: %w", err, domain.ErrBadRequest)
	}
	return email, nil
}

// expiryMinutes rounds d up to whole minutes.
func expiryMinutes(d time.Duration) int {
	return int((d + time.Minute - 1) / time.Minute)
}

func codeKey(email string) string     { return codeKeyPrefix + email }
func verifiedKey(email string) string { return verifiedKeyPrefix + email }

// generateCode returns a uniformly random n-digit code with no leading zero.
func generateCode(n int) (string, error) {
	lo := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	span := new(big.Int).Sub(new(big.Int).Mul(lo, big.NewInt(10)), lo)
	r, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return r.Add(r, lo).String(), nil
}
