package http

import (
	"context"
	"io"
	"time"

	"github.com/karvix-api/internal/domain"
	jwtinfra "github.com/karvix-api/internal/infrastructure/jwt"
	"github.com/karvix-api/internal/infrastructure/smtp"
	"github.com/karvix-api/internal/infrastructure/sns"
	"github.com/karvix-api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	ListByBroker(ctx context.Context, brokerID string) ([]domain.User, error)
}

// SessionRepository is the minimal interface the router requires from a session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Disable(ctx context.Context, sessionID string) error
}

// OrderRepository is the minimal interface the router requires from an order store.
type OrderRepository interface {
	Put(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	Save(ctx context.Context, o *domain.Order) error
	ListByParty(ctx context.Context, role domain.Role, userID string) ([]domain.Order, error)
}

// KVStore holds short-lived OTP state and cached GET responses. Ping backs
// the readiness check.
type KVStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	SessionRepo SessionRepository
	OrderRepo   OrderRepository
	KV          KVStore
	Objects     ObjectStore
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
	Metrics     *metrics.Metrics
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}
