package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/karvix-api/internal/application/session"
	"github.com/karvix-api/internal/domain"
	s3infra "github.com/karvix-api/internal/infrastructure/s3"
	"github.com/karvix-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldPhone        = "phone"
	fieldAddress      = "address"
	fieldSkills       = "skills"
	fieldBrokerID     = "broker_id"
	fieldProfileImage = "profile_image"
)

const imageURLTTL = time.Hour

const (
	maxWorkerListing = 100
	maxWorkerSearch  = 50
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*session.LoginResult, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	UploadProfileImage(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*domain.User, error)
	ListBrokers(ctx context.Context) ([]domain.User, error)
	ListWorkersByBroker(ctx context.Context, brokerID string) ([]domain.User, error)
	ListWorkers(ctx context.Context) ([]domain.User, error)
	SearchWorkers(ctx context.Context, f domain.WorkerFilter) ([]domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	ListByBroker(ctx context.Context, brokerID string) ([]domain.User, error)
}

type emailVerifier interface {
	Consume(ctx context.Context, email string) (bool, error)
}

type sessionStarter interface {
	Start(ctx context.Context, u *domain.User) (*session.LoginResult, error)
}

type imageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo     userStore
	verifier emailVerifier
	sessions sessionStarter
	images   imageStore
}

type ServiceDeps struct {
	UserRepo userStore
	Verifier emailVerifier
	Sessions sessionStarter
	Images   imageStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		verifier: deps.Verifier,
		sessions: deps.Sessions,
		images:   deps.Images,
	}
}

// Register creates an account for an email that passed OTP verification and
// opens its first session. The verified flag is taken before anything is
// written, so one verification yields at most one account; a later failure
// means the caller has to verify again.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*session.LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	verified, err := s.verifier.Consume(ctx, email)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, fmt.Errorf("Email verification required.: %w", domain.ErrBadRequest)
	}
	_, err = s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return s.sessions.Start(ctx, u)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withImageURL(ctx, u), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.Address != nil {
		updates[fieldAddress] = *req.Address
	}
	if req.Skills != nil {
		if u.Role != domain.RoleWorker {
			return nil, fmt.Errorf("only workers have skills: %w", domain.ErrBadRequest)
		}
		if len(req.Skills) == 0 {
			return nil, fmt.Errorf("workers need at least one skill: %w", domain.ErrBadRequest)
		}
		updates[fieldSkills] = req.Skills
	}
	if req.BrokerID != nil {
		if u.Role != domain.RoleWorker {
			return nil, fmt.Errorf("only workers join a broker: %w", domain.ErrBadRequest)
		}
		if *req.BrokerID == "" {
			updates[fieldBrokerID] = nil
		} else {
			if err := s.requireBroker(ctx, *req.BrokerID); err != nil {
				return nil, err
			}
			updates[fieldBrokerID] = *req.BrokerID
		}
	}
	if len(updates) == 0 {
		return s.withImageURL(ctx, u), nil
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) UploadProfileImage(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*domain.User, error) {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = s3infra.DetectContentType(filename)
	}
	if !allowedImageTypes[contentType] {
		return nil, fmt.Errorf("unsupported image type %q: %w", contentType, domain.ErrBadRequest)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := s3infra.ProfileImageKey(userID, filename)
	if _, err := s.images.Upload(ctx, key, r, contentType); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldProfileImage: key}); err != nil {
		return nil, err
	}
	if u.ProfileImage != "" && u.ProfileImage != key {
		if err := s.images.Delete(ctx, u.ProfileImage); err != nil {
			slog.Warn("failed to delete previous profile image", "user_id", userID, "key", u.ProfileImage, "err", err)
		}
	}
	return s.Get(ctx, userID)
}

func (s *service) ListBrokers(ctx context.Context) ([]domain.User, error) {
	brokers, err := s.repo.ListByRole(ctx, domain.RoleBroker)
	if err != nil {
		return nil, err
	}
	return s.enabled(ctx, brokers), nil
}

func (s *service) ListWorkersByBroker(ctx context.Context, brokerID string) ([]domain.User, error) {
	workers, err := s.repo.ListByBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	return s.enabled(ctx, workers), nil
}

// ListWorkers is the public worker directory.
func (s *service) ListWorkers(ctx context.Context) ([]domain.User, error) {
	workers, err := s.repo.ListByRole(ctx, domain.RoleWorker)
	if err != nil {
		return nil, err
	}
	if len(workers) > maxWorkerListing {
		workers = workers[:maxWorkerListing]
	}
	return s.enabled(ctx, workers), nil
}

// SearchWorkers filters the worker role index in memory. Skills match if the
// worker has any of them; city and state are case-insensitive substrings.
func (s *service) SearchWorkers(ctx context.Context, f domain.WorkerFilter) ([]domain.User, error) {
	if f.MinRating < 0 || f.MinRating > 5 {
		return nil, fmt.Errorf("rating must be between 0 and 5: %w", domain.ErrBadRequest)
	}
	workers, err := s.repo.ListByRole(ctx, domain.RoleWorker)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.User, 0, len(workers))
	for i := range workers {
		if matchesWorker(&workers[i], f) {
			matched = append(matched, workers[i])
			if len(matched) == maxWorkerSearch {
				break
			}
		}
	}
	return s.enabled(ctx, matched), nil
}

func matchesWorker(u *domain.User, f domain.WorkerFilter) bool {
	if !u.Enable || u.Rating < f.MinRating {
		return false
	}
	if f.City != "" || f.State != "" {
		if u.Address == nil ||
			!containsFold(u.Address.City, f.City) ||
			!containsFold(u.Address.State, f.State) {
			return false
		}
	}
	if len(f.Skills) == 0 {
		return true
	}
	for _, want := range f.Skills {
		for _, have := range u.Skills {
			if strings.EqualFold(strings.TrimSpace(want), have) {
				return true
			}
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (s *service) requireBroker(ctx context.Context, brokerID string) error {
	b, err := s.repo.Get(ctx, brokerID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("broker %s not found: %w", brokerID, domain.ErrBadRequest)
	}
	if err != nil {
		return err
	}
	if b.Role != domain.RoleBroker || !b.Enable {
		return fmt.Errorf("user %s is not an active broker: %w", brokerID, domain.ErrBadRequest)
	}
	return nil
}

func (s *service) enabled(ctx context.Context, users []domain.User) []domain.User {
	out := make([]domain.User, 0, len(users))
	for i := range users {
		if users[i].Enable {
			out = append(out, *s.withImageURL(ctx, &users[i]))
		}
	}
	return out
}

// withImageURL swaps the stored object key for a short-lived download URL.
func (s *service) withImageURL(ctx context.Context, u *domain.User) *domain.User {
	if u.ProfileImage == "" || s.images == nil {
		return u
	}
	url, err := s.images.PresignedURL(ctx, u.ProfileImage, imageURLTTL)
	if err != nil {
		slog.Warn("failed to presign profile image", "user_id", u.UserID, "err", err)
		return u
	}
	u.ProfileImage = url
	return u
}
