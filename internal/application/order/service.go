package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/karvix-api/internal/domain"
	"github.com/karvix-api/internal/infrastructure/sns"
	"github.com/karvix-api/internal/pkg/id"
)

// Actor is the authenticated caller as carried by the access token.
type Actor struct {
	UserID string
	Role   domain.Role
}

type Service interface {
	Create(ctx context.Context, actor Actor, req domain.CreateOrderRequest) (*domain.Order, error)
	Get(ctx context.Context, actor Actor, orderID string) (*domain.Order, error)
	ListMine(ctx context.Context, actor Actor) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID string, requested domain.OrderStatus) (*domain.Order, error)
	AssignWorker(ctx context.Context, actor Actor, orderID, workerID string) (*domain.Order, error)
	AddReview(ctx context.Context, actor Actor, orderID string, req domain.AddReviewRequest) (*domain.Order, error)
}

type orderStore interface {
	Put(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	Save(ctx context.Context, o *domain.Order) error
	ListByParty(ctx context.Context, role domain.Role, userID string) ([]domain.Order, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type recorder interface {
	ObserveOrderTransition(role string, allowed bool)
	IncrementOrderSaveConflicts()
}

type service struct {
	orders  orderStore
	users   userStore
	sms     sns.SMSSender
	metrics recorder
	now     func() time.Time
}

type ServiceDeps struct {
	OrderRepo orderStore
	UserRepo  userStore
	SMS       sns.SMSSender
	Metrics   recorder
}

func NewService(deps ServiceDeps) Service {
	return &service{
		orders:  deps.OrderRepo,
		users:   deps.UserRepo,
		sms:     deps.SMS,
		metrics: deps.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, actor Actor, req domain.CreateOrderRequest) (*domain.Order, error) {
	if actor.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("only customers place orders: %w", domain.ErrForbidden)
	}
	now := s.now()
	o := &domain.Order{
		OrderID:       id.New(),
		CustomerID:    actor.UserID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Location:      req.Location,
		Price:         req.Price,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.BrokerID != "" {
		if _, err := s.requireRole(ctx, req.BrokerID, domain.RoleBroker); err != nil {
			return nil, err
		}
		o.BrokerID = req.BrokerID
	}
	if req.WorkerID != "" {
		w, err := s.requireRole(ctx, req.WorkerID, domain.RoleWorker)
		if err != nil {
			return nil, err
		}
		if o.BrokerID == "" {
			o.BrokerID = w.BrokerID
		} else if w.BrokerID != o.BrokerID {
			return nil, fmt.Errorf("worker %s does not belong to broker %s: %w", w.UserID, o.BrokerID, domain.ErrBadRequest)
		}
		o.WorkerID = w.UserID
		o.Status = domain.StatusAssigned
	}
	if err := s.orders.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsParty(actor.UserID, actor.Role) {
		return nil, fmt.Errorf("not a party to order %s: %w", orderID, domain.ErrForbidden)
	}
	return o, nil
}

func (s *service) ListMine(ctx context.Context, actor Actor) ([]domain.Order, error) {
	return s.orders.ListByParty(ctx, actor.Role, actor.UserID)
}

// UpdateStatus loads the order, checks the actor against the transition table,
// stamps the lifecycle dates and saves with a version check.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID string, requested domain.OrderStatus) (*domain.Order, error) {
	if !requested.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", requested, domain.ErrBadRequest)
	}
	o, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if requested == domain.StatusAssigned && o.WorkerID == "" {
		return nil, fmt.Errorf("assign a worker before marking the order assigned: %w", domain.ErrBadRequest)
	}
	if err := s.transition(o, requested, actor.Role); err != nil {
		return nil, err
	}
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) AssignWorker(ctx context.Context, actor Actor, orderID, workerID string) (*domain.Order, error) {
	if actor.Role != domain.RoleBroker {
		return nil, fmt.Errorf("only brokers assign workers: %w", domain.ErrForbidden)
	}
	o, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.StatusPending && o.Status != domain.StatusAssigned {
		return nil, fmt.Errorf("cannot assign a worker to a %s order: %w", o.Status, domain.ErrBadRequest)
	}
	w, err := s.requireRole(ctx, workerID, domain.RoleWorker)
	if err != nil {
		return nil, err
	}
	if w.BrokerID != actor.UserID {
		return nil, fmt.Errorf("Worker not found or not assigned to you: %w", domain.ErrBadRequest)
	}
	o.WorkerID = w.UserID
	if o.Status == domain.StatusPending {
		if err := s.transition(o, domain.StatusAssigned, actor.Role); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	s.notifyWorker(ctx, w, o)
	return o, nil
}

func (s *service) AddReview(ctx context.Context, actor Actor, orderID string, req domain.AddReviewRequest) (*domain.Order, error) {
	if actor.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("only customers review orders: %w", domain.ErrForbidden)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", domain.ErrBadRequest)
	}
	o, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if o.Review != nil {
		return nil, fmt.Errorf("order %s already reviewed: %w", orderID, domain.ErrConflict)
	}
	if !domain.CanTransition(o.Status, domain.StatusCompleted, actor.Role) {
		return nil, fmt.Errorf("only completed orders can be reviewed: %w", domain.ErrBadRequest)
	}
	o.Review = &domain.Review{
		Rating:    req.Rating,
		Comment:   req.Comment,
		UserID:    actor.UserID,
		CreatedAt: s.now(),
	}
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	for _, uid := range []string{o.WorkerID, o.BrokerID} {
		if uid == "" {
			continue
		}
		if err := s.applyRating(ctx, uid, req.Rating); err != nil {
			slog.Warn("failed to update rating", "user_id", uid, "order_id", o.OrderID, "err", err)
		}
	}
	return o, nil
}

func (s *service) transition(o *domain.Order, requested domain.OrderStatus, role domain.Role) error {
	err := domain.ValidateTransition(o.Status, requested, role)
	if s.metrics != nil {
		s.metrics.ObserveOrderTransition(string(role), err == nil)
	}
	if err != nil {
		return err
	}
	now := s.now()
	entering := o.Status != requested
	switch {
	case entering && requested == domain.StatusInProgress:
		o.StartDate = &now
	case entering && requested == domain.StatusCompleted:
		o.EndDate = &now
	}
	o.Status = requested
	return nil
}

func (s *service) save(ctx context.Context, o *domain.Order) error {
	err := s.orders.Save(ctx, o)
	if errors.Is(err, domain.ErrConflict) && s.metrics != nil {
		s.metrics.IncrementOrderSaveConflicts()
	}
	return err
}

func (s *service) applyRating(ctx context.Context, userID string, score int) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	u.AddRating(score)
	return s.users.Update(ctx, userID, map[string]interface{}{
		"rating":       u.Rating,
		"rating_count": u.RatingCount,
	})
}

func (s *service) requireRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%s %s not found: %w", role, userID, domain.ErrBadRequest)
	}
	if err != nil {
		return nil, err
	}
	if u.Role != role || !u.Enable {
		return nil, fmt.Errorf("user %s is not an active %s: %w", userID, role, domain.ErrBadRequest)
	}
	return u, nil
}

func (s *service) notifyWorker(ctx context.Context, w *domain.User, o *domain.Order) {
	if s.sms == nil || w.Phone == nil || *w.Phone == "" {
		return
	}
	msg := fmt.Sprintf("Karvix: you have been assigned to \"%s\" in %s, %s.", o.Title, o.Location.City, o.Location.State)
	if err := s.sms.SendSMS(ctx, *w.Phone, msg); err != nil {
		slog.Warn("failed to notify worker", "worker_id", w.UserID, "order_id", o.OrderID, "err", err)
	}
}
