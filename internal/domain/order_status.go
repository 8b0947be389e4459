package domain

import "fmt"

// OrderStatus is the lifecycle state of an order.
//
//	pending ──> assigned ──> in_progress ──> completed
//	   │            │             │
//	   └────────────┴─────────────┴──> cancelled
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusAssigned   OrderStatus = "assigned"
	StatusInProgress OrderStatus = "in_progress"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// transitions is keyed by role, then by current status. Anything missing is denied.
var transitions = map[Role]map[OrderStatus][]OrderStatus{
	RoleBroker: {
		StatusPending:    {StatusAssigned, StatusCancelled},
		StatusAssigned:   {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusCompleted, StatusCancelled},
	},
	RoleWorker: {
		StatusAssigned:   {StatusInProgress},
		StatusInProgress: {StatusCompleted},
	},
	RoleCustomer: {
		StatusPending:    {StatusCancelled},
		StatusAssigned:   {StatusCancelled},
		StatusInProgress: {StatusCancelled},
		// Self-transition that lets a customer attach a review to a finished order.
		StatusCompleted: {StatusCompleted},
	},
}

// CanTransition reports whether an actor with role may move an order from current to requested.
// It has no side effects and never fails; unknown roles or statuses yield false.
func CanTransition(current, requested OrderStatus, role Role) bool {
	byStatus, ok := transitions[role]
	if !ok {
		return false
	}
	for _, next := range byStatus[current] {
		if next == requested {
			return true
		}
	}
	return false
}

// IllegalTransitionError is returned by callers of CanTransition when a change is rejected.
type IllegalTransitionError struct {
	Current   OrderStatus
	Requested OrderStatus
	Role      Role
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("Cannot change status from %s to %s as role %s", e.Current, e.Requested, e.Role)
}

// Unwrap lets handlers treat the rejection as a bad request.
func (e *IllegalTransitionError) Unwrap() error { return ErrBadRequest }

// ValidateTransition wraps CanTransition and returns an *IllegalTransitionError on denial.
func ValidateTransition(current, requested OrderStatus, role Role) error {
	if !CanTransition(current, requested, role) {
		return &IllegalTransitionError{Current: current, Requested: requested, Role: role}
	}
	return nil
}
