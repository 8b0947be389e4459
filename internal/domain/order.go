package domain

import "time"

type OrderCategory string

const (
	CategoryPainting   OrderCategory = "painting"
	CategoryCarpentry  OrderCategory = "carpentry"
	CategoryPlumbing   OrderCategory = "plumbing"
	CategoryElectrical OrderCategory = "electrical"
	CategoryCleaning   OrderCategory = "cleaning"
	CategoryFurniture  OrderCategory = "furniture"
	CategoryOther      OrderCategory = "other"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Location struct {
	Address string `json:"address,omitempty" dynamodbav:"address"`
	City    string `json:"city" dynamodbav:"city" validate:"required"`
	State   string `json:"state" dynamodbav:"state" validate:"required"`
	ZipCode string `json:"zip_code,omitempty" dynamodbav:"zip_code"`
}

type Review struct {
	Rating    int       `json:"rating" dynamodbav:"rating"`
	Comment   string    `json:"comment" dynamodbav:"comment"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

// Order is a customer's job request. Status only changes through CanTransition;
// Version backs the optimistic check on save.
type Order struct {
	OrderID       string        `json:"id" dynamodbav:"order_id"`
	CustomerID    string        `json:"customer_id" dynamodbav:"customer_id"`
	WorkerID      string        `json:"worker_id,omitempty" dynamodbav:"worker_id,omitempty"`
	BrokerID      string        `json:"broker_id,omitempty" dynamodbav:"broker_id,omitempty"`
	Title         string        `json:"title" dynamodbav:"title"`
	Description   string        `json:"description" dynamodbav:"description"`
	Category      OrderCategory `json:"category" dynamodbav:"category"`
	Location      Location      `json:"location" dynamodbav:"location"`
	Price         float64       `json:"price" dynamodbav:"price"`
	Status        OrderStatus   `json:"status" dynamodbav:"status"`
	StartDate     *time.Time    `json:"start_date,omitempty" dynamodbav:"start_date"`
	EndDate       *time.Time    `json:"end_date,omitempty" dynamodbav:"end_date"`
	Review        *Review       `json:"review,omitempty" dynamodbav:"review"`
	PaymentStatus PaymentStatus `json:"payment_status" dynamodbav:"payment_status"`
	Version       int64         `json:"-" dynamodbav:"version"`
	CreatedAt     time.Time     `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time     `json:"updated" dynamodbav:"updated_at"`
}

// IsParty reports whether userID takes part in the order in the given role.
func (o *Order) IsParty(userID string, role Role) bool {
	switch role {
	case RoleCustomer:
		return o.CustomerID == userID
	case RoleWorker:
		return o.WorkerID != "" && o.WorkerID == userID
	case RoleBroker:
		return o.BrokerID != "" && o.BrokerID == userID
	}
	return false
}

type CreateOrderRequest struct {
	Title       string        `json:"title" validate:"required,min=5"`
	Description string        `json:"description" validate:"required,min=10"`
	Category    OrderCategory `json:"category" validate:"required,oneof=painting carpentry plumbing electrical cleaning furniture other"`
	Location    Location      `json:"location" validate:"required"`
	Price       float64       `json:"price" validate:"gte=0"`
	WorkerID    string        `json:"worker_id"`
	BrokerID    string        `json:"broker_id"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending assigned in_progress completed cancelled"`
}

type AssignWorkerRequest struct {
	WorkerID string `json:"worker_id" validate:"required"`
}

type AddReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}
