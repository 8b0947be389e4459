package domain

import "time"

// Role is the canonical actor role. It replaces the old userType/type split.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
	RoleBroker   Role = "broker"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleWorker, RoleBroker:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street" dynamodbav:"street"`
	City    string `json:"city" dynamodbav:"city"`
	State   string `json:"state" dynamodbav:"state"`
	ZipCode string `json:"zip_code" dynamodbav:"zip_code"`
}

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Email        string    `json:"email" dynamodbav:"email"`
	Phone        *string   `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Role         Role      `json:"role" dynamodbav:"role"`
	Address      *Address  `json:"address,omitempty" dynamodbav:"address"`
	Skills       []string  `json:"skills,omitempty" dynamodbav:"skills"`
	BrokerID     string    `json:"broker_id,omitempty" dynamodbav:"broker_id,omitempty"` // workers only; empty = independent
	ProfileImage string    `json:"profile_image,omitempty" dynamodbav:"profile_image"`
	Rating       float64   `json:"rating" dynamodbav:"rating"`
	RatingCount  int       `json:"rating_count" dynamodbav:"rating_count"`
	Enable       bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     Role   `json:"role" validate:"required,oneof=customer worker broker"`
}

type UpdateProfileRequest struct {
	Phone    *string  `json:"phone" validate:"omitempty,e164"`
	Address  *Address `json:"address"`
	Skills   []string `json:"skills" validate:"omitempty,dive,required"`
	BrokerID *string  `json:"broker_id"`
}

// WorkerFilter narrows the public worker directory. Zero fields match everything.
type WorkerFilter struct {
	Skills    []string
	City      string
	State     string
	MinRating float64
}

// AddRating folds one review score into the running average.
func (u *User) AddRating(score int) {
	total := u.Rating*float64(u.RatingCount) + float64(score)
	u.RatingCount++
	u.Rating = total / float64(u.RatingCount)
}
