package handler

import (
	"time"

	"github.com/karvix-api/internal/domain"
)

// SafeUser is what a user sees about themselves.
type SafeUser struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        *string         `json:"phone,omitempty"`
	Role         domain.Role     `json:"role"`
	Address      *domain.Address `json:"address,omitempty"`
	Skills       []string        `json:"skills,omitempty"`
	BrokerID     string          `json:"broker_id,omitempty"`
	ProfileImage string          `json:"profile_image,omitempty"`
	Rating       float64         `json:"rating"`
	RatingCount  int             `json:"rating_count"`
	Created      time.Time       `json:"created"`
}

// PublicUser is what other users see; no contact details.
type PublicUser struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Role         domain.Role `json:"role"`
	Skills       []string    `json:"skills,omitempty"`
	BrokerID     string      `json:"broker_id,omitempty"`
	ProfileImage string      `json:"profile_image,omitempty"`
	Rating       float64     `json:"rating"`
	RatingCount  int         `json:"rating_count"`
}

type SafeSession struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Created time.Time `json:"created"`
}

func toSafeUser(u *domain.User) *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		ID:           u.UserID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		Address:      u.Address,
		Skills:       u.Skills,
		BrokerID:     u.BrokerID,
		ProfileImage: u.ProfileImage,
		Rating:       u.Rating,
		RatingCount:  u.RatingCount,
		Created:      u.CreatedAt,
	}
}

func toPublicUser(u *domain.User) *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:           u.UserID,
		Name:         u.Name,
		Role:         u.Role,
		Skills:       u.Skills,
		BrokerID:     u.BrokerID,
		ProfileImage: u.ProfileImage,
		Rating:       u.Rating,
		RatingCount:  u.RatingCount,
	}
}

func toPublicUsers(users []domain.User) []*PublicUser {
	out := make([]*PublicUser, len(users))
	for i := range users {
		out[i] = toPublicUser(&users[i])
	}
	return out
}

func toSafeSession(s *domain.Session) *SafeSession {
	if s == nil {
		return nil
	}
	return &SafeSession{ID: s.SessionID, UserID: s.UserID, Created: s.CreatedAt}
}
