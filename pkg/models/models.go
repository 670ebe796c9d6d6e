package models

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a physical storage unit available for lease.
type Warehouse struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Price     float64   `json:"price"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

// WarehouseView is a warehouse together with the names of the services
// attached to it.
type WarehouseView struct {
	Warehouse
	Services []string `json:"services"`
}

// Lease links exactly one user to exactly one warehouse. Total is the
// warehouse price at booking time and never changes afterwards.
type Lease struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	WarehouseID int64     `json:"warehouse_id"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeaseView is a lease together with the names of its extra services.
type LeaseView struct {
	Lease
	ExtraServices []string `json:"extra_services"`
}

// Service is a named extra that can be attached to a lease or a warehouse.
type Service struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Enabled bool    `json:"enabled"`
}

// User is an account that can authenticate and hold leases.
// Password always holds the hashed value, never the plaintext.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// UserView is a user together with their role names.
type UserView struct {
	User
	Roles []string `json:"roles"`
}

// Role is a named authorization grant.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DefaultRole is granted to self-registered users.
const DefaultRole = "USER"

// AuthClaims is the authenticated identity extracted from a JWT.
type AuthClaims struct {
	UserID   int64
	Username string
	Roles    []string
	UUID     uuid.UUID
}

// HasRole reports whether the identity carries any of the given roles.
func (c *AuthClaims) HasRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range c.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
