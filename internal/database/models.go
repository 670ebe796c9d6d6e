package database

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/DiegoChMs/Warehouse/pkg/models"
)

// Warehouse represents a storage unit in the database using Bun ORM
type Warehouse struct {
	bun.BaseModel `bun:"table:warehouses"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Code      string    `bun:"code,notnull"`
	Price     float64   `bun:"price,notnull"`
	Available bool      `bun:"available,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	// Relations
	Leases []*Lease `bun:"rel:has-many,join:id=warehouse_id"`
}

// ToModel converts database Warehouse to domain model
func (w *Warehouse) ToModel() *models.Warehouse {
	return &models.Warehouse{
		ID:        w.ID,
		Code:      w.Code,
		Price:     w.Price,
		Available: w.Available,
		CreatedAt: w.CreatedAt,
	}
}

// WarehouseFromModel converts domain model to database Warehouse
func WarehouseFromModel(m *models.Warehouse) *Warehouse {
	return &Warehouse{
		ID:        m.ID,
		Code:      m.Code,
		Price:     m.Price,
		Available: m.Available,
		CreatedAt: m.CreatedAt,
	}
}

// Lease represents a booking in the database using Bun ORM.
// The (user_id, warehouse_id) pair carries a unique index so that two
// concurrent bookings for the same pair cannot both commit.
type Lease struct {
	bun.BaseModel `bun:"table:leases"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id,notnull"`
	WarehouseID int64     `bun:"warehouse_id,notnull"`
	Total       float64   `bun:"total,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	// Relations
	User      *User      `bun:"rel:belongs-to,join:user_id=id"`
	Warehouse *Warehouse `bun:"rel:belongs-to,join:warehouse_id=id"`
}

// ToModel converts database Lease to domain model
func (l *Lease) ToModel() *models.Lease {
	return &models.Lease{
		ID:          l.ID,
		UserID:      l.UserID,
		WarehouseID: l.WarehouseID,
		Total:       l.Total,
		CreatedAt:   l.CreatedAt,
	}
}

// LeaseFromModel converts domain model to database Lease
func LeaseFromModel(m *models.Lease) *Lease {
	return &Lease{
		ID:          m.ID,
		UserID:      m.UserID,
		WarehouseID: m.WarehouseID,
		Total:       m.Total,
		CreatedAt:   m.CreatedAt,
	}
}

// Service represents an attachable extra service in the database using Bun ORM
type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID      int64   `bun:"id,pk,autoincrement"`
	Name    string  `bun:"name,unique,notnull"`
	Price   float64 `bun:"price,notnull"`
	Enabled bool    `bun:"enabled,notnull"`
}

// ToModel converts database Service to domain model
func (s *Service) ToModel() *models.Service {
	return &models.Service{
		ID:      s.ID,
		Name:    s.Name,
		Price:   s.Price,
		Enabled: s.Enabled,
	}
}

// ServiceFromModel converts domain model to database Service
func ServiceFromModel(m *models.Service) *Service {
	return &Service{
		ID:      m.ID,
		Name:    m.Name,
		Price:   m.Price,
		Enabled: m.Enabled,
	}
}

// User represents an account in the database using Bun ORM
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Username  string    `bun:"username,unique,notnull"`
	Email     string    `bun:"email,unique,notnull"`
	Password  string    `bun:"password,notnull"`
	Enabled   bool      `bun:"enabled,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// ToModel converts database User to domain model
func (u *User) ToModel() *models.User {
	return &models.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
	}
}

// UserFromModel converts domain model to database User
func UserFromModel(m *models.User) *User {
	return &User{
		ID:        m.ID,
		Username:  m.Username,
		Email:     m.Email,
		Password:  m.Password,
		Enabled:   m.Enabled,
		CreatedAt: m.CreatedAt,
	}
}

// Role represents an authorization role in the database using Bun ORM
type Role struct {
	bun.BaseModel `bun:"table:roles"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,unique,notnull"`
}

// ToModel converts database Role to domain model
func (r *Role) ToModel() *models.Role {
	return &models.Role{
		ID:   r.ID,
		Name: r.Name,
	}
}

// RoleFromModel converts domain model to database Role
func RoleFromModel(m *models.Role) *Role {
	return &Role{
		ID:   m.ID,
		Name: m.Name,
	}
}

// LeaseService is the junction between a service and a lease. The pair of
// identifiers is the whole identity; existence of the row is the association.
type LeaseService struct {
	bun.BaseModel `bun:"table:lease_services"`

	ServiceID int64 `bun:"service_id,pk"`
	LeaseID   int64 `bun:"lease_id,pk"`
}

// WarehouseService is the junction between a service and a warehouse.
type WarehouseService struct {
	bun.BaseModel `bun:"table:warehouse_services"`

	ServiceID   int64 `bun:"service_id,pk"`
	WarehouseID int64 `bun:"warehouse_id,pk"`
}

// UserRole is the junction between a user and a role; existence of the row
// is the grant.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles"`

	UserID int64 `bun:"user_id,pk"`
	RoleID int64 `bun:"role_id,pk"`
}
