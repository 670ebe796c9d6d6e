package database

import (
	"context"

	"github.com/uptrace/bun"
)

// LinkRepository provides junction-row operations between services and an
// owning entity (a lease or a warehouse). The composite key is the whole
// identity of a row; attaching an existing pair is a no-op.
type LinkRepository interface {
	Attach(ctx context.Context, serviceID, ownerID int64) error
	Detach(ctx context.Context, serviceID, ownerID int64) error
	DetachAllForOwner(ctx context.Context, ownerID int64) error
	ServiceIDsByOwner(ctx context.Context, ownerID int64) ([]int64, error)
}

// LeaseServiceRepository provides junction operations for lease-attached
// services.
type LeaseServiceRepository = LinkRepository

// WarehouseServiceRepository provides junction operations for
// warehouse-attached services.
type WarehouseServiceRepository = LinkRepository

type leaseServiceRepository struct {
	db bun.IDB
}

// NewLeaseServiceRepository creates a new lease/service junction repository
func NewLeaseServiceRepository(db bun.IDB) LeaseServiceRepository {
	return &leaseServiceRepository{db: db}
}

func (r *leaseServiceRepository) Attach(ctx context.Context, serviceID, leaseID int64) error {
	link := &LeaseService{ServiceID: serviceID, LeaseID: leaseID}
	_, err := r.db.NewInsert().
		Model(link).
		On("CONFLICT (service_id, lease_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *leaseServiceRepository) Detach(ctx context.Context, serviceID, leaseID int64) error {
	_, err := r.db.NewDelete().
		Model((*LeaseService)(nil)).
		Where("service_id = ?", serviceID).
		Where("lease_id = ?", leaseID).
		Exec(ctx)
	return err
}

func (r *leaseServiceRepository) DetachAllForOwner(ctx context.Context, leaseID int64) error {
	_, err := r.db.NewDelete().
		Model((*LeaseService)(nil)).
		Where("lease_id = ?", leaseID).
		Exec(ctx)
	return err
}

func (r *leaseServiceRepository) ServiceIDsByOwner(ctx context.Context, leaseID int64) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().
		Model((*LeaseService)(nil)).
		Column("service_id").
		Where("lease_id = ?", leaseID).
		Order("service_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

type warehouseServiceRepository struct {
	db bun.IDB
}

// NewWarehouseServiceRepository creates a new warehouse/service junction repository
func NewWarehouseServiceRepository(db bun.IDB) WarehouseServiceRepository {
	return &warehouseServiceRepository{db: db}
}

func (r *warehouseServiceRepository) Attach(ctx context.Context, serviceID, warehouseID int64) error {
	link := &WarehouseService{ServiceID: serviceID, WarehouseID: warehouseID}
	_, err := r.db.NewInsert().
		Model(link).
		On("CONFLICT (service_id, warehouse_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *warehouseServiceRepository) Detach(ctx context.Context, serviceID, warehouseID int64) error {
	_, err := r.db.NewDelete().
		Model((*WarehouseService)(nil)).
		Where("service_id = ?", serviceID).
		Where("warehouse_id = ?", warehouseID).
		Exec(ctx)
	return err
}

func (r *warehouseServiceRepository) DetachAllForOwner(ctx context.Context, warehouseID int64) error {
	_, err := r.db.NewDelete().
		Model((*WarehouseService)(nil)).
		Where("warehouse_id = ?", warehouseID).
		Exec(ctx)
	return err
}

func (r *warehouseServiceRepository) ServiceIDsByOwner(ctx context.Context, warehouseID int64) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().
		Model((*WarehouseService)(nil)).
		Column("service_id").
		Where("warehouse_id = ?", warehouseID).
		Order("service_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UserRoleRepository provides junction operations for role grants.
type UserRoleRepository interface {
	Grant(ctx context.Context, userID, roleID int64) error
	Revoke(ctx context.Context, userID, roleID int64) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	RoleNamesByUser(ctx context.Context, userID int64) ([]string, error)
}

type userRoleRepository struct {
	db bun.IDB
}

// NewUserRoleRepository creates a new user/role junction repository
func NewUserRoleRepository(db bun.IDB) UserRoleRepository {
	return &userRoleRepository{db: db}
}

func (r *userRoleRepository) Grant(ctx context.Context, userID, roleID int64) error {
	grant := &UserRole{UserID: userID, RoleID: roleID}
	_, err := r.db.NewInsert().
		Model(grant).
		On("CONFLICT (user_id, role_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *userRoleRepository) Revoke(ctx context.Context, userID, roleID int64) error {
	_, err := r.db.NewDelete().
		Model((*UserRole)(nil)).
		Where("user_id = ?", userID).
		Where("role_id = ?", roleID).
		Exec(ctx)
	return err
}

func (r *userRoleRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	_, err := r.db.NewDelete().
		Model((*UserRole)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

func (r *userRoleRepository) RoleNamesByUser(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := r.db.NewSelect().
		Model((*UserRole)(nil)).
		ColumnExpr("r.name").
		Join("INNER JOIN roles AS r ON r.id = user_role.role_id").
		Where("user_role.user_id = ?", userID).
		Order("r.name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, err
	}
	return names, nil
}
