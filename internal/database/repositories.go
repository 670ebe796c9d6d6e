package database

import (
	"context"
	"database/sql"

	"github.com/juju/errors"
	"github.com/uptrace/bun"

	"github.com/DiegoChMs/Warehouse/pkg/models"
)

// WarehouseRepository provides database operations for warehouses
type WarehouseRepository interface {
	Get(ctx context.Context, id int64) (*models.Warehouse, error)
	GetByCode(ctx context.Context, code string) (*models.Warehouse, error)
	List(ctx context.Context, search string, limit, offset int) ([]*models.Warehouse, error)
	Create(ctx context.Context, warehouse *models.Warehouse) error
	Update(ctx context.Context, warehouse *models.Warehouse) error
	Delete(ctx context.Context, id int64) error
}

type warehouseRepository struct {
	db bun.IDB
}

// NewWarehouseRepository creates a new warehouse repository
func NewWarehouseRepository(db bun.IDB) WarehouseRepository {
	return &warehouseRepository{db: db}
}

func (r *warehouseRepository) Get(ctx context.Context, id int64) (*models.Warehouse, error) {
	warehouse := new(Warehouse)
	err := r.db.NewSelect().
		Model(warehouse).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("warehouse %d", id)
	}
	if err != nil {
		return nil, err
	}

	return warehouse.ToModel(), nil
}

// GetByCode returns the first warehouse whose code contains the given
// substring, case-insensitively.
func (r *warehouseRepository) GetByCode(ctx context.Context, code string) (*models.Warehouse, error) {
	warehouse := new(Warehouse)
	err := r.db.NewSelect().
		Model(warehouse).
		Where("lower(code) LIKE lower(?)", "%"+code+"%").
		Order("id ASC").
		Limit(1).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("warehouse with code %q", code)
	}
	if err != nil {
		return nil, err
	}

	return warehouse.ToModel(), nil
}

func (r *warehouseRepository) List(ctx context.Context, search string, limit, offset int) ([]*models.Warehouse, error) {
	var warehouses []*Warehouse
	query := r.db.NewSelect().
		Model(&warehouses).
		Order("id ASC")

	if search != "" {
		query = query.Where("lower(code) LIKE lower(?)", "%"+search+"%")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*models.Warehouse, len(warehouses))
	for i, w := range warehouses {
		result[i] = w.ToModel()
	}
	return result, nil
}

func (r *warehouseRepository) Create(ctx context.Context, warehouse *models.Warehouse) error {
	dbWarehouse := WarehouseFromModel(warehouse)
	_, err := r.db.NewInsert().
		Model(dbWarehouse).
		Exec(ctx)
	if err != nil {
		return err
	}
	warehouse.ID = dbWarehouse.ID
	return nil
}

func (r *warehouseRepository) Update(ctx context.Context, warehouse *models.Warehouse) error {
	dbWarehouse := WarehouseFromModel(warehouse)
	_, err := r.db.NewUpdate().
		Model(dbWarehouse).
		WherePK().
		Exec(ctx)
	return err
}

func (r *warehouseRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*Warehouse)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// LeaseRepository provides database operations for leases
type LeaseRepository interface {
	Get(ctx context.Context, id int64) (*models.Lease, error)
	FindByUserAndWarehouse(ctx context.Context, userID, warehouseID int64) (*models.Lease, error)
	CountByWarehouse(ctx context.Context, warehouseID int64) (int, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Lease, error)
	Create(ctx context.Context, lease *models.Lease) error
	Delete(ctx context.Context, id int64) error
}

type leaseRepository struct {
	db bun.IDB
}

// NewLeaseRepository creates a new lease repository
func NewLeaseRepository(db bun.IDB) LeaseRepository {
	return &leaseRepository{db: db}
}

func (r *leaseRepository) Get(ctx context.Context, id int64) (*models.Lease, error) {
	lease := new(Lease)
	err := r.db.NewSelect().
		Model(lease).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("lease %d", id)
	}
	if err != nil {
		return nil, err
	}

	return lease.ToModel(), nil
}

func (r *leaseRepository) FindByUserAndWarehouse(ctx context.Context, userID, warehouseID int64) (*models.Lease, error) {
	lease := new(Lease)
	err := r.db.NewSelect().
		Model(lease).
		Where("user_id = ?", userID).
		Where("warehouse_id = ?", warehouseID).
		Limit(1).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("lease for user %d and warehouse %d", userID, warehouseID)
	}
	if err != nil {
		return nil, err
	}

	return lease.ToModel(), nil
}

func (r *leaseRepository) CountByWarehouse(ctx context.Context, warehouseID int64) (int, error) {
	return r.db.NewSelect().
		Model((*Lease)(nil)).
		Where("warehouse_id = ?", warehouseID).
		Count(ctx)
}

func (r *leaseRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Lease, error) {
	var leases []*Lease
	err := r.db.NewSelect().
		Model(&leases).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	result := make([]*models.Lease, len(leases))
	for i, l := range leases {
		result[i] = l.ToModel()
	}
	return result, nil
}

func (r *leaseRepository) Create(ctx context.Context, lease *models.Lease) error {
	dbLease := LeaseFromModel(lease)
	_, err := r.db.NewInsert().
		Model(dbLease).
		Exec(ctx)
	if err != nil {
		return err
	}
	lease.ID = dbLease.ID
	return nil
}

func (r *leaseRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*Lease)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ServiceRepository provides database operations for extra services
type ServiceRepository interface {
	Get(ctx context.Context, id int64) (*models.Service, error)
	FindFirstByName(ctx context.Context, name string) (*models.Service, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*models.Service, error)
	List(ctx context.Context, search string, limit, offset int) ([]*models.Service, error)
	Create(ctx context.Context, service *models.Service) error
	Update(ctx context.Context, service *models.Service) error
	Delete(ctx context.Context, id int64) error
}

type serviceRepository struct {
	db bun.IDB
}

// NewServiceRepository creates a new service repository
func NewServiceRepository(db bun.IDB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Get(ctx context.Context, id int64) (*models.Service, error) {
	service := new(Service)
	err := r.db.NewSelect().
		Model(service).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("service %d", id)
	}
	if err != nil {
		return nil, err
	}

	return service.ToModel(), nil
}

// FindFirstByName returns the first service whose name contains the given
// substring, case-insensitively. First match wins.
func (r *serviceRepository) FindFirstByName(ctx context.Context, name string) (*models.Service, error) {
	service := new(Service)
	err := r.db.NewSelect().
		Model(service).
		Where("lower(name) LIKE lower(?)", "%"+name+"%").
		Order("id ASC").
		Limit(1).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("service %q", name)
	}
	if err != nil {
		return nil, err
	}

	return service.ToModel(), nil
}

func (r *serviceRepository) ListByIDs(ctx context.Context, ids []int64) ([]*models.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var services []*Service
	err := r.db.NewSelect().
		Model(&services).
		Where("id IN (?)", bun.In(ids)).
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	result := make([]*models.Service, len(services))
	for i, s := range services {
		result[i] = s.ToModel()
	}
	return result, nil
}

func (r *serviceRepository) List(ctx context.Context, search string, limit, offset int) ([]*models.Service, error) {
	var services []*Service
	query := r.db.NewSelect().
		Model(&services).
		Order("id ASC")

	if search != "" {
		query = query.Where("lower(name) LIKE lower(?)", "%"+search+"%")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*models.Service, len(services))
	for i, s := range services {
		result[i] = s.ToModel()
	}
	return result, nil
}

func (r *serviceRepository) Create(ctx context.Context, service *models.Service) error {
	dbService := ServiceFromModel(service)
	_, err := r.db.NewInsert().
		Model(dbService).
		Exec(ctx)
	if err != nil {
		return err
	}
	service.ID = dbService.ID
	return nil
}

func (r *serviceRepository) Update(ctx context.Context, service *models.Service) error {
	dbService := ServiceFromModel(service)
	_, err := r.db.NewUpdate().
		Model(dbService).
		WherePK().
		Exec(ctx)
	return err
}

func (r *serviceRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*Service)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// UserRepository provides database operations for users
type UserRepository interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	FindFirstByUsername(ctx context.Context, username string) (*models.User, error)
	FindFirstByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, search string, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	db bun.IDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db bun.IDB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("user %d", id)
	}
	if err != nil {
		return nil, err
	}

	return user.ToModel(), nil
}

// GetByUsername looks up a user by exact username, used by the login flow.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("username = ?", username).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("user %q", username)
	}
	if err != nil {
		return nil, err
	}

	return user.ToModel(), nil
}

// FindFirstByUsername matches case-insensitively on a substring, used by
// duplicate checks.
func (r *userRepository) FindFirstByUsername(ctx context.Context, username string) (*models.User, error) {
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("lower(username) LIKE lower(?)", "%"+username+"%").
		Order("id ASC").
		Limit(1).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("user %q", username)
	}
	if err != nil {
		return nil, err
	}

	return user.ToModel(), nil
}

func (r *userRepository) FindFirstByEmail(ctx context.Context, email string) (*models.User, error) {
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("lower(email) LIKE lower(?)", "%"+email+"%").
		Order("id ASC").
		Limit(1).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("user with email %q", email)
	}
	if err != nil {
		return nil, err
	}

	return user.ToModel(), nil
}

func (r *userRepository) List(ctx context.Context, search string, limit, offset int) ([]*models.User, error) {
	var users []*User
	query := r.db.NewSelect().
		Model(&users).
		Order("id ASC")

	if search != "" {
		query = query.Where("lower(username) LIKE lower(?)", "%"+search+"%")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*models.User, len(users))
	for i, u := range users {
		result[i] = u.ToModel()
	}
	return result, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	dbUser := UserFromModel(user)
	_, err := r.db.NewInsert().
		Model(dbUser).
		Exec(ctx)
	if err != nil {
		return err
	}
	user.ID = dbUser.ID
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	dbUser := UserFromModel(user)
	_, err := r.db.NewUpdate().
		Model(dbUser).
		WherePK().
		Exec(ctx)
	return err
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// RoleRepository provides database operations for roles
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*models.Role, error)
	ListByNames(ctx context.Context, names []string) ([]*models.Role, error)
	List(ctx context.Context) ([]*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
}

type roleRepository struct {
	db bun.IDB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db bun.IDB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	role := new(Role)
	err := r.db.NewSelect().
		Model(role).
		Where("name = ?", name).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("role %q", name)
	}
	if err != nil {
		return nil, err
	}

	return role.ToModel(), nil
}

func (r *roleRepository) ListByNames(ctx context.Context, names []string) ([]*models.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var roles []*Role
	err := r.db.NewSelect().
		Model(&roles).
		Where("name IN (?)", bun.In(names)).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	result := make([]*models.Role, len(roles))
	for i, role := range roles {
		result[i] = role.ToModel()
	}
	return result, nil
}

func (r *roleRepository) List(ctx context.Context) ([]*models.Role, error) {
	var roles []*Role
	err := r.db.NewSelect().
		Model(&roles).
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	result := make([]*models.Role, len(roles))
	for i, role := range roles {
		result[i] = role.ToModel()
	}
	return result, nil
}

func (r *roleRepository) Create(ctx context.Context, role *models.Role) error {
	dbRole := RoleFromModel(role)
	_, err := r.db.NewInsert().
		Model(dbRole).
		Exec(ctx)
	if err != nil {
		return err
	}
	role.ID = dbRole.ID
	return nil
}
