package warehousing

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiegoChMs/Warehouse/internal/database"
	"github.com/DiegoChMs/Warehouse/pkg/models"
)

func setupTestService(t *testing.T) (*Service, *database.DB) {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return New(db), db
}

func seedService(t *testing.T, db *database.DB, name string) *models.Service {
	t.Helper()
	svc := &models.Service{Name: name, Price: 10, Enabled: true}
	require.NoError(t, db.Services.Create(context.Background(), svc))
	return svc
}

// TestService_Create tests creation with attached services
func TestService_Create(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	seedService(t, db, "Security")

	warehouse, err := svc.Create(ctx, WarehouseRequest{
		Code:      "WH-NORTH-01",
		Price:     500,
		Available: true,
		Services:  []string{"Security"},
	})
	require.NoError(t, err)
	require.NotZero(t, warehouse.ID)

	view, err := svc.Get(ctx, warehouse.ID)
	require.NoError(t, err)
	assert.Equal(t, "WH-NORTH-01", view.Code)
	assert.Equal(t, []string{"Security"}, view.Services)
}

// TestService_Create_DuplicateCode tests the duplicate guard
func TestService_Create_DuplicateCode(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, WarehouseRequest{Code: "WH-NORTH-01", Price: 500, Available: true})
	require.NoError(t, err)

	_, err = svc.Create(ctx, WarehouseRequest{Code: "WH-NORTH-01", Price: 600, Available: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.BadRequest))
	assert.EqualError(t, err, "the warehouse with this code already exists")
}

// TestService_Create_UnknownServiceRollsBack tests that a failed attachment
// rolls the warehouse row back.
func TestService_Create_UnknownServiceRollsBack(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, WarehouseRequest{
		Code:      "WH-NORTH-01",
		Price:     500,
		Available: true,
		Services:  []string{"Unknown-Service"},
	})
	require.Error(t, err)
	assert.EqualError(t, err, "the service Unknown-Service does not exist")

	warehouses, err := db.Warehouses.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, warehouses)
}

// TestService_Get_NotFound tests the missing-warehouse error
func TestService_Get_NotFound(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.Get(context.Background(), 999)
	require.Error(t, err)
	assert.EqualError(t, err, "the warehouse does not exist")
}

// TestService_Update tests field replacement and the duplicate-code guard
func TestService_Update(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, WarehouseRequest{Code: "WH-NORTH-01", Price: 500, Available: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, WarehouseRequest{Code: "WH-SOUTH-01", Price: 400, Available: true})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, first.ID, WarehouseRequest{Code: "WH-NORTH-01", Price: 550, Available: true})
	require.NoError(t, err)
	assert.Equal(t, 550.0, updated.Price)

	_, err = svc.Update(ctx, first.ID, WarehouseRequest{Code: "WH-SOUTH-01", Price: 550, Available: true})
	require.Error(t, err)
	assert.EqualError(t, err, "the warehouse with this code already exists")
}

// TestService_Disable tests that a leased warehouse cannot be disabled
func TestService_Disable(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	warehouse, err := svc.Create(ctx, WarehouseRequest{Code: "WH-NORTH-01", Price: 500, Available: true})
	require.NoError(t, err)

	user := &models.User{Username: "u1", Email: "u1@example.com", Password: "x", Enabled: true}
	require.NoError(t, db.Users.Create(ctx, user))
	lease := &models.Lease{UserID: user.ID, WarehouseID: warehouse.ID, Total: 500}
	require.NoError(t, db.Leases.Create(ctx, lease))

	err = svc.Disable(ctx, warehouse.ID)
	require.Error(t, err)
	assert.EqualError(t, err, "the warehouse still has active leases")

	require.NoError(t, db.Leases.Delete(ctx, lease.ID))
	require.NoError(t, svc.Disable(ctx, warehouse.ID))

	stored, err := db.Warehouses.Get(ctx, warehouse.ID)
	require.NoError(t, err)
	assert.False(t, stored.Available)
}

// TestService_List tests search and the empty-result convention
func TestService_List(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, "", 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotFound))

	_, err = svc.Create(ctx, WarehouseRequest{Code: "WH-NORTH-01", Price: 500, Available: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, WarehouseRequest{Code: "WH-SOUTH-01", Price: 400, Available: true})
	require.NoError(t, err)

	matched, err := svc.List(ctx, "south", 0, 0)
	require.NoError(t, err)
	assert.Len(t, matched, 1)
	assert.Equal(t, "WH-SOUTH-01", matched[0].Code)
}

// TestService_AttachDetachServices tests association management
func TestService_AttachDetachServices(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	warehouse, err := svc.Create(ctx, WarehouseRequest{Code: "WH-NORTH-01", Price: 500, Available: true})
	require.NoError(t, err)
	security := seedService(t, db, "Security")

	require.NoError(t, svc.AttachServices(ctx, warehouse.ID, []int64{security.ID}))

	view, err := svc.Get(ctx, warehouse.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Security"}, view.Services)

	err = svc.AttachServices(ctx, 999, []int64{security.ID})
	require.Error(t, err)
	assert.EqualError(t, err, "the warehouse does not exist")

	require.NoError(t, svc.DetachServices(ctx, warehouse.ID, []int64{security.ID}))
	// Detaching again is a no-op
	require.NoError(t, svc.DetachServices(ctx, warehouse.ID, []int64{security.ID}))

	view, err = svc.Get(ctx, warehouse.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Services)
}
