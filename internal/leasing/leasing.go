// Package leasing implements the booking workflow: precondition checks,
// server-authoritative pricing, lease persistence and extra-service
// attachment, all inside one transaction.
package leasing

import (
	"context"

	"github.com/juju/errors"
	"github.com/rs/zerolog/log"

	"github.com/DiegoChMs/Warehouse/internal/catalog"
	"github.com/DiegoChMs/Warehouse/internal/database"
	"github.com/DiegoChMs/Warehouse/internal/fault"
	"github.com/DiegoChMs/Warehouse/pkg/models"
)

// BookingRequest carries the client's booking input. Total is accepted for
// wire compatibility but ignored; the warehouse price is authoritative.
type BookingRequest struct {
	UserID        int64    `json:"user_id"`
	WarehouseID   int64    `json:"warehouse_id"`
	Total         float64  `json:"total"`
	ExtraServices []string `json:"extra_services"`
}

// Engine books, reads and deletes leases.
type Engine struct {
	db *database.DB
}

// New creates a booking engine over the given database.
func New(db *database.DB) *Engine {
	return &Engine{db: db}
}

// Book validates the request, prices the lease from the warehouse and
// persists it together with any extra-service attachments. A failure at any
// step, attachment included, rolls the whole booking back.
func (e *Engine) Book(ctx context.Context, req BookingRequest) (*models.Lease, error) {
	var lease *models.Lease

	err := e.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		warehouse, err := warehouseValid(ctx, tx, req.WarehouseID)
		if err != nil {
			return err
		}

		if err := userValid(ctx, tx, req.UserID); err != nil {
			return err
		}

		_, err = tx.Leases.FindByUserAndWarehouse(ctx, req.UserID, req.WarehouseID)
		if err == nil {
			return errors.BadRequestf("the user already occupies this warehouse")
		}
		if !errors.Is(err, errors.NotFound) {
			return err
		}

		lease = &models.Lease{
			UserID:      req.UserID,
			WarehouseID: req.WarehouseID,
			Total:       warehouse.Price,
		}

		if err := tx.Leases.Create(ctx, lease); err != nil {
			// The unique index on (user_id, warehouse_id) closes the window
			// between the duplicate check and this insert.
			if database.IsConflict(err) {
				return errors.BadRequestf("the user already occupies this warehouse")
			}
			return err
		}

		if len(req.ExtraServices) > 0 {
			cat := catalog.New(tx)
			serviceIDs, err := cat.ResolveNames(ctx, req.ExtraServices)
			if err != nil {
				return err
			}
			if err := cat.AttachToLease(ctx, serviceIDs, lease.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fault.Wrap(err, "leasing.book")
	}

	log.Info().
		Int64("lease_id", lease.ID).
		Int64("user_id", lease.UserID).
		Int64("warehouse_id", lease.WarehouseID).
		Float64("total", lease.Total).
		Msg("Lease booked")

	return lease, nil
}

// Get returns a lease together with its attached service names.
func (e *Engine) Get(ctx context.Context, id int64) (*models.LeaseView, error) {
	lease, err := e.db.Leases.Get(ctx, id)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.BadRequestf("the lease with this id does not exist")
	}
	if err != nil {
		return nil, fault.Wrap(err, "leasing.get")
	}

	names, err := catalog.New(e.db).ServiceNamesByLease(ctx, id)
	if err != nil {
		return nil, fault.Wrap(err, "leasing.get")
	}

	return &models.LeaseView{Lease: *lease, ExtraServices: names}, nil
}

// ListByUser returns the leases held by a user, newest first. An empty
// result is reported as NotFound.
func (e *Engine) ListByUser(ctx context.Context, userID int64) ([]*models.Lease, error) {
	leases, err := e.db.Leases.ListByUser(ctx, userID)
	if err != nil {
		return nil, fault.Wrap(err, "leasing.list-by-user")
	}
	if len(leases) == 0 {
		return nil, errors.NotFoundf("no records")
	}
	return leases, nil
}

// Delete removes a lease and its service associations in one transaction.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	err := e.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		_, err := tx.Leases.Get(ctx, id)
		if errors.Is(err, errors.NotFound) {
			return errors.BadRequestf("the lease with the id %d does not exist", id)
		}
		if err != nil {
			return err
		}

		if err := tx.LeaseServices.DetachAllForOwner(ctx, id); err != nil {
			return err
		}
		return tx.Leases.Delete(ctx, id)
	})
	if err != nil {
		return fault.Wrap(err, "leasing.delete")
	}

	log.Info().Int64("lease_id", id).Msg("Lease deleted")
	return nil
}

// warehouseValid guards booking on warehouse existence and availability.
func warehouseValid(ctx context.Context, tx *database.DB, id int64) (*models.Warehouse, error) {
	warehouse, err := tx.Warehouses.Get(ctx, id)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.BadRequestf("the warehouse does not exist")
	}
	if err != nil {
		return nil, err
	}
	if !warehouse.Available {
		return nil, errors.BadRequestf("the warehouse is not available")
	}
	return warehouse, nil
}

// userValid guards booking on user existence.
func userValid(ctx context.Context, tx *database.DB, id int64) error {
	_, err := tx.Users.Get(ctx, id)
	if errors.Is(err, errors.NotFound) {
		return errors.BadRequestf("the user does not exist")
	}
	return err
}
