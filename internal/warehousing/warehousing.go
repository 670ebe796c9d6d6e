// Package warehousing owns the warehouse records themselves: creation,
// lookup with attached service names, updates, disabling and search.
package warehousing

import (
	"context"

	"github.com/juju/errors"
	"github.com/rs/zerolog/log"

	"github.com/DiegoChMs/Warehouse/internal/catalog"
	"github.com/DiegoChMs/Warehouse/internal/database"
	"github.com/DiegoChMs/Warehouse/internal/fault"
	"github.com/DiegoChMs/Warehouse/pkg/models"
)

// WarehouseRequest carries client input for warehouse create and update
// operations.
type WarehouseRequest struct {
	Code      string   `json:"code"`
	Price     float64  `json:"price"`
	Available bool     `json:"available"`
	Services  []string `json:"services"`
}

// Service provides warehouse operations.
type Service struct {
	db *database.DB
}

// New creates a warehousing service over the given database.
func New(db *database.DB) *Service {
	return &Service{db: db}
}

// Create registers a warehouse and attaches any named services in one
// transaction.
func (s *Service) Create(ctx context.Context, req WarehouseRequest) (*models.Warehouse, error) {
	var warehouse *models.Warehouse

	err := s.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		if _, err := tx.Warehouses.GetByCode(ctx, req.Code); err == nil {
			return errors.BadRequestf("the warehouse with this code already exists")
		} else if !errors.Is(err, errors.NotFound) {
			return err
		}

		warehouse = &models.Warehouse{
			Code:      req.Code,
			Price:     req.Price,
			Available: req.Available,
		}
		if err := tx.Warehouses.Create(ctx, warehouse); err != nil {
			return err
		}

		if len(req.Services) > 0 {
			cat := catalog.New(tx)
			serviceIDs, err := cat.ResolveNames(ctx, req.Services)
			if err != nil {
				return err
			}
			if err := cat.AttachToWarehouse(ctx, serviceIDs, warehouse.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fault.Wrap(err, "warehousing.create")
	}

	log.Info().Int64("warehouse_id", warehouse.ID).Str("code", warehouse.Code).Msg("Warehouse created")
	return warehouse, nil
}

// Get returns a warehouse together with its attached service names.
func (s *Service) Get(ctx context.Context, id int64) (*models.WarehouseView, error) {
	warehouse, err := s.db.Warehouses.Get(ctx, id)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.BadRequestf("the warehouse does not exist")
	}
	if err != nil {
		return nil, fault.Wrap(err, "warehousing.get")
	}

	names, err := catalog.New(s.db).ServiceNamesByWarehouse(ctx, id)
	if err != nil {
		return nil, fault.Wrap(err, "warehousing.get")
	}

	return &models.WarehouseView{Warehouse: *warehouse, Services: names}, nil
}

// Update replaces a warehouse's fields, keeping its identity.
func (s *Service) Update(ctx context.Context, id int64, req WarehouseRequest) (*models.Warehouse, error) {
	var warehouse *models.Warehouse

	err := s.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		existing, err := tx.Warehouses.Get(ctx, id)
		if errors.Is(err, errors.NotFound) {
			return errors.BadRequestf("the warehouse does not exist")
		}
		if err != nil {
			return err
		}

		if other, err := tx.Warehouses.GetByCode(ctx, req.Code); err == nil && other.ID != id {
			return errors.BadRequestf("the warehouse with this code already exists")
		} else if err != nil && !errors.Is(err, errors.NotFound) {
			return err
		}

		existing.Code = req.Code
		existing.Price = req.Price
		existing.Available = req.Available

		if err := tx.Warehouses.Update(ctx, existing); err != nil {
			return err
		}
		warehouse = existing
		return nil
	})
	if err != nil {
		return nil, fault.Wrap(err, "warehousing.update")
	}
	return warehouse, nil
}

// Disable blocks new leases on a warehouse. A warehouse still referenced by
// leases cannot be disabled.
func (s *Service) Disable(ctx context.Context, id int64) error {
	err := s.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		warehouse, err := tx.Warehouses.Get(ctx, id)
		if errors.Is(err, errors.NotFound) {
			return errors.BadRequestf("the warehouse does not exist")
		}
		if err != nil {
			return err
		}

		active, err := tx.Leases.CountByWarehouse(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return errors.BadRequestf("the warehouse still has active leases")
		}

		warehouse.Available = false
		return tx.Warehouses.Update(ctx, warehouse)
	})
	if err != nil {
		return fault.Wrap(err, "warehousing.disable")
	}

	log.Info().Int64("warehouse_id", id).Msg("Warehouse disabled")
	return nil
}

// List returns warehouses matching an optional code search. An empty result
// is reported as NotFound.
func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]*models.Warehouse, error) {
	warehouses, err := s.db.Warehouses.List(ctx, search, limit, offset)
	if err != nil {
		return nil, fault.Wrap(err, "warehousing.list")
	}
	if len(warehouses) == 0 {
		return nil, errors.NotFoundf("no records")
	}
	return warehouses, nil
}

// AttachServices associates the given service ids with a warehouse.
func (s *Service) AttachServices(ctx context.Context, warehouseID int64, serviceIDs []int64) error {
	err := s.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		if _, err := tx.Warehouses.Get(ctx, warehouseID); errors.Is(err, errors.NotFound) {
			return errors.BadRequestf("the warehouse does not exist")
		} else if err != nil {
			return err
		}
		return catalog.New(tx).AttachToWarehouse(ctx, serviceIDs, warehouseID)
	})
	return fault.Wrap(err, "warehousing.attach-services")
}

// DetachServices removes service associations from a warehouse. Detaching an
// association that does not exist is a no-op.
func (s *Service) DetachServices(ctx context.Context, warehouseID int64, serviceIDs []int64) error {
	err := catalog.New(s.db).DetachFromWarehouse(ctx, serviceIDs, warehouseID)
	return fault.Wrap(err, "warehousing.detach-services")
}
