// Package catalog owns the extra-service catalog: service records themselves,
// resolution between service names and identifiers, and the junction rows
// that associate services with leases and warehouses.
package catalog

import (
	"context"

	"github.com/juju/errors"
	"github.com/rs/zerolog/log"

	"github.com/DiegoChMs/Warehouse/internal/database"
	"github.com/DiegoChMs/Warehouse/internal/fault"
	"github.com/DiegoChMs/Warehouse/pkg/models"
)

// Catalog provides service catalog and association operations. Construct it
// over a transaction-bound *database.DB to run inside that transaction.
type Catalog struct {
	db *database.DB
}

// New creates a catalog over the given repository set.
func New(db *database.DB) *Catalog {
	return &Catalog{db: db}
}

// Create registers a new service. Names are unique; a duplicate is a
// client error.
func (c *Catalog) Create(ctx context.Context, svc *models.Service) (*models.Service, error) {
	_, err := c.db.Services.FindFirstByName(ctx, svc.Name)
	if err == nil {
		return nil, errors.BadRequestf("the service with this name already exists")
	}
	if !errors.Is(err, errors.NotFound) {
		return nil, fault.Wrap(err, "catalog.create")
	}

	svc.ID = 0
	if err := c.db.Services.Create(ctx, svc); err != nil {
		if database.IsConflict(err) {
			return nil, errors.BadRequestf("the service with this name already exists")
		}
		return nil, fault.Wrap(err, "catalog.create")
	}

	log.Info().Int64("service_id", svc.ID).Str("name", svc.Name).Msg("Service created")
	return svc, nil
}

// Get returns a single service by id.
func (c *Catalog) Get(ctx context.Context, id int64) (*models.Service, error) {
	svc, err := c.db.Services.Get(ctx, id)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.BadRequestf("the service with this id does not exist")
	}
	if err != nil {
		return nil, fault.Wrap(err, "catalog.get")
	}
	return svc, nil
}

// Update replaces a service's fields, keeping its identity.
func (c *Catalog) Update(ctx context.Context, id int64, svc *models.Service) (*models.Service, error) {
	existing, err := c.db.Services.Get(ctx, id)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.BadRequestf("the service with this id does not exist")
	}
	if err != nil {
		return nil, fault.Wrap(err, "catalog.update")
	}

	if other, err := c.db.Services.FindFirstByName(ctx, svc.Name); err == nil && other.ID != existing.ID {
		return nil, errors.BadRequestf("the service with this name already exists")
	} else if err != nil && !errors.Is(err, errors.NotFound) {
		return nil, fault.Wrap(err, "catalog.update")
	}

	svc.ID = existing.ID
	if err := c.db.Services.Update(ctx, svc); err != nil {
		return nil, fault.Wrap(err, "catalog.update")
	}
	return svc, nil
}

// Disable turns a service off without deleting it.
func (c *Catalog) Disable(ctx context.Context, id int64) error {
	svc, err := c.db.Services.Get(ctx, id)
	if errors.Is(err, errors.NotFound) {
		return errors.BadRequestf("the service with this id does not exist")
	}
	if err != nil {
		return fault.Wrap(err, "catalog.disable")
	}

	svc.Enabled = false
	return fault.Wrap(c.db.Services.Update(ctx, svc), "catalog.disable")
}

// List returns services matching an optional name search. An empty result is
// reported as NotFound so callers can distinguish it from a failed lookup.
func (c *Catalog) List(ctx context.Context, search string, limit, offset int) ([]*models.Service, error) {
	services, err := c.db.Services.List(ctx, search, limit, offset)
	if err != nil {
		return nil, fault.Wrap(err, "catalog.list")
	}
	if len(services) == 0 {
		return nil, errors.NotFoundf("no records")
	}
	return services, nil
}

// ResolveNames maps service names to identifiers, preserving input order.
// Each name matches the first service containing it case-insensitively;
// duplicates resolve independently. The first unresolved name fails the
// whole call and no partial result is returned.
func (c *Catalog) ResolveNames(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		svc, err := c.db.Services.FindFirstByName(ctx, name)
		if errors.Is(err, errors.NotFound) {
			return nil, errors.BadRequestf("the service %s does not exist", name)
		}
		if err != nil {
			return nil, fault.Wrap(err, "catalog.resolve")
		}
		ids = append(ids, svc.ID)
	}
	return ids, nil
}

// ServiceNamesByLease returns the names of the services attached to a lease.
func (c *Catalog) ServiceNamesByLease(ctx context.Context, leaseID int64) ([]string, error) {
	ids, err := c.db.LeaseServices.ServiceIDsByOwner(ctx, leaseID)
	if err != nil {
		return nil, fault.Wrap(err, "catalog.lease-services")
	}
	return c.namesByIDs(ctx, ids)
}

// ServiceNamesByWarehouse returns the names of the services attached to a
// warehouse.
func (c *Catalog) ServiceNamesByWarehouse(ctx context.Context, warehouseID int64) ([]string, error) {
	ids, err := c.db.WarehouseServices.ServiceIDsByOwner(ctx, warehouseID)
	if err != nil {
		return nil, fault.Wrap(err, "catalog.warehouse-services")
	}
	return c.namesByIDs(ctx, ids)
}

func (c *Catalog) namesByIDs(ctx context.Context, ids []int64) ([]string, error) {
	services, err := c.db.Services.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fault.Wrap(err, "catalog.names-by-ids")
	}
	names := make([]string, len(services))
	for i, svc := range services {
		names[i] = svc.Name
	}
	return names, nil
}

// AttachToLease associates each service id with the lease. Every id is
// re-validated; the first missing service fails the batch.
func (c *Catalog) AttachToLease(ctx context.Context, serviceIDs []int64, leaseID int64) error {
	return c.attachAll(ctx, c.db.LeaseServices, serviceIDs, leaseID)
}

// AttachToWarehouse associates each service id with the warehouse.
func (c *Catalog) AttachToWarehouse(ctx context.Context, serviceIDs []int64, warehouseID int64) error {
	return c.attachAll(ctx, c.db.WarehouseServices, serviceIDs, warehouseID)
}

// DetachFromLease removes junction rows without re-validation. Detaching an
// association that does not exist is a no-op, not an error.
func (c *Catalog) DetachFromLease(ctx context.Context, serviceIDs []int64, leaseID int64) error {
	return c.detachAll(ctx, c.db.LeaseServices, serviceIDs, leaseID)
}

// DetachFromWarehouse removes junction rows without re-validation.
func (c *Catalog) DetachFromWarehouse(ctx context.Context, serviceIDs []int64, warehouseID int64) error {
	return c.detachAll(ctx, c.db.WarehouseServices, serviceIDs, warehouseID)
}

func (c *Catalog) attachAll(ctx context.Context, links database.LinkRepository, serviceIDs []int64, ownerID int64) error {
	for _, serviceID := range serviceIDs {
		_, err := c.db.Services.Get(ctx, serviceID)
		if errors.Is(err, errors.NotFound) {
			return errors.BadRequestf("the service does not exist")
		}
		if err != nil {
			return fault.Wrap(err, "catalog.attach")
		}

		if err := links.Attach(ctx, serviceID, ownerID); err != nil {
			return fault.Wrap(err, "catalog.attach")
		}
	}
	return nil
}

func (c *Catalog) detachAll(ctx context.Context, links database.LinkRepository, serviceIDs []int64, ownerID int64) error {
	for _, serviceID := range serviceIDs {
		if err := links.Detach(ctx, serviceID, ownerID); err != nil {
			return fault.Wrap(err, "catalog.detach")
		}
	}
	return nil
}
