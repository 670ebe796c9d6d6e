// Package accounts owns user lifecycle and role grants. Role changes go
// through reconciliation: the minimal set of additions and removals that
// turns the current grant set into the desired one.
package accounts

import (
	"context"

	"github.com/juju/errors"
	"github.com/rs/zerolog/log"

	"github.com/DiegoChMs/Warehouse/internal/database"
	"github.com/DiegoChMs/Warehouse/internal/fault"
	"github.com/DiegoChMs/Warehouse/pkg/auth"
	"github.com/DiegoChMs/Warehouse/pkg/models"
)

// UserRequest carries client input for user create and update operations.
type UserRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Enabled  bool     `json:"enabled"`
	Roles    []string `json:"roles"`
}

// Service provides user and role-grant operations.
type Service struct {
	db     *database.DB
	hasher auth.Hasher
}

// New creates an accounts service. The hasher is an injected capability so
// tests can swap the cost or the algorithm.
func New(db *database.DB, hasher auth.Hasher) *Service {
	return &Service{db: db, hasher: hasher}
}

// Create registers a user with an explicit role set (administrative path).
func (s *Service) Create(ctx context.Context, req UserRequest) (*models.User, error) {
	var user *models.User

	err := s.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		if _, err := tx.Users.FindFirstByEmail(ctx, req.Email); err == nil {
			return errors.BadRequestf("the user with this email already exists")
		} else if !errors.Is(err, errors.NotFound) {
			return err
		}

		if err := s.verifyUsernameAndRoles(ctx, tx, req); err != nil {
			return err
		}

		var err error
		user, err = s.saveUser(ctx, tx, req, req.Roles)
		return err
	})
	if err != nil {
		return nil, fault.Wrap(err, "accounts.create")
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User created")
	return user, nil
}

// Register creates a user through the public sign-up path. The role set is
// forced to the default role regardless of client input.
func (s *Service) Register(ctx context.Context, req UserRequest) (*models.User, error) {
	var user *models.User

	err := s.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		if _, err := tx.Users.FindFirstByEmail(ctx, req.Email); err == nil {
			return errors.BadRequestf("the user with this email already exists")
		} else if !errors.Is(err, errors.NotFound) {
			return err
		}

		if _, err := tx.Users.FindFirstByUsername(ctx, req.Username); err == nil {
			return errors.BadRequestf("the user with this username already exists")
		} else if !errors.Is(err, errors.NotFound) {
			return err
		}

		req.Enabled = true

		var err error
		user, err = s.saveUser(ctx, tx, req, []string{models.DefaultRole})
		return err
	})
	if err != nil {
		return nil, fault.Wrap(err, "accounts.register")
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// Get returns a user together with their role names.
func (s *Service) Get(ctx context.Context, id int64) (*models.UserView, error) {
	user, err := s.db.Users.Get(ctx, id)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.BadRequestf("the user does not exist")
	}
	if err != nil {
		return nil, fault.Wrap(err, "accounts.get")
	}

	roles, err := s.db.UserRoles.RoleNamesByUser(ctx, id)
	if err != nil {
		return nil, fault.Wrap(err, "accounts.get")
	}

	return &models.UserView{User: *user, Roles: roles}, nil
}

// Update replaces a user's fields, re-hashes the password and reconciles the
// role set, all in one transaction.
func (s *Service) Update(ctx context.Context, id int64, req UserRequest) error {
	err := s.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		existing, err := tx.Users.Get(ctx, id)
		if errors.Is(err, errors.NotFound) {
			return errors.BadRequestf("the user does not exist")
		}
		if err != nil {
			return err
		}

		if other, err := tx.Users.FindFirstByUsername(ctx, req.Username); err == nil && other.ID != id {
			return errors.BadRequestf("the user with this username already exists")
		} else if err != nil && !errors.Is(err, errors.NotFound) {
			return err
		}

		if missing, err := s.missingRoles(ctx, tx, req.Roles); err != nil {
			return err
		} else if len(missing) > 0 {
			return errors.BadRequestf("the role(s): %v, do not exist", missing)
		}

		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			return err
		}

		existing.Username = req.Username
		existing.Email = req.Email
		existing.Password = hashed
		existing.Enabled = req.Enabled

		if err := s.reconcileRoles(ctx, tx, id, req.Roles); err != nil {
			return err
		}

		return tx.Users.Update(ctx, existing)
	})
	return fault.Wrap(err, "accounts.update")
}

// Disable turns a user off without deleting it.
func (s *Service) Disable(ctx context.Context, id int64) error {
	user, err := s.db.Users.Get(ctx, id)
	if errors.Is(err, errors.NotFound) {
		return errors.BadRequestf("the user does not exist")
	}
	if err != nil {
		return fault.Wrap(err, "accounts.disable")
	}

	user.Enabled = false
	return fault.Wrap(s.db.Users.Update(ctx, user), "accounts.disable")
}

// Delete removes a user, revoking every role grant first.
func (s *Service) Delete(ctx context.Context, id int64) (*models.User, error) {
	var user *models.User

	err := s.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		var err error
		user, err = tx.Users.Get(ctx, id)
		if errors.Is(err, errors.NotFound) {
			return errors.BadRequestf("the user does not exist")
		}
		if err != nil {
			return err
		}

		if err := tx.UserRoles.RevokeAllForUser(ctx, id); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, id)
	})
	if err != nil {
		return nil, fault.Wrap(err, "accounts.delete")
	}

	log.Info().Int64("user_id", id).Msg("User deleted")
	return user, nil
}

// List returns users matching an optional username search. An empty result
// is reported as NotFound.
func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]*models.User, error) {
	users, err := s.db.Users.List(ctx, search, limit, offset)
	if err != nil {
		return nil, fault.Wrap(err, "accounts.list")
	}
	if len(users) == 0 {
		return nil, errors.NotFoundf("no records")
	}
	return users, nil
}

// Authenticate verifies credentials and returns the user with their roles.
// Used by the login handler.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.UserView, error) {
	user, err := s.db.Users.GetByUsername(ctx, username)
	if errors.Is(err, errors.NotFound) {
		return nil, errors.BadRequestf("bad credentials")
	}
	if err != nil {
		return nil, fault.Wrap(err, "accounts.authenticate")
	}

	if !user.Enabled {
		return nil, errors.BadRequestf("the user is disabled")
	}
	if !s.hasher.Verify(user.Password, password) {
		return nil, errors.BadRequestf("bad credentials")
	}

	roles, err := s.db.UserRoles.RoleNamesByUser(ctx, user.ID)
	if err != nil {
		return nil, fault.Wrap(err, "accounts.authenticate")
	}

	return &models.UserView{User: *user, Roles: roles}, nil
}

// ReconcileRoles applies the minimal diff between the user's current roles
// and the desired set. Calling it again with the same desired set is a no-op.
func (s *Service) ReconcileRoles(ctx context.Context, userID int64, desired []string) error {
	err := s.db.RunInTx(ctx, func(ctx context.Context, tx *database.DB) error {
		if _, err := tx.Users.Get(ctx, userID); errors.Is(err, errors.NotFound) {
			return errors.BadRequestf("the user does not exist")
		} else if err != nil {
			return err
		}

		if missing, err := s.missingRoles(ctx, tx, desired); err != nil {
			return err
		} else if len(missing) > 0 {
			return errors.BadRequestf("the role(s): %v, do not exist", missing)
		}

		return s.reconcileRoles(ctx, tx, userID, desired)
	})
	return fault.Wrap(err, "accounts.reconcile-roles")
}

// reconcileRoles computes toAdd and toRemove as true set differences up
// front, then applies removals before additions. Both are commutative over
// disjoint keys so the order only matters for log readability.
func (s *Service) reconcileRoles(ctx context.Context, tx *database.DB, userID int64, desired []string) error {
	current, err := tx.UserRoles.RoleNamesByUser(ctx, userID)
	if err != nil {
		return err
	}

	currentSet := make(map[string]bool, len(current))
	for _, name := range current {
		currentSet[name] = true
	}
	desiredSet := make(map[string]bool, len(desired))
	for _, name := range desired {
		desiredSet[name] = true
	}

	var toAdd, toRemove []string
	for _, name := range desired {
		if !currentSet[name] && !contains(toAdd, name) {
			toAdd = append(toAdd, name)
		}
	}
	for _, name := range current {
		if !desiredSet[name] {
			toRemove = append(toRemove, name)
		}
	}

	if len(toAdd) == 0 && len(toRemove) == 0 {
		return nil
	}

	for _, name := range toRemove {
		role, err := tx.Roles.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if err := tx.UserRoles.Revoke(ctx, userID, role.ID); err != nil {
			return err
		}
	}
	for _, name := range toAdd {
		role, err := tx.Roles.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if err := tx.UserRoles.Grant(ctx, userID, role.ID); err != nil {
			return err
		}
	}

	log.Debug().
		Int64("user_id", userID).
		Strs("added", toAdd).
		Strs("removed", toRemove).
		Msg("Roles reconciled")
	return nil
}

// verifyUsernameAndRoles runs the duplicate-username and role-existence
// guards shared by create and update.
func (s *Service) verifyUsernameAndRoles(ctx context.Context, tx *database.DB, req UserRequest) error {
	if _, err := tx.Users.FindFirstByUsername(ctx, req.Username); err == nil {
		return errors.BadRequestf("the user with this username already exists")
	} else if !errors.Is(err, errors.NotFound) {
		return err
	}

	missing, err := s.missingRoles(ctx, tx, req.Roles)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return errors.BadRequestf("the role(s): %v, do not exist", missing)
	}
	return nil
}

// missingRoles returns the desired role names that resolve to no role.
func (s *Service) missingRoles(ctx context.Context, tx *database.DB, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	roles, err := tx.Roles.ListByNames(ctx, names)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(roles))
	for _, role := range roles {
		known[role.Name] = true
	}

	var missing []string
	for _, name := range names {
		if !known[name] && !contains(missing, name) {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

func (s *Service) saveUser(ctx context.Context, tx *database.DB, req UserRequest, roles []string) (*models.User, error) {
	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
		Enabled:  req.Enabled,
	}

	if err := tx.Users.Create(ctx, user); err != nil {
		if database.IsConflict(err) {
			return nil, errors.BadRequestf("the user with this username or email already exists")
		}
		return nil, err
	}

	for _, name := range roles {
		role, err := tx.Roles.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := tx.UserRoles.Grant(ctx, user.ID, role.ID); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
