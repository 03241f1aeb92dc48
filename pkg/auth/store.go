package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

// UserStore provides user persistence and credential checks.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// AutoMigrate creates or updates the user, role, and assignment tables.
func (s *UserStore) AutoMigrate() error {
	for _, m := range []any{&model.User{}, &model.Role{}, &model.RoleGrant{}, &model.ProjectAssignment{}} {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migrate auth tables: %w", err)
		}
	}
	return nil
}

// Create persists a new user with a bcrypt-hashed password. The plaintext
// password is never stored.
func (s *UserStore) Create(ctx context.Context, user *model.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.PasswordHash = string(hash)
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apierr.Conflict("user with email %s already exists", user.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Get retrieves a user by id. Returns nil, nil when not found.
func (s *UserStore) Get(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// Authenticate verifies the email/password pair. The comparison is bcrypt's
// constant-time hash check, never a plaintext comparison.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ? AND active = ?", email, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.InvalidCredential("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apierr.InvalidCredential("invalid email or password")
	}
	return &user, nil
}

// AssignProjects replaces the user's project assignments.
func (s *UserStore) AssignProjects(ctx context.Context, userID string, assignments []model.ProjectAssignment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.ProjectAssignment{}).Error; err != nil {
			return fmt.Errorf("clear assignments: %w", err)
		}
		for i := range assignments {
			assignments[i].UserID = userID
			if assignments[i].ID == "" {
				assignments[i].ID = uuid.New().String()
			}
		}
		if len(assignments) == 0 {
			return nil
		}
		if err := tx.Create(&assignments).Error; err != nil {
			return fmt.Errorf("create assignments: %w", err)
		}
		return nil
	})
}

// BootstrapFirstAdmin creates the first admin user. It fails with
// AdminRoleMissing when no Admin role record exists and with
// AdminAlreadyExists when any user already holds that role.
func (s *UserStore) BootstrapFirstAdmin(ctx context.Context, user *model.User, password string) error {
	var role model.Role
	err := s.db.WithContext(ctx).Where("name = ?", model.RoleAdmin).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.Conflict("admin role record missing").WithDetail("reason", "AdminRoleMissing")
		}
		return fmt.Errorf("lookup admin role: %w", err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return apierr.Conflict("an admin user already exists").WithDetail("reason", "AdminAlreadyExists")
	}

	user.Role = model.RoleAdmin
	user.RoleID = role.ID
	user.Active = true
	return s.Create(ctx, user, password)
}

// RoleStore provides the capability model: roles and their grants.
type RoleStore struct {
	db *gorm.DB
}

// NewRoleStore creates a new RoleStore.
func NewRoleStore(db *gorm.DB) *RoleStore {
	return &RoleStore{db: db}
}

// Create persists a role and its grants.
func (s *RoleStore) Create(ctx context.Context, role *model.Role) error {
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	for i := range role.Grants {
		role.Grants[i].RoleID = role.ID
		if role.Grants[i].ID == "" {
			role.Grants[i].ID = uuid.New().String()
		}
	}
	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apierr.Conflict("role %s already exists", role.Name)
		}
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// List returns all roles with their grants preloaded.
func (s *RoleStore) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := s.db.WithContext(ctx).Preload("Grants").Order("name").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// Get retrieves a role by id with grants. Returns nil, nil when not found.
func (s *RoleStore) Get(ctx context.Context, id string) (*model.Role, error) {
	var role model.Role
	err := s.db.WithContext(ctx).Preload("Grants").Where("id = ?", id).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

// ReplaceGrants swaps the role's grant set atomically.
func (s *RoleStore) ReplaceGrants(ctx context.Context, roleID string, grants []model.RoleGrant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Role{}).Where("id = ?", roleID).Count(&count).Error; err != nil {
			return fmt.Errorf("lookup role: %w", err)
		}
		if count == 0 {
			return apierr.NotFound("role %s not found", roleID)
		}
		if err := tx.Where("role_id = ?", roleID).Delete(&model.RoleGrant{}).Error; err != nil {
			return fmt.Errorf("clear grants: %w", err)
		}
		for i := range grants {
			grants[i].RoleID = roleID
			if grants[i].ID == "" {
				grants[i].ID = uuid.New().String()
			}
		}
		if len(grants) == 0 {
			return nil
		}
		if err := tx.Create(&grants).Error; err != nil {
			return fmt.Errorf("create grants: %w", err)
		}
		return nil
	})
}

// Allows reports whether the role holds a grant for (resource, action).
func (s *RoleStore) Allows(ctx context.Context, roleID, resource, action string) (bool, error) {
	if roleID == "" {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.RoleGrant{}).
		Where("role_id = ? AND resource = ? AND action = ?", roleID, resource, action).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("grant lookup: %w", err)
	}
	return count > 0, nil
}
