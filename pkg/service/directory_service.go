package service

import (
	"fmt"
	"strings"

	"github.com/lemonhall/oa-mvp/pkg/apperrors"
	"github.com/lemonhall/oa-mvp/pkg/auth"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/storage"
	"github.com/pkg/errors"
)

// CreateUserInput carries a new account registration.
type CreateUserInput struct {
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	DepartmentID *int64 `json:"department_id"`
	PositionID   *int64 `json:"position_id"`
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	FullName     *string `json:"full_name"`
	Role         *string `json:"role"`
	DepartmentID *int64  `json:"department_id"`
	PositionID   *int64  `json:"position_id"`
	IsActive     *bool   `json:"is_active"`
}

var validRoles = map[models.Role]bool{
	models.AdminRole:    true,
	models.ApproverRole: true,
	models.EmployeeRole: true,
}

// DirectoryService administers users, departments and positions. The
// routing engine consumes it read-only through the Store.
type DirectoryService struct {
	store  storage.Store
	logger Logger
}

func NewDirectoryService(store storage.Store, logger Logger) *DirectoryService {
	return &DirectoryService{store: store, logger: logger}
}

// CreateUser registers an account with a hashed password.
func (s *DirectoryService) CreateUser(input CreateUserInput) (models.User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return models.User{}, apperrors.NewValidationError("username", "username is required")
	}
	if len(input.Password) < 6 {
		return models.User{}, apperrors.NewValidationError("password", "password must be at least 6 characters")
	}
	role := models.Role(input.Role)
	if role == "" {
		role = models.EmployeeRole
	}
	if !validRoles[role] {
		return models.User{}, apperrors.NewValidationError("role", fmt.Sprintf("unknown role %q", input.Role))
	}
	if _, err := s.store.GetUserByUsername(input.Username); err == nil {
		return models.User{}, apperrors.NewConflictError(fmt.Sprintf("username %q already exists", input.Username))
	} else if err != storage.ErrNotFound {
		return models.User{}, errors.Wrapf(err, "check username %q", input.Username)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}
	u := models.User{
		Username:     input.Username,
		FullName:     input.FullName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		DepartmentID: input.DepartmentID,
		PositionID:   input.PositionID,
	}
	u.ID, err = s.store.SaveUser(u)
	if err != nil {
		return models.User{}, errors.Wrap(err, "save user")
	}
	s.logger.Infof("Created user %q with ID %d", u.Username, u.ID)
	return u, nil
}

// UpdateUser applies a partial update to an account.
func (s *DirectoryService) UpdateUser(id int64, patch UserUpdate) (models.User, error) {
	u, err := s.store.GetUser(id)
	if err == storage.ErrNotFound {
		return models.User{}, apperrors.NewNotFoundError("user", id)
	}
	if err != nil {
		return models.User{}, errors.Wrapf(err, "get user %d", id)
	}

	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Role != nil {
		role := models.Role(*patch.Role)
		if !validRoles[role] {
			return models.User{}, apperrors.NewValidationError("role", fmt.Sprintf("unknown role %q", *patch.Role))
		}
		u.Role = role
	}
	if patch.DepartmentID != nil {
		u.DepartmentID = patch.DepartmentID
	}
	if patch.PositionID != nil {
		u.PositionID = patch.PositionID
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}

	if err := s.store.UpdateUser(u); err != nil {
		return models.User{}, errors.Wrapf(err, "update user %d", id)
	}
	s.logger.Infof("Updated user %d", id)
	return u, nil
}

// SetPassword replaces an account's password hash.
func (s *DirectoryService) SetPassword(id int64, password string) error {
	if len(password) < 6 {
		return apperrors.NewValidationError("password", "password must be at least 6 characters")
	}
	if _, err := s.store.GetUser(id); err == storage.ErrNotFound {
		return apperrors.NewNotFoundError("user", id)
	} else if err != nil {
		return errors.Wrapf(err, "get user %d", id)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	if err := s.store.UpdateUserPassword(id, hash); err != nil {
		return errors.Wrapf(err, "set password of user %d", id)
	}
	s.logger.Infof("Password reset for user %d", id)
	return nil
}

func (s *DirectoryService) ListUsers() ([]models.User, error) {
	return s.store.ListUsers()
}

// CreateDepartment adds a department with a unique name.
func (s *DirectoryService) CreateDepartment(name string) (models.Department, error) {
	if strings.TrimSpace(name) == "" {
		return models.Department{}, apperrors.NewValidationError("name", "department name is required")
	}
	if _, err := s.store.GetDepartmentByName(name); err == nil {
		return models.Department{}, apperrors.NewConflictError(fmt.Sprintf("department %q already exists", name))
	} else if err != storage.ErrNotFound {
		return models.Department{}, errors.Wrapf(err, "check department name %q", name)
	}
	d := models.Department{Name: name}
	id, err := s.store.SaveDepartment(d)
	if err != nil {
		return models.Department{}, errors.Wrap(err, "save department")
	}
	d.ID = id
	return d, nil
}

func (s *DirectoryService) ListDepartments() ([]models.Department, error) {
	return s.store.ListDepartments()
}

// CreatePosition adds a position with a unique name.
func (s *DirectoryService) CreatePosition(name, description string) (models.Position, error) {
	if strings.TrimSpace(name) == "" {
		return models.Position{}, apperrors.NewValidationError("name", "position name is required")
	}
	if _, err := s.store.GetPositionByName(name); err == nil {
		return models.Position{}, apperrors.NewConflictError(fmt.Sprintf("position %q already exists", name))
	} else if err != storage.ErrNotFound {
		return models.Position{}, errors.Wrapf(err, "check position name %q", name)
	}
	p := models.Position{Name: name, Description: description}
	id, err := s.store.SavePosition(p)
	if err != nil {
		return models.Position{}, errors.Wrap(err, "save position")
	}
	p.ID = id
	return p, nil
}

func (s *DirectoryService) ListPositions() ([]models.Position, error) {
	return s.store.ListPositions()
}
