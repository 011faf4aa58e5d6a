package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lemonhall/oa-mvp/pkg/apperrors"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/storage"
	"github.com/pkg/errors"
)

var processCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,49}$`)

var fieldKinds = map[string]bool{
	models.TextField:     true,
	models.TextareaField: true,
	models.NumberField:   true,
	models.DateField:     true,
	models.DatetimeField: true,
	models.SelectField:   true,
}

// ProcessTypeUpdate is a partial update; nil fields are left unchanged.
type ProcessTypeUpdate struct {
	Name           *string               `json:"name"`
	Description    *string               `json:"description"`
	RequiresAmount *bool                 `json:"requires_amount"`
	IsActive       *bool                 `json:"is_active"`
	Fields         []models.ProcessField `json:"fields"`
}

// ProcessService administers the process catalog: the request types users
// may submit and the form schema each submission must satisfy.
type ProcessService struct {
	store  storage.Store
	logger Logger
}

func NewProcessService(store storage.Store, logger Logger) *ProcessService {
	return &ProcessService{store: store, logger: logger}
}

func validateFields(fields []models.ProcessField) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Key) == "" {
			return apperrors.NewValidationError("fields", "field key is required")
		}
		if strings.TrimSpace(f.Label) == "" {
			return apperrors.NewValidationError("fields", fmt.Sprintf("field %q needs a label", f.Key))
		}
		if !fieldKinds[f.Kind] {
			return apperrors.NewValidationError("fields", fmt.Sprintf("field %q has unknown type %q", f.Key, f.Kind))
		}
		if f.Kind == models.SelectField && len(f.Options) == 0 {
			return apperrors.NewValidationError("fields", fmt.Sprintf("select field %q needs options", f.Key))
		}
	}
	return nil
}

// Create registers a new process type with its field schema.
func (s *ProcessService) Create(pt models.ProcessType) (models.ProcessType, error) {
	if !processCodePattern.MatchString(pt.Code) {
		return models.ProcessType{}, apperrors.NewValidationError("code", "code must match ^[a-z][a-z0-9_]{1,49}$")
	}
	if strings.TrimSpace(pt.Name) == "" {
		return models.ProcessType{}, apperrors.NewValidationError("name", "name is required")
	}
	if err := validateFields(pt.Fields); err != nil {
		return models.ProcessType{}, err
	}
	if err := pt.EncodeFields(); err != nil {
		return models.ProcessType{}, apperrors.NewValidationError("fields", "fields are not serializable")
	}

	if _, err := s.store.GetProcessTypeByCode(pt.Code); err == nil {
		return models.ProcessType{}, apperrors.NewConflictError(fmt.Sprintf("process type %q already exists", pt.Code))
	} else if err != storage.ErrNotFound {
		return models.ProcessType{}, errors.Wrapf(err, "check process type code %q", pt.Code)
	}

	id, err := s.store.SaveProcessType(pt)
	if err != nil {
		return models.ProcessType{}, errors.Wrap(err, "save process type")
	}
	pt.ID = id
	s.logger.Infof("Created process type %q with ID %d", pt.Code, pt.ID)
	return pt, nil
}

// List returns process types; non-admin callers get only active ones.
func (s *ProcessService) List(includeInactive bool) ([]models.ProcessType, error) {
	items, err := s.store.ListProcessTypes(!includeInactive)
	if err != nil {
		return nil, errors.Wrap(err, "list process types")
	}
	for i := range items {
		items[i].DecodeFields()
	}
	return items, nil
}

// Update applies a partial update to a process type. Replacing the field
// list preserves the given order exactly.
func (s *ProcessService) Update(id int64, patch ProcessTypeUpdate) (models.ProcessType, error) {
	pt, err := s.store.GetProcessType(id)
	if err == storage.ErrNotFound {
		return models.ProcessType{}, apperrors.NewNotFoundError("process type", id)
	}
	if err != nil {
		return models.ProcessType{}, errors.Wrapf(err, "get process type %d", id)
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return models.ProcessType{}, apperrors.NewValidationError("name", "name is required")
		}
		pt.Name = *patch.Name
	}
	if patch.Description != nil {
		pt.Description = *patch.Description
	}
	if patch.RequiresAmount != nil {
		pt.RequiresAmount = *patch.RequiresAmount
	}
	if patch.IsActive != nil {
		pt.IsActive = *patch.IsActive
	}
	if patch.Fields != nil {
		if err := validateFields(patch.Fields); err != nil {
			return models.ProcessType{}, err
		}
		pt.Fields = patch.Fields
		if err := pt.EncodeFields(); err != nil {
			return models.ProcessType{}, apperrors.NewValidationError("fields", "fields are not serializable")
		}
	}

	if err := s.store.UpdateProcessType(pt); err != nil {
		return models.ProcessType{}, errors.Wrapf(err, "update process type %d", id)
	}
	pt.DecodeFields()
	s.logger.Infof("Updated process type %q", pt.Code)
	return pt, nil
}
