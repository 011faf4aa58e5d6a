package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lemonhall/oa-mvp/pkg/apperrors"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/service"
	"github.com/lemonhall/oa-mvp/pkg/storage"
)

func TestProcessTypeCreate(t *testing.T) {
	newService := func() *service.ProcessService {
		return service.NewProcessService(storage.NewMockStore(), logger{})
	}

	t.Run("CreateWithFields", func(t *testing.T) {
		svc := newService()
		pt, err := svc.Create(models.ProcessType{
			Code:     "leave",
			Name:     "Leave",
			IsActive: true,
			Fields: []models.ProcessField{
				{Key: "start_date", Label: "Start date", Kind: models.DateField, Required: true},
				{Key: "reason", Label: "Reason", Kind: models.TextareaField},
			},
		})
		assert.NoError(t, err)
		assert.NotZero(t, pt.ID)

		items, err := svc.List(false)
		assert.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Len(t, items[0].Fields, 2)
		assert.Equal(t, "start_date", items[0].Fields[0].Key)
		assert.True(t, items[0].Fields[0].Required)
	})

	t.Run("BadCodes", func(t *testing.T) {
		svc := newService()
		for _, code := range []string{"", "X", "Leave", "1leave", "leave request", "a"} {
			_, err := svc.Create(models.ProcessType{Code: code, Name: "Leave"})
			assert.Error(t, err, "code %q should be rejected", code)
			assert.Equal(t, 400, apperrors.StatusOf(err))
		}
	})

	t.Run("DuplicateCode", func(t *testing.T) {
		svc := newService()
		_, err := svc.Create(models.ProcessType{Code: "leave", Name: "Leave"})
		assert.NoError(t, err)
		_, err = svc.Create(models.ProcessType{Code: "leave", Name: "Leave again"})
		assert.Error(t, err)
		assert.Equal(t, 409, apperrors.StatusOf(err))
	})

	t.Run("UnknownFieldKind", func(t *testing.T) {
		svc := newService()
		_, err := svc.Create(models.ProcessType{
			Code: "leave", Name: "Leave",
			Fields: []models.ProcessField{{Key: "x", Label: "X", Kind: "checkbox"}},
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "checkbox")
	})

	t.Run("SelectFieldNeedsOptions", func(t *testing.T) {
		svc := newService()
		_, err := svc.Create(models.ProcessType{
			Code: "reimburse", Name: "Reimbursement",
			Fields: []models.ProcessField{{Key: "category", Label: "Category", Kind: models.SelectField}},
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "options")
	})
}

func TestProcessTypeList(t *testing.T) {
	store := storage.NewMockStore()
	svc := service.NewProcessService(store, logger{})

	_, err := svc.Create(models.ProcessType{Code: "leave", Name: "Leave", IsActive: true})
	assert.NoError(t, err)
	_, err = svc.Create(models.ProcessType{Code: "old_flow", Name: "Old flow", IsActive: false})
	assert.NoError(t, err)

	active, err := svc.List(false)
	assert.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, "leave", active[0].Code)

	all, err := svc.List(true)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProcessTypeUpdate(t *testing.T) {
	boolPtr := func(v bool) *bool { return &v }
	strPtr := func(v string) *string { return &v }

	store := storage.NewMockStore()
	svc := service.NewProcessService(store, logger{})

	pt, err := svc.Create(models.ProcessType{
		Code: "reimburse", Name: "Reimbursement", IsActive: true,
		Fields: []models.ProcessField{
			{Key: "category", Label: "Category", Kind: models.SelectField, Required: true, Options: []string{"travel"}},
		},
	})
	assert.NoError(t, err)

	t.Run("PartialUpdate", func(t *testing.T) {
		updated, err := svc.Update(pt.ID, service.ProcessTypeUpdate{
			Name:           strPtr("Expense reimbursement"),
			RequiresAmount: boolPtr(true),
		})
		assert.NoError(t, err)
		assert.Equal(t, "Expense reimbursement", updated.Name)
		assert.True(t, updated.RequiresAmount)
		// Untouched fields survive.
		assert.Len(t, updated.Fields, 1)
		assert.Equal(t, "category", updated.Fields[0].Key)
	})

	t.Run("ReplaceFieldsPreservesOrder", func(t *testing.T) {
		updated, err := svc.Update(pt.ID, service.ProcessTypeUpdate{
			Fields: []models.ProcessField{
				{Key: "expense_date", Label: "Expense date", Kind: models.DateField, Required: true},
				{Key: "category", Label: "Category", Kind: models.SelectField, Required: true, Options: []string{"travel"}},
			},
		})
		assert.NoError(t, err)
		assert.Len(t, updated.Fields, 2)
		assert.Equal(t, "expense_date", updated.Fields[0].Key)
		assert.Equal(t, "category", updated.Fields[1].Key)
	})

	t.Run("Deactivate", func(t *testing.T) {
		updated, err := svc.Update(pt.ID, service.ProcessTypeUpdate{IsActive: boolPtr(false)})
		assert.NoError(t, err)
		assert.False(t, updated.IsActive)
	})

	t.Run("MissingProcessType", func(t *testing.T) {
		_, err := svc.Update(404, service.ProcessTypeUpdate{Name: strPtr("x")})
		assert.Error(t, err)
		assert.Equal(t, 404, apperrors.StatusOf(err))
	})
}
