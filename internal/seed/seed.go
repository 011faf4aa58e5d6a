package seed

import (
	"github.com/pkg/errors"

	"github.com/lemonhall/oa-mvp/pkg/auth"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/service"
	"github.com/lemonhall/oa-mvp/pkg/storage"
)

// Run bootstraps a fresh installation with default positions, accounts,
// process types and workflows. Existing entries (matched by unique name or
// code) are left alone so it can run on every startup.
func Run(store storage.Store, logger service.Logger) error {
	staff, err := ensurePosition(store, "Staff", "Default staff position")
	if err != nil {
		return err
	}
	manager, err := ensurePosition(store, "Manager", "Approves leave and reimbursement requests")
	if err != nil {
		return err
	}
	finance, err := ensurePosition(store, "Finance", "Approves reimbursement requests")
	if err != nil {
		return err
	}
	admin, err := ensurePosition(store, "Admin", "System administrators")
	if err != nil {
		return err
	}

	defaults := []struct {
		username string
		fullName string
		role     models.Role
		password string
		position int64
	}{
		{"admin", "Administrator", models.AdminRole, "admin123", admin},
		{"approver", "Approver", models.ApproverRole, "approver123", manager},
		{"finance", "Finance", models.EmployeeRole, "finance123", finance},
		{"employee", "Employee", models.EmployeeRole, "employee123", staff},
	}
	for _, d := range defaults {
		if err := ensureUser(store, d.username, d.fullName, d.role, d.password, d.position); err != nil {
			return err
		}
	}

	if err := ensureProcessType(store, models.ProcessType{
		Code:     "leave",
		Name:     "Leave",
		IsActive: true,
		Fields: []models.ProcessField{
			{Key: "start_date", Label: "Start date", Kind: models.DateField, Required: true},
			{Key: "end_date", Label: "End date", Kind: models.DateField, Required: true},
			{Key: "reason", Label: "Reason", Kind: models.TextareaField},
		},
	}); err != nil {
		return err
	}
	if err := ensureProcessType(store, models.ProcessType{
		Code:           "reimburse",
		Name:           "Reimbursement",
		RequiresAmount: true,
		IsActive:       true,
		Fields: []models.ProcessField{
			{Key: "category", Label: "Category", Kind: models.SelectField, Required: true,
				Options: []string{"travel", "meals", "office", "other"}},
			{Key: "expense_date", Label: "Expense date", Kind: models.DateField, Required: true},
		},
	}); err != nil {
		return err
	}

	if err := ensureWorkflow(store, "Default leave approval", "leave", []models.WorkflowNode{
		{StepOrder: 1, PositionID: manager, Name: "Manager review"},
	}); err != nil {
		return err
	}
	if err := ensureWorkflow(store, "Default reimbursement approval", "reimburse", []models.WorkflowNode{
		{StepOrder: 1, PositionID: manager, Name: "Manager review"},
		{StepOrder: 2, PositionID: finance, Name: "Finance review"},
	}); err != nil {
		return err
	}

	logger.Infof("Seed data is in place")
	return nil
}

func ensurePosition(store storage.Store, name, description string) (int64, error) {
	existing, err := store.GetPositionByName(name)
	if err == nil {
		return existing.ID, nil
	}
	if err != storage.ErrNotFound {
		return 0, errors.Wrapf(err, "look up position %q", name)
	}
	id, err := store.SavePosition(models.Position{Name: name, Description: description})
	if err != nil {
		return 0, errors.Wrapf(err, "seed position %q", name)
	}
	return id, nil
}

func ensureUser(store storage.Store, username, fullName string, role models.Role, password string, positionID int64) error {
	if _, err := store.GetUserByUsername(username); err == nil {
		return nil
	} else if err != storage.ErrNotFound {
		return errors.Wrapf(err, "look up user %q", username)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Wrapf(err, "hash password of %q", username)
	}
	_, err = store.SaveUser(models.User{
		Username:     username,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		PositionID:   &positionID,
	})
	if err != nil {
		return errors.Wrapf(err, "seed user %q", username)
	}
	return nil
}

func ensureProcessType(store storage.Store, pt models.ProcessType) error {
	if _, err := store.GetProcessTypeByCode(pt.Code); err == nil {
		return nil
	} else if err != storage.ErrNotFound {
		return errors.Wrapf(err, "look up process type %q", pt.Code)
	}
	if err := pt.EncodeFields(); err != nil {
		return errors.Wrapf(err, "encode fields of %q", pt.Code)
	}
	if _, err := store.SaveProcessType(pt); err != nil {
		return errors.Wrapf(err, "seed process type %q", pt.Code)
	}
	return nil
}

func ensureWorkflow(store storage.Store, name, requestType string, nodes []models.WorkflowNode) error {
	if _, err := store.GetWorkflowByName(name); err == nil {
		return nil
	} else if err != storage.ErrNotFound {
		return errors.Wrapf(err, "look up workflow %q", name)
	}
	wf := models.Workflow{Name: name, RequestType: requestType, IsActive: true}
	id, err := store.SaveWorkflow(wf)
	if err != nil {
		return errors.Wrapf(err, "seed workflow %q", name)
	}
	for _, n := range nodes {
		n.WorkflowID = id
		if _, err := store.SaveWorkflowNode(n); err != nil {
			return errors.Wrapf(err, "seed node %q of workflow %q", n.Name, name)
		}
	}
	return nil
}
