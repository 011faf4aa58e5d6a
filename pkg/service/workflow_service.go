package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/lemonhall/oa-mvp/pkg/apperrors"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/storage"
	"github.com/pkg/errors"
)

// WorkflowUpdate is a partial update; nil fields are left unchanged.
type WorkflowUpdate struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// WorkflowService administers workflow definitions and their nodes under the
// single-active-workflow-per-type invariant.
type WorkflowService struct {
	store  storage.Store
	logger Logger
}

func NewWorkflowService(store storage.Store, logger Logger) *WorkflowService {
	return &WorkflowService{store: store, logger: logger}
}

// ensureSingleActive rejects activating a workflow for a request type that
// already has a different active workflow.
func (s *WorkflowService) ensureSingleActive(st storage.Store, requestType string, excludeID int64) error {
	active, err := st.ListActiveWorkflowsByType(requestType)
	if err != nil {
		return errors.Wrapf(err, "list active workflows for type %q", requestType)
	}
	for _, w := range active {
		if w.ID != excludeID {
			return apperrors.NewConflictError(
				fmt.Sprintf("workflow %q is already active for type %q", w.Name, requestType))
		}
	}
	return nil
}

// Create registers a new workflow definition without nodes.
func (s *WorkflowService) Create(name, requestType string, isActive bool) (wf models.Workflow, err error) {
	if strings.TrimSpace(name) == "" {
		return models.Workflow{}, apperrors.NewValidationError("name", "workflow name is required")
	}
	if len(name) > 100 {
		return models.Workflow{}, apperrors.NewValidationError("name", "workflow name too long (max 100 characters)")
	}
	if strings.TrimSpace(requestType) == "" {
		return models.Workflow{}, apperrors.NewValidationError("request_type", "request type is required")
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return models.Workflow{}, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	if _, err = txStore.GetWorkflowByName(name); err == nil {
		return models.Workflow{}, apperrors.NewConflictError(fmt.Sprintf("workflow %q already exists", name))
	} else if err != storage.ErrNotFound {
		return models.Workflow{}, errors.Wrapf(err, "check workflow name %q", name)
	}
	err = nil

	if isActive {
		if err = s.ensureSingleActive(txStore, requestType, 0); err != nil {
			return models.Workflow{}, err
		}
	}

	wf = models.Workflow{
		Name:        name,
		RequestType: requestType,
		IsActive:    isActive,
		CreatedAt:   time.Now(),
	}
	wf.ID, err = txStore.SaveWorkflow(wf)
	if err != nil {
		return models.Workflow{}, errors.Wrap(err, "save workflow")
	}
	s.logger.Infof("Created workflow %q (type %s, active=%t) with ID %d", name, requestType, isActive, wf.ID)
	return wf, nil
}

// Get returns a workflow with its nodes in step order.
func (s *WorkflowService) Get(id int64) (models.Workflow, error) {
	wf, err := s.store.GetWorkflow(id)
	if err == storage.ErrNotFound {
		return models.Workflow{}, apperrors.NewNotFoundError("workflow", id)
	}
	if err != nil {
		return models.Workflow{}, errors.Wrapf(err, "get workflow %d", id)
	}
	wf.Nodes, err = s.store.ListWorkflowNodes(id)
	if err != nil {
		return models.Workflow{}, errors.Wrapf(err, "list nodes of workflow %d", id)
	}
	return wf, nil
}

// List returns workflows, optionally filtered by request type, each with its
// nodes loaded.
func (s *WorkflowService) List(requestType string) ([]models.Workflow, error) {
	wfs, err := s.store.ListWorkflows(requestType)
	if err != nil {
		return nil, errors.Wrap(err, "list workflows")
	}
	for i := range wfs {
		wfs[i].Nodes, err = s.store.ListWorkflowNodes(wfs[i].ID)
		if err != nil {
			return nil, errors.Wrapf(err, "list nodes of workflow %d", wfs[i].ID)
		}
	}
	return wfs, nil
}

// Update applies a partial update. Activation re-checks the
// single-active-per-type invariant.
func (s *WorkflowService) Update(id int64, patch WorkflowUpdate) (wf models.Workflow, err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return models.Workflow{}, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	wf, err = txStore.GetWorkflow(id)
	if err == storage.ErrNotFound {
		return models.Workflow{}, apperrors.NewNotFoundError("workflow", id)
	}
	if err != nil {
		return models.Workflow{}, errors.Wrapf(err, "get workflow %d", id)
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return models.Workflow{}, apperrors.NewValidationError("name", "workflow name is required")
		}
		wf.Name = *patch.Name
	}
	if patch.IsActive != nil {
		if *patch.IsActive && !wf.IsActive {
			if err = s.ensureSingleActive(txStore, wf.RequestType, wf.ID); err != nil {
				return models.Workflow{}, err
			}
		}
		wf.IsActive = *patch.IsActive
	}

	if err = txStore.UpdateWorkflow(wf); err != nil {
		return models.Workflow{}, errors.Wrapf(err, "update workflow %d", id)
	}
	wf.Nodes, err = txStore.ListWorkflowNodes(id)
	if err != nil {
		return models.Workflow{}, errors.Wrapf(err, "list nodes of workflow %d", id)
	}
	s.logger.Infof("Updated workflow %d (active=%t)", id, wf.IsActive)
	return wf, nil
}

// AddNode appends an approval step to a workflow. Step orders are unique
// within a workflow and the bound position must exist.
func (s *WorkflowService) AddNode(workflowID int64, stepOrder int, positionID int64, name string) (node models.WorkflowNode, err error) {
	if stepOrder <= 0 {
		return models.WorkflowNode{}, apperrors.NewValidationError("step_order", "step order must be positive")
	}
	if strings.TrimSpace(name) == "" {
		return models.WorkflowNode{}, apperrors.NewValidationError("name", "node name is required")
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return models.WorkflowNode{}, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	if _, err = txStore.GetWorkflow(workflowID); err == storage.ErrNotFound {
		return models.WorkflowNode{}, apperrors.NewNotFoundError("workflow", workflowID)
	} else if err != nil {
		return models.WorkflowNode{}, errors.Wrapf(err, "get workflow %d", workflowID)
	}
	if _, err = txStore.GetPosition(positionID); err == storage.ErrNotFound {
		return models.WorkflowNode{}, apperrors.NewNotFoundError("position", positionID)
	} else if err != nil {
		return models.WorkflowNode{}, errors.Wrapf(err, "get position %d", positionID)
	}

	existing, err := txStore.ListWorkflowNodes(workflowID)
	if err != nil {
		return models.WorkflowNode{}, errors.Wrapf(err, "list nodes of workflow %d", workflowID)
	}
	for _, n := range existing {
		if n.StepOrder == stepOrder {
			return models.WorkflowNode{}, apperrors.NewConflictError(
				fmt.Sprintf("workflow %d already has a node at step %d", workflowID, stepOrder))
		}
	}

	node = models.WorkflowNode{
		WorkflowID: workflowID,
		StepOrder:  stepOrder,
		PositionID: positionID,
		Name:       name,
	}
	node.ID, err = txStore.SaveWorkflowNode(node)
	if err != nil {
		return models.WorkflowNode{}, errors.Wrap(err, "save workflow node")
	}
	s.logger.Infof("Added node %d (step %d) to workflow %d", node.ID, stepOrder, workflowID)
	return node, nil
}

// RemoveNode deletes a node from a workflow. Nodes that requests still
// reference, either as their current node or through a ledger entry, cannot
// be removed.
func (s *WorkflowService) RemoveNode(workflowID, nodeID int64) error {
	err := s.store.DeleteWorkflowNode(workflowID, nodeID)
	if err == storage.ErrNotFound {
		return apperrors.NewNotFoundError("workflow node", nodeID)
	}
	if err == storage.ErrReferenced {
		return apperrors.NewConflictError(
			fmt.Sprintf("node %d is still referenced by existing requests", nodeID))
	}
	if err != nil {
		return errors.Wrapf(err, "delete node %d of workflow %d", nodeID, workflowID)
	}
	s.logger.Infof("Removed node %d from workflow %d", nodeID, workflowID)
	return nil
}
