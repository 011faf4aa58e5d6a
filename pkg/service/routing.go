package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/lemonhall/oa-mvp/pkg/apperrors"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/storage"
	"github.com/pkg/errors"
)

// Logger defines the logging interface the services depend on.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// ResolveActiveWorkflow returns the single active workflow for a request
// type, or nil when none is configured. Two simultaneously active workflows
// for one type is a configuration error and surfaces as a ConflictError
// rather than an arbitrary pick.
func ResolveActiveWorkflow(st storage.Store, requestType string) (*models.Workflow, error) {
	active, err := st.ListActiveWorkflowsByType(requestType)
	if err != nil {
		return nil, errors.Wrapf(err, "list active workflows for type %q", requestType)
	}
	switch len(active) {
	case 0:
		return nil, nil
	case 1:
		return &active[0], nil
	default:
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("%d workflows are active for type %q; exactly one is allowed", len(active), requestType))
	}
}

// FirstNode returns the node with the smallest step order, or nil for an
// empty node list.
func FirstNode(nodes []models.WorkflowNode) *models.WorkflowNode {
	sorted := sortedNodes(nodes)
	if len(sorted) == 0 {
		return nil
	}
	return &sorted[0]
}

// NextNode returns the node with the smallest step order strictly greater
// than the current node's, or nil when the current node is the last one.
func NextNode(nodes []models.WorkflowNode, current models.WorkflowNode) *models.WorkflowNode {
	sorted := sortedNodes(nodes)
	for i := range sorted {
		if sorted[i].StepOrder > current.StepOrder {
			return &sorted[i]
		}
	}
	return nil
}

func sortedNodes(nodes []models.WorkflowNode) []models.WorkflowNode {
	sorted := make([]models.WorkflowNode, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StepOrder < sorted[j].StepOrder })
	return sorted
}

// SuggestAssignee picks the active user with the lowest id bound to the
// position, excluding excludeUserID (usually the submitter, so a submitter
// holding the target position is not suggested to approve their own
// request). The result is a UI hint only; authorization happens at decision
// time against the live directory.
func SuggestAssignee(st storage.Store, positionID, excludeUserID int64) (*int64, error) {
	users, err := st.ListActiveUsersByPosition(positionID)
	if err != nil {
		return nil, errors.Wrapf(err, "list active users for position %d", positionID)
	}
	for _, u := range users {
		if u.ID == excludeUserID {
			continue
		}
		id := u.ID
		return &id, nil
	}
	return nil, nil
}

// CanDecide reports whether the user may decide a request parked at the
// given node: administrators always may, everyone else must currently hold
// the node's position.
func CanDecide(user models.User, node models.WorkflowNode) bool {
	if user.IsAdmin() {
		return true
	}
	return user.HoldsPosition(node.PositionID)
}

// ApplyDecision runs the core transition for one decision. It must be called
// with a transactional store holding a lock on the request row. The request
// must be pending at exactly the given node; the decision is appended to the
// ledger and the request either advances to the next node or reaches a
// terminal status.
func ApplyDecision(st storage.Store, req models.Request, node models.WorkflowNode, user models.User, decision models.Decision, comment string) (models.Request, error) {
	if req.Status != models.PendingRequestStatus {
		return models.Request{}, apperrors.NewInvalidStateError(
			fmt.Sprintf("request %d is already %s", req.ID, req.Status))
	}
	if req.CurrentNodeID == nil || *req.CurrentNodeID != node.ID {
		return models.Request{}, apperrors.NewInvalidStateError(
			fmt.Sprintf("request %d is not waiting at node %d", req.ID, node.ID))
	}

	nodeID := node.ID
	if _, err := st.SaveApproval(models.Approval{
		RequestID:      req.ID,
		WorkflowNodeID: &nodeID,
		ApproverUserID: user.ID,
		Decision:       decision,
		Comment:        comment,
		DecidedAt:      time.Now(),
	}); err != nil {
		return models.Request{}, errors.Wrapf(err, "append approval for request %d", req.ID)
	}

	if decision == models.RejectedDecision {
		req.Status = models.RejectedRequestStatus
		req.CurrentNodeID = nil
		req.ApproverUserID = nil
	} else {
		nodes, err := st.ListWorkflowNodes(node.WorkflowID)
		if err != nil {
			return models.Request{}, errors.Wrapf(err, "list nodes of workflow %d", node.WorkflowID)
		}
		next := NextNode(nodes, node)
		if next == nil {
			req.Status = models.ApprovedRequestStatus
			req.CurrentNodeID = nil
			req.ApproverUserID = nil
		} else {
			req.CurrentNodeID = &next.ID
			assignee, err := SuggestAssignee(st, next.PositionID, req.CreatedByUserID)
			if err != nil {
				return models.Request{}, err
			}
			req.ApproverUserID = assignee
		}
	}

	if err := st.UpdateRequestState(req); err != nil {
		return models.Request{}, errors.Wrapf(err, "update state of request %d", req.ID)
	}
	return req, nil
}
