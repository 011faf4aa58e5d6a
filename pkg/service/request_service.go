package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lemonhall/oa-mvp/pkg/apperrors"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/storage"
	"github.com/pkg/errors"
)

// CreateRequestInput carries a new submission.
type CreateRequestInput struct {
	Type    string                 `json:"type"`
	Title   string                 `json:"title"`
	Content string                 `json:"content"`
	Amount  *float64               `json:"amount"`
	Form    map[string]interface{} `json:"form"`
}

// NodeTrailEntry is the reconstructed state of one workflow node of a
// request: its terminal decision if one was recorded, "pending" while the
// request is parked there, "not_started" otherwise.
type NodeTrailEntry struct {
	NodeID            int64      `json:"node_id"`
	StepOrder         int        `json:"step_order"`
	NodeName          string     `json:"node_name"`
	PositionID        int64      `json:"position_id"`
	PositionName      string     `json:"position_name"`
	Status            string     `json:"status"`
	DecidedByUserID   *int64     `json:"decided_by_user_id,omitempty"`
	DecidedByUsername string     `json:"decided_by_username,omitempty"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`
	Comment           string     `json:"comment,omitempty"`
}

// HistoryEntry is one ledger record joined with the deciding user and the
// node it resolved, ordered by ledger id for audit display.
type HistoryEntry struct {
	ID               int64           `json:"id"`
	WorkflowNodeID   *int64          `json:"workflow_node_id"`
	StepOrder        *int            `json:"step_order"`
	NodeName         *string         `json:"node_name"`
	PositionID       *int64          `json:"position_id"`
	PositionName     *string         `json:"position_name"`
	ApproverUserID   int64           `json:"approver_user_id"`
	ApproverUsername string          `json:"approver_username"`
	Decision         models.Decision `json:"decision"`
	Comment          string          `json:"comment"`
	DecidedAt        time.Time       `json:"decided_at"`
}

// RequestDetail is the full display view of a request.
type RequestDetail struct {
	Request      models.Request         `json:"request"`
	WorkflowName *string                `json:"workflow_name"`
	Nodes        []NodeTrailEntry       `json:"nodes"`
	History      []HistoryEntry         `json:"history"`
	Form         map[string]interface{} `json:"form"`
}

// RequestService owns the request lifecycle: creation, visibility, decision
// handling and history reconstruction.
type RequestService struct {
	store  storage.Store
	logger Logger
}

func NewRequestService(store storage.Store, logger Logger) *RequestService {
	return &RequestService{store: store, logger: logger}
}

// Create validates a submission against its process type, resolves the
// active workflow and parks the new request at the first node.
func (s *RequestService) Create(input CreateRequestInput, creator models.User) (req models.Request, err error) {
	pt, err := s.store.GetProcessTypeByCode(input.Type)
	if err == storage.ErrNotFound {
		return models.Request{}, apperrors.NewValidationError("type", fmt.Sprintf("unknown request type %q", input.Type))
	}
	if err != nil {
		return models.Request{}, errors.Wrapf(err, "load process type %q", input.Type)
	}
	if !pt.IsActive {
		return models.Request{}, apperrors.NewValidationError("type", fmt.Sprintf("request type %q is disabled", input.Type))
	}
	if strings.TrimSpace(input.Title) == "" {
		return models.Request{}, apperrors.NewValidationError("title", "title is required")
	}
	if pt.RequiresAmount && input.Amount == nil {
		return models.Request{}, apperrors.NewValidationError("amount", fmt.Sprintf("request type %q requires an amount", input.Type))
	}
	pt.DecodeFields()
	if err := validateForm(pt.Fields, input.Form); err != nil {
		return models.Request{}, err
	}

	wf, err := ResolveActiveWorkflow(s.store, input.Type)
	if err != nil {
		return models.Request{}, err
	}
	if wf == nil {
		return models.Request{}, apperrors.NewValidationError("type", fmt.Sprintf("no active workflow for type %q", input.Type))
	}
	nodes, err := s.store.ListWorkflowNodes(wf.ID)
	if err != nil {
		return models.Request{}, errors.Wrapf(err, "list nodes of workflow %d", wf.ID)
	}
	first := FirstNode(nodes)
	if first == nil {
		return models.Request{}, apperrors.NewValidationError("type", fmt.Sprintf("workflow %q has no nodes", wf.Name))
	}

	formJSON := "{}"
	if input.Form != nil {
		raw, err := json.Marshal(input.Form)
		if err != nil {
			return models.Request{}, apperrors.NewValidationError("form", "form data is not serializable")
		}
		formJSON = string(raw)
	}

	assignee, err := SuggestAssignee(s.store, first.PositionID, creator.ID)
	if err != nil {
		return models.Request{}, err
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return models.Request{}, err
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

	now := time.Now()
	req = models.Request{
		Type:            input.Type,
		Title:           input.Title,
		Content:         input.Content,
		Amount:          input.Amount,
		FormJSON:        formJSON,
		Status:          models.PendingRequestStatus,
		WorkflowID:      &wf.ID,
		CurrentNodeID:   &first.ID,
		CreatedByUserID: creator.ID,
		ApproverUserID:  assignee,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	req.ID, err = txStore.SaveRequest(req)
	if err != nil {
		return models.Request{}, errors.Wrap(err, "save request")
	}
	s.logger.Infof("Created %s request %d at node %d for user %d", req.Type, req.ID, first.ID, creator.ID)
	return req, nil
}

func validateForm(fields []models.ProcessField, form map[string]interface{}) error {
	for _, f := range fields {
		if !f.Required {
			continue
		}
		value, ok := form[f.Key]
		if !ok || value == nil {
			return apperrors.NewValidationError(f.Key, fmt.Sprintf("field %q is required", f.Key))
		}
		if str, isString := value.(string); isString && strings.TrimSpace(str) == "" {
			return apperrors.NewValidationError(f.Key, fmt.Sprintf("field %q must not be blank", f.Key))
		}
	}
	return nil
}

// CanView applies the visibility rule: administrators see everything, the
// creator sees their own, and anyone else sees a request only while it is
// pending at a node whose position they currently hold.
func (s *RequestService) CanView(req models.Request, viewer models.User) bool {
	if viewer.IsAdmin() || req.CreatedByUserID == viewer.ID {
		return true
	}
	if req.Status != models.PendingRequestStatus || req.CurrentNodeID == nil || viewer.PositionID == nil {
		return false
	}
	node, err := s.store.GetWorkflowNode(*req.CurrentNodeID)
	if err != nil {
		return false
	}
	return node.PositionID == *viewer.PositionID
}

// Get returns a request if the viewer may see it.
func (s *RequestService) Get(id int64, viewer models.User) (models.Request, error) {
	req, err := s.store.GetRequest(id)
	if err == storage.ErrNotFound {
		return models.Request{}, apperrors.NewNotFoundError("request", id)
	}
	if err != nil {
		return models.Request{}, errors.Wrapf(err, "get request %d", id)
	}
	if !s.CanView(req, viewer) {
		return models.Request{}, apperrors.NewForbiddenError("view this request")
	}
	return req, nil
}

// ListMine returns the viewer's own requests, newest first.
func (s *RequestService) ListMine(viewer models.User) ([]models.Request, error) {
	return s.store.ListRequestsByCreator(viewer.ID)
}

// ListForViewer restricts the listing by role: admins see everything,
// position holders see their own plus requests parked at their position,
// everyone else sees only their own.
func (s *RequestService) ListForViewer(viewer models.User) ([]models.Request, error) {
	if viewer.IsAdmin() {
		return s.store.ListRequests()
	}
	own, err := s.store.ListRequestsByCreator(viewer.ID)
	if err != nil {
		return nil, err
	}
	if viewer.PositionID == nil {
		return own, nil
	}
	parked, err := s.store.ListPendingRequestsByPosition(*viewer.PositionID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(own))
	for _, r := range own {
		seen[r.ID] = struct{}{}
	}
	out := own
	for _, r := range parked {
		if _, dup := seen[r.ID]; !dup {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListPending returns the approval inbox: for admins every pending request,
// for others the pending requests parked at their position.
func (s *RequestService) ListPending(viewer models.User) ([]models.Request, error) {
	if viewer.IsAdmin() {
		return s.store.ListPendingRequests()
	}
	if viewer.PositionID == nil {
		return []models.Request{}, nil
	}
	return s.store.ListPendingRequestsByPosition(*viewer.PositionID)
}

// Decide records one decision on a pending request. The read of the current
// state, the ledger append and the state update run in a single transaction
// with the request row locked, so concurrent decisions cannot both advance
// the request.
func (s *RequestService) Decide(requestID int64, user models.User, decision models.Decision, comment string) (req models.Request, err error) {
	if decision != models.ApprovedDecision && decision != models.RejectedDecision {
		return models.Request{}, apperrors.NewValidationError("decision", fmt.Sprintf("unknown decision %q", decision))
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return models.Request{}, err
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

	req, err = txStore.GetRequestForUpdate(requestID)
	if err == storage.ErrNotFound {
		return models.Request{}, apperrors.NewNotFoundError("request", requestID)
	}
	if err != nil {
		return models.Request{}, errors.Wrapf(err, "get request %d", requestID)
	}
	if req.Status != models.PendingRequestStatus {
		return models.Request{}, apperrors.NewInvalidStateError(fmt.Sprintf("request %d is already %s", req.ID, req.Status))
	}
	if req.CurrentNodeID == nil {
		return models.Request{}, apperrors.NewInvalidStateError(fmt.Sprintf("request %d has no current approval node", req.ID))
	}

	node, err := txStore.GetWorkflowNode(*req.CurrentNodeID)
	if err != nil {
		return models.Request{}, errors.Wrapf(err, "load current node %d of request %d", *req.CurrentNodeID, req.ID)
	}
	if !CanDecide(user, node) {
		return models.Request{}, apperrors.NewForbiddenError("decide this request")
	}

	req, err = ApplyDecision(txStore, req, node, user, decision, comment)
	if err != nil {
		return models.Request{}, err
	}
	s.logger.Infof("User %d decided %s on request %d (now %s)", user.ID, decision, req.ID, req.Status)
	return req, nil
}

// Detail reconstructs the per-node trail and the flattened approval history
// of a request. The trail is derived by indexing ledger entries by node id,
// so it is deterministic regardless of ledger insertion order.
func (s *RequestService) Detail(id int64, viewer models.User) (RequestDetail, error) {
	req, err := s.Get(id, viewer)
	if err != nil {
		return RequestDetail{}, err
	}

	detail := RequestDetail{
		Request: req,
		Nodes:   []NodeTrailEntry{},
		History: []HistoryEntry{},
		Form:    map[string]interface{}{},
	}
	if req.FormJSON != "" {
		if err := json.Unmarshal([]byte(req.FormJSON), &detail.Form); err != nil {
			s.logger.Errorf("Request %d carries unreadable form data: %v", req.ID, err)
		}
	}
	if req.WorkflowID == nil {
		return detail, nil
	}

	wf, err := s.store.GetWorkflow(*req.WorkflowID)
	if err != nil && err != storage.ErrNotFound {
		return RequestDetail{}, errors.Wrapf(err, "get workflow %d", *req.WorkflowID)
	}
	if err == nil {
		detail.WorkflowName = &wf.Name
	}

	nodes, err := s.store.ListWorkflowNodes(*req.WorkflowID)
	if err != nil {
		return RequestDetail{}, errors.Wrapf(err, "list nodes of workflow %d", *req.WorkflowID)
	}
	approvals, err := s.store.ListApprovalsByRequest(req.ID)
	if err != nil {
		return RequestDetail{}, errors.Wrapf(err, "list approvals of request %d", req.ID)
	}

	byNode := make(map[int64]models.Approval, len(approvals))
	for _, a := range approvals {
		if a.WorkflowNodeID != nil {
			byNode[*a.WorkflowNodeID] = a
		}
	}

	positionName := func(positionID int64) string {
		pos, err := s.store.GetPosition(positionID)
		if err != nil {
			return ""
		}
		return pos.Name
	}
	username := func(userID int64) string {
		u, err := s.store.GetUser(userID)
		if err != nil {
			return ""
		}
		return u.Username
	}

	for _, n := range sortedNodes(nodes) {
		entry := NodeTrailEntry{
			NodeID:       n.ID,
			StepOrder:    n.StepOrder,
			NodeName:     n.Name,
			PositionID:   n.PositionID,
			PositionName: positionName(n.PositionID),
		}
		if a, decided := byNode[n.ID]; decided {
			decidedAt := a.DecidedAt
			approverID := a.ApproverUserID
			entry.Status = string(a.Decision)
			entry.DecidedByUserID = &approverID
			entry.DecidedByUsername = username(a.ApproverUserID)
			entry.DecidedAt = &decidedAt
			entry.Comment = a.Comment
		} else if req.Status == models.PendingRequestStatus && req.CurrentNodeID != nil && *req.CurrentNodeID == n.ID {
			entry.Status = "pending"
		} else {
			entry.Status = "not_started"
		}
		detail.Nodes = append(detail.Nodes, entry)
	}

	for _, a := range approvals {
		item := HistoryEntry{
			ID:               a.ID,
			WorkflowNodeID:   a.WorkflowNodeID,
			ApproverUserID:   a.ApproverUserID,
			ApproverUsername: username(a.ApproverUserID),
			Decision:         a.Decision,
			Comment:          a.Comment,
			DecidedAt:        a.DecidedAt,
		}
		if a.WorkflowNodeID != nil {
			if node, err := s.store.GetWorkflowNode(*a.WorkflowNodeID); err == nil {
				step := node.StepOrder
				name := node.Name
				posID := node.PositionID
				posName := positionName(node.PositionID)
				item.StepOrder = &step
				item.NodeName = &name
				item.PositionID = &posID
				item.PositionName = &posName
			}
		}
		detail.History = append(detail.History, item)
	}

	return detail, nil
}
