package storage

import (
	"sort"
	"time"

	"github.com/lemonhall/oa-mvp/pkg/models"
)

// mockStore implements Store with in-memory slices for unit tests.
type mockStore struct {
	users         []models.User
	departments   []models.Department
	positions     []models.Position
	processTypes  []models.ProcessType
	workflows     []models.Workflow
	nodes         []models.WorkflowNode
	requests      []models.Request
	approvals     []models.Approval
	announcements []models.Announcement
	nextID        int64
}

// NewMockStore returns an empty in-memory Store.
func NewMockStore() Store {
	return &mockStore{}
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

// Begin returns the store itself: unit tests exercise service logic, not
// transaction isolation, so writes are applied immediately.
func (m *mockStore) Begin() (Store, error) { return m, nil }
func (m *mockStore) Commit() error         { return nil }
func (m *mockStore) Rollback() error       { return nil }
func (m *mockStore) Close() error          { return nil }

func (m *mockStore) SaveUser(u models.User) (int64, error) {
	u.ID = m.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users = append(m.users, u)
	return u.ID, nil
}

func (m *mockStore) GetUser(id int64) (models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *mockStore) GetUserByUsername(username string) (models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *mockStore) ListUsers() ([]models.User, error) {
	out := make([]models.User, len(m.users))
	copy(out, m.users)
	return out, nil
}

func (m *mockStore) UpdateUser(u models.User) error {
	for i := range m.users {
		if m.users[i].ID == u.ID {
			m.users[i] = u
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) UpdateUserPassword(id int64, passwordHash string) error {
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].PasswordHash = passwordHash
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) ListActiveUsersByPosition(positionID int64) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.IsActive && u.PositionID != nil && *u.PositionID == positionID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) SaveDepartment(d models.Department) (int64, error) {
	d.ID = m.id()
	m.departments = append(m.departments, d)
	return d.ID, nil
}

func (m *mockStore) GetDepartmentByName(name string) (models.Department, error) {
	for _, d := range m.departments {
		if d.Name == name {
			return d, nil
		}
	}
	return models.Department{}, ErrNotFound
}

func (m *mockStore) ListDepartments() ([]models.Department, error) {
	out := make([]models.Department, len(m.departments))
	copy(out, m.departments)
	return out, nil
}

func (m *mockStore) SavePosition(p models.Position) (int64, error) {
	p.ID = m.id()
	m.positions = append(m.positions, p)
	return p.ID, nil
}

func (m *mockStore) GetPosition(id int64) (models.Position, error) {
	for _, p := range m.positions {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Position{}, ErrNotFound
}

func (m *mockStore) GetPositionByName(name string) (models.Position, error) {
	for _, p := range m.positions {
		if p.Name == name {
			return p, nil
		}
	}
	return models.Position{}, ErrNotFound
}

func (m *mockStore) ListPositions() ([]models.Position, error) {
	out := make([]models.Position, len(m.positions))
	copy(out, m.positions)
	return out, nil
}

func (m *mockStore) SaveProcessType(p models.ProcessType) (int64, error) {
	p.ID = m.id()
	m.processTypes = append(m.processTypes, p)
	return p.ID, nil
}

func (m *mockStore) GetProcessType(id int64) (models.ProcessType, error) {
	for _, p := range m.processTypes {
		if p.ID == id {
			return p, nil
		}
	}
	return models.ProcessType{}, ErrNotFound
}

func (m *mockStore) GetProcessTypeByCode(code string) (models.ProcessType, error) {
	for _, p := range m.processTypes {
		if p.Code == code {
			return p, nil
		}
	}
	return models.ProcessType{}, ErrNotFound
}

func (m *mockStore) ListProcessTypes(activeOnly bool) ([]models.ProcessType, error) {
	var out []models.ProcessType
	for _, p := range m.processTypes {
		if !activeOnly || p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateProcessType(p models.ProcessType) error {
	for i := range m.processTypes {
		if m.processTypes[i].ID == p.ID {
			m.processTypes[i] = p
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) SaveWorkflow(w models.Workflow) (int64, error) {
	w.ID = m.id()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	w.Nodes = nil
	m.workflows = append(m.workflows, w)
	return w.ID, nil
}

func (m *mockStore) GetWorkflow(id int64) (models.Workflow, error) {
	for _, w := range m.workflows {
		if w.ID == id {
			return w, nil
		}
	}
	return models.Workflow{}, ErrNotFound
}

func (m *mockStore) GetWorkflowByName(name string) (models.Workflow, error) {
	for _, w := range m.workflows {
		if w.Name == name {
			return w, nil
		}
	}
	return models.Workflow{}, ErrNotFound
}

func (m *mockStore) ListWorkflows(requestType string) ([]models.Workflow, error) {
	var out []models.Workflow
	for _, w := range m.workflows {
		if requestType == "" || w.RequestType == requestType {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockStore) ListActiveWorkflowsByType(requestType string) ([]models.Workflow, error) {
	var out []models.Workflow
	for _, w := range m.workflows {
		if w.IsActive && w.RequestType == requestType {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) UpdateWorkflow(w models.Workflow) error {
	for i := range m.workflows {
		if m.workflows[i].ID == w.ID {
			w.Nodes = nil
			m.workflows[i] = w
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) SaveWorkflowNode(n models.WorkflowNode) (int64, error) {
	n.ID = m.id()
	m.nodes = append(m.nodes, n)
	return n.ID, nil
}

func (m *mockStore) GetWorkflowNode(id int64) (models.WorkflowNode, error) {
	for _, n := range m.nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return models.WorkflowNode{}, ErrNotFound
}

func (m *mockStore) ListWorkflowNodes(workflowID int64) ([]models.WorkflowNode, error) {
	var out []models.WorkflowNode
	for _, n := range m.nodes {
		if n.WorkflowID == workflowID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepOrder < out[j].StepOrder })
	return out, nil
}

func (m *mockStore) DeleteWorkflowNode(workflowID, nodeID int64) error {
	for i, n := range m.nodes {
		if n.ID == nodeID && n.WorkflowID == workflowID {
			for _, r := range m.requests {
				if r.CurrentNodeID != nil && *r.CurrentNodeID == nodeID {
					return ErrReferenced
				}
			}
			for _, a := range m.approvals {
				if a.WorkflowNodeID != nil && *a.WorkflowNodeID == nodeID {
					return ErrReferenced
				}
			}
			m.nodes = append(m.nodes[:i], m.nodes[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) SaveRequest(r models.Request) (int64, error) {
	r.ID = m.id()
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	m.requests = append(m.requests, r)
	return r.ID, nil
}

func (m *mockStore) GetRequest(id int64) (models.Request, error) {
	for _, r := range m.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Request{}, ErrNotFound
}

func (m *mockStore) GetRequestForUpdate(id int64) (models.Request, error) {
	return m.GetRequest(id)
}

func (m *mockStore) UpdateRequestState(r models.Request) error {
	for i := range m.requests {
		if m.requests[i].ID == r.ID {
			m.requests[i].Status = r.Status
			m.requests[i].CurrentNodeID = r.CurrentNodeID
			m.requests[i].ApproverUserID = r.ApproverUserID
			m.requests[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) ListRequestsByCreator(userID int64) ([]models.Request, error) {
	var out []models.Request
	for _, r := range m.requests {
		if r.CreatedByUserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockStore) ListPendingRequests() ([]models.Request, error) {
	var out []models.Request
	for _, r := range m.requests {
		if r.Status == models.PendingRequestStatus && r.CurrentNodeID != nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockStore) ListPendingRequestsByPosition(positionID int64) ([]models.Request, error) {
	pending, _ := m.ListPendingRequests()
	var out []models.Request
	for _, r := range pending {
		node, err := m.GetWorkflowNode(*r.CurrentNodeID)
		if err != nil {
			continue
		}
		if node.PositionID == positionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ListRequests() ([]models.Request, error) {
	out := make([]models.Request, len(m.requests))
	copy(out, m.requests)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockStore) SaveApproval(a models.Approval) (int64, error) {
	a.ID = m.id()
	if a.DecidedAt.IsZero() {
		a.DecidedAt = time.Now()
	}
	m.approvals = append(m.approvals, a)
	return a.ID, nil
}

func (m *mockStore) ListApprovalsByRequest(requestID int64) ([]models.Approval, error) {
	var out []models.Approval
	for _, a := range m.approvals {
		if a.RequestID == requestID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) SaveAnnouncement(a models.Announcement) (int64, error) {
	a.ID = m.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.announcements = append(m.announcements, a)
	return a.ID, nil
}

func (m *mockStore) ListAnnouncements() ([]models.Announcement, error) {
	out := make([]models.Announcement, len(m.announcements))
	copy(out, m.announcements)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
