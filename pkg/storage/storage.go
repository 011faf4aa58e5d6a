package storage

import (
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrReferenced is returned when a delete would orphan rows that still
// reference the entity, such as removing a workflow node a pending request
// is parked at or a ledger entry points to.
var ErrReferenced = errors.New("still referenced")

// Store defines the persistence operations of the OA backend. Begin returns
// a transactional Store; writes performed through it become visible only on
// Commit. Decision handling relies on this to keep the ledger append and the
// request-state update atomic.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Directory
	SaveUser(u models.User) (int64, error)
	GetUser(id int64) (models.User, error)
	GetUserByUsername(username string) (models.User, error)
	ListUsers() ([]models.User, error)
	UpdateUser(u models.User) error
	UpdateUserPassword(id int64, passwordHash string) error
	ListActiveUsersByPosition(positionID int64) ([]models.User, error)

	SaveDepartment(d models.Department) (int64, error)
	GetDepartmentByName(name string) (models.Department, error)
	ListDepartments() ([]models.Department, error)

	SavePosition(p models.Position) (int64, error)
	GetPosition(id int64) (models.Position, error)
	GetPositionByName(name string) (models.Position, error)
	ListPositions() ([]models.Position, error)

	// Process catalog
	SaveProcessType(p models.ProcessType) (int64, error)
	GetProcessType(id int64) (models.ProcessType, error)
	GetProcessTypeByCode(code string) (models.ProcessType, error)
	ListProcessTypes(activeOnly bool) ([]models.ProcessType, error)
	UpdateProcessType(p models.ProcessType) error

	// Workflow definitions
	SaveWorkflow(w models.Workflow) (int64, error)
	GetWorkflow(id int64) (models.Workflow, error)
	GetWorkflowByName(name string) (models.Workflow, error)
	ListWorkflows(requestType string) ([]models.Workflow, error)
	ListActiveWorkflowsByType(requestType string) ([]models.Workflow, error)
	UpdateWorkflow(w models.Workflow) error
	SaveWorkflowNode(n models.WorkflowNode) (int64, error)
	GetWorkflowNode(id int64) (models.WorkflowNode, error)
	ListWorkflowNodes(workflowID int64) ([]models.WorkflowNode, error)
	DeleteWorkflowNode(workflowID, nodeID int64) error

	// Requests
	SaveRequest(r models.Request) (int64, error)
	GetRequest(id int64) (models.Request, error)
	// GetRequestForUpdate locks the request row for the lifetime of the
	// enclosing transaction so concurrent decisions serialize.
	GetRequestForUpdate(id int64) (models.Request, error)
	UpdateRequestState(r models.Request) error
	ListRequestsByCreator(userID int64) ([]models.Request, error)
	ListPendingRequests() ([]models.Request, error)
	ListPendingRequestsByPosition(positionID int64) ([]models.Request, error)
	ListRequests() ([]models.Request, error)

	// Approval ledger
	SaveApproval(a models.Approval) (int64, error)
	ListApprovalsByRequest(requestID int64) ([]models.Approval, error)

	// Announcements
	SaveAnnouncement(a models.Announcement) (int64, error)
	ListAnnouncements() ([]models.Announcement, error)
}
