package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/storage"
)

// DBInterface is the subset of sqlx satisfied by both *sqlx.DB and *sqlx.Tx,
// letting one store type serve plain and transactional access.
type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

func notFound(err error) error {
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	return err
}

// --- Directory ---

func (s *PostgresStore) SaveUser(u models.User) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO users (username, full_name, password_hash, role, is_active, department_id, position_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		u.Username, u.FullName, u.PasswordHash, u.Role, u.IsActive, u.DepartmentID, u.PositionID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save user: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetUser(id int64) (models.User, error) {
	var u models.User
	err := s.db.Get(&u, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByUsername(username string) (models.User, error) {
	var u models.User
	err := s.db.Get(&u, "SELECT * FROM users WHERE username = $1", username)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (s *PostgresStore) ListUsers() ([]models.User, error) {
	users := []models.User{}
	err := s.db.Select(&users, "SELECT * FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) UpdateUser(u models.User) error {
	_, err := s.db.Exec(`
		UPDATE users
		SET full_name = $1, role = $2, is_active = $3, department_id = $4, position_id = $5
		WHERE id = $6`,
		u.FullName, u.Role, u.IsActive, u.DepartmentID, u.PositionID, u.ID)
	return err
}

func (s *PostgresStore) UpdateUserPassword(id int64, passwordHash string) error {
	_, err := s.db.Exec("UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, id)
	return err
}

func (s *PostgresStore) ListActiveUsersByPosition(positionID int64) ([]models.User, error) {
	users := []models.User{}
	err := s.db.Select(&users,
		"SELECT * FROM users WHERE is_active AND position_id = $1 ORDER BY id ASC", positionID)
	if err != nil {
		return nil, fmt.Errorf("list users of position %d: %w", positionID, err)
	}
	return users, nil
}

func (s *PostgresStore) SaveDepartment(d models.Department) (int64, error) {
	var id int64
	err := s.db.QueryRowx("INSERT INTO departments (name) VALUES ($1) RETURNING id", d.Name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save department: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetDepartmentByName(name string) (models.Department, error) {
	var d models.Department
	err := s.db.Get(&d, "SELECT * FROM departments WHERE name = $1", name)
	if err != nil {
		return models.Department{}, notFound(err)
	}
	return d, nil
}

func (s *PostgresStore) ListDepartments() ([]models.Department, error) {
	depts := []models.Department{}
	err := s.db.Select(&depts, "SELECT * FROM departments ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return depts, nil
}

func (s *PostgresStore) SavePosition(p models.Position) (int64, error) {
	var id int64
	err := s.db.QueryRowx("INSERT INTO positions (name, description) VALUES ($1, $2) RETURNING id",
		p.Name, p.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save position: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetPosition(id int64) (models.Position, error) {
	var p models.Position
	err := s.db.Get(&p, "SELECT * FROM positions WHERE id = $1", id)
	if err != nil {
		return models.Position{}, notFound(err)
	}
	return p, nil
}

func (s *PostgresStore) GetPositionByName(name string) (models.Position, error) {
	var p models.Position
	err := s.db.Get(&p, "SELECT * FROM positions WHERE name = $1", name)
	if err != nil {
		return models.Position{}, notFound(err)
	}
	return p, nil
}

func (s *PostgresStore) ListPositions() ([]models.Position, error) {
	positions := []models.Position{}
	err := s.db.Select(&positions, "SELECT * FROM positions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// --- Process catalog ---

func (s *PostgresStore) SaveProcessType(p models.ProcessType) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO process_types (code, name, description, requires_amount, is_active, schema_json)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.Code, p.Name, p.Description, p.RequiresAmount, p.IsActive, p.SchemaJSON).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save process type: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetProcessType(id int64) (models.ProcessType, error) {
	var p models.ProcessType
	err := s.db.Get(&p, "SELECT * FROM process_types WHERE id = $1", id)
	if err != nil {
		return models.ProcessType{}, notFound(err)
	}
	return p, nil
}

func (s *PostgresStore) GetProcessTypeByCode(code string) (models.ProcessType, error) {
	var p models.ProcessType
	err := s.db.Get(&p, "SELECT * FROM process_types WHERE code = $1", code)
	if err != nil {
		return models.ProcessType{}, notFound(err)
	}
	return p, nil
}

func (s *PostgresStore) ListProcessTypes(activeOnly bool) ([]models.ProcessType, error) {
	items := []models.ProcessType{}
	query := "SELECT * FROM process_types ORDER BY id ASC"
	if activeOnly {
		query = "SELECT * FROM process_types WHERE is_active ORDER BY id ASC"
	}
	err := s.db.Select(&items, query)
	if err != nil {
		return nil, fmt.Errorf("list process types: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateProcessType(p models.ProcessType) error {
	_, err := s.db.Exec(`
		UPDATE process_types
		SET name = $1, description = $2, requires_amount = $3, is_active = $4, schema_json = $5
		WHERE id = $6`,
		p.Name, p.Description, p.RequiresAmount, p.IsActive, p.SchemaJSON, p.ID)
	return err
}

// --- Workflow definitions ---

func (s *PostgresStore) SaveWorkflow(w models.Workflow) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO workflows (name, request_type, is_active, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		w.Name, w.RequestType, w.IsActive, w.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save workflow: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetWorkflow(id int64) (models.Workflow, error) {
	var wf models.Workflow
	err := s.db.Get(&wf, "SELECT * FROM workflows WHERE id = $1", id)
	if err != nil {
		return models.Workflow{}, notFound(err)
	}
	return wf, nil
}

func (s *PostgresStore) GetWorkflowByName(name string) (models.Workflow, error) {
	var wf models.Workflow
	err := s.db.Get(&wf, "SELECT * FROM workflows WHERE name = $1", name)
	if err != nil {
		return models.Workflow{}, notFound(err)
	}
	return wf, nil
}

func (s *PostgresStore) ListWorkflows(requestType string) ([]models.Workflow, error) {
	workflows := []models.Workflow{}
	var err error
	if requestType == "" {
		err = s.db.Select(&workflows, "SELECT * FROM workflows ORDER BY id ASC")
	} else {
		err = s.db.Select(&workflows, "SELECT * FROM workflows WHERE request_type = $1 ORDER BY id ASC", requestType)
	}
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return workflows, nil
}

func (s *PostgresStore) ListActiveWorkflowsByType(requestType string) ([]models.Workflow, error) {
	workflows := []models.Workflow{}
	err := s.db.Select(&workflows,
		"SELECT * FROM workflows WHERE is_active AND request_type = $1 ORDER BY id ASC", requestType)
	if err != nil {
		return nil, fmt.Errorf("list active workflows of type %s: %w", requestType, err)
	}
	return workflows, nil
}

func (s *PostgresStore) UpdateWorkflow(w models.Workflow) error {
	_, err := s.db.Exec("UPDATE workflows SET name = $1, is_active = $2 WHERE id = $3",
		w.Name, w.IsActive, w.ID)
	return err
}

func (s *PostgresStore) SaveWorkflowNode(n models.WorkflowNode) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO workflow_nodes (workflow_id, step_order, position_id, name)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		n.WorkflowID, n.StepOrder, n.PositionID, n.Name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save workflow node: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetWorkflowNode(id int64) (models.WorkflowNode, error) {
	var n models.WorkflowNode
	err := s.db.Get(&n, "SELECT * FROM workflow_nodes WHERE id = $1", id)
	if err != nil {
		return models.WorkflowNode{}, notFound(err)
	}
	return n, nil
}

func (s *PostgresStore) ListWorkflowNodes(workflowID int64) ([]models.WorkflowNode, error) {
	nodes := []models.WorkflowNode{}
	err := s.db.Select(&nodes,
		"SELECT * FROM workflow_nodes WHERE workflow_id = $1 ORDER BY step_order ASC", workflowID)
	if err != nil {
		return nil, fmt.Errorf("list nodes of workflow %d: %w", workflowID, err)
	}
	return nodes, nil
}

func (s *PostgresStore) DeleteWorkflowNode(workflowID, nodeID int64) error {
	res, err := s.db.Exec("DELETE FROM workflow_nodes WHERE id = $1 AND workflow_id = $2", nodeID, workflowID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return storage.ErrReferenced
		}
		return fmt.Errorf("delete workflow node %d: %w", nodeID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- Requests ---

func (s *PostgresStore) SaveRequest(r models.Request) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO oa_requests (type, title, content, amount, form_json, status, workflow_id, current_node_id, created_by_user_id, approver_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		r.Type, r.Title, r.Content, r.Amount, r.FormJSON, r.Status, r.WorkflowID, r.CurrentNodeID,
		r.CreatedByUserID, r.ApproverUserID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save request: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetRequest(id int64) (models.Request, error) {
	var r models.Request
	err := s.db.Get(&r, "SELECT * FROM oa_requests WHERE id = $1", id)
	if err != nil {
		return models.Request{}, notFound(err)
	}
	return r, nil
}

// GetRequestForUpdate locks the request row until the transaction ends, so
// two concurrent decisions on the same request serialize and the loser sees
// the terminal state instead of double-advancing.
func (s *PostgresStore) GetRequestForUpdate(id int64) (models.Request, error) {
	var r models.Request
	err := s.db.Get(&r, "SELECT * FROM oa_requests WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return models.Request{}, notFound(err)
	}
	return r, nil
}

func (s *PostgresStore) UpdateRequestState(r models.Request) error {
	_, err := s.db.Exec(`
		UPDATE oa_requests
		SET status = $1, current_node_id = $2, approver_user_id = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4`,
		r.Status, r.CurrentNodeID, r.ApproverUserID, r.ID)
	return err
}

func (s *PostgresStore) ListRequestsByCreator(userID int64) ([]models.Request, error) {
	requests := []models.Request{}
	err := s.db.Select(&requests,
		"SELECT * FROM oa_requests WHERE created_by_user_id = $1 ORDER BY id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list requests of user %d: %w", userID, err)
	}
	return requests, nil
}

func (s *PostgresStore) ListPendingRequests() ([]models.Request, error) {
	requests := []models.Request{}
	err := s.db.Select(&requests,
		"SELECT * FROM oa_requests WHERE status = 'pending' AND current_node_id IS NOT NULL ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return requests, nil
}

func (s *PostgresStore) ListPendingRequestsByPosition(positionID int64) ([]models.Request, error) {
	requests := []models.Request{}
	err := s.db.Select(&requests, `
		SELECT r.* FROM oa_requests r
		JOIN workflow_nodes n ON r.current_node_id = n.id
		WHERE r.status = 'pending' AND n.position_id = $1
		ORDER BY r.id DESC`, positionID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests for position %d: %w", positionID, err)
	}
	return requests, nil
}

func (s *PostgresStore) ListRequests() ([]models.Request, error) {
	requests := []models.Request{}
	err := s.db.Select(&requests, "SELECT * FROM oa_requests ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// --- Approval ledger ---

func (s *PostgresStore) SaveApproval(a models.Approval) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO approvals (request_id, workflow_node_id, approver_user_id, decision, comment, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		a.RequestID, a.WorkflowNodeID, a.ApproverUserID, a.Decision, a.Comment, a.DecidedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save approval: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListApprovalsByRequest(requestID int64) ([]models.Approval, error) {
	approvals := []models.Approval{}
	err := s.db.Select(&approvals,
		"SELECT * FROM approvals WHERE request_id = $1 ORDER BY id ASC", requestID)
	if err != nil {
		return nil, fmt.Errorf("list approvals of request %d: %w", requestID, err)
	}
	return approvals, nil
}

// --- Announcements ---

func (s *PostgresStore) SaveAnnouncement(a models.Announcement) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO announcements (title, content, created_by_user_id)
		VALUES ($1, $2, $3) RETURNING id`,
		a.Title, a.Content, a.CreatedByUserID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save announcement: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListAnnouncements() ([]models.Announcement, error) {
	announcements := []models.Announcement{}
	err := s.db.Select(&announcements, "SELECT * FROM announcements ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, nil
}
