package models

import "time"

type RequestStatus string

const (
	PendingRequestStatus  RequestStatus = "pending"
	ApprovedRequestStatus RequestStatus = "approved"
	RejectedRequestStatus RequestStatus = "rejected"
)

// Request is a submitted item travelling through an approval workflow.
// Status and CurrentNodeID are mutated only by the routing engine:
// CurrentNodeID is non-nil exactly while the request is pending inside a
// workflow, and nil once the request reaches a terminal status.
// ApproverUserID is an advisory hint for the UI; the authoritative check is
// position membership at decision time.
type Request struct {
	ID              int64         `json:"id" db:"id"`
	Type            string        `json:"type" db:"type"`
	Title           string        `json:"title" db:"title"`
	Content         string        `json:"content" db:"content"`
	Amount          *float64      `json:"amount" db:"amount"`
	FormJSON        string        `json:"-" db:"form_json"`
	Status          RequestStatus `json:"status" db:"status"`
	WorkflowID      *int64        `json:"workflow_id" db:"workflow_id"`
	CurrentNodeID   *int64        `json:"current_node_id" db:"current_node_id"`
	CreatedByUserID int64         `json:"created_by_user_id" db:"created_by_user_id"`
	ApproverUserID  *int64        `json:"approver_user_id" db:"approver_user_id"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// Terminal reports whether the request can no longer be decided.
func (r Request) Terminal() bool {
	return r.Status != PendingRequestStatus
}
