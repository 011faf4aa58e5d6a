package models

import "time"

type Decision string

const (
	ApprovedDecision Decision = "approved"
	RejectedDecision Decision = "rejected"
)

// Approval is one immutable ledger entry: a single user's decision on a
// single workflow node of a request. At most one entry exists per
// (request, node) pair. WorkflowNodeID is nil only for legacy requests
// created before workflows were introduced.
type Approval struct {
	ID             int64     `json:"id" db:"id"`
	RequestID      int64     `json:"request_id" db:"request_id"`
	WorkflowNodeID *int64    `json:"workflow_node_id" db:"workflow_node_id"`
	ApproverUserID int64     `json:"approver_user_id" db:"approver_user_id"`
	Decision       Decision  `json:"decision" db:"decision"`
	Comment        string    `json:"comment" db:"comment"`
	DecidedAt      time.Time `json:"decided_at" db:"decided_at"`
}
