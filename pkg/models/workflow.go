package models

import "time"

// Workflow is an ordered approval chain for one request type. At most one
// workflow may be active per request type at any time.
type Workflow struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	RequestType string         `json:"request_type" db:"request_type"`
	IsActive    bool           `json:"is_active" db:"is_active"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	Nodes       []WorkflowNode `json:"nodes,omitempty"` // Ordered by step_order (populated at read time)
}

// WorkflowNode is one approval step, bound to a position. StepOrder is
// unique within a workflow and defines the linear path.
type WorkflowNode struct {
	ID         int64  `json:"id" db:"id"`
	WorkflowID int64  `json:"workflow_id" db:"workflow_id"`
	StepOrder  int    `json:"step_order" db:"step_order"`
	PositionID int64  `json:"position_id" db:"position_id"`
	Name       string `json:"name" db:"name"`
}
