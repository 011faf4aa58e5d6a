package models

// Position is an organizational seat that workflow nodes bind to. Approval
// rights follow the position, not the individual user.
type Position struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}
