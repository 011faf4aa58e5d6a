package models

// Department groups users for display purposes only; it plays no part in
// approval routing.
type Department struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
