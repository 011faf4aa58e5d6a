package models

import "time"

type Role string

const (
	AdminRole    Role = "admin"
	ApproverRole Role = "approver"
	EmployeeRole Role = "employee"
)

// User is an account in the directory. Position binding drives approval
// authorization; role "admin" bypasses position checks.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	FullName     string    `json:"full_name" db:"full_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	DepartmentID *int64    `json:"department_id" db:"department_id"`
	PositionID   *int64    `json:"position_id" db:"position_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == AdminRole
}

// HoldsPosition reports whether the user is currently bound to the position.
func (u User) HoldsPosition(positionID int64) bool {
	return u.PositionID != nil && *u.PositionID == positionID
}
