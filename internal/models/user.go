package models

import (
	"strings"
	"time"
)

// UserRole distinguishes module leads from quality assurance staff.
type UserRole string

const (
	RoleModuleLead UserRole = "ML"
	RoleQA         UserRole = "QA"
)

// User represents a staff member stored in the users table.
type User struct {
	ID        string    `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Title     *string   `db:"title" json:"title,omitempty"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Role      UserRole  `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display and lead-search matching.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserFilter captures filtering criteria for listing staff.
type UserFilter struct {
	Role   *UserRole
	Search string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
