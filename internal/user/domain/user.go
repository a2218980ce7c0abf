package domain

import (
	"time"
)

// Roles
const (
	RoleAdmin     = "admin"
	RoleManager   = "gerente"
	RoleWarehouse = "almacen"
	RoleCashier   = "caja"
)

// User is an account that can log in
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
