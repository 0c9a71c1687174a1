package models

import "time"

// AdminRoleName is the role that bypasses per-dataset ownership checks.
const AdminRoleName = "Admin"

// User is an account known to the service. Authentication happens upstream;
// this service only resolves the bearer token back to a user record.
type User struct {
	ID        uint   `gorm:"primaryKey;column:id" json:"id"`
	Username  string `gorm:"column:username;type:varchar(64);not null;unique" json:"username" validate:"required"`
	FirstName string `gorm:"column:first_name;type:varchar(64)" json:"first_name"`
	LastName  string `gorm:"column:last_name;type:varchar(64)" json:"last_name"`
	Email     string `gorm:"column:email;type:varchar(128);unique" json:"email"`
	IsActive  bool   `gorm:"column:is_active;not null;default:true" json:"is_active"`

	Roles []Role `gorm:"many2many:user_roles" json:"roles,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the static table name for GORM.
func (User) TableName() string {
	return "users"
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user may act on datasets it does not own.
func (u *User) IsAdmin() bool {
	return u.HasRole(AdminRoleName)
}

// Role groups users for authorization purposes.
type Role struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;type:varchar(64);not null;unique" json:"name" validate:"required"`
}

// TableName specifies the static table name for GORM.
func (Role) TableName() string {
	return "roles"
}
