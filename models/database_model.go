package models

import "time"

// Database is a registered analytical database that datasets are defined
// against. DSN is kept out of JSON responses so credentials never leak
// through the API.
type Database struct {
	ID           uint   `gorm:"primaryKey;column:id" json:"id"`
	UUID         string `gorm:"column:uuid;type:varchar(36);uniqueIndex" json:"uuid"`
	DatabaseName string `gorm:"column:database_name;type:varchar(250);not null;unique" json:"database_name" validate:"required"`
	DSN          string `gorm:"column:dsn;type:text" json:"-"`
	Extra        string `gorm:"column:extra;type:text" json:"extra"` // JSON-encoded

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the static table name for GORM.
func (Database) TableName() string {
	return "dbs"
}
