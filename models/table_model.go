package models

import "time"

// Table is a physical table underlying one or more datasets. Virtual datasets
// can reference several tables through their expression.
type Table struct {
	ID      uint   `gorm:"primaryKey;column:id" json:"id"`
	UUID    string `gorm:"column:uuid;type:varchar(36);uniqueIndex" json:"uuid"`
	Catalog string `gorm:"column:catalog;type:varchar(128)" json:"catalog"`
	Schema  string `gorm:"column:table_schema;type:varchar(128)" json:"schema"`
	Name    string `gorm:"column:name;type:varchar(250);not null" json:"name" validate:"required"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the static table name for GORM.
func (Table) TableName() string {
	return "sl_tables"
}
