package models

import "time"

// Column describes a single column exposed by a dataset, including the native
// database type used when loading data into the backing table.
type Column struct {
	ID          uint   `gorm:"primaryKey;column:id" json:"id"`
	UUID        string `gorm:"column:uuid;type:varchar(36);uniqueIndex" json:"uuid"`
	ColumnName  string `gorm:"column:column_name;type:varchar(255);not null" json:"column_name" validate:"required"`
	Type        string `gorm:"column:type;type:varchar(64)" json:"type"` // native type, e.g. VARCHAR(255), BIGINT
	Expression  string `gorm:"column:expression;type:text" json:"expression"`
	Description string `gorm:"column:description;type:text" json:"description"`
	IsTemporal  bool   `gorm:"column:is_temporal;default:false" json:"is_temporal"`
	Extra       string `gorm:"column:extra;type:text" json:"extra"` // JSON-encoded

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the static table name for GORM.
func (Column) TableName() string {
	return "sl_columns"
}
