package models

import "time"

// Metric is a named aggregation defined on top of a dataset, e.g.
// count(*) or sum(amount).
type Metric struct {
	ID          uint   `gorm:"primaryKey;column:id" json:"id"`
	UUID        string `gorm:"column:uuid;type:varchar(36);uniqueIndex" json:"uuid"`
	MetricName  string `gorm:"column:metric_name;type:varchar(255);not null" json:"metric_name" validate:"required"`
	Expression  string `gorm:"column:expression;type:text" json:"expression"`
	Description string `gorm:"column:description;type:text" json:"description"`
	Extra       string `gorm:"column:extra;type:text" json:"extra"` // JSON-encoded

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the static table name for GORM.
func (Metric) TableName() string {
	return "sl_metrics"
}
