package models

import "time"

// Datamanage represents a managed dataset backed by a table or view in one of
// the registered databases. A physical dataset points directly at an existing
// table; a virtual dataset is defined by its SQL expression.
type Datamanage struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	UUID       string    `gorm:"column:uuid;type:varchar(36);uniqueIndex" json:"uuid"`
	DatabaseID uint      `gorm:"column:database_id;not null;uniqueIndex:idx_datamanage_database_name" json:"database_id" validate:"required"`
	Database   *Database `gorm:"foreignKey:DatabaseID" json:"database,omitempty"`

	Name        string `gorm:"column:name;type:varchar(250);not null;uniqueIndex:idx_datamanage_database_name" json:"name" validate:"required"`
	Expression  string `gorm:"column:expression;type:text" json:"expression"`
	ExternalURL string `gorm:"column:external_url;type:text" json:"external_url"`

	// IsPhysical reports whether the dataset points directly at a table.
	IsPhysical bool `gorm:"column:is_physical;default:false" json:"is_physical"`
	// IsManagedExternally marks datasets that are read-only here because an
	// external system owns their definition.
	IsManagedExternally bool `gorm:"column:is_managed_externally;not null;default:false" json:"is_managed_externally"`

	// JSON-encoded option blobs, stored as text and decoded on export.
	Params         string `gorm:"column:params;type:text" json:"params"`
	TemplateParams string `gorm:"column:template_params;type:text" json:"template_params"`
	Extra          string `gorm:"column:extra;type:text" json:"extra"`

	Columns []Column `gorm:"many2many:sl_datamanage_columns;constraint:OnDelete:CASCADE" json:"columns"`
	Metrics []Metric `gorm:"many2many:sl_datamanage_metrics;constraint:OnDelete:CASCADE" json:"metrics"`
	Tables  []Table  `gorm:"many2many:sl_datamanage_tables" json:"tables"`
	Owners  []User   `gorm:"many2many:sl_datamanage_users" json:"owners"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the static table name for GORM.
// Required to override GORM's default pluralization behavior.
func (Datamanage) TableName() string {
	return "sl_datamanages"
}

// OwnedBy reports whether the given user is listed as an owner of the dataset.
func (d *Datamanage) OwnedBy(userID uint) bool {
	for _, owner := range d.Owners {
		if owner.ID == userID {
			return true
		}
	}
	return false
}
