package models

// DatamanageCreateRequest is the body accepted by POST /datamanages.
type DatamanageCreateRequest struct {
	DatabaseID  uint         `json:"database_id" validate:"required"`
	Name        string       `json:"name" validate:"required"`
	Expression  string       `json:"expression"`
	ExternalURL string       `json:"external_url"`
	IsPhysical  bool         `json:"is_physical"`
	Owners      []uint       `json:"owners"`
	Columns     []ColumnSpec `json:"columns"`
	Metrics     []MetricSpec `json:"metrics"`
	Params      string       `json:"params"`
}

// DatamanageUpdateRequest is the body accepted by PUT /datamanages/:id.
// Pointer fields distinguish "leave unchanged" from explicit zero values.
// DatabaseID is accepted only so a mismatch can be rejected: a dataset can
// never move between databases.
type DatamanageUpdateRequest struct {
	DatabaseID          uint         `json:"database_id"`
	Name                string       `json:"name"`
	Expression          *string      `json:"expression"`
	ExternalURL         *string      `json:"external_url"`
	IsPhysical          *bool        `json:"is_physical"`
	IsManagedExternally *bool        `json:"is_managed_externally"`
	Params              *string      `json:"params"`
	TemplateParams      *string      `json:"template_params"`
	Extra               *string      `json:"extra"`
	Owners              []uint       `json:"owners"`
	Columns             []ColumnSpec `json:"columns"`
	Metrics             []MetricSpec `json:"metrics"`
}

// ColumnSpec is a column entry in a create/update payload. Entries carrying
// an ID refer to existing columns of the dataset; entries without one create
// new columns.
type ColumnSpec struct {
	ID          *uint  `json:"id"`
	ColumnName  string `json:"column_name" validate:"required"`
	Type        string `json:"type"`
	Expression  string `json:"expression"`
	Description string `json:"description"`
	IsTemporal  bool   `json:"is_temporal"`
	Extra       string `json:"extra"`
}

// MetricSpec is a metric entry in a create/update payload.
type MetricSpec struct {
	ID          *uint  `json:"id"`
	MetricName  string `json:"metric_name" validate:"required"`
	Expression  string `json:"expression"`
	Description string `json:"description"`
	Extra       string `json:"extra"`
}
