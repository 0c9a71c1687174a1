package models

// ExportVersion is written into every exported payload so importers can
// reject formats they do not understand.
const ExportVersion = "1.0.0"

// DatamanagePayload is the YAML document exchanged by the export and import
// endpoints. JSON-encoded text columns (params, template_params, extra) are
// decoded into structured values on export and re-encoded on import.
type DatamanagePayload struct {
	Version             string          `yaml:"version" json:"version"`
	UUID                string          `yaml:"uuid" json:"uuid" validate:"required"`
	Name                string          `yaml:"name" json:"name" validate:"required"`
	DatabaseUUID        string          `yaml:"database_uuid" json:"database_uuid" validate:"required"`
	Expression          string          `yaml:"expression,omitempty" json:"expression,omitempty"`
	ExternalURL         string          `yaml:"external_url,omitempty" json:"external_url,omitempty"`
	IsPhysical          bool            `yaml:"is_physical" json:"is_physical"`
	IsManagedExternally bool            `yaml:"is_managed_externally" json:"is_managed_externally"`
	Params              interface{}     `yaml:"params,omitempty" json:"params,omitempty"`
	TemplateParams      interface{}     `yaml:"template_params,omitempty" json:"template_params,omitempty"`
	Extra               interface{}     `yaml:"extra,omitempty" json:"extra,omitempty"`
	Columns             []ColumnPayload `yaml:"columns,omitempty" json:"columns,omitempty"`
	Metrics             []MetricPayload `yaml:"metrics,omitempty" json:"metrics,omitempty"`

	// Data optionally points at a CSV file (plain or gzipped) to load into
	// the backing table during import.
	Data string `yaml:"data,omitempty" json:"data,omitempty"`
}

// ColumnPayload is the exported form of a dataset column.
type ColumnPayload struct {
	UUID        string      `yaml:"uuid" json:"uuid"`
	ColumnName  string      `yaml:"column_name" json:"column_name" validate:"required"`
	Type        string      `yaml:"type,omitempty" json:"type,omitempty"`
	Expression  string      `yaml:"expression,omitempty" json:"expression,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	IsTemporal  bool        `yaml:"is_temporal" json:"is_temporal"`
	Extra       interface{} `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// MetricPayload is the exported form of a dataset metric.
type MetricPayload struct {
	UUID        string      `yaml:"uuid" json:"uuid"`
	MetricName  string      `yaml:"metric_name" json:"metric_name" validate:"required"`
	Expression  string      `yaml:"expression,omitempty" json:"expression,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Extra       interface{} `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// DatabasePayload is the exported form of the owning database, emitted next
// to the dataset when related export is requested.
type DatabasePayload struct {
	Version      string      `yaml:"version" json:"version"`
	UUID         string      `yaml:"uuid" json:"uuid"`
	DatabaseName string      `yaml:"database_name" json:"database_name"`
	Extra        interface{} `yaml:"extra,omitempty" json:"extra,omitempty"`
}
