package importer

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"datamanageapi/config"
	"datamanageapi/models"
	"datamanageapi/pkg/logger"
	"datamanageapi/utils"
)

// typeMap translates the native column types recorded on datasets into the
// SQL column types used when materializing the backing table.
var typeMap = map[string]string{
	"BOOLEAN":                     "BOOLEAN",
	"VARCHAR":                     "VARCHAR(255)",
	"STRING":                      "VARCHAR(255)",
	"TEXT":                        "TEXT",
	"BIGINT":                      "BIGINT",
	"FLOAT":                       "DOUBLE",
	"FLOAT64":                     "DOUBLE",
	"DOUBLE PRECISION":            "DOUBLE",
	"DATE":                        "DATE",
	"DATETIME":                    "DATETIME",
	"TIMESTAMP WITHOUT TIME ZONE": "DATETIME",
	"TIMESTAMP WITH TIME ZONE":    "TIMESTAMP",
}

var temporalLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// SQLColumnType resolves a native type string to a SQL column type. Sized
// VARCHAR declarations keep their size; anything unknown is an error.
func SQLColumnType(nativeType string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(nativeType))
	if mapped, ok := typeMap[upper]; ok {
		return mapped, nil
	}
	if match := utils.VarcharPattern.FindStringSubmatch(upper); match != nil {
		return "VARCHAR(" + match[1] + ")", nil
	}
	return "", fmt.Errorf("unknown type: %s", nativeType)
}

// DataLoader loads external data into the backing table of a dataset.
type DataLoader interface {
	LoadData(ctx context.Context, tx *gorm.DB, dm *models.Datamanage, dataURI string) error
}

type csvLoader struct {
	client    *http.Client
	chunkSize int
	maxBytes  int64
}

// NewCSVLoader creates a loader fetching CSV data over HTTP with the
// configured timeout and size cap.
func NewCSVLoader() DataLoader {
	return &csvLoader{
		client:    &http.Client{Timeout: config.Cfg.ImportDownloadTimeout},
		chunkSize: config.Cfg.ImportChunkSize,
		maxBytes:  config.Cfg.ImportMaxBytes,
	}
}

// LoadData downloads the CSV behind dataURI (gzipped when the URI ends in
// .gz), replaces the backing table and inserts the rows in chunks inside the
// caller's transaction so a failed import leaves no half-loaded table.
func (l *csvLoader) LoadData(ctx context.Context, tx *gorm.DB, dm *models.Datamanage, dataURI string) error {
	header, rows, err := l.fetchCSV(ctx, dataURI)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return fmt.Errorf("data file %s has no header row", dataURI)
	}

	columns, err := matchColumns(header, dm.Columns)
	if err != nil {
		return err
	}

	createSQL, err := buildCreateTableSQL(dm.Name, columns)
	if err != nil {
		return err
	}
	if err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", utils.QuoteIdentifier(dm.Name))).Error; err != nil {
		return fmt.Errorf("failed to drop table %s: %w", dm.Name, err)
	}
	if err := tx.Exec(createSQL).Error; err != nil {
		return fmt.Errorf("failed to create table %s: %w", dm.Name, err)
	}

	chunkSize := l.chunkSize
	if chunkSize <= 0 {
		chunkSize = 512
	}
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		insertSQL, args, err := buildInsertSQL(dm.Name, columns, rows[start:end])
		if err != nil {
			return err
		}
		if err := tx.Exec(insertSQL, args...).Error; err != nil {
			return fmt.Errorf("failed to insert rows %d-%d into %s: %w", start, end, dm.Name, err)
		}
	}
	logger.Infof("Loaded %d rows into table %s", len(rows), dm.Name)
	return nil
}

func (l *csvLoader) fetchCSV(ctx context.Context, dataURI string) ([]string, [][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dataURI, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid data URI %s: %w", dataURI, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download data from %s: %w", dataURI, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("failed to download data from %s: status %d", dataURI, resp.StatusCode)
	}

	var body io.Reader = io.LimitReader(resp.Body, l.maxBytes)
	if strings.HasSuffix(dataURI, ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open gzip stream from %s: %w", dataURI, err)
		}
		defer gz.Close()
		body = gz
	}

	reader := csv.NewReader(body)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV from %s: %w", dataURI, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// loadColumn pairs a CSV header name with the SQL type and temporal flag of
// the matching dataset column.
type loadColumn struct {
	name     string
	sqlType  string
	temporal bool
}

// matchColumns keeps only header columns that the dataset declares, in
// header order. Extra CSV columns are skipped with a log line.
func matchColumns(header []string, columns []models.Column) ([]loadColumn, error) {
	byName := make(map[string]models.Column, len(columns))
	for _, col := range columns {
		byName[col.ColumnName] = col
	}

	var matched []loadColumn
	for _, name := range header {
		col, ok := byName[name]
		if !ok {
			logger.Warnf("CSV column %q is not declared on the datamanage, skipping", name)
			matched = append(matched, loadColumn{name: name})
			continue
		}
		sqlType, err := SQLColumnType(col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		matched = append(matched, loadColumn{
			name:     name,
			sqlType:  sqlType,
			temporal: col.IsTemporal || isTemporalType(sqlType),
		})
	}
	return matched, nil
}

func isTemporalType(sqlType string) bool {
	switch sqlType {
	case "DATE", "DATETIME", "TIMESTAMP":
		return true
	}
	return false
}

func buildCreateTableSQL(table string, columns []loadColumn) (string, error) {
	if !utils.IsValidIdentifier(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	var defs []string
	for _, col := range columns {
		if col.sqlType == "" {
			continue
		}
		if !utils.IsValidIdentifier(col.name) {
			return "", fmt.Errorf("invalid column name %q", col.name)
		}
		defs = append(defs, utils.QuoteIdentifier(col.name)+" "+col.sqlType)
	}
	if len(defs) == 0 {
		return "", fmt.Errorf("no declared columns match the data file for table %q", table)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", utils.QuoteIdentifier(table), strings.Join(defs, ", ")), nil
}

func buildInsertSQL(table string, columns []loadColumn, rows [][]string) (string, []interface{}, error) {
	var names []string
	var keep []int
	for i, col := range columns {
		if col.sqlType == "" {
			continue
		}
		names = append(names, utils.QuoteIdentifier(col.name))
		keep = append(keep, i)
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(names)), ",") + ")"
	placeholders := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*len(names))
	for _, row := range rows {
		placeholders = append(placeholders, placeholder)
		for _, i := range keep {
			if i >= len(row) {
				args = append(args, nil)
				continue
			}
			value, err := convertValue(row[i], columns[i])
			if err != nil {
				return "", nil, err
			}
			args = append(args, value)
		}
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		utils.QuoteIdentifier(table), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	return sql, args, nil
}

// convertValue prepares a CSV cell for insertion. Temporal columns are
// parsed so the driver sends real timestamps; empty cells become NULL.
func convertValue(raw string, col loadColumn) (interface{}, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !col.temporal {
		return raw, nil
	}
	for _, layout := range temporalLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("cannot parse temporal value %q for column %q", raw, col.name)
}
