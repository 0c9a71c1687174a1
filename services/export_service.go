package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"datamanageapi/config"
	"datamanageapi/models"
	"datamanageapi/pkg/logger"
	"datamanageapi/repository"
	"datamanageapi/utils"
)

// ExportService serializes datasets to YAML bundles. Each dataset becomes
// datamanages/<database>/<name>.yaml; when related export is on, every owning
// database is emitted once as databases/<database>.yaml. The files are
// bundled into a single .tar.gz archive.
type ExportService interface {
	// Export writes the bundle for the given dataset ids and returns the
	// archive path. The caller is responsible for removing the archive.
	Export(ctx context.Context, ids []uint, exportRelated bool) (string, error)
}

type exportService struct {
	dmRepo repository.DatamanageRepository
}

// NewExportService creates a new dataset export service instance.
func NewExportService() ExportService {
	return &exportService{
		dmRepo: repository.NewDatamanageRepository(),
	}
}

// NewExportServiceWithDeps creates a service instance with injected dependencies.
// Used for testing to provide mock implementations of repositories.
func NewExportServiceWithDeps(dmRepo repository.DatamanageRepository) ExportService {
	return &exportService{dmRepo: dmRepo}
}

func (s *exportService) Export(ctx context.Context, ids []uint, exportRelated bool) (string, error) {
	if len(ids) == 0 {
		return "", &ValidationError{Issues: []string{"no datamanage ids given"}}
	}

	bundleDir, err := os.MkdirTemp(config.Cfg.ExportDir, fmt.Sprintf("datamanage_export_%s_*", time.Now().Format("20060102T150405")))
	if err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	defer os.RemoveAll(bundleDir)

	seenDatabases := make(map[uint]bool)
	for _, id := range ids {
		dm, err := s.Get(ctx, id)
		if err != nil {
			return "", err
		}

		payload := BuildDatamanagePayload(dm)
		dbDir := utils.ExportFilename(dm.Database.DatabaseName)
		dmFile := utils.ExportFilename(dm.Name) + ".yaml"
		if err := writeYAML(filepath.Join(bundleDir, "datamanages", dbDir, dmFile), payload); err != nil {
			return "", err
		}

		if exportRelated && !seenDatabases[dm.DatabaseID] {
			seenDatabases[dm.DatabaseID] = true
			dbPayload := BuildDatabasePayload(dm.Database)
			if err := writeYAML(filepath.Join(bundleDir, "databases", dbDir+".yaml"), dbPayload); err != nil {
				return "", err
			}
		}
	}

	archivePath, err := utils.CompressDirectoryToTarGz(bundleDir, filepath.Join(config.Cfg.ExportDir, filepath.Base(bundleDir)+".tar.gz"))
	if err != nil {
		return "", fmt.Errorf("failed to build export archive: %w", err)
	}
	logger.Infof("Exported %d datamanage(s) to %s", len(ids), archivePath)
	return archivePath, nil
}

func (s *exportService) Get(ctx context.Context, id uint) (*models.Datamanage, error) {
	dm, err := s.dmRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load datamanage %d: %w", id, err)
	}
	if dm.Database == nil {
		return nil, fmt.Errorf("datamanage %d has no database loaded", id)
	}
	return dm, nil
}

// BuildDatamanagePayload maps a dataset row onto its export document,
// decoding the JSON-encoded text columns into structured values.
func BuildDatamanagePayload(dm *models.Datamanage) models.DatamanagePayload {
	payload := models.DatamanagePayload{
		Version:             models.ExportVersion,
		UUID:                dm.UUID,
		Name:                dm.Name,
		DatabaseUUID:        dm.Database.UUID,
		Expression:          dm.Expression,
		ExternalURL:         dm.ExternalURL,
		IsPhysical:          dm.IsPhysical,
		IsManagedExternally: dm.IsManagedExternally,
		Params:              decodeJSONField("params", dm.Params),
		TemplateParams:      decodeJSONField("template_params", dm.TemplateParams),
		Extra:               decodeJSONField("extra", dm.Extra),
	}
	for _, col := range dm.Columns {
		payload.Columns = append(payload.Columns, models.ColumnPayload{
			UUID:        col.UUID,
			ColumnName:  col.ColumnName,
			Type:        col.Type,
			Expression:  col.Expression,
			Description: col.Description,
			IsTemporal:  col.IsTemporal,
			Extra:       decodeJSONField("extra", col.Extra),
		})
	}
	for _, m := range dm.Metrics {
		payload.Metrics = append(payload.Metrics, models.MetricPayload{
			UUID:        m.UUID,
			MetricName:  m.MetricName,
			Expression:  m.Expression,
			Description: m.Description,
			Extra:       decodeJSONField("extra", m.Extra),
		})
	}
	return payload
}

// BuildDatabasePayload maps a database row onto its export document.
func BuildDatabasePayload(db *models.Database) models.DatabasePayload {
	return models.DatabasePayload{
		Version:      models.ExportVersion,
		UUID:         db.UUID,
		DatabaseName: db.DatabaseName,
		Extra:        decodeJSONField("extra", db.Extra),
	}
}

// decodeJSONField turns a JSON-encoded text column into a structured value.
// Undecodable content is exported verbatim so a bad row never blocks export.
func decodeJSONField(name, raw string) interface{} {
	if raw == "" {
		return nil
	}
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		logger.Infof("Unable to decode `%s` field: %s", name, raw)
		return raw
	}
	return value
}

func writeYAML(path string, payload interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory %s: %w", filepath.Dir(path), err)
	}
	content, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal export payload: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write export file %s: %w", path, err)
	}
	return nil
}
