package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"datamanageapi/models"
	"datamanageapi/pkg/logger"
	"datamanageapi/repository"
	"datamanageapi/services"
)

// ImportService restores datasets from exported YAML payloads. Datasets are
// identified by UUID: an existing dataset is returned untouched unless
// overwrite is set, in which case its definition, columns and metrics are
// synchronized with the payload.
type ImportService interface {
	Import(ctx context.Context, user *models.User, payload models.DatamanagePayload, overwrite, forceData bool) (*models.Datamanage, error)
}

type importService struct {
	baseRepo repository.BaseRepository
	dmRepo   repository.DatamanageRepository
	dbRepo   repository.DatabaseRepository
	loader   DataLoader
}

// NewImportService creates a new dataset import service instance.
func NewImportService() ImportService {
	return &importService{
		baseRepo: repository.NewBaseRepository(),
		dmRepo:   repository.NewDatamanageRepository(),
		dbRepo:   repository.NewDatabaseRepository(),
		loader:   NewCSVLoader(),
	}
}

// NewImportServiceWithDeps creates a service instance with injected dependencies.
// Used for testing to provide mock implementations.
func NewImportServiceWithDeps(
	baseRepo repository.BaseRepository,
	dmRepo repository.DatamanageRepository,
	dbRepo repository.DatabaseRepository,
	loader DataLoader,
) ImportService {
	return &importService{
		baseRepo: baseRepo,
		dmRepo:   dmRepo,
		dbRepo:   dbRepo,
		loader:   loader,
	}
}

func (s *importService) Import(ctx context.Context, user *models.User, payload models.DatamanagePayload, overwrite, forceData bool) (*models.Datamanage, error) {
	if payload.Version != "" && payload.Version != models.ExportVersion {
		return nil, &services.ValidationError{Issues: []string{
			fmt.Sprintf("unsupported export version %q", payload.Version),
		}}
	}

	existing, err := s.dmRepo.GetByUUID(nil, payload.UUID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up datamanage %s: %w", payload.UUID, err)
	}
	if existing != nil && !overwrite {
		logger.Infof("Datamanage %s already exists, skipping import", payload.UUID)
		return existing, nil
	}

	database, err := s.dbRepo.GetByUUID(nil, payload.DatabaseUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &services.ValidationError{Issues: []string{
				fmt.Sprintf("database %s was not found", payload.DatabaseUUID),
			}}
		}
		return nil, fmt.Errorf("failed to load database %s: %w", payload.DatabaseUUID, err)
	}

	dm := datamanageFromPayload(payload, existing, database.ID)

	tx := s.baseRepo.Begin()
	if existing == nil {
		if err := s.dmRepo.Create(tx, dm); err != nil {
			tx.Rollback()
			logger.Errorf("Failed to import datamanage %s: %v", payload.UUID, err)
			return nil, fmt.Errorf("%w: %v", services.ErrImportFailed, err)
		}
	} else {
		// Overwrite synchronizes columns and metrics: rows missing from the
		// payload are dropped.
		if err := s.dmRepo.ReplaceColumns(tx, existing, dm.Columns); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%w: %v", services.ErrImportFailed, err)
		}
		if err := s.dmRepo.ReplaceMetrics(tx, existing, dm.Metrics); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%w: %v", services.ErrImportFailed, err)
		}
		dm.Columns = existing.Columns
		dm.Metrics = existing.Metrics
		if err := s.dmRepo.Save(tx, dm); err != nil {
			tx.Rollback()
			logger.Errorf("Failed to overwrite datamanage %s: %v", payload.UUID, err)
			return nil, fmt.Errorf("%w: %v", services.ErrImportFailed, err)
		}
	}

	if payload.Data != "" {
		tableExists, err := s.dbRepo.TableExists(tx, dm.Name)
		if err != nil {
			logger.Warnf("Couldn't check if table %s exists, assuming it does: %v", dm.Name, err)
			tableExists = true
		}
		if !tableExists || forceData {
			logger.Infof("Downloading data from %s", payload.Data)
			if err := s.loader.LoadData(ctx, tx, dm, payload.Data); err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("%w: %v", services.ErrImportFailed, err)
			}
		}
	}

	if user != nil {
		if err := s.dmRepo.AppendOwner(tx, dm, user); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%w: %v", services.ErrImportFailed, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%w: %v", services.ErrImportFailed, err)
	}
	logger.Infof("Imported datamanage %q (uuid=%s, overwrite=%v)", dm.Name, dm.UUID, overwrite)
	return dm, nil
}

// datamanageFromPayload maps the import document back onto model rows,
// re-encoding the structured JSON values into text columns. When an existing
// dataset is being overwritten its row ids are preserved, matching payload
// columns and metrics to stored ones by UUID.
func datamanageFromPayload(payload models.DatamanagePayload, existing *models.Datamanage, databaseID uint) *models.Datamanage {
	dm := &models.Datamanage{
		UUID:                payload.UUID,
		DatabaseID:          databaseID,
		Name:                payload.Name,
		Expression:          payload.Expression,
		ExternalURL:         payload.ExternalURL,
		IsPhysical:          payload.IsPhysical,
		IsManagedExternally: payload.IsManagedExternally,
		Params:              encodeJSONField("params", payload.Params),
		TemplateParams:      encodeJSONField("template_params", payload.TemplateParams),
		Extra:               encodeJSONField("extra", payload.Extra),
	}

	columnIDs := make(map[string]uint)
	metricIDs := make(map[string]uint)
	if existing != nil {
		dm.ID = existing.ID
		dm.CreatedAt = existing.CreatedAt
		for _, c := range existing.Columns {
			columnIDs[c.UUID] = c.ID
		}
		for _, m := range existing.Metrics {
			metricIDs[m.UUID] = m.ID
		}
	}

	for _, col := range payload.Columns {
		columnUUID := col.UUID
		if columnUUID == "" {
			columnUUID = uuid.NewString()
		}
		dm.Columns = append(dm.Columns, models.Column{
			ID:          columnIDs[columnUUID],
			UUID:        columnUUID,
			ColumnName:  col.ColumnName,
			Type:        col.Type,
			Expression:  col.Expression,
			Description: col.Description,
			IsTemporal:  col.IsTemporal,
			Extra:       encodeJSONField("extra", col.Extra),
		})
	}
	for _, m := range payload.Metrics {
		metricUUID := m.UUID
		if metricUUID == "" {
			metricUUID = uuid.NewString()
		}
		dm.Metrics = append(dm.Metrics, models.Metric{
			ID:          metricIDs[metricUUID],
			UUID:        metricUUID,
			MetricName:  m.MetricName,
			Expression:  m.Expression,
			Description: m.Description,
			Extra:       encodeJSONField("extra", m.Extra),
		})
	}
	return dm
}

// encodeJSONField re-encodes a structured payload value into the JSON text
// column form. Unencodable values are dropped with a log line.
func encodeJSONField(name string, value interface{}) string {
	if value == nil {
		return ""
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		logger.Infof("Unable to encode `%s` field: %v", name, value)
		return ""
	}
	return string(encoded)
}
