package repository

import (
	"datamanageapi/config"
	"datamanageapi/models"

	"gorm.io/gorm"
)

// DatamanageRepository provides data access operations for dataset records.
// All methods accept an optional transaction; nil falls back to the shared
// connection.
type DatamanageRepository interface {
	GetByID(tx *gorm.DB, id uint) (*models.Datamanage, error)
	GetByUUID(tx *gorm.DB, uuid string) (*models.Datamanage, error)
	List(tx *gorm.DB, offset, limit int) ([]models.Datamanage, int64, error)
	Create(tx *gorm.DB, dm *models.Datamanage) error
	Save(tx *gorm.DB, dm *models.Datamanage) error
	Delete(tx *gorm.DB, dm *models.Datamanage) error

	// CountByDatabaseIDAndName counts datasets in a database carrying the
	// given name, excluding excludeID. Used for uniqueness validation.
	CountByDatabaseIDAndName(tx *gorm.DB, databaseID uint, name string, excludeID uint) (int64, error)

	// CountOwnedColumns counts how many of the given column ids belong to the
	// dataset. Equal to len(ids) exactly when every id is valid.
	CountOwnedColumns(tx *gorm.DB, datamanageID uint, ids []uint) (int64, error)
	// CountColumnsByName counts existing dataset columns carrying any of the
	// given names. Non-zero means a new column would collide.
	CountColumnsByName(tx *gorm.DB, datamanageID uint, names []string) (int64, error)
	CountOwnedMetrics(tx *gorm.DB, datamanageID uint, ids []uint) (int64, error)
	CountMetricsByName(tx *gorm.DB, datamanageID uint, names []string) (int64, error)

	// ReplaceColumns synchronizes the column set: association rows are
	// replaced and column rows dropped from the dataset are deleted.
	ReplaceColumns(tx *gorm.DB, dm *models.Datamanage, columns []models.Column) error
	ReplaceMetrics(tx *gorm.DB, dm *models.Datamanage, metrics []models.Metric) error
	ReplaceOwners(tx *gorm.DB, dm *models.Datamanage, owners []models.User) error
	AppendOwner(tx *gorm.DB, dm *models.Datamanage, owner *models.User) error
}

type datamanageRepository struct {
	db *gorm.DB
}

// NewDatamanageRepository creates a new dataset repository instance.
func NewDatamanageRepository() DatamanageRepository {
	return &datamanageRepository{
		db: config.DB,
	}
}

// NewDatamanageRepositoryWithDB creates a repository bound to a specific
// connection. Used by tests running against a scratch database.
func NewDatamanageRepositoryWithDB(db *gorm.DB) DatamanageRepository {
	return &datamanageRepository{db: db}
}

func (r *datamanageRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *datamanageRepository) GetByID(tx *gorm.DB, id uint) (*models.Datamanage, error) {
	var dm models.Datamanage
	if err := r.conn(tx).
		Preload("Columns").
		Preload("Metrics").
		Preload("Tables").
		Preload("Owners").
		Preload("Database").
		Where("id = ?", id).
		First(&dm).Error; err != nil {
		return nil, err
	}
	return &dm, nil
}

func (r *datamanageRepository) GetByUUID(tx *gorm.DB, uuid string) (*models.Datamanage, error) {
	var dm models.Datamanage
	if err := r.conn(tx).
		Preload("Columns").
		Preload("Metrics").
		Preload("Owners").
		Preload("Database").
		Where("uuid = ?", uuid).
		First(&dm).Error; err != nil {
		return nil, err
	}
	return &dm, nil
}

func (r *datamanageRepository) List(tx *gorm.DB, offset, limit int) ([]models.Datamanage, int64, error) {
	db := r.conn(tx)
	var total int64
	if err := db.Model(&models.Datamanage{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var dms []models.Datamanage
	if err := db.
		Preload("Owners").
		Preload("Database").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&dms).Error; err != nil {
		return nil, 0, err
	}
	return dms, total, nil
}

func (r *datamanageRepository) Create(tx *gorm.DB, dm *models.Datamanage) error {
	return r.conn(tx).Create(dm).Error
}

func (r *datamanageRepository) Save(tx *gorm.DB, dm *models.Datamanage) error {
	// Associations are synchronized explicitly via the Replace* methods, so
	// plain column updates must not touch them here.
	return r.conn(tx).Omit("Columns", "Metrics", "Tables", "Owners").Save(dm).Error
}

func (r *datamanageRepository) Delete(tx *gorm.DB, dm *models.Datamanage) error {
	db := r.conn(tx)
	// Association rows cascade; column and metric rows are exclusive to the
	// dataset and are removed with it.
	if err := db.Model(dm).Association("Owners").Clear(); err != nil {
		return err
	}
	if err := db.Model(dm).Association("Tables").Clear(); err != nil {
		return err
	}
	if len(dm.Columns) > 0 {
		if err := db.Model(dm).Association("Columns").Clear(); err != nil {
			return err
		}
		if err := db.Delete(&dm.Columns).Error; err != nil {
			return err
		}
	}
	if len(dm.Metrics) > 0 {
		if err := db.Model(dm).Association("Metrics").Clear(); err != nil {
			return err
		}
		if err := db.Delete(&dm.Metrics).Error; err != nil {
			return err
		}
	}
	return db.Delete(dm).Error
}

func (r *datamanageRepository) CountByDatabaseIDAndName(tx *gorm.DB, databaseID uint, name string, excludeID uint) (int64, error) {
	var count int64
	if err := r.conn(tx).Model(&models.Datamanage{}).
		Where("database_id = ? AND name = ? AND id <> ?", databaseID, name, excludeID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *datamanageRepository) CountOwnedColumns(tx *gorm.DB, datamanageID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.conn(tx).Table("sl_datamanage_columns").
		Where("datamanage_id = ? AND column_id IN ?", datamanageID, ids).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *datamanageRepository) CountColumnsByName(tx *gorm.DB, datamanageID uint, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.conn(tx).Table("sl_columns").
		Joins("JOIN sl_datamanage_columns ON sl_datamanage_columns.column_id = sl_columns.id").
		Where("sl_datamanage_columns.datamanage_id = ? AND sl_columns.column_name IN ?", datamanageID, names).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *datamanageRepository) CountOwnedMetrics(tx *gorm.DB, datamanageID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.conn(tx).Table("sl_datamanage_metrics").
		Where("datamanage_id = ? AND metric_id IN ?", datamanageID, ids).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *datamanageRepository) CountMetricsByName(tx *gorm.DB, datamanageID uint, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.conn(tx).Table("sl_metrics").
		Joins("JOIN sl_datamanage_metrics ON sl_datamanage_metrics.metric_id = sl_metrics.id").
		Where("sl_datamanage_metrics.datamanage_id = ? AND sl_metrics.metric_name IN ?", datamanageID, names).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *datamanageRepository) ReplaceColumns(tx *gorm.DB, dm *models.Datamanage, columns []models.Column) error {
	db := r.conn(tx)
	kept := make(map[uint]bool, len(columns))
	for i := range columns {
		if columns[i].ID != 0 {
			kept[columns[i].ID] = true
		}
	}
	// Columns dropped from the dataset are orphans and must be deleted, not
	// just disassociated.
	var orphans []models.Column
	for _, existing := range dm.Columns {
		if !kept[existing.ID] {
			orphans = append(orphans, existing)
		}
	}
	ptrs := make([]*models.Column, len(columns))
	for i := range columns {
		ptrs[i] = &columns[i]
	}
	if err := db.Model(dm).Association("Columns").Replace(ptrs); err != nil {
		return err
	}
	if len(orphans) > 0 {
		if err := db.Delete(&orphans).Error; err != nil {
			return err
		}
	}
	dm.Columns = columns
	return nil
}

func (r *datamanageRepository) ReplaceMetrics(tx *gorm.DB, dm *models.Datamanage, metrics []models.Metric) error {
	db := r.conn(tx)
	kept := make(map[uint]bool, len(metrics))
	for i := range metrics {
		if metrics[i].ID != 0 {
			kept[metrics[i].ID] = true
		}
	}
	var orphans []models.Metric
	for _, existing := range dm.Metrics {
		if !kept[existing.ID] {
			orphans = append(orphans, existing)
		}
	}
	ptrs := make([]*models.Metric, len(metrics))
	for i := range metrics {
		ptrs[i] = &metrics[i]
	}
	if err := db.Model(dm).Association("Metrics").Replace(ptrs); err != nil {
		return err
	}
	if len(orphans) > 0 {
		if err := db.Delete(&orphans).Error; err != nil {
			return err
		}
	}
	dm.Metrics = metrics
	return nil
}

func (r *datamanageRepository) ReplaceOwners(tx *gorm.DB, dm *models.Datamanage, owners []models.User) error {
	ptrs := make([]*models.User, len(owners))
	for i := range owners {
		ptrs[i] = &owners[i]
	}
	if err := r.conn(tx).Model(dm).Association("Owners").Replace(ptrs); err != nil {
		return err
	}
	dm.Owners = owners
	return nil
}

func (r *datamanageRepository) AppendOwner(tx *gorm.DB, dm *models.Datamanage, owner *models.User) error {
	if dm.OwnedBy(owner.ID) {
		return nil
	}
	if err := r.conn(tx).Model(dm).Association("Owners").Append(owner); err != nil {
		return err
	}
	dm.Owners = append(dm.Owners, *owner)
	return nil
}
