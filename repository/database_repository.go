package repository

import (
	"datamanageapi/config"
	"datamanageapi/models"

	"gorm.io/gorm"
)

// DatabaseRepository provides data access operations for registered databases.
type DatabaseRepository interface {
	GetByID(tx *gorm.DB, id uint) (*models.Database, error)
	GetByUUID(tx *gorm.DB, uuid string) (*models.Database, error)

	// TableExists reports whether the named table exists in the metadata
	// store. Used to decide whether imported CSV data must be loaded.
	TableExists(tx *gorm.DB, tableName string) (bool, error)
}

type databaseRepository struct {
	db *gorm.DB
}

// NewDatabaseRepository creates a new database registry repository instance.
func NewDatabaseRepository() DatabaseRepository {
	return &databaseRepository{
		db: config.DB,
	}
}

func (r *databaseRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *databaseRepository) GetByID(tx *gorm.DB, id uint) (*models.Database, error) {
	var database models.Database
	if err := r.conn(tx).Where("id = ?", id).First(&database).Error; err != nil {
		return nil, err
	}
	return &database, nil
}

func (r *databaseRepository) GetByUUID(tx *gorm.DB, uuid string) (*models.Database, error) {
	var database models.Database
	if err := r.conn(tx).Where("uuid = ?", uuid).First(&database).Error; err != nil {
		return nil, err
	}
	return &database, nil
}

func (r *databaseRepository) TableExists(tx *gorm.DB, tableName string) (bool, error) {
	return r.conn(tx).Migrator().HasTable(tableName), nil
}
