package repository

import (
	"datamanageapi/config"
	"datamanageapi/models"

	"gorm.io/gorm"
)

// UserRepository provides data access operations for user accounts.
type UserRepository interface {
	GetByID(tx *gorm.DB, id uint) (*models.User, error)
	GetByIDs(tx *gorm.DB, ids []uint) ([]models.User, error)
	GetByUsername(tx *gorm.DB, username string) (*models.User, error)
	GetAll(tx *gorm.DB) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance.
func NewUserRepository() UserRepository {
	return &userRepository{
		db: config.DB,
	}
}

func (r *userRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *userRepository) GetByID(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := r.conn(tx).Preload("Roles").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(tx *gorm.DB, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.conn(tx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetByUsername(tx *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := r.conn(tx).Preload("Roles").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetAll(tx *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := r.conn(tx).Preload("Roles").Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
