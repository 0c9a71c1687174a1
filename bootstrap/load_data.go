package bootstrap

import (
	"fmt"

	"datamanageapi/config"
	"datamanageapi/models"
	"datamanageapi/pkg/logger"
)

// builtinRoles are created on first start when missing.
var builtinRoles = []string{models.AdminRoleName, "Alpha", "Gamma"}

// LoadData migrates the schema and seeds the builtin roles.
func LoadData() error {
	logger.Infof("Starting bootstrap data loading...")

	if err := migrate(); err != nil {
		return err
	}
	if err := seedRoles(); err != nil {
		return err
	}

	logger.Infof("Bootstrap data loading completed successfully")
	return nil
}

func migrate() error {
	err := config.DB.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Database{},
		&models.Table{},
		&models.Column{},
		&models.Metric{},
		&models.Datamanage{},
	)
	if err != nil {
		logger.Errorf("Failed to migrate schema: %v", err)
		return fmt.Errorf("failed to migrate schema: %v", err)
	}
	return nil
}

func seedRoles() error {
	for _, name := range builtinRoles {
		var role models.Role
		if err := config.DB.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			logger.Errorf("Failed to seed role %q: %v", name, err)
			return fmt.Errorf("failed to seed role %q: %v", name, err)
		}
	}
	logger.Infof("Seeded %d builtin roles", len(builtinRoles))
	return nil
}
