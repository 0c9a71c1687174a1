package config

import (
	"fmt"

	"datamanageapi/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DB is the global GORM database instance used throughout the application.
var DB *gorm.DB

// ConnectDB establishes the database connection using GORM. In embedded mode
// an in-memory MySQL server is started first and the connection points at it.
func ConnectDB() error {
	host, port := Cfg.DBHost, Cfg.DBPort

	if Cfg.DBEmbedded {
		embeddedPort, err := StartEmbeddedDB(Cfg.DBName, Cfg.DBEmbeddedPort)
		if err != nil {
			return fmt.Errorf("failed to start embedded database: %w", err)
		}
		host, port = "127.0.0.1", embeddedPort
	}

	logger.Infof("Connecting to database %s@%s:%d/%s", Cfg.DBUser, host, port, Cfg.DBName)

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		Cfg.DBUser,
		Cfg.DBPass,
		host,
		port,
		Cfg.DBName,
	)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Errorf("GORM connection failed: %v", err)
		return err
	}
	logger.Infof("GORM connected successfully to database %s", Cfg.DBName)

	DB = db
	return nil
}
