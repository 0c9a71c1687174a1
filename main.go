package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"datamanageapi/bootstrap"
	"datamanageapi/config"
	"datamanageapi/controllers"
	_ "datamanageapi/docs"
	"datamanageapi/pkg/logger"
	"datamanageapi/services"
	"datamanageapi/services/importer"
	"datamanageapi/services/job"
	"datamanageapi/services/session"
	"datamanageapi/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           datamanageapi
// @version         1.0
// @description     Datamanage API

// @BasePath  /api

func main() {
	// 1) Load config
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("LoadConfig error: %v", err)
	}

	// 2) Connect DB (GORM)
	if err := config.ConnectDB(); err != nil {
		log.Fatalf("ConnectDB error: %v", err)
	}
	if config.DB == nil {
		log.Fatal("Database is nil after ConnectDB")
	}

	if err := bootstrap.LoadData(); err != nil {
		log.Fatalf("Load data error: %v", err)
	}

	controllers.SetDatamanageService(services.NewDatamanageService())
	controllers.SetExportService(services.NewExportService())
	controllers.SetImportService(importer.NewImportService())
	controllers.SetSessionService(session.NewSessionService())

	// 3) Init structured logger with config
	logLevel := logger.ParseLogLevel(config.Cfg.LogLevel)
	logger.InitWithConfig(
		config.Cfg.LogFile,
		logLevel,
		config.Cfg.LogMaxSize,
		config.Cfg.LogMaxBackups,
		config.Cfg.LogMaxAge,
		config.Cfg.LogCompress,
	)
	logger.Infof("Starting Datamanage API with log level: %s", config.Cfg.LogLevel)

	// 4) Setup Gin
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(utils.LoggerMiddleware())

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			controllers.RegisterUserRoutes(v1)
			controllers.RegisterDatamanageRoutes(v1)
			controllers.RegisterJobRoutes(v1)
		}
	}

	// 5) Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 6) Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Infof("Received shutdown signal, stopping import job monitor...")

		job.GetImportJobMonitor().Stop()

		logger.Infof("Application shutdown complete")
		os.Exit(0)
	}()

	// 7) Run
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	logger.Infof("Starting server at port %s", port)
	router.Run("0.0.0.0:" + port)
}
