package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"robot-fleet-backend/config"
	"robot-fleet-backend/internal/db"
	"robot-fleet-backend/internal/fleet"
	"robot-fleet-backend/internal/store"
)

var (
	cfg    *config.Config
	logger = logrus.New()

	rootCmd = &cobra.Command{
		Use:   "fleetd",
		Short: "Robot fleet backend",
		Long:  "fleetd serves the robot fleet API and runs fleet maintenance commands.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Fatal("fleetd failed")
	}
}

// setup loads .env, the YAML configuration and the logger settings.
func setup() error {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetOutput(os.Stdout)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger.WithField("path", configPath).Info("configuration loaded")
	return nil
}

// newService opens the database, migrates it and builds the fleet service.
func newService() (*fleet.Service, *gorm.DB, error) {
	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.WithField("driver", cfg.Database.Driver).Info("database initialized")

	svc := fleet.NewService(store.NewGormStore(gormDB), logger,
		fleet.WithTelemetryLimit(cfg.Fleet.TelemetryDefaultLimit),
		fleet.WithRetentionDays(cfg.Fleet.TelemetryRetentionDays),
	)
	return svc, gormDB, nil
}

func closeDB(gormDB *gorm.DB) {
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
}
