package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/educacao-adventista/matriculometro/internal/config"
	"github.com/educacao-adventista/matriculometro/internal/db"
	"github.com/educacao-adventista/matriculometro/internal/repository"
	"github.com/educacao-adventista/matriculometro/internal/service"
	"github.com/educacao-adventista/matriculometro/internal/storage"
)

type App struct {
	Cfg         *config.Config
	DB          *sqlx.DB
	GoalService *service.GoalService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Snapshot storage for imports
	snapshots, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	goalRepository := repository.NewGoalRepository(database)
	goalService := service.NewGoalService(goalRepository, snapshots)

	return &App{
		Cfg:         cfg,
		DB:          database,
		GoalService: goalService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
