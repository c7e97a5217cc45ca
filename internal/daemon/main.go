// Package daemon opens the database and runs the web service.
package daemon

import (
	"context"
	"fmt"
	"strconv"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dirauth/dirauth/internal/auth"
	"github.com/dirauth/dirauth/internal/config"
	"github.com/dirauth/dirauth/internal/db/controller/ldapconfig"
	"github.com/dirauth/dirauth/internal/db/dsn"
	"github.com/dirauth/dirauth/internal/db/models"
	"github.com/dirauth/dirauth/internal/directory"
	"github.com/dirauth/dirauth/internal/web"
	"github.com/dirauth/dirauth/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start serves http on the configured port until a shutdown signal arrives.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(":" + strconv.Itoa(d.cfg.Webserver.Port))
}

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return gormmysql.Open(dsn.Create(cfg)), nil
	case config.EnginePostgres:
		return postgres.Open(dsn.Create(cfg)), nil
	case config.EngineSQLite:
		return sqlite.Open(dsn.Create(cfg)), nil
	}

	return nil, fmt.Errorf("%w: %q", config.ErrUnknownDBEngine, cfg.DB.GormEngine)
}

// OpenDB connects to the configured database and migrates the schema.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if cfg.DevMode {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// sqlite serialises writers, and every ":memory:" connection is its own database
	if cfg.DB.GormEngine == config.EngineSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	if err = db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// NewEnv wires the stores and services the handlers and commands share.
func NewEnv(cfg *config.Config, db *gorm.DB) *handler.Env {
	store := ldapconfig.New(db)
	dir := directory.New(store, directory.LDAPDialer{})

	return &handler.Env{
		Config:     cfg,
		DB:         db,
		Auth:       auth.NewService(db, dir, cfg.Auth),
		Directory:  dir,
		LDAPConfig: store,
	}
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrNilConfig
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	env := NewEnv(cfg, db)

	if err = seed(context.Background(), cfg, env); err != nil {
		return nil, err
	}

	webService, err := web.New(cfg, env)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("engine", cfg.DB.GormEngine).
		Int("port", cfg.Webserver.Port).
		Msg("daemon initialised")

	return &Daemon{cfg: cfg, webService: webService}, nil
}
