package main

import (
	"errors"
	"flag"

	"guard-core/pkg/config"
	"guard-core/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

func main() {
	var command string
	var version int
	var source string
	flag.StringVar(&command, "cmd", "up", "Command to run: up, down, force, version")
	flag.IntVar(&version, "v", -1, "Version for force command")
	flag.StringVar(&source, "path", "file://migrations", "Migration source URL")
	flag.Parse()

	// 加载配置
	config.Init()
	logger.Init(config.Global.App.Env, config.Global.App.LogLevel)
	defer logger.Sync()

	m, err := migrate.New(source, config.Global.DB.MigrateURL())
	if err != nil {
		logger.Fatal("Migration init failed", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("Migration up failed", zap.Error(err))
		}
		logger.Info("Migration up done")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("Migration down failed", zap.Error(err))
		}
		logger.Info("Migration down done")
	case "force":
		if version == -1 {
			logger.Fatal("Version (-v) is required for force command")
		}
		if err := m.Force(version); err != nil {
			logger.Fatal("Migration force failed", zap.Error(err))
		}
		logger.Info("Migration version forced", zap.Int("version", version))
	case "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			logger.Fatal("Migration version failed", zap.Error(err))
		}
		logger.Info("Migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	default:
		logger.Fatal("Unknown command", zap.String("cmd", command))
	}
}
