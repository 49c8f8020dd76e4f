package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/KumarDhananjaya/Spendly/internal/config"
	"github.com/KumarDhananjaya/Spendly/internal/database"
	"github.com/KumarDhananjaya/Spendly/internal/router"
)

func main() {
	// load configuration: spendly.yaml, .env and SPENDLY_* variables
	cfg, err := config.Load(os.Getenv("SPENDLY_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var out io.Writer = os.Stdout
	if cfg.Log.File != "" {
		if err := ensureDir(filepath.Dir(cfg.Log.File)); err != nil {
			log.Fatalf("create log dir: %v", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
	}
	logger := config.NewLogger(cfg.Log, out)

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "change-me" {
		logger.Warn("jwt.secret is not set; tokens are signed with the default secret")
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	r := router.SetupRouter(cfg, db, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	logger.Info("server listening", "addr", addr, "driver", cfg.Database.Driver)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
