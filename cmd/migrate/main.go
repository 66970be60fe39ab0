package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/janytree/orderdesk/internal/infrastructure/config"
	"github.com/janytree/orderdesk/internal/infrastructure/logger"
	"github.com/janytree/orderdesk/internal/infrastructure/persistence"
	"github.com/janytree/orderdesk/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath string
		logLevel   string
		limit      int
	)

	flag.StringVar(&configPath, "config", "", "Path to config.toml (default: search ., ./config, /etc/orderdesk)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.IntVar(&limit, "limit", 10, "Number of runs listed by the runs command")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if !cfg.Database.Enabled {
		log.Fatal("Database is disabled; set database.enabled = true")
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("driver", cfg.Database.Driver),
	)

	switch command {
	case "up":
		if err := db.Migrate(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}
		log.Info("Schema is up to date")

	case "status":
		migrator := db.DB.Migrator()
		for _, model := range models.All() {
			stmt := db.DB.Model(model).Statement
			if err := stmt.Parse(model); err != nil {
				log.Fatal("Failed to parse model", zap.Error(err))
			}
			var count int64
			exists := migrator.HasTable(model)
			if exists {
				if err := db.DB.Model(model).Count(&count).Error; err != nil {
					log.Fatal("Failed to count rows", zap.Error(err))
				}
			}
			log.Info("Table status",
				zap.String("table", stmt.Schema.Table),
				zap.Bool("exists", exists),
				zap.Int64("rows", count),
			)
		}

	case "runs":
		runs, err := persistence.NewGormRunRepository(db.DB).FindRecent(context.Background(), limit)
		if err != nil {
			log.Fatal("Failed to list runs", zap.Error(err))
		}
		for _, r := range runs {
			fmt.Printf("%s  %-6s  orders=%d items=%d lines=%d orphans=%d itemless=%d  %s\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source,
				r.Stats.Orders, r.Stats.Items, r.Stats.Lines,
				r.Stats.OrphanItems, r.Stats.ItemlessOrders, r.ID)
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`orderdesk database tool

Usage:
  migrate [flags] <command>

Commands:
  up        Create or update the run history tables
  status    Show each table and its row count
  runs      List the most recent reconciliation runs

Flags:
  -config     Path to config.toml
  -log-level  Log level (debug, info, warn, error)
  -limit      Number of runs listed by the runs command`)
}
