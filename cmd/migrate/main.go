// Command migrate applies, inspects and rolls back the DevConnect schema.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"devconnect/internal/config"
	"devconnect/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

var errUsage = errors.New(`usage: migrate <command>
  up              apply pending SQL migrations
  auto            sync tables from the GORM models
  status          show the schema mode and pending migrations
  down <version>  roll back one applied migration`)

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		log.Println("schema is up to date")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("sync models: %w", err)
		}
		log.Println("tables synced from models")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("read schema status: %w", err)
		}
		log.Printf("mode=%s env=%s driver=%s run_sql=%t run_auto=%t applied=%d pending=%d",
			status.Mode, status.Environment, status.Driver, status.WillRunSQL, status.WillRunAutoMigrate,
			len(status.AppliedVersions), len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			log.Printf("pending: %06d_%s", m.Version, m.Name)
		}
	case "down":
		if flag.NArg() < 2 {
			return fmt.Errorf("down needs a migration version\n%w", errUsage)
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("migration version %q is not a number", flag.Arg(1))
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("roll back %06d: %w", version, err)
		}
		log.Printf("migration %06d rolled back", version)
	default:
		return errUsage
	}

	return nil
}
