package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	product "github.com/workoutbrothers/storefront-backend/internal/products"
	"github.com/workoutbrothers/storefront-backend/pkg/config"
	"github.com/workoutbrothers/storefront-backend/pkg/db"
	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "command: up|down|status|version|create|validate|seed")
	dir := flag.String("dir", "", "migrations directory on disk (default: embedded set; create writes to "+migrate.DefaultDir+")")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version YYYYMMDDHHMMSS (for version)")
	seedStock := flag.Int("stock", 999, "initial stock per product (for seed)")
	flag.Parse()

	// create and validate work on files only.
	switch *cmd {
	case "create":
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, *name, time.Now())
		exitOn("create migration", err)
		fmt.Println("created migration:", path)
		return
	case "validate":
		exitOn("validate migrations", migrate.Validate(migrate.Source(*dir)))
		fmt.Println("migrations valid")
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	exitOn("load config", err)

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn("connect database", err)
	defer dbClient.Close()

	if *cmd == "seed" {
		inserted, err := product.SeedStarterCatalog(ctx, dbClient.DB(), *seedStock)
		exitOn("seed catalog", err)
		logg.Info(logg.WithField(ctx, "inserted", inserted), "starter catalog seeded")
		return
	}

	// Goose files target Postgres; sqlite gets its schema from the models.
	if dbClient.IsSQLite() {
		if *cmd != "up" {
			exitOn("migrate", fmt.Errorf("-cmd=%s is not supported on sqlite", *cmd))
		}
		exitOn("sqlite automigrate", dbClient.DB().WithContext(ctx).AutoMigrate(models.All()...))
		logg.Info(ctx, "sqlite schema migrated")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	exitOn("open sql database", err)

	runner, err := migrate.NewRunner(sqlDB, migrate.Source(*dir), logg)
	exitOn("create migration runner", err)

	switch *cmd {
	case "up":
		exitOn("migrate up", runner.Up(ctx))
	case "down":
		exitOn("migrate down", runner.Down(ctx))
	case "version":
		if *version == "" {
			exitOn("migrate to version", fmt.Errorf("missing -version"))
		}
		exitOn("migrate to version", runner.ToVersion(ctx, *version))
	case "status":
		rows, err := runner.Status(ctx)
		exitOn("migration status", err)
		printStatus(rows)
	default:
		exitOn("migrate", fmt.Errorf("unknown -cmd value %q", *cmd))
	}
}

func printStatus(rows []migrate.Status) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tAPPLIED AT\tFILE")
	for _, row := range rows {
		applied := "pending"
		if row.Applied {
			applied = row.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", row.Version, applied, row.File)
	}
	w.Flush()
}

func exitOn(step string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}
