// Command migrate applies, inspects and rolls back the PCOS Care schema.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"pcoscare/internal/config"
	"pcoscare/internal/database"
)

const usageText = "usage: migrate <up|auto|status|verify|down <version>>"

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal(usageText)
	}
	if err := run(flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	cmd := strings.ToLower(strings.TrimSpace(args[0]))
	var version int
	switch cmd {
	case "up", "auto", "status", "verify":
	case "down":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate down <version>")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		version = v
	default:
		return fmt.Errorf("unknown command %q; %s", cmd, usageText)
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
	switch cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status", "verify":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		printStatus(os.Stdout, status)
		if cmd == "verify" {
			if err := status.Migrations.Err(); err != nil {
				return err
			}
			return status.Schema.Err()
		}
	case "down":
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %06d", version)
	}
	return nil
}

func printStatus(w io.Writer, s *database.SchemaStatus) {
	fmt.Fprintf(w, "mode=%s env=%s run_sql=%t run_auto=%t\n", s.Policy.Mode, s.Environment, s.Policy.RunSQL, s.Policy.RunAuto)

	plan := s.Migrations
	if s.Policy.RunSQL {
		fmt.Fprintf(w, "migrations: %d applied, %d pending\n", len(plan.Applied), len(plan.Pending))
		for _, m := range plan.Applied {
			fmt.Fprintf(w, "  applied  %06d_%s  %s\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04"))
		}
		for i := range plan.Pending {
			fmt.Fprintf(w, "  pending  %s\n", plan.Pending[i].String())
		}
		if err := plan.Err(); err != nil {
			fmt.Fprintf(w, "  DRIFT    %v\n", err)
		}
	}

	if s.Schema == nil {
		return
	}
	fmt.Fprintln(w, "tables:")
	for _, table := range s.Schema.Tables {
		mark := "ok"
		if slices.Contains(s.Schema.MissingTables, table) {
			mark = "MISSING"
		}
		fmt.Fprintf(w, "  %-8s %s\n", mark, table)
	}
	if len(s.Schema.MissingChecks) > 0 {
		fmt.Fprintf(w, "unconstrained columns: %s\n", strings.Join(s.Schema.MissingChecks, ", "))
	} else if len(s.Schema.MissingTables) == 0 {
		fmt.Fprintln(w, "check constraints: ok")
	}
}
