package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pcoscare/internal/config"
	"pcoscare/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes select how the schema is brought up to date at startup.
// hybrid runs the SQL migrations and, outside production, AutoMigrate on top.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPolicy is the resolved DB_SCHEMA_MODE for one environment.
type SchemaPolicy struct {
	Mode    string
	RunSQL  bool
	RunAuto bool
}

// ResolveSchemaPolicy decides which schema steps run for cfg. AutoMigrate is
// refused in production-like environments unless explicitly allowed.
func ResolveSchemaPolicy(cfg *config.Config) (SchemaPolicy, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	env := strings.ToLower(strings.TrimSpace(cfg.Env))
	prodLike := env == "production" || env == "prod" || env == "staging" || env == "stage"

	p := SchemaPolicy{Mode: mode}
	switch mode {
	case SchemaModeSQL:
		p.RunSQL = true
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return p, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		p.RunAuto = true
	case SchemaModeHybrid:
		p.RunSQL = true
		p.RunAuto = !prodLike
	default:
		return p, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
	return p, nil
}

// ApplySchema brings the database up to date and then verifies that every
// domain table and guarded column exists.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	policy, err := ResolveSchemaPolicy(cfg)
	if err != nil {
		return err
	}

	if policy.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if policy.RunAuto {
		if cfg.DBAutoMigrateAllowDestructive && policy.Mode == SchemaModeAuto {
			middleware.Logger.Warn("AutoMigrate allowed in a production-like environment; review schema diffs before deploying",
				slog.String("env", cfg.Env))
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", policy.Mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	report, err := InspectSchema(ctx, db)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if err := report.Err(); err != nil {
		middleware.Logger.Error("Schema verification failed",
			slog.Any("missing_tables", report.MissingTables),
			slog.Any("missing_checks", report.MissingChecks))
		return err
	}
	return nil
}

// SchemaStatus is what cmd/migrate status prints.
type SchemaStatus struct {
	Policy      SchemaPolicy
	Environment string
	Migrations  MigrationPlan
	Schema      *SchemaReport
}

// GetSchemaStatus reports the configured policy, the migration ledger and the
// live schema without changing anything.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	policy, err := ResolveSchemaPolicy(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{Policy: policy, Environment: cfg.Env}

	if policy.RunSQL {
		if status.Migrations, err = PlanMigrations(ctx, db); err != nil {
			return nil, err
		}
	}
	if status.Schema, err = InspectSchema(ctx, db); err != nil {
		return nil, err
	}
	return status, nil
}
