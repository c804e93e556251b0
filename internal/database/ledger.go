package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"pcoscare/internal/middleware"

	"gorm.io/gorm"
)

// AppliedMigration is a row of the schema_migrations ledger.
type AppliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime;index"`
}

// TableName pins the ledger table name.
func (AppliedMigration) TableName() string {
	return "schema_migrations"
}

func scriptChecksum(script string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(script)))
	return hex.EncodeToString(sum[:])
}

func readLedger(ctx context.Context, db *gorm.DB) ([]AppliedMigration, error) {
	var rows []AppliedMigration
	if err := db.WithContext(ctx).Order("version ASC").Find(&rows).Error; err != nil {
		if isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return rows, nil
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// MigrationPlan compares the ledger with the migrations compiled into this build.
type MigrationPlan struct {
	Applied []AppliedMigration
	Pending []Migration
	// Unknown holds ledger versions this build has no script for.
	Unknown []int
	// Edited holds versions whose script changed after it was applied.
	Edited []int
}

func planMigrations(applied []AppliedMigration, registered []Migration) MigrationPlan {
	plan := MigrationPlan{Applied: applied}
	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, row := range applied {
		byVersion[row.Version] = row
	}

	known := make(map[int]struct{}, len(registered))
	for _, m := range registered {
		known[m.Version] = struct{}{}
		row, ok := byVersion[m.Version]
		switch {
		case !ok:
			plan.Pending = append(plan.Pending, m)
		case row.Checksum != "" && row.Checksum != scriptChecksum(m.UpScript):
			plan.Edited = append(plan.Edited, m.Version)
		}
	}
	for _, row := range applied {
		if _, ok := known[row.Version]; !ok {
			plan.Unknown = append(plan.Unknown, row.Version)
		}
	}
	sort.Ints(plan.Unknown)
	return plan
}

// Err reports ledger drift that makes applying the plan unsafe.
func (p MigrationPlan) Err() error {
	var problems []string
	if len(p.Unknown) > 0 {
		problems = append(problems, "versions missing from this build: "+joinVersions(p.Unknown))
	}
	if len(p.Edited) > 0 {
		problems = append(problems, "scripts edited after being applied: "+joinVersions(p.Edited))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("schema_migrations drift (%s); restore the scripts or recreate the development database", strings.Join(problems, "; "))
}

func joinVersions(versions []int) string {
	parts := make([]string, 0, len(versions))
	for _, v := range versions {
		parts = append(parts, fmt.Sprintf("%06d", v))
	}
	return strings.Join(parts, ", ")
}

// PlanMigrations reads the ledger and diffs it against the embedded migrations.
func PlanMigrations(ctx context.Context, db *gorm.DB) (MigrationPlan, error) {
	rows, err := readLedger(ctx, db)
	if err != nil {
		return MigrationPlan{}, err
	}
	return planMigrations(rows, migrations), nil
}

// RunMigrations applies every pending embedded migration, each in its own transaction.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return runMigrations(ctx, db, migrations)
}

func runMigrations(ctx context.Context, db *gorm.DB, registered []Migration) error {
	if err := db.WithContext(ctx).AutoMigrate(&AppliedMigration{}); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	rows, err := readLedger(ctx, db)
	if err != nil {
		return err
	}
	plan := planMigrations(rows, registered)
	if err := plan.Err(); err != nil {
		return err
	}

	for i := range plan.Pending {
		m := &plan.Pending[i]
		middleware.Logger.Info("Applying migration", slog.String("migration", m.String()))
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return fmt.Errorf("apply %s: %w", m, err)
			}
			return tx.Create(&AppliedMigration{Version: m.Version, Name: m.Name, Checksum: scriptChecksum(m.UpScript)}).Error
		})
		if err != nil {
			return err
		}
	}
	if len(plan.Pending) == 0 {
		middleware.Logger.Debug("Schema migrations up to date", slog.Int("applied", len(rows)))
	}
	return nil
}

// ErrNotLatest is returned when rolling back anything but the newest applied version.
var ErrNotLatest = errors.New("only the most recently applied migration can be rolled back")

// RollbackMigration runs the down script of version, which must be the newest applied one.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return rollbackMigration(ctx, db, migrations, version)
}

func rollbackMigration(ctx context.Context, db *gorm.DB, registered []Migration, version int) error {
	var m *Migration
	for i := range registered {
		if registered[i].Version == version {
			m = &registered[i]
			break
		}
	}
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	rows, err := readLedger(ctx, db)
	if err != nil {
		return err
	}
	applied := false
	for _, row := range rows {
		if row.Version == version {
			applied = true
			break
		}
	}
	if !applied {
		return fmt.Errorf("migration %s has not been applied", m)
	}
	if newest := rows[len(rows)-1].Version; newest != version {
		return fmt.Errorf("%w: newest is %06d", ErrNotLatest, newest)
	}

	middleware.Logger.Info("Rolling back migration", slog.String("migration", m.String()))
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("roll back %s: %w", m, err)
		}
		return tx.Where("version = ?", version).Delete(&AppliedMigration{}).Error
	})
}
