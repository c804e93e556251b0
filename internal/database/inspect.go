package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// guardedColumns must carry a CHECK constraint in the live schema. Handlers
// validate these values too, but the database is the last line for rows
// written by seeds, scripts and manual fixes.
var guardedColumns = []string{
	"predictions.prediction",
	"experts.rating",
	"appointments.status",
	"contacts.status",
	"events.status",
}

// SchemaReport describes how far the live schema matches the domain models.
type SchemaReport struct {
	Tables        []string
	MissingTables []string
	// MissingChecks lists table.column pairs without a CHECK constraint.
	MissingChecks []string
}

// OK reports whether every table and guarded column is in place.
func (r *SchemaReport) OK() bool {
	return len(r.MissingTables) == 0 && len(r.MissingChecks) == 0
}

// Err summarises the gaps, or returns nil when the schema is complete.
func (r *SchemaReport) Err() error {
	if r.OK() {
		return nil
	}
	var parts []string
	if len(r.MissingTables) > 0 {
		parts = append(parts, "missing tables: "+strings.Join(r.MissingTables, ", "))
	}
	if len(r.MissingChecks) > 0 {
		parts = append(parts, "unconstrained columns: "+strings.Join(r.MissingChecks, ", "))
	}
	return fmt.Errorf("schema incomplete (%s)", strings.Join(parts, "; "))
}

// InspectSchema checks the live database for every domain table and for the
// CHECK constraints on screening outcomes, ratings and workflow statuses.
func InspectSchema(ctx context.Context, db *gorm.DB) (*SchemaReport, error) {
	tx := db.WithContext(ctx)
	tables, err := TableNames(tx)
	if err != nil {
		return nil, err
	}

	report := &SchemaReport{Tables: tables}
	present := make(map[string]bool, len(tables))
	for _, table := range tables {
		present[table] = tx.Migrator().HasTable(table)
		if !present[table] {
			report.MissingTables = append(report.MissingTables, table)
		}
	}

	checked, err := checkedColumns(tx)
	if err != nil {
		return nil, err
	}
	for _, col := range guardedColumns {
		table, _, _ := strings.Cut(col, ".")
		if present[table] && !checked[col] {
			report.MissingChecks = append(report.MissingChecks, col)
		}
	}
	return report, nil
}

const postgresCheckedColumnsSQL = `
SELECT c.conrelid::regclass::text AS table_name, a.attname AS column_name
FROM pg_constraint c
JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = ANY (c.conkey)
WHERE c.contype = 'c' AND c.connamespace = current_schema()::regnamespace`

type checkedColumnRow struct {
	Table  string `gorm:"column:table_name"`
	Column string `gorm:"column:column_name"`
}

type sqliteTableRow struct {
	Name string `gorm:"column:name"`
	SQL  string `gorm:"column:sql"`
}

// checkedColumns returns the table.column pairs referenced by a CHECK constraint.
func checkedColumns(tx *gorm.DB) (map[string]bool, error) {
	out := make(map[string]bool)
	switch name := tx.Dialector.Name(); name {
	case "postgres":
		var rows []checkedColumnRow
		if err := tx.Raw(postgresCheckedColumnsSQL).Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("list check constraints: %w", err)
		}
		for _, r := range rows {
			out[r.Table+"."+r.Column] = true
		}
	case "sqlite":
		var rows []sqliteTableRow
		if err := tx.Raw("SELECT name, sql FROM sqlite_master WHERE type = 'table' AND sql IS NOT NULL").Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("list sqlite tables: %w", err)
		}
		for _, r := range rows {
			for _, expr := range checkExpressions(r.SQL) {
				for _, ident := range identifierPattern.FindAllString(stringLiteralPattern.ReplaceAllString(expr, ""), -1) {
					out[r.Name+"."+strings.ToLower(ident)] = true
				}
			}
		}
	default:
		return nil, fmt.Errorf("check constraint inspection is not supported on %s", name)
	}
	return out, nil
}

var (
	stringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)
	identifierPattern    = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

// checkExpressions extracts the body of every CHECK (...) clause in a CREATE TABLE statement.
func checkExpressions(ddl string) []string {
	var out []string
	upper := strings.ToUpper(ddl)
	for i := 0; i < len(ddl); {
		j := strings.Index(upper[i:], "CHECK")
		if j < 0 {
			break
		}
		start := i + j + len("CHECK")
		open := strings.IndexByte(ddl[start:], '(')
		if open < 0 {
			break
		}
		if strings.TrimSpace(ddl[start:start+open]) != "" {
			i = start
			continue
		}

		open += start
		depth, end := 0, -1
		for k := open; k < len(ddl) && end < 0; k++ {
			switch ddl[k] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = k
				}
			}
		}
		if end < 0 {
			break
		}
		out = append(out, ddl[open+1:end])
		i = end + 1
	}
	return out
}
