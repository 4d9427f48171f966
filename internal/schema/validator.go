package schema

import (
	"context"
	"fmt"
	"strings"

	"statquery/domain/core"
	"statquery/ports"
)

// numericTypes is the allow-list of column types eligible for numeric analysis.
var numericTypes = map[string]bool{
	"integer":          true,
	"bigint":           true,
	"smallint":         true,
	"numeric":          true,
	"decimal":          true,
	"real":             true,
	"double precision": true,
	"money":            true,
}

// temporalTypes is the allow-list for time-bucketed analysis.
var temporalTypes = map[string]bool{
	"date":                        true,
	"time without time zone":      true,
	"time with time zone":         true,
	"timestamp without time zone": true,
	"timestamp with time zone":    true,
}

// Validator checks requests against the data source's information catalog
// before any analytical query runs, so type errors surface early.
type Validator struct {
	exec ports.QueryExecutor
}

// NewValidator creates a catalog-backed schema validator
func NewValidator(exec ports.QueryExecutor) *Validator {
	return &Validator{exec: exec}
}

// ValidateTableExists confirms the table is present in the catalog.
func (v *Validator) ValidateTableExists(ctx context.Context, schema, table string) error {
	const query = `SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2`
	result, err := v.exec.Execute(ctx, query, schema, table)
	if err != nil {
		return err
	}
	if result.RowCount == 0 {
		return core.NewTableNotFoundError(schema, table)
	}
	return nil
}

// ValidateColumnExists confirms the column is present, with no constraint on
// its type. Used for group-by columns, which may be of any type.
func (v *Validator) ValidateColumnExists(ctx context.Context, schema, table, column string) error {
	_, err := v.columnType(ctx, schema, table, column)
	return err
}

// ValidateNumericColumn confirms the column exists and carries a numeric type.
func (v *Validator) ValidateNumericColumn(ctx context.Context, schema, table, column string) error {
	return v.validateColumnClass(ctx, schema, table, column, numericTypes, "numeric")
}

// ValidateTemporalColumn confirms the column exists and carries a date/time type.
func (v *Validator) ValidateTemporalColumn(ctx context.Context, schema, table, column string) error {
	return v.validateColumnClass(ctx, schema, table, column, temporalTypes, "temporal")
}

func (v *Validator) validateColumnClass(ctx context.Context, schema, table, column string, allowed map[string]bool, class string) error {
	actual, err := v.columnType(ctx, schema, table, column)
	if err != nil {
		return err
	}
	if !allowed[actual] {
		return core.NewTypeMismatchError(column, actual, class)
	}
	return nil
}

// columnType fetches the declared data type, distinguishing a missing table
// from a missing column.
func (v *Validator) columnType(ctx context.Context, schema, table, column string) (string, error) {
	const query = `SELECT data_type FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2 AND column_name = $3`
	result, err := v.exec.Execute(ctx, query, schema, table, column)
	if err != nil {
		return "", err
	}
	if result.RowCount > 0 {
		return strings.ToLower(dataTypeString(result.Rows[0]["data_type"])), nil
	}

	if err := v.ValidateTableExists(ctx, schema, table); err != nil {
		return "", err
	}
	return "", core.NewColumnNotFoundError(fmt.Sprintf("%s.%s", schema, table), column)
}

func dataTypeString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}
