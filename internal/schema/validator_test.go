package schema

import (
	"context"
	"strings"
	"testing"

	"statquery/domain/core"
	"statquery/internal/testkit"
)

func TestValidateNumericColumnAccepted(t *testing.T) {
	for _, dataType := range []string{"integer", "bigint", "numeric", "double precision", "money"} {
		exec := testkit.NewFakeExecutor().
			Script("information_schema.columns", []map[string]any{{"data_type": dataType}})

		v := NewValidator(exec)
		if err := v.ValidateNumericColumn(context.Background(), "public", "orders", "total"); err != nil {
			t.Fatalf("type %q: %v", dataType, err)
		}
	}
}

func TestValidateNumericColumnTypeMismatch(t *testing.T) {
	exec := testkit.NewFakeExecutor().
		Script("information_schema.columns", []map[string]any{{"data_type": "text"}})

	v := NewValidator(exec)
	err := v.ValidateNumericColumn(context.Background(), "public", "orders", "status")
	if err == nil {
		t.Fatal("expected a type mismatch error")
	}
	if !core.IsTypeMismatchError(err) {
		t.Fatalf("expected a type mismatch error, got %v", err)
	}
	if !strings.Contains(err.Error(), "text") || !strings.Contains(err.Error(), "status") {
		t.Fatalf("error should name the column and its actual type: %v", err)
	}
}

func TestValidateColumnNotFound(t *testing.T) {
	exec := testkit.NewFakeExecutor().
		Script("information_schema.columns", nil).
		Script("information_schema.tables", []map[string]any{{"?column?": 1}})

	v := NewValidator(exec)
	err := v.ValidateNumericColumn(context.Background(), "public", "orders", "missing")
	if err == nil {
		t.Fatal("expected a column-not-found error")
	}
	if !core.IsNotFoundError(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Fatalf("error should name the column: %v", err)
	}
}

func TestValidateTableNotFound(t *testing.T) {
	exec := testkit.NewFakeExecutor().
		Script("information_schema.columns", nil).
		Script("information_schema.tables", nil)

	v := NewValidator(exec)
	err := v.ValidateNumericColumn(context.Background(), "public", "ghosts", "value")
	if err == nil {
		t.Fatal("expected a table-not-found error")
	}
	if !core.IsNotFoundError(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
	if !strings.Contains(err.Error(), "ghosts") {
		t.Fatalf("error should name the table: %v", err)
	}
}

func TestValidateTemporalColumn(t *testing.T) {
	exec := testkit.NewFakeExecutor().
		Script("information_schema.columns", []map[string]any{{"data_type": "timestamp with time zone"}})

	v := NewValidator(exec)
	if err := v.ValidateTemporalColumn(context.Background(), "public", "events", "created_at"); err != nil {
		t.Fatal(err)
	}

	exec = testkit.NewFakeExecutor().
		Script("information_schema.columns", []map[string]any{{"data_type": "integer"}})
	v = NewValidator(exec)
	if err := v.ValidateTemporalColumn(context.Background(), "public", "events", "id"); !core.IsTypeMismatchError(err) {
		t.Fatalf("expected a type mismatch for integer, got %v", err)
	}
}

func TestValidateTableExists(t *testing.T) {
	exec := testkit.NewFakeExecutor().
		Script("information_schema.tables", []map[string]any{{"?column?": 1}})

	v := NewValidator(exec)
	if err := v.ValidateTableExists(context.Background(), "public", "orders"); err != nil {
		t.Fatal(err)
	}
}
