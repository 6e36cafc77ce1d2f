package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBStoresAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, err := conn.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS state (\n bucket TEXT PRIMARY KEY)", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := conn.Tables["state"]; !ok {
		t.Fatalf("expected state table registered, got %v", conn.Tables)
	}

	upsert := "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{"[]", "[1]"} {
		if _, err := conn.ExecContext(ctx, upsert, []driver.NamedValue{{Value: "incidents"}, {Value: payload}}); err != nil {
			t.Fatalf("ExecContext insert: %v", err)
		}
	}
	if len(conn.Tables["state"]) != 1 {
		t.Fatalf("expected upsert to replace the row, got %v", conn.Tables["state"])
	}
	row, ok := conn.Row("state", "bucket", "incidents")
	if !ok || row["payload"] != "[1]" {
		t.Fatalf("unexpected row %v", row)
	}

	rows, err := conn.QueryContext(ctx, "SELECT bucket, payload FROM state", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer func() { _ = rows.Close() }()

	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != "incidents" || dest[1] != "[1]" {
		t.Fatalf("unexpected row values: %v", dest)
	}
}

func TestStubParseErrors(t *testing.T) {
	if _, err := parseCreate("CREATE TABLE"); err == nil {
		t.Fatalf("expected create parse error")
	}
	if _, _, err := parseInsert("INSERT INTO state VALUES"); err == nil {
		t.Fatalf("expected insert parse error")
	}
	if _, _, err := parseSelect("SELECT bucket"); err == nil {
		t.Fatalf("expected select parse error")
	}
}
