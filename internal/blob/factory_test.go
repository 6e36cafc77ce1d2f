package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	info, err := store.Put(ctx, "exports/e1/report.csv", strings.NewReader("a,b\n1,2\n"), PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"template": "tourism/trains@1.0.0"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 8 || info.ContentType != "text/csv" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "exports/e1/report.csv", bytes.NewReader(nil), PutOptions{}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, rc, err := store.Get(ctx, "exports/e1/report.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "a,b\n1,2\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if got.Metadata["template"] != "tourism/trains@1.0.0" {
		t.Fatalf("metadata lost: %+v", got.Metadata)
	}
	if _, err := store.Put(ctx, "other/x", strings.NewReader("x"), PutOptions{}); err != nil {
		t.Fatalf("second put: %v", err)
	}
	list, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "exports/e1/report.csv" {
		t.Fatalf("unexpected list %+v", list)
	}
	if _, err := store.Head(ctx, "exports/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	deleted, err := store.Delete(ctx, "exports/e1/report.csv")
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "exports/e1/report.csv")
	if err != nil || deleted {
		t.Fatalf("second delete should report missing: %v %v", deleted, err)
	}
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	exerciseStore(t, mem)

	fsStore, err := Open(ctx, Config{FSRoot: t.TempDir(), BaseURL: "http://localhost:8080/artifacts"})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if fsStore.Driver() != DriverFilesystem {
		t.Fatalf("empty driver should default to fs, got %s", fsStore.Driver())
	}
	exerciseStore(t, fsStore)

	exerciseStore(t, NewMockS3ForTests())

	if _, err := Open(ctx, Config{Driver: "gcs"}); err == nil || !strings.Contains(err.Error(), "unknown blob driver") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
