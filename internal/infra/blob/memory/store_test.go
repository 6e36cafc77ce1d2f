package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"lookupdesk/internal/blob/core"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	md := map[string]string{"k": "v"}
	info, err := store.Put(ctx, "a", bytes.NewReader([]byte("data")), core.PutOptions{ContentType: "text/plain", Metadata: md})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	md["k"] = "mutated"
	if info.Size != 4 || !info.LastModified.Equal(fixed) || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "a", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := store.Put(ctx, " ", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
	got, rc, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "data" || got.Metadata["k"] != "v" {
		t.Fatalf("unexpected get %+v %q", got, b)
	}
	got.Metadata["k"] = "changed"
	head, _ := store.Head(ctx, "a")
	if head.Metadata["k"] != "v" {
		t.Fatalf("metadata must be copied on read")
	}
	if _, err := store.Put(ctx, "b", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	list, _ := store.List(ctx, "")
	if len(list) != 2 || list[0].Key != "a" || list[1].Key != "b" {
		t.Fatalf("unexpected list %+v", list)
	}
	if _, err := store.PresignURL(ctx, "a", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if ok, _ := store.Delete(ctx, "a"); !ok {
		t.Fatalf("expected delete to report existing blob")
	}
	if _, _, err := store.Get(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Head(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
