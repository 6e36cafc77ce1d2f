package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"lookupdesk/internal/blob/core"
)

func TestMockStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 || store.Bucket() != "mock-bucket" {
		t.Fatalf("unexpected store identity")
	}
	info, err := store.Put(ctx, "exports/e1/report.html", strings.NewReader("<table></table>"), core.PutOptions{
		ContentType: "text/html",
		Metadata:    map[string]string{"format": "html"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 15 || info.ContentType != "text/html" || info.Metadata["format"] != "html" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "exports/e1/report.html", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, rc, err := store.Get(ctx, "exports/e1/report.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "<table></table>" || got.ETag != info.ETag {
		t.Fatalf("unexpected get %+v %q", got, body)
	}
	list, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "exports/e1/report.html" || list[0].Size != 15 {
		t.Fatalf("unexpected list %+v", list)
	}
	url, err := store.PresignURL(ctx, "exports/e1/report.html", core.SignedURLOptions{})
	if err != nil || !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("presign: %s %v", url, err)
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: "DELETE"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	ok, err := store.Delete(ctx, "exports/e1/report.html")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "exports/e1/report.html")
	if err != nil || ok {
		t.Fatalf("delete missing: %v %v", ok, err)
	}
	if _, _, err := store.Get(ctx, "exports/e1/report.html"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
	store, err := New(context.Background(), Config{Bucket: "artifacts", AccessKeyID: "id", SecretAccessKey: "secret", Endpoint: "http://minio:9000", PathStyle: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Bucket() != "artifacts" {
		t.Fatalf("unexpected bucket %s", store.Bucket())
	}
}

func TestDecodeChunked(t *testing.T) {
	got, err := decodeChunked([]byte("5;chunk-signature=abc\r\nhello\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n\r\n"))
	if err != nil || string(got) != "hello" {
		t.Fatalf("decode: %q %v", got, err)
	}
	if _, err := decodeChunked([]byte("zz\r\n")); err == nil {
		t.Fatalf("expected size parse error")
	}
}
