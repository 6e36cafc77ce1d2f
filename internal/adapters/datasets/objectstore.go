package datasets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"lookupdesk/internal/blob"
)

// BlobObjectStore adapts a blob.Store to the ObjectStore used by the export
// worker. Metadata values are stored as strings.
type BlobObjectStore struct {
	store blob.Store
}

// NewBlobObjectStore wraps store.
func NewBlobObjectStore(store blob.Store) *BlobObjectStore {
	return &BlobObjectStore{store: store}
}

func (s *BlobObjectStore) Put(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]any) (ExportArtifact, error) {
	info, err := s.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata:    stringMetadata(metadata),
	})
	if err != nil {
		return ExportArtifact{}, err
	}
	artifact := fromInfo(info)
	if url, err := s.store.PresignURL(ctx, key, blob.SignedURLOptions{}); err == nil {
		artifact.URL = url
	} else if !errors.Is(err, blob.ErrUnsupported) {
		return ExportArtifact{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return artifact, nil
}

func (s *BlobObjectStore) Get(ctx context.Context, key string) (ExportArtifact, []byte, error) {
	info, rc, err := s.store.Get(ctx, key)
	if err != nil {
		return ExportArtifact{}, nil, err
	}
	defer rc.Close()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return ExportArtifact{}, nil, fmt.Errorf("read %s: %w", key, err)
	}
	return fromInfo(info), payload, nil
}

func (s *BlobObjectStore) Delete(ctx context.Context, key string) (bool, error) {
	return s.store.Delete(ctx, key)
}

func (s *BlobObjectStore) List(ctx context.Context, prefix string) ([]ExportArtifact, error) {
	infos, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]ExportArtifact, 0, len(infos))
	for _, info := range infos {
		out = append(out, fromInfo(info))
	}
	return out, nil
}

func fromInfo(info blob.Info) ExportArtifact {
	var md map[string]any
	if len(info.Metadata) > 0 {
		md = make(map[string]any, len(info.Metadata))
		for k, v := range info.Metadata {
			md[k] = v
		}
	}
	return ExportArtifact{
		ID:          info.Key,
		Key:         info.Key,
		ContentType: info.ContentType,
		SizeBytes:   info.Size,
		URL:         info.URL,
		Metadata:    md,
		CreatedAt:   info.LastModified,
	}
}

func stringMetadata(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out[k] = val
		case int:
			out[k] = strconv.Itoa(val)
		default:
			out[k] = formatValue(val)
		}
	}
	return out
}
