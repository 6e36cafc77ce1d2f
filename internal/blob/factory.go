package blob

import (
	"context"
	"fmt"

	"lookupdesk/internal/infra/blob/fs"
	memorystore "lookupdesk/internal/infra/blob/memory"
	infraS3 "lookupdesk/internal/infra/blob/s3"
)

// S3Config re-exports the S3 backend settings.
type S3Config = infraS3.Config

// Config selects and configures a blob backend. An empty driver means fs.
type Config struct {
	Driver  Driver   `yaml:"driver"`
	FSRoot  string   `yaml:"fs_root"`
	BaseURL string   `yaml:"base_url"`
	S3      S3Config `yaml:"s3"`
}

// Open constructs the Store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return NewFilesystem(cfg.FSRoot, cfg.BaseURL)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewFilesystem constructs a filesystem-backed Store rooted at root. A
// non-empty baseURL prefixes the URLs reported for stored blobs.
func NewFilesystem(root, baseURL string) (Store, error) {
	store, err := fs.New(root, fs.WithBaseURL(baseURL))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memorystore.New() }

// NewS3 constructs an S3-backed Store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	store, err := infraS3.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewMockS3ForTests exposes the in-memory S3 fake for cross-package tests.
func NewMockS3ForTests() Store { return infraS3.NewMockForTests() }
