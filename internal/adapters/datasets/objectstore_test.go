package datasets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lookupdesk/internal/blob"
)

func TestBlobObjectStoreBackends(t *testing.T) {
	fsStore, err := blob.NewFilesystem(t.TempDir(), "https://downloads.example")
	require.NoError(t, err)

	backends := map[string]struct {
		store  blob.Store
		hasURL bool
	}{
		"memory": {store: blob.NewMemory()},
		"fs":     {store: fsStore, hasURL: true},
		"s3":     {store: blob.NewMockS3ForTests(), hasURL: true},
	}
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := NewBlobObjectStore(backend.store)

			artifact, err := store.Put(ctx, "exports/x/a.csv", []byte("a,b\n"), "text/csv", map[string]any{"rows": 1, "template": "t"})
			require.NoError(t, err)
			assert.Equal(t, "exports/x/a.csv", artifact.Key)
			assert.EqualValues(t, 4, artifact.SizeBytes)
			if backend.hasURL {
				assert.NotEmpty(t, artifact.URL)
			} else {
				assert.Empty(t, artifact.URL)
			}

			got, payload, err := store.Get(ctx, "exports/x/a.csv")
			require.NoError(t, err)
			assert.Equal(t, "a,b\n", string(payload))
			assert.Equal(t, "text/csv", got.ContentType)
			assert.Equal(t, "1", got.Metadata["rows"])

			_, err = store.Put(ctx, "exports/x/a.csv", []byte("again"), "text/csv", nil)
			assert.ErrorIs(t, err, blob.ErrExists)

			listed, err := store.List(ctx, "exports/x/")
			require.NoError(t, err)
			require.Len(t, listed, 1)

			ok, err := store.Delete(ctx, "exports/x/a.csv")
			require.NoError(t, err)
			assert.True(t, ok)
			_, _, err = store.Get(ctx, "exports/x/a.csv")
			assert.ErrorIs(t, err, blob.ErrNotFound)
		})
	}
}

func TestStringMetadata(t *testing.T) {
	assert.Nil(t, stringMetadata(nil))
	assert.Equal(t, map[string]string{"rows": "3", "ratio": "0.5", "name": "x"},
		stringMetadata(map[string]any{"rows": 3, "ratio": 0.5, "name": "x"}))
}
