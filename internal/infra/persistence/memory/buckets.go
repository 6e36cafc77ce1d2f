package memory

import (
	"encoding/json"
	"fmt"
)

// Bucket names used by the snapshotting backends. Each bucket holds one log
// encoded as a JSON array.
const (
	BucketPlantations = "plantations"
	BucketInventory   = "inventory"
	BucketIncidents   = "incidents"
)

// Buckets lists every bucket in persistence order.
var Buckets = []string{BucketPlantations, BucketInventory, BucketIncidents}

// EncodeBucket marshals the named log of the snapshot.
func (s Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	switch bucket {
	case BucketPlantations:
		return json.Marshal(nonNil(s.Plantations))
	case BucketInventory:
		return json.Marshal(nonNil(s.Inventory))
	case BucketIncidents:
		return json.Marshal(nonNil(s.Incidents))
	default:
		return nil, fmt.Errorf("unknown bucket %q", bucket)
	}
}

// DecodeBucket fills the named log of the snapshot from payload. Unknown
// buckets are ignored so older databases with extra rows still load.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	var err error
	switch bucket {
	case BucketPlantations:
		err = json.Unmarshal(payload, &s.Plantations)
	case BucketInventory:
		err = json.Unmarshal(payload, &s.Inventory)
	case BucketIncidents:
		err = json.Unmarshal(payload, &s.Incidents)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
