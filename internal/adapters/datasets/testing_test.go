package datasets

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lookupdesk/internal/adapters/testutil"
	"lookupdesk/internal/blob"
	"lookupdesk/internal/core"
)

var fixedNow = time.Date(2025, 5, 12, 8, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) *core.Service {
	t.Helper()
	svc, err := testutil.NewService(core.WithClock(core.ClockFunc(func() time.Time { return fixedNow })))
	require.NoError(t, err)
	return svc
}

func newTestWorker(t *testing.T, svc *core.Service, opts ...WorkerOption) (*Worker, *memAudit) {
	t.Helper()
	audit := &memAudit{}
	opts = append([]WorkerOption{WithAuditLogger(audit)}, opts...)
	return NewWorker(svc, NewBlobObjectStore(blob.NewMemory()), opts...), audit
}

func stopWorker(t *testing.T, w *Worker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
}

func waitForExport(t *testing.T, w *Worker, id string) ExportRecord {
	t.Helper()
	var record ExportRecord
	require.Eventually(t, func() bool {
		var ok bool
		record, ok = w.GetExport(id)
		return ok && (record.Status == ExportStatusSucceeded || record.Status == ExportStatusFailed)
	}, 2*time.Second, 5*time.Millisecond)
	return record
}

type memAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (m *memAudit) Record(_ context.Context, entry AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *memAudit) statuses(exportID string) []ExportStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ExportStatus
	for _, e := range m.entries {
		if e.ExportID == exportID {
			out = append(out, e.Status)
		}
	}
	return out
}
