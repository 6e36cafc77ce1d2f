package datasets

import (
	"testing"

	"lookupdesk/testutil"
)

// TestAdapterDoesNotImportPlugins keeps plugin implementations out of the
// production adapter; tests reach them through internal/adapters/testutil.
func TestAdapterDoesNotImportPlugins(t *testing.T) {
	testutil.AssertNoImports(t, ".", testutil.ScanOptions{}, testutil.ImportsUnder("lookupdesk/plugins"),
		"dataset adapter must stay plugin agnostic")
}
