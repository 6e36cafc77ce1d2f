package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ failures []string }

func (r *recorder) Helper() {}

func (r *recorder) Fatalf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n\nimport \"lookupdesk/pkg/domain\"\n")
	writeFile(t, filepath.Join(dir, "a_test.go"), "package a\n\nimport _ \"lookupdesk/internal/infra/blob\"\n")
	writeFile(t, filepath.Join(dir, "sub", "b.go"), "package sub\n\nimport (\n\t\"fmt\"\n\t\"lookupdesk/internal/infra\"\n)\n\nvar _ = fmt.Sprint\n")
	return dir
}

func TestImportsUnder(t *testing.T) {
	match := ImportsUnder("lookupdesk/pkg/domain", "lookupdesk/internal/infra")
	assert.True(t, match("lookupdesk/pkg/domain"))
	assert.True(t, match("lookupdesk/internal/infra/blob/s3"))
	assert.False(t, match("lookupdesk/pkg/domainx"))
	assert.False(t, match("lookupdesk/internal"))
}

func TestImportViolationsScope(t *testing.T) {
	dir := fixture(t)
	forbidden := ImportsUnder("lookupdesk/pkg/domain", "lookupdesk/internal/infra")

	viols, err := ImportViolations(dir, ScanOptions{}, forbidden)
	require.NoError(t, err)
	assert.Equal(t, []string{"lookupdesk/pkg/domain (in a.go)"}, viols)

	viols, err = ImportViolations(dir, ScanOptions{Recursive: true, IncludeTests: true}, forbidden)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"lookupdesk/internal/infra (in sub/b.go)",
		"lookupdesk/internal/infra/blob (in a_test.go)",
		"lookupdesk/pkg/domain (in a.go)",
	}, viols)
}

func TestAssertNoImports(t *testing.T) {
	dir := fixture(t)

	var clean recorder
	AssertNoImports(&clean, dir, ScanOptions{Recursive: true}, ImportsUnder("lookupdesk/plugins"), "no plugins")
	assert.Empty(t, clean.failures)

	var dirty recorder
	AssertNoImports(&dirty, dir, ScanOptions{}, ImportsUnder("lookupdesk/pkg/domain"), "no domain")
	require.Len(t, dirty.failures, 1)
	assert.Contains(t, dirty.failures[0], "no domain")
	assert.Contains(t, dirty.failures[0], "a.go")

	var broken recorder
	AssertNoImports(&broken, filepath.Join(dir, "missing"), ScanOptions{}, ImportsUnder("x"), "missing")
	require.Len(t, broken.failures, 1)
	assert.Contains(t, broken.failures[0], "scan imports")
}
