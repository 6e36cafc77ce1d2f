// Package testutil provides helpers for enforcing import boundaries between
// the repository's packages from tests.
package testutil

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// ScanOptions controls which Go files an import scan visits.
type ScanOptions struct {
	// Recursive descends into subdirectories.
	Recursive bool
	// IncludeTests also scans _test.go files.
	IncludeTests bool
}

// ImportsUnder returns a predicate matching each prefix exactly or any
// package below it.
func ImportsUnder(prefixes ...string) func(string) bool {
	return func(path string) bool {
		for _, prefix := range prefixes {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
		}
		return false
	}
}

// ImportViolations parses the imports of the Go files in dir and reports every
// path matching forbidden as "<import> (in <file>)", with file relative to dir.
func ImportViolations(dir string, opts ScanOptions, forbidden func(string) bool) ([]string, error) {
	fset := token.NewFileSet()
	var viols []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".go") || (!opts.IncludeTests && strings.HasSuffix(name, "_test.go")) {
			return nil
		}
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		for _, spec := range file.Imports {
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				return err
			}
			if forbidden(imp) {
				viols = append(viols, imp+" (in "+filepath.ToSlash(rel)+")")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(viols)
	return viols, nil
}

type fatalLogger interface {
	Helper()
	Fatalf(format string, args ...any)
}

var _ fatalLogger = (testing.TB)(nil)

// AssertNoImports fails t when any scanned file imports a forbidden path.
func AssertNoImports(t fatalLogger, dir string, opts ScanOptions, forbidden func(string) bool, reason string) {
	t.Helper()
	viols, err := ImportViolations(dir, opts, forbidden)
	if err != nil {
		t.Fatalf("scan imports in %s: %v", dir, err)
		return
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
