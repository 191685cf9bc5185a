// Package pathutil provides path validation utilities for fcp.
package pathutil

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jvs-project/fcp/pkg/errclass"
	"github.com/jvs-project/fcp/pkg/model"
)

// ValidatePathSpec checks that both paths of spec are usable for a copy.
// Existence of the source is not checked here; that happens at open time.
func ValidatePathSpec(spec model.PathSpec) error {
	if err := validatePath("source", spec.From); err != nil {
		return err
	}
	if err := validatePath("destination", spec.To); err != nil {
		return err
	}
	if SamePath(spec.From, spec.To) {
		return errclass.ErrSameFile.WithMessagef("source and destination are the same path: %s", spec.From)
	}
	return nil
}

func validatePath(role, p string) error {
	if strings.TrimSpace(p) == "" {
		return errclass.ErrPathInvalid.WithMessagef("%s path must not be empty", role)
	}
	if strings.ContainsRune(p, 0) {
		return errclass.ErrPathInvalid.WithMessagef("%s path must not contain NUL: %q", role, p)
	}
	// A trailing separator names a directory, never a file.
	if strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator)) {
		return errclass.ErrPathInvalid.WithMessagef("%s path names a directory: %s", role, p)
	}
	return nil
}

// SamePath reports whether a and b name the same location lexically.
// Paths are made absolute, cleaned and NFC normalized before comparison,
// so "dir/./f" and a decomposed spelling of the same name compare equal.
// It does not resolve symlinks; use os.SameFile for that.
func SamePath(a, b string) bool {
	return canonical(a) == canonical(b)
}

func canonical(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return norm.NFC.String(filepath.Clean(p))
}
