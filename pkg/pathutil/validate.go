// Package pathutil provides identifier and path validation for taskhook.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/taskhook-project/taskhook/pkg/errclass"
)

// ValidatePathSafety verifies target path does not escape the base directory.
// Symlinks are resolved on both sides so a link inside base pointing outside
// is rejected the same as a literal traversal.
func ValidatePathSafety(base, targetPath string) error {
	resolvedBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return errclass.ErrPathEscape.WithMessagef("cannot resolve base dir: %v", err)
	}

	resolvedTarget, err := filepath.EvalSymlinks(targetPath)
	if err != nil {
		if os.IsNotExist(err) {
			resolvedTarget = resolveClosestAncestor(targetPath)
		} else {
			return errclass.ErrPathEscape.WithMessagef("cannot resolve target: %v", err)
		}
	}

	if !strings.HasPrefix(resolvedTarget+string(filepath.Separator), resolvedBase+string(filepath.Separator)) &&
		resolvedTarget != resolvedBase {
		return errclass.ErrPathEscape.WithMessagef("path escapes %s: %s", base, targetPath)
	}

	return nil
}

// ResolveWithin joins ref onto base and validates the result stays inside
// base. Absolute refs and refs containing traversal segments are rejected
// before any filesystem access.
func ResolveWithin(base, ref string) (string, error) {
	if ref == "" {
		return "", errclass.ErrActionInvalid.WithMessage("empty script reference")
	}
	if filepath.IsAbs(ref) {
		return "", errclass.ErrPathEscape.WithMessagef("absolute script reference: %s", ref)
	}
	for _, seg := range strings.Split(filepath.ToSlash(ref), "/") {
		if seg == ".." {
			return "", errclass.ErrPathEscape.WithMessagef("traversal segment in script reference: %s", ref)
		}
	}

	target := filepath.Join(base, ref)
	if err := ValidatePathSafety(base, target); err != nil {
		return "", err
	}
	return target, nil
}

// resolveClosestAncestor walks up from path to find the closest existing
// ancestor, resolves it, then appends the remaining components.
func resolveClosestAncestor(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if os.IsNotExist(err) {
			resolved = resolveClosestAncestor(dir)
		} else {
			return filepath.Clean(path)
		}
	}
	return filepath.Join(resolved, base)
}
