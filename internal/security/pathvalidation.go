// Package security guards the filesystem namespace that clip media and
// model blobs live in. Child identifiers arrive from the host
// application and are embedded into on-disk paths, so they are
// validated before any path is built from them.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxIdentifierLen caps identifier length so generated paths stay well
// under filesystem limits.
const MaxIdentifierLen = 128

// ValidateIdentifier reports whether id is safe to embed as a single
// path component. Allowed runes are ASCII letters, digits, dot,
// underscore and dash; the identifier must be non-empty, must not start
// with a dot, and must not exceed MaxIdentifierLen bytes.
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier is empty")
	}
	if len(id) > MaxIdentifierLen {
		return fmt.Errorf("identifier exceeds %d bytes", MaxIdentifierLen)
	}
	if strings.HasPrefix(id, ".") {
		return fmt.Errorf("identifier %q starts with a dot", id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return fmt.Errorf("identifier %q contains disallowed character %q", id, r)
		}
	}
	return nil
}

// SafeJoin joins parts onto base and verifies the result stays inside
// base. It prevents path traversal: a part containing ".." or an
// absolute component that would resolve outside base is rejected.
func SafeJoin(base string, parts ...string) (string, error) {
	joined := filepath.Join(append([]string{base}, parts...)...)

	rel, err := filepath.Rel(filepath.Clean(base), joined)
	if err != nil {
		return "", fmt.Errorf("path %q is outside %q: %w", joined, base, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", strings.Join(parts, "/"), base)
	}
	return joined, nil
}
