package tenantrole

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxPermissionLen bounds a single permission string in bytes.
	MaxPermissionLen = 128

	// MaxNameLen bounds a role name in bytes.
	MaxNameLen = 64
)

var (
	// ErrInvalidPermission is returned for a malformed permission string.
	ErrInvalidPermission = errors.New("tenantrole: invalid permission")

	// ErrInvalidName is returned for a malformed role name.
	ErrInvalidName = errors.New("tenantrole: invalid name")
)

// NormalizePermission trims and lowercases p, then validates it.
func NormalizePermission(p string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(p))
	if err := ValidatePermission(n); err != nil {
		return "", err
	}
	return n, nil
}

// ValidatePermission checks that p is a non-empty token of [a-z0-9_.:-].
func ValidatePermission(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPermission)
	}
	if len(p) > MaxPermissionLen {
		return fmt.Errorf("%w: %q exceeds %d bytes", ErrInvalidPermission, p, MaxPermissionLen)
	}
	for _, c := range p {
		if !isLowerAlnum(c) && c != '_' && c != '.' && c != ':' && c != '-' {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidPermission, p, c)
		}
	}
	return nil
}

// NormalizePermissions normalizes every entry and removes duplicates,
// keeping first-seen order. A nil input yields an empty, non-nil slice.
func NormalizePermissions(ps []string) ([]string, error) {
	out := make([]string, 0, len(ps))
	seen := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		n, err := NormalizePermission(p)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// ValidateName checks that name is a slug of [a-z0-9_-].
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: %q exceeds %d bytes", ErrInvalidName, name, MaxNameLen)
	}
	for _, c := range name {
		if !isLowerAlnum(c) && c != '_' && c != '-' {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, c)
		}
	}
	return nil
}

func isLowerAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
