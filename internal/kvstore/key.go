package kvstore

import (
	"fmt"
	"regexp"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]*$`)

// ValidateKey rejects keys that cannot be stored by every backend.
// Keys map to file and object names, so they are limited to a safe alphabet
// and may not start with a dot.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid store key %q", key)
	}
	return nil
}
