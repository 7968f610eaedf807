package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// SaveSession writes the raw token to path with owner-only permissions.
func SaveSession(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

// LoadSession reads a previously saved token. A missing file is not an
// error; it returns an empty token.
func LoadSession(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// ClearSession removes the session file if it exists.
func ClearSession(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
