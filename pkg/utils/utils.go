package utils

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// GenerateFileRevisionHash generates a SHA1 hash of a path and its content,
// used to key backup directories so repeated operations on the same path
// never collide.
func GenerateFileRevisionHash(path, content string) string {
	hasher := sha1.New()
	hasher.Write([]byte(path + content))
	return hex.EncodeToString(hasher.Sum(nil))
}

// GenerateFileHash creates a SHA256 hash of file content.
func GenerateFileHash(content string) string {
	hasher := sha256.New()
	hasher.Write([]byte(content))
	return hex.EncodeToString(hasher.Sum(nil))
}

// ConfigDir returns the root directory for persisted state: the journal
// database, backups tree, and preferences file.
func ConfigDir() string {
	if dir := os.Getenv("ANGELA_CONFIG"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "angela")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".angela")
	}
	return ".angela"
}
