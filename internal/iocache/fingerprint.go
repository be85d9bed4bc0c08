package iocache

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes raw content into the cache key format. xxhash keeps
// hashing negligible next to the file reads themselves.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// FingerprintFile hashes a file's content.
func FingerprintFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return Fingerprint(data), nil
}
