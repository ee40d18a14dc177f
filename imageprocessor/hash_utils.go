package imageprocessor

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	sha256 "github.com/minio/sha256-simd"
)

// hashChunkSize bounds the memory used while hashing a file
const hashChunkSize = 64 * 1024

// ComputeContentHash returns the hex SHA-256 digest of the file's full content
func ComputeContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot open %s for hashing: %w", path, err)
	}
	defer f.Close()

	hash := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(hash, f, buf); err != nil {
		return "", fmt.Errorf("cannot read %s for hashing: %w", path, err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
