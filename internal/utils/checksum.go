package utils

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ChecksumPrefix is the scheme prefix used for checksums stored in the catalog.
const ChecksumPrefix = "sha256:"

// Checksum contains the digests recorded for a published file.
type Checksum struct {
	SHA1   string
	SHA256 string
	Size   int64
}

// CalculateChecksums calculates all digests for a file in a single pass.
func CalculateChecksums(path string) (*Checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	sha1Hash := sha1.New()
	sha256Hash := sha256.New()

	// Stream the file through all hashes at once
	if _, err := io.Copy(io.MultiWriter(sha1Hash, sha256Hash), f); err != nil {
		return nil, err
	}

	return &Checksum{
		SHA1:   hex.EncodeToString(sha1Hash.Sum(nil)),
		SHA256: hex.EncodeToString(sha256Hash.Sum(nil)),
		Size:   info.Size(),
	}, nil
}

// CatalogChecksum returns the sha256 digest of a file in the prefixed form
// stored in catalog records.
func CatalogChecksum(path string) (string, error) {
	sums, err := CalculateChecksums(path)
	if err != nil {
		return "", err
	}
	return ChecksumPrefix + sums.SHA256, nil
}

// VerifySHA256 compares a file against an expected sha256 digest. The expected
// value may carry the "sha256:" prefix or be a bare hex string.
func VerifySHA256(path, expected string) error {
	want := strings.TrimPrefix(strings.TrimSpace(expected), ChecksumPrefix)
	if want == "" {
		return fmt.Errorf("empty expected checksum")
	}

	sums, err := CalculateChecksums(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(sums.SHA256, want) {
		return fmt.Errorf("checksum mismatch: got %s, want %s", sums.SHA256, want)
	}
	return nil
}
