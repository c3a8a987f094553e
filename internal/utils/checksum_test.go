package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// sha256 of "hello world\n"
const helloSHA256 = "a948904f2f0f479b8f8197694b30184b0d2ed1c1cd2a1ec0fb85d299a192a447"

func helloFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(path, []byte("hello world\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCalculateChecksums(t *testing.T) {
	sums, err := CalculateChecksums(helloFile(t))
	if err != nil {
		t.Fatalf("CalculateChecksums: %v", err)
	}
	if sums.SHA256 != helloSHA256 {
		t.Errorf("SHA256 = %s", sums.SHA256)
	}
	if sums.Size != 12 {
		t.Errorf("Size = %d, want 12", sums.Size)
	}
	if len(sums.SHA1) != 40 {
		t.Errorf("SHA1 = %s", sums.SHA1)
	}
}

func TestCatalogChecksum(t *testing.T) {
	checksum, err := CatalogChecksum(helloFile(t))
	if err != nil {
		t.Fatalf("CatalogChecksum: %v", err)
	}
	if checksum != ChecksumPrefix+helloSHA256 {
		t.Errorf("checksum = %s", checksum)
	}
}

func TestVerifySHA256(t *testing.T) {
	path := helloFile(t)

	if err := VerifySHA256(path, helloSHA256); err != nil {
		t.Errorf("bare digest rejected: %v", err)
	}
	if err := VerifySHA256(path, ChecksumPrefix+helloSHA256); err != nil {
		t.Errorf("prefixed digest rejected: %v", err)
	}
	if err := VerifySHA256(path, ChecksumPrefix+strings.ToUpper(helloSHA256)); err != nil {
		t.Errorf("uppercase digest rejected: %v", err)
	}
	if err := VerifySHA256(path, strings.Repeat("0", 64)); err == nil {
		t.Error("wrong digest accepted")
	}
	if err := VerifySHA256(path, ""); err == nil {
		t.Error("empty digest accepted")
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0.0 B"},
		{512, "512.0 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		if got := HumanSize(tt.size); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
