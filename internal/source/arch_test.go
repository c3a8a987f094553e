package source

import "testing"

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x86_64", "x86_64"},
		{"amd64", "x86_64"},
		{"X86-64", "x86_64"},
		{"arm64", "aarch64"},
		{"aarch64", "aarch64"},
		{"armv7l", "armhf"},
		{"i386", "i686"},
		{"", "x86_64"},
		{"riscv64", "riscv64"},
	}

	for _, tt := range tests {
		if got := NormalizeArch(tt.in); got != tt.want {
			t.Errorf("NormalizeArch(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectArchFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/Foo-1.0.0-x86_64.AppImage", "x86_64"},
		{"https://example.com/Foo-1.0.0-amd64.AppImage", "x86_64"},
		{"https://example.com/Foo-1.0.0-aarch64.AppImage", "aarch64"},
		{"https://example.com/Foo-arm64.AppImage", "aarch64"},
		{"https://example.com/Foo-i686.AppImage", "i686"},
		// No hint falls back to the dominant architecture.
		{"https://example.com/Foo-1.0.0.AppImage", "x86_64"},
	}

	for _, tt := range tests {
		if got := DetectArchFromURL(tt.url); got != tt.want {
			t.Errorf("DetectArchFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestIsAppImageURL(t *testing.T) {
	if !IsAppImageURL("https://example.com/Foo.AppImage") {
		t.Error("AppImage URL not recognized")
	}
	if !IsAppImageURL("https://example.com/foo.appimage?token=abc") {
		t.Error("lowercase AppImage URL with query not recognized")
	}
	if IsAppImageURL("https://example.com/foo.tar.gz") {
		t.Error("tarball URL misidentified as AppImage")
	}
}
