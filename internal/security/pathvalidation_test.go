package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJoinWithin(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		file    string
		want    string
		wantErr bool
	}{
		{"plain", "datasets", "a_32_8x8.csv", filepath.Join("datasets", "a_32_8x8.csv"), false},
		{"absolute dir", "/tmp/out", "x.csv", "/tmp/out/x.csv", false},
		{"parent escape", "datasets", "../x.csv", "", true},
		{"dot", "datasets", ".", "", true},
		{"empty", "datasets", "", "", true},
		{"nested ok", "datasets", "sub/x.csv", filepath.Join("datasets", "sub", "x.csv"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinWithin(tt.dir, tt.file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("JoinWithin(%q, %q) error = %v, wantErr %v", tt.dir, tt.file, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("JoinWithin(%q, %q) = %q, want %q", tt.dir, tt.file, got, tt.want)
			}
		})
	}
}

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	for _, d := range []string{safeDir, unsafeDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	link := filepath.Join(safeDir, "evil")
	if err := os.Symlink(unsafeDir, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"inside", filepath.Join(safeDir, "a.csv"), false},
		{"inside new subdir", filepath.Join(safeDir, "new", "a.csv"), false},
		{"dotdot", filepath.Join(safeDir, "..", "a.csv"), true},
		{"through symlink", filepath.Join(link, "a.csv"), true},
		{"absolute elsewhere", "/etc/passwd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, safeDir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateExportPath(t *testing.T) {
	if err := ValidateExportPath(filepath.Join(os.TempDir(), "report.html")); err != nil {
		t.Errorf("temp dir path rejected: %v", err)
	}
	if err := ValidateExportPath("report.html"); err != nil {
		t.Errorf("working dir path rejected: %v", err)
	}
	if err := ValidateExportPath("/etc/passwd"); err == nil {
		t.Error("expected /etc/passwd to be rejected")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BasketballPass_32_8x8", "BasketballPass_32_8x8"},
		{"my video/../x", "my_video_.._x"},
		{"", "unknown"},
		{"...", "unknown"},
		{"a  b", "a_b"},
		{"__lead", "lead"},
		{"BQSquare_416x240_60_27_4x16", "BQSquare_416x240_60_27_4x16"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
