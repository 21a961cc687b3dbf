package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeReplay(t *testing.T, size int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.replay")
	b := make([]byte, size)
	copy(b, magicPrefix)
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestValidateSizeBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		wantErr error
	}{
		{"one byte under minimum", MinSize - 1, ErrFileTooSmall},
		{"exactly minimum plus one", MinSize + 1, nil},
		{"exactly maximum", MaxSize, nil},
		{"one byte over maximum", MaxSize + 1, ErrFileTooLarge},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeReplay(t, c.size)
			_, err := Validate(path)
			if c.wantErr == nil && err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if c.wantErr != nil && !errors.Is(err, c.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, c.wantErr)
			}
		})
	}
}

func TestValidateMissingMagicBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.replay")
	if err := os.WriteFile(path, make([]byte, MinSize+1), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Validate(path)
	if !errors.Is(err, ErrMissingMagicBytes) {
		t.Fatalf("Validate() = %v, want %v", err, ErrMissingMagicBytes)
	}
}

func TestValidateFileNotFound(t *testing.T) {
	_, err := Validate(filepath.Join(t.TempDir(), "missing.replay"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("Validate() = %v, want %v", err, ErrFileNotFound)
	}
}

func TestValidateSuccess(t *testing.T) {
	path := writeReplay(t, MinSize+1)

	got, err := Validate(path)
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if got.Size != MinSize+1 {
		t.Errorf("Size = %d, want %d", got.Size, MinSize+1)
	}
	if got.CRCChecked {
		t.Errorf("CRCChecked = true, want false (scaffolded only)")
	}
	if len(got.SHA256) != 64 {
		t.Errorf("SHA256 len = %d, want 64 hex chars", len(got.SHA256))
	}
}
