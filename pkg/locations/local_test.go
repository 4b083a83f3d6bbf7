package locations

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/ruslano69/udt-framework/pkg/errs"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLocalPathsGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "x")
	writeFile(t, dir, "a.csv", "x")
	writeFile(t, dir, "skip.json", "x")
	os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755) // каталоги не считаются

	loc, err := New(filepath.Join(dir, "*.csv"), "", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	paths, err := loc.Paths(context.Background())
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Expected 2 files, got %v", paths)
	}
	// лексикографический порядок
	if filepath.Base(paths[0]) != "a.csv" || filepath.Base(paths[1]) != "b.csv" {
		t.Errorf("Expected sorted order, got %v", paths)
	}
}

func TestLocalPathsEmpty(t *testing.T) {
	loc, _ := New(filepath.Join(t.TempDir(), "*.csv"), "", nil)

	paths, err := loc.Paths(context.Background())
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	// ноль совпадений - пустой список, не ошибка
	if len(paths) != 0 {
		t.Errorf("Expected no matches, got %v", paths)
	}

	exists, err := loc.Exists(context.Background())
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Expected Exists to be false")
	}
}

func TestLocalSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")
	writeFile(t, dir, "b.txt", "world!")

	loc, _ := New(filepath.Join(dir, "*.txt"), "", nil)
	size, err := loc.Size(context.Background())
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 11 {
		t.Errorf("Expected 11 bytes, got %d", size)
	}
}

func TestLocalSizeNotFound(t *testing.T) {
	loc, _ := New(filepath.Join(t.TempDir(), "missing.txt"), "", nil)
	if _, err := loc.Size(context.Background()); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalOpenStream(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.txt", "content")

	loc, _ := New(filepath.Join(dir, "data.txt"), "", nil)
	rc, err := loc.OpenStream(context.Background())
	if err != nil {
		t.Fatalf("OpenStream failed: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("Expected 'content', got %q", data)
	}
}

func TestLocalCreateStream(t *testing.T) {
	// родительские каталоги создаются автоматически
	path := filepath.Join(t.TempDir(), "nested", "out", "result.csv")

	loc, _ := New(path, "", nil)
	wc, err := loc.CreateStream(context.Background())
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	if _, err := wc.Write([]byte("a,b\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := wc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "a,b\n" {
		t.Errorf("Unexpected content: %q", data)
	}
}

func TestKindFromPath(t *testing.T) {
	tests := []struct {
		path string
		kind Kind
	}{
		{"/data/file.csv", KindLocal},
		{"file:///data/file.csv", KindLocal},
		{"s3://bucket/key.csv", KindS3},
		{"gs://bucket/key.csv", KindGCS},
		{"gcs://bucket/key.csv", KindGCS},
		{"sftp://host/path.csv", KindSFTP},
		{"relative/path.csv", KindLocal},
	}
	for _, tt := range tests {
		if got := KindFromPath(tt.path); got != tt.kind {
			t.Errorf("KindFromPath(%q): expected %v, got %v", tt.path, tt.kind, got)
		}
	}
}

func TestNewUnknownScheme(t *testing.T) {
	_, err := New("ftp://host/file.csv", "", nil)
	if err == nil {
		t.Fatal("Expected error for unregistered scheme")
	}
	if !errors.Is(err, errs.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestOpenDecompressedGzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write([]byte("compressed content"))
	gw.Close()

	rc, err := OpenDecompressed(io.NopCloser(&buf), "gz")
	if err != nil {
		t.Fatalf("OpenDecompressed failed: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "compressed content" {
		t.Errorf("Expected decompressed content, got %q", data)
	}
}

func TestOpenDecompressedPassthrough(t *testing.T) {
	rc := io.NopCloser(bytes.NewReader([]byte("plain")))
	out, err := OpenDecompressed(rc, "")
	if err != nil {
		t.Fatalf("OpenDecompressed failed: %v", err)
	}
	if out != rc {
		t.Error("Expected stream to pass through unchanged")
	}
}
