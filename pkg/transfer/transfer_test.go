package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	_ "github.com/ruslano69/udt-framework/pkg/adapters/sqlite"
	"github.com/ruslano69/udt-framework/pkg/connections"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

func TestResolveDestExplicitName(t *testing.T) {
	r := &Runner{cfg: DefaultConfig()}
	req := Request{Dest: dataset.NewTable("users", "c1", dataset.Metadata{})}

	dest := r.resolveDest(req)
	if dest.Name != "users" || dest.Temp {
		t.Errorf("Explicit name must pass through unchanged: %+v", dest)
	}
}

func TestResolveDestDeterministic(t *testing.T) {
	r := &Runner{cfg: DefaultConfig()}
	req := Request{
		Source: dataset.File{Path: "/data/in.csv"},
		Dest:   dataset.Table{Conn: "c1"},
		RunID:  "run_42",
		TaskID: "load_users",
	}

	first := r.resolveDest(req)
	second := r.resolveDest(req)
	if first.Name != second.Name {
		t.Errorf("Expected stable temp name, got %q vs %q", first.Name, second.Name)
	}
	if !first.Temp {
		t.Error("Expected temp flag on generated table")
	}
	if !strings.HasPrefix(first.Name, dataset.TempPrefix) {
		t.Errorf("Expected temp prefix, got %q", first.Name)
	}

	// другой запуск - другое имя
	other := req
	other.RunID = "run_43"
	if r.resolveDest(other).Name == first.Name {
		t.Error("Expected different name for different run id")
	}
}

func TestResolveDestRandom(t *testing.T) {
	r := &Runner{cfg: DefaultConfig()}
	req := Request{Dest: dataset.Table{Conn: "c1"}}

	a := r.resolveDest(req)
	b := r.resolveDest(req)
	if a.Name == b.Name {
		t.Error("Expected unique names without run context")
	}
}

func TestFillMetadata(t *testing.T) {
	table := dataset.Table{
		Name:     "t",
		Metadata: dataset.Metadata{Schema: "custom"},
	}
	defaults := dataset.Metadata{Schema: "public", Database: "prod", Warehouse: "wh"}

	filled := fillMetadata(table, defaults)
	if filled.Metadata.Schema != "custom" {
		t.Errorf("Explicit schema must win, got %q", filled.Metadata.Schema)
	}
	if filled.Metadata.Database != "prod" || filled.Metadata.Warehouse != "wh" {
		t.Errorf("Defaults not filled: %+v", filled.Metadata)
	}
}

type fakeSeparatorAdapter struct {
	adapters.Adapter
	illegal []string
}

func (f fakeSeparatorAdapter) IllegalColumnChars() []string { return f.illegal }

func TestEffectiveSeparator(t *testing.T) {
	dotForbidden := fakeSeparatorAdapter{illegal: []string{"."}}
	anythingGoes := fakeSeparatorAdapter{}

	tests := []struct {
		sep     string
		adapter adapters.Adapter
		want    string
	}{
		{"", anythingGoes, dataset.DefaultNestedSeparator},
		{".", anythingGoes, "."},
		{".", dotForbidden, dataset.DefaultNestedSeparator},
		{"__", dotForbidden, "__"},
	}
	for _, tt := range tests {
		got := effectiveSeparator(dataset.NormalizeConfig{Separator: tt.sep}, tt.adapter)
		if got != tt.want {
			t.Errorf("effectiveSeparator(%q): expected %q, got %q", tt.sep, tt.want, got)
		}
	}
}

func TestMergeOptions(t *testing.T) {
	merged := mergeOptions(
		map[string]string{"a": "base", "b": "base"},
		map[string]string{"b": "override", "c": "override"})

	if merged["a"] != "base" || merged["b"] != "override" || merged["c"] != "override" {
		t.Errorf("Unexpected merge result: %v", merged)
	}

	if mergeOptions(nil, nil) != nil {
		t.Error("Expected nil for empty inputs")
	}
}

func TestNewRunnerValidation(t *testing.T) {
	if _, err := NewRunner(nil, Config{ChunkSize: -1}); err == nil {
		t.Error("Expected error for negative chunk size")
	}

	r, err := NewRunner(nil, Config{})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if r.cfg.ChunkSize != DefaultConfig().ChunkSize {
		t.Errorf("Expected default chunk size, got %d", r.cfg.ChunkSize)
	}
}

// testRegistry готовит реестр с sqlite-подключением во временном каталоге
func testRegistry(t *testing.T) *connections.Registry {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "dest.db")
	return connections.NewRegistry(map[string]connections.Connection{
		"dest_db": {Type: "sqlite", DSN: dsn},
	})
}

func TestRunCSVToSQLite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "users.csv")
	content := "id,name\n1,Иван\n2,Мария\n3,Петр\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	registry := testRegistry(t)
	runner, err := NewRunner(registry, DefaultConfig())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	source, err := dataset.NewFile(csvPath, "", "")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}

	result, err := runner.Run(context.Background(), Request{
		Source:   source,
		Dest:     dataset.NewTable("users", "dest_db", dataset.Metadata{}),
		IfExists: adapters.IfExistsReplace,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Path != PathGeneric {
		t.Errorf("Expected generic path, got %v", result.Path)
	}
	if result.RowsLoaded != 3 {
		t.Errorf("Expected 3 rows loaded, got %d", result.RowsLoaded)
	}
	if len(result.Files) != 1 {
		t.Errorf("Expected 1 file, got %v", result.Files)
	}

	// проверяем содержимое через export
	payload, err := runner.ExportTableToPayload(context.Background(), result.Dest)
	if err != nil {
		t.Fatalf("ExportTableToPayload failed: %v", err)
	}
	if payload.NumRows() != 3 {
		t.Fatalf("Expected 3 rows in table, got %d", payload.NumRows())
	}
	name := payload.ColumnIndex("name")
	if payload.Rows[0][name] != "Иван" {
		t.Errorf("Expected 'Иван', got %v", payload.Rows[0][name])
	}
}

func TestRunGlobMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "part1.csv"), []byte("id\n1\n2\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "part2.csv"), []byte("id\n3\n"), 0o644)

	registry := testRegistry(t)
	runner, _ := NewRunner(registry, DefaultConfig())

	source, _ := dataset.NewFile(filepath.Join(dir, "part*.csv"), "", "")
	result, err := runner.Run(context.Background(), Request{
		Source:   source,
		Dest:     dataset.NewTable("parts", "dest_db", dataset.Metadata{}),
		IfExists: adapters.IfExistsReplace,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// replace действует на первый файл, второй дописывается
	if result.RowsLoaded != 3 {
		t.Errorf("Expected 3 rows across files, got %d", result.RowsLoaded)
	}
	if len(result.Files) != 2 {
		t.Errorf("Expected 2 files, got %v", result.Files)
	}
}

func TestRunNoMatches(t *testing.T) {
	registry := testRegistry(t)
	runner, _ := NewRunner(registry, DefaultConfig())

	source := dataset.File{Path: filepath.Join(t.TempDir(), "*.csv"), Type: dataset.TypeCSV}
	_, err := runner.Run(context.Background(), Request{
		Source:   source,
		Dest:     dataset.NewTable("empty", "dest_db", dataset.Metadata{}),
		IfExists: adapters.IfExistsReplace,
	})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty glob, got %v", err)
	}
}

func TestRunUnknownConnection(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "a.csv")
	os.WriteFile(csvPath, []byte("id\n1\n"), 0o644)

	runner, _ := NewRunner(connections.NewRegistry(nil), DefaultConfig())
	source, _ := dataset.NewFile(csvPath, "", "")

	_, err := runner.Run(context.Background(), Request{
		Source: source,
		Dest:   dataset.NewTable("t", "ghost", dataset.Metadata{}),
	})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown connection, got %v", err)
	}
}
