package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
)

func TestCleanupTables(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "in.csv")
	os.WriteFile(csvPath, []byte("id\n1\n"), 0o644)

	registry := testRegistry(t)
	runner, _ := NewRunner(registry, DefaultConfig())
	source, _ := dataset.NewFile(csvPath, "", "")
	ctx := context.Background()

	// временная таблица (пустое имя цели)
	tempResult, err := runner.Run(ctx, Request{
		Source:   source,
		Dest:     dataset.Table{Conn: "dest_db"},
		IfExists: adapters.IfExistsReplace,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// именованная таблица не должна пострадать
	namedResult, err := runner.Run(ctx, Request{
		Source:   source,
		Dest:     dataset.NewTable("keep_me", "dest_db", dataset.Metadata{}),
		IfExists: adapters.IfExistsReplace,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if err := runner.CleanupTables(ctx, []dataset.Table{tempResult.Dest, namedResult.Dest}); err != nil {
		t.Fatalf("CleanupTables failed: %v", err)
	}

	if _, err := runner.ExportTableToPayload(ctx, tempResult.Dest); err == nil {
		t.Error("Expected temp table to be dropped")
	}
	if _, err := runner.ExportTableToPayload(ctx, namedResult.Dest); err != nil {
		t.Errorf("Named table must survive cleanup: %v", err)
	}

	// повторная очистка идемпотентна
	if err := runner.CleanupTables(ctx, []dataset.Table{tempResult.Dest}); err != nil {
		t.Errorf("Second cleanup failed: %v", err)
	}
}
