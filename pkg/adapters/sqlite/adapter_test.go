package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

// newTestAdapter подключается к файловой БД во временном каталоге
func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()

	a := &Adapter{}
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	if err := a.Connect(context.Background(), adapters.Config{
		Engine: adapters.EngineSQLite,
		DSN:    dsn,
		ConnID: "test_sqlite",
	}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func samplePayload() *tabular.Payload {
	p := tabular.New("id", "name")
	p.AppendRow([]any{int64(1), "Иван"})
	p.AppendRow([]any{int64(2), "Мария"})
	p.AppendRow([]any{int64(3), "Петр"})
	return p
}

func TestConnectAndPing(t *testing.T) {
	a := newTestAdapter(t)
	if err := a.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if a.Engine() != adapters.EngineSQLite {
		t.Errorf("Expected sqlite engine, got %v", a.Engine())
	}
}

func TestCreateAndDropTable(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	table := dataset.NewTable("users", "test_sqlite", dataset.Metadata{})
	cols := []dataset.Column{
		{Name: "id", Type: tabular.KindInteger, Key: true},
		{Name: "name", Type: tabular.KindString},
	}

	if err := a.CreateTable(ctx, table, cols); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	exists, err := a.TableExists(ctx, table)
	if err != nil {
		t.Fatalf("TableExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected table to exist after create")
	}

	if err := a.DropTable(ctx, table); err != nil {
		t.Fatalf("DropTable failed: %v", err)
	}
	exists, _ = a.TableExists(ctx, table)
	if exists {
		t.Error("Expected table to be gone after drop")
	}

	// повторное удаление идемпотентно
	if err := a.DropTable(ctx, table); err != nil {
		t.Errorf("Second DropTable failed: %v", err)
	}
}

func TestLoadPayloadReplace(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	table := dataset.NewTable("load_test", "test_sqlite", dataset.Metadata{})

	if err := a.LoadPayload(ctx, samplePayload(), table, adapters.IfExistsReplace, 2); err != nil {
		t.Fatalf("LoadPayload failed: %v", err)
	}

	// replace поверх существующей таблицы начинает с чистого листа
	if err := a.LoadPayload(ctx, samplePayload(), table, adapters.IfExistsReplace, 2); err != nil {
		t.Fatalf("Second LoadPayload failed: %v", err)
	}

	exported, err := a.ExportToPayload(ctx, table)
	if err != nil {
		t.Fatalf("ExportToPayload failed: %v", err)
	}
	if exported.NumRows() != 3 {
		t.Errorf("Expected 3 rows after replace, got %d", exported.NumRows())
	}
	if !samplePayload().Equal(exported) {
		t.Errorf("Exported payload differs: %v", exported.Rows)
	}
}

func TestLoadPayloadAppend(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	table := dataset.NewTable("append_test", "test_sqlite", dataset.Metadata{})

	if err := a.LoadPayload(ctx, samplePayload(), table, adapters.IfExistsAppend, 100); err != nil {
		t.Fatalf("First LoadPayload failed: %v", err)
	}
	if err := a.LoadPayload(ctx, samplePayload(), table, adapters.IfExistsAppend, 100); err != nil {
		t.Fatalf("Second LoadPayload failed: %v", err)
	}

	exported, _ := a.ExportToPayload(ctx, table)
	if exported.NumRows() != 6 {
		t.Errorf("Expected 6 rows after double append, got %d", exported.NumRows())
	}
}

func TestLoadPayloadFail(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	table := dataset.NewTable("fail_test", "test_sqlite", dataset.Metadata{})

	if err := a.LoadPayload(ctx, samplePayload(), table, adapters.IfExistsFail, 100); err != nil {
		t.Fatalf("First LoadPayload failed: %v", err)
	}
	if err := a.LoadPayload(ctx, samplePayload(), table, adapters.IfExistsFail, 100); err == nil {
		t.Error("Expected error when table already exists")
	}
}

// loadMergePair готовит source и target таблицы для merge-тестов:
// target с ключом id=1, source с id=1 (конфликт) и id=2 (новая строка)
func loadMergePair(t *testing.T, a *Adapter) (source, target dataset.Table) {
	t.Helper()
	ctx := context.Background()

	target = dataset.NewTable("merge_target", "test_sqlite", dataset.Metadata{})
	tp := tabular.New("id", "name")
	tp.AppendRow([]any{int64(1), "старое"})
	if err := a.LoadPayload(ctx, tp, target, adapters.IfExistsReplace, 100); err != nil {
		t.Fatalf("Load target failed: %v", err)
	}

	source = dataset.NewTable("merge_source", "test_sqlite", dataset.Metadata{})
	sp := tabular.New("src_id", "src_name")
	sp.AppendRow([]any{int64(1), "новое"})
	sp.AppendRow([]any{int64(2), "добавленное"})
	if err := a.LoadPayload(ctx, sp, source, adapters.IfExistsReplace, 100); err != nil {
		t.Fatalf("Load source failed: %v", err)
	}
	return source, target
}

func mergeRequest(source, target dataset.Table, strategy adapters.MergeStrategy) adapters.MergeRequest {
	return adapters.MergeRequest{
		Source:          source,
		Target:          target,
		ColumnMap:       map[string]string{"src_id": "id", "src_name": "name"},
		ConflictColumns: []string{"id"},
		Strategy:        strategy,
	}
}

func exportSorted(t *testing.T, a *Adapter, table dataset.Table) map[int64]string {
	t.Helper()
	exported, err := a.ExportToPayload(context.Background(), table)
	if err != nil {
		t.Fatalf("ExportToPayload failed: %v", err)
	}
	id := exported.ColumnIndex("id")
	name := exported.ColumnIndex("name")

	out := make(map[int64]string, exported.NumRows())
	for _, row := range exported.Rows {
		out[row[id].(int64)] = row[name].(string)
	}
	return out
}

func TestMergeIgnore(t *testing.T) {
	a := newTestAdapter(t)
	source, target := loadMergePair(t, a)

	if err := a.MergeTables(context.Background(), mergeRequest(source, target, adapters.MergeIgnore)); err != nil {
		t.Fatalf("MergeTables failed: %v", err)
	}

	rows := exportSorted(t, a, target)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %v", rows)
	}
	// конфликтующая строка осталась нетронутой
	if rows[1] != "старое" {
		t.Errorf("Expected conflicting row untouched, got %q", rows[1])
	}
	if rows[2] != "добавленное" {
		t.Errorf("Expected new row inserted, got %q", rows[2])
	}
}

func TestMergeUpdate(t *testing.T) {
	a := newTestAdapter(t)
	source, target := loadMergePair(t, a)

	if err := a.MergeTables(context.Background(), mergeRequest(source, target, adapters.MergeUpdate)); err != nil {
		t.Fatalf("MergeTables failed: %v", err)
	}

	rows := exportSorted(t, a, target)
	if rows[1] != "новое" {
		t.Errorf("Expected conflicting row updated, got %q", rows[1])
	}
	if rows[2] != "добавленное" {
		t.Errorf("Expected new row inserted, got %q", rows[2])
	}
}

func TestMergeException(t *testing.T) {
	a := newTestAdapter(t)
	source, target := loadMergePair(t, a)
	ctx := context.Background()

	// целевая таблица без уникального ограничения: конфликт обязан
	// подняться проверкой самого merge, а не ограничением движка
	err := a.MergeTables(ctx, mergeRequest(source, target, adapters.MergeException))
	if err == nil {
		t.Fatal("Expected error for conflicting keys")
	}

	// цель не тронута, частичной вставки нет
	rows := exportSorted(t, a, target)
	if len(rows) != 1 || rows[1] != "старое" {
		t.Errorf("Target rows changed after failed merge: %v", rows)
	}
}

func TestMergeExceptionNoConflict(t *testing.T) {
	a := newTestAdapter(t)
	_, target := loadMergePair(t, a)
	ctx := context.Background()

	source := dataset.NewTable("merge_disjoint", "test_sqlite", dataset.Metadata{})
	sp := tabular.New("src_id", "src_name")
	sp.AppendRow([]any{int64(7), "свежее"})
	if err := a.LoadPayload(ctx, sp, source, adapters.IfExistsReplace, 100); err != nil {
		t.Fatalf("Load source failed: %v", err)
	}

	if err := a.MergeTables(ctx, mergeRequest(source, target, adapters.MergeException)); err != nil {
		t.Fatalf("MergeTables failed: %v", err)
	}

	rows := exportSorted(t, a, target)
	if len(rows) != 2 || rows[7] != "свежее" {
		t.Errorf("Expected appended row, got %v", rows)
	}
}

func TestMergeInvalidRequest(t *testing.T) {
	a := newTestAdapter(t)
	req := adapters.MergeRequest{Strategy: adapters.MergeIgnore}
	if err := a.MergeTables(context.Background(), req); err == nil {
		t.Error("Expected validation error for empty request")
	}
}
