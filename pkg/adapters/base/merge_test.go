package base

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

func quoteDouble(s string) string {
	return `"` + s + `"`
}

func sampleRequest(strategy adapters.MergeStrategy) adapters.MergeRequest {
	return adapters.MergeRequest{
		ColumnMap: map[string]string{
			"src_id":   "id",
			"src_name": "name",
			"src_city": "city",
		},
		ConflictColumns: []string{"id"},
		Strategy:        strategy,
	}
}

func TestOrderedColumnsDeterministic(t *testing.T) {
	req := sampleRequest(adapters.MergeIgnore)

	first := OrderedColumns(req)
	for i := 0; i < 20; i++ {
		next := OrderedColumns(req)
		for j := range first.Source {
			if first.Source[j] != next.Source[j] || first.Target[j] != next.Target[j] {
				t.Fatalf("Column order is not stable: %v vs %v", first, next)
			}
		}
	}

	// источники отсортированы
	for i := 1; i < len(first.Source); i++ {
		if first.Source[i-1] > first.Source[i] {
			t.Errorf("Source columns not sorted: %v", first.Source)
		}
	}
	// target следует за своим source
	for i, s := range first.Source {
		if first.Target[i] != req.ColumnMap[s] {
			t.Errorf("Target %q does not match map for source %q", first.Target[i], s)
		}
	}
}

func TestValidateMergeRequest(t *testing.T) {
	if err := ValidateMergeRequest(sampleRequest(adapters.MergeUpdate)); err != nil {
		t.Errorf("Valid request rejected: %v", err)
	}

	empty := sampleRequest(adapters.MergeIgnore)
	empty.ColumnMap = nil
	if err := ValidateMergeRequest(empty); !errors.Is(err, errs.ErrSchemaMismatch) {
		t.Errorf("Expected ErrSchemaMismatch for empty column map, got %v", err)
	}

	noKeys := sampleRequest(adapters.MergeIgnore)
	noKeys.ConflictColumns = nil
	if err := ValidateMergeRequest(noKeys); !errors.Is(err, errs.ErrSchemaMismatch) {
		t.Errorf("Expected ErrSchemaMismatch for empty conflict columns, got %v", err)
	}

	badKey := sampleRequest(adapters.MergeIgnore)
	badKey.ConflictColumns = []string{"missing"}
	if err := ValidateMergeRequest(badKey); !errors.Is(err, errs.ErrSchemaMismatch) {
		t.Errorf("Expected ErrSchemaMismatch for unknown conflict column, got %v", err)
	}

	badStrategy := sampleRequest(adapters.MergeStrategy("upsert"))
	if err := ValidateMergeRequest(badStrategy); !errors.Is(err, errs.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for unknown strategy, got %v", err)
	}
}

func TestBuildMergeStatementIgnore(t *testing.T) {
	sql := BuildMergeStatement(quoteDouble, `"staging"`, `"users"`, sampleRequest(adapters.MergeIgnore))

	for _, want := range []string{
		`MERGE INTO "users" T USING`,
		`ROW_NUMBER() OVER (PARTITION BY "src_id" ORDER BY "src_city", "src_id", "src_name")`,
		`AS ranked WHERE udt_rn = 1`,
		`ON T."id" = S."src_id"`,
		`WHEN NOT MATCHED THEN INSERT ("city", "id", "name") VALUES (S."src_city", S."src_id", S."src_name")`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("Statement missing %q:\n%s", want, sql)
		}
	}
	if strings.Contains(sql, "WHEN MATCHED") {
		t.Errorf("Ignore strategy must not update matched rows:\n%s", sql)
	}
}

func TestBuildMergeStatementUpdate(t *testing.T) {
	sql := BuildMergeStatement(quoteDouble, `"staging"`, `"users"`, sampleRequest(adapters.MergeUpdate))

	if !strings.Contains(sql, `WHEN MATCHED THEN UPDATE SET T."city" = S."src_city", T."name" = S."src_name"`) {
		t.Errorf("Update clause missing or wrong:\n%s", sql)
	}
	// ключевые колонки не обновляются
	if _, updates, found := strings.Cut(sql, "UPDATE SET "); found {
		if strings.Contains(updates, `T."id"`) {
			t.Errorf("Conflict column must not appear in update set:\n%s", sql)
		}
	}
}

func TestBuildMergeStatementAllKeysUpdate(t *testing.T) {
	// все колонки ключевые: update вырождается в чистую вставку новых ключей
	req := adapters.MergeRequest{
		ColumnMap:       map[string]string{"src_id": "id"},
		ConflictColumns: []string{"id"},
		Strategy:        adapters.MergeUpdate,
	}
	sql := BuildMergeStatement(quoteDouble, "s", "t", req)
	if strings.Contains(sql, "WHEN MATCHED") {
		t.Errorf("Expected no update clause when all columns are keys:\n%s", sql)
	}
}

func TestSourceKeyColumns(t *testing.T) {
	req := sampleRequest(adapters.MergeIgnore)
	req.ConflictColumns = []string{"id", "city"}

	keys := SourceKeyColumns(req)
	if len(keys) != 2 || keys[0] != "src_id" || keys[1] != "src_city" {
		t.Errorf("Expected [src_id src_city], got %v", keys)
	}
}

func TestBuildDedupedSourceOrdered(t *testing.T) {
	sql := BuildDedupedSource(quoteDouble, `"staging"`, sampleRequest(adapters.MergeIgnore))

	// окно обязано нести ORDER BY: без него ROW_NUMBER не принимается
	// частью движков, а представитель дубликата недетерминирован
	window := `ROW_NUMBER() OVER (PARTITION BY "src_id" ORDER BY "src_city", "src_id", "src_name")`
	if !strings.Contains(sql, window) {
		t.Errorf("Dedup window missing or unordered:\n%s", sql)
	}
	if !strings.Contains(sql, "AS ranked WHERE udt_rn = 1") {
		t.Errorf("Dedup filter missing:\n%s", sql)
	}
}

func TestBuildConflictCountQuery(t *testing.T) {
	sql := BuildConflictCountQuery(quoteDouble, `"staging"`, `"users"`, sampleRequest(adapters.MergeException))

	if !strings.HasPrefix(sql, "SELECT COUNT(*) FROM") {
		t.Errorf("Unexpected query shape: %s", sql)
	}
	if !strings.Contains(sql, `T."id" = S."src_id"`) {
		t.Errorf("Join condition missing: %s", sql)
	}
}

type fakeChecker struct {
	count int64
	query string
}

func (f *fakeChecker) QueryCount(_ context.Context, query string) (int64, error) {
	f.query = query
	return f.count, nil
}

func TestEnsureNoConflicts(t *testing.T) {
	req := sampleRequest(adapters.MergeException)

	clean := &fakeChecker{count: 0}
	if err := EnsureNoConflicts(context.Background(), clean, quoteDouble, "s", "t", req); err != nil {
		t.Errorf("Expected no error for zero conflicts, got %v", err)
	}

	dirty := &fakeChecker{count: 3}
	err := EnsureNoConflicts(context.Background(), dirty, quoteDouble, "s", "t", req)
	if err == nil {
		t.Fatal("Expected error when conflicts exist")
	}
	if !strings.Contains(err.Error(), "3 conflicting rows") {
		t.Errorf("Expected conflict count in error, got: %v", err)
	}
}
