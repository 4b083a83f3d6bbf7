package dataset

import (
	"strings"
	"testing"
)

func TestGenerateTableName(t *testing.T) {
	name := GenerateTableName()

	if !strings.HasPrefix(name, TempPrefix) {
		t.Errorf("Expected prefix %s, got %s", TempPrefix, name)
	}
	if len(name) > MaxTableNameLength {
		t.Errorf("Expected length <= %d, got %d", MaxTableNameLength, len(name))
	}

	// после префикса - только lowercase буквы и цифры
	for _, r := range name[len(TempPrefix):] {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
			t.Errorf("Unexpected character %q in generated name %s", r, name)
		}
	}
}

func TestGenerateTableNameUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := GenerateTableName()
		if seen[name] {
			t.Fatalf("Duplicate generated name: %s", name)
		}
		seen[name] = true
	}
}

func TestNewTempTable(t *testing.T) {
	tbl := NewTempTable("my_conn", Metadata{Schema: "public"})

	if !tbl.Temp {
		t.Error("Expected Temp=true")
	}
	if tbl.Name == "" {
		t.Error("Expected generated name, got empty")
	}
	if tbl.Conn != "my_conn" {
		t.Errorf("Expected conn my_conn, got %s", tbl.Conn)
	}
	if tbl.Metadata.Schema != "public" {
		t.Errorf("Expected schema public, got %s", tbl.Metadata.Schema)
	}
}

func TestNewTableKeepsName(t *testing.T) {
	tbl := NewTable("orders", "pg", Metadata{})
	if tbl.Name != "orders" {
		t.Errorf("Expected orders, got %s", tbl.Name)
	}
	if tbl.Temp {
		t.Error("Explicitly named table must not be Temp")
	}
}

func TestDeterministicTempName(t *testing.T) {
	a := DeterministicTempName("run-1", "task-1")
	b := DeterministicTempName("run-1", "task-1")
	c := DeterministicTempName("run-1", "task-2")

	if a != b {
		t.Errorf("Same parts must give same name: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("Different parts must give different names: %s", a)
	}
	if !strings.HasPrefix(a, TempPrefix) {
		t.Errorf("Expected prefix %s, got %s", TempPrefix, a)
	}
	if len(a) > MaxTableNameLength {
		t.Errorf("Expected length <= %d, got %d", MaxTableNameLength, len(a))
	}
}

func TestKeyColumns(t *testing.T) {
	tbl := Table{
		Name: "t",
		Columns: []Column{
			{Name: "id", Type: "integer", Key: true},
			{Name: "name", Type: "string"},
			{Name: "org", Type: "string", Key: true},
		},
	}

	keys := tbl.KeyColumns()
	if len(keys) != 2 {
		t.Fatalf("Expected 2 key columns, got %d", len(keys))
	}
	if keys[0] != "id" || keys[1] != "org" {
		t.Errorf("Expected [id org], got %v", keys)
	}
}
