package dataset

import (
	"errors"
	"testing"

	"github.com/ruslano69/udt-framework/pkg/errs"
)

func TestTypeFromPath(t *testing.T) {
	tests := []struct {
		path string
		want FileType
	}{
		{"data.csv", TypeCSV},
		{"data.CSV", TypeCSV},
		{"s3://bucket/prefix/data.json", TypeJSON},
		{"data.ndjson", TypeNDJSON},
		{"data.jsonl", TypeNDJSON},
		{"gs://bucket/data.parquet", TypeParquet},
		{"report.xlsx", TypeXLSX},
		// суффиксы сжатия снимаются перед определением
		{"data.csv.gz", TypeCSV},
		{"data.ndjson.zst", TypeNDJSON},
	}

	for _, tt := range tests {
		got, err := TypeFromPath(tt.path)
		if err != nil {
			t.Errorf("TypeFromPath(%s) failed: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("TypeFromPath(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestTypeFromPathUnknown(t *testing.T) {
	_, err := TypeFromPath("data.bin")
	if err == nil {
		t.Fatal("Expected error for unknown extension")
	}
	if !errors.Is(err, errs.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
}

func TestNewFileInference(t *testing.T) {
	f, err := NewFile("s3://bucket/data.csv", "aws", "")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if f.Type != TypeCSV {
		t.Errorf("Expected csv, got %s", f.Type)
	}

	// явный тип имеет приоритет над расширением
	f, err = NewFile("data.csv", "", TypeNDJSON)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if f.Type != TypeNDJSON {
		t.Errorf("Expected ndjson, got %s", f.Type)
	}

	// невозможность определить тип - жесткая ошибка
	if _, err := NewFile("data.unknown", "", ""); err == nil {
		t.Error("Expected error for uninferrable type")
	}
}

func TestCompressionFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data.csv.gz", "gz"},
		{"data.ndjson.zst", "zst"},
		{"data.csv", ""},
	}

	for _, tt := range tests {
		if got := CompressionFromPath(tt.path); got != tt.want {
			t.Errorf("CompressionFromPath(%s) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestEffectiveSeparator(t *testing.T) {
	if got := (NormalizeConfig{}).EffectiveSeparator(); got != DefaultNestedSeparator {
		t.Errorf("Expected default separator, got %q", got)
	}
	if got := (NormalizeConfig{Separator: "."}).EffectiveSeparator(); got != "." {
		t.Errorf("Expected '.', got %q", got)
	}
}
