package filetypes

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

func TestJSONDecode(t *testing.T) {
	input := `[{"id": 1, "name": "Иван"}, {"id": 2, "name": "Мария", "extra": true}]`

	codec, err := New(dataset.TypeJSON)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	payload, err := codec.Decode(strings.NewReader(input), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// колонки - объединение ключей всех записей
	if len(payload.Columns) != 3 {
		t.Fatalf("Expected 3 columns, got %v", payload.Columns)
	}
	if payload.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", payload.NumRows())
	}

	idx := payload.ColumnIndex("id")
	if idx < 0 {
		t.Fatal("Column 'id' not found")
	}
	// целые числа остаются int64, не float64
	if v, ok := payload.Rows[0][idx].(int64); !ok || v != 1 {
		t.Errorf("Expected int64(1), got %T(%v)", payload.Rows[0][idx], payload.Rows[0][idx])
	}

	// отсутствующее значение - nil
	extra := payload.ColumnIndex("extra")
	if payload.Rows[0][extra] != nil {
		t.Errorf("Expected nil for missing key, got %v", payload.Rows[0][extra])
	}
}

func TestJSONDecodeNested(t *testing.T) {
	input := `[{"id": 1, "address": {"city": "Москва", "zip": "101000"}}]`

	codec, _ := New(dataset.TypeJSON)
	payload, err := codec.Decode(strings.NewReader(input), DecodeOptions{Separator: "_"})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if payload.ColumnIndex("address_city") < 0 {
		t.Errorf("Expected flattened column address_city, got %v", payload.Columns)
	}
	city := payload.ColumnIndex("address_city")
	if payload.Rows[0][city] != "Москва" {
		t.Errorf("Expected 'Москва', got %v", payload.Rows[0][city])
	}
}

func TestJSONDecodeTooDeep(t *testing.T) {
	// вложенность глубже одного уровня - жесткая ошибка
	input := `[{"a": {"b": {"c": 1}}}]`

	codec, _ := New(dataset.TypeJSON)
	_, err := codec.Decode(strings.NewReader(input), DecodeOptions{})
	if err == nil {
		t.Fatal("Expected error for two-level nesting")
	}
	if !errors.Is(err, errs.ErrSchemaMismatch) {
		t.Errorf("Expected ErrSchemaMismatch, got %v", err)
	}
}

func TestJSONDecodeFloat(t *testing.T) {
	codec, _ := New(dataset.TypeJSON)
	payload, err := codec.Decode(strings.NewReader(`[{"price": 10.5}]`), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v, ok := payload.Rows[0][0].(float64); !ok || v != 10.5 {
		t.Errorf("Expected float64(10.5), got %T(%v)", payload.Rows[0][0], payload.Rows[0][0])
	}
}

func TestJSONRoundTrip(t *testing.T) {
	codec, _ := New(dataset.TypeJSON)

	input := `[{"id": 1, "name": "test"}]`
	original, err := codec.Decode(strings.NewReader(input), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	var buf bytes.Buffer
	if err := codec.Encode(original, &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := codec.Decode(&buf, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode of encoded output failed: %v", err)
	}
	if !original.Equal(decoded) {
		t.Errorf("Round-trip mismatch: %v vs %v", original.Rows, decoded.Rows)
	}
}
