package filetypes

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

func TestCSVDecode(t *testing.T) {
	input := "id,name,city\n1,Иван,Москва\n2,Мария,Санкт-Петербург\n"

	codec, err := New(dataset.TypeCSV)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	payload, err := codec.Decode(strings.NewReader(input), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(payload.Columns) != 3 {
		t.Fatalf("Expected 3 columns, got %d", len(payload.Columns))
	}
	if payload.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", payload.NumRows())
	}
	if payload.Rows[0][1] != "Иван" {
		t.Errorf("Expected 'Иван', got %v", payload.Rows[0][1])
	}
	if payload.Rows[1][2] != "Санкт-Петербург" {
		t.Errorf("Expected 'Санкт-Петербург', got %v", payload.Rows[1][2])
	}
}

func TestCSVDecodeEmpty(t *testing.T) {
	codec, _ := New(dataset.TypeCSV)
	payload, err := codec.Decode(strings.NewReader(""), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if payload.NumRows() != 0 || payload.NumColumns() != 0 {
		t.Errorf("Expected empty payload, got %d cols %d rows",
			payload.NumColumns(), payload.NumRows())
	}
}

func TestCSVDecodeCapitalization(t *testing.T) {
	codec, _ := New(dataset.TypeCSV)
	payload, err := codec.Decode(
		strings.NewReader("Id,UserName\n1,a\n"),
		DecodeOptions{Capitalization: dataset.CapLower})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if payload.Columns[0] != "id" || payload.Columns[1] != "username" {
		t.Errorf("Expected lowercase columns, got %v", payload.Columns)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	codec, _ := New(dataset.TypeCSV)

	original := tabular.New("id", "name")
	original.AppendRow([]any{"1", "Иван"})
	original.AppendRow([]any{"2", ""})

	var buf bytes.Buffer
	if err := codec.Encode(original, &buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := codec.Decode(&buf, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !original.Equal(decoded) {
		t.Errorf("Round-trip mismatch: %v vs %v", original.Rows, decoded.Rows)
	}
}

func TestCSVDecodeShortRow(t *testing.T) {
	// короткая строка дополняется nil, а не ошибкой
	codec, _ := New(dataset.TypeCSV)
	payload, err := codec.Decode(strings.NewReader("a,b,c\n1,2\n"), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if payload.Rows[0][2] != nil {
		t.Errorf("Expected nil for missing value, got %v", payload.Rows[0][2])
	}
}
