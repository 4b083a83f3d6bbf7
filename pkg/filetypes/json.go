package filetypes

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

func init() {
	Register(dataset.TypeJSON, func() Codec { return &JSONCodec{} })
}

// JSONCodec кодирует/декодирует JSON-массив объектов
type JSONCodec struct{}

var _ Codec = (*JSONCodec)(nil)

// Name возвращает формат кодека
func (c *JSONCodec) Name() dataset.FileType {
	return dataset.TypeJSON
}

// Decode читает JSON-массив записей с одноуровневым разворачиванием
// вложенных объектов
func (c *JSONCodec) Decode(r io.Reader, opts DecodeOptions) (*tabular.Payload, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON array: %w", err)
	}
	for i := range records {
		records[i] = coerceNumbers(records[i])
	}
	return recordsToPayload(records, opts)
}

// Encode записывает payload как JSON-массив объектов
func (c *JSONCodec) Encode(p *tabular.Payload, w io.Writer) error {
	records := payloadToRecords(p)
	enc := json.NewEncoder(w)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode JSON array: %w", err)
	}
	return nil
}

// payloadToRecords превращает payload в список упорядоченных записей
func payloadToRecords(p *tabular.Payload) []map[string]any {
	records := make([]map[string]any, 0, len(p.Rows))
	for _, row := range p.Rows {
		record := make(map[string]any, len(p.Columns))
		for i, col := range p.Columns {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}

// coerceNumbers заменяет json.Number на int64/float64, сохраняя
// целочисленность там, где она есть в исходных данных
func coerceNumbers(record map[string]any) map[string]any {
	for key, value := range record {
		record[key] = coerceValue(value)
	}
	return record
}

func coerceValue(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		return coerceNumbers(v)
	case []any:
		for i := range v {
			v[i] = coerceValue(v[i])
		}
		return v
	default:
		return value
	}
}

// sortedKeys возвращает ключи map в стабильном порядке
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
