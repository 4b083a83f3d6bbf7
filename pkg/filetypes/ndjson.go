package filetypes

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

func init() {
	Register(dataset.TypeNDJSON, func() Codec { return &NDJSONCodec{} })
}

// NDJSONCodec кодирует/декодирует newline-delimited JSON
type NDJSONCodec struct{}

var _ Codec = (*NDJSONCodec)(nil)

// Name возвращает формат кодека
func (c *NDJSONCodec) Name() dataset.FileType {
	return dataset.TypeNDJSON
}

// Decode читает по одному JSON-объекту на строку с одноуровневым
// разворачиванием вложенных объектов
func (c *NDJSONCodec) Decode(r io.Reader, opts DecodeOptions) (*tabular.Payload, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	var records []map[string]any
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()

		var record map[string]any
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode NDJSON line %d: %w", line, err)
		}
		records = append(records, coerceNumbers(record))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read NDJSON stream: %w", err)
	}

	return recordsToPayload(records, opts)
}

// Encode записывает payload по одному JSON-объекту на строку
func (c *NDJSONCodec) Encode(p *tabular.Payload, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, record := range payloadToRecords(p) {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("failed to encode NDJSON row: %w", err)
		}
	}
	return nil
}
