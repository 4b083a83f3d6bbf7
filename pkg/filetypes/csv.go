package filetypes

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

func init() {
	Register(dataset.TypeCSV, func() Codec { return &CSVCodec{} })
}

// CSVCodec кодирует/декодирует CSV с заголовком в первой строке
type CSVCodec struct{}

var _ Codec = (*CSVCodec)(nil)

// Name возвращает формат кодека
func (c *CSVCodec) Name() dataset.FileType {
	return dataset.TypeCSV
}

// Decode читает CSV в payload. Первая строка - заголовок.
// Все значения остаются строками: типизацию при необходимости
// выполняет адаптер назначения.
func (c *CSVCodec) Decode(r io.Reader, opts DecodeOptions) (*tabular.Payload, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // длину строк проверяем сами, с внятной ошибкой

	header, err := reader.Read()
	if err == io.EOF {
		return tabular.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	payload := tabular.New(header...)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line+1, err)
		}
		line++

		row := make([]any, len(header))
		for i := range header {
			if i < len(record) {
				row[i] = record[i]
			}
		}
		payload.Rows = append(payload.Rows, row)
	}

	payload.ApplyCapitalization(opts.Capitalization)
	return payload, nil
}

// Encode записывает payload как CSV с заголовком
func (c *CSVCodec) Encode(p *tabular.Payload, w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(p.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(p.Columns))
	for _, row := range p.Rows {
		for i := range p.Columns {
			if i < len(row) && row[i] != nil {
				record[i] = fmt.Sprint(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
