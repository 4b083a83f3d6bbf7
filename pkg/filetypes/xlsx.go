package filetypes

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

func init() {
	Register(dataset.TypeXLSX, func() Codec { return &XLSXCodec{} })
}

// XLSXCodec кодирует/декодирует Excel файлы.
// Читается первый лист, первая строка - заголовок.
type XLSXCodec struct{}

var _ Codec = (*XLSXCodec)(nil)

// Name возвращает формат кодека
func (c *XLSXCodec) Name() dataset.FileType {
	return dataset.TypeXLSX
}

// Decode читает первый лист книги в payload
func (c *XLSXCodec) Decode(r io.Reader, opts DecodeOptions) (*tabular.Payload, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx stream: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tabular.New(), nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return tabular.New(), nil
	}

	payload := tabular.New(rows[0]...)
	for _, record := range rows[1:] {
		row := make([]any, len(payload.Columns))
		for i := range payload.Columns {
			if i < len(record) {
				row[i] = record[i]
			}
		}
		payload.Rows = append(payload.Rows, row)
	}

	payload.ApplyCapitalization(opts.Capitalization)
	return payload, nil
}

// Encode записывает payload на лист Sheet1
func (c *XLSXCodec) Encode(p *tabular.Payload, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	for col, name := range p.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header cell %s: %w", cell, err)
		}
	}

	for rowIdx, row := range p.Rows {
		for col := range p.Columns {
			var v any
			if col < len(row) {
				v = row[col]
			}
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx stream: %w", err)
	}
	return nil
}
