package filetypes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

func init() {
	Register(dataset.TypeParquet, func() Codec { return &ParquetCodec{} })
}

// ParquetCodec кодирует/декодирует Parquet через Arrow.
// Формат требует random access, поэтому декодирование буферизует
// весь поток в память.
type ParquetCodec struct{}

var _ Codec = (*ParquetCodec)(nil)

// Name возвращает формат кодека
func (c *ParquetCodec) Name() dataset.FileType {
	return dataset.TypeParquet
}

// Decode читает Parquet поток в payload
func (c *ParquetCodec) Decode(r io.Reader, opts DecodeOptions) (*tabular.Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer parquet stream: %w", err)
	}

	table, err := pqarrow.ReadTable(
		context.Background(),
		bytes.NewReader(data),
		parquet.NewReaderProperties(memory.DefaultAllocator),
		pqarrow.ArrowReadProperties{},
		memory.DefaultAllocator,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet table: %w", err)
	}
	defer table.Release()

	payload := tabular.New()
	for i := 0; i < int(table.NumCols()); i++ {
		payload.Columns = append(payload.Columns, table.Schema().Field(i).Name)
	}

	payload.Rows = make([][]any, table.NumRows())
	for i := range payload.Rows {
		payload.Rows[i] = make([]any, table.NumCols())
	}

	for colIdx := 0; colIdx < int(table.NumCols()); colIdx++ {
		rowIdx := 0
		for _, chunk := range table.Column(colIdx).Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				payload.Rows[rowIdx][colIdx] = arrowValue(chunk, i)
				rowIdx++
			}
		}
	}

	payload.ApplyCapitalization(opts.Capitalization)
	return payload, nil
}

// arrowValue извлекает значение Arrow-массива как Go-значение
func arrowValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit)
	default:
		return arr.ValueStr(i)
	}
}

// Encode записывает payload как Parquet (snappy-сжатие)
func (c *ParquetCodec) Encode(p *tabular.Payload, w io.Writer) error {
	cols := tabular.InferColumns(p)

	fields := make([]arrow.Field, len(cols))
	for i, col := range cols {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowType(col.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, row := range p.Rows {
		for i := range fields {
			var v any
			if i < len(row) {
				v = row[i]
			}
			appendArrowValue(builder.Field(i), v)
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	table := array.NewTableFromRecords(schema, []arrow.Record{record})
	defer table.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	if err := pqarrow.WriteTable(table, w, int64(tabular.DefaultChunkSize), props,
		pqarrow.DefaultWriterProps()); err != nil {
		return fmt.Errorf("failed to write parquet table: %w", err)
	}
	return nil
}

// arrowType отображает обобщенный тип колонки на Arrow тип
func arrowType(kind string) arrow.DataType {
	switch kind {
	case tabular.KindInteger:
		return arrow.PrimitiveTypes.Int64
	case tabular.KindFloat:
		return arrow.PrimitiveTypes.Float64
	case tabular.KindBoolean:
		return arrow.FixedWidthTypes.Boolean
	case tabular.KindTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

// appendArrowValue добавляет Go-значение в соответствующий builder
func appendArrowValue(b array.Builder, v any) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch builder := b.(type) {
	case *array.StringBuilder:
		builder.Append(fmt.Sprint(v))
	case *array.Int64Builder:
		switch n := v.(type) {
		case int64:
			builder.Append(n)
		case int:
			builder.Append(int64(n))
		default:
			builder.AppendNull()
		}
	case *array.Float64Builder:
		switch n := v.(type) {
		case float64:
			builder.Append(n)
		case float32:
			builder.Append(float64(n))
		case int64:
			builder.Append(float64(n))
		default:
			builder.AppendNull()
		}
	case *array.BooleanBuilder:
		if bv, ok := v.(bool); ok {
			builder.Append(bv)
		} else {
			builder.AppendNull()
		}
	case *array.TimestampBuilder:
		if t, ok := v.(time.Time); ok {
			builder.Append(arrow.Timestamp(t.UnixMicro()))
		} else {
			builder.AppendNull()
		}
	default:
		b.AppendNull()
	}
}
