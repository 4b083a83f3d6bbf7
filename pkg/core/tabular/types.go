package tabular

import (
	"time"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
)

// Обобщенные типы колонок, на которые адаптеры отображают
// свои движко-специфичные SQL типы
const (
	KindString    = "string"
	KindInteger   = "integer"
	KindFloat     = "float"
	KindBoolean   = "boolean"
	KindTimestamp = "timestamp"
)

// InferColumns выводит определения колонок из значений payload.
// Тип колонки определяется по первому не-nil значению;
// колонки без единого значения считаются строковыми.
func InferColumns(p *Payload) []dataset.Column {
	cols := make([]dataset.Column, len(p.Columns))
	for i, name := range p.Columns {
		cols[i] = dataset.Column{Name: name, Type: KindString}

		for _, row := range p.Rows {
			if i >= len(row) || row[i] == nil {
				continue
			}
			cols[i].Type = kindOf(row[i])
			break
		}
	}
	return cols
}

// kindOf возвращает обобщенный тип значения
func kindOf(v any) string {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInteger
	case float32, float64:
		return KindFloat
	case bool:
		return KindBoolean
	case time.Time:
		return KindTimestamp
	default:
		return KindString
	}
}
