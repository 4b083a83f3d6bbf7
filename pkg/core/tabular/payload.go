package tabular

import (
	"fmt"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// DefaultChunkSize - размер chunk'а по умолчанию при загрузке в БД.
// Одинаков для всех движков, если драйвер не требует другого
const DefaultChunkSize = 1000

// Payload - табличное представление данных в памяти.
// Упорядоченный список колонок + строки значений.
// Это то, что кодеки производят при декодировании и
// потребляют при кодировании.
type Payload struct {
	Columns []string
	Rows    [][]any
}

// New создает пустой payload с заданными колонками
func New(columns ...string) *Payload {
	return &Payload{Columns: columns}
}

// NumRows возвращает количество строк
func (p *Payload) NumRows() int {
	return len(p.Rows)
}

// NumColumns возвращает количество колонок
func (p *Payload) NumColumns() int {
	return len(p.Columns)
}

// AppendRow добавляет строку. Длина должна совпадать с числом колонок.
func (p *Payload) AppendRow(row []any) error {
	if len(row) != len(p.Columns) {
		return errs.SchemaMismatch(fmt.Sprintf(
			"row has %d values, payload has %d columns", len(row), len(p.Columns)))
	}
	p.Rows = append(p.Rows, row)
	return nil
}

// ColumnIndex возвращает индекс колонки по имени или -1
func (p *Payload) ColumnIndex(name string) int {
	for i, c := range p.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Append дописывает строки другого payload. Набор колонок должен
// совпадать по именам и порядку - несколько файлов одного glob'а
// образуют один логический датасет.
func (p *Payload) Append(other *Payload) error {
	if len(p.Columns) == 0 && len(p.Rows) == 0 {
		p.Columns = other.Columns
		p.Rows = append(p.Rows, other.Rows...)
		return nil
	}
	if len(p.Columns) != len(other.Columns) {
		return errs.SchemaMismatch(fmt.Sprintf(
			"cannot concatenate payloads: %d columns vs %d", len(p.Columns), len(other.Columns)))
	}
	for i := range p.Columns {
		if p.Columns[i] != other.Columns[i] {
			return errs.SchemaMismatch(fmt.Sprintf(
				"cannot concatenate payloads: column %d is %q vs %q",
				i, p.Columns[i], other.Columns[i]))
		}
	}
	p.Rows = append(p.Rows, other.Rows...)
	return nil
}

// Chunks разбивает payload на части не длиннее size строк.
// Порядок строк сохраняется. size <= 0 означает DefaultChunkSize.
func (p *Payload) Chunks(size int) []*Payload {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(p.Rows) == 0 {
		return nil
	}

	var chunks []*Payload
	for start := 0; start < len(p.Rows); start += size {
		end := start + size
		if end > len(p.Rows) {
			end = len(p.Rows)
		}
		chunks = append(chunks, &Payload{
			Columns: p.Columns,
			Rows:    p.Rows[start:end],
		})
	}
	return chunks
}

// ApplyCapitalization приводит регистр имен колонок согласно политике.
// Выполняется как пост-обработка единообразно для всех кодеков,
// чтобы merge/compare ниже по потоку видели консистентный регистр.
func (p *Payload) ApplyCapitalization(policy dataset.Capitalization) {
	switch policy {
	case dataset.CapLower:
		for i := range p.Columns {
			p.Columns[i] = strings.ToLower(p.Columns[i])
		}
	case dataset.CapUpper:
		for i := range p.Columns {
			p.Columns[i] = strings.ToUpper(p.Columns[i])
		}
	}
}

// Equal сравнивает payload'ы по значению (для тестов и round-trip проверок).
// Значения сравниваются через fmt.Sprint, чтобы decode через разные
// кодеки (string "1" против int64 1) не считался расхождением.
func (p *Payload) Equal(other *Payload) bool {
	if len(p.Columns) != len(other.Columns) || len(p.Rows) != len(other.Rows) {
		return false
	}
	for i := range p.Columns {
		if p.Columns[i] != other.Columns[i] {
			return false
		}
	}
	for i := range p.Rows {
		for j := range p.Rows[i] {
			if fmt.Sprint(p.Rows[i][j]) != fmt.Sprint(other.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}
