package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// LoadPayload загружает payload частями по chunkSize строк
func (a *Adapter) LoadPayload(ctx context.Context, p *tabular.Payload, target dataset.Table,
	ifExists adapters.IfExists, chunkSize int) error {

	if chunkSize <= 0 {
		chunkSize = tabular.DefaultChunkSize
	}

	exists, err := a.TableExists(ctx, target)
	if err != nil {
		return err
	}

	switch ifExists {
	case adapters.IfExistsFail:
		if exists {
			return fmt.Errorf("table %s already exists", target.Name)
		}
	case adapters.IfExistsReplace:
		if exists {
			if err := a.DropTable(ctx, target); err != nil {
				return err
			}
			exists = false
		}
	case adapters.IfExistsAppend:
		// дописываем в существующую таблицу
	default:
		return errs.Unsupported("if_exists policy", string(ifExists))
	}

	if !exists {
		cols := target.Columns
		if len(cols) == 0 {
			cols = tabular.InferColumns(p)
		}
		if err := a.CreateTable(ctx, target, cols); err != nil {
			return err
		}
	}

	for _, chunk := range p.Chunks(chunkSize) {
		if err := a.insertChunk(ctx, target, chunk); err != nil {
			return err
		}
	}
	return nil
}

// insertChunk выполняет multi-row INSERT одного чанка
func (a *Adapter) insertChunk(ctx context.Context, target dataset.Table, chunk *tabular.Payload) error {
	if chunk.NumRows() == 0 {
		return nil
	}

	quoted := make([]string, len(chunk.Columns))
	for i, c := range chunk.Columns {
		quoted[i] = quote(c)
	}

	var (
		placeholders []string
		args         []any
	)
	n := 1
	for _, row := range chunk.Rows {
		ph := make([]string, len(row))
		for i, v := range row {
			ph[i] = fmt.Sprintf("$%d", n)
			args = append(args, v)
			n++
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		a.QualifiedName(target), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	if _, err := a.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to insert chunk into %s: %w", target.Name, err)
	}
	return nil
}

// ExportToPayload выгружает таблицу в табличный payload
func (a *Adapter) ExportToPayload(ctx context.Context, t dataset.Table) (*tabular.Payload, error) {
	rows, err := a.pool.Query(ctx, "SELECT * FROM "+a.QualifiedName(t))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", t.Name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	payload := tabular.New(cols...)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", t.Name, err)
		}
		row := make([]any, len(values))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		payload.AppendRow(row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows of %s: %w", t.Name, err)
	}
	return payload, nil
}
