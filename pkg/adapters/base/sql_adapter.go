package base

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// Dialect - движко-специфичные детали SQL рендеринга.
// Реализуется каждым database/sql адаптером.
type Dialect interface {
	// Quote квотирует идентификатор ("col", `col`, [col])
	Quote(ident string) string

	// Placeholder возвращает placeholder для n-го аргумента (1-based):
	// "?" или "$1" или "@p1"
	Placeholder(n int) string

	// TypeFor отображает обобщенный тип колонки на SQL тип движка
	TypeFor(kind string) string

	// QualifiedName возвращает полное имя таблицы по правилу движка
	QualifiedName(t dataset.Table) string
}

// SQLAdapter - общая реализация контракта адаптера поверх database/sql.
// Устраняет дублирование между sqlite/mysql/mssql/duckdb/snowflake:
// движки отличаются только Dialect'ом и движко-специфичными запросами.
type SQLAdapter struct {
	DB      *sql.DB
	Dialect Dialect
	ConnID  string
}

// QuoteColumns квотирует список имен колонок
func (a *SQLAdapter) QuoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = a.Dialect.Quote(c)
	}
	return quoted
}

// BuildCreateTable собирает DDL создания таблицы из списка колонок
func (a *SQLAdapter) BuildCreateTable(t dataset.Table, cols []dataset.Column) string {
	defs := make([]string, 0, len(cols)+1)
	var pk []string

	for _, col := range cols {
		defs = append(defs, fmt.Sprintf("%s %s",
			a.Dialect.Quote(col.Name), a.Dialect.TypeFor(col.Type)))
		if col.Key {
			pk = append(pk, a.Dialect.Quote(col.Name))
		}
	}
	if len(pk) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)",
		a.Dialect.QualifiedName(t), strings.Join(defs, ",\n  "))
}

// CreateTable создает таблицу по списку колонок
func (a *SQLAdapter) CreateTable(ctx context.Context, t dataset.Table, cols []dataset.Column) error {
	if len(cols) == 0 {
		return errs.SchemaMismatch(fmt.Sprintf(
			"cannot create table %s without column definitions", a.Dialect.QualifiedName(t)))
	}
	if _, err := a.DB.ExecContext(ctx, a.BuildCreateTable(t, cols)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", a.Dialect.QualifiedName(t), err)
	}
	return nil
}

// DropTable удаляет таблицу. Идемпотентна.
func (a *SQLAdapter) DropTable(ctx context.Context, t dataset.Table) error {
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", a.Dialect.QualifiedName(t))
	if _, err := a.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", a.Dialect.QualifiedName(t), err)
	}
	return nil
}

// TableOps - операции, которые движко-специфичный адаптер
// предоставляет общей логике загрузки
type TableOps interface {
	TableExists(ctx context.Context, t dataset.Table) (bool, error)
	CreateTable(ctx context.Context, t dataset.Table, cols []dataset.Column) error
	DropTable(ctx context.Context, t dataset.Table) error
}

// LoadPayload - общая логика chunked-загрузки payload в таблицу.
//
//  1. ifExists=replace: пересоздать таблицу
//  2. ifExists=append:  создать если отсутствует
//  3. ifExists=fail:    ошибка если существует
//  4. вставка частями по chunkSize строк, в порядке payload
func (a *SQLAdapter) LoadPayload(ctx context.Context, ops TableOps, p *tabular.Payload,
	target dataset.Table, ifExists adapters.IfExists, chunkSize int) error {

	cols := target.Columns
	if len(cols) == 0 {
		cols = tabular.InferColumns(p)
	}

	exists, err := ops.TableExists(ctx, target)
	if err != nil {
		return err
	}

	switch ifExists {
	case adapters.IfExistsReplace:
		if exists {
			if err := ops.DropTable(ctx, target); err != nil {
				return err
			}
		}
		if err := ops.CreateTable(ctx, target, cols); err != nil {
			return err
		}
	case adapters.IfExistsAppend:
		if !exists {
			if err := ops.CreateTable(ctx, target, cols); err != nil {
				return err
			}
		}
	case adapters.IfExistsFail:
		if exists {
			return fmt.Errorf("table %s already exists", a.Dialect.QualifiedName(target))
		}
		if err := ops.CreateTable(ctx, target, cols); err != nil {
			return err
		}
	default:
		return errs.Unsupported("if_exists", string(ifExists))
	}

	for _, chunk := range p.Chunks(chunkSize) {
		if err := a.InsertChunk(ctx, target, chunk); err != nil {
			return err
		}
	}
	return nil
}

// InsertChunk вставляет один chunk многострочным INSERT'ом
func (a *SQLAdapter) InsertChunk(ctx context.Context, target dataset.Table, chunk *tabular.Payload) error {
	if chunk.NumRows() == 0 {
		return nil
	}

	var (
		rowExprs []string
		args     []any
		n        = 1
	)
	for _, row := range chunk.Rows {
		ph := make([]string, len(chunk.Columns))
		for i := range chunk.Columns {
			ph[i] = a.Dialect.Placeholder(n)
			n++
			if i < len(row) {
				args = append(args, row[i])
			} else {
				args = append(args, nil)
			}
		}
		rowExprs = append(rowExprs, "("+strings.Join(ph, ", ")+")")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		a.Dialect.QualifiedName(target),
		strings.Join(a.QuoteColumns(chunk.Columns), ", "),
		strings.Join(rowExprs, ", "))

	if _, err := a.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert chunk into %s: %w",
			a.Dialect.QualifiedName(target), err)
	}
	return nil
}

// ExportToPayload выгружает все строки таблицы в payload.
// Общая реализация через database/sql; порядок колонок - как в таблице.
func (a *SQLAdapter) ExportToPayload(ctx context.Context, t dataset.Table) (*tabular.Payload, error) {
	qualified := a.Dialect.QualifiedName(t)

	rows, err := a.DB.QueryContext(ctx, "SELECT * FROM "+qualified)
	if err != nil {
		return nil, fmt.Errorf("failed to export table %s: %w", qualified, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", qualified, err)
	}

	payload := tabular.New(columns...)
	for rows.Next() {
		values := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", qualified, err)
		}
		for i, v := range values {
			// database/sql отдает текст как []byte; нормализуем в string
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		payload.Rows = append(payload.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows of %s: %w", qualified, err)
	}
	return payload, nil
}

// Ping проверяет доступность движка
// QueryCount выполняет запрос, возвращающий одно число
func (a *SQLAdapter) QueryCount(ctx context.Context, query string) (int64, error) {
	var count int64
	if err := a.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return count, nil
}

func (a *SQLAdapter) Ping(ctx context.Context) error {
	if a.DB == nil {
		return fmt.Errorf("adapter not connected")
	}
	return a.DB.PingContext(ctx)
}

// Close закрывает подключение
func (a *SQLAdapter) Close(context.Context) error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
