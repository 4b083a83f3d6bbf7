package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register(adapters.EngineDuckDB, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter представляет адаптер для работы с DuckDB.
// Пустой DSN открывает in-memory базу.
type Adapter struct {
	base.Unimplemented
	sqlAdapter base.SQLAdapter
	params     map[string]string
}

// dialect реализует base.Dialect для DuckDB
type dialect struct{}

func (dialect) Quote(ident string) string { return `"` + ident + `"` }

func (dialect) Placeholder(int) string { return "?" }

func (dialect) TypeFor(kind string) string {
	switch kind {
	case tabular.KindInteger:
		return "BIGINT"
	case tabular.KindFloat:
		return "DOUBLE"
	case tabular.KindBoolean:
		return "BOOLEAN"
	case tabular.KindTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

// QualifiedName: DuckDB-каталог по умолчанию, полное имя = имя таблицы
func (dialect) QualifiedName(t dataset.Table) string {
	return `"` + t.Name + `"`
}

// Connect открывает DuckDB базу
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	a.EngineName = adapters.EngineDuckDB

	db, err := sql.Open("duckdb", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open duckdb database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping duckdb database: %w", err)
	}

	a.params = cfg.Params
	a.sqlAdapter = base.SQLAdapter{DB: db, Dialect: dialect{}, ConnID: cfg.ConnID}
	return nil
}

// Close закрывает подключение
func (a *Adapter) Close(ctx context.Context) error {
	return a.sqlAdapter.Close(ctx)
}

// Ping проверяет доступность БД
func (a *Adapter) Ping(ctx context.Context) error {
	return a.sqlAdapter.Ping(ctx)
}

// Engine возвращает тип движка
func (a *Adapter) Engine() adapters.Engine {
	return adapters.EngineDuckDB
}

// DefaultMetadata: значений по умолчанию нет
func (a *Adapter) DefaultMetadata() dataset.Metadata {
	return dataset.Metadata{}
}

// QualifiedName возвращает полное имя таблицы
func (a *Adapter) QualifiedName(t dataset.Table) string {
	return dialect{}.QualifiedName(t)
}

// IllegalColumnChars: квотированные идентификаторы принимают любые символы
func (a *Adapter) IllegalColumnChars() []string {
	return nil
}

// TableExists проверяет существование таблицы
func (a *Adapter) TableExists(ctx context.Context, t dataset.Table) (bool, error) {
	var count int
	err := a.sqlAdapter.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_name = ?
	`, t.Name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return count > 0, nil
}

// SchemaExists проверяет существование схемы
func (a *Adapter) SchemaExists(ctx context.Context, schema string) (bool, error) {
	if schema == "" || schema == "main" {
		return true, nil
	}
	var count int
	err := a.sqlAdapter.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.schemata
		WHERE schema_name = ?
	`, schema).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check schema existence: %w", err)
	}
	return count > 0, nil
}

// CreateTable создает таблицу по списку колонок
func (a *Adapter) CreateTable(ctx context.Context, t dataset.Table, cols []dataset.Column) error {
	return a.sqlAdapter.CreateTable(ctx, t, cols)
}

// DropTable удаляет таблицу (идемпотентно)
func (a *Adapter) DropTable(ctx context.Context, t dataset.Table) error {
	return a.sqlAdapter.DropTable(ctx, t)
}

// LoadPayload загружает payload частями
func (a *Adapter) LoadPayload(ctx context.Context, p *tabular.Payload, target dataset.Table,
	ifExists adapters.IfExists, chunkSize int) error {
	return a.sqlAdapter.LoadPayload(ctx, a, p, target, ifExists, chunkSize)
}

// ExportToPayload выгружает таблицу в payload
func (a *Adapter) ExportToPayload(ctx context.Context, t dataset.Table) (*tabular.Payload, error) {
	return a.sqlAdapter.ExportToPayload(ctx, t)
}
