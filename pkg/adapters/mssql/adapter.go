package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register(adapters.EngineMSSQL, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter представляет адаптер для работы с MS SQL Server
type Adapter struct {
	base.Unimplemented
	sqlAdapter base.SQLAdapter
	schema     string
}

// dialect реализует base.Dialect для MS SQL Server
type dialect struct{ schema string }

func (dialect) Quote(ident string) string { return "[" + ident + "]" }

func (dialect) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

func (dialect) TypeFor(kind string) string {
	switch kind {
	case tabular.KindInteger:
		return "BIGINT"
	case tabular.KindFloat:
		return "FLOAT"
	case tabular.KindBoolean:
		return "BIT"
	case tabular.KindTimestamp:
		return "DATETIME2"
	default:
		// NVARCHAR(450): максимум для колонки в составе
		// уникального индекса (лимит ключа 900 байт)
		return "NVARCHAR(450)"
	}
}

// QualifiedName: [schema].[table], схема по умолчанию dbo
func (d dialect) QualifiedName(t dataset.Table) string {
	schema := t.Metadata.Schema
	if schema == "" {
		schema = d.schema
	}
	if schema == "" {
		schema = "dbo"
	}
	return d.Quote(schema) + "." + d.Quote(t.Name)
}

// Connect устанавливает подключение к SQL Server
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	a.EngineName = adapters.EngineMSSQL

	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open mssql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping mssql: %w", err)
	}

	a.schema = cfg.Schema
	if a.schema == "" {
		a.schema = "dbo"
	}
	a.sqlAdapter = base.SQLAdapter{DB: db, Dialect: dialect{schema: a.schema}, ConnID: cfg.ConnID}
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
	return adapters.EngineMSSQL
}

// DefaultMetadata возвращает схему подключения
func (a *Adapter) DefaultMetadata() dataset.Metadata {
	return dataset.Metadata{Schema: a.schema}
}

// QualifiedName возвращает полное имя таблицы
func (a *Adapter) QualifiedName(t dataset.Table) string {
	return dialect{schema: a.schema}.QualifiedName(t)
}

// IllegalColumnChars: bracket-квотирование принимает любые
// символы кроме закрывающей скобки
func (a *Adapter) IllegalColumnChars() []string {
	return []string{"]"}
}

// TableExists проверяет существование таблицы в схеме
func (a *Adapter) TableExists(ctx context.Context, t dataset.Table) (bool, error) {
	schema := t.Metadata.Schema
	if schema == "" {
		schema = a.schema
	}

	var count int
	err := a.sqlAdapter.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = @p1
		  AND table_name = @p2
	`, schema, t.Name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return count > 0, nil
}

// SchemaExists проверяет существование схемы
func (a *Adapter) SchemaExists(ctx context.Context, schema string) (bool, error) {
	var count int
	err := a.sqlAdapter.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.schemata
		WHERE schema_name = @p1
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

// CheckNativePath: native-путей у mssql-адаптера нет
// (BULK INSERT требует файл на стороне сервера)
func (a *Adapter) CheckNativePath(dataset.File, dataset.Table) bool {
	return false
}

// ExportToPayload выгружает таблицу в payload
func (a *Adapter) ExportToPayload(ctx context.Context, t dataset.Table) (*tabular.Payload, error) {
	return a.sqlAdapter.ExportToPayload(ctx, t)
}
