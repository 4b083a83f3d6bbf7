package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register(adapters.EngineMySQL, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter представляет адаптер для работы с MySQL
type Adapter struct {
	base.Unimplemented
	sqlAdapter base.SQLAdapter
	database   string
}

// dialect реализует base.Dialect для MySQL
type dialect struct{ database string }

func (dialect) Quote(ident string) string { return "`" + ident + "`" }

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
		return "DATETIME"
	default:
		// VARCHAR вместо TEXT: TEXT нельзя использовать
		// в PRIMARY KEY без указания длины префикса
		return "VARCHAR(255)"
	}
}

// QualifiedName: schema.table; схема в MySQL = база данных
func (d dialect) QualifiedName(t dataset.Table) string {
	schema := t.Metadata.Schema
	if schema == "" {
		schema = d.database
	}
	if schema == "" {
		return d.Quote(t.Name)
	}
	return d.Quote(schema) + "." + d.Quote(t.Name)
}

// Connect устанавливает подключение к MySQL
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	a.EngineName = adapters.EngineMySQL

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	a.database = cfg.Database
	a.sqlAdapter = base.SQLAdapter{DB: db, Dialect: dialect{database: cfg.Database}, ConnID: cfg.ConnID}
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
	return adapters.EngineMySQL
}

// DefaultMetadata: схема по умолчанию = база подключения
func (a *Adapter) DefaultMetadata() dataset.Metadata {
	return dataset.Metadata{Schema: a.database}
}

// QualifiedName возвращает полное имя таблицы
func (a *Adapter) QualifiedName(t dataset.Table) string {
	return dialect{database: a.database}.QualifiedName(t)
}

// IllegalColumnChars: backtick-квотирование принимает любые символы
func (a *Adapter) IllegalColumnChars() []string {
	return nil
}

// TableExists проверяет существование таблицы
func (a *Adapter) TableExists(ctx context.Context, t dataset.Table) (bool, error) {
	schema := t.Metadata.Schema
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
			  AND table_name = ?
		)
	`
	var exists bool
	if err := a.sqlAdapter.DB.QueryRowContext(ctx, query, schema, t.Name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// SchemaExists проверяет существование базы (схемы)
func (a *Adapter) SchemaExists(ctx context.Context, schema string) (bool, error) {
	var exists bool
	err := a.sqlAdapter.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.schemata
			WHERE schema_name = ?
		)
	`, schema).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check schema existence: %w", err)
	}
	return exists, nil
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

// CheckNativePath: у MySQL нет native-путей загрузки
// (LOAD DATA INFILE требует файл на стороне сервера)
func (a *Adapter) CheckNativePath(dataset.File, dataset.Table) bool {
	return false
}

// ExportToPayload выгружает таблицу в payload
func (a *Adapter) ExportToPayload(ctx context.Context, t dataset.Table) (*tabular.Payload, error) {
	return a.sqlAdapter.ExportToPayload(ctx, t)
}
