package snowflake

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/snowflakedb/gosnowflake"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register(adapters.EngineSnowflake, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter представляет адаптер для работы со Snowflake
type Adapter struct {
	base.Unimplemented
	sqlAdapter base.SQLAdapter
	database   string
	schema     string
	params     map[string]string
}

// dialect реализует base.Dialect для Snowflake
type dialect struct {
	database string
	schema   string
}

// Quote сохраняет регистр идентификатора
// (неквотированные имена Snowflake приводит к верхнему регистру)
func (dialect) Quote(ident string) string { return `"` + ident + `"` }

func (dialect) Placeholder(int) string { return "?" }

func (dialect) TypeFor(kind string) string {
	switch kind {
	case tabular.KindInteger:
		return "NUMBER"
	case tabular.KindFloat:
		return "DOUBLE"
	case tabular.KindBoolean:
		return "BOOLEAN"
	case tabular.KindTimestamp:
		return "TIMESTAMP_NTZ"
	default:
		return "VARCHAR"
	}
}

// QualifiedName: database.schema.table
func (d dialect) QualifiedName(t dataset.Table) string {
	database := t.Metadata.Database
	if database == "" {
		database = d.database
	}
	schema := t.Metadata.Schema
	if schema == "" {
		schema = d.schema
	}

	name := d.Quote(t.Name)
	if schema != "" {
		name = d.Quote(schema) + "." + name
	}
	if database != "" && schema != "" {
		name = d.Quote(database) + "." + name
	}
	return name
}

// Connect устанавливает подключение к Snowflake
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	a.EngineName = adapters.EngineSnowflake

	db, err := sql.Open("snowflake", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open snowflake connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping snowflake: %w", err)
	}

	a.database = cfg.Database
	a.schema = cfg.Schema
	a.params = cfg.Params
	a.sqlAdapter = base.SQLAdapter{
		DB:      db,
		Dialect: dialect{database: cfg.Database, schema: cfg.Schema},
		ConnID:  cfg.ConnID,
	}
	return nil
}

// Close закрывает подключение
func (a *Adapter) Close(ctx context.Context) error {
	return a.sqlAdapter.Close(ctx)
}

// Ping проверяет доступность Snowflake
func (a *Adapter) Ping(ctx context.Context) error {
	return a.sqlAdapter.Ping(ctx)
}

// Engine возвращает тип движка
func (a *Adapter) Engine() adapters.Engine {
	return adapters.EngineSnowflake
}

// DefaultMetadata возвращает базу, схему, warehouse и роль подключения
func (a *Adapter) DefaultMetadata() dataset.Metadata {
	return dataset.Metadata{
		Database:  a.database,
		Schema:    a.schema,
		Warehouse: a.params["warehouse"],
		Role:      a.params["role"],
	}
}

// QualifiedName возвращает полное имя таблицы
func (a *Adapter) QualifiedName(t dataset.Table) string {
	return dialect{database: a.database, schema: a.schema}.QualifiedName(t)
}

// IllegalColumnChars: квотированные идентификаторы принимают любые символы
func (a *Adapter) IllegalColumnChars() []string {
	return nil
}

// TableExists проверяет существование таблицы
func (a *Adapter) TableExists(ctx context.Context, t dataset.Table) (bool, error) {
	schema := t.Metadata.Schema
	if schema == "" {
		schema = a.schema
	}

	var count int
	err := a.sqlAdapter.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = UPPER(?)
		  AND table_name = ?
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
		WHERE schema_name = UPPER(?)
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
