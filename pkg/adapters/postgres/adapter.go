package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register(adapters.EnginePostgres, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter представляет адаптер для работы с PostgreSQL.
// Работает через pgxpool, без database/sql прослойки.
type Adapter struct {
	pool   *pgxpool.Pool
	schema string
	connID string
}

// Connect устанавливает подключение к PostgreSQL
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.pool = pool
	a.connID = cfg.ConnID
	a.schema = cfg.Schema
	if a.schema == "" {
		a.schema = "public"
	}
	return nil
}

// Close закрывает connection pool
func (a *Adapter) Close(ctx context.Context) error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// Ping проверяет доступность БД
func (a *Adapter) Ping(ctx context.Context) error {
	if a.pool == nil {
		return fmt.Errorf("adapter not connected")
	}
	return a.pool.Ping(ctx)
}

// Engine возвращает тип движка
func (a *Adapter) Engine() adapters.Engine {
	return adapters.EnginePostgres
}

// DefaultMetadata возвращает схему подключения по умолчанию
func (a *Adapter) DefaultMetadata() dataset.Metadata {
	return dataset.Metadata{Schema: a.schema}
}

func quote(ident string) string { return `"` + ident + `"` }

// QualifiedName возвращает schema.table; без схемы - просто имя
func (a *Adapter) QualifiedName(t dataset.Table) string {
	schema := t.Metadata.Schema
	if schema == "" {
		schema = a.schema
	}
	if schema == "" {
		return quote(t.Name)
	}
	return quote(schema) + "." + quote(t.Name)
}

// IllegalColumnChars: квотированные идентификаторы postgres
// принимают любые символы
func (a *Adapter) IllegalColumnChars() []string {
	return nil
}

// TableExists проверяет существование таблицы в схеме
func (a *Adapter) TableExists(ctx context.Context, t dataset.Table) (bool, error) {
	schema := t.Metadata.Schema
	if schema == "" {
		schema = a.schema
	}

	var exists bool
	err := a.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = $1
			  AND table_name = $2
		)
	`, schema, t.Name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// SchemaExists проверяет существование схемы
func (a *Adapter) SchemaExists(ctx context.Context, schema string) (bool, error) {
	var exists bool
	err := a.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.schemata
			WHERE schema_name = $1
		)
	`, schema).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check schema existence: %w", err)
	}
	return exists, nil
}

// sqlTypeFor отображает обобщенный тип колонки на тип postgres
func sqlTypeFor(kind string) string {
	switch kind {
	case tabular.KindInteger:
		return "BIGINT"
	case tabular.KindFloat:
		return "DOUBLE PRECISION"
	case tabular.KindBoolean:
		return "BOOLEAN"
	case tabular.KindTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// CreateTable создает таблицу по списку колонок
func (a *Adapter) CreateTable(ctx context.Context, t dataset.Table, cols []dataset.Column) error {
	if len(cols) == 0 {
		return errs.SchemaMismatch(fmt.Sprintf("cannot create table %s without columns", t.Name))
	}

	defs := make([]string, 0, len(cols)+1)
	var pk []string
	for _, col := range cols {
		defs = append(defs, fmt.Sprintf("%s %s", quote(col.Name), sqlTypeFor(col.Type)))
		if col.Key {
			pk = append(pk, quote(col.Name))
		}
	}
	if len(pk) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", a.QualifiedName(t), strings.Join(defs, ", "))
	if _, err := a.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}
	return nil
}

// DropTable удаляет таблицу (идемпотентно)
func (a *Adapter) DropTable(ctx context.Context, t dataset.Table) error {
	if _, err := a.pool.Exec(ctx, "DROP TABLE IF EXISTS "+a.QualifiedName(t)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", t.Name, err)
	}
	return nil
}

// CheckNativePath: bulk-загрузка postgres идет через chunked insert,
// native-путей нет
func (a *Adapter) CheckNativePath(dataset.File, dataset.Table) bool {
	return false
}

// LoadFileNatively не поддерживается postgres-адаптером
func (a *Adapter) LoadFileNatively(_ context.Context, src dataset.File, _ dataset.Table,
	_ adapters.IfExists, _ map[string]string) error {
	return errs.Unsupported("native load",
		fmt.Sprintf("postgres has no native path for %s", src.Path))
}
