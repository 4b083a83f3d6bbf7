package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register(adapters.EngineSQLite, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter представляет адаптер для работы с SQLite
type Adapter struct {
	base.Unimplemented
	sqlAdapter base.SQLAdapter
}

// dialect реализует base.Dialect для SQLite
type dialect struct{}

func (dialect) Quote(ident string) string { return `"` + ident + `"` }

func (dialect) Placeholder(int) string { return "?" }

func (dialect) TypeFor(kind string) string {
	switch kind {
	case tabular.KindInteger:
		return "INTEGER"
	case tabular.KindFloat:
		return "REAL"
	case tabular.KindBoolean:
		return "INTEGER"
	case tabular.KindTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// QualifiedName: SQLite не имеет схем, полное имя = имя таблицы
func (dialect) QualifiedName(t dataset.Table) string {
	return `"` + t.Name + `"`
}

// Connect открывает SQLite базу
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	a.EngineName = adapters.EngineSQLite

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

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
	return adapters.EngineSQLite
}

// DefaultMetadata: у SQLite нет схем и баз - все поля пустые
func (a *Adapter) DefaultMetadata() dataset.Metadata {
	return dataset.Metadata{}
}

// QualifiedName возвращает полное имя таблицы
func (a *Adapter) QualifiedName(t dataset.Table) string {
	return dialect{}.QualifiedName(t)
}

// IllegalColumnChars: SQLite в квотированных идентификаторах
// разрешает любые символы
func (a *Adapter) IllegalColumnChars() []string {
	return nil
}

// TableExists проверяет существование таблицы
func (a *Adapter) TableExists(ctx context.Context, t dataset.Table) (bool, error) {
	var name string
	err := a.sqlAdapter.DB.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", t.Name).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", t.Name, err)
	}
	return true, nil
}

// SchemaExists: у SQLite единственная схема main
func (a *Adapter) SchemaExists(_ context.Context, schema string) (bool, error) {
	return schema == "" || schema == "main", nil
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

// CheckNativePath: у SQLite нет native-путей загрузки
func (a *Adapter) CheckNativePath(dataset.File, dataset.Table) bool {
	return false
}

// ExportToPayload выгружает таблицу в payload
func (a *Adapter) ExportToPayload(ctx context.Context, t dataset.Table) (*tabular.Payload, error) {
	return a.sqlAdapter.ExportToPayload(ctx, t)
}
