package base

import (
	"context"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// Unimplemented - встраиваемая заглушка контракта adapters.Adapter.
// Каждый метод отвечает errs.ErrNotImplemented: "адаптер неполон" -
// ошибка программирования, и она обязана отличаться от
// "движок не поддерживает операцию" (ошибка конфигурации).
// Адаптеры встраивают Unimplemented и переопределяют то, что умеют.
type Unimplemented struct {
	EngineName adapters.Engine
}

func (u Unimplemented) engine() string {
	if u.EngineName == "" {
		return "unknown"
	}
	return string(u.EngineName)
}

func (u Unimplemented) Connect(context.Context, adapters.Config) error {
	return errs.NotImplemented(u.engine(), "Connect")
}

func (u Unimplemented) Close(context.Context) error {
	return errs.NotImplemented(u.engine(), "Close")
}

func (u Unimplemented) Ping(context.Context) error {
	return errs.NotImplemented(u.engine(), "Ping")
}

func (u Unimplemented) Engine() adapters.Engine {
	return u.EngineName
}

func (u Unimplemented) DefaultMetadata() dataset.Metadata {
	return dataset.Metadata{}
}

func (u Unimplemented) QualifiedName(t dataset.Table) string {
	return t.Name
}

func (u Unimplemented) IllegalColumnChars() []string {
	return nil
}

func (u Unimplemented) TableExists(context.Context, dataset.Table) (bool, error) {
	return false, errs.NotImplemented(u.engine(), "TableExists")
}

func (u Unimplemented) SchemaExists(context.Context, string) (bool, error) {
	return false, errs.NotImplemented(u.engine(), "SchemaExists")
}

func (u Unimplemented) CreateTable(context.Context, dataset.Table, []dataset.Column) error {
	return errs.NotImplemented(u.engine(), "CreateTable")
}

func (u Unimplemented) DropTable(context.Context, dataset.Table) error {
	return errs.NotImplemented(u.engine(), "DropTable")
}

func (u Unimplemented) LoadPayload(context.Context, *tabular.Payload, dataset.Table,
	adapters.IfExists, int) error {
	return errs.NotImplemented(u.engine(), "LoadPayload")
}

func (u Unimplemented) CheckNativePath(dataset.File, dataset.Table) bool {
	// Чистый предикат: отсутствие таблицы native-путей означает
	// "native путь не поддерживается", это валидный ответ
	return false
}

func (u Unimplemented) LoadFileNatively(context.Context, dataset.File, dataset.Table,
	adapters.IfExists, map[string]string) error {
	return errs.NotImplemented(u.engine(), "LoadFileNatively")
}

func (u Unimplemented) MergeTables(context.Context, adapters.MergeRequest) error {
	return errs.NotImplemented(u.engine(), "MergeTables")
}

func (u Unimplemented) ExportToPayload(context.Context, dataset.Table) (*tabular.Payload, error) {
	return nil, errs.NotImplemented(u.engine(), "ExportToPayload")
}
