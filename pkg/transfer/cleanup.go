package transfer

import (
	"context"
	"fmt"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
)

// CleanupTables удаляет временные таблицы по завершении unit of work.
// Таблицы без флага Temp пропускаются: явно именованные цели
// пользователя не трогаем. Удаление идемпотентно.
func (r *Runner) CleanupTables(ctx context.Context, tables []dataset.Table) error {
	// адаптер на подключение переиспользуется между таблицами
	open := make(map[string]adapters.Adapter)
	defer func() {
		for _, a := range open {
			a.Close(ctx)
		}
	}()

	for _, t := range tables {
		if !t.Temp {
			continue
		}

		adapter, ok := open[t.Conn]
		if !ok {
			conn, err := r.resolver.Resolve(t.Conn)
			if err != nil {
				return err
			}
			adapter, err = adapters.New(ctx, adapters.ConfigFromConnection(t.Conn, conn))
			if err != nil {
				return err
			}
			open[t.Conn] = adapter
		}

		if err := adapter.DropTable(ctx, fillMetadata(t, adapter.DefaultMetadata())); err != nil {
			return fmt.Errorf("failed to clean up %s: %w", t.Name, err)
		}
	}
	return nil
}
