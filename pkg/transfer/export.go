package transfer

import (
	"context"
	"fmt"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/filetypes"
	"github.com/ruslano69/udt-framework/pkg/locations"
)

// ExportTableToPayload выгружает таблицу в табличный payload
func (r *Runner) ExportTableToPayload(ctx context.Context, t dataset.Table) (*tabular.Payload, error) {
	conn, err := r.resolver.Resolve(t.Conn)
	if err != nil {
		return nil, err
	}
	adapter, err := adapters.New(ctx, adapters.ConfigFromConnection(t.Conn, conn))
	if err != nil {
		return nil, err
	}
	defer adapter.Close(ctx)

	return adapter.ExportToPayload(ctx, fillMetadata(t, adapter.DefaultMetadata()))
}

// ExportTable выгружает таблицу в файл через кодек его типа.
// Файл пишется потоком в location назначения.
func (r *Runner) ExportTable(ctx context.Context, t dataset.Table, dest dataset.File) error {
	payload, err := r.ExportTableToPayload(ctx, t)
	if err != nil {
		return err
	}

	codec, err := filetypes.New(dest.Type)
	if err != nil {
		return err
	}

	loc, err := locations.New(dest.Path, dest.Conn, r.resolver)
	if err != nil {
		return err
	}
	w, err := loc.CreateStream(ctx)
	if err != nil {
		return err
	}

	if err := codec.Encode(payload, w); err != nil {
		w.Close()
		return fmt.Errorf("failed to encode %s: %w", dest.Path, err)
	}
	// ошибка Close значима: у object store именно Close
	// завершает выгрузку
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", dest.Path, err)
	}
	return nil
}
