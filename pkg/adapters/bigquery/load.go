package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// prepareTarget приводит целевую таблицу к нужному состоянию
// согласно политике if_exists. cols используется при создании.
func (a *Adapter) prepareTarget(ctx context.Context, target dataset.Table,
	ifExists adapters.IfExists, cols []dataset.Column) error {

	exists, err := a.TableExists(ctx, target)
	if err != nil {
		return err
	}

	switch ifExists {
	case adapters.IfExistsFail:
		if exists {
			return fmt.Errorf("table %s already exists", target.Name)
		}
	case adapters.IfExistsReplace:
		if exists {
			if err := a.DropTable(ctx, target); err != nil {
				return err
			}
			exists = false
		}
	case adapters.IfExistsAppend:
		// дописываем
	default:
		return errs.Unsupported("if_exists policy", string(ifExists))
	}

	if !exists && len(cols) > 0 {
		return a.CreateTable(ctx, target, cols)
	}
	if !exists {
		return errs.SchemaMismatch(fmt.Sprintf(
			"cannot create table %s without columns", target.Name))
	}
	return nil
}

// LoadPayload загружает payload частями через streaming insert
func (a *Adapter) LoadPayload(ctx context.Context, p *tabular.Payload, target dataset.Table,
	ifExists adapters.IfExists, chunkSize int) error {

	if chunkSize <= 0 {
		chunkSize = tabular.DefaultChunkSize
	}

	cols := target.Columns
	if len(cols) == 0 {
		cols = tabular.InferColumns(p)
	}
	if err := a.prepareTarget(ctx, target, ifExists, cols); err != nil {
		return err
	}

	schema := make(bigquery.Schema, len(cols))
	for i, col := range cols {
		schema[i] = &bigquery.FieldSchema{Name: col.Name, Type: fieldTypeFor(col.Type)}
	}

	inserter := a.client.Dataset(a.datasetOf(target)).Table(target.Name).Inserter()
	for _, chunk := range p.Chunks(chunkSize) {
		savers := make([]*bigquery.ValuesSaver, chunk.NumRows())
		for i, row := range chunk.Rows {
			values := make([]bigquery.Value, len(row))
			for j, v := range row {
				values[j] = v
			}
			savers[i] = &bigquery.ValuesSaver{Schema: schema, Row: values}
		}
		if err := inserter.Put(ctx, savers); err != nil {
			return fmt.Errorf("failed to insert chunk into %s: %w", target.Name, err)
		}
	}
	return nil
}

// ExportToPayload выгружает таблицу запросом SELECT *
func (a *Adapter) ExportToPayload(ctx context.Context, t dataset.Table) (*tabular.Payload, error) {
	q := a.client.Query("SELECT * FROM " + a.QualifiedName(t))
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", t.Name, err)
	}

	var payload *tabular.Payload
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row from %s: %w", t.Name, err)
		}

		if payload == nil {
			cols := make([]string, len(it.Schema))
			for i, f := range it.Schema {
				cols[i] = f.Name
			}
			payload = tabular.New(cols...)
		}

		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		payload.AppendRow(values)
	}

	if payload == nil {
		cols := make([]string, len(it.Schema))
		for i, f := range it.Schema {
			cols[i] = f.Name
		}
		payload = tabular.New(cols...)
	}
	return payload, nil
}
