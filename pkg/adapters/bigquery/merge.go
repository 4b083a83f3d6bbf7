package bigquery

import (
	"context"
	"fmt"

	"google.golang.org/api/iterator"

	"cloud.google.com/go/bigquery"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
)

// quoteIdent квотирует идентификатор в GoogleSQL
func quoteIdent(ident string) string { return "`" + ident + "`" }

// QueryCount выполняет запрос подсчета (base.ConflictChecker)
func (a *Adapter) QueryCount(ctx context.Context, query string) (int64, error) {
	it, err := a.client.Query(query).Read(ctx)
	if err != nil {
		return 0, err
	}
	var row []bigquery.Value
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return 0, err
	}
	if len(row) == 0 {
		return 0, nil
	}
	count, ok := row[0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", row[0])
	}
	return count, nil
}

// MergeTables выполняет merge через MERGE INTO.
// BigQuery не enforce'ит уникальность, корректность дает anti-join.
// Стратегия exception проверяет конфликты до любой мутации.
func (a *Adapter) MergeTables(ctx context.Context, req adapters.MergeRequest) error {
	if err := base.ValidateMergeRequest(req); err != nil {
		return err
	}
	sourceName := a.QualifiedName(req.Source)
	targetName := a.QualifiedName(req.Target)

	if req.Strategy == adapters.MergeException {
		if err := base.EnsureNoConflicts(ctx, a, quoteIdent, sourceName, targetName, req); err != nil {
			return err
		}
	}

	effective := req
	if effective.Strategy == adapters.MergeException {
		effective.Strategy = adapters.MergeIgnore
	}

	stmt := base.BuildMergeStatement(quoteIdent, sourceName, targetName, effective)
	job, err := a.client.Query(stmt).Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to start merge into %s: %w", req.Target.Name, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed to merge into %s: %w", req.Target.Name, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("merge into %s failed: %w", req.Target.Name, err)
	}
	return nil
}
