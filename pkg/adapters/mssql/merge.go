package mssql

import (
	"context"
	"fmt"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
)

// QueryCount выполняет запрос подсчета (base.ConflictChecker)
func (a *Adapter) QueryCount(ctx context.Context, query string) (int64, error) {
	var count int64
	if err := a.sqlAdapter.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MergeTables выполняет merge через T-SQL MERGE.
// Стратегия exception проверяет конфликты до любой мутации.
func (a *Adapter) MergeTables(ctx context.Context, req adapters.MergeRequest) error {
	if err := base.ValidateMergeRequest(req); err != nil {
		return err
	}
	quote := dialect{}.Quote
	sourceName := a.QualifiedName(req.Source)
	targetName := a.QualifiedName(req.Target)

	if req.Strategy == adapters.MergeException {
		if err := base.EnsureNoConflicts(ctx, a, quote, sourceName, targetName, req); err != nil {
			return err
		}
	}

	// для exception после проверки вставляются только новые ключи
	effective := req
	if effective.Strategy == adapters.MergeException {
		effective.Strategy = adapters.MergeIgnore
	}

	// T-SQL требует терминатор у MERGE
	stmt := base.BuildMergeStatement(quote, sourceName, targetName, effective) + ";"
	if _, err := a.sqlAdapter.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to merge into %s: %w", req.Target.Name, err)
	}
	return nil
}
