package duckdb

import (
	"context"
	"fmt"
	"strings"

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

// MergeTables выполняет merge парой UPDATE ... FROM / INSERT ... anti-join.
// MERGE INTO появился только в DuckDB 1.4, а go-duckdb v1 собирается
// с более старым движком, поэтому merge разложен на обычный DML.
// DuckDB не enforce'ит уникальность, корректность дает anti-join.
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

	deduped := base.BuildDedupedSource(quote, sourceName, req)
	on := mergeJoinCondition(quote, targetName, req)

	tx, err := a.sqlAdapter.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback()

	if req.Strategy == adapters.MergeUpdate {
		if update := buildUpdateStatement(quote, targetName, deduped, on, req); update != "" {
			if _, err := tx.ExecContext(ctx, update); err != nil {
				return fmt.Errorf("failed to merge into %s: %w", req.Target.Name, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, buildInsertStatement(quote, targetName, deduped, on, req)); err != nil {
		return fmt.Errorf("failed to merge into %s: %w", req.Target.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge into %s: %w", req.Target.Name, err)
	}
	return nil
}

// mergeJoinCondition строит условие соединения цели с дедуплицированным
// источником S по конфликтным колонкам
func mergeJoinCondition(quote func(string) string, targetName string,
	req adapters.MergeRequest) string {

	srcKeys := base.SourceKeyColumns(req)
	clauses := make([]string, len(req.ConflictColumns))
	for i, key := range req.ConflictColumns {
		clauses[i] = fmt.Sprintf("%s.%s = S.%s", targetName, quote(key), quote(srcKeys[i]))
	}
	return strings.Join(clauses, " AND ")
}

// buildUpdateStatement обновляет неключевые колонки совпавших строк.
// Пустая строка - обновлять нечего, все колонки ключевые.
func buildUpdateStatement(quote func(string) string, targetName, deduped, on string,
	req adapters.MergeRequest) string {

	keys := make(map[string]bool, len(req.ConflictColumns))
	for _, k := range req.ConflictColumns {
		keys[k] = true
	}
	cols := base.OrderedColumns(req)
	var sets []string
	for i, tgt := range cols.Target {
		if !keys[tgt] {
			sets = append(sets, fmt.Sprintf("%s = S.%s", quote(tgt), quote(cols.Source[i])))
		}
	}
	if len(sets) == 0 {
		return ""
	}
	return fmt.Sprintf("UPDATE %s SET %s FROM %s AS S WHERE %s",
		targetName, strings.Join(sets, ", "), deduped, on)
}

// buildInsertStatement вставляет строки источника, ключей которых
// еще нет в целевой таблице
func buildInsertStatement(quote func(string) string, targetName, deduped, on string,
	req adapters.MergeRequest) string {

	cols := base.OrderedColumns(req)
	insertTargets := make([]string, len(cols.Target))
	insertValues := make([]string, len(cols.Source))
	for i := range cols.Target {
		insertTargets[i] = quote(cols.Target[i])
		insertValues[i] = "S." + quote(cols.Source[i])
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s AS S WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s)",
		targetName, strings.Join(insertTargets, ", "), strings.Join(insertValues, ", "),
		deduped, targetName, on)
}
