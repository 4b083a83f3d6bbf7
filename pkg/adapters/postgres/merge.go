package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
)

// MergeTables выполняет merge через INSERT ... ON CONFLICT.
// Для ignore/update сначала гарантируется уникальный индекс
// по конфликтным колонкам - ON CONFLICT требует ограничение.
func (a *Adapter) MergeTables(ctx context.Context, req adapters.MergeRequest) error {
	if err := base.ValidateMergeRequest(req); err != nil {
		return err
	}

	if req.Strategy == adapters.MergeException {
		// проверка до любой вставки: уникального ограничения
		// на целевой таблице может не быть
		if err := base.EnsureNoConflicts(ctx, a, quote,
			a.QualifiedName(req.Source), a.QualifiedName(req.Target), req); err != nil {
			return err
		}
	} else {
		if err := a.ensureMergeIndex(ctx, req); err != nil {
			return err
		}
	}

	cols := base.OrderedColumns(req)
	quotedSrc := make([]string, len(cols.Source))
	quotedDst := make([]string, len(cols.Target))
	for i := range cols.Source {
		quotedSrc[i] = quote(cols.Source[i])
		quotedDst[i] = quote(cols.Target[i])
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		a.QualifiedName(req.Target), strings.Join(quotedDst, ", "),
		strings.Join(quotedSrc, ", "), a.QualifiedName(req.Source))

	switch req.Strategy {
	case adapters.MergeIgnore, adapters.MergeUpdate:
		keys := make([]string, len(req.ConflictColumns))
		for i, c := range req.ConflictColumns {
			keys[i] = quote(c)
		}
		stmt += fmt.Sprintf(" ON CONFLICT (%s) DO", strings.Join(keys, ", "))

		sets := updateSets(req)
		if req.Strategy == adapters.MergeUpdate && len(sets) > 0 {
			stmt += " UPDATE SET " + strings.Join(sets, ", ")
		} else {
			stmt += " NOTHING"
		}
	case adapters.MergeException:
		// конфликты уже исключены предварительной проверкой
	}

	if _, err := a.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to merge into %s: %w", req.Target.Name, err)
	}
	return nil
}

// QueryCount выполняет запрос подсчета (base.ConflictChecker)
func (a *Adapter) QueryCount(ctx context.Context, query string) (int64, error) {
	var count int64
	if err := a.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return count, nil
}

// ensureMergeIndex создает уникальный индекс по конфликтным колонкам
func (a *Adapter) ensureMergeIndex(ctx context.Context, req adapters.MergeRequest) error {
	keys := make([]string, len(req.ConflictColumns))
	for i, c := range req.ConflictColumns {
		keys[i] = quote(c)
	}
	idx := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
		quote("udt_merge_"+req.Target.Name), a.QualifiedName(req.Target),
		strings.Join(keys, ", "))
	if _, err := a.pool.Exec(ctx, idx); err != nil {
		return fmt.Errorf("failed to create merge index on %s: %w", req.Target.Name, err)
	}
	return nil
}

// updateSets строит присваивания неключевых колонок через excluded
func updateSets(req adapters.MergeRequest) []string {
	keys := make(map[string]bool, len(req.ConflictColumns))
	for _, k := range req.ConflictColumns {
		keys[k] = true
	}
	cols := base.OrderedColumns(req)
	var sets []string
	for _, tgt := range cols.Target {
		if !keys[tgt] {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", quote(tgt), quote(tgt)))
		}
	}
	return sets
}
