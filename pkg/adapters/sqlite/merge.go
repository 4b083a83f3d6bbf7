package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
)

// MergeTables выполняет merge через INSERT ... ON CONFLICT.
// Перед merge создается уникальный индекс по конфликтным колонкам,
// без него ON CONFLICT не срабатывает.
func (a *Adapter) MergeTables(ctx context.Context, req adapters.MergeRequest) error {
	if err := base.ValidateMergeRequest(req); err != nil {
		return err
	}
	q := dialect{}.Quote

	if req.Strategy == adapters.MergeException {
		// конфликт обнаруживается до любой вставки: на ограничения
		// целевой таблицы полагаться нельзя, их может не быть
		if err := base.EnsureNoConflicts(ctx, &a.sqlAdapter, q,
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
		quotedSrc[i] = q(cols.Source[i])
		quotedDst[i] = q(cols.Target[i])
	}

	// WHERE true обязателен: без него парсер sqlite трактует ON CONFLICT
	// как JOIN-ограничение и INSERT ... SELECT ... ON CONFLICT не разбирается
	stmt := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s WHERE true",
		a.QualifiedName(req.Target), strings.Join(quotedDst, ", "),
		strings.Join(quotedSrc, ", "), a.QualifiedName(req.Source))

	switch req.Strategy {
	case adapters.MergeIgnore:
		stmt += conflictClause(q, req, false)
	case adapters.MergeUpdate:
		stmt += conflictClause(q, req, true)
	case adapters.MergeException:
		// конфликты уже исключены предварительной проверкой
	}

	if _, err := a.sqlAdapter.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to merge into %s: %w", req.Target.Name, err)
	}
	return nil
}

// ensureMergeIndex создает уникальный индекс по конфликтным колонкам
func (a *Adapter) ensureMergeIndex(ctx context.Context, req adapters.MergeRequest) error {
	q := dialect{}.Quote
	cols := make([]string, len(req.ConflictColumns))
	for i, c := range req.ConflictColumns {
		cols[i] = q(c)
	}
	idx := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
		q("udt_merge_"+req.Target.Name), a.QualifiedName(req.Target), strings.Join(cols, ", "))
	if _, err := a.sqlAdapter.DB.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("failed to create merge index on %s: %w", req.Target.Name, err)
	}
	return nil
}

// conflictClause строит хвост ON CONFLICT для ignore/update
func conflictClause(q func(string) string, req adapters.MergeRequest, update bool) string {
	keys := make([]string, len(req.ConflictColumns))
	for i, c := range req.ConflictColumns {
		keys[i] = q(c)
	}
	clause := fmt.Sprintf(" ON CONFLICT (%s) DO", strings.Join(keys, ", "))
	if !update {
		return clause + " NOTHING"
	}
	sets := updateSets(q, req)
	if len(sets) == 0 {
		return clause + " NOTHING"
	}
	return clause + " UPDATE SET " + strings.Join(sets, ", ")
}

// updateSets строит присваивания по неключевым целевым колонкам.
// excluded ссылается на вставляемую строку, колонки в ней уже
// именованы по целевой таблице.
func updateSets(q func(string) string, req adapters.MergeRequest) []string {
	keys := make(map[string]bool, len(req.ConflictColumns))
	for _, k := range req.ConflictColumns {
		keys[k] = true
	}
	cols := base.OrderedColumns(req)
	var sets []string
	for _, tgt := range cols.Target {
		if !keys[tgt] {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", q(tgt), q(tgt)))
		}
	}
	return sets
}
