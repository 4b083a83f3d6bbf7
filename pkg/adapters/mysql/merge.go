package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
)

// MergeTables выполняет merge через INSERT IGNORE /
// INSERT ... ON DUPLICATE KEY UPDATE.
// Конфликт в MySQL определяется уникальным индексом, поэтому
// для ignore/update он создается заранее.
func (a *Adapter) MergeTables(ctx context.Context, req adapters.MergeRequest) error {
	if err := base.ValidateMergeRequest(req); err != nil {
		return err
	}
	q := dialect{}.Quote

	if req.Strategy == adapters.MergeException {
		// проверка до любой вставки: уникального индекса
		// на целевой таблице может не быть
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

	verb := "INSERT"
	if req.Strategy == adapters.MergeIgnore {
		verb = "INSERT IGNORE"
	}
	stmt := fmt.Sprintf("%s INTO %s (%s) SELECT %s FROM %s",
		verb, a.QualifiedName(req.Target), strings.Join(quotedDst, ", "),
		strings.Join(quotedSrc, ", "), a.QualifiedName(req.Source))

	if req.Strategy == adapters.MergeUpdate {
		keys := make(map[string]bool, len(req.ConflictColumns))
		for _, k := range req.ConflictColumns {
			keys[k] = true
		}
		var sets []string
		for _, tgt := range cols.Target {
			if !keys[tgt] {
				sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", q(tgt), q(tgt)))
			}
		}
		if len(sets) > 0 {
			stmt += " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
		} else {
			// нечего обновлять - вырождается в ignore
			stmt = strings.Replace(stmt, "INSERT INTO", "INSERT IGNORE INTO", 1)
		}
	}

	if _, err := a.sqlAdapter.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to merge into %s: %w", req.Target.Name, err)
	}
	return nil
}

// ensureMergeIndex создает уникальный индекс по конфликтным колонкам.
// MySQL не поддерживает CREATE INDEX IF NOT EXISTS, поэтому
// существование проверяется через information_schema.statistics.
func (a *Adapter) ensureMergeIndex(ctx context.Context, req adapters.MergeRequest) error {
	q := dialect{}.Quote
	idxName := "udt_merge_" + req.Target.Name

	var exists bool
	err := a.sqlAdapter.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.statistics
			WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
			  AND table_name = ?
			  AND index_name = ?
		)
	`, req.Target.Metadata.Schema, req.Target.Name, idxName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check merge index: %w", err)
	}
	if exists {
		return nil
	}

	keys := make([]string, len(req.ConflictColumns))
	for i, c := range req.ConflictColumns {
		keys[i] = q(c)
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD UNIQUE INDEX %s (%s)",
		a.QualifiedName(req.Target), q(idxName), strings.Join(keys, ", "))
	if _, err := a.sqlAdapter.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create merge index on %s: %w", req.Target.Name, err)
	}
	return nil
}
