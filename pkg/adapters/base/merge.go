package base

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// MergeColumns - детерминированно упорядоченные пары колонок merge-запроса.
// map в запросе итерируется в случайном порядке, поэтому SQL
// рендерится по отсортированным колонкам источника.
type MergeColumns struct {
	Source []string
	Target []string
}

// OrderedColumns раскладывает ColumnMap в стабильно упорядоченные списки
func OrderedColumns(req adapters.MergeRequest) MergeColumns {
	src := make([]string, 0, len(req.ColumnMap))
	for s := range req.ColumnMap {
		src = append(src, s)
	}
	sort.Strings(src)

	tgt := make([]string, len(src))
	for i, s := range src {
		tgt[i] = req.ColumnMap[s]
	}
	return MergeColumns{Source: src, Target: tgt}
}

// ValidateMergeRequest проверяет согласованность запроса до любых
// побочных эффектов: конфликтные колонки должны присутствовать
// среди целевых колонок отображения
func ValidateMergeRequest(req adapters.MergeRequest) error {
	if len(req.ColumnMap) == 0 {
		return errs.SchemaMismatch("merge requires a non-empty column map")
	}
	if len(req.ConflictColumns) == 0 {
		return errs.SchemaMismatch("merge requires at least one conflict column")
	}

	targets := make(map[string]bool, len(req.ColumnMap))
	for _, t := range req.ColumnMap {
		targets[t] = true
	}
	for _, key := range req.ConflictColumns {
		if !targets[key] {
			return errs.SchemaMismatch(fmt.Sprintf(
				"conflict column %q is not a target of the column map", key))
		}
	}

	switch req.Strategy {
	case adapters.MergeIgnore, adapters.MergeUpdate, adapters.MergeException:
		return nil
	default:
		return errs.Unsupported("merge strategy", string(req.Strategy))
	}
}

// nonKeyPairs возвращает пары (source, target) без ключевых колонок
func nonKeyPairs(cols MergeColumns, conflictColumns []string) MergeColumns {
	keys := make(map[string]bool, len(conflictColumns))
	for _, k := range conflictColumns {
		keys[k] = true
	}

	var out MergeColumns
	for i, tgt := range cols.Target {
		if !keys[tgt] {
			out.Source = append(out.Source, cols.Source[i])
			out.Target = append(out.Target, tgt)
		}
	}
	return out
}

// SourceKeyColumns возвращает имена ключевых колонок на стороне
// источника - обратное отображение ConflictColumns через ColumnMap
func SourceKeyColumns(req adapters.MergeRequest) []string {
	cols := OrderedColumns(req)
	keys := make([]string, len(req.ConflictColumns))
	for i, tgt := range req.ConflictColumns {
		for j, t := range cols.Target {
			if t == tgt {
				keys[i] = cols.Source[j]
				break
			}
		}
	}
	return keys
}

// BuildDedupedSource собирает подзапрос источника с одной строкой на ключ.
// Представитель детерминирован: ROW_NUMBER упорядочен по всем колонкам
// источника, побеждает наименьшая по значениям строка. Движки требуют
// ORDER BY в окне ROW_NUMBER и не дают стабильного физического порядка,
// поэтому порядок задается содержимым самих строк.
func BuildDedupedSource(quote func(string) string, sourceName string,
	req adapters.MergeRequest) string {

	cols := OrderedColumns(req)

	quotedSrc := make([]string, len(cols.Source))
	for i, c := range cols.Source {
		quotedSrc[i] = quote(c)
	}
	srcKeys := SourceKeyColumns(req)
	partition := make([]string, len(srcKeys))
	for i, k := range srcKeys {
		partition[i] = quote(k)
	}

	return fmt.Sprintf(
		"(SELECT %s FROM (SELECT %s, ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s) AS udt_rn FROM %s) AS ranked WHERE udt_rn = 1)",
		strings.Join(quotedSrc, ", "),
		strings.Join(quotedSrc, ", "),
		strings.Join(partition, ", "),
		strings.Join(quotedSrc, ", "),
		sourceName)
}

// BuildMergeStatement собирает MERGE ... USING ... для движков семейства
// MERGE (mssql, snowflake, bigquery). У этих движков может не быть
// enforced-уникальности, поэтому корректность обеспечивает сам anti-join:
// WHEN NOT MATCHED вставляет только строки с новыми ключами.
// Дубликаты ключей внутри источника схлопываются через ROW_NUMBER,
// иначе MERGE с несколькими source-строками на один target-ключ падает.
func BuildMergeStatement(quote func(string) string, sourceName, targetName string,
	req adapters.MergeRequest) string {

	cols := OrderedColumns(req)
	srcKeys := SourceKeyColumns(req)

	var onClauses []string
	for i, key := range req.ConflictColumns {
		onClauses = append(onClauses,
			fmt.Sprintf("T.%s = S.%s", quote(key), quote(srcKeys[i])))
	}

	using := BuildDedupedSource(quote, sourceName, req)

	insertTargets := make([]string, len(cols.Target))
	insertValues := make([]string, len(cols.Source))
	for i := range cols.Target {
		insertTargets[i] = quote(cols.Target[i])
		insertValues[i] = "S." + quote(cols.Source[i])
	}

	statement := fmt.Sprintf(
		"MERGE INTO %s T USING %s S ON %s WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
		targetName, using, strings.Join(onClauses, " AND "),
		strings.Join(insertTargets, ", "), strings.Join(insertValues, ", "))

	if req.Strategy == adapters.MergeUpdate {
		updates := nonKeyPairs(cols, req.ConflictColumns)
		if len(updates.Target) > 0 {
			sets := make([]string, len(updates.Target))
			for i := range updates.Target {
				sets[i] = fmt.Sprintf("T.%s = S.%s",
					quote(updates.Target[i]), quote(updates.Source[i]))
			}
			statement += " WHEN MATCHED THEN UPDATE SET " + strings.Join(sets, ", ")
		}
	}
	return statement
}

// BuildConflictCountQuery собирает запрос подсчета конфликтов.
// Для стратегии exception на MERGE-движках проверка выполняется
// до любой мутации: обнаруженный конфликт прерывает операцию
// без частичной вставки.
func BuildConflictCountQuery(quote func(string) string, sourceName, targetName string,
	req adapters.MergeRequest) string {

	cols := OrderedColumns(req)

	var onClauses []string
	for _, tgt := range req.ConflictColumns {
		for j, t := range cols.Target {
			if t == tgt {
				onClauses = append(onClauses,
					fmt.Sprintf("T.%s = S.%s", quote(tgt), quote(cols.Source[j])))
				break
			}
		}
	}

	return fmt.Sprintf("SELECT COUNT(*) FROM %s S JOIN %s T ON %s",
		sourceName, targetName, strings.Join(onClauses, " AND "))
}

// ConflictChecker выполняет запрос подсчета конфликтов
type ConflictChecker interface {
	QueryCount(ctx context.Context, query string) (int64, error)
}

// EnsureNoConflicts реализует стратегию exception: конфликт ключей
// обнаруживается до любой мутации целевой таблицы
func EnsureNoConflicts(ctx context.Context, checker ConflictChecker,
	quote func(string) string, sourceName, targetName string, req adapters.MergeRequest) error {

	count, err := checker.QueryCount(ctx, BuildConflictCountQuery(quote, sourceName, targetName, req))
	if err != nil {
		return fmt.Errorf("failed to check merge conflicts: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("merge into %s: %d conflicting rows on columns %v",
			targetName, count, req.ConflictColumns)
	}
	return nil
}
