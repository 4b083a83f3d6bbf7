package filetypes

import (
	"fmt"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// flattenRecord разворачивает ровно один уровень вложенных объектов
// в плоские колонки parent<sep>child. Вложенность глубже одного
// уровня - жесткая ошибка, а не best-effort: молчаливая потеря
// данных здесь недопустима.
func flattenRecord(record map[string]any, sep string) (map[string]any, error) {
	flat := make(map[string]any, len(record))
	for key, value := range record {
		nested, ok := value.(map[string]any)
		if !ok {
			flat[key] = value
			continue
		}
		for childKey, childValue := range nested {
			if _, deeper := childValue.(map[string]any); deeper {
				return nil, errs.SchemaMismatch(fmt.Sprintf(
					"field %q is nested more than one level deep (%s%s%s contains an object)",
					key, key, sep, childKey))
			}
			flat[key+sep+childKey] = childValue
		}
	}
	return flat, nil
}

// recordsToPayload превращает список развернутых записей в payload.
// Колонки - объединение ключей всех записей в порядке первого появления;
// отсутствующие значения - nil.
func recordsToPayload(records []map[string]any, opts DecodeOptions) (*tabular.Payload, error) {
	sep := opts.Separator
	if sep == "" {
		sep = dataset.DefaultNestedSeparator
	}

	var columns []string
	seen := make(map[string]bool)

	flattened := make([]map[string]any, 0, len(records))
	for _, record := range records {
		flat, err := flattenRecord(record, sep)
		if err != nil {
			return nil, err
		}
		flattened = append(flattened, flat)
	}

	// Два прохода: сначала стабилизируем набор колонок, потом строки
	for _, flat := range flattened {
		for _, key := range sortedKeys(flat) {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}

	payload := tabular.New(columns...)
	for _, flat := range flattened {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = flat[col]
		}
		payload.Rows = append(payload.Rows, row)
	}

	payload.ApplyCapitalization(opts.Capitalization)
	return payload, nil
}
