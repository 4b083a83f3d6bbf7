package brokers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

// PublishPayload отправляет payload батчами NDJSON-сообщений:
// одна строка таблицы - одна JSON-строка, batchSize строк на сообщение
func PublishPayload(ctx context.Context, broker MessageBroker, p *tabular.Payload, batchSize int) error {
	if batchSize <= 0 {
		batchSize = tabular.DefaultChunkSize
	}

	for _, chunk := range p.Chunks(batchSize) {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, row := range chunk.Rows {
			record := make(map[string]any, len(chunk.Columns))
			for i, col := range chunk.Columns {
				if i < len(row) {
					record[col] = row[i]
				}
			}
			if err := enc.Encode(record); err != nil {
				return fmt.Errorf("failed to encode row: %w", err)
			}
		}
		if err := broker.Send(ctx, buf.Bytes()); err != nil {
			return fmt.Errorf("failed to publish batch: %w", err)
		}
	}
	return nil
}
