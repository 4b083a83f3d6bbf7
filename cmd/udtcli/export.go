package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/brokers"
	"github.com/ruslano69/udt-framework/pkg/connections"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/transfer"
)

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	connFile := fs.String("connections", "connections.yaml", "path to connections file")
	table := fs.String("table", "", "source table name")
	conn := fs.String("conn", "", "connection id for the source database")
	schema := fs.String("schema", "", "source schema/dataset")
	out := fs.String("out", "", "output file path or URI")
	outConn := fs.String("out-conn", "", "connection id for the output location")
	outType := fs.String("type", "", "output file type; inferred from extension if empty")
	brokerType := fs.String("broker", "", "publish rows to a message broker instead of a file: rabbitmq/kafka")
	brokerAddr := fs.String("broker-addr", "", "broker address: host:port (rabbitmq) or comma-separated brokers (kafka)")
	brokerQueue := fs.String("queue", "", "queue name (rabbitmq) or topic (kafka)")
	batchSize := fs.Int("batch-size", 0, "rows per broker message (0 = default)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *table == "" {
		return fmt.Errorf("export: -table is required")
	}
	if *conn == "" {
		return fmt.Errorf("export: -conn is required")
	}
	if *out == "" && *brokerType == "" {
		return fmt.Errorf("export: either -out or -broker is required")
	}

	registry, err := connections.LoadFile(*connFile)
	if err != nil {
		return err
	}
	runner, err := transfer.NewRunner(registry, transfer.DefaultConfig())
	if err != nil {
		return err
	}
	src := dataset.NewTable(*table, *conn, dataset.Metadata{Schema: *schema})

	if *brokerType != "" {
		return exportToBroker(ctx, runner, src, *brokerType, *brokerAddr, *brokerQueue, *batchSize)
	}

	dest, err := dataset.NewFile(*out, *outConn, dataset.FileType(*outType))
	if err != nil {
		return err
	}

	fmt.Printf("Exporting %s -> %s...\n", *table, *out)
	if err := runner.ExportTable(ctx, src, dest); err != nil {
		return err
	}
	fmt.Println("Done")
	return nil
}

// exportToBroker выгружает таблицу и публикует строки NDJSON-батчами
func exportToBroker(ctx context.Context, runner *transfer.Runner, src dataset.Table,
	brokerType, addr, queue string, batchSize int) error {

	if addr == "" {
		return fmt.Errorf("export: -broker-addr is required with -broker")
	}
	if queue == "" {
		return fmt.Errorf("export: -queue is required with -broker")
	}

	cfg := brokers.Config{Type: brokerType}
	switch brokerType {
	case "rabbitmq":
		host, port, err := splitHostPort(addr)
		if err != nil {
			return err
		}
		cfg.Host = host
		cfg.Port = port
		cfg.Queue = queue
		cfg.Durable = true
	case "kafka":
		cfg.Brokers = strings.Split(addr, ",")
		cfg.Topic = queue
	}

	broker, err := brokers.New(cfg)
	if err != nil {
		return err
	}
	if err := broker.Connect(ctx); err != nil {
		return err
	}
	defer broker.Close()

	payload, err := runner.ExportTableToPayload(ctx, src)
	if err != nil {
		return err
	}

	fmt.Printf("Publishing %s -> %s %s...\n", src.Name, brokerType, queue)
	if err := brokers.PublishPayload(ctx, broker, payload, batchSize); err != nil {
		return err
	}
	fmt.Printf("Done: %d row(s)\n", payload.NumRows())
	return nil
}

// splitHostPort разбирает host:port
func splitHostPort(addr string) (string, int, error) {
	host, portStr, found := strings.Cut(addr, ":")
	if !found {
		return "", 0, fmt.Errorf("export: broker address %q must be host:port", addr)
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return "", 0, fmt.Errorf("export: invalid broker port %q", portStr)
	}
	return host, port, nil
}
