package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/connections"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/resultlog"
	"github.com/ruslano69/udt-framework/pkg/transfer"

	// регистрация адаптеров в фабрике
	_ "github.com/ruslano69/udt-framework/pkg/adapters/bigquery"
	_ "github.com/ruslano69/udt-framework/pkg/adapters/duckdb"
	_ "github.com/ruslano69/udt-framework/pkg/adapters/mssql"
	_ "github.com/ruslano69/udt-framework/pkg/adapters/mysql"
	_ "github.com/ruslano69/udt-framework/pkg/adapters/postgres"
	_ "github.com/ruslano69/udt-framework/pkg/adapters/snowflake"
	_ "github.com/ruslano69/udt-framework/pkg/adapters/sqlite"
)

func runTransfer(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	connFile := fs.String("connections", "connections.yaml", "path to connections file")
	src := fs.String("src", "", "source file path or URI (may contain a glob)")
	srcConn := fs.String("src-conn", "", "connection id for the source location")
	srcType := fs.String("type", "", "source file type (csv/json/ndjson/parquet/xlsx); inferred from extension if empty")
	destTable := fs.String("table", "", "destination table name (empty = temp table)")
	destConn := fs.String("conn", "", "connection id for the destination database")
	schema := fs.String("schema", "", "destination schema/dataset")
	ifExists := fs.String("if-exists", "replace", "behavior when the table exists: replace/append/fail")
	chunkSize := fs.Int("chunk-size", 0, "rows per insert chunk (0 = default)")
	noNative := fs.Bool("no-native", false, "disable engine-native bulk load")
	sep := fs.String("separator", "", "nested column separator (default _)")
	caseMode := fs.String("case", "", "column case policy: original/lower/upper")
	resultRedis := fs.String("result-redis", "", "redis address (host:port) to publish the transfer state to")
	resultName := fs.String("result-name", "", "transfer name for the result log (default = table name)")
	resultTTL := fs.Int("result-ttl", 86400, "TTL of the published state in seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *src == "" {
		return fmt.Errorf("transfer: -src is required")
	}
	if *destConn == "" {
		return fmt.Errorf("transfer: -conn is required")
	}

	registry, err := connections.LoadFile(*connFile)
	if err != nil {
		return err
	}

	source, err := dataset.NewFile(*src, *srcConn, dataset.FileType(*srcType))
	if err != nil {
		return err
	}
	source.Normalize = dataset.NormalizeConfig{
		Separator:      *sep,
		Capitalization: dataset.Capitalization(*caseMode),
	}

	runner, err := transfer.NewRunner(registry, transfer.DefaultConfig())
	if err != nil {
		return err
	}

	fmt.Printf("Transferring %s -> %s...\n", *src, *destTable)
	startedAt := time.Now()
	result, runErr := runner.Run(ctx, transfer.Request{
		Source:        source,
		Dest:          dataset.NewTable(*destTable, *destConn, dataset.Metadata{Schema: *schema}),
		IfExists:      adapters.IfExists(*ifExists),
		ChunkSize:     *chunkSize,
		DisableNative: *noNative,
	})

	// состояние публикуется и при ошибке переноса
	if *resultRedis != "" {
		name := *resultName
		if name == "" {
			name = *destTable
		}
		publisher := resultlog.NewRedisPublisher(resultlog.Config{
			Name:    name,
			Address: *resultRedis,
			TTL:     *resultTTL,
		})
		defer publisher.Close()
		if err := publisher.Publish(ctx, result, startedAt, time.Now(), runErr); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: result log publish failed: %v\n", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("Done: table %s, %d file(s), %s path", result.Dest.Name, len(result.Files), result.Path)
	if result.RowsLoaded >= 0 {
		fmt.Printf(", %d rows", result.RowsLoaded)
	}
	fmt.Println()
	return nil
}
