package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/connections"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/transfer"
)

func runCleanup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	connFile := fs.String("connections", "connections.yaml", "path to connections file")
	conn := fs.String("conn", "", "connection id for the database")
	schema := fs.String("schema", "", "schema/dataset of the tables")
	tables := fs.String("tables", "", "comma-separated temp table names to drop")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *conn == "" {
		return fmt.Errorf("cleanup: -conn is required")
	}
	if *tables == "" {
		return fmt.Errorf("cleanup: -tables is required")
	}

	registry, err := connections.LoadFile(*connFile)
	if err != nil {
		return err
	}
	runner, err := transfer.NewRunner(registry, transfer.DefaultConfig())
	if err != nil {
		return err
	}

	var targets []dataset.Table
	for _, name := range strings.Split(*tables, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t := dataset.NewTable(name, *conn, dataset.Metadata{Schema: *schema})
		t.Temp = true // явное перечисление означает согласие на удаление
		targets = append(targets, t)
	}

	if err := runner.CleanupTables(ctx, targets); err != nil {
		return err
	}
	fmt.Printf("Dropped %d table(s)\n", len(targets))
	return nil
}
