package main

import (
	"flag"
	"fmt"
	"sort"

	"github.com/ruslano69/udt-framework/pkg/connections"
)

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	connFile := fs.String("connections", "connections.yaml", "path to connections file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry, err := connections.LoadFile(*connFile)
	if err != nil {
		return err
	}
	if err := registry.Validate(); err != nil {
		return err
	}

	ids := registry.IDs()
	sort.Strings(ids)
	fmt.Printf("OK: %d connection(s)\n", len(ids))
	for _, id := range ids {
		conn, _ := registry.Resolve(id)
		fmt.Printf("  %s (%s)\n", id, conn.Type)
	}
	return nil
}
