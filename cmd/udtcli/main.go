package main

import (
	"context"
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "transfer":
		err = runTransfer(ctx, os.Args[2:])
	case "export":
		err = runExport(ctx, os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "cleanup":
		err = runCleanup(ctx, os.Args[2:])
	case "version", "-v", "--version":
		fmt.Printf("udtcli version %s\n", version)
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}

	if err != nil {
		fatal("%v", err)
	}
}

func printHelp() {
	fmt.Println(`udtcli - universal data transfer tool

Usage:
  udtcli <command> [flags]

Commands:
  transfer   Load a file (local, s3://, gs://, sftp://) into a database table
  export     Export a database table into a file
  validate   Validate a connections file
  cleanup    Drop temporary tables
  version    Print version

Run 'udtcli <command> -h' for command flags.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
