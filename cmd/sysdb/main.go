package main

import (
	"fmt"
	"os"

	"github.com/vexsearch/sysdb/cmd/sysdb/inspect"
	"github.com/vexsearch/sysdb/cmd/sysdb/serve"
	"github.com/vexsearch/sysdb/cmd/sysdb/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		serve.Run(os.Args[2:])
	case "inspect":
		inspect.Run(os.Args[2:])
	case "version":
		version.Run()
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sysdb - In-memory system catalog for collections and segments

Usage:
  sysdb <command> [options]

Commands:
  serve     Load the catalog and serve metrics until interrupted
  inspect   Load a seed and print its collections, segments and databases
  version   Print version information
  help      Show this help message

Run 'sysdb <command> --help' for more information on a command.`)
}
