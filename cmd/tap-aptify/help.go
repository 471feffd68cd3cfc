package main

import "fmt"

const version = "1.2.0"

// PrintVersion prints version information
func PrintVersion() {
	fmt.Printf("tap-aptify version %s\n", version)
	fmt.Println("Aptify SQL Server extractor")
}

// PrintHelp prints comprehensive help information
func PrintHelp() {
	fmt.Println("tap-aptify - extract data from an Aptify SQL Server database")
	fmt.Printf("Version: %s\n\n", version)

	fmt.Println("USAGE:")
	fmt.Println("  tap-aptify [command] [options]")
	fmt.Println()

	fmt.Println("COMMANDS:")
	fmt.Println("    --discover                 Introspect the database and print the catalog")
	fmt.Println("    --sync                     Sync selected streams (default with --catalog)")
	fmt.Println("    --list-streams             Show catalog streams and their selection")
	fmt.Println("    --create-config            Create a sample config file")
	fmt.Println()

	fmt.Println("OPTIONS:")
	fmt.Println("    --config <file>            Configuration file (default: config.yaml)")
	fmt.Println("    --catalog <file>           Catalog file from a previous --discover")
	fmt.Println("    --state <file>             Bookmark state file (default: state.json)")
	fmt.Println("    --output <file>            Write messages to a file instead of stdout")
	fmt.Println("    --select <streams>         Sync only these streams (comma-separated)")
	fmt.Println("    --version                  Show version")
	fmt.Println("    --help                     Show this help")
	fmt.Println()

	fmt.Println("EXAMPLES:")
	fmt.Println("  Discover the catalog:")
	fmt.Println("    tap-aptify --discover --config config.yaml > catalog.json")
	fmt.Println()
	fmt.Println("  Sync every selected stream:")
	fmt.Println("    tap-aptify --config config.yaml --catalog catalog.json --state state.json")
	fmt.Println()
	fmt.Println("  Sync a single stream:")
	fmt.Println("    tap-aptify --config config.yaml --catalog catalog.json --select dbo-ssPerson")
	fmt.Println()

	fmt.Println("OUTPUT:")
	fmt.Println("  SCHEMA, RECORD, STATE and BATCH messages as newline-delimited JSON on")
	fmt.Println("  stdout. Progress and audit output goes to stderr.")
}
