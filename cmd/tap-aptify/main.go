package main

import (
	"context"
	"fmt"
	"os"

	"github.com/queuebridge/tap-aptify/pkg/catalog"
	"github.com/queuebridge/tap-aptify/pkg/config"
	"github.com/queuebridge/tap-aptify/pkg/mssql"
)

func main() {
	ctx := context.Background()

	// Parse flags
	flags := ParseFlags()

	// Handle version
	if flags.Version {
		PrintVersion()
		os.Exit(0)
	}

	// Handle help
	if flags.Help {
		PrintHelp()
		os.Exit(0)
	}

	// Handle config creation
	if flags.CreateConfig {
		createConfigTemplate()
		return
	}

	// Load configuration
	cfg, err := config.Load(flags.Config)
	if err != nil {
		fatal("Failed to load config: %v", err)
	}

	// Route commands
	var cmdErr error
	switch {
	case flags.Discover:
		cmdErr = runDiscover(ctx, cfg, flags)
	case flags.ListStreams:
		cmdErr = runListStreams(flags)
	case flags.Sync || flags.Catalog != "":
		cmdErr = runSync(ctx, cfg, flags)
	default:
		PrintHelp()
		os.Exit(1)
	}

	if cmdErr != nil {
		fatal("Command failed: %v", cmdErr)
	}
}

// createConfigTemplate creates a sample configuration file
func createConfigTemplate() {
	if err := config.Save("config.yaml", config.Sample()); err != nil {
		fatal("Failed to save config: %v", err)
	}

	fmt.Fprintln(os.Stderr, "✓ Created sample config: config.yaml")
	fmt.Fprintln(os.Stderr, "Edit the file with your database credentials and run:")
	fmt.Fprintln(os.Stderr, "  tap-aptify --discover --config config.yaml > catalog.json")
}

// runDiscover introspects the database and prints the catalog to stdout.
func runDiscover(ctx context.Context, cfg *config.Config, flags *Flags) error {
	conn, err := mssql.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	cat, err := conn.Discover(ctx, cfg.MapMode())
	if err != nil {
		return err
	}

	if flags.Output != "" {
		if err := catalog.Save(flags.Output, cat); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Discovered %d streams -> %s\n", len(cat.Streams), flags.Output)
		return nil
	}
	return printCatalog(os.Stdout, cat)
}

// runListStreams shows the streams of a catalog and their selection state.
func runListStreams(flags *Flags) error {
	if flags.Catalog == "" {
		return fmt.Errorf("--list-streams requires --catalog")
	}
	cat, err := catalog.Load(flags.Catalog)
	if err != nil {
		return err
	}

	for _, entry := range cat.Streams {
		mark := " "
		if entry.Selected() {
			mark = "✓"
		}
		repl := entry.ReplicationMethod
		if repl == "" {
			repl = catalog.ReplicationFullTable
		}
		fmt.Printf("%s %-40s %-12s key=%s\n", mark, entry.TapStreamID, repl, entry.ReplicationKey)
	}
	return nil
}

// fatal prints error and exits
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
