package main

import "flag"

// Flags holds all command-line flags
type Flags struct {
	// Commands
	Discover     bool
	Sync         bool
	ListStreams  bool
	CreateConfig bool

	// Options
	Config  string
	Catalog string
	State   string
	Output  string

	// Stream selection override (comma-separated tap_stream_ids)
	Select string

	// Misc
	Version bool
	Help    bool
}

// ParseFlags defines and parses all command-line flags
func ParseFlags() *Flags {
	f := &Flags{}

	// Commands
	flag.BoolVar(&f.Discover, "discover", false, "Discover streams and write the catalog to stdout")
	flag.BoolVar(&f.Sync, "sync", false, "Sync selected streams (default when a catalog is given)")
	flag.BoolVar(&f.ListStreams, "list-streams", false, "List the streams of a catalog with their selection")
	flag.BoolVar(&f.CreateConfig, "create-config", false, "Create a sample config file")

	// Options
	flag.StringVar(&f.Config, "config", "config.yaml", "Configuration file path (YAML or JSON)")
	flag.StringVar(&f.Catalog, "catalog", "", "Catalog file path")
	flag.StringVar(&f.State, "state", "state.json", "State file path for replication bookmarks")
	flag.StringVar(&f.Output, "output", "", "Write messages to a file instead of stdout")
	flag.StringVar(&f.Select, "select", "", "Sync only these streams (comma-separated tap_stream_ids)")

	// Misc
	flag.BoolVar(&f.Version, "version", false, "Show version information")
	flag.BoolVar(&f.Help, "help", false, "Show detailed help with examples")

	flag.Parse()

	return f
}
