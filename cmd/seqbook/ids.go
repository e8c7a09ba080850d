package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pevans/seqbook/anchors"
	"github.com/pevans/seqbook/config"
	"github.com/spf13/pflag"
)

func handleIDs(args []string) {
	fs := pflag.NewFlagSet("ids", pflag.ExitOnError)
	common := addCommonFlags(fs)
	format := fs.String("format", "table", "Output format: table or json")
	fs.Parse(args)

	cfg, err := common.settings(fs)
	if err != nil {
		fail("failed to load settings: %v", err)
	}

	// Only the manifest is needed; nothing is fetched
	store, err := config.Load(cfg.Paths())
	if err != nil {
		fail("%v", err)
	}

	table, err := anchors.Assign(store.Manifest(), anchors.Options{AllowDuplicates: cfg.AllowDuplicates})
	if err != nil {
		fail("%v", err)
	}

	entries := table.Entries()

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			fail("failed to encode table: %v", err)
		}
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL")
		fmt.Fprintln(w, "--\t---")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\n", e.ID, e.URL)
		}
		w.Flush()
		fmt.Printf("\nTotal: %d articles\n", table.Len())
	default:
		fail("unknown format: %s", *format)
	}
}
